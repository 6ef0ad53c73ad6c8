package core

import "time"

// InboundMessage represents a chat message received from Telegram.
type InboundMessage struct {
	UpdateID  int64
	ChatID    int64
	UserID    int64
	Text      string
	Timestamp time.Time
}

// InlineQuery is an "@bot text" request typed in any chat.
type InlineQuery struct {
	UpdateID int64
	ID       string
	UserID   int64
	Query    string
}

// MessageHandler processes an inbound message.
type MessageHandler func(msg InboundMessage)

// InlineQueryHandler processes an inline query.
type InlineQueryHandler func(q InlineQuery)
