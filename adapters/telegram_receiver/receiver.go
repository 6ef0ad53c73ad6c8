package telegram_receiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jdelaire/ratesbot/core"
)

const (
	DefaultPollTimeout = 30
	errorBackoff       = 5 * time.Second
)

var allowedUpdates = []string{"message", "inline_query"}

// UpdatesAPI is the part of *tgbotapi.BotAPI the receiver needs.
type UpdatesAPI interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Handlers receive decoded updates. Either may be nil.
type Handlers struct {
	Message     core.MessageHandler
	InlineQuery core.InlineQueryHandler
}

// Receiver long-polls Telegram for messages and inline queries.
type Receiver struct {
	api         UpdatesAPI
	handlers    Handlers
	logger      *slog.Logger
	pollTimeout int
	backoff     time.Duration
	offset      int
}

// New creates a Telegram receiver.
func New(api UpdatesAPI, handlers Handlers, logger *slog.Logger) *Receiver {
	return &Receiver{
		api:         api,
		handlers:    handlers,
		logger:      logger,
		pollTimeout: DefaultPollTimeout,
		backoff:     errorBackoff,
	}
}

// WithPollTimeout sets the getUpdates long-poll timeout in seconds.
func (r *Receiver) WithPollTimeout(seconds int) *Receiver {
	if seconds >= 0 {
		r.pollTimeout = seconds
	}
	return r
}

// WithBackoff overrides the delay after a failed poll (for testing).
func (r *Receiver) WithBackoff(d time.Duration) *Receiver {
	r.backoff = d
	return r
}

// Start begins the long-poll loop. Blocks until ctx is cancelled.
func (r *Receiver) Start(ctx context.Context) error {
	r.logger.Info("telegram receiver started")
	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info("telegram receiver stopped")
			return nil
		}

		updates, err := r.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Info("telegram receiver stopped")
				return nil
			}
			r.logger.Error("poll error", "error", err)
			select {
			case <-time.After(r.backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		for _, u := range updates {
			r.dispatch(u)
			r.offset = u.UpdateID + 1
		}
	}
}

func (r *Receiver) dispatch(u tgbotapi.Update) {
	switch {
	case u.InlineQuery != nil:
		if r.handlers.InlineQuery == nil {
			return
		}
		var userID int64
		if u.InlineQuery.From != nil {
			userID = u.InlineQuery.From.ID
		}
		r.handlers.InlineQuery(core.InlineQuery{
			UpdateID: int64(u.UpdateID),
			ID:       u.InlineQuery.ID,
			UserID:   userID,
			Query:    u.InlineQuery.Query,
		})

	case u.Message != nil && u.Message.Text != "":
		if r.handlers.Message == nil {
			return
		}
		var userID, chatID int64
		if u.Message.From != nil {
			userID = u.Message.From.ID
		}
		if u.Message.Chat != nil {
			chatID = u.Message.Chat.ID
		}
		r.handlers.Message(core.InboundMessage{
			UpdateID:  int64(u.UpdateID),
			ChatID:    chatID,
			UserID:    userID,
			Text:      u.Message.Text,
			Timestamp: time.Unix(int64(u.Message.Date), 0),
		})
	}
}

type pollResult struct {
	updates []tgbotapi.Update
	err     error
}

// poll runs one getUpdates call. The bot client has no context support, so
// the call runs in its own goroutine and is abandoned on cancellation.
func (r *Receiver) poll(ctx context.Context) ([]tgbotapi.Update, error) {
	cfg := tgbotapi.NewUpdate(r.offset)
	cfg.Timeout = r.pollTimeout
	cfg.AllowedUpdates = allowedUpdates

	ch := make(chan pollResult, 1)
	go func() {
		updates, err := r.api.GetUpdates(cfg)
		ch <- pollResult{updates: updates, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("get updates: %w", res.err)
		}
		return res.updates, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
