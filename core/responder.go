package core

import (
	"context"

	"github.com/jdelaire/ratesbot/core/rates"
)

// Responder delivers replies to the chat platform.
type Responder interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	AnswerInlineQuery(ctx context.Context, queryID string, results []rates.Result) error
}
