package telegram_responder

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jdelaire/ratesbot/core/rates"
)

// BotAPI is the part of *tgbotapi.BotAPI the responder needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Responder sends chat replies and inline answers via the Telegram Bot API.
type Responder struct {
	bot       BotAPI
	cacheTime int
}

// New creates a Telegram responder.
func New(bot BotAPI) *Responder {
	return &Responder{bot: bot}
}

// WithCacheTime sets how long, in seconds, Telegram may cache inline answers.
// Zero leaves the platform default.
func (r *Responder) WithCacheTime(seconds int) *Responder {
	r.cacheTime = seconds
	return r
}

func (r *Responder) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	return nil
}

// AnswerInlineQuery answers with one Markdown article per result. An empty
// results slice is sent as an empty list.
func (r *Responder) AnswerInlineQuery(ctx context.Context, queryID string, results []rates.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	articles := make([]interface{}, 0, len(results))
	for _, res := range results {
		articles = append(articles, tgbotapi.NewInlineQueryResultArticleMarkdown(res.ID, res.Title, res.Message))
	}

	cfg := tgbotapi.InlineConfig{
		InlineQueryID: queryID,
		Results:       articles,
		CacheTime:     r.cacheTime,
	}
	if _, err := r.bot.Request(cfg); err != nil {
		return fmt.Errorf("telegram answer inline query: %w", err)
	}
	return nil
}

// Command is an entry of the bot's command menu.
type Command struct {
	Name        string
	Description string
}

// SetCommands replaces the command menu Telegram clients show for the bot.
func (r *Responder) SetCommands(ctx context.Context, cmds []Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	botCmds := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		botCmds = append(botCmds, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	if _, err := r.bot.Request(tgbotapi.NewSetMyCommands(botCmds...)); err != nil {
		return fmt.Errorf("telegram set my commands: %w", err)
	}
	return nil
}
