package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jdelaire/ratesbot/core/metrics"
	"github.com/jdelaire/ratesbot/core/ops"
	"github.com/jdelaire/ratesbot/core/rates"
)

const (
	DefaultMaxConcurrent = 16
	opTimeout            = 30 * time.Second
	respondTimeout       = 10 * time.Second
)

// QuoteFetcher returns the spot, buy and sell quotes of a pair.
type QuoteFetcher interface {
	Fetch(ctx context.Context, pair rates.Pair) ([]rates.Quote, error)
}

// Dispatcher routes inbound events: commands go to ops, inline queries are
// parsed, priced and answered. Each event runs in its own goroutine so a
// slow upstream never holds up the receiver.
type Dispatcher struct {
	ops       *ops.Registry
	fetcher   QuoteFetcher
	responder Responder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	sem       chan struct{}
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. m may be nil; maxConcurrent <= 0 uses
// DefaultMaxConcurrent.
func NewDispatcher(opsReg *ops.Registry, fetcher QuoteFetcher, responder Responder, m *metrics.Metrics, maxConcurrent int, logger *slog.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Dispatcher{
		ops:       opsReg,
		fetcher:   fetcher,
		responder: responder,
		metrics:   m,
		logger:    logger,
		sem:       make(chan struct{}, maxConcurrent),
	}
}

// Wait blocks until all in-flight events have been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// HandleMessage runs a chat command. Text that is not a command is ignored.
func (d *Dispatcher) HandleMessage(msg InboundMessage) {
	cmd, args := parseCommand(msg.Text)
	if cmd == "" {
		return
	}
	cmd = resolveCommand(cmd)

	op := d.ops.Get(cmd)
	if op == nil {
		d.respondAsync(msg.ChatID, fmt.Sprintf("Unknown command: /%s\nSend /help for available commands.", cmd))
		return
	}

	replyTo := msg.ChatID
	if direct, ok := op.(ops.DirectOp); ok && direct.Direct() && msg.UserID != 0 {
		replyTo = msg.UserID
	}

	// Non-blocking semaphore acquire.
	select {
	case d.sem <- struct{}{}:
	default:
		d.respondAsync(replyTo, "Busy, too many requests in flight. Try again shortly.")
		return
	}

	d.metrics.Command(cmd)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		result, err := op.Execute(ctx, args)
		if err != nil {
			d.logger.Error("op failed", "op", cmd, "error", err)
			d.respond(replyTo, fmt.Sprintf("Error running /%s: %s", cmd, err))
			return
		}
		d.respond(replyTo, result)
	}()
}

// HandleInlineQuery answers an inline query with rate results. Queries that
// do not name a valid pair get an empty answer without touching the
// pricing API; a failed fetch gets no answer at all.
func (d *Dispatcher) HandleInlineQuery(q InlineQuery) {
	pair, ok := rates.ParseQuery(q.Query)
	if !ok {
		d.metrics.InlineQuery(metrics.OutcomeRejected)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.answer(q.ID, nil)
		}()
		return
	}

	select {
	case d.sem <- struct{}{}:
	default:
		d.metrics.InlineQuery(metrics.OutcomeBusy)
		d.logger.Warn("inline query dropped, dispatcher busy", "query_id", q.ID, "pair", pair.String())
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		quotes, err := d.fetcher.Fetch(ctx, pair)
		if err != nil {
			d.metrics.InlineQuery(metrics.OutcomeFailed)
			d.logger.Error("fetch rates failed", "query_id", q.ID, "pair", pair.String(), "error", err)
			return
		}

		d.metrics.InlineQuery(metrics.OutcomeAnswered)
		d.answer(q.ID, rates.Format(pair, quotes))
	}()
}

// respondAsync sends a reply without holding up the caller.
func (d *Dispatcher) respondAsync(chatID int64, text string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.respond(chatID, text)
	}()
}

func (d *Dispatcher) respond(chatID int64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), respondTimeout)
	defer cancel()

	if err := d.responder.SendMessage(ctx, chatID, text); err != nil {
		d.logger.Error("failed to send response", "chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) answer(queryID string, results []rates.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), respondTimeout)
	defer cancel()

	if err := d.responder.AnswerInlineQuery(ctx, queryID, results); err != nil {
		d.logger.Error("failed to answer inline query", "query_id", queryID, "error", err)
	}
}

// prefixCommands match any command name that starts with them, so
// "/startnow" runs /start.
var prefixCommands = []string{"start", "help"}

func resolveCommand(cmd string) string {
	for _, p := range prefixCommands {
		if strings.HasPrefix(cmd, p) {
			return p
		}
	}
	return cmd
}

// parseCommand extracts the command name and arguments from a message.
// It handles "/command", "/command args", and "/command@botname args".
func parseCommand(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	text = text[1:]
	cmd = text
	if i := strings.IndexFunc(text, unicode.IsSpace); i != -1 {
		cmd = text[:i]
		args = strings.TrimSpace(text[i:])
	}

	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}

	cmd = strings.ToLower(cmd)
	return cmd, args
}
