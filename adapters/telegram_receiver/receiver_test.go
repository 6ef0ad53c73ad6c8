package telegram_receiver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jdelaire/ratesbot/adapters/telegram_receiver"
	"github.com/jdelaire/ratesbot/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pollReply struct {
	updates []tgbotapi.Update
	err     error
}

// fakeAPI serves scripted getUpdates replies, then blocks until released.
type fakeAPI struct {
	mu      sync.Mutex
	replies []pollReply
	configs []tgbotapi.UpdateConfig
	release chan struct{}
}

func newFakeAPI(replies ...pollReply) *fakeAPI {
	return &fakeAPI{replies: replies, release: make(chan struct{})}
}

func (f *fakeAPI) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	f.configs = append(f.configs, cfg)
	if len(f.replies) == 0 {
		f.mu.Unlock()
		<-f.release
		return nil, errors.New("released")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	f.mu.Unlock()
	return r.updates, r.err
}

func (f *fakeAPI) polls() []tgbotapi.UpdateConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.UpdateConfig(nil), f.configs...)
}

type collector struct {
	mu       sync.Mutex
	messages []core.InboundMessage
	queries  []core.InlineQuery
}

func (c *collector) handlers() telegram_receiver.Handlers {
	return telegram_receiver.Handlers{
		Message: func(m core.InboundMessage) {
			c.mu.Lock()
			c.messages = append(c.messages, m)
			c.mu.Unlock()
		},
		InlineQuery: func(q core.InlineQuery) {
			c.mu.Lock()
			c.queries = append(c.queries, q)
			c.mu.Unlock()
		},
	}
}

func runFor(t *testing.T, r *telegram_receiver.Receiver, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestPollMessageAndInlineQuery(t *testing.T) {
	api := newFakeAPI(pollReply{updates: []tgbotapi.Update{
		{
			UpdateID: 100,
			Message: &tgbotapi.Message{
				MessageID: 1,
				From:      &tgbotapi.User{ID: 42},
				Chat:      &tgbotapi.Chat{ID: 123},
				Date:      int(time.Now().Unix()),
				Text:      "/help",
			},
		},
		{
			UpdateID: 101,
			InlineQuery: &tgbotapi.InlineQuery{
				ID:    "iq-1",
				From:  &tgbotapi.User{ID: 7},
				Query: "btc usd",
			},
		},
	}})
	defer close(api.release)

	c := &collector{}
	runFor(t, telegram_receiver.New(api, c.handlers(), testLogger()), 300*time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) != 1 {
		t.Fatalf("received %d messages, want 1", len(c.messages))
	}
	m := c.messages[0]
	if m.Text != "/help" || m.ChatID != 123 || m.UserID != 42 || m.UpdateID != 100 {
		t.Errorf("message = %+v", m)
	}

	if len(c.queries) != 1 {
		t.Fatalf("received %d inline queries, want 1", len(c.queries))
	}
	q := c.queries[0]
	if q.ID != "iq-1" || q.Query != "btc usd" || q.UserID != 7 || q.UpdateID != 101 {
		t.Errorf("inline query = %+v", q)
	}
}

func TestSkipsNoText(t *testing.T) {
	api := newFakeAPI(pollReply{updates: []tgbotapi.Update{
		{UpdateID: 50, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 10}}},
		{UpdateID: 51},
	}})
	defer close(api.release)

	c := &collector{}
	runFor(t, telegram_receiver.New(api, c.handlers(), testLogger()), 300*time.Millisecond)

	c.mu.Lock()
	if len(c.messages) != 0 || len(c.queries) != 0 {
		t.Errorf("received %d messages / %d queries, want none", len(c.messages), len(c.queries))
	}
	c.mu.Unlock()
	polls := api.polls()
	if len(polls) < 2 || polls[1].Offset != 52 {
		t.Errorf("polls = %+v, want second offset 52", polls)
	}
}

func TestOffsetIncrement(t *testing.T) {
	api := newFakeAPI(
		pollReply{updates: []tgbotapi.Update{{UpdateID: 200, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "hi"}}}},
		pollReply{},
	)
	defer close(api.release)

	r := telegram_receiver.New(api, telegram_receiver.Handlers{}, testLogger()).WithPollTimeout(5)
	runFor(t, r, 300*time.Millisecond)

	polls := api.polls()
	if len(polls) < 3 {
		t.Fatalf("expected at least 3 polls, got %d", len(polls))
	}
	if polls[0].Offset != 0 {
		t.Errorf("first offset = %d, want 0", polls[0].Offset)
	}
	if polls[1].Offset != 201 || polls[2].Offset != 201 {
		t.Errorf("offsets = %d, %d, want 201", polls[1].Offset, polls[2].Offset)
	}
	if polls[0].Timeout != 5 {
		t.Errorf("timeout = %d, want 5", polls[0].Timeout)
	}
}

func TestContextCancellation(t *testing.T) {
	api := newFakeAPI()
	defer close(api.release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r := telegram_receiver.New(api, telegram_receiver.Handlers{}, testLogger())

	go func() {
		r.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not stop after context cancellation")
	}
}

func TestAPIErrorBackoff(t *testing.T) {
	api := newFakeAPI(
		pollReply{err: errors.New("bad gateway")},
		pollReply{err: errors.New("bad gateway")},
	)
	defer close(api.release)

	r := telegram_receiver.New(api, telegram_receiver.Handlers{}, testLogger()).WithBackoff(10 * time.Millisecond)
	runFor(t, r, 500*time.Millisecond)

	if n := len(api.polls()); n < 3 {
		t.Errorf("expected at least 3 polls (with backoff), got %d", n)
	}
}

func TestBotAPIWireFormat(t *testing.T) {
	var mu sync.Mutex
	updatesCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Rates","username":"cryptorates_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			mu.Lock()
			updatesCalls++
			n := updatesCalls
			mu.Unlock()
			if n == 1 {
				json.NewEncoder(w).Encode(map[string]any{
					"ok": true,
					"result": []map[string]any{
						{
							"update_id": 9,
							"inline_query": map[string]any{
								"id":     "777",
								"from":   map[string]any{"id": 5, "is_bot": false, "first_name": "A"},
								"query":  "eth",
								"offset": "",
							},
						},
					},
				})
				return
			}
			time.Sleep(20 * time.Millisecond)
			w.Write([]byte(`{"ok":true,"result":[]}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint("tok", srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}

	c := &collector{}
	runFor(t, telegram_receiver.New(bot, c.handlers(), testLogger()).WithPollTimeout(0), 300*time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queries) != 1 {
		t.Fatalf("received %d inline queries, want 1", len(c.queries))
	}
	if c.queries[0].ID != "777" || c.queries[0].Query != "eth" || c.queries[0].UserID != 5 {
		t.Errorf("inline query = %+v", c.queries[0])
	}
}
