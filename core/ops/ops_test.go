package ops_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jdelaire/ratesbot/core/ops"
	"github.com/jdelaire/ratesbot/core/rates"
)

const wantHelp = "This bot is intended to be used in inline mode, just type @cryptorates_bot in any chat."

func TestHelpText(t *testing.T) {
	tests := []struct {
		handle string
		want   string
	}{
		{"cryptorates_bot", wantHelp},
		{"@cryptorates_bot", wantHelp},
		{"", wantHelp},
		{"other_bot", "This bot is intended to be used in inline mode, just type @other_bot in any chat."},
	}
	for _, tt := range tests {
		if got := ops.HelpText(tt.handle); got != tt.want {
			t.Errorf("HelpText(%q) = %q, want %q", tt.handle, got, tt.want)
		}
	}
}

func TestStartAndHelpReplySame(t *testing.T) {
	start := ops.NewStartOp("cryptorates_bot")
	help := ops.NewHelpOp("cryptorates_bot")

	if start.Name() != "start" || help.Name() != "help" {
		t.Fatalf("names = %q, %q", start.Name(), help.Name())
	}

	for _, op := range []ops.Op{start, help} {
		got, err := op.Execute(context.Background(), "anything")
		if err != nil {
			t.Fatalf("%s: %v", op.Name(), err)
		}
		if got != wantHelp {
			t.Errorf("%s reply = %q, want %q", op.Name(), got, wantHelp)
		}
	}
}

func TestHelpIsDirect(t *testing.T) {
	for _, op := range []ops.Op{ops.NewStartOp(""), ops.NewHelpOp("")} {
		d, ok := op.(ops.DirectOp)
		if !ok || !d.Direct() {
			t.Errorf("%s should reply to the user directly", op.Name())
		}
	}
	if _, ok := ops.Op(&ops.RateOp{}).(ops.DirectOp); ok {
		t.Error("rate should reply in the chat")
	}
}

func TestRateOp(t *testing.T) {
	f := &stubFetcher{quotes: []rates.Quote{
		rates.NewQuote(rates.Spot, "2000.00"),
		rates.NewQuote(rates.Buy, "2010.00"),
		rates.ErrorQuote(rates.Sell),
	}}
	op := &ops.RateOp{Fetcher: f}

	got, err := op.Execute(context.Background(), "eth usd")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := "ETH to USD\nSpot rate: 2000.00\nBuy rate: 2010.00\nSell rate: Error"
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if len(f.pairs) != 1 || f.pairs[0] != (rates.Pair{From: "ETH", To: "USD"}) {
		t.Errorf("fetched pairs = %v", f.pairs)
	}
}

func TestRateOpInvalidPair(t *testing.T) {
	f := &stubFetcher{}
	op := &ops.RateOp{Fetcher: f}

	for _, args := range []string{"", "bitcoin", "e u"} {
		_, err := op.Execute(context.Background(), args)
		if !errors.Is(err, rates.ErrInvalidPair) {
			t.Errorf("args %q: err = %v, want ErrInvalidPair", args, err)
		}
	}
	if len(f.pairs) != 0 {
		t.Errorf("fetched %d pairs for invalid input, want 0", len(f.pairs))
	}
}

func TestRateOpFetchError(t *testing.T) {
	op := &ops.RateOp{Fetcher: &stubFetcher{err: errors.New("upstream down")}}
	if _, err := op.Execute(context.Background(), "btc"); err == nil {
		t.Fatal("expected error")
	}
}
