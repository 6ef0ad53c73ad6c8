package ops

import (
	"context"

	"github.com/jdelaire/ratesbot/core/rates"
)

// QuoteFetcher returns the spot, buy and sell quotes of a pair.
type QuoteFetcher interface {
	Fetch(ctx context.Context, pair rates.Pair) ([]rates.Quote, error)
}

// RateOp replies to "/rate btc usd" with the three rates as plain text.
type RateOp struct {
	Fetcher QuoteFetcher
}

func (r *RateOp) Name() string { return "rate" }
func (r *RateOp) Description() string { return "Show spot, buy and sell rates" }

func (r *RateOp) Execute(ctx context.Context, args string) (string, error) {
	pair, ok := rates.ParseQuery(args)
	if !ok {
		return "", rates.ErrInvalidPair
	}

	quotes, err := r.Fetcher.Fetch(ctx, pair)
	if err != nil {
		return "", err
	}
	return rates.Summary(pair, quotes), nil
}
