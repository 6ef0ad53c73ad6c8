package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jdelaire/ratesbot/core/metrics"
)

// DefaultFetchTimeout bounds a single pricing request.
const DefaultFetchTimeout = 10 * time.Second

// PriceSource fetches one price for a pair. It returns an error only when the
// provider could not be reached; an unreadable payload yields an error quote.
type PriceSource interface {
	Price(ctx context.Context, pair Pair, t RateType) (Quote, error)
}

// FetcherConfig controls how quotes are gathered.
type FetcherConfig struct {
	// FailFast aborts the whole fetch on the first transport error. When
	// false the failed rate type is reported as an error quote instead.
	FailFast bool
	Timeout  time.Duration
}

// Fetcher requests the spot, buy and sell prices of a pair concurrently.
type Fetcher struct {
	source  PriceSource
	cfg     FetcherConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher. m may be nil.
func NewFetcher(source PriceSource, cfg FetcherConfig, m *metrics.Metrics, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		source:  source,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// Fetch returns one quote per entry of Types, in that order.
func (f *Fetcher) Fetch(ctx context.Context, pair Pair) ([]Quote, error) {
	quotes := make([]Quote, len(Types))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range Types {
		i, t := i, t
		g.Go(func() error {
			q, err := f.fetchOne(gctx, pair, t)
			if err != nil {
				if f.cfg.FailFast {
					return fmt.Errorf("fetch %s %s: %w", pair, t, err)
				}
				f.logger.Warn("price fetch failed", "pair", pair.String(), "rate_type", t.String(), "error", err)
				q = ErrorQuote(t)
			}
			quotes[i] = q
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, pair Pair, t RateType) (Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	start := time.Now()
	q, err := f.source.Price(ctx, pair, t)

	kind := ""
	switch {
	case err != nil:
		kind = "transport"
		if errors.Is(err, context.DeadlineExceeded) {
			kind = "timeout"
		}
	case !q.OK:
		kind = "payload"
	}
	f.metrics.ObserveFetch(t.String(), time.Since(start), kind)

	if err != nil {
		return Quote{}, err
	}
	q.Type = t
	return q, nil
}
