package refresher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/remeh/sizedwaitgroup"

	"github.com/qubicdash/qubicdash/pkg/types"
	"github.com/qubicdash/qubicdash/server/internal/alerts"
	"github.com/qubicdash/qubicdash/server/internal/metrics"
	"github.com/qubicdash/qubicdash/server/internal/projection"
	"github.com/qubicdash/qubicdash/server/internal/store"
	"github.com/qubicdash/qubicdash/server/internal/upstream"
)

// Upstream names used in logs and metrics.
const (
	upstreamScores = "qubic.li"
	upstreamPrice  = "coingecko"
)

// SnapshotFetcher returns the current network snapshot.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, token string) (*types.NetworkSnapshot, error)
}

// PriceFetcher returns the spot price of an asset.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, asset, currency string) (float64, error)
}

// TokenSource supplies the session token for SnapshotFetcher.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Evaluator receives an observation after every refresh with live data.
type Evaluator interface {
	Evaluate(obs alerts.Observation)
}

// Options configures a Refresher.
type Options struct {
	Interval   time.Duration
	MaxRetries int
	Asset      string
	Currency   string
	Anchor     projection.Anchor
}

// Refresher periodically fetches the snapshot and the price into a Store.
type Refresher struct {
	opts     Options
	snapshot SnapshotFetcher
	price    PriceFetcher
	tokens   TokenSource
	store    *store.Store
	metrics  *metrics.Registry
	alerts   Evaluator // may be nil

	now        func() time.Time        // injectable for deterministic tests
	newBackOff func() backoff.BackOff // injectable so tests do not sleep
}

// New returns a Refresher. reg and eval may be nil.
func New(opts Options, snap SnapshotFetcher, price PriceFetcher, tokens TokenSource,
	st *store.Store, reg *metrics.Registry, eval Evaluator) *Refresher {
	return &Refresher{
		opts:       opts,
		snapshot:   snap,
		price:      price,
		tokens:     tokens,
		store:      st,
		metrics:    reg,
		alerts:     eval,
		now:        time.Now,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Run refreshes once immediately and then every Interval until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	slog.Info("refresher: started", "interval", r.opts.Interval)
	if err := r.Refresh(ctx); err != nil {
		slog.Warn("refresher: refresh failed", "err", err)
	}

	t := time.NewTicker(r.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("refresher: stopped")
			return
		case <-t.C:
			if err := r.Refresh(ctx); err != nil {
				slog.Warn("refresher: refresh failed", "err", err)
			}
		}
	}
}

// Refresh fetches the snapshot and the price concurrently and stores whatever
// succeeded. The returned error joins the failures of both fetches.
func (r *Refresher) Refresh(ctx context.Context) error {
	var snapErr, priceErr error

	swg := sizedwaitgroup.New(2)
	swg.Add()
	go func() {
		defer swg.Done()
		snapErr = r.refreshSnapshot(ctx)
	}()
	swg.Add()
	go func() {
		defer swg.Done()
		priceErr = r.refreshPrice(ctx)
	}()
	swg.Wait()

	if snapErr == nil && priceErr == nil && r.metrics != nil {
		r.metrics.MarkRefreshed(r.now())
	}
	r.evaluate()
	return errors.Join(snapErr, priceErr)
}

func (r *Refresher) refreshSnapshot(ctx context.Context) error {
	var snap *types.NetworkSnapshot
	err := r.retry(ctx, upstreamScores, func() error {
		token, err := r.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		s, err := r.snapshot.FetchSnapshot(ctx, token)
		if err != nil {
			var se *upstream.StatusError
			if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
				r.tokens.Invalidate()
			}
			return err
		}
		snap = s
		return nil
	})
	if err != nil {
		return fmt.Errorf("refresher: snapshot: %w", err)
	}

	r.store.PutSnapshot(snap)
	if r.metrics != nil {
		r.metrics.Set(metrics.EstimatedIts, snap.EstimatedIts)
		r.metrics.Set(metrics.AverageScore, snap.AverageScore)
		r.metrics.Set(metrics.SolutionsPerHour, snap.SolutionsPerHourCalculated)
		if win, err := projection.EpochWindowFromSnapshot(r.opts.Anchor, snap, r.now()); err == nil {
			r.metrics.Set(metrics.Epoch, float64(win.Number))
			r.metrics.Set(metrics.EpochProgress, win.Progress)
		}
	}
	slog.Debug("refresher: snapshot stored", "estimated_its", snap.EstimatedIts, "scores", len(snap.Scores))
	return nil
}

func (r *Refresher) refreshPrice(ctx context.Context) error {
	var price float64
	err := r.retry(ctx, upstreamPrice, func() error {
		p, err := r.price.FetchPrice(ctx, r.opts.Asset, r.opts.Currency)
		if err != nil {
			if errors.Is(err, upstream.ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		price = p
		return nil
	})
	if err != nil {
		return fmt.Errorf("refresher: price: %w", err)
	}

	r.store.PutPrice(types.PriceQuote{
		Asset:    r.opts.Asset,
		Currency: r.opts.Currency,
		Price:    price,
		At:       r.now().UTC(),
	})
	if r.metrics != nil {
		r.metrics.Set(metrics.Price, price, r.opts.Asset, r.opts.Currency)
	}
	return nil
}

// retry runs op with exponential backoff, at most MaxRetries extra attempts,
// and counts every attempt against name.
func (r *Refresher) retry(ctx context.Context, name string, op func() error) error {
	attempt := 0
	counted := func() error {
		attempt++
		err := op()
		if r.metrics != nil {
			r.metrics.ObserveUpstream(name, err)
		}
		if err != nil {
			slog.Debug("refresher: attempt failed", "upstream", name, "attempt", attempt, "err", err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(r.opts.MaxRetries)), ctx)
	return backoff.Retry(counted, b)
}

// evaluate feeds the alert engine when both snapshot and price are live.
func (r *Refresher) evaluate() {
	if r.alerts == nil {
		return
	}
	snap, ok := r.store.Snapshot()
	if !ok {
		return
	}
	price, ok := r.store.Price(r.opts.Asset, r.opts.Currency)
	if !ok {
		return
	}
	now := r.now()
	win, err := projection.EpochWindowFromSnapshot(r.opts.Anchor, snap.Snapshot, now)
	if err != nil {
		slog.Warn("refresher: skipping alert evaluation", "err", err)
		return
	}
	r.alerts.Evaluate(alerts.NewObservation(snap.Snapshot, price.Quote.Price, win, now))
}
