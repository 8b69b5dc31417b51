package quote

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Renotrader31/ai-trading-assistant/internal/polygon"
)

// ErrEmptySymbol is returned when a caller asks to resolve or diagnose an
// empty ticker symbol. It is the only fault these components raise.
var ErrEmptySymbol = errors.New("quote: symbol must not be empty")

// Provenance tags which fallback rung produced a resolved quote.
type Provenance string

const (
	// ProvenanceLiveTrade: the real-time last trade rung succeeded.
	ProvenanceLiveTrade Provenance = "live_trade"
	// ProvenancePreviousClose: the live rung failed and the price is the
	// prior session's close.
	ProvenancePreviousClose Provenance = "previous_close_only"
	// ProvenanceFallback: both rungs reached the provider but neither body
	// contained a usable price.
	ProvenanceFallback Provenance = "fallback"
	// ProvenanceErrorFallback: both rungs failed outright; the quote is a
	// labeled placeholder.
	ProvenanceErrorFallback Provenance = "error_fallback"
)

// ResolvedQuote is the single uniform answer Resolve always returns.
// Degraded data is signaled through Provenance and LiveData, never through
// an error.
type ResolvedQuote struct {
	Symbol        string     `json:"symbol"`
	Price         float64    `json:"price"`
	PreviousClose *float64   `json:"previous_close,omitempty"`
	Change        *float64   `json:"change,omitempty"`
	ChangePercent *float64   `json:"change_percent,omitempty"`
	Volume        int64      `json:"volume,omitempty"`
	Provenance    Provenance `json:"data_source"`
	LiveData      bool       `json:"live_data"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Placeholder values returned when every rung fails. The marker callers
// must check is data_source plus live_data=false, not the numbers.
const (
	placeholderPrice         = 150.00
	placeholderPrevClose     = 147.50
	placeholderChange        = 2.50
	placeholderChangePercent = 1.69
)

// Transport is the single-call quote fetcher the resolver orchestrates.
type Transport interface {
	Fetch(ctx context.Context, kind polygon.EndpointKind, symbol string) polygon.Outcome
}

// Resolver walks the fallback ladder (last trade, then previous close) and
// tags the answer with the rung that produced it.
type Resolver struct {
	transport Transport
	log       *logrus.Logger
}

func NewResolver(transport Transport, log *logrus.Logger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{transport: transport, log: log}
}

// Resolve returns exactly one ResolvedQuote for the symbol. Both rungs are
// always called: the previous close is needed for the change calculation
// even when the live rung succeeds. The calls run concurrently and are both
// joined before any field of the result is populated.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (ResolvedQuote, error) {
	if symbol == "" {
		return ResolvedQuote{}, ErrEmptySymbol
	}

	var trade, prev polygon.Outcome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		trade = r.transport.Fetch(gctx, polygon.EndpointLastTrade, symbol)
		return nil
	})
	g.Go(func() error {
		prev = r.transport.Fetch(gctx, polygon.EndpointPrevClose, symbol)
		return nil
	})
	_ = g.Wait()

	q := ResolvedQuote{Symbol: symbol, Timestamp: time.Now().UTC()}

	switch {
	case trade.OK():
		q.Price = trade.Price
		q.Provenance = ProvenanceLiveTrade
		q.LiveData = true
		if prev.OK() {
			q.PreviousClose = ptr(prev.Price)
			q.Volume = prev.Volume
			q.Change = ptr(q.Price - prev.Price)
			if prev.Price != 0 {
				q.ChangePercent = ptr((q.Price - prev.Price) / prev.Price * 100)
			}
		}
		r.log.WithFields(logrus.Fields{"symbol": symbol, "price": q.Price, "data_source": q.Provenance}).
			Debug("resolved from live trade")

	case prev.OK():
		q.Price = prev.Price
		q.PreviousClose = ptr(prev.Price)
		q.Volume = prev.Volume
		// Price and previous close are the same observation, so the change
		// is zero by construction.
		q.Change = ptr(0.0)
		q.ChangePercent = ptr(0.0)
		q.Provenance = ProvenancePreviousClose
		q.LiveData = false
		r.log.WithFields(logrus.Fields{"symbol": symbol, "price": q.Price, "live_error": trade.ErrorKind}).
			Debug("resolved from previous close")

	default:
		q.Price = placeholderPrice
		q.PreviousClose = ptr(placeholderPrevClose)
		q.Change = ptr(placeholderChange)
		q.ChangePercent = ptr(placeholderChangePercent)
		q.Provenance = ProvenanceErrorFallback
		if trade.ErrorKind == polygon.ErrKindMalformedResponse && prev.ErrorKind == polygon.ErrKindMalformedResponse {
			// Provider was reachable and answered 200 on both rungs; only
			// the payload shape was unusable.
			q.Provenance = ProvenanceFallback
		}
		q.LiveData = false
		r.log.WithFields(logrus.Fields{
			"symbol":     symbol,
			"live_error": trade.ErrorKind,
			"prev_error": prev.ErrorKind,
		}).Warn("all quote rungs failed, returning placeholder")
	}

	return q, nil
}

func ptr(f float64) *float64 { return &f }
