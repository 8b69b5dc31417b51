// Package diagnose re-runs every fallback rung in isolation so an operator
// can see what the resolver discards: per-rung status, latency and body
// excerpts, collapsed into one verdict with a suggested fix.
package diagnose

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/Renotrader31/ai-trading-assistant/internal/polygon"
	"github.com/Renotrader31/ai-trading-assistant/internal/quote"
)

// Verdict is the single health classification derived from all rung
// outcomes.
type Verdict string

const (
	VerdictHealthy          Verdict = "healthy"
	VerdictAuthInvalid      Verdict = "auth_invalid"
	VerdictPermissionDenied Verdict = "permission_denied"
	VerdictRateLimited      Verdict = "rate_limited"
	VerdictUpstreamDown     Verdict = "upstream_down"
	VerdictUnknown          Verdict = "unknown"
)

// remediations is keyed by verdict; the table is fixed so repeated probes
// against identical upstream behavior produce identical advice.
var remediations = map[Verdict]string{
	VerdictHealthy:          "No action required",
	VerdictAuthInvalid:      "Verify the API key is set and correctly copied",
	VerdictPermissionDenied: "Upgrade the provider plan to include real-time data access",
	VerdictRateLimited:      "Reduce request frequency",
	VerdictUpstreamDown:     "Check provider status and network egress",
	VerdictUnknown:          "Inspect the per-rung outcomes below for mixed or unexpected failures",
}

// pricePaths locates the quoted price inside each endpoint's raw payload,
// used only for the human-readable preview in the report.
var pricePaths = map[polygon.EndpointKind]string{
	polygon.EndpointLastTrade: "results.p",
	polygon.EndpointPrevClose: "results.0.c",
}

// RungResult is one probe outcome, in ladder order.
type RungResult struct {
	Endpoint      polygon.EndpointKind `json:"endpoint"`
	PathTemplate  string               `json:"path_template"`
	Success       bool                 `json:"success"`
	HTTPStatus    int                  `json:"http_status,omitempty"`
	LatencyMS     int64                `json:"latency_ms"`
	ErrorKind     polygon.ErrorKind    `json:"error_kind,omitempty"`
	ObservedPrice float64              `json:"observed_price,omitempty"`
	BodyExcerpt   string               `json:"body_excerpt,omitempty"`
}

// Report is the full diagnosis for one symbol.
type Report struct {
	Symbol         string       `json:"symbol"`
	Timestamp      time.Time    `json:"timestamp"`
	Rungs          []RungResult `json:"rungs"`
	OverallVerdict Verdict      `json:"overall_verdict"`
	Remediation    string       `json:"remediation"`
}

// Prober exercises every ladder rung unconditionally. It shares the
// resolver's transport but never short-circuits: a failed rung must not
// prevent collection of the others.
type Prober struct {
	transport quote.Transport
	log       *logrus.Logger
}

func NewProber(transport quote.Transport, log *logrus.Logger) *Prober {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Prober{transport: transport, log: log}
}

// Diagnose probes all rungs concurrently and joins before deriving the
// verdict. The report lists rungs in ladder order regardless of completion
// order.
func (p *Prober) Diagnose(ctx context.Context, symbol string) (Report, error) {
	if symbol == "" {
		return Report{}, quote.ErrEmptySymbol
	}

	ladder := polygon.Ladder()
	rungs := make([]RungResult, len(ladder))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range ladder {
		i, kind := i, kind
		g.Go(func() error {
			rungs[i] = probeResult(p.transport.Fetch(gctx, kind, symbol))
			return nil
		})
	}
	_ = g.Wait()

	verdict := verdictFor(rungs)
	p.log.WithFields(logrus.Fields{"symbol": symbol, "overall_verdict": verdict}).
		Info("diagnosis complete")

	return Report{
		Symbol:         symbol,
		Timestamp:      time.Now().UTC(),
		Rungs:          rungs,
		OverallVerdict: verdict,
		Remediation:    remediations[verdict],
	}, nil
}

func probeResult(o polygon.Outcome) RungResult {
	r := RungResult{
		Endpoint:     o.Endpoint,
		PathTemplate: o.Endpoint.PathTemplate(),
		Success:      o.OK(),
		HTTPStatus:   o.HTTPStatus,
		LatencyMS:    o.LatencyMS,
		ErrorKind:    o.ErrorKind,
		BodyExcerpt:  o.RawBody,
	}
	// Best-effort price preview straight from the raw body, so the report
	// shows what the provider sent even when classification rejected it.
	if v := gjson.Get(o.RawBody, pricePaths[o.Endpoint]); v.Exists() {
		r.ObservedPrice = v.Float()
	}
	return r
}

// verdictFor collapses the rung error kinds, first match wins:
// unauthorized, then permission denied, then rate limited; then upstream
// down when every rung failed at the transport or HTTP level; healthy when
// every rung succeeded; unknown otherwise.
func verdictFor(rungs []RungResult) Verdict {
	for _, kind := range []polygon.ErrorKind{
		polygon.ErrKindUnauthorized,
		polygon.ErrKindPermissionDenied,
		polygon.ErrKindRateLimited,
	} {
		for _, r := range rungs {
			if r.ErrorKind == kind {
				switch kind {
				case polygon.ErrKindUnauthorized:
					return VerdictAuthInvalid
				case polygon.ErrKindPermissionDenied:
					return VerdictPermissionDenied
				case polygon.ErrKindRateLimited:
					return VerdictRateLimited
				}
			}
		}
	}

	allDown := true
	allHealthy := true
	for _, r := range rungs {
		if r.ErrorKind != polygon.ErrKindTransportFailure && r.ErrorKind != polygon.ErrKindUpstreamError {
			allDown = false
		}
		if !r.Success {
			allHealthy = false
		}
	}
	switch {
	case len(rungs) > 0 && allDown:
		return VerdictUpstreamDown
	case allHealthy:
		return VerdictHealthy
	default:
		return VerdictUnknown
	}
}
