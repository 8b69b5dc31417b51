package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Renotrader31/ai-trading-assistant/internal/diagnose"
	"github.com/Renotrader31/ai-trading-assistant/internal/polygon"
	"github.com/Renotrader31/ai-trading-assistant/internal/quote"
)

type fakeTransport struct {
	mu       sync.Mutex
	outcomes map[polygon.EndpointKind]polygon.Outcome
}

func (f *fakeTransport) Fetch(_ context.Context, kind polygon.EndpointKind, _ string) polygon.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.outcomes[kind]
	out.Endpoint = kind
	return out
}

func TestWriteQuote_LiveTrade(t *testing.T) {
	ft := &fakeTransport{outcomes: map[polygon.EndpointKind]polygon.Outcome{
		polygon.EndpointLastTrade: {HTTPStatus: http.StatusOK, Price: 236.99},
		polygon.EndpointPrevClose: {HTTPStatus: http.StatusOK, Price: 230.00, Volume: 100},
	}}
	resolver := quote.NewResolver(ft, nil)

	rr := httptest.NewRecorder()
	writeQuote(rr, context.Background(), resolver, "amzn")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var q quote.ResolvedQuote
	if err := json.Unmarshal(rr.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.Symbol != "AMZN" {
		t.Fatalf("symbol should be upper-cased: %q", q.Symbol)
	}
	if q.Provenance != quote.ProvenanceLiveTrade || !q.LiveData {
		t.Fatalf("unexpected provenance: %+v", q)
	}
}

func TestWriteQuote_MissingSymbol(t *testing.T) {
	ft := &fakeTransport{outcomes: map[polygon.EndpointKind]polygon.Outcome{}}
	resolver := quote.NewResolver(ft, nil)

	rr := httptest.NewRecorder()
	writeQuote(rr, context.Background(), resolver, "  ")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rr.Code)
	}
}

func TestWriteQuote_DegradedNeverErrors(t *testing.T) {
	ft := &fakeTransport{outcomes: map[polygon.EndpointKind]polygon.Outcome{
		polygon.EndpointLastTrade: {HTTPStatus: http.StatusForbidden, ErrorKind: polygon.ErrKindPermissionDenied},
		polygon.EndpointPrevClose: {HTTPStatus: http.StatusForbidden, ErrorKind: polygon.ErrKindPermissionDenied},
	}}
	resolver := quote.NewResolver(ft, nil)

	rr := httptest.NewRecorder()
	writeQuote(rr, context.Background(), resolver, "TSLA")
	if rr.Code != http.StatusOK {
		t.Fatalf("degraded data must still be 200, got %d", rr.Code)
	}
	var q quote.ResolvedQuote
	if err := json.Unmarshal(rr.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.Provenance != quote.ProvenanceErrorFallback || q.LiveData {
		t.Fatalf("unexpected: %+v", q)
	}
}

func TestWriteDiagnosis_Report(t *testing.T) {
	ft := &fakeTransport{outcomes: map[polygon.EndpointKind]polygon.Outcome{
		polygon.EndpointLastTrade: {HTTPStatus: http.StatusUnauthorized, ErrorKind: polygon.ErrKindUnauthorized},
		polygon.EndpointPrevClose: {HTTPStatus: http.StatusOK, Price: 230.00},
	}}
	prober := diagnose.NewProber(ft, nil)

	rr := httptest.NewRecorder()
	writeDiagnosis(rr, context.Background(), prober, "AMZN")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var report diagnose.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.Rungs) != 2 {
		t.Fatalf("want 2 rungs, got %d", len(report.Rungs))
	}
	if report.OverallVerdict != diagnose.VerdictAuthInvalid {
		t.Fatalf("verdict: %s", report.OverallVerdict)
	}
	if report.Remediation == "" {
		t.Fatal("remediation must be populated")
	}
}
