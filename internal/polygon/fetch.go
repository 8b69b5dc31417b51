package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps how much of a response body is read and retained.
// Both endpoint payloads fit comfortably; anything beyond is diagnostic
// noise.
const maxBodyBytes = 2 << 10

type lastTradeResponse struct {
	Results struct {
		Price     float64 `json:"p"`
		Timestamp int64   `json:"t"`
	} `json:"results"`
}

type prevCloseResponse struct {
	Results []struct {
		Close  float64 `json:"c"`
		Volume float64 `json:"v"`
	} `json:"results"`
}

// Fetch issues exactly one network attempt against the given endpoint and
// classifies the result. It never returns a Go error: upstream and transport
// failures come back as Outcome.ErrorKind. An unknown endpoint kind is a
// programming error and panics.
func (c *Client) Fetch(ctx context.Context, kind EndpointKind, symbol string) Outcome {
	out := Outcome{Endpoint: kind}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.endpointURL(kind, symbol), http.NoBody)
	if err != nil {
		out.ErrorKind = ErrKindTransportFailure
		return out
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	out.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		c.log.WithFields(logrus.Fields{"endpoint": kind, "symbol": symbol, "latency_ms": out.LatencyMS}).
			WithError(err).Debug("polygon call did not reach upstream")
		out.ErrorKind = ErrKindTransportFailure
		return out
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	out.HTTPStatus = resp.StatusCode
	out.RawBody = string(body)

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to parse
	case http.StatusUnauthorized:
		out.ErrorKind = ErrKindUnauthorized
		return out
	case http.StatusForbidden:
		out.ErrorKind = ErrKindPermissionDenied
		return out
	case http.StatusTooManyRequests:
		out.ErrorKind = ErrKindRateLimited
		return out
	default:
		out.ErrorKind = ErrKindUpstreamError
		return out
	}

	price, volume, ok := parsePrice(kind, body)
	// A zero or negative price is not a valid quote; treat it the same as a
	// body that failed to parse so the prober can report "reached upstream
	// but got an unexpected shape".
	if !ok || price <= 0 {
		out.ErrorKind = ErrKindMalformedResponse
		return out
	}
	out.Price = price
	out.Volume = volume
	c.log.WithFields(logrus.Fields{"endpoint": kind, "symbol": symbol, "price": price, "latency_ms": out.LatencyMS}).
		Debug("polygon call succeeded")
	return out
}

func (c *Client) endpointURL(kind EndpointKind, symbol string) string {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	switch kind {
	case EndpointLastTrade:
		return fmt.Sprintf("%s/v2/last/trade/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())
	case EndpointPrevClose:
		q.Set("adjusted", "true")
		return fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?%s", c.baseURL, url.PathEscape(symbol), q.Encode())
	}
	panic(fmt.Sprintf("polygon: unknown endpoint kind %q", kind))
}

func parsePrice(kind EndpointKind, body []byte) (price float64, volume int64, ok bool) {
	switch kind {
	case EndpointLastTrade:
		var r lastTradeResponse
		if err := json.Unmarshal(body, &r); err != nil {
			return 0, 0, false
		}
		return r.Results.Price, 0, true
	case EndpointPrevClose:
		var r prevCloseResponse
		if err := json.Unmarshal(body, &r); err != nil || len(r.Results) == 0 {
			return 0, 0, false
		}
		return r.Results[0].Close, int64(r.Results[0].Volume), true
	}
	panic(fmt.Sprintf("polygon: unknown endpoint kind %q", kind))
}
