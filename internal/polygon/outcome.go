package polygon

// EndpointKind selects which Polygon endpoint a transport call hits.
// The resolver's fallback ladder tries them in the order of Ladder().
type EndpointKind string

const (
	// EndpointLastTrade is the real-time last trade endpoint.
	EndpointLastTrade EndpointKind = "last_trade"
	// EndpointPrevClose is the previous session close aggregate endpoint.
	EndpointPrevClose EndpointKind = "prev_close"
)

// Ladder returns the fallback rungs in call order.
func Ladder() []EndpointKind {
	return []EndpointKind{EndpointLastTrade, EndpointPrevClose}
}

// PathTemplate is the endpoint path with the symbol elided, for reporting.
func (k EndpointKind) PathTemplate() string {
	switch k {
	case EndpointLastTrade:
		return "/v2/last/trade/{symbol}"
	case EndpointPrevClose:
		return "/v2/aggs/ticker/{symbol}/prev"
	}
	return string(k)
}

// ErrorKind classifies a failed transport call. The empty value means the
// call succeeded. Upstream failures are never surfaced as Go errors; they
// are data for the resolver and the diagnosis prober.
type ErrorKind string

const (
	ErrKindUnauthorized      ErrorKind = "unauthorized"
	ErrKindPermissionDenied  ErrorKind = "permission_denied"
	ErrKindRateLimited       ErrorKind = "rate_limited"
	ErrKindUpstreamError     ErrorKind = "upstream_error"
	ErrKindTransportFailure  ErrorKind = "transport_failure"
	ErrKindMalformedResponse ErrorKind = "malformed_response"
)

// Outcome is the classified result of exactly one transport call.
// ErrorKind and Price are mutually exclusive: a populated Price implies
// ErrorKind is empty.
type Outcome struct {
	Endpoint   EndpointKind `json:"endpoint"`
	HTTPStatus int          `json:"http_status,omitempty"`
	RawBody    string       `json:"raw_body,omitempty"`
	Price      float64      `json:"price,omitempty"`
	Volume     int64        `json:"volume,omitempty"`
	LatencyMS  int64        `json:"latency_ms"`
	ErrorKind  ErrorKind    `json:"error_kind,omitempty"`
}

// OK reports whether the call produced a usable price.
func (o Outcome) OK() bool { return o.ErrorKind == "" }
