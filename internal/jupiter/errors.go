package jupiter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorKind classifies a failed quote attempt. Classification happens once,
// here at the client boundary; callers branch on Kind, never on message text.
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited" // upstream throttling, retryable with backoff
	KindNoRoute     ErrorKind = "no_route"     // no path at this size, never retried as-is
	KindInvalid     ErrorKind = "invalid"      // malformed request or response
	KindTransport   ErrorKind = "transport"    // connectivity or upstream failure, retryable with backoff
)

// QuoteError is the typed failure surfaced by Client.Quote.
type QuoteError struct {
	Kind       ErrorKind
	HTTPStatus int // 0 when the failure never reached HTTP
	Message    string
	RetryAfter time.Duration // optional hint, only for KindRateLimited
}

func (e *QuoteError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("jupiter quote %s (http %d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("jupiter quote %s: %s", e.Kind, e.Message)
}

// noRouteMarkers are the machine-readable reason strings Jupiter uses for
// "this amount is not routable" class responses.
var noRouteMarkers = []string{
	"COULD_NOT_FIND_ANY_ROUTE",
	"ROUTE_PLAN_DOES_NOT_CONSUME_ALL_THE_AMOUNT",
	"TOKEN_NOT_TRADABLE",
	"NO_ROUTES_FOUND",
	"not tradable",
	"no routes found",
}

type errorBody struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// classifyHTTP maps an HTTP error response to a QuoteError.
func classifyHTTP(status int, body []byte, retryAfter time.Duration) *QuoteError {
	msg := strings.TrimSpace(string(body))

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != "" {
			msg = eb.Error
		}
		if eb.ErrorCode != "" {
			msg = eb.ErrorCode + ": " + msg
		}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusTooManyRequests:
		return &QuoteError{Kind: KindRateLimited, HTTPStatus: status, Message: msg, RetryAfter: retryAfter}
	case isNoRoute(msg):
		return &QuoteError{Kind: KindNoRoute, HTTPStatus: status, Message: msg}
	case status >= 400 && status < 500:
		return &QuoteError{Kind: KindInvalid, HTTPStatus: status, Message: msg}
	default:
		return &QuoteError{Kind: KindTransport, HTTPStatus: status, Message: msg}
	}
}

func isNoRoute(msg string) bool {
	upper := strings.ToUpper(msg)
	for _, marker := range noRouteMarkers {
		if strings.Contains(upper, strings.ToUpper(marker)) {
			return true
		}
	}
	return false
}

// AsQuoteError unwraps err into a *QuoteError when possible.
func AsQuoteError(err error) (*QuoteError, bool) {
	qe, ok := err.(*QuoteError)
	return qe, ok
}
