package restconf

import (
	"context"
	"fmt"
	"strings"
)

// Content types understood by the controller.
const (
	ContentTypeJSON     = "application/json"
	ContentTypeYANGJSON = "application/yang-data+json"
)

// Transport executes a single request against the controller and returns
// the decoded response body. Implementations own authentication, TLS,
// timeouts, and content negotiation; callers own retry policy (there is
// none in this module) and interpretation of the body.
//
// A non-2xx response is returned as a *RequestError. A nil error with an
// error envelope in the body is possible and must be handled by callers;
// see IsErrorResponse.
type Transport interface {
	// Send issues method against path with an optional body. The body is
	// JSON-encoded if non-nil. Returned body is the decoded JSON document,
	// or the raw text when the response is not JSON.
	Send(ctx context.Context, method, path string, body any, headers map[string]string) (status int, decoded any, err error)
}

// RequestError is the typed error raised by a Transport for non-2xx
// responses. It carries the decoded error body, so callers never need to
// reconstruct the envelope from error text.
type RequestError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Body is the decoded response body, typically an error envelope.
	Body any

	// RawBody is the response body text as received.
	RawBody string

	// Method and Path identify the failed request.
	Method string
	Path   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if msg := ParseErrorMessage(e.Body); msg != "" {
		return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.StatusCode, msg)
	}
	if e.RawBody != "" {
		return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.RawBody)
	}
	return fmt.Sprintf("%s %s returned %d", e.Method, e.Path, e.StatusCode)
}

// IsNotFoundError reports whether err represents a missing resource,
// applying the same envelope policy as IsNotFoundResponse plus the plain
// HTTP 404 case. This is the one place "does not exist" is decided for
// transport-level failures.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if reqErr, ok := err.(*RequestError); ok {
		if reqErr.StatusCode == 404 {
			return true
		}
		if IsNotFoundResponse(reqErr.Body) {
			return true
		}
	}
	text := err.Error()
	lower := strings.ToLower(text)
	if strings.Contains(lower, "404") || strings.Contains(lower, "not found") {
		return true
	}
	return IsNotFoundResponse(DecodeErrorBody(text))
}
