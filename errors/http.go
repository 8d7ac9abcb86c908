package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPKind classifies an HTTP error response by its status code.
type HTTPKind int

const (
	// KindHTTPUnknown is any error status without a more specific kind
	KindHTTPUnknown HTTPKind = iota
	// KindBadRequest maps status 400
	KindBadRequest
	// KindUnauthorized maps status 401
	KindUnauthorized
	// KindForbidden maps status 403
	KindForbidden
	// KindNotFound maps status 404
	KindNotFound
	// KindTooManyRequests maps status 429
	KindTooManyRequests
	// KindServerError maps any 5xx status
	KindServerError
)

// String returns the string representation of HTTPKind
func (k HTTPKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindServerError:
		return "server_error"
	default:
		return "http_error"
	}
}

// kindForStatus is the fixed status-code to kind mapping.
func kindForStatus(status int) HTTPKind {
	switch {
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindTooManyRequests
	case status >= 500:
		return KindServerError
	default:
		return KindHTTPUnknown
	}
}

// HTTPError is a typed error constructed from a non-2xx API response.
type HTTPError struct {
	Kind    HTTPKind
	Status  int
	Message string // server-supplied message, when the body carried one
	Headers http.Header
	Body    []byte
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d (%s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("http %d (%s)", e.Status, e.Kind)
}

// NewHTTPError builds an HTTPError from a response's status, headers and
// body, selecting the kind from the fixed status mapping. A JSON body with
// a "message" field contributes the server message.
func NewHTTPError(status int, headers http.Header, body []byte) *HTTPError {
	e := &HTTPError{
		Kind:    kindForStatus(status),
		Status:  status,
		Headers: headers,
		Body:    body,
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = payload.Message
	}
	return e
}

// httpKindIs reports whether err is an HTTPError of the given kind.
func httpKindIs(err error, kind HTTPKind) bool {
	var he *HTTPError
	return As(err, &he) && he.Kind == kind
}

// IsBadRequest reports whether err is a 400 response error.
func IsBadRequest(err error) bool { return httpKindIs(err, KindBadRequest) }

// IsUnauthorized reports whether err is a 401 response error.
func IsUnauthorized(err error) bool { return httpKindIs(err, KindUnauthorized) }

// IsForbidden reports whether err is a 403 response error.
func IsForbidden(err error) bool { return httpKindIs(err, KindForbidden) }

// IsNotFound reports whether err is a 404 response error.
func IsNotFound(err error) bool { return httpKindIs(err, KindNotFound) }

// IsTooManyRequests reports whether err is a 429 response error.
func IsTooManyRequests(err error) bool { return httpKindIs(err, KindTooManyRequests) }

// IsServerError reports whether err is a 5xx response error.
func IsServerError(err error) bool { return httpKindIs(err, KindServerError) }
