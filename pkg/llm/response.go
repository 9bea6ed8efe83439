package llm

import (
	"errors"
	"fmt"
)

// FallbackResponse is returned when the backend answers 200 without a
// response field.
const FallbackResponse = "Sorry, I didn't understand that."

// ResultKind tags the outcome of a generation call.
type ResultKind string

const (
	KindOK              ResultKind = "ok"
	KindHTTPStatus      ResultKind = "http_status"
	KindRequestFailed   ResultKind = "request_failed"
	KindMissingResponse ResultKind = "missing_response"
)

// Result is the outcome of a generation call. Exactly one of the kinds is
// set; String renders it as the single text channel shown to users.
type Result struct {
	Kind ResultKind `json:"kind"`

	// Text is the generated text, only set for KindOK
	Text string `json:"text,omitempty"`

	// StatusCode is the HTTP status, set for KindHTTPStatus
	StatusCode int `json:"status_code,omitempty"`

	// Err is the underlying failure, set for KindRequestFailed
	Err error `json:"-"`
}

// Success wraps generated text.
func Success(text string) Result {
	return Result{Kind: KindOK, Text: text}
}

// HTTPStatus wraps a non-200 status from the backend.
func HTTPStatus(code int) Result {
	return Result{Kind: KindHTTPStatus, StatusCode: code}
}

// RequestFailed wraps a transport, timeout or decoding failure.
func RequestFailed(err error) Result {
	return Result{Kind: KindRequestFailed, Err: err}
}

// MissingResponse marks a 200 answer that carried no response field.
func MissingResponse() Result {
	return Result{Kind: KindMissingResponse}
}

// OK reports whether the model produced text.
func (r Result) OK() bool {
	return r.Kind == KindOK
}

// String renders the result the way it is displayed to the user:
//
//	ok               -> the generated text
//	http_status      -> "Error: <code>"
//	request_failed   -> "Request failed: <description>"
//	missing_response -> FallbackResponse
func (r Result) String() string {
	switch r.Kind {
	case KindOK:
		return r.Text
	case KindHTTPStatus:
		return fmt.Sprintf("Error: %d", r.StatusCode)
	case KindRequestFailed:
		desc := "unknown error"
		if r.Err != nil {
			desc = r.Err.Error()
		}
		return "Request failed: " + desc
	default:
		return FallbackResponse
	}
}

// ErrorResponse is the JSON body returned by the API on validation failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrNoInvoker is reported when a chat is attempted before a backend is set.
var ErrNoInvoker = errors.New("no model backend configured")
