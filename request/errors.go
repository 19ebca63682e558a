package request

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-admin-client/apimodel"
)

// ErrNoContent is returned by Response.Decode when the body was empty.
var ErrNoContent = errors.New("no content")

// TransportError is a network level failure: no complete response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseError is a response with a status outside [200,300).
type ResponseError struct {
	Status   int
	Response *http.Response // body already consumed, see Raw
	Body     *apimodel.ErrorResponse
	Raw      []byte
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("response status %d %s", e.Status, http.StatusText(e.Status))
	if detail := e.Body.String(); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// Message returns the server supplied message, falling back to the status text.
func (e *ResponseError) Message() string {
	if detail := e.Body.String(); detail != "" {
		return detail
	}
	return http.StatusText(e.Status)
}

// DecodeError means the response promised JSON but the body was not valid JSON.
type DecodeError struct {
	Status      int
	ContentType string
	Raw         []byte
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse unexpected JSON response (status %d, %s): %v", e.Status, e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by a ResponseError in err's chain, or 0.
func StatusCode(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
