package request

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Response is a successful response with its body already read and checked.
type Response struct {
	Status   int
	Header   http.Header
	Response *http.Response // body already consumed

	body   []byte
	isJSON bool
}

// NoContent is true when the body was empty.
func (r *Response) NoContent() bool {
	return len(r.body) == 0
}

// IsJSON is true when the server declared a JSON content type. The body is then
// guaranteed to be valid JSON or empty.
func (r *Response) IsJSON() bool {
	return r.isJSON
}

func (r *Response) Bytes() []byte {
	return r.body
}

func (r *Response) Text() string {
	return string(r.body)
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r.NoContent() {
		return ErrNoContent
	}
	return json.Unmarshal(r.body, v)
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}
