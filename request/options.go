package request

import "net/http"

// Options describes one request. Body is a byte slice so the same Options can be
// replayed after a token refresh.
type Options struct {
	Method string
	Header http.Header
	Body   []byte

	// Token attaches "Authorization: Bearer <access token>" using the session
	// tokens current when the request is sent.
	Token bool
}

// JSON returns a copy of o that declares a JSON body and asks for a JSON response.
func JSON(o Options) Options {
	o.Header = o.Header.Clone()
	if o.Header == nil {
		o.Header = make(http.Header)
	}
	o.Header.Set("Content-Type", "application/json")
	o.Header.Set("Accept", "application/json")
	return o
}

func (o Options) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return o.Method
}
