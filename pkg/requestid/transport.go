package requestid

import "net/http"

// Transport stamps every outgoing request with X-Request-ID. The id comes
// from the request context when present, otherwise a new one is generated.
// A header already set by the caller is left alone.
type Transport struct {
	// Base is the underlying round tripper. nil means http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get(Header) != "" {
		return base.RoundTrip(req)
	}

	id := FromContext(req.Context())
	if !Valid(id) {
		id = New()
	}
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set(Header, id)
	return base.RoundTrip(r)
}
