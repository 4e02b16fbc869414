package twitter

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// recorder binds a call to ctx and keeps the status and error body of the
// last response, which the OAuth1 client does not expose uniformly.
type recorder struct {
	base   http.RoundTripper
	ctx    context.Context
	status int
	body   string
}

func (r *recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req.WithContext(r.ctx))
	if err != nil {
		return nil, err
	}
	r.status = resp.StatusCode
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		r.body = string(b)
		resp.Body = io.NopCloser(bytes.NewReader(b))
	}
	return resp, nil
}

func (a *Adapter) call(ctx context.Context) (*http.Client, *recorder) {
	base := a.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	rec := &recorder{base: base, ctx: ctx}
	c := *a.http
	c.Transport = rec
	return &c, rec
}
