package standard

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// tokenRecorder keeps the body of the token endpoint response. x/oauth2 only
// exposes the fields it knows, so the raw body is decoded again to keep the
// provider extras.
type tokenRecorder struct {
	base        http.RoundTripper
	body        []byte
	contentType string
}

func (r *tokenRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	r.body = b
	r.contentType = resp.Header.Get("Content-Type")
	resp.Body = io.NopCloser(bytes.NewReader(b))
	return resp, nil
}

func (c *OAuth2Client) recordingClient() (*http.Client, *tokenRecorder) {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	rec := &tokenRecorder{base: base}
	hc := *c.http
	hc.Transport = rec
	return &hc, rec
}

// tokenValues decodes a token response like x/oauth2 does: form encoded for
// application/x-www-form-urlencoded and text/plain, JSON otherwise. Anything
// undecodable yields an empty map.
func tokenValues(body []byte, contentType string) map[string]any {
	out := map[string]any{}
	media, _, _ := mime.ParseMediaType(contentType)
	switch media {
	case "application/x-www-form-urlencoded", "text/plain":
		vals, err := url.ParseQuery(string(body))
		if err != nil {
			return out
		}
		for k := range vals {
			out[k] = vals.Get(k)
		}
	default:
		if !gjson.ValidBytes(body) {
			return out
		}
		if m, ok := gjson.ParseBytes(body).Value().(map[string]any); ok {
			out = m
		}
	}
	return out
}
