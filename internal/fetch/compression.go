package fetch

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// decompressor asks for gzip and brotli and undoes whichever the server
// picked. net/http only handles gzip on its own, and only when we don't
// set Accept-Encoding ourselves.
type decompressor struct {
	next http.RoundTripper
}

func (d *decompressor) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "gzip, br")
	}

	resp, err := d.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return resp, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch: bad gzip stream: %w", err)
		}
		body = zr
	case "br":
		body = brotli.NewReader(resp.Body)
	default:
		// Let the Content-Type check deal with it, the body is unusable anyway.
		return resp, nil
	}

	resp.Body = &decodedBody{Reader: body, orig: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true

	return resp, nil
}

type decodedBody struct {
	io.Reader
	orig io.ReadCloser
}

func (b *decodedBody) Close() error {
	if c, ok := b.Reader.(io.Closer); ok {
		c.Close()
	}
	return b.orig.Close()
}
