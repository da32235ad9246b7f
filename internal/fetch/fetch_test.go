package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/nicl83/openxiino"
)

func newClient(t *testing.T, opts Options) *Client {
	t.Helper()

	c, err := New(opts)
	if err != nil {
		t.Fatalf("can't construct fetch.Client: %v", err)
	}

	return c
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		contentType string
		statusCode  int
		maxBodySize int64
		want        string
		err         error
	}{
		{
			name:        "Valid HTML",
			body:        []byte(`<html><body><p>Test content</p></body></html>`),
			contentType: "text/html",
			statusCode:  http.StatusOK,
			want:        `<html><body><p>Test content</p></body></html>`,
		},
		{
			name:        "Empty HTML",
			contentType: "text/html",
			statusCode:  http.StatusOK,
			want:        "",
		},
		{
			name:        "Plain text",
			body:        []byte("just words"),
			contentType: "text/plain; charset=utf-8",
			statusCode:  http.StatusOK,
			want:        "just words",
		},
		{
			name:        "XHTML",
			body:        []byte(`<html xmlns="http://www.w3.org/1999/xhtml"></html>`),
			contentType: "application/xhtml+xml",
			statusCode:  http.StatusOK,
			want:        `<html xmlns="http://www.w3.org/1999/xhtml"></html>`,
		},
		{
			name:        "Latin-1 body",
			body:        []byte("<p>caf\xe9</p>"),
			contentType: "text/html; charset=iso-8859-1",
			statusCode:  http.StatusOK,
			want:        "<p>café</p>",
		},
		{
			name:        "Not found error",
			contentType: "text/html",
			statusCode:  http.StatusNotFound,
			err:         ErrStatus,
		},
		{
			name:        "Server error",
			contentType: "text/html",
			statusCode:  http.StatusBadGateway,
			err:         ErrStatus,
		},
		{
			name:        "Unsupported Content-Type",
			body:        []byte("*Insert rick roll here*"),
			contentType: "video/mp4",
			statusCode:  http.StatusOK,
			err:         ErrContentType,
		},
		{
			name:        "Missing Content-Type",
			body:        []byte("<p>who knows</p>"),
			statusCode:  http.StatusOK,
			err:         ErrContentType,
		},
		{
			name:        "Malformed Content-Type",
			body:        []byte("<p>who knows</p>"),
			contentType: "text/html; charset",
			statusCode:  http.StatusOK,
			err:         ErrContentType,
		},
		{
			name:        "Too large content",
			body:        bytes.Repeat([]byte("X"), 8192),
			contentType: "text/html",
			statusCode:  http.StatusOK,
			maxBodySize: 4096,
			err:         ErrTooLarge,
		},
		{
			name:        "Too large for charset sniffing",
			body:        bytes.Repeat([]byte("X"), 8192),
			contentType: "text/html",
			statusCode:  http.StatusOK,
			maxBodySize: 16,
			err:         ErrTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				} else {
					// stop net/http from sniffing one for us
					w.Header()["Content-Type"] = nil
				}
				w.WriteHeader(tt.statusCode)
				w.Write(tt.body)
			}))
			defer ts.Close()

			c := newClient(t, Options{MaxBodySize: tt.maxBodySize})
			page, err := c.Fetch(context.Background(), ts.URL)

			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("wanted error %v, got: %v", tt.err, err)
				}
				if page != nil {
					t.Error("expected nil page on error, got non-nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if page.Body != tt.want {
				t.Errorf("wanted body %q, got: %q", tt.want, page.Body)
			}
		})
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var userAgent, accept string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.UserAgent()
		accept = r.Header.Get("Accept-Encoding")
		w.Header().Set("Content-Type", "text/html")
	}))
	defer ts.Close()

	if _, err := newClient(t, Options{}).Fetch(context.Background(), ts.URL); err != nil {
		t.Fatal(err)
	}

	if userAgent != openxiino.UserAgent {
		t.Errorf("wanted User-Agent %q, got: %q", openxiino.UserAgent, userAgent)
	}

	if !strings.Contains(accept, "br") || !strings.Contains(accept, "gzip") {
		t.Errorf("Accept-Encoding doesn't offer gzip and br: %q", accept)
	}
}

func TestFetchDecompresses(t *testing.T) {
	const page = "<html><body><p>squashed</p></body></html>"

	for _, tt := range []struct {
		name     string
		encoding string
		compress func(t *testing.T) []byte
	}{
		{
			name:     "gzip",
			encoding: "gzip",
			compress: func(t *testing.T) []byte {
				var buf bytes.Buffer
				zw := gzip.NewWriter(&buf)
				if _, err := zw.Write([]byte(page)); err != nil {
					t.Fatal(err)
				}
				if err := zw.Close(); err != nil {
					t.Fatal(err)
				}
				return buf.Bytes()
			},
		},
		{
			name:     "brotli",
			encoding: "br",
			compress: func(t *testing.T) []byte {
				var buf bytes.Buffer
				bw := brotli.NewWriter(&buf)
				if _, err := bw.Write([]byte(page)); err != nil {
					t.Fatal(err)
				}
				if err := bw.Close(); err != nil {
					t.Fatal(err)
				}
				return buf.Bytes()
			},
		},
		{
			name:     "identity",
			encoding: "",
			compress: func(t *testing.T) []byte {
				return []byte(page)
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.compress(t)

			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Write(body)
			}))
			defer ts.Close()

			got, err := newClient(t, Options{}).Fetch(context.Background(), ts.URL)
			if err != nil {
				t.Fatal(err)
			}

			if got.Body != page {
				t.Errorf("wanted %q, got: %q", page, got.Body)
			}
		})
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new/page", http.StatusFound)
	})
	mux.HandleFunc("/new/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("moved"))
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	page, err := newClient(t, Options{}).Fetch(context.Background(), ts.URL+"/old")
	if err != nil {
		t.Fatal(err)
	}

	if page.URL.Path != "/new/page" {
		t.Errorf("wanted final URL path /new/page, got: %s", page.URL)
	}
}

func TestFetchUnsupportedScheme(t *testing.T) {
	for _, target := range []string{"ftp://example.com/file", "file:///etc/passwd", "example.com"} {
		t.Run(target, func(t *testing.T) {
			_, err := newClient(t, Options{}).Fetch(context.Background(), target)
			if !errors.Is(err, ErrUnsupportedScheme) {
				t.Errorf("wanted %v, got: %v", ErrUnsupportedScheme, err)
			}
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	_, err := newClient(t, Options{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected a timeout error, got nil")
	}
}

func TestFetchDeniedNetwork(t *testing.T) {
	var hit bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.Header().Set("Content-Type", "text/html")
	}))
	defer ts.Close()

	c := newClient(t, Options{DeniedNetworks: []string{"127.0.0.0/8", "::1/128"}})

	_, err := c.Fetch(context.Background(), ts.URL)
	if !errors.Is(err, ErrDeniedTarget) {
		t.Errorf("wanted %v, got: %v", ErrDeniedTarget, err)
	}

	if hit {
		t.Error("denied target was contacted anyway")
	}
}

func TestFetchAllowedNetwork(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("fine"))
	}))
	defer ts.Close()

	c := newClient(t, Options{DeniedNetworks: []string{"169.254.0.0/16"}})

	page, err := c.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatal(err)
	}

	if page.Body != "fine" {
		t.Errorf("wanted body %q, got: %q", "fine", page.Body)
	}
}

func TestNewBadNetworks(t *testing.T) {
	_, err := New(Options{DeniedNetworks: []string{"10.0.0.0/8", "not a network", "300.1.1.1/32"}})
	if !errors.Is(err, ErrBadNetwork) {
		t.Errorf("wanted %v, got: %v", ErrBadNetwork, err)
	}
}

func TestSplitNetworks(t *testing.T) {
	got := SplitNetworks(" 10.0.0.0/8, ,169.254.0.0/16,")
	want := []string{"10.0.0.0/8", "169.254.0.0/16"}

	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("wanted %v, got: %v", want, got)
	}

	if got := SplitNetworks(""); len(got) != 0 {
		t.Errorf("wanted no networks, got: %v", got)
	}
}

func TestNewDeniedNetworksSkipsProxy(t *testing.T) {
	transportOf := func(c *Client) *http.Transport {
		t.Helper()

		d, ok := c.client.Transport.(*decompressor)
		if !ok {
			t.Fatalf("wanted a *decompressor transport, got %T", c.client.Transport)
		}

		tr, ok := d.next.(*http.Transport)
		if !ok {
			t.Fatalf("wanted an *http.Transport under the decompressor, got %T", d.next)
		}

		return tr
	}

	if tr := transportOf(newClient(t, Options{})); tr.Proxy == nil {
		t.Error("proxy settings from the environment were dropped without denied networks")
	}

	if tr := transportOf(newClient(t, Options{DeniedNetworks: []string{"10.0.0.0/8"}})); tr.Proxy != nil {
		t.Error("denied networks are set but requests can still go through a proxy")
	}
}
