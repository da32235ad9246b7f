// Package fetch retrieves pages from the web on behalf of Xiino.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/html/charset"

	"github.com/nicl83/openxiino"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxBodySize = 16 << 20 // 16 MiB
)

var (
	ErrStatus            = errors.New("fetch: unexpected status code")
	ErrContentType       = errors.New("fetch: unsupported Content-Type")
	ErrTooLarge          = errors.New("fetch: page too large")
	ErrUnsupportedScheme = errors.New("fetch: unsupported URL scheme")

	fetchTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openxiino_fetch_seconds",
		Help:    "Time taken to fetch a page for a client",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
)

// Page is a fetched document, decoded to UTF-8.
type Page struct {
	// URL is where the page ended up after redirects.
	URL  *url.URL
	Body string
}

type Options struct {
	Timeout     time.Duration
	MaxBodySize int64
	UserAgent   string

	// DeniedNetworks are CIDR ranges the proxy refuses to connect to, for
	// example the cloud metadata service or the LAN the proxy runs in.
	DeniedNetworks []string
}

type Client struct {
	client           *http.Client
	userAgent        string
	maxContentLength int64
}

func New(opts Options) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.MaxBodySize == 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}

	if opts.UserAgent == "" {
		opts.UserAgent = openxiino.UserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	if len(opts.DeniedNetworks) != 0 {
		ranger, err := parseNetworks(opts.DeniedNetworks)
		if err != nil {
			return nil, err
		}

		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   denyControl(ranger),
		}
		transport.DialContext = dialer.DialContext

		// Through a proxy the dialer only ever sees the proxy's address.
		transport.Proxy = nil
	}

	return &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &decompressor{next: transport},
		},
		userAgent:        opts.UserAgent,
		maxContentLength: opts.MaxBodySize,
	}, nil
}

// Fetch gets target and returns its body as UTF-8 text. Anything that
// isn't a successful text response is an error.
func (c *Client) Fetch(ctx context.Context, target string) (*Page, error) {
	start := time.Now()

	page, err := c.fetch(ctx, target)

	result := "ok"
	if err != nil {
		result = "error"
	}
	fetchTime.WithLabelValues(result).Observe(time.Since(start).Seconds())

	return page, err
}

func (c *Client) fetch(ctx context.Context, target string) (*Page, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("fetch: invalid URL %q: %w", target, err)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: can't build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get failed: %w", err)
	}
	// closes the decompressor too, if one was stacked on the body.
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			slog.Debug("fetch: error closing response body", "url", target, "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("fetch: received non-OK status code", "url", target, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return nil, fmt.Errorf("%w: missing Content-Type header", ErrContentType)
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		slog.Debug("fetch: malformed Content-Type header", "url", target, "contentType", ct)
		return nil, fmt.Errorf("%w: malformed Content-Type header: %w", ErrContentType, err)
	}

	if !textual(mediaType) {
		slog.Debug("fetch: unsupported Content-Type", "url", target, "contentType", mediaType)
		return nil, fmt.Errorf("%w: %s", ErrContentType, mediaType)
	}

	resp.Body = http.MaxBytesReader(nil, resp.Body, c.maxContentLength)

	// charset.NewReader peeks at the first KiB to sniff <meta charset>, so
	// the size limit can trip here as well as in ReadAll.
	body, err := charset.NewReader(resp.Body, ct)
	switch {
	case errors.Is(err, io.EOF):
		// empty body
		return &Page{URL: resp.Request.URL}, nil
	case err != nil:
		return nil, c.readError(target, err)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, c.readError(target, err)
	}

	return &Page{
		URL:  resp.Request.URL,
		Body: string(data),
	}, nil
}

func (c *Client) readError(target string, err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		slog.Debug("fetch: content exceeded max length", "url", target, "limit", c.maxContentLength)
		return fmt.Errorf("%w: exceeded %d bytes", ErrTooLarge, c.maxContentLength)
	}

	return fmt.Errorf("fetch: can't read body: %w", err)
}

func textual(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/xhtml+xml"
}

// CloseIdleConnections releases pooled connections, used on shutdown.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}
