// Package lib is the OpenXiino request pipeline: it decodes what the device
// reported about itself, fetches the page it asked for and cuts it down to
// markup Xiino can render.
package lib

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/html"

	"github.com/nicl83/openxiino"
	"github.com/nicl83/openxiino/internal"
	"github.com/nicl83/openxiino/internal/fetch"
	"github.com/nicl83/openxiino/lib/device"
	"github.com/nicl83/openxiino/lib/xhtml"
	"github.com/nicl83/openxiino/web"
)

// Outcomes, also used as the label on the requests counter.
const (
	OutcomeBadTarget   = "bad_target"
	OutcomeDeviceInfo  = "deviceinfo"
	OutcomeAbout       = "about"
	OutcomeFetchError  = "fetch_error"
	OutcomeParseError  = "parse_error"
	OutcomeProxied     = "proxied"
	OutcomeStrange     = "strange"
	OutcomeRenderError = "render_error"
)

const contentType = "text/html"

var (
	ErrNoTarget = errors.New("lib: no target URL in request")
	ErrNoHost   = errors.New("lib: target URL has no host")

	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openxiino_requests",
		Help: "The total number of requests served, by outcome",
	}, []string{"outcome"})

	tagsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openxiino_tags_dropped",
		Help: "The total number of unsupported elements removed from proxied pages",
	})
)

// Fetcher gets a page from the web. *fetch.Client is the real one.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*fetch.Page, error)
}

type Options struct {
	Fetcher Fetcher

	// Parse turns a fetched page into a tree. Defaults to xhtml.Parse.
	Parse func(page string) (*html.Node, error)

	// RewriteLinks makes every <a href> absolute and downgrades https links
	// to http, since Xiino can't speak TLS.
	RewriteLinks bool
}

// Request is everything Dispatch needs from an inbound request.
type Request struct {
	// Segments are the four path segments: colour depth, screen width, an
	// unused token and text encoding.
	Segments [openxiino.PathSegments]string

	// RawTarget is the raw query string, which Xiino fills with the URL it
	// wants.
	RawTarget string

	Header http.Header
}

type Response struct {
	Status      int
	ContentType string
	Body        []byte
	Outcome     string
}

type Server struct {
	proxyHandler http.Handler
	fetcher      Fetcher
	parse        func(string) (*html.Node, error)
	opts         Options
}

func New(opts Options) (*Server, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("lib: no Fetcher configured")
	}

	if opts.Parse == nil {
		opts.Parse = xhtml.Parse
	}

	result := &Server{
		fetcher: opts.Fetcher,
		parse:   opts.Parse,
		opts:    opts,
	}

	result.proxyHandler = internal.NoStoreCache(http.HandlerFunc(result.proxy))

	return result, nil
}

// Dispatch decides what to answer a Xiino request with. It never returns an
// error: every failure becomes a page the device can show.
func (s *Server) Dispatch(ctx context.Context, req Request) Response {
	caps := device.Decode(req.Segments[0], req.Segments[1], req.Segments[3])

	lg := slog.With(
		"target", req.RawTarget,
		"user_agent", req.Header.Get("User-Agent"),
		"x-real-ip", req.Header.Get("X-Real-Ip"),
		"device", caps,
	)

	target, err := parseTarget(req.RawTarget)
	if err != nil {
		lg.Info("bad target", "err", err)
		return s.render(ctx, lg, caps, web.ErrorPage(err.Error()), OutcomeBadTarget)
	}

	switch strings.ToLower(target.Hostname()) {
	case openxiino.DeviceInfoHost:
		return s.render(ctx, lg, caps, web.DeviceInfo(caps, req.RawTarget, req.Header), OutcomeDeviceInfo)
	case openxiino.AboutHost:
		return s.render(ctx, lg, caps, web.About(), OutcomeAbout)
	case openxiino.MoreInfoHost:
		return s.render(ctx, lg, caps, web.MoreInfo(), OutcomeAbout)
	case openxiino.GitHubHost:
		return s.render(ctx, lg, caps, web.GitHub(), OutcomeAbout)
	}

	page, err := s.fetcher.Fetch(ctx, target.String())
	if err != nil {
		lg.Info("fetch failed", "err", err)
		return s.render(ctx, lg, caps, web.ErrorPage(err.Error()), OutcomeFetchError)
	}

	doc, err := s.parse(page.Body)
	if err != nil {
		lg.Info("parse failed", "err", err)
		return s.render(ctx, lg, caps, web.ErrorPage(err.Error()), OutcomeParseError)
	}

	base := page.URL
	if base == nil {
		base = target
	}

	body, dropped, err := xhtml.Clean(doc, xhtml.Options{
		Base:         base,
		RewriteLinks: s.opts.RewriteLinks,
		Charset:      caps.Charset(),
	})
	if err != nil {
		lg.Info("can't serialize page", "err", err)
		return s.render(ctx, lg, caps, web.ErrorPage(err.Error()), OutcomeParseError)
	}

	tagsDropped.Add(float64(dropped))
	lg.Debug("proxied page", "final_url", base.String(), "dropped", dropped)

	return s.respond(lg, caps, body, OutcomeProxied)
}

func (s *Server) render(ctx context.Context, lg *slog.Logger, caps device.Capabilities, c templ.Component, outcome string) Response {
	page, err := web.RenderString(ctx, c)
	if err != nil {
		lg.Error("render failed", "outcome", outcome, "err", err)
		requests.WithLabelValues(OutcomeRenderError).Inc()
		return Response{
			Status:      http.StatusInternalServerError,
			ContentType: contentType,
			Body:        []byte(http.StatusText(http.StatusInternalServerError)),
			Outcome:     OutcomeRenderError,
		}
	}

	return s.respond(lg, caps, page, outcome)
}

func (s *Server) respond(lg *slog.Logger, caps device.Capabilities, page, outcome string) Response {
	body, err := caps.Encode(page)
	if err != nil {
		lg.Debug("sending page as utf-8", "err", err)
	}

	requests.WithLabelValues(outcome).Inc()

	return Response{
		Status:      http.StatusOK,
		ContentType: contentType,
		Body:        body,
		Outcome:     outcome,
	}
}

func parseTarget(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrNoTarget
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("lib: can't parse target URL: %w", err)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoHost, raw)
	}

	return u, nil
}
