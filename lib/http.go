package lib

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/nicl83/openxiino"
	"github.com/nicl83/openxiino/web"
)

// ServeHTTP routes GET requests shaped like /<depth>/<width>/<unused>/<encoding>/
// to Dispatch and answers everything else with the strange request page.
// Empty tokens are valid, so the path must never be cleaned.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments, ok := splitPath(r.URL.EscapedPath())
	if !ok || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		s.strangeRequest(w, r)
		return
	}

	r = r.WithContext(withSegments(r.Context(), segments))
	s.proxyHandler.ServeHTTP(w, r)
}

// splitPath returns the tokens of a Xiino request path. Tokens may be empty.
func splitPath(path string) ([openxiino.PathSegments]string, bool) {
	var result [openxiino.PathSegments]string

	if len(path) < 2 || path[0] != '/' || path[len(path)-1] != '/' {
		return result, false
	}

	parts := strings.Split(path[1:len(path)-1], "/")
	if len(parts) != openxiino.PathSegments {
		return result, false
	}

	for i, part := range parts {
		token, err := url.PathUnescape(part)
		if err != nil {
			token = part
		}
		result[i] = token
	}

	return result, true
}

func (s *Server) proxy(w http.ResponseWriter, r *http.Request) {
	resp := s.Dispatch(r.Context(), Request{
		Segments:  segmentsFrom(r.Context()),
		RawTarget: r.URL.RawQuery,
		Header:    r.Header,
	})

	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		slog.Debug("can't write response", "outcome", resp.Outcome, "err", err)
	}
}

// strangeRequest answers requests that don't look like they came from
// Xiino. It stays a 200 so the device shows the page instead of retrying.
func (s *Server) strangeRequest(w http.ResponseWriter, r *http.Request) {
	slog.Debug("strange request", "method", r.Method, "path", r.URL.Path, "user_agent", r.UserAgent())
	requests.WithLabelValues(OutcomeStrange).Inc()

	templ.Handler(web.StrangeRequest(), templ.WithContentType(contentType)).ServeHTTP(w, r)
}
