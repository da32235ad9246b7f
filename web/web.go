// Package web holds the pages OpenXiino serves itself: the proxy error page
// and the built-in diagnostic pages.
//
// Every page is plain HTML 3.2-era markup. Xiino ignores anything newer, so
// there is no CSS and no script here.
package web

//go:generate go tool github.com/a-h/templ/cmd/templ generate

import (
	"bytes"
	"context"
	"strings"

	"github.com/a-h/templ"
)

var errorDataEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeErrorData makes s safe to put between tags. Only &, < and > are
// replaced, quotes are left alone.
func EscapeErrorData(s string) string {
	return errorDataEscaper.Replace(s)
}

// RenderString renders c into a string.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
