package xhtml

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parse builds a document tree from a fetched page.
func Parse(page string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return doc, nil
}

// Options controls the optional steps of Clean.
type Options struct {
	// Base is where the page was fetched from, used to resolve links.
	Base         *url.URL
	RewriteLinks bool

	// Charset is the encoding the page will be sent in. When set, every
	// charset declaration in the page is changed to say so.
	Charset string
}

// Clean runs the whole pipeline on a parsed document: drop unsupported
// elements, optionally rewrite links and charset declarations, trim stray
// whitespace and render with Xiino's padding. It returns the rendered page
// and the number of elements dropped.
func Clean(doc *html.Node, opts Options) (string, int, error) {
	dropped := Strip(doc)

	if opts.RewriteLinks {
		RewriteLinks(doc, opts.Base)
	}

	if opts.Charset != "" {
		SetCharset(doc, opts.Charset)
	}

	Trim(doc)

	page, err := Render(doc)
	if err != nil {
		return "", dropped, err
	}

	return page, dropped, nil
}
