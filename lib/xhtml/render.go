package xhtml

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Padding is written before every proxied page. Xiino misrenders the start
// of documents that don't begin with it.
const Padding = "            "

// Trim removes whitespace-only text nodes from the start and end of every
// child list under n. Preformatted elements are left alone.
func Trim(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "pre", "xmp", "plaintext":
			return
		}
	}

	for n.FirstChild != nil && blank(n.FirstChild) {
		n.RemoveChild(n.FirstChild)
	}

	for n.LastChild != nil && blank(n.LastChild) {
		n.RemoveChild(n.LastChild)
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		Trim(child)
	}
}

func blank(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}

// Render serializes n and prefixes it with Padding.
func Render(n *html.Node) (string, error) {
	var sb strings.Builder
	sb.WriteString(Padding)

	if err := html.Render(&sb, n); err != nil {
		return "", fmt.Errorf("xhtml: can't render document: %w", err)
	}

	return sb.String(), nil
}

// RewriteLinks makes every <a href> absolute against base and downgrades
// https links to http. Xiino only follows plain http links.
func RewriteLinks(n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode && n.Data == "a" {
		for i, attr := range n.Attr {
			if attr.Namespace != "" || attr.Key != "href" {
				continue
			}

			n.Attr[i].Val = rewriteLink(base, attr.Val)
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		RewriteLinks(child, base)
	}
}

func rewriteLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}

	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}

	if u.Scheme == "https" {
		u.Scheme = "http"
	}

	return u.String()
}
