package xhtml

import (
	"strings"

	"golang.org/x/net/html"
)

// SetCharset points every <meta charset> and <meta http-equiv=Content-Type>
// under n at charset. Fetched pages are decoded before parsing, so whatever
// they declared no longer matches the bytes we send.
func SetCharset(n *html.Node, charset string) {
	if n.Type == html.ElementNode && n.Data == "meta" {
		setMetaCharset(n, charset)
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		SetCharset(child, charset)
	}
}

func setMetaCharset(n *html.Node, charset string) {
	contentType := false
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == "http-equiv" && strings.EqualFold(strings.TrimSpace(attr.Val), "content-type") {
			contentType = true
		}
	}

	for i, attr := range n.Attr {
		if attr.Namespace != "" {
			continue
		}

		switch {
		case attr.Key == "charset":
			n.Attr[i].Val = charset
		case contentType && attr.Key == "content":
			n.Attr[i].Val = "text/html; charset=" + charset
		}
	}
}
