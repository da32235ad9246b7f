package xhtml

import "strings"

// supportedTags is every element Xiino knows how to render. It is filled
// once at init and only read afterwards.
//
// html, head, title and the table section elements are not on Xiino's own
// list, but html.Parse always synthesises them and dropping them would take
// the whole page or every table with them.
var supportedTags = map[string]struct{}{}

func init() {
	for _, tag := range []string{
		"a", "address", "area",
		"b", "base", "basefont", "bgcolor", "blink", "blockquote", "body", "br",
		"caption", "center", "cite", "clear", "code",
		"dd", "dir", "div", "dl", "dt",
		"font", "form", "frame", "frameset",
		"h1", "h2", "h3", "h4", "h5", "h6", "head", "hr", "html",
		"i", "img", "input", "isindex",
		"kbd",
		"li",
		"map", "meta", "multicol",
		"nobr", "noframes",
		"ol", "option",
		"p", "plaintext", "pre",
		"s", "select", "small", "strike", "strong", "style", "sub", "sup",
		"table", "tbody", "td", "tfoot", "th", "thead", "title", "tr", "tt",
		"u", "ul",
		"var",
		"xmp",
	} {
		supportedTags[tag] = struct{}{}
	}
}

// Supported reports whether Xiino can render the named element. The
// comparison is case-insensitive.
func Supported(tag string) bool {
	_, ok := supportedTags[strings.ToLower(tag)]
	return ok
}
