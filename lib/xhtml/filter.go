// Package xhtml cuts fetched documents down to the markup Xiino can render
// and serializes them the way Xiino expects.
package xhtml

import (
	"log/slog"

	"golang.org/x/net/html"
)

// Filter drops every unsupported element from a sibling sequence. Elements
// Xiino can't render are removed together with their whole subtree, even if
// some of their children would be supported on their own. Text, comments,
// doctypes and anything else that isn't an element are always kept.
//
// Kept elements have their children filtered in place. The relative order
// of the surviving nodes is unchanged.
func Filter(nodes []*html.Node) []*html.Node {
	result := make([]*html.Node, 0, len(nodes))

	for _, n := range nodes {
		if !keep(n) {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			continue
		}

		Strip(n)
		result = append(result, n)
	}

	return result
}

// Strip filters the children of n in place and returns how many elements
// were dropped. n itself is never removed, so Strip can be handed the
// document node returned by html.Parse.
func Strip(n *html.Node) int {
	dropped := 0

	for child := n.FirstChild; child != nil; {
		next := child.NextSibling

		if keep(child) {
			dropped += Strip(child)
		} else {
			slog.Debug("dropped unsupported tag", "tag", child.Data)
			n.RemoveChild(child)
			dropped++
		}

		child = next
	}

	return dropped
}

func keep(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return true
	}

	return Supported(n.Data)
}
