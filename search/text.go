package search

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BodyText returns the rendered text of the document body with markup,
// scripts and styles removed and whitespace collapsed. The document is
// parsed the way a browser would, so a body opened implicitly by content
// after an unclosed head is still found.
func BodyText(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	return nodeBodyText(root)
}

// nodeBodyText is BodyText for an already parsed document.
func nodeBodyText(root *html.Node) string {
	body := findElement(root, atom.Body)
	if body == nil {
		return ""
	}
	var b strings.Builder
	appendText(&b, body)
	return CollapseWhitespace(b.String())
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// appendText writes the visible text under n, separating element
// boundaries with spaces.
func appendText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	case html.ElementNode:
		if isHiddenText(n.DataAtom) {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendText(b, c)
	}
}

// isHiddenText reports whether a tag holds text that is never rendered as
// page content.
func isHiddenText(a atom.Atom) bool {
	switch a {
	case atom.Title, atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

// CollapseWhitespace trims s and replaces every whitespace run with a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most max runes, appending an ellipsis when
// anything was cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:max]), " ") + "…"
}
