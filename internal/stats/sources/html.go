package sources

import (
	"strings"

	"golang.org/x/net/html"
)

// findElement returns the first element named tag in document order.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAll collects every element named tag in document order.
func findAll(n *html.Node, tag string, out []*html.Node) []*html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = findAll(c, tag, out)
	}
	return out
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// textContent concatenates the text below n, skipping scripts and styles.
func textContent(n *html.Node) string {
	var sb strings.Builder
	collectText(n, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "sup":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// entryText concatenates the text of block starting at start and ending before the
// next node for which stop reports true. Scripts and styles are skipped.
func entryText(block, start *html.Node, stop func(*html.Node) bool) string {
	var (
		sb      strings.Builder
		started bool
		done    bool
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == start {
			started = true
		} else if started && stop(n) {
			done = true
			return
		}

		switch n.Type {
		case html.TextNode:
			if started {
				sb.WriteString(n.Data)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "sup":
				return
			case "br":
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil && !done; c = c.NextSibling {
			walk(c)
		}
	}
	walk(block)

	return strings.Join(strings.Fields(sb.String()), " ")
}

// enclosingBlock walks up to the nearest paragraph-like ancestor.
func enclosingBlock(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.Data {
		case "p", "li", "dd", "td", "div":
			return p
		}
	}
	return n.Parent
}
