package assemble

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"impdex/text"
)

// ensureMetaDescription gives a rendered page a description meta tag when it
// has none, built from the first content paragraph. Returns whether the page
// was modified.
func ensureMetaDescription(doc *html.Node, splitter *text.Splitter, maxRunes int) bool {
	head := findElement(doc, atom.Head)
	if head == nil || hasMetaDescription(head) {
		return false
	}

	desc := splitter.Description(firstParagraphText(doc), maxRunes)
	if desc == "" {
		return false
	}

	meta := element("meta", attr("name", "description"), attr("content", desc))
	head.AppendChild(meta)
	return true
}

func hasMetaDescription(head *html.Node) bool {
	return nil != findNode(head, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Meta {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == "name" && strings.EqualFold(a.Val, "description") {
				return true
			}
		}
		return false
	})
}

// firstParagraphText returns the text of the first non-empty paragraph under
// the page's main content element.
func firstParagraphText(doc *html.Node) string {
	host := findMainContent(doc)
	if host == nil {
		return ""
	}

	found := ""
	findNode(host, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.P {
			return false
		}
		if s := strings.TrimSpace(textContent(n)); s != "" {
			found = s
			return true
		}
		return false
	})
	return found
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
