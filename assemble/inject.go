package assemble

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"impdex/fragment"
)

// insertionPointID names the page element the implementors section is
// rendered into. Generated pages carry it as an empty placeholder; when a
// page does not, the section is appended to the main content element.
const insertionPointID = "implementors-list"

// hasRenderedImplementors reports whether the page's insertion point already
// carries rendered entries.
func hasRenderedImplementors(doc *html.Node) bool {
	target := findByID(doc, insertionPointID)
	if target == nil {
		return false
	}
	for c := target.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// injectImplementors renders a mapping into the page document. The insertion
// point's previous content is replaced whole, a repeated hand-off leaves the
// page showing the latest mapping only.
//
// Entry markup is opaque: it is parsed as an HTML fragment and inserted
// as parsed, never escaped and never sanitized. That content comes from the
// documentation generator, the same producer the rest of the page came from.
func injectImplementors(doc *html.Node, m fragment.Mapping) error {
	target := findByID(doc, insertionPointID)
	if target == nil {
		host := findMainContent(doc)
		if host == nil {
			return errors.New("page has no content element to render into")
		}
		target = element("div", attr("id", insertionPointID))
		host.AppendChild(target)
	}

	for target.FirstChild != nil {
		target.RemoveChild(target.FirstChild)
	}

	for _, pkg := range m.Packages() {
		header := element("h3", attr("class", "impl-package"), attr("id", "impls-"+pkg))
		header.AppendChild(textNode(pkg))
		target.AppendChild(header)

		// A package with no entries still renders its header and an empty
		// list, known-but-not-enumerated is valid data.
		list := element("ul", attr("class", "impl-list"))
		target.AppendChild(list)

		for _, e := range m[pkg] {
			item := element("li", attr("class", "impl"))
			nodes, err := html.ParseFragment(strings.NewReader(string(e)), item)
			if err != nil {
				return err
			}
			for _, n := range nodes {
				item.AppendChild(n)
			}
			list.AppendChild(item)
		}
	}
	return nil
}

// findMainContent locates the page element rendered sections belong to:
// the generator's main content container, a <main> element, or <body>.
func findMainContent(doc *html.Node) *html.Node {
	if n := findByID(doc, "main-content"); n != nil {
		return n
	}
	if n := findElement(doc, atom.Main); n != nil {
		return n
	}
	return findElement(doc, atom.Body)
}

func findByID(root *html.Node, id string) *html.Node {
	return findNode(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return true
			}
		}
		return false
	})
}

func findElement(root *html.Node, a atom.Atom) *html.Node {
	return findNode(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == a
	})
}

func findNode(root *html.Node, match func(*html.Node) bool) *html.Node {
	if match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := findNode(c, match); n != nil {
			return n
		}
	}
	return nil
}

func element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
