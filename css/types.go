// Package css provides a light stylesheet model for the tree stylesheet pass:
// parsing, url() asset reference extraction and rewriting, and writing the
// result back out. Selectors and values are carried as written, declaration
// order is preserved.
package css

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Declaration is a single property declaration. Custom properties (--name)
// are kept like any other declaration.
type Declaration struct {
	Property string
	Value    string
}

// Rule is one ruleset: the selector list as written and its declarations in
// source order.
type Rule struct {
	Selectors    string
	Declarations []Declaration
}

// FontFace is an @font-face block.
type FontFace struct {
	Declarations []Declaration
}

// MediaBlock is an @media block with its raw query and nested rules.
type MediaBlock struct {
	Query string
	Rules []Rule
}

// Item is a single top-level item in a stylesheet.
// Exactly one of Rule, Media, FontFace, or Import is non-nil.
type Item struct {
	Rule     *Rule
	Media    *MediaBlock
	FontFace *FontFace
	Import   *string
}

// Stylesheet represents a parsed CSS stylesheet in source order.
type Stylesheet struct {
	Items []Item
}

// Imports returns all @import URLs from the stylesheet in source order.
func (s *Stylesheet) Imports() []string {
	var urls []string
	for _, item := range s.Items {
		if item.Import != nil {
			urls = append(urls, *item.Import)
		}
	}
	return urls
}

// urlPattern matches url() references in CSS values.
// Handles: url("path"), url('path'), url(path)
var urlPattern = regexp.MustCompile(`url\s*\(\s*(?:["']([^"']*)["']|([^)"]*))\s*\)`)

// AssetRefs returns every URL the stylesheet references, @import targets,
// font sources and url() values alike, deduplicated in first-seen order.
// External references are included, see IsExternal.
func (s *Stylesheet) AssetRefs() []string {
	var refs []string
	seen := make(map[string]struct{})
	visit := func(ref string) {
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}

	for _, item := range s.Items {
		switch {
		case item.Import != nil:
			visit(*item.Import)
		case item.FontFace != nil:
			for _, d := range item.FontFace.Declarations {
				refsInValue(d.Value, visit)
			}
		case item.Rule != nil:
			for _, d := range item.Rule.Declarations {
				refsInValue(d.Value, visit)
			}
		case item.Media != nil:
			for _, r := range item.Media.Rules {
				for _, d := range r.Declarations {
					refsInValue(d.Value, visit)
				}
			}
		}
	}
	return refs
}

// IsExternal reports whether a stylesheet reference points outside the tree:
// scheme qualified, protocol relative, data URIs and bare fragments.
func IsExternal(ref string) bool {
	return strings.Contains(ref, "://") ||
		strings.HasPrefix(ref, "//") ||
		strings.HasPrefix(ref, "data:") ||
		strings.HasPrefix(ref, "#")
}

// refsInValue finds url() references in a CSS value string.
func refsInValue(value string, visit func(string)) {
	for _, m := range urlPattern.FindAllStringSubmatch(value, -1) {
		ref := m[1]
		if ref == "" {
			ref = strings.TrimSpace(m[2])
		}
		if ref != "" {
			visit(ref)
		}
	}
}

// RewriteURLs walks all URL references in the stylesheet and applies fn to each.
// This covers @import URLs, @font-face sources, and url() references in rule
// properties.
func (s *Stylesheet) RewriteURLs(fn func(originalURL string) string) {
	for i := range s.Items {
		item := &s.Items[i]

		switch {
		case item.Import != nil:
			newURL := fn(*item.Import)
			item.Import = &newURL

		case item.FontFace != nil:
			rewriteDeclarations(item.FontFace.Declarations, fn)

		case item.Rule != nil:
			rewriteDeclarations(item.Rule.Declarations, fn)

		case item.Media != nil:
			for j := range item.Media.Rules {
				rewriteDeclarations(item.Media.Rules[j].Declarations, fn)
			}
		}
	}
}

// rewriteDeclarations rewrites url() references in declaration values.
func rewriteDeclarations(decls []Declaration, fn func(string) string) {
	for i := range decls {
		if strings.Contains(decls[i].Value, "url(") {
			decls[i].Value = rewriteURLsInValue(decls[i].Value, fn)
		}
	}
}

// rewriteURLsInValue replaces url() references in a CSS value string.
func rewriteURLsInValue(value string, fn func(string) string) string {
	return urlPattern.ReplaceAllStringFunc(value, func(match string) string {
		sub := urlPattern.FindStringSubmatch(match)
		if len(sub) < 3 {
			return match
		}
		// Group 1 is quoted URL, group 2 is unquoted URL
		originalURL := sub[1]
		if originalURL == "" {
			originalURL = sub[2]
		}
		originalURL = strings.TrimSpace(originalURL)
		newURL := fn(originalURL)
		return fmt.Sprintf("url(\"%s\")", cssEscapeDoubleQuoted(newURL))
	})
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, item := range s.Items {
		var n int
		var err error

		switch {
		case item.Import != nil:
			n, err = fmt.Fprintf(w, "@import url(\"%s\");\n", cssEscapeDoubleQuoted(*item.Import))
		case item.FontFace != nil:
			n, err = writeFontFace(w, item.FontFace)
		case item.Media != nil:
			n, err = writeMediaBlock(w, item.Media)
		case item.Rule != nil:
			n, err = writeRule(w, item.Rule, "")
		}

		total += int64(n)
		if err != nil {
			return total, err
		}

		// Add blank line between items (except after last)
		if i < len(s.Items)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeRule writes a single CSS rule to w with the given indent.
func writeRule(w io.Writer, rule *Rule, indent string) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s%s {\n", indent, rule.Selectors)
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeDeclarations(w, rule.Declarations, indent+"  ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprintf(w, "%s}\n", indent)
	total += n
	return total, err
}

// writeDeclarations writes declarations in source order.
func writeDeclarations(w io.Writer, decls []Declaration, indent string) (int, error) {
	var total int
	for _, d := range decls {
		n, err := fmt.Fprintf(w, "%s%s: %s;\n", indent, d.Property, d.Value)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeFontFace writes an @font-face block to w.
func writeFontFace(w io.Writer, ff *FontFace) (int, error) {
	var total int
	n, err := fmt.Fprint(w, "@font-face {\n")
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeDeclarations(w, ff.Declarations, "  ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}

// writeMediaBlock writes an @media block to w.
func writeMediaBlock(w io.Writer, mb *MediaBlock) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "@media %s {\n", mb.Query)
	total += n
	if err != nil {
		return total, err
	}

	for i, rule := range mb.Rules {
		n, err = writeRule(w, &rule, "  ")
		total += n
		if err != nil {
			return total, err
		}

		// Blank line between rules in a media block (except after last)
		if i < len(mb.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += n
			if err != nil {
				return total, err
			}
		}
	}

	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}

// cssEscapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func cssEscapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
