package assemble

import (
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"impdex/css"
	"impdex/state"
)

// stylesheetName is the tree-root file the injected section styling lives in.
const stylesheetName = "impdex.css"

// installStylesheet adds the section stylesheet to the tree root unless the
// tree already carries one, and links every rendered page to it. When the
// style came from a user file its asset references are checked against the
// tree, a reference that resolves nowhere is a warning, not an error.
func installStylesheet(t *Tree, env *state.LocalEnv, log *zap.Logger) {
	if t.hasMember(stylesheetName) {
		log.Debug("Tree already carries a stylesheet", zap.String("file", stylesheetName))
	} else {
		if env.Cfg.Render.StylesheetPath != "" {
			verifyStylesheet(t, env.DefaultStyle, env.Cfg.Render.StylesheetPath, log)
		}
		t.Files = append(t.Files, &File{Rel: stylesheetName, Data: env.DefaultStyle})
	}

	for _, pg := range t.Pages {
		if !pg.Rendered() {
			continue
		}
		href := strings.Repeat("../", strings.Count(pg.Rel, "/")) + stylesheetName
		if ensureStylesheetLink(pg.doc, href) {
			pg.changed = true
		}
	}
}

// installIcons adds the program marks missing from the tree root. Trees fresh
// from a generator usually have their own, stripped-down ones get ours.
func installIcons(t *Tree, env *state.LocalEnv, log *zap.Logger) {
	for kind, svg := range env.DefaultIcons {
		name := kind.FileName()
		if t.hasMember(name) {
			continue
		}
		log.Debug("Installing default icon", zap.String("file", name))
		t.Files = append(t.Files, &File{Rel: name, Data: svg})
	}
}

func verifyStylesheet(t *Tree, data []byte, source string, log *zap.Logger) {
	sheet := css.NewParser(log).Parse(data, source)
	for _, ref := range sheet.AssetRefs() {
		if css.IsExternal(ref) {
			continue
		}
		// The stylesheet sits at the tree root, references resolve from there.
		target := ref
		if i := strings.IndexAny(target, "?#"); i >= 0 {
			target = target[:i]
		}
		target = path.Clean(strings.TrimPrefix(target, "/"))
		if target == "" || strings.HasPrefix(target, "..") || !t.hasMember(target) {
			log.Warn("Stylesheet references an asset missing from the tree",
				zap.String("stylesheet", source), zap.String("ref", ref))
		}
	}
}

// ensureStylesheetLink adds a stylesheet link to the page head unless one for
// the same file is already there. Returns whether the page was modified.
func ensureStylesheetLink(doc *html.Node, href string) bool {
	head := findElement(doc, atom.Head)
	if head == nil {
		return false
	}

	exists := nil != findNode(head, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Link {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == "href" && strings.HasSuffix(a.Val, stylesheetName) {
				return true
			}
		}
		return false
	})
	if exists {
		return false
	}

	head.AppendChild(element("link", attr("rel", "stylesheet"), attr("href", href)))
	return true
}

// hasMember reports whether the tree has a file or page at a slash path.
func (t *Tree) hasMember(rel string) bool {
	for _, f := range t.Files {
		if f.Rel == rel {
			return true
		}
	}
	for _, p := range t.Pages {
		if p.Rel == rel {
			return true
		}
	}
	return false
}
