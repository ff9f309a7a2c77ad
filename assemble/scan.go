package assemble

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"impdex/config"
	"impdex/fragment"
	"impdex/registry"
)

// Page is a trait page of the tree: parsed markup plus the trait whose
// fragment feeds it, discovered from the page's script reference.
type Page struct {
	Rel       string // slash path relative to the tree root
	Src       string // absolute path of the original file
	TraitPath string

	doc     *html.Node
	raw     []byte
	renders int
	changed bool
}

// Rendered reports whether the page received its implementors mapping.
func (p *Page) Rendered() bool {
	return p.renders > 0
}

// serialize returns the bytes to write for the page. Only pages the renderer
// changed pay for re-serialization, everything else passes through with the
// original bytes.
func (p *Page) serialize() ([]byte, error) {
	if !p.changed {
		return p.raw, nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, p.doc); err != nil {
		return nil, fmt.Errorf("unable to render page (%s): %w", p.Rel, err)
	}
	return buf.Bytes(), nil
}

// File is a non-page member of the tree. Data, when set, replaces the
// original content on output; generated members have no Src.
type File struct {
	Rel  string
	Src  string
	Data []byte
}

// Tree is the scanned model of one documentation tree.
type Tree struct {
	Root  string
	Pages []*Page
	Files []*File
	Frags *fragment.List

	exch *registry.Exchange

	// Filled by accounting after the walk.
	UnfedPages     int
	UnusedMappings int
}

// scanTree walks the tree once in walk order. Fragment scripts are parsed and
// their mappings published to the trait's registry; trait pages are parsed and
// registered as the renderer consumer for their trait. Scripts can precede or
// follow their pages in walk order, the registry hand-off makes both orders
// come out the same.
func scanTree(ctx context.Context, root string, mode config.InjectMode, log *zap.Logger) (*Tree, error) {
	t := &Tree{
		Root:  root,
		Frags: fragment.NewList(),
		exch:  registry.NewExchange(),
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)

		switch {
		case fragment.IsScriptPath(rel):
			t.addScript(rel, p, log)
		case fragment.IsTraitPagePath(rel):
			t.addPage(rel, p, mode, log)
		default:
			t.Files = append(t.Files, &File{Rel: rel, Src: p})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// addScript parses a fragment script and publishes its mapping. The script
// file itself stays in the tree, the in-browser hand-off keeps working.
func (t *Tree) addScript(rel, abs string, log *zap.Logger) {
	t.Files = append(t.Files, &File{Rel: rel, Src: abs})

	data, err := os.ReadFile(abs)
	if err != nil {
		log.Warn("Skipping fragment script", zap.String("file", rel), zap.Error(err))
		return
	}
	m, err := fragment.ParseScript(data)
	if err != nil {
		log.Warn("Skipping fragment script", zap.String("file", rel), zap.Error(err))
		return
	}

	traitPath, _ := fragment.TraitPathFromScript(rel)
	if err := t.Frags.Add(&fragment.Fragment{TraitPath: traitPath, Mapping: m, Source: rel}); err != nil {
		log.Warn("Skipping fragment script", zap.String("file", rel), zap.Error(err))
		return
	}

	t.exch.Registry(traitPath).Publish(m)
	log.Debug("Fragment published",
		zap.String("trait", traitPath), zap.Int("packages", len(m)), zap.Int("entries", m.Count()))
}

// addPage parses a trait page and attaches it as the renderer consumer of
// its trait. A page without a fragment script reference takes no part in the
// hand-off and passes through unchanged.
func (t *Tree) addPage(rel, abs string, mode config.InjectMode, log *zap.Logger) {
	raw, err := os.ReadFile(abs)
	if err != nil {
		log.Warn("Skipping page", zap.String("file", rel), zap.Error(err))
		t.Files = append(t.Files, &File{Rel: rel, Src: abs})
		return
	}

	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		log.Warn("Skipping page", zap.String("file", rel), zap.Error(err))
		t.Files = append(t.Files, &File{Rel: rel, Src: abs})
		return
	}

	traitPath := findFragmentRef(doc, rel)
	if traitPath == "" {
		log.Debug("Page has no fragment reference", zap.String("file", rel))
		t.Files = append(t.Files, &File{Rel: rel, Src: abs})
		return
	}

	pg := &Page{Rel: rel, Src: abs, TraitPath: traitPath, doc: doc, raw: raw}
	t.Pages = append(t.Pages, pg)

	t.exch.Registry(traitPath).OnConsumerReady(func(m fragment.Mapping) {
		if mode == config.InjectModeSkip && hasRenderedImplementors(pg.doc) {
			pg.renders++
			log.Debug("Page already carries implementors, leaving as is", zap.String("page", pg.Rel))
			return
		}
		if err := injectImplementors(pg.doc, m); err != nil {
			log.Error("Unable to render implementors", zap.String("page", pg.Rel), zap.Error(err))
			return
		}
		pg.renders++
		pg.changed = true
		log.Debug("Implementors rendered",
			zap.String("page", pg.Rel), zap.String("trait", traitPath), zap.Int("packages", len(m)))
	})
}

// accounting reports hand-off leftovers after the walk. Neither direction is
// an error: a mapping nobody rendered stays stashed, a page nobody fed is
// written unchanged.
func (t *Tree) accounting(log *zap.Logger) {
	for _, key := range t.exch.Keys() {
		reg := t.exch.Registry(key)
		if m, ok := reg.Pending(); ok {
			t.UnusedMappings++
			log.Debug("Mapping was never consumed", zap.String("trait", key), zap.Int("packages", len(m)))
		}
	}
	for _, pg := range t.Pages {
		if !pg.Rendered() {
			t.UnfedPages++
			log.Debug("Fragment never arrived, page stays unchanged", zap.String("page", pg.Rel))
		}
	}
}

// findFragmentRef looks for the page's fragment script element and derives
// the trait path from its src attribute.
func findFragmentRef(doc *html.Node, pageRel string) string {
	dir := path.Dir(pageRel)
	found := ""
	findNode(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "script" {
			return false
		}
		for _, a := range n.Attr {
			if a.Key != "src" {
				continue
			}
			ref := a.Val
			if strings.HasPrefix(ref, "/") {
				ref = strings.TrimPrefix(ref, "/")
			} else {
				ref = path.Join(dir, ref)
			}
			if tp, ok := fragment.TraitPathFromScript(path.Clean(ref)); ok {
				found = tp
				return true
			}
		}
		return false
	})
	return found
}
