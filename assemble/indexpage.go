package assemble

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"impdex/fragment"
	"impdex/state"
)

const (
	traitIndexName = fragment.ScriptDir + "/index.xhtml"
	sitemapName    = "sitemap.xml"
)

// buildTraitIndex creates the overview page listing every trait whose
// fragment the run parsed, with implementor counts and links to the pages.
func buildTraitIndex(t *Tree, env *state.LocalEnv) *File {
	if t.Frags.Len() == 0 {
		return nil
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("html")
	root.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")
	if lang := env.Cfg.Document.Language; lang != "" {
		root.CreateAttr("xml:lang", lang)
	}

	head := root.CreateElement("head")

	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset=utf-8")

	link := head.CreateElement("link")
	link.CreateAttr("rel", "stylesheet")
	link.CreateAttr("type", "text/css")
	link.CreateAttr("href", "../"+stylesheetName)

	titleElem := head.CreateElement("title")
	titleElem.SetText(env.Cfg.Document.Title)

	body := root.CreateElement("body")
	wrapper := body.CreateElement("div")
	wrapper.CreateAttr("class", "impdex-trait-index")

	h1 := wrapper.CreateElement("h1")
	h1.SetText(env.Cfg.Document.Title)

	list := wrapper.CreateElement("ul")
	for _, traitPath := range t.Frags.Paths() {
		f := t.Frags.Get(traitPath)

		item := list.CreateElement("li")
		a := item.CreateElement("a")
		a.CreateAttr("href", "../"+fragment.PagePath(traitPath))
		a.SetText(traitPath)

		count := item.CreateElement("span")
		count.CreateAttr("class", "count")
		count.SetText(fmt.Sprintf("%d packages, %d entries", len(f.Mapping), f.Mapping.Count()))
	}

	var buf strings.Builder
	if _, err := doc.WriteTo(&buf); err != nil {
		// strings.Builder does not fail, the document is built above
		panic(err)
	}
	return &File{Rel: traitIndexName, Data: []byte(buf.String())}
}

// buildSitemap creates sitemap.xml covering the rendered pages and the trait
// index. Needs a base URL to build absolute locations from.
func buildSitemap(t *Tree, env *state.LocalEnv, log *zap.Logger) *File {
	if !env.Cfg.Render.Sitemap {
		return nil
	}
	base := strings.TrimSuffix(env.Cfg.Render.SitemapBaseURL, "/")
	if base == "" {
		log.Warn("Sitemap requested without base URL, skipping")
		return nil
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	urlset := doc.CreateElement("urlset")
	urlset.CreateAttr("xmlns", "http://www.sitemaps.org/schemas/sitemap/0.9")

	add := func(rel string) {
		url := urlset.CreateElement("url")
		loc := url.CreateElement("loc")
		loc.SetText(base + "/" + rel)
	}

	for _, pg := range t.Pages {
		if pg.Rendered() {
			add(pg.Rel)
		}
	}
	if t.hasMember(traitIndexName) {
		add(traitIndexName)
	}

	var buf strings.Builder
	if _, err := doc.WriteTo(&buf); err != nil {
		panic(err)
	}
	return &File{Rel: sitemapName, Data: []byte(buf.String())}
}
