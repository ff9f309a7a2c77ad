package assemble

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"impdex/common"
	"impdex/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context  string
	Title    string
	Language string
	Date     string
	Format   string
	Source   string
	Traits   int
	Packages int
}

func buildPackageCount(t *Tree) int {
	seen := make(map[string]struct{})
	for _, f := range t.Frags.All() {
		for _, pkg := range f.Mapping.Packages() {
			seen[pkg] = struct{}{}
		}
	}
	return len(seen)
}

func expandTemplate(t *Tree, src string, name config.TemplateFieldName, field string, format common.OutputFmt, cfg *config.Config) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:  string(name),
		Title:    cfg.Document.Title,
		Language: cfg.Document.Language,
		Date:     time.Now().Format("2006-01-02"),
		Format:   format.String(),
		Source:   strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Traits:   t.Frags.Len(),
		Packages: buildPackageCount(t),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
