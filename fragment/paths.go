package fragment

import (
	"fmt"
	"path"
	"strings"
)

// ScriptDir is the tree subdirectory holding implementor fragment scripts.
const ScriptDir = "implementors"

const (
	scriptExt       = ".js"
	pageExt         = ".html"
	traitLeafPrefix = "trait."
)

// ValidTraitPath checks a trait path: slash separated, clean, non-empty
// segments, leaf of the form "trait.<Name>".
func ValidTraitPath(traitPath string) error {
	if traitPath == "" {
		return fmt.Errorf("trait path is empty")
	}
	if strings.Contains(traitPath, "\\") {
		return fmt.Errorf("trait path %q must use forward slashes", traitPath)
	}
	if path.Clean(traitPath) != traitPath || strings.HasPrefix(traitPath, "/") || strings.HasPrefix(traitPath, "..") {
		return fmt.Errorf("trait path %q is not a clean relative path", traitPath)
	}
	leaf := path.Base(traitPath)
	if !strings.HasPrefix(leaf, traitLeafPrefix) || len(leaf) == len(traitLeafPrefix) {
		return fmt.Errorf("trait path %q must end in %q followed by the trait name", traitPath, traitLeafPrefix)
	}
	return nil
}

// ScriptPath returns the tree-relative fragment script path for a trait.
func ScriptPath(traitPath string) string {
	return path.Join(ScriptDir, traitPath) + scriptExt
}

// PagePath returns the tree-relative trait page path for a trait.
func PagePath(traitPath string) string {
	return traitPath + pageExt
}

// IsScriptPath reports whether a tree-relative slash path names a fragment
// script.
func IsScriptPath(p string) bool {
	_, ok := TraitPathFromScript(p)
	return ok
}

// TraitPathFromScript derives the trait path from a fragment script path.
func TraitPathFromScript(p string) (string, bool) {
	rest, ok := strings.CutPrefix(p, ScriptDir+"/")
	if !ok {
		return "", false
	}
	rest, ok = strings.CutSuffix(rest, scriptExt)
	if !ok {
		return "", false
	}
	if ValidTraitPath(rest) != nil {
		return "", false
	}
	return rest, true
}

// IsTraitPagePath reports whether a tree-relative slash path names a trait
// page.
func IsTraitPagePath(p string) bool {
	_, ok := TraitPathFromPage(p)
	return ok
}

// TraitPathFromPage derives the trait path from a trait page path.
func TraitPathFromPage(p string) (string, bool) {
	if strings.HasPrefix(p, ScriptDir+"/") {
		return "", false
	}
	rest, ok := strings.CutSuffix(p, pageExt)
	if !ok {
		return "", false
	}
	if ValidTraitPath(rest) != nil {
		return "", false
	}
	return rest, true
}
