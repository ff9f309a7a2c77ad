package assemble

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"impdex/common"
	"impdex/config"
	"impdex/state"
)

// buildBundlePath returns constructed bundle file path/name based on various
// input parameters. It uses either default naming scheme or user-defined
// template. It cleans up the path and if requested slugifies it
func buildBundlePath(t *Tree, src, outDir string, env *state.LocalEnv) string {
	defaultFile := buildDefaultBundleName(src, env)

	if env.Cfg.Output.BundleNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName := expandBundleNameTemplate(t, src, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}

	return assemblePathWithSubdirs(outDir, expandedName, env)
}

func buildDefaultBundleName(src string, env *state.LocalEnv) string {
	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if baseName == "" || baseName == "." || baseName == string(filepath.Separator) {
		// source tree sits at filesystem root, nothing usable in the path
		baseName = env.Cfg.Document.Title
	}
	if env.Cfg.Output.SlugNames {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(baseName) + common.OutputFmtBundle.Ext()
}

func expandBundleNameTemplate(t *Tree, src string, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(t, src, config.BundleNameTemplateFieldName, env.Cfg.Output.BundleNameTemplate, common.OutputFmtBundle, env.Cfg)
	if err != nil {
		env.Log.Warn("Unable to prepare bundle filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(expandedName)
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and slugifying segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, env *state.LocalEnv) string {
	outExt := common.OutputFmtBundle.Ext()
	pathSegments := splitAndCleanPath(expandedName)

	if len(pathSegments) == 0 {
		return outDir
	}

	fileName := cleanPathSegment(pathSegments[len(pathSegments)-1], env) + outExt
	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)

	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}

	dirParts = append(dirParts, fileName)
	return filepath.Join(dirParts...)
}

func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
		path = head
	}

	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Output.SlugNames {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
