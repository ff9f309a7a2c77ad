// Package misc provides program identification used in logs, reports and
// generated artifacts.
package misc

import (
	"runtime/debug"
	"sync"
)

const appName = "impdex"

// Set at build time via -ldflags "-X impdex/misc.version=... -X impdex/misc.gitHash=...".
var (
	version string
	gitHash string
)

var buildInfo = sync.OnceValue(func() *debug.BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return bi
})

// GetAppName returns program name.
func GetAppName() string {
	return appName
}

// GetVersion returns program version, preferring the one stamped at link time.
func GetVersion() string {
	if len(version) > 0 {
		return version
	}
	if bi := buildInfo(); bi != nil && len(bi.Main.Version) > 0 {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns VCS revision the program was built from.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if bi := buildInfo(); bi != nil {
		rev, dirty := "unknown", false
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
		if dirty {
			rev += "*"
		}
		return rev
	}
	return "unknown"
}
