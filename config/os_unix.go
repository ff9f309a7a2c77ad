//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Separators cannot appear inside a single path element.
const badNameRunes = string(os.PathSeparator) + string(os.PathListSeparator)

// CleanFileName makes a name derived from document metadata usable as a
// file name. Leading dots go too, the result must not be a hidden file.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if strings.ContainsRune(badNameRunes, sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimLeft(out, ".")
	if len(out) == 0 {
		out = "_bad_file_name_"
	}
	return out
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
