package assemble

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// isArchiveFile returns true if file is a zip archive, checking both
// extension and content.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// filetype matchers never need more than the first 262 bytes
	head := make([]byte, 262)
	n, err := f.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

// isScriptFile returns true if path looks like a single fragment script
// rather than a documentation tree.
func isScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".js")
}
