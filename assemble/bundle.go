package assemble

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"
)

// member is one output entry of the tree, fully serialized.
type member struct {
	rel  string
	data []byte
}

// members returns every tree entry with its final content, ordered by path.
// Pages the renderer touched serialize from their parsed document, untouched
// pages and passthrough files keep their original bytes.
func (t *Tree) members() ([]member, error) {
	out := make([]member, 0, len(t.Files)+len(t.Pages))
	for _, f := range t.Files {
		data := f.Data
		if data == nil {
			var err error
			data, err = os.ReadFile(f.Src)
			if err != nil {
				return nil, fmt.Errorf("unable to read tree member (%s): %w", f.Rel, err)
			}
		}
		out = append(out, member{rel: f.Rel, data: data})
	}
	for _, pg := range t.Pages {
		data, err := pg.serialize()
		if err != nil {
			return nil, err
		}
		out = append(out, member{rel: pg.Rel, data: data})
	}
	slices.SortFunc(out, func(a, b member) int { return strings.Compare(a.rel, b.rel) })
	return out, nil
}

// writeBundle creates the bundled output archive. The archive is written to
// workDir first so a failed run never leaves a partial file at the
// destination.
func writeBundle(ctx context.Context, t *Tree, outputPath, workDir string, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info("Generating bundle", zap.String("output", outputPath))

	_, tmpName := filepath.Split(outputPath)
	tmpName = filepath.Join(workDir, tmpName)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	members, err := t.members()
	if err != nil {
		return err
	}

	f, err := os.Create(tmpName)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeDataToZip(zw, m.rel, m.data); err != nil {
			return fmt.Errorf("unable to write bundle member %s: %w", m.rel, err)
		}
	}

	// make sure buffers are flushed before continuing
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}
	// clean temporary file
	defer os.Remove(tmpName)

	// Some viewers refuse archives with data descriptor entries, always
	// rewrite without them.
	return copyZipWithoutDataDescriptors(tmpName, outputPath)
}

func writeDataToZip(zw *zip.Writer, filename string, data []byte) error {
	w, err := zw.Create(filename)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destinationFile.Close()

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
