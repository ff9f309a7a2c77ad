// Package assemble renders implementor fragments into documentation trees.
// One pass over the tree publishes every fragment script it finds and feeds
// every trait page that asked for one, then the tree is written back out as
// a directory or a bundled archive.
package assemble

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/ianaindex"

	"impdex/archive"
	"impdex/common"
	"impdex/fragment"
	"impdex/index"
	"impdex/state"
	"impdex/text"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = env.Cfg.Output.Destination
	}
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	format := env.Cfg.Output.Format
	if to := cmd.String("to"); len(to) > 0 {
		f, perr := common.ParseOutputFmt(to)
		if perr != nil {
			log.Warn("Unknown output format requested, using configured one", zap.Error(perr), zap.Stringer("format", format))
		} else {
			format = f
		}
	}

	if env.Cfg.Render.StylesheetPath != "" {
		data, err := os.ReadFile(env.Cfg.Render.StylesheetPath)
		if err != nil {
			return fmt.Errorf("unable to read style css from %q: %w", env.Cfg.Render.StylesheetPath, err)
		}
		env.DefaultStyle = data
	}

	env.Overwrite = cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Rendering starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Rendering completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, format, log)
}

// process handles the core assembly logic independently of CLI framework. It
// determines the input type (tree directory, bundled tree, or single fragment
// script) and processes accordingly.
func process(ctx context.Context, src, dst string, format common.OutputFmt, log *zap.Logger) error {
	fi, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input source was not found (%s)", src)
		}
		return err
	}

	if fi.Mode().IsDir() {
		return processTree(ctx, src, src, dst, format, log)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}

	bundle, err := isArchiveFile(src)
	if err != nil {
		// checking format - but cannot open target file
		return fmt.Errorf("unable to check archive type: %w", err)
	}
	if bundle {
		if err := processBundle(ctx, src, dst, format, log); err != nil {
			return fmt.Errorf("unable to process bundle: %w", err)
		}
		return nil
	}

	if isScriptFile(src) {
		return preview(ctx, src, log)
	}
	return fmt.Errorf("input was not recognized as documentation tree or bundle (%s)", src)
}

// processBundle unpacks a bundled tree into scratch space and processes it
// like a directory source.
func processBundle(ctx context.Context, src, dst string, format common.OutputFmt, log *zap.Logger) error {
	wrk, err := os.MkdirTemp("", "impdex-")
	if err != nil {
		return fmt.Errorf("unable to create scratch directory: %w", err)
	}
	defer os.RemoveAll(wrk)

	count, err := extractBundle(ctx, src, wrk, log)
	if err != nil {
		return err
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("archive", src))
		return nil
	}
	return processTree(ctx, bundleRoot(wrk), src, dst, format, log)
}

// extractBundle unpacks archive members into dir, decoding entry names from
// the forced code page when one is configured.
func extractBundle(ctx context.Context, src, dir string, log *zap.Logger) (count int, err error) {
	cp := state.EnvFromContext(ctx).CodePage

	err = archive.Walk(src, "", func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name, derr := archive.DecodedName(f, cp)
		if derr != nil {
			n, _ := ianaindex.IANA.Name(cp)
			log.Warn("Unable to convert archive name from specified encoding",
				zap.String("charset", n), zap.String("path", f.FileHeader.Name), zap.Error(derr))
		}
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			log.Warn("Skipping unsafe archive entry", zap.String("path", name))
			return nil
		}

		target := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		r, oerr := f.Open()
		if oerr != nil {
			log.Error("Unable to read file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(oerr))
			return nil
		}
		defer r.Close()

		out, cerr := os.Create(target)
		if cerr != nil {
			return cerr
		}
		defer out.Close()

		if _, err := io.Copy(out, r); err != nil {
			return fmt.Errorf("unable to extract file (%s): %w", f.FileHeader.Name, err)
		}
		if err := out.Close(); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// bundleRoot descends into the single top level directory many bundles carry
// so tree relative paths line up with the fragment layout.
func bundleRoot(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}

// processTree runs the full pipeline over one scanned tree: hand-off,
// descriptions, styling, index pages, fragment index, output.
func processTree(ctx context.Context, root, src, dst string, format common.OutputFmt, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	defer func(start time.Time) {
		// NOTE: some of golang graphic processing libraries are not mature
		// enough, we do not want a bad asset to take the whole run down.
		if r := recover(); r != nil {
			log.Error("Assembly ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("assembly panic: %v", r)
		}
	}(time.Now())

	t, err := scanTree(ctx, root, env.Cfg.Render.InjectMode, log)
	if err != nil {
		return err
	}
	if len(t.Pages) == 0 && t.Frags.Len() == 0 {
		log.Debug("Nothing to process", zap.String("dir", root))
		return nil
	}
	t.accounting(log)

	rendered := 0
	for _, pg := range t.Pages {
		if pg.Rendered() {
			rendered++
		}
	}

	if env.Cfg.Render.Descriptions.Enable {
		splitter := text.NewSplitter(log)
		for _, pg := range t.Pages {
			if !pg.Rendered() {
				continue
			}
			if ensureMetaDescription(pg.doc, splitter, env.Cfg.Render.Descriptions.MaxLength) {
				pg.changed = true
			}
		}
	}

	installStylesheet(t, env, log)
	installIcons(t, env, log)
	ensureFavicon(t, env, log)

	if f := buildTraitIndex(t, env); f != nil {
		t.Files = append(t.Files, f)
	}
	if f := buildSitemap(t, env, log); f != nil {
		t.Files = append(t.Files, f)
	}

	if err := recordIndex(ctx, t, src, dst, format, log); err != nil {
		return err
	}

	log.Info("Assembly totals",
		zap.Int("traits", t.Frags.Len()),
		zap.Int("pages", len(t.Pages)),
		zap.Int("rendered", rendered),
		zap.Int("unfed_pages", t.UnfedPages),
		zap.Int("unused_mappings", t.UnusedMappings))

	if !format.Bundled() {
		return writeTreeOutput(ctx, t, dst, log)
	}

	optimizeAssets(t, env, log)

	outputName := resolveBundlePath(t, src, dst, env)
	if err := prepareTarget(outputName, env, log); err != nil {
		return err
	}

	wrk, err := os.MkdirTemp("", "impdex-")
	if err != nil {
		return fmt.Errorf("unable to create scratch directory: %w", err)
	}
	defer os.RemoveAll(wrk)

	if err := writeBundle(ctx, t, outputName, wrk, log); err != nil {
		return fmt.Errorf("unable to generate bundle: %w", err)
	}

	// Store assembly result for debugging
	if env.Rpt != nil {
		env.Rpt.Store("result"+filepath.Ext(outputName), outputName)
	}
	return nil
}

// resolveBundlePath decides the bundle file location: an explicit .zip
// destination is used as is, anything else is treated as a directory for the
// configured naming scheme.
func resolveBundlePath(t *Tree, src, dst string, env *state.LocalEnv) string {
	if strings.EqualFold(filepath.Ext(dst), ".zip") {
		return dst
	}
	return buildBundlePath(t, src, dst, env)
}

// recordIndex persists scanned fragments into the fragment index database.
// For bundled output the database becomes a bundle member, otherwise it is
// written relative to the destination tree.
func recordIndex(ctx context.Context, t *Tree, src, dst string, format common.OutputFmt, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)
	if !env.Cfg.Index.Enable {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dest := env.Cfg.Index.Destination
	if dest == "" {
		dest = filepath.Join(".impdex", "index.db")
	}

	if format.Bundled() {
		rel := path.Clean(filepath.ToSlash(dest))
		if path.IsAbs(rel) || rel == "." || strings.HasPrefix(rel, "../") {
			log.Warn("Index destination does not fit inside a bundle, using default", zap.String("destination", dest))
			rel = ".impdex/index.db"
		}

		wrk, err := os.MkdirTemp("", "impdex-")
		if err != nil {
			return fmt.Errorf("unable to create scratch directory: %w", err)
		}
		defer os.RemoveAll(wrk)

		dbPath := filepath.Join(wrk, "index.db")
		if err := writeIndexDB(t, src, dbPath, log); err != nil {
			return err
		}
		data, err := os.ReadFile(dbPath)
		if err != nil {
			return err
		}
		t.Files = append(t.Files, &File{Rel: rel, Data: data})
		return nil
	}

	dbPath := dest
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dst, dbPath)
	}
	return writeIndexDB(t, src, dbPath, log)
}

func writeIndexDB(t *Tree, src, dbPath string, log *zap.Logger) error {
	db, err := index.Open(dbPath)
	if err != nil {
		return fmt.Errorf("unable to open fragment index (%s): %w", dbPath, err)
	}
	defer db.Close()

	runID, err := db.BeginRun(src)
	if err != nil {
		return err
	}
	for _, f := range t.Frags.All() {
		if err := db.PutFragment(runID, f); err != nil {
			return err
		}
	}
	log.Debug("Fragment index recorded",
		zap.String("path", dbPath), zap.String("run", runID), zap.Int("fragments", t.Frags.Len()))
	return nil
}

// writeTreeOutput writes the processed tree to the destination directory.
// Members whose target is the file they came from and which the run never
// touched are skipped, processing a tree in place only rewrites what changed.
func writeTreeOutput(ctx context.Context, t *Tree, dst string, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)

	count := 0
	defer func() {
		if err == nil {
			log.Debug("Tree written", zap.String("destination", dst), zap.Int("files", count))
		}
	}()

	for _, f := range t.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(f.Rel))
		if f.Data == nil && target == f.Src {
			continue
		}
		if err := prepareTarget(target, env, log); err != nil {
			return err
		}
		if f.Data != nil {
			if err := os.WriteFile(target, f.Data, 0644); err != nil {
				return err
			}
		} else if err := copyFile(f.Src, target); err != nil {
			return err
		}
		count++
	}

	for _, pg := range t.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(pg.Rel))
		if !pg.changed && target == pg.Src {
			continue
		}
		data, serr := pg.serialize()
		if serr != nil {
			return serr
		}
		if err := prepareTarget(target, env, log); err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return err
		}
		count++
	}
	return nil
}

// prepareTarget applies the overwrite policy and makes sure the target
// directory exists.
func prepareTarget(outputName string, env *state.LocalEnv, log *zap.Logger) error {
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

// preview renders a single fragment script as the markup it would produce in
// a page, useful for eyeballing fragment content without a tree.
func preview(ctx context.Context, src string, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	m, err := fragment.ParseScript(data)
	if err != nil {
		return fmt.Errorf("unable to parse fragment script (%s): %w", src, err)
	}
	log.Debug("Previewing fragment", zap.String("file", src), zap.Int("packages", len(m)), zap.Int("entries", m.Count()))

	doc, err := html.Parse(strings.NewReader("<html><head></head><body></body></html>"))
	if err != nil {
		return err
	}
	if err := injectImplementors(doc, m); err != nil {
		return err
	}
	sect := findByID(doc, insertionPointID)
	if sect == nil {
		return errors.New("unable to build preview")
	}
	if err := html.Render(os.Stdout, sect); err != nil {
		return err
	}
	_, err = os.Stdout.WriteString("\n")
	return err
}
