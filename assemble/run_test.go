package assemble

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"impdex/common"
	"impdex/config"
	"impdex/fragment"
	"impdex/index"
)

// writeSourceTree lays down a minimal documentation tree: one trait page fed
// by one fragment script plus the usual generator files around them.
func writeSourceTree(t *testing.T, root string) {
	t.Helper()
	m := fragment.Mapping{
		"alpha": {fragment.Entry(`<section class="impl"><a href="#impl-Send">impl Send for Beam</a></section>`)},
		"beta":  {fragment.Entry(`<code>impl Send for Pipe</code>`)},
	}
	writeTreeFile(t, root, "core/trait.Send.html", pageMarkup("../implementors/core/trait.Send.js", `<div id="implementors-list"></div>`))
	writeTreeFile(t, root, "implementors/core/trait.Send.js", fragment.Encode(m))
	writeTreeFile(t, root, "index.html", []byte(`<html><body>package index</body></html>`))
	writeTreeFile(t, root, "static/rustdoc.css", []byte(`body{}`))
}

func readOutput(t *testing.T, dst, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("Failed to read output %s: %v", rel, err)
	}
	return string(data)
}

func TestProcessTreeToDirectory(t *testing.T) {
	ctx, env := testEnv(t)
	env.Cfg.Index.Enable = true

	root := t.TempDir()
	writeSourceTree(t, root)
	dst := t.TempDir()

	if err := processTree(ctx, root, root, dst, common.OutputFmtTree, env.Log); err != nil {
		t.Fatalf("processTree() error = %v", err)
	}

	page := readOutput(t, dst, "core/trait.Send.html")
	if !strings.Contains(page, "impl Send for Beam") || !strings.Contains(page, "impl Send for Pipe") {
		t.Error("Rendered page is missing implementor entries")
	}
	if !strings.Contains(page, `name="description"`) {
		t.Error("Rendered page is missing meta description")
	}
	if !strings.Contains(page, `href="../`+stylesheetName+`"`) {
		t.Error("Rendered page is not linked to the stylesheet")
	}

	for _, rel := range []string{
		stylesheetName,
		faviconRasterName,
		config.IconKindLogo.FileName(),
		config.IconKindFavicon.FileName(),
		"implementors/core/trait.Send.js",
		"static/rustdoc.css",
	} {
		if _, err := os.Stat(filepath.Join(dst, filepath.FromSlash(rel))); err != nil {
			t.Errorf("Output member %s missing: %v", rel, err)
		}
	}

	if got := readOutput(t, dst, "index.html"); got != `<html><body>package index</body></html>` {
		t.Error("Passthrough file content does not match source")
	}

	traitIndex := readOutput(t, dst, traitIndexName)
	if !strings.Contains(traitIndex, "core/trait.Send") {
		t.Error("Trait index does not list the trait")
	}
	if !strings.Contains(traitIndex, "2 packages, 2 entries") {
		t.Error("Trait index does not carry fragment counts")
	}

	db, err := index.Open(filepath.Join(dst, ".impdex", "index.db"))
	if err != nil {
		t.Fatalf("index.Open() error = %v", err)
	}
	defer db.Close()
	run, err := db.LastRun()
	if err != nil {
		t.Fatalf("LastRun() error = %v", err)
	}
	if run.Root != root {
		t.Errorf("Run.Root = %q, want %q", run.Root, root)
	}
	frags, err := db.Fragments(run.ID)
	if err != nil {
		t.Fatalf("Fragments() error = %v", err)
	}
	if f := frags.Get("core/trait.Send"); f == nil {
		t.Error("Fragment index is missing core/trait.Send")
	} else if f.Mapping.Count() != 2 {
		t.Errorf("Indexed fragment entry count = %d, want 2", f.Mapping.Count())
	}
}

func TestProcessTreeInPlaceRequiresOverwrite(t *testing.T) {
	ctx, env := testEnv(t)

	root := t.TempDir()
	writeSourceTree(t, root)

	err := processTree(ctx, root, root, root, common.OutputFmtTree, env.Log)
	if err == nil {
		t.Fatal("processTree() error = nil, want overwrite refusal")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("processTree() error = %v, want overwrite refusal", err)
	}
}

func TestProcessTreeInPlaceOverwrite(t *testing.T) {
	ctx, env := testEnv(t)
	env.Overwrite = true

	root := t.TempDir()
	writeSourceTree(t, root)

	// age the untouched file so a rewrite would show up in its timestamp
	old := time.Now().Add(-time.Hour)
	indexPath := filepath.Join(root, "index.html")
	if err := os.Chtimes(indexPath, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if err := processTree(ctx, root, root, root, common.OutputFmtTree, env.Log); err != nil {
		t.Fatalf("processTree() error = %v", err)
	}

	page := readOutput(t, root, "core/trait.Send.html")
	if !strings.Contains(page, "impl Send for Beam") {
		t.Error("In-place page was not rewritten with implementor entries")
	}
	if _, err := os.Stat(filepath.Join(root, stylesheetName)); err != nil {
		t.Errorf("Stylesheet missing from tree root: %v", err)
	}

	fi, err := os.Stat(indexPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if fi.ModTime().After(old.Add(time.Minute)) {
		t.Error("Untouched file was rewritten in place")
	}
}

func TestProcessTreeToBundle(t *testing.T) {
	ctx, env := testEnv(t)
	env.Cfg.Index.Enable = true

	root := t.TempDir()
	writeSourceTree(t, root)
	out := filepath.Join(t.TempDir(), "docs.zip")

	if err := processTree(ctx, root, root, out, common.OutputFmtBundle, env.Log); err != nil {
		t.Fatalf("processTree() error = %v", err)
	}

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer zr.Close()

	members := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open(%s) error = %v", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("ReadFrom(%s) error = %v", f.Name, err)
		}
		rc.Close()
		members[f.Name] = buf.Bytes()
	}

	for _, rel := range []string{
		"core/trait.Send.html",
		"index.html",
		stylesheetName,
		faviconRasterName,
		traitIndexName,
		".impdex/index.db",
	} {
		if _, ok := members[rel]; !ok {
			t.Errorf("Bundle member %s missing", rel)
		}
	}
	if !bytes.Contains(members["core/trait.Send.html"], []byte("impl Send for Beam")) {
		t.Error("Bundled page is missing implementor entries")
	}

	db, err := index.OpenMemory(members[".impdex/index.db"])
	if err != nil {
		t.Fatalf("index.OpenMemory() error = %v", err)
	}
	defer db.Close()
	run, err := db.LastRun()
	if err != nil {
		t.Fatalf("LastRun() error = %v", err)
	}
	frags, err := db.Fragments(run.ID)
	if err != nil {
		t.Fatalf("Fragments() error = %v", err)
	}
	if frags.Get("core/trait.Send") == nil {
		t.Error("Bundled fragment index is missing core/trait.Send")
	}
}

func TestProcessBundleSource(t *testing.T) {
	ctx, env := testEnv(t)

	// bundles commonly nest everything under a single top level directory
	src := filepath.Join(t.TempDir(), "docs.zip")
	f, err := os.Create(src)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	zw := zip.NewWriter(f)
	m := fragment.Mapping{"alpha": {fragment.Entry(`<code>impl Send for Beam</code>`)}}
	entries := []struct {
		rel  string
		data []byte
	}{
		{"doc/core/trait.Send.html", pageMarkup("../implementors/core/trait.Send.js", `<div id="implementors-list"></div>`)},
		{"doc/implementors/core/trait.Send.js", fragment.Encode(m)},
	}
	for _, e := range entries {
		w, err := zw.Create(e.rel)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", e.rel, err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("Write(%s) error = %v", e.rel, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	dst := t.TempDir()
	if err := process(ctx, src, dst, common.OutputFmtTree, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	page := readOutput(t, dst, "core/trait.Send.html")
	if !strings.Contains(page, "impl Send for Beam") {
		t.Error("Page extracted from bundle was not rendered")
	}
	if _, err := os.Stat(filepath.Join(dst, "implementors", "core", "trait.Send.js")); err != nil {
		t.Errorf("Script missing from output tree: %v", err)
	}
}

func TestProcessMissingSource(t *testing.T) {
	ctx, env := testEnv(t)

	err := process(ctx, filepath.Join(t.TempDir(), "nope"), t.TempDir(), common.OutputFmtTree, env.Log)
	if err == nil || !strings.Contains(err.Error(), "was not found") {
		t.Errorf("process() error = %v, want missing source", err)
	}
}

func TestProcessUnrecognizedInput(t *testing.T) {
	ctx, env := testEnv(t)

	root := t.TempDir()
	writeTreeFile(t, root, "notes.txt", []byte("not a tree"))

	err := process(ctx, filepath.Join(root, "notes.txt"), t.TempDir(), common.OutputFmtTree, env.Log)
	if err == nil || !strings.Contains(err.Error(), "was not recognized") {
		t.Errorf("process() error = %v, want unrecognized input", err)
	}
}

func TestPreviewBadScript(t *testing.T) {
	ctx, env := testEnv(t)

	root := t.TempDir()
	writeTreeFile(t, root, "broken.js", []byte("window.alert(1);"))

	err := preview(ctx, filepath.Join(root, "broken.js"), env.Log)
	if err == nil || !strings.Contains(err.Error(), "unable to parse fragment script") {
		t.Errorf("preview() error = %v, want parse failure", err)
	}
}

func TestPrepareTarget(t *testing.T) {
	t.Run("creates missing directories", func(t *testing.T) {
		_, env := testEnv(t)
		target := filepath.Join(t.TempDir(), "a", "b", "out.html")

		if err := prepareTarget(target, env, testLogger(t)); err != nil {
			t.Fatalf("prepareTarget() error = %v", err)
		}
		if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
			t.Errorf("Target directory was not created: %v", err)
		}
	})

	t.Run("refuses existing target", func(t *testing.T) {
		_, env := testEnv(t)
		target := filepath.Join(t.TempDir(), "out.html")
		if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		err := prepareTarget(target, env, testLogger(t))
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("prepareTarget() error = %v, want refusal", err)
		}
	})

	t.Run("removes existing target with overwrite", func(t *testing.T) {
		_, env := testEnv(t)
		env.Overwrite = true
		target := filepath.Join(t.TempDir(), "out.html")
		if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := prepareTarget(target, env, testLogger(t)); err != nil {
			t.Fatalf("prepareTarget() error = %v", err)
		}
		if _, err := os.Stat(target); !os.IsNotExist(err) {
			t.Error("Existing target was not removed")
		}
	})
}
