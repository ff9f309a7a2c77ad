package config

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestReportClose(t *testing.T) {
	reportFile, err := os.CreateTemp(t.TempDir(), "report-*.zip")
	if err != nil {
		t.Fatalf("failed to create report file: %v", err)
	}

	r := &Report{
		entries: make(map[string]entry),
		file:    reportFile,
	}

	// Stored directories are working directories the report owns.
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir1, "debug.txt"), []byte("dumped state"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	// A stored regular file must survive Close.
	kept := filepath.Join(t.TempDir(), "render.log")
	if err := os.WriteFile(kept, []byte("log line\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	r.Store("workdir-1", dir1)
	r.Store("workdir-2", dir2)
	r.Store("result-file", kept)
	r.StoreData("configurationecho", []byte("document:\n  title: docs\n"))

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	for _, dir := range []string{dir1, dir2} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("stored directory %s was not removed", dir)
		}
	}
	if _, err := os.Stat(kept); err != nil {
		t.Errorf("stored file should stay in place: %v", err)
	}

	zr, err := zip.OpenReader(reportFile.Name())
	if err != nil {
		t.Fatalf("report does not open as zip: %v", err)
	}
	defer zr.Close()
	got := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		got[f.Name] = true
	}
	for _, want := range []string{"MANIFEST", "configurationecho", "result-file", "workdir-1/debug.txt"} {
		if !got[want] {
			t.Errorf("archive is missing %s", want)
		}
	}
}

func TestReportCloseNil(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report: %v", err)
	}
	if r := (&Report{entries: make(map[string]entry)}); r.Close() != nil {
		t.Error("Close without a file should not error")
	}
}
