// fragdump inspects fragment index databases recorded by render runs.
//
// Input can be either a standalone index database or a bundle (ZIP) archive
// containing one, usually at .impdex/index.db. The database is opened in
// memory, the inspected file is never modified.
package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"impdex/cmd/debug/internal/dumputil"
	"impdex/common"
	"impdex/fragment"
	"impdex/index"
)

var (
	sqliteSig = []byte("SQLite format 3\x00")
	zipSig    = []byte("PK\x03\x04")
)

func main() {
	all := flag.Bool("all", false, "enable all dump flags (-runs, -dump, -scripts)")
	runs := flag.Bool("runs", false, "list recorded runs")
	dump := flag.Bool("dump", false, "dump run fragments into <file>-fragments.txt")
	scripts := flag.Bool("scripts", false, "write canonical fragment scripts into <file>-scripts.zip")
	runID := flag.String("run", "", "dump the specified run `ID` instead of the latest one")
	trait := flag.String("trait", "", "restrict -dump and -scripts to the trait at `PATH`")
	format := flag.String("format", common.DumpFormatText.String(),
		"fragment dump `FORMAT` (supported formats: "+strings.Join(common.DumpFormatNames(), ", ")+")")
	overwrite := flag.Bool("overwrite", false, "overwrite existing output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: fragdump [-all] [-runs] [-dump] [-scripts] [-run ID] [-trait PATH] [-format FORMAT] [-overwrite] <index.db|bundle.zip> [outdir]\n\n")
		fmt.Fprintf(os.Stderr, "Reads fragment index databases recorded by render runs.\n")
		fmt.Fprintf(os.Stderr, "Bundled trees are searched for a database member automatically.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}

	dumpFmt, err := common.ParseDumpFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown dump format %q (supported formats: %s)\n", *format, strings.Join(common.DumpFormatNames(), ", "))
		os.Exit(2)
	}

	if *all {
		*runs = true
		*dump = true
		*scripts = true
	}

	if !*runs && !*dump && !*scripts {
		flag.Usage()
		os.Exit(2)
	}

	defer func(startedAt time.Time) {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", time.Since(startedAt))
	}(time.Now())

	inPath := flag.Arg(0)
	outDir := ""
	if flag.NArg() == 2 {
		outDir = flag.Arg(1)
	}

	b, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", inPath, err)
		os.Exit(1)
	}

	dbData, dbName, err := extractIndex(b, inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract index from %s: %v\n", inPath, err)
		os.Exit(1)
	}

	store, err := index.OpenMemory(dbData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open index %s: %v\n", dbName, err)
		os.Exit(1)
	}
	defer store.Close()

	if *runs {
		if err := listRuns(store); err != nil {
			fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
			os.Exit(1)
		}
	}

	if !*dump && !*scripts {
		return
	}

	run, err := selectRun(store, *runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "select run: %v\n", err)
		os.Exit(1)
	}

	frags, err := store.Fragments(run.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read fragments: %v\n", err)
		os.Exit(1)
	}

	if *trait != "" {
		f := frags.Get(*trait)
		if f == nil {
			fmt.Fprintf(os.Stderr, "trait %s is not recorded in run %s\n", *trait, run.ID)
			os.Exit(1)
		}
		frags = fragment.NewList()
		frags.Merge(f)
	}

	if *dump {
		var (
			data   []byte
			suffix string
		)
		if dumpFmt == common.DumpFormatJson {
			suffix = "-fragments.json"
			if data, err = dumpFragmentsJSON(run, frags); err != nil {
				fmt.Fprintf(os.Stderr, "dump: %v\n", err)
				os.Exit(1)
			}
		} else {
			suffix = "-fragments.txt"
			data = dumpFragments(run, frags)
		}
		if err := dumputil.WriteOutput(inPath, outDir, suffix, data, *overwrite); err != nil {
			fmt.Fprintf(os.Stderr, "dump: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d fragment(s), %d entries\n", frags.Len(), countEntries(frags))
	}

	if *scripts {
		members := make([]dumputil.ZipMember, 0, frags.Len())
		for _, f := range frags.All() {
			members = append(members, dumputil.ZipMember{
				Name: fragment.ScriptPath(f.TraitPath),
				Data: fragment.Encode(f.Mapping),
			})
		}
		if err := dumputil.WriteZip(inPath, outDir, "-scripts.zip", members, *overwrite); err != nil {
			fmt.Fprintf(os.Stderr, "dump scripts: %v\n", err)
			os.Exit(1)
		}
	}
}

func listRuns(store *index.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, r := range runs {
		frags, err := store.Fragments(r.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  fragments=%d  root=%s\n", r.ID, r.Stamp.Format(time.RFC3339), frags.Len(), r.Root)
	}
	return nil
}

// selectRun picks the run to dump, the latest one unless an id was requested.
func selectRun(store *index.Store, id string) (index.Run, error) {
	if id == "" {
		return store.LastRun()
	}
	runs, err := store.Runs()
	if err != nil {
		return index.Run{}, err
	}
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
	}
	return index.Run{}, fmt.Errorf("run %s is not recorded", id)
}

func dumpFragments(run index.Run, frags *fragment.List) []byte {
	tw := dumputil.NewTreeWriter()
	tw.Line(0, "run: %s", run.ID)
	tw.Line(0, "stamp: %s", run.Stamp.Format(time.RFC3339))
	tw.Line(0, "root: %s", run.Root)
	tw.Line(0, "fragments: %d", frags.Len())
	for _, f := range frags.All() {
		tw.Line(0, "")
		tw.Line(0, "%s", f.TraitPath)
		for _, pkg := range f.Mapping.Packages() {
			tw.Line(1, "%s (%d)", pkg, len(f.Mapping[pkg]))
			for _, e := range f.Mapping[pkg] {
				tw.Quoted(2, "entry", string(e))
			}
		}
	}
	return []byte(tw.String())
}

func dumpFragmentsJSON(run index.Run, frags *fragment.List) ([]byte, error) {
	type fragmentDump struct {
		TraitPath string           `json:"trait_path"`
		Mapping   fragment.Mapping `json:"mapping"`
	}
	out := struct {
		Run       string         `json:"run"`
		Stamp     time.Time      `json:"stamp"`
		Root      string         `json:"root"`
		Fragments []fragmentDump `json:"fragments"`
	}{
		Run:       run.ID,
		Stamp:     run.Stamp,
		Root:      run.Root,
		Fragments: make([]fragmentDump, 0, frags.Len()),
	}
	for _, f := range frags.All() {
		out.Fragments = append(out.Fragments, fragmentDump{TraitPath: f.TraitPath, Mapping: f.Mapping})
	}
	return json.MarshalIndent(out, "", "  ")
}

func countEntries(frags *fragment.List) int {
	n := 0
	for _, f := range frags.All() {
		n += f.Mapping.Count()
	}
	return n
}

// extractIndex pulls the database image out of the input. Bundle archives are
// searched for a database member, standalone inputs must be SQLite databases.
func extractIndex(data []byte, name string) ([]byte, string, error) {
	if len(data) < len(zipSig) {
		return nil, "", fmt.Errorf("file too small")
	}

	if bytes.HasPrefix(data, zipSig) {
		r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, "", fmt.Errorf("open ZIP: %w", err)
		}

		var entry *zip.File
		for _, f := range r.File {
			if strings.EqualFold(filepath.Ext(f.Name), ".db") {
				entry = f
				break
			}
		}
		if entry == nil {
			return nil, "", fmt.Errorf("no index database entry found in ZIP archive %s", name)
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, "", fmt.Errorf("open %s in ZIP: %w", entry.Name, err)
		}
		defer rc.Close()

		buf, err := io.ReadAll(rc)
		if err != nil {
			return nil, "", fmt.Errorf("read %s from ZIP: %w", entry.Name, err)
		}
		return buf, entry.Name, nil
	}

	// Standalone input must start with the SQLite signature.
	if !bytes.HasPrefix(data, sqliteSig) {
		return nil, "", fmt.Errorf("file does not start with SQLite or ZIP signature")
	}
	return data, filepath.Base(name), nil
}
