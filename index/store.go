// Package index records parsed implementor fragments in a SQLite database so
// render runs can be inspected and compared after the fact. The database is a
// plain file next to the tree output, or part of a bundle, and fragdump reads
// either form.
package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"impdex/fragment"
)

// ErrNoRuns is returned by LastRun on a database without recorded runs.
var ErrNoRuns = errors.New("no recorded runs")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id    TEXT PRIMARY KEY,
	stamp TEXT NOT NULL,
	root  TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS fragments (
	run_id     TEXT NOT NULL,
	trait_path TEXT NOT NULL,
	package    TEXT NOT NULL,
	ord        INTEGER NOT NULL,
	entry      TEXT NOT NULL,
	PRIMARY KEY (run_id, trait_path, package, ord)
) WITHOUT ROWID;
`

// Run identifies one recorded render pass.
type Run struct {
	ID    string
	Stamp time.Time
	Root  string
}

// Store keeps runs and their fragments. Not safe for concurrent use, the
// render walk feeds it from a single goroutine.
type Store struct {
	conn *sqlite.Conn
}

// Open opens (creating when necessary) the index database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}
	// No WAL, the database file must stay a single complete image so it can
	// be copied into a bundle after Close.
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return prepare(conn)
}

// OpenMemory opens an in-memory index from a serialized database image, the
// form fragdump gets when reading a bundle. Empty data starts a fresh
// in-memory database.
func OpenMemory(data []byte) (*Store, error) {
	conn, err := sqlite.OpenConn(":memory:", sqlite.OpenReadWrite, sqlite.OpenMemory)
	if err != nil {
		return nil, fmt.Errorf("open in-memory index: %w", err)
	}
	if len(data) > 0 {
		if err := conn.Deserialize("main", data); err != nil {
			conn.Close()
			return nil, fmt.Errorf("deserialize index image: %w", err)
		}
	}
	return prepare(conn)
}

func prepare(conn *sqlite.Conn) (*Store, error) {
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prepare index schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close releases the database connection. Safe on a nil store.
func (s *Store) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// BeginRun records a new run for the tree rooted at root and returns its id.
// Run ids are UUIDv7, so id order is creation order.
func (s *Store) BeginRun(root string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	err = sqlitex.Execute(s.conn, `INSERT INTO runs (id, stamp, root) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{id.String(), time.Now().UTC().Format(time.RFC3339Nano), root}})
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id.String(), nil
}

// PutFragment records a fragment under the given run, replacing any earlier
// record for the same trait path within that run.
//
// A package with an empty entry sequence is stored as a single row with ord
// -1, and a fragment with an empty mapping as a single row with an empty
// package id. Both are states a parsed script can legitimately carry and
// both survive the trip through Fragments.
func (s *Store) PutFragment(runID string, f *fragment.Fragment) (err error) {
	if f == nil {
		return errors.New("nil fragment")
	}
	if err = fragment.ValidTraitPath(f.TraitPath); err != nil {
		return err
	}

	defer sqlitex.Save(s.conn)(&err)

	err = sqlitex.Execute(s.conn, `DELETE FROM fragments WHERE run_id = ? AND trait_path = ?`,
		&sqlitex.ExecOptions{Args: []any{runID, f.TraitPath}})
	if err != nil {
		return fmt.Errorf("clear fragment %s: %w", f.TraitPath, err)
	}

	const insert = `INSERT INTO fragments (run_id, trait_path, package, ord, entry) VALUES (?, ?, ?, ?, ?)`

	put := func(pkg string, ord int, entry string) error {
		return sqlitex.Execute(s.conn, insert,
			&sqlitex.ExecOptions{Args: []any{runID, f.TraitPath, pkg, ord, entry}})
	}

	if len(f.Mapping) == 0 {
		if err = put("", -1, ""); err != nil {
			return fmt.Errorf("record fragment %s: %w", f.TraitPath, err)
		}
		return nil
	}
	for _, pkg := range f.Mapping.Packages() {
		entries := f.Mapping[pkg]
		if len(entries) == 0 {
			if err = put(pkg, -1, ""); err != nil {
				return fmt.Errorf("record fragment %s: %w", f.TraitPath, err)
			}
			continue
		}
		for i, entry := range entries {
			if err = put(pkg, i, string(entry)); err != nil {
				return fmt.Errorf("record fragment %s: %w", f.TraitPath, err)
			}
		}
	}
	return nil
}

// Fragments reads back all fragments recorded under a run, ordered by trait
// path. Sources are not persisted, returned fragments carry none.
func (s *Store) Fragments(runID string) (*fragment.List, error) {
	list := fragment.NewList()
	var cur *fragment.Fragment
	err := sqlitex.Execute(s.conn,
		`SELECT trait_path, package, ord, entry FROM fragments WHERE run_id = ? ORDER BY trait_path, package, ord`,
		&sqlitex.ExecOptions{
			Args: []any{runID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				trait := stmt.ColumnText(0)
				if cur == nil || cur.TraitPath != trait {
					cur = &fragment.Fragment{TraitPath: trait, Mapping: fragment.Mapping{}}
					if err := list.Add(cur); err != nil {
						return err
					}
				}
				pkg := stmt.ColumnText(1)
				switch {
				case pkg == "":
					// empty mapping marker, the fragment itself is enough
				case stmt.ColumnInt64(2) < 0:
					cur.Mapping[pkg] = []fragment.Entry{}
				default:
					cur.Mapping[pkg] = append(cur.Mapping[pkg], fragment.Entry(stmt.ColumnText(3)))
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("read fragments for run %s: %w", runID, err)
	}
	return list, nil
}

// Runs returns all recorded runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	var runs []Run
	err := sqlitex.Execute(s.conn, `SELECT id, stamp, root FROM runs ORDER BY id`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			run, err := scanRun(stmt)
			if err != nil {
				return err
			}
			runs = append(runs, run)
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	return runs, nil
}

// LastRun returns the most recent run, or ErrNoRuns on an empty database.
func (s *Store) LastRun() (Run, error) {
	var (
		run   Run
		found bool
	)
	err := sqlitex.Execute(s.conn, `SELECT id, stamp, root FROM runs ORDER BY id DESC LIMIT 1`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			var err error
			run, err = scanRun(stmt)
			found = err == nil
			return err
		}})
	if err != nil {
		return Run{}, fmt.Errorf("read last run: %w", err)
	}
	if !found {
		return Run{}, ErrNoRuns
	}
	return run, nil
}

func scanRun(stmt *sqlite.Stmt) (Run, error) {
	stamp, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(1))
	if err != nil {
		return Run{}, fmt.Errorf("run %s carries unreadable stamp: %w", stmt.ColumnText(0), err)
	}
	return Run{ID: stmt.ColumnText(0), Stamp: stamp, Root: stmt.ColumnText(2)}, nil
}
