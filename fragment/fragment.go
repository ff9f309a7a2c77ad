// Package fragment defines the typed model of implementor fragments and their
// on-disk script representation.
//
// A fragment describes, for one trait, which packages provide implementations
// of it: a mapping from package identifier to an ordered list of rendering
// descriptors. The descriptors are pre-rendered markup produced by an upstream
// documentation generator and are opaque here, they are carried and inserted
// but never interpreted.
package fragment

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Entry is a single implementor rendering descriptor, a pre-rendered piece of
// markup describing one concrete implementation of a trait for one package.
type Entry string

// Mapping relates a package identifier to the ordered sequence of its
// implementor entries for one trait. Key order carries no meaning, entry
// order is rendering order. An empty sequence is valid data, distinct from
// an absent key.
type Mapping map[string][]Entry

// Packages returns mapping keys in natural order.
func (m Mapping) Packages() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

// Count returns the total number of entries across all packages.
func (m Mapping) Count() int {
	n := 0
	for _, entries := range m {
		n += len(entries)
	}
	return n
}

// Clone returns a deep copy of the mapping.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for k, entries := range m {
		out[k] = slices.Clone(entries)
	}
	return out
}

// Equal reports whether both mappings have the same keys with the same entry
// sequences in the same order.
func (m Mapping) Equal(other Mapping) bool {
	if len(m) != len(other) {
		return false
	}
	for k, entries := range m {
		otherEntries, ok := other[k]
		if !ok || !slices.Equal(entries, otherEntries) {
			return false
		}
	}
	return true
}

// Merge copies all keys of other into m, replacing existing keys whole.
// Last write wins, same as plain mapping assignment.
func (m Mapping) Merge(other Mapping) {
	for k, entries := range other {
		m[k] = slices.Clone(entries)
	}
}

// Fragment is one implementor fragment: the implementors mapping of a single
// trait, identified by the trait's slash path (including the "trait.<Name>"
// leaf, without extension).
type Fragment struct {
	TraitPath string
	Mapping   Mapping
	Source    string // where the fragment was read from, empty when built in memory
}

// TraitName returns the bare trait name from the trait path leaf.
func (f *Fragment) TraitName() string {
	leaf := f.TraitPath
	if i := strings.LastIndexByte(leaf, '/'); i >= 0 {
		leaf = leaf[i+1:]
	}
	return strings.TrimPrefix(leaf, traitLeafPrefix)
}

// String returns a debug representation of the fragment.
func (f *Fragment) String() string {
	return fmt.Sprintf("Fragment(%s, packages=%d, entries=%d)", f.TraitPath, len(f.Mapping), f.Mapping.Count())
}

// List holds a collection of fragments indexed by trait path.
type List struct {
	fragments []*Fragment
	byPath    map[string]*Fragment
}

// NewList creates an empty fragment list.
func NewList() *List {
	return &List{
		byPath: make(map[string]*Fragment),
	}
}

// Add adds a fragment to the list.
func (l *List) Add(f *Fragment) error {
	if existing, ok := l.byPath[f.TraitPath]; ok {
		return fmt.Errorf("duplicate fragment %s (existing: %s)", f.TraitPath, existing)
	}
	l.fragments = append(l.fragments, f)
	l.byPath[f.TraitPath] = f
	return nil
}

// Merge adds a fragment or, when its trait is already present, merges the
// mappings key by key (last write wins). It returns the stored fragment.
func (l *List) Merge(f *Fragment) *Fragment {
	existing, ok := l.byPath[f.TraitPath]
	if !ok {
		l.fragments = append(l.fragments, f)
		l.byPath[f.TraitPath] = f
		return f
	}
	if existing.Mapping == nil {
		existing.Mapping = make(Mapping, len(f.Mapping))
	}
	existing.Mapping.Merge(f.Mapping)
	return existing
}

// Get returns a fragment by trait path, nil when absent.
func (l *List) Get(traitPath string) *Fragment {
	return l.byPath[traitPath]
}

// All returns all fragments in insertion order.
func (l *List) All() []*Fragment {
	return l.fragments
}

// Len returns the number of fragments.
func (l *List) Len() int {
	return len(l.fragments)
}

// Paths returns all trait paths in natural order.
func (l *List) Paths() []string {
	paths := make([]string, 0, len(l.byPath))
	for p := range l.byPath {
		paths = append(paths, p)
	}
	sort.Sort(natural.StringSlice(paths))
	return paths
}

// Remove removes a fragment by trait path.
func (l *List) Remove(traitPath string) bool {
	f, ok := l.byPath[traitPath]
	if !ok {
		return false
	}
	delete(l.byPath, traitPath)
	for i, frag := range l.fragments {
		if frag == f {
			l.fragments = append(l.fragments[:i], l.fragments[i+1:]...)
			break
		}
	}
	return true
}
