package emit

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"impdex/common"
	"impdex/fragment"
)

// Manifest is the generator hand-off format: for every trait the packages
// implementing it with their pre-rendered entry markup.
type Manifest struct {
	Traits []ManifestTrait `yaml:"traits"`
}

// ManifestTrait describes implementors of a single trait.
type ManifestTrait struct {
	Path         string              `yaml:"path"`
	Implementors map[string][]string `yaml:"implementors"`
}

// ParseManifest decodes manifest YAML. Unknown fields are rejected so typos
// in generator output fail loudly rather than silently dropping data.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("manifest is empty")
		}
		return nil, fmt.Errorf("unable to parse manifest: %w", err)
	}
	return &m, nil
}

// Fragments converts manifest traits into validated fragments. Package
// identifiers are normalized, a manifest naming the same trait or the same
// package twice is rejected.
func (m *Manifest) Fragments() (*fragment.List, error) {
	list := fragment.NewList()
	for i, t := range m.Traits {
		if err := fragment.ValidTraitPath(t.Path); err != nil {
			return nil, fmt.Errorf("trait %d: %w", i+1, err)
		}
		mapping := make(fragment.Mapping, len(t.Implementors))
		for pkg, entries := range t.Implementors {
			id, err := common.NormalizePackageID(pkg)
			if err != nil {
				return nil, fmt.Errorf("trait %s: %w", t.Path, err)
			}
			if _, dup := mapping[id]; dup {
				return nil, fmt.Errorf("trait %s: duplicate package %q", t.Path, id)
			}
			// An explicit empty implementor list stays present in the mapping.
			es := make([]fragment.Entry, 0, len(entries))
			for _, e := range entries {
				es = append(es, fragment.Entry(e))
			}
			mapping[id] = es
		}
		if err := list.Add(&fragment.Fragment{TraitPath: t.Path, Mapping: mapping}); err != nil {
			return nil, err
		}
	}
	return list, nil
}
