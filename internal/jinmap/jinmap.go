// Package jinmap implements JinMap, the persisted reverse index from a
// layer ref path to the sorted set of file paths its current commit
// holds (spec §4.6). It lets ApplyStateMachine enumerate the union of
// paths across applicable layers without walking every tree on every
// apply.
package jinmap

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/objstore"
)

const fileName = ".jinmap"

// Map is the persisted ref-path -> sorted file path set.
type Map struct {
	Entries map[string][]string `yaml:"entries"`
}

func path(s *objstore.Store) string {
	return filepath.Join(s.Root(), fileName)
}

// Load reads the persisted JinMap, returning an empty map if none
// exists yet (e.g. a brand new store).
func Load(s *objstore.Store) (*Map, error) {
	data, err := readFile(path(s))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return &Map{Entries: map[string][]string{}}, nil
	}
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Entries == nil {
		m.Entries = map[string][]string{}
	}
	return &m, nil
}

// Save atomically persists the JinMap.
func (m *Map) Save(s *objstore.Store) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	if err := objstore.AtomicWriteFile(path(s), data, 0644); err != nil {
		return jinerr.IO("write jinmap", path(s), err)
	}
	return nil
}

// PathsFor returns the sorted set of paths held by a ref's current
// entry, or nil if the ref has no entry (never contributed, or not
// yet refreshed).
func (m *Map) PathsFor(refPath string) []string {
	return m.Entries[refPath]
}

// RefreshFor rebuilds one ref's entry by walking its commit's tree.
// Pass treeHash == "" to clear the entry (e.g. the ref was deleted).
func (m *Map) RefreshFor(s *objstore.Store, refPath, treeHash string) error {
	if treeHash == "" {
		delete(m.Entries, refPath)
		return nil
	}
	files, err := s.WalkTreeFiles(treeHash)
	if err != nil {
		return err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sort.Strings(paths)
	m.Entries[refPath] = paths
	return nil
}

// RebuildAll regenerates the whole map from every ref under
// refs/jin/layers/, by resolving each ref's commit and walking its
// tree. Used by repair and after detection of drift.
func RebuildAll(s *objstore.Store) (*Map, error) {
	refs, err := s.ListRefs("refs/jin/layers/")
	if err != nil {
		return nil, err
	}
	m := &Map{Entries: map[string][]string{}}
	for _, ref := range refs {
		commit, err := s.ReadCommit(ref.Hash)
		if err != nil {
			return nil, err
		}
		if err := m.RefreshFor(s, ref.Path, commit.TreeHash); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func readFile(p string) ([]byte, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, jinerr.IO("read jinmap", p, err)
	}
	return data, nil
}
