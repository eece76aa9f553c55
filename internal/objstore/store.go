// Package objstore implements Jin's content-addressed object store: blobs,
// trees, and commits kept in a private directory parallel to the project,
// plus the refs/jin/... reference namespace that points into that graph.
// It never modifies an existing object; only refs are mutable. Commits
// update refs through the reftxn package's write-ahead-logged
// transactions.
package objstore

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	objectsDirName = "objects"
	refsDirName    = "refs"
	defaultDirName = ".jin"
)

// Store provides durable, content-addressed access to Jin's object graph
// and its ref namespace. One Store corresponds to one JIN_DIR.
type Store struct {
	root       string
	objectsDir string
	refsDir    string
}

// DefaultDir resolves the store location: $JIN_DIR if set, else ~/.jin.
func DefaultDir() (string, error) {
	if dir := os.Getenv("JIN_DIR"); dir != "" {
		if !filepath.IsAbs(dir) {
			return "", fmt.Errorf("JIN_DIR must be an absolute path, got %q", dir)
		}
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, defaultDirName), nil
}

// Open opens (creating if necessary) the store at the resolved default
// directory.
func Open() (*Store, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return OpenAt(dir)
}

// OpenAt opens (creating if necessary) the store rooted at dir.
func OpenAt(dir string) (*Store, error) {
	s := &Store{
		root:       dir,
		objectsDir: filepath.Join(dir, objectsDirName),
		refsDir:    filepath.Join(dir, refsDirName),
	}
	if err := s.EnsureDirs(); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the store's root directory (the resolved JIN_DIR).
func (s *Store) Root() string { return s.root }

// ObjectsDir returns the objects directory.
func (s *Store) ObjectsDir() string { return s.objectsDir }

// RefsDir returns the refs directory.
func (s *Store) RefsDir() string { return s.refsDir }

// EnsureDirs creates the objects and refs directories if they don't exist.
func (s *Store) EnsureDirs() error {
	for _, dir := range []string{s.objectsDir, s.refsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// objectPath returns the on-disk path for an object addressed by hash,
// sharded by its first two hex characters to keep directories small.
func (s *Store) objectPath(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(s.objectsDir, hash)
	}
	return filepath.Join(s.objectsDir, hash[:2], hash)
}
