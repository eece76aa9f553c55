package objstore

import (
	"os"
	"path/filepath"

	"github.com/anthropics/jin/internal/jinerr"
)

// trimRefsPrefix strips the leading "refs/" component, since RefsDir()
// already names the refs directory.
func trimRefsPrefix(refPath string) string {
	const prefix = "refs/"
	if len(refPath) > len(prefix) && refPath[:len(prefix)] == prefix {
		return refPath[len(prefix):]
	}
	return refPath
}

func (s *Store) refFilePath(refPath string) string {
	return filepath.Join(s.refsDir, filepath.FromSlash(trimRefsPrefix(refPath)))
}

func trimHash(data []byte) string {
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}
	return string(data)
}

// ResolveRef resolves a ref path to its current commit hash, or "" if
// the ref doesn't exist. A missing ref is never an error.
func (s *Store) ResolveRef(refPath string) (string, error) {
	path := s.refFilePath(refPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", jinerr.IO("read ref", path, err)
	}
	return trimHash(data), nil
}

// RefExists reports whether a ref path currently resolves to a hash.
func (s *Store) RefExists(refPath string) (bool, error) {
	h, err := s.ResolveRef(refPath)
	return h != "", err
}

// SetRef writes a ref file idempotently: setting a ref to the value it
// already holds is a no-op and must not fail. Ordinary commits update
// refs only through reftxn.Txn so multi-ref writes stay crash-atomic;
// this method is the primitive that Txn.Commit and recovery redo both
// call.
func (s *Store) SetRef(refPath, hash string) error {
	current, err := s.ResolveRef(refPath)
	if err != nil {
		return err
	}
	if current == hash {
		return nil
	}
	path := s.refFilePath(refPath)
	if err := AtomicWriteFile(path, []byte(hash+"\n"), 0644); err != nil {
		return jinerr.IO("write ref", path, err)
	}
	return nil
}

// DeleteRef removes a ref file. A missing ref is not an error.
func (s *Store) DeleteRef(refPath string) error {
	path := s.refFilePath(refPath)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return jinerr.IO("delete ref", path, err)
	}
	return nil
}

// RefEntry is one enumerated ref: its full refs/... path and the
// commit hash it currently resolves to.
type RefEntry struct {
	Path string
	Hash string
}

// ListRefs enumerates every ref under a refs/... prefix, returning
// each ref's full path and current hash. Used by JinMap rebuild and by
// log/enumeration commands.
func (s *Store) ListRefs(prefix string) ([]RefEntry, error) {
	root := filepath.Join(s.refsDir, filepath.FromSlash(trimRefsPrefix(prefix)))
	var out []RefEntry
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(s.refsDir, p)
		if rerr != nil {
			return rerr
		}
		data, rerr := os.ReadFile(p)
		if rerr != nil {
			return jinerr.IO("read ref", p, rerr)
		}
		out = append(out, RefEntry{
			Path: "refs/" + filepath.ToSlash(rel),
			Hash: trimHash(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
