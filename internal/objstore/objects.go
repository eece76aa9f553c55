package objstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/anthropics/jin/internal/jinerr"
)

// objectKind tags the payload so a blob, tree, and commit with otherwise
// identical bytes never collide on hash.
type objectKind byte

const (
	kindBlob   objectKind = 'b'
	kindTree   objectKind = 't'
	kindCommit objectKind = 'c'
)

// hashPayload computes the content address for a tagged payload.
func hashPayload(kind objectKind, payload []byte) string {
	h := sha256.New()
	h.Write([]byte{byte(kind)})
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// writeObject durably writes a tagged payload under its content hash,
// skipping the write if an object with that hash already exists.
func (s *Store) writeObject(kind objectKind, payload []byte) (string, error) {
	hash := hashPayload(kind, payload)
	path := s.objectPath(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}
	record := append([]byte{byte(kind)}, payload...)
	if err := AtomicWriteFile(path, record, 0444); err != nil {
		return "", jinerr.IO("write object", path, err)
	}
	return hash, nil
}

// readObject reads and un-tags a stored object, verifying its kind.
func (s *Store) readObject(kind objectKind, hash string) ([]byte, error) {
	if hash == "" {
		return nil, fmt.Errorf("empty object hash")
	}
	path := s.objectPath(hash)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, jinerr.NotFound(jinerr.KindObject, hash)
		}
		return nil, jinerr.IO("read object", path, err)
	}
	if len(data) == 0 || objectKind(data[0]) != kind {
		return nil, fmt.Errorf("object %s is not of the expected kind", hash)
	}
	return data[1:], nil
}

// WriteBlob writes content to the blob store, returning its content hash.
// Writing identical content twice returns the same hash without a second
// write (content-addressed dedup).
func (s *Store) WriteBlob(content []byte) (string, error) {
	return s.writeObject(kindBlob, content)
}

// ReadBlob reads a blob's content by its hash.
func (s *Store) ReadBlob(hash string) ([]byte, error) {
	return s.readObject(kindBlob, hash)
}

// BlobExists reports whether a blob with the given hash is present.
func (s *Store) BlobExists(hash string) bool {
	_, err := os.Stat(s.objectPath(hash))
	return err == nil
}

// HashBlob returns the content hash WriteBlob would assign to content,
// without writing it. Callers compare workspace file content against a
// committed blob hash without reading the blob back.
func HashBlob(content []byte) string {
	return hashPayload(kindBlob, content)
}

// TreeEntryMode records the POSIX-ish mode bits plus whether the entry
// is itself a subtree.
type TreeEntryMode uint32

const (
	// ModeTree marks an entry as a subtree rather than a blob. Real file
	// mode bits never collide with this sentinel because they're taken
	// from os.FileMode.Perm(), which is at most 0777.
	ModeTree TreeEntryMode = 1 << 31
)

// TreeEntryInput is one entry to include when building a tree: a
// workspace-relative path (which may contain '/'), the hash of its blob
// content, and its file mode bits.
type TreeEntryInput struct {
	Path string
	Hash string
	Mode uint32
}

// treeEntry is one direct child of a tree object: a single path
// component (no '/') mapping to either a blob or a nested tree hash.
type treeEntry struct {
	Name string        `json:"name"`
	Hash string        `json:"hash"`
	Mode TreeEntryMode `json:"mode"`
}

type treeObject struct {
	Entries []treeEntry `json:"entries"`
}

func encodeTree(t treeObject) []byte {
	sort.Slice(t.Entries, func(i, j int) bool { return t.Entries[i].Name < t.Entries[j].Name })
	data, _ := json.Marshal(t)
	return data
}

// BuildTree accepts a flat list of workspace-relative paths and recursively
// constructs the intermediate tree objects needed to represent them,
// returning the hash of the root tree. Entries with identical content
// produce the same tree hash regardless of insertion order, because
// entries are path-component-sorted before hashing at every level.
func (s *Store) BuildTree(entries []TreeEntryInput) (string, error) {
	root := make(map[string]interface{}) // component -> *dirNode | leaf
	type leaf struct {
		hash string
		mode uint32
	}

	var insert func(node map[string]interface{}, parts []string, l leaf)
	insert = func(node map[string]interface{}, parts []string, l leaf) {
		if len(parts) == 1 {
			node[parts[0]] = l
			return
		}
		child, ok := node[parts[0]].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			node[parts[0]] = child
		}
		insert(child, parts[1:], l)
	}

	for _, e := range entries {
		parts := splitPath(e.Path)
		if len(parts) == 0 {
			continue
		}
		insert(root, parts, leaf{hash: e.Hash, mode: e.Mode})
	}

	var build func(node map[string]interface{}) (string, error)
	build = func(node map[string]interface{}) (string, error) {
		t := treeObject{}
		for name, v := range node {
			switch val := v.(type) {
			case leaf:
				t.Entries = append(t.Entries, treeEntry{Name: name, Hash: val.hash, Mode: TreeEntryMode(val.mode)})
			case map[string]interface{}:
				childHash, err := build(val)
				if err != nil {
					return "", err
				}
				t.Entries = append(t.Entries, treeEntry{Name: name, Hash: childHash, Mode: ModeTree})
			}
		}
		return s.writeObject(kindTree, encodeTree(t))
	}

	return build(root)
}

// TreeEntry returns the hash and mode of a path within a tree, or
// (ok=false) if absent. An absent entry is never an error.
func (s *Store) TreeEntry(treeHash, path string) (hash string, mode TreeEntryMode, ok bool, err error) {
	parts := splitPath(path)
	current := treeHash
	for i, part := range parts {
		payload, rerr := s.readObject(kindTree, current)
		if rerr != nil {
			return "", 0, false, rerr
		}
		var t treeObject
		if jerr := json.Unmarshal(payload, &t); jerr != nil {
			return "", 0, false, fmt.Errorf("corrupt tree object %s: %w", current, jerr)
		}
		var found *treeEntry
		for idx := range t.Entries {
			if t.Entries[idx].Name == part {
				found = &t.Entries[idx]
				break
			}
		}
		if found == nil {
			return "", 0, false, nil
		}
		if i == len(parts)-1 {
			return found.Hash, found.Mode, true, nil
		}
		if found.Mode&ModeTree == 0 {
			// a file-only path component can't have children
			return "", 0, false, nil
		}
		current = found.Hash
	}
	return "", 0, false, nil
}

// ListTree lists the direct entries of a tree, in path-component-sorted
// order.
func (s *Store) ListTree(treeHash string) ([]TreeEntryInput, error) {
	payload, err := s.readObject(kindTree, treeHash)
	if err != nil {
		return nil, err
	}
	var t treeObject
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("corrupt tree object %s: %w", treeHash, err)
	}
	out := make([]TreeEntryInput, 0, len(t.Entries))
	for _, e := range t.Entries {
		out = append(out, TreeEntryInput{Path: e.Name, Hash: e.Hash, Mode: uint32(e.Mode)})
	}
	return out, nil
}

// WalkTreeFiles recursively walks a tree and returns every blob's full
// workspace-relative path and hash (directories are not included).
func (s *Store) WalkTreeFiles(treeHash string) ([]TreeEntryInput, error) {
	var out []TreeEntryInput
	var walk func(hash, prefix string) error
	walk = func(hash, prefix string) error {
		entries, err := s.ListTree(hash)
		if err != nil {
			return err
		}
		for _, e := range entries {
			full := e.Path
			if prefix != "" {
				full = prefix + "/" + e.Path
			}
			if TreeEntryMode(e.Mode)&ModeTree != 0 {
				if err := walk(e.Hash, full); err != nil {
					return err
				}
				continue
			}
			out = append(out, TreeEntryInput{Path: full, Hash: e.Hash, Mode: e.Mode})
		}
		return nil
	}
	if err := walk(treeHash, ""); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func splitPath(p string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			if i > start {
				parts = append(parts, p[start:i])
			}
			start = i + 1
		}
	}
	if start < len(p) {
		parts = append(parts, p[start:])
	}
	return parts
}

// Commit is the decoded form of a commit object.
type Commit struct {
	TreeHash       string   `json:"tree"`
	Parents        []string `json:"parents,omitempty"`
	AuthorName     string   `json:"author_name,omitempty"`
	AuthorEmail    string   `json:"author_email,omitempty"`
	CommitterName  string   `json:"committer_name,omitempty"`
	CommitterEmail string   `json:"committer_email,omitempty"`
	Timestamp      string   `json:"timestamp"`
	Message        string   `json:"message"`
}

// Commit writes a commit object and returns its hash.
func (s *Store) Commit(c Commit) (string, error) {
	if c.TreeHash == "" {
		return "", fmt.Errorf("commit requires a tree hash")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return s.writeObject(kindCommit, data)
}

// ReadCommit loads a commit object by hash.
func (s *Store) ReadCommit(hash string) (*Commit, error) {
	payload, err := s.readObject(kindCommit, hash)
	if err != nil {
		return nil, err
	}
	var c Commit
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("corrupt commit object %s: %w", hash, err)
	}
	return &c, nil
}

// GraphDescendantOf reports whether commit a is a descendant of (reachable
// from) commit b by walking parent links. a == b counts as descendant.
func (s *Store) GraphDescendantOf(a, b string) (bool, error) {
	if a == b {
		return true, nil
	}
	seen := make(map[string]bool)
	queue := []string{a}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if id == b {
			return true, nil
		}
		c, err := s.ReadCommit(id)
		if err != nil {
			if _, ok := err.(*jinerr.NotFoundError); ok {
				continue
			}
			return false, err
		}
		queue = append(queue, c.Parents...)
	}
	return false, nil
}

// CommitAncestors returns every ancestor commit hash reachable from start
// (inclusive), used by merge-base search.
func (s *Store) CommitAncestors(start string) (map[string]int, error) {
	dist := make(map[string]int)
	type item struct {
		id   string
		dist int
	}
	queue := []item{{id: start, dist: 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if it.id == "" {
			continue
		}
		if _, ok := dist[it.id]; ok {
			continue
		}
		dist[it.id] = it.dist
		c, err := s.ReadCommit(it.id)
		if err != nil {
			if _, ok := err.(*jinerr.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		for _, p := range c.Parents {
			if _, ok := dist[p]; !ok {
				queue = append(queue, item{id: p, dist: it.dist + 1})
			}
		}
	}
	return dist, nil
}

// MergeBase finds a nearest common ancestor of a and b by minimizing
// combined BFS distance, consistent with spec §4.4's "nearest common
// ancestor" requirement. Returns ("", false) if there is none.
func (s *Store) MergeBase(a, b string) (string, bool, error) {
	if a == "" || b == "" {
		return "", false, nil
	}
	distA, err := s.CommitAncestors(a)
	if err != nil {
		return "", false, err
	}
	distB, err := s.CommitAncestors(b)
	if err != nil {
		return "", false, err
	}
	best := ""
	bestScore := -1
	for id, da := range distA {
		if db, ok := distB[id]; ok {
			score := da + db
			if bestScore == -1 || score < bestScore {
				bestScore = score
				best = id
			}
		}
	}
	if best == "" {
		return "", false, nil
	}
	return best, true, nil
}
