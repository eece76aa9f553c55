package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/objstore"
)

// ResolvePath joins a workspace-relative path to the project root,
// refusing any path that escapes the root via ".." components.
func (w *Workspace) ResolvePath(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	clean = strings.TrimPrefix(clean, string(filepath.Separator))
	if clean == "" || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the project root", relPath)
	}
	return filepath.Join(w.root, clean), nil
}

// ReadFile reads a workspace file, refusing to follow symlinks.
func (w *Workspace) ReadFile(relPath string) ([]byte, error) {
	full, err := w.ResolvePath(relPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, jinerr.NotFound(jinerr.KindPath, relPath)
		}
		return nil, jinerr.IO("stat", full, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("refusing to read symlink %s", relPath)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, jinerr.IO("read", full, err)
	}
	return data, nil
}

// WriteFile atomically writes a workspace file, creating parent
// directories and refusing to replace an existing symlink.
func (w *Workspace) WriteFile(relPath string, content []byte, mode os.FileMode) error {
	full, err := w.ResolvePath(relPath)
	if err != nil {
		return err
	}
	if info, err := os.Lstat(full); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("refusing to overwrite symlink %s", relPath)
	}
	if err := objstore.AtomicWriteFile(full, content, mode); err != nil {
		return jinerr.IO("write", full, err)
	}
	return nil
}

// RemoveFile deletes a workspace file if present.
func (w *Workspace) RemoveFile(relPath string) error {
	full, err := w.ResolvePath(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return jinerr.IO("remove", full, err)
	}
	return nil
}
