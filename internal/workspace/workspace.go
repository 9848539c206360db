// Package workspace manages the per-generation source directories on local disk.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go4it/builder/internal/types"
)

// MetaDir holds builder-owned files (prompt, logs) inside a workspace
const MetaDir = ".go4it"

// Manager resolves and manipulates workspaces under a single root directory
type Manager struct {
	Root string
}

// NewManager returns a Manager rooted at root
func NewManager(root string) *Manager {
	return &Manager{Root: root}
}

// Path returns the workspace directory for a generation id.
// Ids must be a single path element so nothing outside Root can be addressed.
func (m *Manager) Path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || filepath.Base(id) != id {
		return "", fmt.Errorf("workspace id %q: %w", id, types.ErrInvalidInput)
	}
	return filepath.Join(m.Root, id), nil
}

// Create makes the workspace (and its meta directory) if missing and returns its path
func (m *Manager) Create(id string) (string, error) {
	dir, err := m.Path(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dir, MetaDir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}
	return dir, nil
}

// Exists reports whether the workspace directory is present
func (m *Manager) Exists(id string) (bool, error) {
	dir, err := m.Path(id)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// Remove deletes the workspace. It reports whether anything was deleted.
func (m *Manager) Remove(id string) (bool, error) {
	exists, err := m.Exists(id)
	if err != nil || !exists {
		return false, err
	}
	dir, _ := m.Path(id)
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("failed to remove workspace %s: %w", dir, err)
	}
	return true, nil
}
