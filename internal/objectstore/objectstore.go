// Package objectstore is a local-disk implementation of the storage handle
// contract spec.md §6 describes as an external collaborator: the core code
// only ever calls through this narrow interface, so a remote object-storage
// backend could stand in without the Seeder or Store noticing.
package objectstore

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Handle resolves keys under root and performs the read/write operations
// spec.md §6 names: resolveOutputKey, readJsonOrNull, readJson,
// readTextOrNull, writeObject, listInputKeys.
type Handle struct {
	root string
}

// New returns a Handle rooted at root (created lazily on first write).
func New(root string) *Handle {
	return &Handle{root: root}
}

// ResolveOutputKey joins parts into a "/"-separated key, matching the
// contract's key shape regardless of the host OS path separator.
func (h *Handle) ResolveOutputKey(parts ...string) string {
	return strings.Join(parts, "/")
}

func (h *Handle) nativePath(key string) string {
	cleaned := strings.TrimPrefix(key, "/")
	return filepath.Join(h.root, filepath.FromSlash(cleaned))
}

// ReadJSONOrNull decodes the JSON object at key into v, returning
// (false, nil) if the key does not exist.
func (h *Handle) ReadJSONOrNull(key string, v interface{}) (bool, error) {
	data, err := os.ReadFile(h.nativePath(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// ReadJSON decodes the JSON object at key into v, returning an error if the
// key is missing (unlike ReadJSONOrNull).
func (h *Handle) ReadJSON(key string, v interface{}) error {
	ok, err := h.ReadJSONOrNull(key, v)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("objectstore: %s does not exist", key)
	}
	return nil
}

// ReadTextOrNull returns the raw contents at key, or (nil, nil) if missing.
func (h *Handle) ReadTextOrNull(key string) (*string, error) {
	data, err := os.ReadFile(h.nativePath(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

// WriteObject writes bytes to key, creating parent directories as needed.
// contentType is accepted for interface parity with a remote backend but
// unused by the local disk implementation.
func (h *Handle) WriteObject(key string, data []byte, contentType string) error {
	path := h.nativePath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ListInputKeys lists every file under root/category, returned as "/"-joined
// keys relative to root. A missing category directory yields an empty list,
// not an error, matching the Seeder's "missing paths are empty collections"
// contract.
func (h *Handle) ListInputKeys(category string) ([]string, error) {
	base := filepath.Join(h.root, category)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil, nil
	}

	var keys []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(h.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	return keys, err
}
