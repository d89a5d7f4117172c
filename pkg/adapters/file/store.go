package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/tessera/pkg/domain"
)

const ext = ".json"

// Store implements ports.SchemaStore using the local filesystem.
// It stores one JSON document per page in a configured directory.
// Page references are path-escaped, so "site/home" becomes "site%2Fhome.json".
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".tessera/pages".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".tessera", "pages")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(pageRef string) string {
	return filepath.Join(s.BasePath, url.PathEscape(pageRef)+ext)
}

// Save persists the schema to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, pageRef string, schema domain.Schema) error {
	if pageRef == "" {
		return fmt.Errorf("pageRef cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure page directory: %w", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	// Same directory as the destination: rename is only atomic within one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(pageRef)
	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing page file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to page file: %w", err)
	}
	return nil
}

// Load retrieves the schema from its JSON file.
func (s *Store) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	if pageRef == "" {
		return domain.Schema{}, fmt.Errorf("pageRef cannot be empty")
	}

	data, err := os.ReadFile(s.path(pageRef))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Schema{}, domain.ErrPageNotFound
		}
		return domain.Schema{}, fmt.Errorf("failed to read page file: %w", err)
	}

	var schema domain.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return domain.Schema{}, fmt.Errorf("failed to unmarshal page schema: %w", err)
	}
	if schema.Kind == "" {
		schema.Kind = domain.KindPage
	}
	return schema, nil
}

// Delete removes the page file.
func (s *Store) Delete(ctx context.Context, pageRef string) error {
	if pageRef == "" {
		return fmt.Errorf("pageRef cannot be empty")
	}

	err := os.Remove(s.path(pageRef))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete page file: %w", err)
	}
	return nil
}

// List returns all stored page references.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	refs := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ref, err := url.PathUnescape(strings.TrimSuffix(name, ext))
		if err != nil {
			continue // not written by this store
		}
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}
