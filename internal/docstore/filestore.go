package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// FileStore keeps the workspace document as a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store, ensuring the parent
// directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the latest saved document.
func (s *FileStore) Load(_ context.Context) (*models.WorkspaceDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading workspace file: %w", err)
	}

	var doc models.WorkspaceDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding workspace file: %w", err)
	}
	return &doc, nil
}

// Save overwrites the document atomically: write to a temp file in the
// same directory, then rename over the target.
func (s *FileStore) Save(_ context.Context, doc *models.WorkspaceDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding workspace: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing workspace file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing workspace file: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}
