// Package docstore persists the workspace document. Two backends are
// provided: a JSON file on disk and a DuckDB revision table.
package docstore

import (
	"context"
	"errors"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// ErrNotFound is returned by Load when no document has been saved yet.
var ErrNotFound = errors.New("no saved workspace document")

// Store reads and writes the whole workspace document. Save is a full
// overwrite; Load returns the latest document.
type Store interface {
	Load(ctx context.Context) (*models.WorkspaceDocument, error)
	Save(ctx context.Context, doc *models.WorkspaceDocument) error
	Close() error
}
