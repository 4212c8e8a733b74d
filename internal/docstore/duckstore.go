package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/marcboeker/go-duckdb"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// defaultKeepRevisions bounds how many saved revisions a DuckStore
// retains before pruning the oldest.
const defaultKeepRevisions = 20

// DuckStore keeps workspace documents in a DuckDB revision table: every
// Save inserts a new revision, Load reads the latest, older revisions
// are pruned past the retention bound.
type DuckStore struct {
	db   *sql.DB
	keep int
}

// Revision describes one saved document revision.
type Revision struct {
	ID      int64     `json:"id"`
	SavedAt time.Time `json:"savedAt"`
}

// NewDuckStore opens (or creates) the revision database at dbPath.
func NewDuckStore(dbPath string) (*DuckStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	connector, err := duckdb.NewConnector(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	db := sql.OpenDB(connector)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS workspace_revisions (
			id       BIGINT PRIMARY KEY,
			saved_at TIMESTAMP NOT NULL,
			doc      VARCHAR NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating revisions table: %w", err)
	}

	return &DuckStore{db: db, keep: defaultKeepRevisions}, nil
}

// Load reads the most recent revision.
func (s *DuckStore) Load(ctx context.Context) (*models.WorkspaceDocument, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM workspace_revisions ORDER BY id DESC LIMIT 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading latest revision: %w", err)
	}

	var doc models.WorkspaceDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decoding revision: %w", err)
	}
	return &doc, nil
}

// Save inserts a new revision and prunes past the retention bound.
func (s *DuckStore) Save(ctx context.Context, doc *models.WorkspaceDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding workspace: %w", err)
	}

	var next int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM workspace_revisions`).Scan(&next); err != nil {
		return fmt.Errorf("allocating revision id: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO workspace_revisions (id, saved_at, doc) VALUES (?, ?, ?)`,
		next, time.Now(), string(data)); err != nil {
		return fmt.Errorf("inserting revision: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM workspace_revisions WHERE id <= ? - ?`, next, s.keep); err != nil {
		return fmt.Errorf("pruning revisions: %w", err)
	}
	return nil
}

// Revisions lists retained revisions, newest first.
func (s *DuckStore) Revisions(ctx context.Context) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, saved_at FROM workspace_revisions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.ID, &r.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRevision reads a specific revision by id.
func (s *DuckStore) LoadRevision(ctx context.Context, id int64) (*models.WorkspaceDocument, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM workspace_revisions WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading revision %d: %w", id, err)
	}

	var doc models.WorkspaceDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decoding revision %d: %w", id, err)
	}
	return &doc, nil
}

// Close releases the database handle.
func (s *DuckStore) Close() error {
	return s.db.Close()
}
