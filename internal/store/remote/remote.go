package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/finvella/finvella/internal/store"
)

// Store wraps the shared Postgres connection holding every user's documents.
// Each document lives under (user_id, collection, doc_id) with a JSONB
// payload, mirroring the per-user sub-collection layout of the hosted
// document database it stands in for.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the documents table if it is missing.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			user_id    TEXT NOT NULL,
			collection TEXT NOT NULL,
			doc_id     TEXT NOT NULL,
			data       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, collection, doc_id)
		)`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating documents table: %w", err)
	}

	return nil
}

// ForUser returns an adapter scoped to one user's documents.
func (s *Store) ForUser(uid string) *Adapter {
	return &Adapter{db: s.db, uid: uid}
}

// Adapter implements store.Adapter against the documents table for a single
// user. It holds no state beyond the scope key.
type Adapter struct {
	db  *sql.DB
	uid string
}

var _ store.Adapter = (*Adapter)(nil)

func (a *Adapter) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	const query = `
		SELECT data FROM documents
		WHERE user_id = $1 AND collection = $2 AND doc_id = $3`

	var data []byte
	if err := a.db.QueryRowContext(ctx, query, a.uid, collection, id).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}

		return nil, fmt.Errorf("getting document %s/%s: %w", collection, id, err)
	}

	return data, nil
}

func (a *Adapter) List(ctx context.Context, collection string, opts store.ListOptions) ([]json.RawMessage, error) {
	query := `
		SELECT data FROM documents
		WHERE user_id = $1 AND collection = $2
		ORDER BY doc_id`

	args := []any{a.uid, collection}

	if opts.OrderBy != "" {
		// jsonb comparison orders numeric fields numerically, which is what
		// the chat timestamp ordering relies on.
		query = `
			SELECT data FROM documents
			WHERE user_id = $1 AND collection = $2
			ORDER BY data->$3`
		args = append(args, opts.OrderBy)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []json.RawMessage

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning %s document: %w", collection, err)
		}

		docs = append(docs, data)
	}

	return docs, rows.Err()
}

func (a *Adapter) Set(ctx context.Context, collection, id string, doc any, merge bool) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document %s/%s: %w", collection, id, err)
	}

	query := `
		INSERT INTO documents (user_id, collection, doc_id, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, collection, doc_id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`

	if merge {
		// Top-level field overlay, matching the merge flag of the hosted
		// store's set operation.
		query = `
			INSERT INTO documents (user_id, collection, doc_id, data)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, collection, doc_id)
			DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = NOW()`
	}

	if _, err := a.db.ExecContext(ctx, query, a.uid, collection, id, data); err != nil {
		return fmt.Errorf("writing document %s/%s: %w", collection, id, err)
	}

	return nil
}

func (a *Adapter) Delete(ctx context.Context, collection, id string) error {
	const query = `
		DELETE FROM documents
		WHERE user_id = $1 AND collection = $2 AND doc_id = $3`

	if _, err := a.db.ExecContext(ctx, query, a.uid, collection, id); err != nil {
		return fmt.Errorf("deleting document %s/%s: %w", collection, id, err)
	}

	return nil
}

func (a *Adapter) Clear(ctx context.Context, collection string) error {
	const query = `
		DELETE FROM documents
		WHERE user_id = $1 AND collection = $2`

	if _, err := a.db.ExecContext(ctx, query, a.uid, collection); err != nil {
		return fmt.Errorf("clearing %s: %w", collection, err)
	}

	return nil
}
