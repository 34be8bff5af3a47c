package local

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// KV is a device-local string key-value store with the shape of browser
// local storage: get, set, remove. Values are serialized JSON text.
type KV struct {
	db *sql.DB
}

// OpenKV opens (or creates) the local store at path and runs migrations.
func OpenKV(path string) (*KV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging local store: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrating local store: %w", err)
	}

	return &KV{db: db}, nil
}

// GetItem returns the value stored under key and whether it exists.
func (k *KV) GetItem(key string) (string, bool, error) {
	var value string

	err := k.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}

	return value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (k *KV) SetItem(key, value string) error {
	_, err := k.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (k *KV) RemoveItem(key string) error {
	if _, err := k.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}

	return nil
}

// Close closes the underlying database.
func (k *KV) Close() error {
	return k.db.Close()
}
