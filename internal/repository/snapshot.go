// Package repository provides persistence implementations for the session
// snapshot using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/grocerease/internal/client/storage"
)

// PostgresSnapshotRepository stores encoded snapshots keyed by name.
type PostgresSnapshotRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSnapshotRepository creates a repository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance with the schema
// created by db.InitPostgres.
func NewPostgresSnapshotRepository(db *sql.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{DB: db}
}

// Get retrieves the document stored under key.
//
//	ctx: context for cancellation and deadlines
//	key: snapshot name
//
// Returns storage.ErrSnapshotNotFound when no row exists.
func (r *PostgresSnapshotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.DB.QueryRowContext(ctx, `
		SELECT data FROM snapshots WHERE key = $1
	`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return data, nil
}

// Put inserts the document or replaces the existing one and bumps updated_at.
func (r *PostgresSnapshotRepository) Put(ctx context.Context, key string, data []byte) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO snapshots (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, key, data)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}
