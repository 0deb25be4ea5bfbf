package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// PostgreSQLStore 基于 PostgreSQL 的键值存储
type PostgreSQLStore struct {
	db *sql.DB
}

// NewPostgreSQLStore 创建 PostgreSQL 存储
func NewPostgreSQLStore(db *sql.DB) *PostgreSQLStore {
	return &PostgreSQLStore{db: db}
}

// Migrate 创建存储表（幂等）
func (s *PostgreSQLStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS custody_blobs (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "failed to migrate custody_blobs")
	}
	return nil
}

func (s *PostgreSQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM custody_blobs WHERE key = $1`
	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get blob")
	}
	return value, nil
}

func (s *PostgreSQLStore) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO custody_blobs (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`
	_, err := s.db.ExecContext(ctx, query, key, value)
	if err != nil {
		return errors.Wrap(err, "failed to put blob")
	}
	return nil
}

func (s *PostgreSQLStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM custody_blobs WHERE key = $1`
	_, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return errors.Wrap(err, "failed to delete blob")
	}
	return nil
}

func (s *PostgreSQLStore) List(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT key FROM custody_blobs WHERE key LIKE $1 || '%' ORDER BY key`
	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list blobs")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Wrap(err, "failed to scan blob key")
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *PostgreSQLStore) Clear(ctx context.Context) error {
	query := `DELETE FROM custody_blobs`
	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "failed to clear blobs")
	}
	return nil
}
