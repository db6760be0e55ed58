package kv

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLStore keeps values in the app_state table created by db.Open. The $n
// placeholders work for both sqlite and pgx.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE name=$1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO app_state (name,value,updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (name) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
		key, string(value), time.Now().Unix())
	return err
}
