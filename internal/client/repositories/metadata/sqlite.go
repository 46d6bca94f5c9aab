package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/davmarks/internal/dbx"
)

// ErrConflict is returned by Update when the row kept changing under it.
var ErrConflict = errors.New("metadata changed concurrently")

// SQLiteRepository stores metadata rows in the metadata table. It works on
// a *sql.DB or inside a transaction.
type SQLiteRepository struct {
	db      dbx.DBTX
	backoff func() retry.Backoff
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{
		db: db,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(5, retry.NewConstant(5*time.Millisecond))
		},
	}
}

// Get returns (nil, nil) when the key is absent.
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

// Update is an optimistic read-modify-write: the new value is written only
// if the row still holds what fn saw, otherwise fn runs again.
func (r *SQLiteRepository) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		old, err := r.Get(ctx, key)
		if err != nil {
			return err
		}
		next, err := fn(old)
		if err != nil || next == nil {
			return err
		}

		swapped, err := r.swap(ctx, key, old, next)
		if err != nil {
			return err
		}
		if !swapped {
			return retry.RetryableError(fmt.Errorf("metadata[%s]: %w", key, ErrConflict))
		}
		return nil
	})
}

func (r *SQLiteRepository) swap(ctx context.Context, key string, old, next []byte) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if old == nil {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, key, next)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE metadata SET value = ? WHERE key = ? AND value = ?`, next, key, old)
	}
	if err != nil {
		return false, fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return n == 1, nil
}
