package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/davmarks/internal/client/client"
	"github.com/dmitrijs2005/davmarks/internal/dbx"
)

// setupDB opens a migrated in-memory client database.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteRepository_GetSet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	v, err := r.Get(ctx, KeySyncState)
	require.NoError(t, err)
	assert.Nil(t, v, "absent key reads as nil without error")

	require.NoError(t, r.Set(ctx, KeySyncState, []byte(`{"dirty":false}`)))
	require.NoError(t, r.Set(ctx, KeySyncState, []byte(`{"dirty":true}`)))
	require.NoError(t, r.Set(ctx, KeyCredentials, []byte{0xC0, 0xFF, 0xEE}))

	v, err = r.Get(ctx, KeySyncState)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dirty":true}`, string(v))

	v, err = r.Get(ctx, KeyCredentials)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC0, 0xFF, 0xEE}, v)
}

func TestSQLiteRepository_Update(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	tests := []struct {
		name    string
		seed    []byte
		fn      func(old []byte) ([]byte, error)
		want    []byte
		wantErr error
	}{
		{
			name: "absent key is inserted",
			fn: func(old []byte) ([]byte, error) {
				if old != nil {
					return nil, errors.New("expected nil")
				}
				return []byte("first"), nil
			},
			want: []byte("first"),
		},
		{
			name: "existing value is replaced",
			seed: []byte("a"),
			fn:   func(old []byte) ([]byte, error) { return append(old, 'b'), nil },
			want: []byte("ab"),
		},
		{
			name: "nil result leaves row",
			seed: []byte("keep"),
			fn:   func([]byte) ([]byte, error) { return nil, nil },
			want: []byte("keep"),
		},
		{
			name:    "fn error is returned",
			seed:    []byte("keep"),
			fn:      func([]byte) ([]byte, error) { return nil, boom },
			want:    []byte("keep"),
			wantErr: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSQLiteRepository(setupDB(t))
			if tt.seed != nil {
				require.NoError(t, r.Set(ctx, KeyStatus, tt.seed))
			}

			err := r.Update(ctx, KeyStatus, tt.fn)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			got, err := r.Get(ctx, KeyStatus)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLiteRepository_UpdateRetriesOnConcurrentWrite(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, KeySyncState, []byte("v1")))

	calls := 0
	err := r.Update(ctx, KeySyncState, func(old []byte) ([]byte, error) {
		calls++
		if calls == 1 {
			// another writer lands between the read and the swap
			require.NoError(t, r.Set(ctx, KeySyncState, []byte("v2")))
		}
		return append(old, '+'), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	got, err := r.Get(ctx, KeySyncState)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2+"), got)
}

func TestSQLiteRepository_UpdateGivesUp(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Set(ctx, KeySyncState, []byte("0")))

	n := 0
	err := r.Update(ctx, KeySyncState, func(old []byte) ([]byte, error) {
		n++
		require.NoError(t, r.Set(ctx, KeySyncState, []byte{byte('a' + n)}))
		return []byte("never"), nil
	})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 6, n, "first attempt plus five retries")
}

func TestSQLiteRepository_InsideTransaction(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).Set(ctx, KeyOptions, []byte(`{}`))
	})
	require.NoError(t, err)

	v, err := NewSQLiteRepository(db).Get(ctx, KeyOptions)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), v)
}

func TestSQLiteRepository_ClosedDatabase(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"get", func() error { _, err := r.Get(ctx, KeyStatus); return err }, "failed to get metadata[" + KeyStatus + "]"},
		{"set", func() error { return r.Set(ctx, KeyStatus, []byte("x")) }, "failed to set metadata[" + KeyStatus + "]"},
		{"update", func() error {
			return r.Update(ctx, KeyStatus, func([]byte) ([]byte, error) { return []byte("x"), nil })
		}, "failed to get metadata[" + KeyStatus + "]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
