// Package metadata is a small key/value store in the client database. It
// holds the credential record, the sync state and the user options, each
// JSON-encoded under its own key.
package metadata

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Update replaces the value of key with fn(old). old is nil when the key
	// is absent; a nil result leaves the row untouched.
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
}
