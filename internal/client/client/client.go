package client

import "context"

// Client talks to the remote store that holds the shared bookmark file.
type Client interface {
	// Ping checks that the base collection is reachable with the
	// configured credentials.
	Ping(ctx context.Context) error

	// ModTime returns the remote file's modification time in Unix seconds.
	// It fails with common.ErrorNotFound when the file does not exist.
	ModTime(ctx context.Context) (int64, error)

	// Download fetches the file and its modification time.
	Download(ctx context.Context) ([]byte, int64, error)

	// Upload replaces the file. The returned modification time is zero
	// when the server did not report one.
	Upload(ctx context.Context, body []byte) (int64, error)

	Close() error
}
