package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
	"github.com/dmitrijs2005/davmarks/internal/client/client"
	"github.com/dmitrijs2005/davmarks/internal/client/models"
	"github.com/dmitrijs2005/davmarks/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/davmarks/internal/client/repositories/nodes"
	"github.com/dmitrijs2005/davmarks/internal/common"
	"github.com/dmitrijs2005/davmarks/internal/logging"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// env is a client wired the way the CLI wires it, minus the transport.
type env struct {
	db        *sql.DB
	store     *nodes.SQLiteRepository
	state     *metadata.State
	supp      *Suppressor
	tracker   *ChangeTracker
	importer  *Importer
	clock     *fakeClock
	remote    *fakeClient
	resolver  bookmarks.RootFolderResolver
	connected int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := setupDB(t)
	e := &env{
		db:       db,
		store:    nodes.NewSQLiteRepository(db),
		state:    metadata.NewState(metadata.NewSQLiteRepository(db)),
		supp:     &Suppressor{},
		clock:    &fakeClock{now: time.Unix(1700000000, 0)},
		remote:   &fakeClient{},
		resolver: bookmarks.NewChromeResolver(),
	}
	require.NoError(t, e.store.EnsureRoots(context.Background(), e.resolver))

	e.tracker = NewChangeTracker(e.state, e.supp, logging.Discard())
	e.tracker.Attach(e.store)
	t.Cleanup(e.tracker.Detach)

	e.importer = NewImporter(e.store, e.resolver, logging.Discard())
	return e
}

func (e *env) engine(state StateStore) *SyncEngine {
	if state == nil {
		state = e.state
	}
	connect := func(context.Context) (client.Client, error) {
		e.connected++
		return e.remote, nil
	}
	return NewSyncEngine(connect, e.store, state, e.importer, e.supp, logging.Discard(), WithClock(e.clock.Now))
}

func (e *env) syncState(t *testing.T) models.SyncState {
	t.Helper()
	st, err := e.state.SyncState(context.Background())
	require.NoError(t, err)
	return st
}

func (e *env) syncable(t *testing.T) []bookmarks.Node {
	t.Helper()
	tree, err := e.store.GetTree(context.Background())
	require.NoError(t, err)
	return bookmarks.Syncable(tree)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeClient is an in-memory remote file.
type fakeClient struct {
	mu sync.Mutex

	exists bool
	body   []byte
	mod    int64

	// modAfterPut becomes mod after a successful upload; reportPut
	// controls whether Upload returns it.
	modAfterPut int64
	reportPut   bool

	modErr error
	getErr error
	putErr error

	heads, gets, puts int
	onHead            func()
	onGet             func()
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) ModTime(context.Context) (int64, error) {
	f.mu.Lock()
	hook := f.onHead
	f.heads++
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modErr != nil {
		return 0, f.modErr
	}
	if !f.exists {
		return 0, fmt.Errorf("HEAD: %w", common.ErrorNotFound)
	}
	return f.mod, nil
}

func (f *fakeClient) Download(context.Context) ([]byte, int64, error) {
	f.mu.Lock()
	hook := f.onGet
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, 0, f.getErr
	}
	if !f.exists {
		return nil, 0, fmt.Errorf("GET: %w", common.ErrorNotFound)
	}
	return append([]byte(nil), f.body...), f.mod, nil
}

func (f *fakeClient) Upload(_ context.Context, body []byte) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return 0, f.putErr
	}
	f.exists = true
	f.body = append([]byte(nil), body...)
	f.mod = f.modAfterPut
	if f.reportPut {
		return f.mod, nil
	}
	return 0, nil
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) serve(body string, mod int64) {
	f.mu.Lock()
	f.exists = true
	f.body = []byte(body)
	f.mod = mod
	f.mu.Unlock()
}
