package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
	"github.com/dmitrijs2005/davmarks/internal/client/client"
	"github.com/dmitrijs2005/davmarks/internal/client/config"
	"github.com/dmitrijs2005/davmarks/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/davmarks/internal/client/repositories/nodes"
	"github.com/dmitrijs2005/davmarks/internal/client/services"
	"github.com/dmitrijs2005/davmarks/internal/filex"
	"github.com/dmitrijs2005/davmarks/internal/logging"
)

// App wires the local store, the services and the REPL together.
type App struct {
	config   *config.Config
	log      logging.Logger
	db       *sql.DB
	store    *nodes.SQLiteRepository
	state    *metadata.State
	resolver bookmarks.RootFolderResolver
	creds    *services.CredentialService
	importer *services.Importer
	tracker  *services.ChangeTracker
	engine   *services.SyncEngine

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the database under cfg.DataDir, makes sure the platform
// root folders exist and builds the services.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("error creating data directory: %w", err)
	}

	db, err := client.InitDatabase(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a, err := newApp(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func newApp(ctx context.Context, cfg *config.Config, log logging.Logger, db *sql.DB) (*App, error) {
	store := nodes.NewSQLiteRepository(db)

	resolver, err := pickResolver(ctx, store, cfg.Browser)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureRoots(ctx, resolver); err != nil {
		return nil, err
	}
	log.Info(ctx, "bookmark store ready", "platform", resolver.Platform())

	state := metadata.NewState(metadata.NewSQLiteRepository(db))
	supp := &services.Suppressor{}

	tracker := services.NewChangeTracker(state, supp, log.With("component", "tracker"))
	tracker.Attach(store)

	creds := services.NewCredentialService(db, cfg.RequestTimeout)
	importer := services.NewImporter(store, resolver, log.With("component", "importer"))
	engine := services.NewSyncEngine(creds.Connect, store, state, importer, supp,
		log.With("component", "sync"), services.WithDebounce(cfg.DebounceWindow))

	return &App{
		config:   cfg,
		log:      log,
		db:       db,
		store:    store,
		state:    state,
		resolver: resolver,
		creds:    creds,
		importer: importer,
		tracker:  tracker,
		engine:   engine,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// pickResolver honours an explicit browser setting and otherwise looks at
// the roots already in the store.
func pickResolver(ctx context.Context, store *nodes.SQLiteRepository, browser string) (bookmarks.RootFolderResolver, error) {
	if browser != "" && browser != bookmarks.PlatformAuto {
		return bookmarks.ResolverByName(browser)
	}

	roots, err := store.Roots(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(roots))
	for _, r := range roots {
		ids = append(ids, r.ID)
	}
	return bookmarks.DetectResolver(ids), nil
}

// Run starts the background sync when enabled and serves the REPL until
// the user leaves or ctx ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	if a.config.AutoSync {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.engine.Run(ctx, a.config.InitialSyncDelay, a.config.SyncInterval)
		}()
	}

	printlnFn("Welcome to davmarks (type 'help' for commands)")
	runREPL(ctx, a, func() string { return a.statusLine(ctx) }, a.reader)
}

func (a *App) Close() error {
	a.tracker.Detach()
	return a.db.Close()
}
