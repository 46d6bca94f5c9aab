// Package services contains the application services of the davmarks
// client: the sync engine, the importer that rebuilds downloaded trees in
// the local store, the change tracker and the credential service.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/davmarks/internal/bookmarks"
	"github.com/dmitrijs2005/davmarks/internal/client/client"
	"github.com/dmitrijs2005/davmarks/internal/client/models"
	"github.com/dmitrijs2005/davmarks/internal/common"
	"github.com/dmitrijs2005/davmarks/internal/logging"
	"github.com/dmitrijs2005/davmarks/internal/netscape"
	"github.com/dmitrijs2005/davmarks/internal/timex"
)

// DefaultDebounce is how long a completed download suppresses another
// download of the same remote version.
const DefaultDebounce = 20 * time.Second

// Decide picks the transfer direction from the remote file's modification
// time and the local sync state. A newer remote always wins, even over
// unsynced local edits.
func Decide(remoteModTime int64, st models.SyncState) models.Action {
	switch {
	case remoteModTime > st.LastKnownServerTimestamp:
		return models.ActionDownload
	case st.LocalDirty:
		return models.ActionUpload
	default:
		return models.ActionNoOp
	}
}

// StateStore persists what the engine needs between runs.
type StateStore interface {
	SyncState(ctx context.Context) (models.SyncState, error)
	CommitTransfer(ctx context.Context, snapshot models.SyncState, remote int64) (models.SyncState, error)
	Options(ctx context.Context) (models.Options, error)
	SaveStatus(ctx context.Context, st models.Status) error
}

// Connector opens a transport with the saved credentials.
type Connector func(ctx context.Context) (client.Client, error)

// Result describes what a sync run did.
type Result struct {
	Action        models.Action
	RemoteModTime int64
	// Debounced is set when a download was skipped because the same
	// remote version was fetched moments ago.
	Debounced bool
	// Seeded is set when the remote file did not exist and was created.
	Seeded bool
	Import ImportReport
}

// SyncEngine moves the bookmark file between the local store and the
// remote. Runs are serialised; a second request waits for the first.
type SyncEngine struct {
	connect    Connector
	store      BookmarkStore
	state      StateStore
	importer   *Importer
	suppressor *Suppressor
	log        logging.Logger

	sem      *semaphore.Weighted
	clock    timex.Clock
	debounce time.Duration

	// guarded by sem
	lastDownloadAt     time.Time
	lastDownloadRemote int64
}

// EngineOption adjusts a SyncEngine.
type EngineOption func(*SyncEngine)

// WithClock replaces time.Now for the debounce window and status timestamps.
func WithClock(c timex.Clock) EngineOption {
	return func(e *SyncEngine) { e.clock = c }
}

// WithDebounce sets how long a fetched remote version is not downloaded again.
func WithDebounce(d time.Duration) EngineOption {
	return func(e *SyncEngine) { e.debounce = d }
}

func NewSyncEngine(connect Connector, store BookmarkStore, state StateStore, importer *Importer,
	suppressor *Suppressor, log logging.Logger, opts ...EngineOption) *SyncEngine {
	e := &SyncEngine{
		connect:    connect,
		store:      store,
		state:      state,
		importer:   importer,
		suppressor: suppressor,
		log:        log,
		sem:        semaphore.NewWeighted(1),
		clock:      time.Now,
		debounce:   DefaultDebounce,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Sync runs one decision and its transfer. Any failure leaves the sync
// state as it was.
func (e *SyncEngine) Sync(ctx context.Context) (Result, error) {
	return e.serialised(ctx, func(ctx context.Context, c client.Client) (Result, error) {
		st, err := e.state.SyncState(ctx)
		if err != nil {
			return Result{}, err
		}

		remote, err := c.ModTime(ctx)
		if errors.Is(err, common.ErrorNotFound) {
			e.log.Info(ctx, "remote file missing, seeding it")
			res, err := e.upload(ctx, c, st)
			res.Seeded = true
			return res, err
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to read remote modification time: %w", err)
		}

		action := Decide(remote, st)
		e.log.Debug(ctx, "sync decision", "action", action, "remote", remote,
			"last_known", st.LastKnownServerTimestamp, "dirty", st.LocalDirty)

		switch action {
		case models.ActionDownload:
			if e.recentlyDownloaded(remote) {
				e.log.Debug(ctx, "download debounced", "remote", remote)
				return Result{Action: models.ActionNoOp, RemoteModTime: remote, Debounced: true}, nil
			}
			return e.download(ctx, c, st, remote)
		case models.ActionUpload:
			return e.upload(ctx, c, st)
		default:
			return Result{Action: models.ActionNoOp, RemoteModTime: remote}, nil
		}
	})
}

// Upload pushes the local bookmarks regardless of the decision.
func (e *SyncEngine) Upload(ctx context.Context) (Result, error) {
	return e.serialised(ctx, func(ctx context.Context, c client.Client) (Result, error) {
		st, err := e.state.SyncState(ctx)
		if err != nil {
			return Result{}, err
		}
		return e.upload(ctx, c, st)
	})
}

// Download replaces the local bookmarks with the remote file regardless of
// the decision.
func (e *SyncEngine) Download(ctx context.Context) (Result, error) {
	return e.serialised(ctx, func(ctx context.Context, c client.Client) (Result, error) {
		st, err := e.state.SyncState(ctx)
		if err != nil {
			return Result{}, err
		}
		return e.download(ctx, c, st, 0)
	})
}

// Run syncs once after delay and then every interval until ctx ends.
// Failures are logged and retried on the next tick.
func (e *SyncEngine) Run(ctx context.Context, delay, interval time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		res, err := e.Sync(ctx)
		if err != nil && ctx.Err() == nil {
			e.log.Warn(ctx, "periodic sync failed", "error", err)
		} else if err == nil {
			e.log.Debug(ctx, "periodic sync finished", "action", res.Action)
		}
		timer.Reset(interval)
	}
}

func (e *SyncEngine) serialised(ctx context.Context, fn func(context.Context, client.Client) (Result, error)) (Result, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer e.sem.Release(1)

	res, err := e.withClient(ctx, fn)
	e.recordStatus(ctx, res, err)
	return res, err
}

func (e *SyncEngine) withClient(ctx context.Context, fn func(context.Context, client.Client) (Result, error)) (Result, error) {
	c, err := e.connect(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = c.Close() }()

	return fn(ctx, c)
}

// upload encodes and pushes the local bookmarks. snapshot is the sync state
// read before the local tree, so edits made meanwhile stay dirty.
func (e *SyncEngine) upload(ctx context.Context, c client.Client, snapshot models.SyncState) (Result, error) {
	tree, err := e.store.GetTree(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read local bookmarks: %w", err)
	}
	opts, err := e.state.Options(ctx)
	if err != nil {
		return Result{}, err
	}

	var html string
	if opts.OnlyMainFolder {
		html = netscape.Encode(tree, netscape.EncodeOptions{OnlyMainFolder: true})
	} else {
		html = netscape.Encode(bookmarks.Tree(bookmarks.Syncable(tree)), netscape.EncodeOptions{})
	}

	mod, err := c.Upload(ctx, []byte(html))
	if err != nil {
		return Result{}, fmt.Errorf("upload failed: %w", err)
	}
	if mod == 0 {
		mod, err = c.ModTime(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("failed to read modification time after upload: %w", err)
		}
	}

	st, err := e.state.CommitTransfer(ctx, snapshot, mod)
	if err != nil {
		return Result{}, err
	}
	if st.LocalDirty {
		e.log.Info(ctx, "local bookmarks changed during upload, keeping them dirty")
	}

	e.log.Info(ctx, "bookmarks uploaded", "bytes", len(html), "remote", mod)
	return Result{Action: models.ActionUpload, RemoteModTime: mod}, nil
}

// download fetches, decodes and imports the remote file. hint is the
// modification time seen by the decision, used when GET does not report
// one.
func (e *SyncEngine) download(ctx context.Context, c client.Client, snapshot models.SyncState, hint int64) (Result, error) {
	body, mod, err := c.Download(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("download failed: %w", err)
	}
	if mod == 0 {
		mod = hint
	}
	if mod == 0 {
		if mod, err = c.ModTime(ctx); err != nil {
			return Result{}, fmt.Errorf("failed to read modification time after download: %w", err)
		}
	}

	opts, err := e.state.Options(ctx)
	if err != nil {
		return Result{}, err
	}

	dopts := netscape.DecodeOptions{OnlyMainFolder: opts.OnlyMainFolder}
	if opts.OnlyMainFolder {
		if dopts.LocalTree, err = e.store.GetTree(ctx); err != nil {
			return Result{}, fmt.Errorf("failed to read local bookmarks: %w", err)
		}
	}

	tree, err := netscape.Decode(string(body), dopts)
	if err != nil {
		return Result{}, err
	}
	top := []bookmarks.Node(tree)
	if opts.OnlyMainFolder {
		top = bookmarks.Syncable(tree)
	}

	rep, err := e.replace(ctx, top)
	if err != nil {
		return Result{}, err
	}

	st, err := e.state.CommitTransfer(ctx, snapshot, mod)
	if err != nil {
		return Result{}, err
	}
	if st.LocalDirty {
		e.log.Info(ctx, "local bookmarks changed during download, keeping them dirty")
	}
	e.lastDownloadAt = e.clock()
	e.lastDownloadRemote = mod

	e.log.Info(ctx, "bookmarks downloaded", "bytes", len(body), "remote", mod, "created", rep.Created, "skipped", rep.Skipped)
	return Result{Action: models.ActionDownload, RemoteModTime: mod, Import: rep}, nil
}

func (e *SyncEngine) replace(ctx context.Context, top []bookmarks.Node) (ImportReport, error) {
	tok := e.suppressor.Acquire()
	defer tok.Release()

	return e.importer.ReplaceAll(ctx, top)
}

func (e *SyncEngine) recentlyDownloaded(remote int64) bool {
	if e.lastDownloadAt.IsZero() || remote != e.lastDownloadRemote {
		return false
	}
	return e.clock().Sub(e.lastDownloadAt) < e.debounce
}

func (e *SyncEngine) recordStatus(ctx context.Context, res Result, err error) {
	st := models.Status{LastAction: res.Action, At: e.clock()}
	if err != nil {
		st.LastError = err.Error()
	}
	if serr := e.state.SaveStatus(ctx, st); serr != nil {
		e.log.Warn(ctx, "failed to save sync status", "error", serr)
	}
}
