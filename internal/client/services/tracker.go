package services

import (
	"context"

	"github.com/dmitrijs2005/davmarks/internal/client/repositories/nodes"
	"github.com/dmitrijs2005/davmarks/internal/logging"
)

// DirtyMarker records that local bookmarks changed since the last transfer.
type DirtyMarker interface {
	MarkDirty(ctx context.Context) error
}

// Subscriber is the notification side of the local store.
type Subscriber interface {
	Subscribe(l nodes.Listener) func()
}

// ChangeTracker sets the dirty flag on every store mutation made while
// the suppressor is inactive.
type ChangeTracker struct {
	state      DirtyMarker
	suppressor *Suppressor
	log        logging.Logger

	unsubscribe func()
}

func NewChangeTracker(state DirtyMarker, suppressor *Suppressor, log logging.Logger) *ChangeTracker {
	return &ChangeTracker{state: state, suppressor: suppressor, log: log}
}

// Attach starts listening to store. Calling it again moves the tracker to
// the new store.
func (t *ChangeTracker) Attach(store Subscriber) {
	t.Detach()
	t.unsubscribe = store.Subscribe(t.Handle)
}

func (t *ChangeTracker) Detach() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

// Handle is the store listener.
func (t *ChangeTracker) Handle(ctx context.Context, ev nodes.Event) {
	if t.suppressor.Active() {
		t.log.Debug(ctx, "mutation ignored while suppressed", "op", ev.Op, "id", ev.ID)
		return
	}
	if err := t.state.MarkDirty(ctx); err != nil {
		t.log.Error(ctx, "failed to mark local bookmarks dirty", "op", ev.Op, "id", ev.ID, "error", err)
		return
	}
	t.log.Debug(ctx, "local bookmarks marked dirty", "op", ev.Op, "id", ev.ID)
}
