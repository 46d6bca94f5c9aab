package metadata

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/davmarks/internal/client/models"
	"github.com/dmitrijs2005/davmarks/internal/common"
)

const (
	KeySyncState   = "sync_state"
	KeyCredentials = "credentials"
	KeyOptions     = "options"
	KeyStatus      = "status"
)

// State reads and writes the typed client records on top of a Repository.
// Missing records read as their zero value, except credentials, which
// report common.ErrorNotFound.
type State struct {
	repo Repository
}

func NewState(repo Repository) *State {
	return &State{repo: repo}
}

func (s *State) SyncState(ctx context.Context) (models.SyncState, error) {
	var st models.SyncState
	_, err := s.load(ctx, KeySyncState, &st)
	return st, err
}

func (s *State) SaveSyncState(ctx context.Context, st models.SyncState) error {
	return s.save(ctx, KeySyncState, st)
}

// MarkDirty sets LocalDirty and bumps DirtyGen without touching the
// timestamp. A concurrent SaveSyncState is never overwritten with a stale
// copy.
func (s *State) MarkDirty(ctx context.Context) error {
	return s.updateSyncState(ctx, func(st *models.SyncState) {
		st.LocalDirty = true
		st.DirtyGen++
	})
}

// CommitTransfer records a finished upload or download against the state
// snapshot read before it started. The dirty flag is cleared only when no
// edit was marked since then.
func (s *State) CommitTransfer(ctx context.Context, snapshot models.SyncState, remote int64) (models.SyncState, error) {
	var out models.SyncState
	err := s.updateSyncState(ctx, func(st *models.SyncState) {
		st.LastKnownServerTimestamp = remote
		st.LocalDirty = st.DirtyGen != snapshot.DirtyGen
		out = *st
	})
	return out, err
}

func (s *State) updateSyncState(ctx context.Context, fn func(st *models.SyncState)) error {
	return s.repo.Update(ctx, KeySyncState, func(old []byte) ([]byte, error) {
		var st models.SyncState
		if old != nil {
			if err := json.Unmarshal(old, &st); err != nil {
				return nil, fmt.Errorf("failed to decode metadata[%s]: %w", KeySyncState, err)
			}
		}
		fn(&st)
		return json.Marshal(st)
	})
}

func (s *State) Credentials(ctx context.Context) (models.Credentials, error) {
	var c models.Credentials
	found, err := s.load(ctx, KeyCredentials, &c)
	if err != nil {
		return c, err
	}
	if !found {
		return c, fmt.Errorf("credentials: %w", common.ErrorNotFound)
	}
	return c, nil
}

func (s *State) SaveCredentials(ctx context.Context, c models.Credentials) error {
	return s.save(ctx, KeyCredentials, c)
}

func (s *State) Options(ctx context.Context) (models.Options, error) {
	var o models.Options
	_, err := s.load(ctx, KeyOptions, &o)
	return o, err
}

func (s *State) SaveOptions(ctx context.Context, o models.Options) error {
	return s.save(ctx, KeyOptions, o)
}

func (s *State) Status(ctx context.Context) (models.Status, error) {
	var st models.Status
	_, err := s.load(ctx, KeyStatus, &st)
	return st, err
}

func (s *State) SaveStatus(ctx context.Context, st models.Status) error {
	return s.save(ctx, KeyStatus, st)
}

func (s *State) load(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode metadata[%s]: %w", key, err)
	}
	return true, nil
}

func (s *State) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode metadata[%s]: %w", key, err)
	}
	return s.repo.Set(ctx, key, raw)
}
