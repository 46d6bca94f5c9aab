// Package models defines the client-side records persisted in the local
// database and passed between services and the CLI.
package models

import "time"

// SyncState is what the sync engine remembers between runs.
type SyncState struct {
	// LastKnownServerTimestamp is the remote file's modification time, in
	// Unix seconds, as of the last successful transfer. Zero means never.
	LastKnownServerTimestamp int64 `json:"last_known_server_timestamp"`

	// LocalDirty is set by local edits and cleared by a successful transfer.
	LocalDirty bool `json:"local_dirty"`

	// DirtyGen counts local edits. A transfer clears LocalDirty only if no
	// edit arrived after it read the state.
	DirtyGen uint64 `json:"dirty_gen"`
}

// Options are the user-facing sync settings.
type Options struct {
	// OnlyMainFolder limits sync to the toolbar folder. Default false.
	OnlyMainFolder bool `json:"only_main_folder"`
}

// Action is the outcome a sync decision settles on.
type Action string

const (
	ActionNoOp     Action = "noop"
	ActionUpload   Action = "upload"
	ActionDownload Action = "download"
)

// Status is the informational summary shown next to the prompt.
type Status struct {
	LastAction Action    `json:"last_action"`
	LastError  string    `json:"last_error,omitempty"`
	At         time.Time `json:"at"`
}
