package matrix

import (
	"context"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// SyncStateStore persists the sync position so a restart resumes where the
// previous run stopped. store.Store implements it.
type SyncStateStore interface {
	SyncState(ctx context.Context, account, key string) (string, error)
	SetSyncState(ctx context.Context, account, key, value string) error
}

const (
	syncKeyFilter    = "filter_id"
	syncKeyNextBatch = "next_batch"
)

// persistentSyncStore adapts a SyncStateStore to mautrix.SyncStore.
type persistentSyncStore struct {
	state SyncStateStore
}

var _ mautrix.SyncStore = persistentSyncStore{}

func (p persistentSyncStore) SaveFilterID(ctx context.Context, userID id.UserID, filterID string) error {
	return p.state.SetSyncState(ctx, userID.String(), syncKeyFilter, filterID)
}

func (p persistentSyncStore) LoadFilterID(ctx context.Context, userID id.UserID) (string, error) {
	return p.state.SyncState(ctx, userID.String(), syncKeyFilter)
}

func (p persistentSyncStore) SaveNextBatch(ctx context.Context, userID id.UserID, token string) error {
	return p.state.SetSyncState(ctx, userID.String(), syncKeyNextBatch, token)
}

func (p persistentSyncStore) LoadNextBatch(ctx context.Context, userID id.UserID) (string, error) {
	return p.state.SyncState(ctx, userID.String(), syncKeyNextBatch)
}
