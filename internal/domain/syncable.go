package domain

import "time"

// SyncStatus tracks whether a local record has been confirmed by the remote store.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending" // Mutated locally, not yet confirmed remotely
	SyncSynced  SyncStatus = "synced"  // Local copy matches the last confirmed remote state
)

// Syncable provides the common fields for every locally-owned entity that participates
// in synchronization. It gets embedded in the domain types, so its fields are flattened
// into the stored JSON.
type Syncable struct {
	ID         string     `json:"id"`
	SyncStatus SyncStatus `json:"syncStatus"`
	UpdatedAt  int64      `json:"updatedAt"`           // Epoch millis of the last local mutation
	DeletedAt  *int64     `json:"deletedAt,omitempty"` // Epoch millis, set on soft delete
	// Revision counts local mutations. Two versions of a record differ exactly when
	// their revisions do, even if they were stamped in the same millisecond.
	Revision int64 `json:"revision,omitempty"`
	// SyncedAt is set the first time the remote store acknowledges the record.
	// A record without it has never reached the remote store.
	SyncedAt *int64 `json:"syncedAt,omitempty"`
}

// Record is implemented by every entity that embeds Syncable.
type Record interface {
	SyncState() *Syncable
}

// SyncState gives generic code access to the embedded sync fields.
func (s *Syncable) SyncState() *Syncable {
	return s
}

// Touch stamps a local mutation: the record becomes pending again.
func (s *Syncable) Touch(now time.Time) {
	s.UpdatedAt = now.UnixMilli()
	s.Revision++
	s.SyncStatus = SyncPending
}

// MarkDeleted soft-deletes the record. The deletion itself still has to be synced.
func (s *Syncable) MarkDeleted(now time.Time) {
	ts := now.UnixMilli()
	s.DeletedAt = &ts
	s.UpdatedAt = ts
	s.Revision++
	s.SyncStatus = SyncPending
}

// MarkSynced records a confirmed remote persistence.
func (s *Syncable) MarkSynced(now time.Time) {
	ts := now.UnixMilli()
	s.SyncedAt = &ts
	s.SyncStatus = SyncSynced
}

func (s *Syncable) IsDeleted() bool {
	return s.DeletedAt != nil
}

func (s *Syncable) IsPending() bool {
	return s.SyncStatus == SyncPending
}

// KnownRemotely reports whether the remote store has ever acknowledged this record.
func (s *Syncable) KnownRemotely() bool {
	return s.SyncedAt != nil
}
