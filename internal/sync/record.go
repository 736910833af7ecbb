// Package sync drives CRM synchronization of contact submissions and users.
// The engine owns every SyncRecord transition; no other component writes
// status, external_id or last_error directly.
package sync

import "time"

// Status is the CRM sync lifecycle state of an entity. It is orthogonal to
// any business workflow status the owning entity may carry.
type Status string

const (
	// StatusUnsynced means the entity has never been pushed to the CRM.
	StatusUnsynced Status = "unsynced"
	// StatusPending means a sync is currently in flight.
	StatusPending Status = "pending"
	// StatusSynced means the last sync attempt succeeded.
	StatusSynced Status = "synced"
	// StatusFailed means the last sync attempt failed; LastError holds the
	// diagnostic.
	StatusFailed Status = "failed"
)

// Record is the sync sub-record attached to a contact submission or user.
//
// ExternalID is never cleared once set: it marks "this record has a known CRM
// twin", even if a later sync attempt failed and the twin is now stale.
type Record struct {
	Status     Status
	ExternalID *string
	LastError  *string
	SyncedAt   *time.Time
}

// NewRecord returns the initial sync state for a freshly persisted entity.
func NewRecord() Record {
	return Record{Status: StatusUnsynced}
}

// HasTwin reports whether the entity has ever been synced to the CRM.
func (r Record) HasTwin() bool {
	return r.ExternalID != nil && *r.ExternalID != ""
}
