package sync

import (
	"context"

	"consultancy_site_backend/internal/crm"

	"github.com/google/uuid"
)

// target is a plain-value Target used by repositories that prefer passing a
// save closure over defining their own adapter type.
type target struct {
	id      uuid.UUID
	kind    string
	profile crm.Profile
	rec     Record
	save    func(ctx context.Context, rec Record) error
}

// NewTarget builds a Target from an entity snapshot and a persistence closure.
func NewTarget(id uuid.UUID, kind string, profile crm.Profile, rec Record, save func(ctx context.Context, rec Record) error) Target {
	return &target{id: id, kind: kind, profile: profile, rec: rec, save: save}
}

func (t *target) SyncID() uuid.UUID    { return t.id }
func (t *target) Kind() string         { return t.kind }
func (t *target) Profile() crm.Profile { return t.profile }
func (t *target) Sync() Record         { return t.rec }

func (t *target) SaveSync(ctx context.Context, rec Record) error {
	t.rec = rec
	return t.save(ctx, rec)
}

// claimedTarget additionally claims the row in shared storage before syncing.
type claimedTarget struct {
	target
	claim func(ctx context.Context) (bool, error)
}

// NewClaimedTarget builds a Target whose pending transition is a conditional
// row claim, so two processes never sync the same entity at once.
func NewClaimedTarget(id uuid.UUID, kind string, profile crm.Profile, rec Record,
	save func(ctx context.Context, rec Record) error,
	claim func(ctx context.Context) (bool, error),
) Target {
	return &claimedTarget{
		target: target{id: id, kind: kind, profile: profile, rec: rec, save: save},
		claim:  claim,
	}
}

func (t *claimedTarget) ClaimSync(ctx context.Context) (bool, error) {
	claimed, err := t.claim(ctx)
	if err == nil && claimed {
		t.rec.Status = StatusPending
	}
	return claimed, err
}
