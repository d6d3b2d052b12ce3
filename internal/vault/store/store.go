package store

import (
	"context"

	"keepsafe/internal/vault/models"
	dErrors "keepsafe/pkg/domain-errors"
)

// ErrNotFound keeps store-level 404s consistent across the in-memory and
// postgres implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// Store persists sectioned records, one per (owner, domain). Implementations
// must guarantee per-record atomicity for AppendItem and DeleteItemStrict;
// that is the only consistency the system relies on (no cross-record locks).
type Store interface {
	// Get returns the record or ErrNotFound. Absence of a record is a valid
	// state the service translates to an empty-sections shape.
	Get(ctx context.Context, ownerID, domain string) (*models.SectionedRecord, error)

	// Upsert replaces the record wholesale, creating it if absent.
	Upsert(ctx context.Context, record *models.SectionedRecord) error

	// AppendItem finds-or-creates the owner's record and appends item to the
	// named section in one atomic operation.
	AppendItem(ctx context.Context, ownerID, domain, section string, item models.LineItem) error

	// DeleteItemStrict removes the item in a single owner+id-filtered
	// operation, returning ErrNotFound when no record or no item matched.
	DeleteItemStrict(ctx context.Context, ownerID, domain, itemID string) error

	// DeleteRecord removes the whole per-owner record for a domain.
	DeleteRecord(ctx context.Context, ownerID, domain string) error

	// DeleteAllForOwner removes every domain record owned by ownerID.
	// Used by the admin cascade when an account is deleted.
	DeleteAllForOwner(ctx context.Context, ownerID string) error
}
