// Package audit records who did what to which record. Events are redacted by
// construction: they carry identifiers and actions, never document field
// contents, so the audit trail is safe to retain and to log.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"keepsafe/pkg/requestcontext"
)

// Actions recorded by the vault and account services.
const (
	ActionVaultAdd          = "vault.add"
	ActionVaultReplace      = "vault.replace"
	ActionVaultDeleteItem   = "vault.delete_item"
	ActionVaultDeleteRecord = "vault.delete_record"
	ActionLogin             = "auth.login"
	ActionLoginFailed       = "auth.login_failed"
	ActionPasswordChanged   = "auth.password_changed"
	ActionAccountCreated    = "auth.account_created"
	ActionAccountRenewed    = "auth.account_renewed"
	ActionAdminDeleteUser   = "admin.delete_user"
)

// Event is one audit entry.
type Event struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actorId"`
	Action    string    `json:"action"`
	Domain    string    `json:"domain,omitempty"`
	ItemID    string    `json:"itemId,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	ClientIP  string    `json:"clientIp,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	At        time.Time `json:"at"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// NewEvent fills the request-scoped metadata from ctx.
func NewEvent(ctx context.Context, actorID, action string) Event {
	return Event{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
		At:        requestcontext.Now(ctx),
	}
}
