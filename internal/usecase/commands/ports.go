package commands

import (
	"context"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// IdentityProvider resolves role membership held outside the engine.
type IdentityProvider interface {
	RolesOf(ctx context.Context, userID uuid.UUID) ([]approval.RoleID, error)
	UsersWithRole(ctx context.Context, roleID approval.RoleID) ([]uuid.UUID, error)
}

// Notifier receives one event per committed mutation. Delivery is the
// notifier's concern; it cannot fail the mutation.
type Notifier interface {
	Notify(ctx context.Context, evt approval.Notification)
}

// AuditHook appends before/after snapshots once a mutation has committed.
type AuditHook interface {
	Record(ctx context.Context, entry shared.AuditEntry) error
}
