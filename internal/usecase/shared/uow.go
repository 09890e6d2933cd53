package shared

import (
	"context"
	"time"

	"approval-engine/internal/domain/approval"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic.
	// fn may run more than once and must not leak state between attempts.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Requests() RequestRepository
	Reads() CommandReads
}

type CommandReads interface {
	RequestByID(ctx context.Context, id uuid.UUID) (*approval.Request, error)
	// RequestForUpdate loads the request and, inside a transaction, holds a
	// row lock on it until commit.
	RequestForUpdate(ctx context.Context, id uuid.UUID) (*approval.Request, error)
	// PendingRequestsTargeting returns pending requests of type rt with an item on any of targets.
	PendingRequestsTargeting(ctx context.Context, rt approval.RequestType, targets []approval.Target) ([]approval.PendingRequest, error)
	// AncestorIDs walks parent links upwards from id, id itself first.
	AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	AccessControl(ctx context.Context, rt approval.RequestType, scope approval.AccessScope) (*approval.AccessControl, error)
}

type RequestRepository interface {
	// Create inserts the request together with its items and comments.
	Create(ctx context.Context, req *approval.Request) error
	// Save writes state, responder, execution time, new comments and
	// resolved item targets. It fails with AlreadyPerformed when the stored
	// state no longer matches req.PersistedState().
	Save(ctx context.Context, req *approval.Request) error
	// HideRelatives hides the family's parent and every other child still displayed.
	HideRelatives(ctx context.Context, family approval.Family) (int64, error)
}

// AuditEntry is handed to the audit hook after a mutation commits.
type AuditEntry struct {
	RequestID  uuid.UUID
	Action     approval.Topic
	ActorID    uuid.UUID
	Before     *approval.Snapshot
	After      approval.Snapshot
	RecordedAt time.Time
}
