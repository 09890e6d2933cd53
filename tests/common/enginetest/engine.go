//go:build unit || e2e

// Package enginetest wires the approval use cases over the in-memory
// storage for tests that exercise them end to end without a database.
package enginetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/domain/target"
	"approval-engine/internal/domain/user"
	"approval-engine/internal/infra/audit"
	"approval-engine/internal/infra/memstore"
	"approval-engine/internal/infra/targetstore"
	"approval-engine/internal/pkg/clock"
	"approval-engine/internal/usecase/commands"
	"approval-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	RoleOperator approval.RoleID = 1
	RoleApprover approval.RoleID = 2
	RoleAuditor  approval.RoleID = 3
)

var StartedAt = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

type Engine struct {
	Store    *memstore.Store
	Users    *targetstore.MemoryUserStore
	Clock    *clock.MockClock
	Events   *Recorder
	Resolver *commands.AuthorizationResolver
	Requests commands.RequestCommands
	Respond  commands.RespondCommands
	Queries  queries.RequestQueries
}

func New(t *testing.T) *Engine {
	t.Helper()

	store := memstore.New()
	users := targetstore.NewMemoryUserStore()
	clk := clock.NewMockClock(StartedAt)
	registry, err := target.NewRegistry(targetstore.NewUserAdapter(users, clk))
	require.NoError(t, err)

	events := &Recorder{}
	engine := commands.NewExecutionEngine(registry)
	resolver := commands.NewAuthorizationResolver(store, store)
	publisher := commands.NewEventPublisher(events, audit.NewLog(store), clk)
	guard := approval.NewDuplicateGuard(approval.DefaultCreationExemptions())
	opts := commands.Options{CommentMaximum: approval.DefaultCommentMaximum}

	for id, name := range map[approval.RoleID]string{RoleOperator: "operator", RoleApprover: "approver", RoleAuditor: "auditor"} {
		require.NoError(t, store.UpsertRole(context.Background(), id, name))
	}

	return &Engine{
		Store:    store,
		Users:    users,
		Clock:    clk,
		Events:   events,
		Resolver: resolver,
		Requests: commands.NewRequestUseCase(store, resolver, engine, guard, publisher, clk, opts),
		Respond:  commands.NewRespondUseCase(store, resolver, engine, publisher, clk, opts),
		Queries:  queries.NewRequestQueries(memstore.NewReadStore(store), resolver, registry, store),
	}
}

// Grant configures the matrix row for (rt, scope).
func (e *Engine) Grant(t *testing.T, rt approval.RequestType, scope approval.AccessScope, makers, checkers []approval.RoleID) {
	t.Helper()

	var roles []approval.AccessControlRole
	for _, r := range makers {
		roles = append(roles, approval.AccessControlRole{RoleID: r, AccessType: approval.AccessMaker})
	}
	for _, r := range checkers {
		roles = append(roles, approval.AccessControlRole{RoleID: r, AccessType: approval.AccessChecker})
	}
	ac, err := approval.NewAccessControl(0, rt, scope, roles)
	require.NoError(t, err)
	_, err = e.Store.ReplaceAccessControl(context.Background(), ac)
	require.NoError(t, err)
}

// Member returns a new user id holding roles.
func (e *Engine) Member(t *testing.T, roles ...approval.RoleID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	for _, r := range roles {
		require.NoError(t, e.Store.AssignRole(context.Background(), id, r))
	}
	return id
}

// ManagedUser stores a target User and returns its id.
func (e *Engine) ManagedUser(t *testing.T, name, email string) int64 {
	t.Helper()

	u, err := user.FromAttributes(map[string]any{"name": name, "email": email}, e.Clock.Now())
	require.NoError(t, err)
	id, err := e.Users.Insert(context.Background(), u)
	require.NoError(t, err)
	return id
}

// Propose creates a request one second after the previous clock reading so
// listings have a stable order.
func (e *Engine) Propose(t *testing.T, in commands.CreateRequestInput) uuid.UUID {
	t.Helper()

	e.Clock.Add(time.Second)
	res, err := e.Requests.Create(context.Background(), in)
	require.NoError(t, err)
	return res.RequestID
}

// Recorder keeps every notified event in delivery order.
type Recorder struct {
	mu     sync.Mutex
	events []approval.Notification
}

func (r *Recorder) Notify(_ context.Context, evt approval.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *Recorder) Events() []approval.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]approval.Notification(nil), r.events...)
}

func (r *Recorder) Topics() []approval.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]approval.Topic, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Topic)
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
