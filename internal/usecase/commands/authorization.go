package commands

import (
	"context"
	"sort"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra"
	"approval-engine/internal/pkg/errs"
	"approval-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// AccessControlSource is the read side of the access-control matrix.
type AccessControlSource interface {
	AccessControl(ctx context.Context, rt approval.RequestType, scope approval.AccessScope) (*approval.AccessControl, error)
}

// AuthorizationResolver answers who may make and who may check a request.
// It always uses the request's own (type, scope) row, never an ancestor's.
type AuthorizationResolver struct {
	acl      AccessControlSource
	identity IdentityProvider
}

func NewAuthorizationResolver(uow shared.UnitOfWork, identity IdentityProvider) *AuthorizationResolver {
	return &AuthorizationResolver{acl: uow.CommandReads(), identity: identity}
}

// accessControl returns nil without error when no row is configured.
func (a *AuthorizationResolver) accessControl(ctx context.Context, rt approval.RequestType, scope approval.AccessScope) (*approval.AccessControl, error) {
	ac, err := a.acl.AccessControl(ctx, rt, scope)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) || errs.Is(err, approval.ErrAccessControlNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ac, nil
}

// UsersFor resolves the concrete users holding any role on the given side of the matrix.
func (a *AuthorizationResolver) UsersFor(ctx context.Context, rt approval.RequestType, scope approval.AccessScope, access approval.AccessType) ([]uuid.UUID, error) {
	ac, err := a.accessControl(ctx, rt, scope)
	if err != nil || ac == nil {
		return []uuid.UUID{}, err
	}

	seen := map[uuid.UUID]struct{}{}
	users := []uuid.UUID{}
	for _, role := range ac.Roles(access) {
		members, err := a.identity.UsersWithRole(ctx, role)
		if err != nil {
			return nil, errs.Wrapf(err, "resolve members of role %d", role)
		}
		for _, u := range members {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].String() < users[j].String() })
	return users, nil
}

func (a *AuthorizationResolver) ValidMakers(ctx context.Context, req *approval.Request) ([]uuid.UUID, error) {
	return a.UsersFor(ctx, req.RequestType(), req.AccessScope(), approval.AccessMaker)
}

func (a *AuthorizationResolver) ValidCheckers(ctx context.Context, req *approval.Request) ([]uuid.UUID, error) {
	return a.UsersFor(ctx, req.RequestType(), req.AccessScope(), approval.AccessChecker)
}

// holds reports whether userID has a role on the given side. It is equivalent
// to membership in UsersFor without expanding every role.
func (a *AuthorizationResolver) holds(ctx context.Context, rt approval.RequestType, scope approval.AccessScope, access approval.AccessType, userID uuid.UUID) (bool, error) {
	ac, err := a.accessControl(ctx, rt, scope)
	if err != nil || ac == nil {
		return false, err
	}
	roles, err := a.identity.RolesOf(ctx, userID)
	if err != nil {
		return false, errs.Wrapf(err, "resolve roles of user %s", userID)
	}
	return ac.Grants(access, roles), nil
}

func (a *AuthorizationResolver) UserCanMake(ctx context.Context, rt approval.RequestType, scope approval.AccessScope, userID uuid.UUID) (bool, error) {
	return a.holds(ctx, rt, scope, approval.AccessMaker, userID)
}

func (a *AuthorizationResolver) UserCanCheck(ctx context.Context, req *approval.Request, userID uuid.UUID) (bool, error) {
	return a.holds(ctx, req.RequestType(), req.AccessScope(), approval.AccessChecker, userID)
}

func (a *AuthorizationResolver) RequireMaker(ctx context.Context, rt approval.RequestType, scope approval.AccessScope, userID uuid.UUID) error {
	ok, err := a.UserCanMake(ctx, rt, scope, userID)
	if err != nil {
		return err
	}
	if !ok {
		return approval.NewAuthorizationError(userID, approval.AccessMaker, rt, scope)
	}
	return nil
}

func (a *AuthorizationResolver) RequireChecker(ctx context.Context, req *approval.Request, userID uuid.UUID) error {
	ok, err := a.UserCanCheck(ctx, req, userID)
	if err != nil {
		return err
	}
	if !ok {
		return approval.NewAuthorizationError(userID, approval.AccessChecker, req.RequestType(), req.AccessScope())
	}
	return nil
}
