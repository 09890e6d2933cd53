//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/infra/memstore"
	"approval-engine/internal/usecase/commands"
	"approval-engine/tests/common/builder"
	"approval-engine/tests/common/enginetest"
	commandsmock "approval-engine/tests/mock/commands"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthorizationResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("ロールの持ち主をまとめて返す", func(t *testing.T) {
		e := enginetest.New(t)
		e.Grant(t, renameUser, system,
			[]approval.RoleID{enginetest.RoleOperator},
			[]approval.RoleID{enginetest.RoleApprover, enginetest.RoleAuditor})
		op := e.Member(t, enginetest.RoleOperator)
		both := e.Member(t, enginetest.RoleApprover, enginetest.RoleAuditor)
		auditor := e.Member(t, enginetest.RoleAuditor)

		makers, err := e.Resolver.UsersFor(ctx, renameUser, system, approval.AccessMaker)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{op}, makers)

		checkers, err := e.Resolver.UsersFor(ctx, renameUser, system, approval.AccessChecker)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{both, auditor}, checkers)
		assert.Len(t, checkers, 2)
	})

	t.Run("権限表に行が無ければ空", func(t *testing.T) {
		e := enginetest.New(t)

		users, err := e.Resolver.UsersFor(ctx, renameUser, approval.ScopeTerminal, approval.AccessChecker)

		require.NoError(t, err)
		assert.Empty(t, users)
		assert.NotNil(t, users)
	})

	t.Run("リクエスト自身の種別とスコープで判定する", func(t *testing.T) {
		e := enginetest.New(t)
		e.Grant(t, renameUser, approval.ScopeMerchant, []approval.RoleID{enginetest.RoleOperator}, []approval.RoleID{enginetest.RoleApprover})
		checker := e.Member(t, enginetest.RoleApprover)
		req, err := builder.NewRequestBuilder().BuildDomain()
		require.NoError(t, err)

		ok, err := e.Resolver.UserCanCheck(ctx, req, checker)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ID基盤の失敗は伝播する", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		identity := commandsmock.NewMockIdentityProvider(ctrl)
		store := memstore.New()
		ac, err := approval.NewAccessControl(0, renameUser, system, []approval.AccessControlRole{
			{RoleID: enginetest.RoleOperator, AccessType: approval.AccessMaker},
		})
		require.NoError(t, err)
		_, err = store.ReplaceAccessControl(ctx, ac)
		require.NoError(t, err)

		boom := errors.New("directory unavailable")
		identity.EXPECT().RolesOf(gomock.Any(), gomock.Any()).Return(nil, boom)
		identity.EXPECT().UsersWithRole(gomock.Any(), enginetest.RoleOperator).Return(nil, boom)

		resolver := commands.NewAuthorizationResolver(store, identity)
		err = resolver.RequireMaker(ctx, renameUser, system, uuid.New())
		require.ErrorIs(t, err, boom)
		_, err = resolver.UsersFor(ctx, renameUser, system, approval.AccessMaker)
		require.ErrorIs(t, err, boom)
	})

	t.Run("重複なく並べて返す", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		identity := commandsmock.NewMockIdentityProvider(ctrl)
		store := memstore.New()
		ac, err := approval.NewAccessControl(0, renameUser, system, []approval.AccessControlRole{
			{RoleID: enginetest.RoleApprover, AccessType: approval.AccessChecker},
			{RoleID: enginetest.RoleAuditor, AccessType: approval.AccessChecker},
		})
		require.NoError(t, err)
		_, err = store.ReplaceAccessControl(ctx, ac)
		require.NoError(t, err)

		a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
		b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
		identity.EXPECT().UsersWithRole(gomock.Any(), enginetest.RoleApprover).Return([]uuid.UUID{b, a}, nil)
		identity.EXPECT().UsersWithRole(gomock.Any(), enginetest.RoleAuditor).Return([]uuid.UUID{a}, nil)

		got, err := commands.NewAuthorizationResolver(store, identity).UsersFor(ctx, renameUser, system, approval.AccessChecker)

		require.NoError(t, err)
		if diff := cmp.Diff([]uuid.UUID{a, b}, got); diff != "" {
			t.Errorf("checkers mismatch (-want +got):\n%s", diff)
		}
	})
}
