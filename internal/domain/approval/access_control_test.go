//go:build unit

package approval_test

import (
	"testing"

	"approval-engine/internal/domain/approval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roles(makers, checkers []approval.RoleID) []approval.AccessControlRole {
	var out []approval.AccessControlRole
	for _, id := range makers {
		out = append(out, approval.AccessControlRole{RoleID: id, AccessType: approval.AccessMaker})
	}
	for _, id := range checkers {
		out = append(out, approval.AccessControlRole{RoleID: id, AccessType: approval.AccessChecker})
	}
	return out
}

func TestNewAccessControl(t *testing.T) {
	t.Run("基本成功ケース", func(t *testing.T) {
		ac, err := approval.NewAccessControl(1, approval.RequestTypeLockUser, approval.ScopeSystem,
			roles([]approval.RoleID{3, 1, 1}, []approval.RoleID{2}))
		require.NoError(t, err)

		assert.Equal(t, []approval.RoleID{1, 3}, ac.MakerRoles())
		assert.Equal(t, []approval.RoleID{2}, ac.CheckerRoles())
		assert.Equal(t, ac.CheckerRoles(), ac.Roles(approval.AccessChecker))
		assert.True(t, ac.Grants(approval.AccessMaker, []approval.RoleID{9, 3}))
		assert.False(t, ac.Grants(approval.AccessChecker, []approval.RoleID{1, 3}))
	})

	t.Run("makerとcheckerの重複NG", func(t *testing.T) {
		_, err := approval.NewAccessControl(1, approval.RequestTypeLockUser, approval.ScopeSystem,
			roles([]approval.RoleID{1, 2}, []approval.RoleID{2}))
		require.ErrorIs(t, err, approval.ErrOverlappingRoles)
	})

	t.Run("無効なキーNG", func(t *testing.T) {
		_, err := approval.NewAccessControl(1, "nope", "nowhere", nil)
		require.ErrorIs(t, err, approval.ErrValidation)
		assert.ElementsMatch(t, []string{"request_type", "access_scope"}, fieldsOf(t, err))
	})
}

func TestMatrix(t *testing.T) {
	lock, err := approval.NewAccessControl(1, approval.RequestTypeLockUser, approval.ScopeSystem, roles([]approval.RoleID{1}, []approval.RoleID{2}))
	require.NoError(t, err)
	lockMerchant, err := approval.NewAccessControl(2, approval.RequestTypeLockUser, approval.ScopeMerchant, roles([]approval.RoleID{3}, []approval.RoleID{4}))
	require.NoError(t, err)

	m, err := approval.NewMatrix(lock, lockMerchant)
	require.NoError(t, err)

	got, ok := m.Lookup(approval.RequestTypeLockUser, approval.ScopeMerchant)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.ID())

	_, ok = m.Lookup(approval.RequestTypeUnlockUser, approval.ScopeSystem)
	assert.False(t, ok)
	assert.Len(t, m.Rows(), 2)

	_, err = approval.NewMatrix(lock, lock)
	require.ErrorIs(t, err, approval.ErrDuplicateAccessKey)
}
