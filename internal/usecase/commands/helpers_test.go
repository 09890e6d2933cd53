//go:build unit

package commands_test

import (
	"errors"
	"testing"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/pkg/ptr"
	"approval-engine/internal/usecase/commands"
	"approval-engine/tests/common/enginetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	renameUser = approval.RequestTypeUpdateUserInformation
	system     = approval.ScopeSystem
)

// fixture is an engine with update_user_information/system granted to an
// operator maker and an approver checker.
type fixture struct {
	*enginetest.Engine
	maker   uuid.UUID
	checker uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	e := enginetest.New(t)
	e.Grant(t, renameUser, system, []approval.RoleID{enginetest.RoleOperator}, []approval.RoleID{enginetest.RoleApprover})
	return &fixture{
		Engine:  e,
		maker:   e.Member(t, enginetest.RoleOperator),
		checker: e.Member(t, enginetest.RoleApprover),
	}
}

func userTarget(id int64, params map[string]any) commands.TargetInput {
	return commands.TargetInput{TargetType: "User", TargetID: ptr.Of(id), Params: params}
}

func (f *fixture) rename(id int64, name string) commands.CreateRequestInput {
	return commands.RequestForUpdate(f.maker, "rename after marriage", renameUser, system,
		userTarget(id, map[string]any{"name": name}))
}

func engineError(t *testing.T, err error) *approval.Error {
	t.Helper()
	var e *approval.Error
	require.True(t, errors.As(err, &e), "expected *approval.Error, got %T: %v", err, err)
	return e
}
