//go:build e2e

package approval_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	reqdto "approval-engine/internal/handler/dto/request"
	resdto "approval-engine/internal/handler/dto/response"
	"approval-engine/tests/common/authtest"
	"approval-engine/tests/common/dbtest"
	"approval-engine/tests/common/httptest"
	"approval-engine/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	requestsURL = "/api/requests"
	requestURL  = "/api/requests/%s"
	approveURL  = "/api/requests/%s/approve"
	rejectURL   = "/api/requests/%s/reject"
	historyURL  = "/api/requests/%s/history"
)

type ApprovalSuite struct {
	e2e.SharedSuite
}

func (s *ApprovalSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestApprovalSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(ApprovalSuite))
}

type actors struct {
	makerToken   string
	checkerToken string
	checkerID    uuid.UUID
}

// setupActors grants operator/approver on update_user_information in the
// system scope and returns tokens for one maker and one checker.
func (s *ApprovalSuite) setupActors(t *testing.T) actors {
	t.Helper()
	dbtest.GrantAccess(t, s.DB, "update_user_information", "system",
		[]int64{dbtest.RoleOperator}, []int64{dbtest.RoleApprover})

	maker := dbtest.CreateUserWithRoles(t, s.DB, dbtest.RoleOperator)
	checker := dbtest.CreateUserWithRoles(t, s.DB, dbtest.RoleApprover)
	jwt := authtest.NewJWTHelper(s.Config.JWT)
	return actors{
		makerToken:   jwt.GenerateToken(t, maker),
		checkerToken: jwt.GenerateToken(t, checker),
		checkerID:    checker,
	}
}

func renameBody(userID int64, name string) reqdto.CreateRequestRequest {
	return reqdto.CreateRequestRequest{
		Event:       "update",
		RequestType: "update_user_information",
		AccessScope: "system",
		Reason:      "rename after marriage",
		Targets: []reqdto.TargetRequest{{
			TargetType: "User",
			TargetID:   &userID,
			Params:     map[string]any{"name": name},
		}},
	}
}

func (s *ApprovalSuite) managedUserName(t *testing.T, id int64) string {
	t.Helper()
	var name string
	err := s.DB.QueryRow(context.Background(), "SELECT name FROM managed_users WHERE id = $1", id).Scan(&name)
	require.NoError(t, err)
	return name
}

// =============================================================================
// TestApproveAndExecute - maker proposes, checker approves, change is applied
// =============================================================================

func (s *ApprovalSuite) TestApproveAndExecute() {
	s.Run("Normal case: approval executes the change", func() {
		t := s.T()
		a := s.setupActors(t)
		userID := dbtest.CreateManagedUser(t, s.DB, "Ada", "ada@example.com")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, requestsURL, renameBody(userID, "Ada Lovelace"), a.makerToken)
		var created resdto.RequestResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		require.Equal(t, "pending", created.State)
		require.Equal(t, "Ada", s.managedUserName(t, userID), "nothing changes before approval")

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(approveURL, created.ID),
			map[string]any{"reason": "verified the certificate"}, a.checkerToken)
		var approved resdto.RequestResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &approved)

		checkerID := a.checkerID.String()
		expected := &resdto.RequestResponse{
			ID:               created.ID,
			RequestType:      "update_user_information",
			RequestTypeLabel: "Update User Information",
			AccessScope:      "system",
			State:            "executed",
			DisplayStatus:    "displayed",
			RespondUserID:    &checkerID,
		}
		opts := []cmp.Option{
			cmpopts.IgnoreFields(resdto.RequestResponse{}, "RequestUserID", "RequestedAt", "ExecutedAt", "Items", "Comments"),
		}
		if diff := cmp.Diff(expected, &approved, opts...); diff != "" {
			t.Errorf("Request response mismatch (-want +got):\n%s", diff)
		}
		require.NotNil(t, approved.ExecutedAt)
		require.Len(t, approved.Comments, 2)
		require.Equal(t, "checker", approved.Comments[1].Role)
		require.Equal(t, "Ada Lovelace", s.managedUserName(t, userID))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(historyURL, created.ID), nil, a.checkerToken)
		var history []resdto.HistoryEntryResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &history)
		actions := make([]string, 0, len(history))
		for _, h := range history {
			actions = append(actions, h.Action)
		}
		require.Equal(t, []string{"request.created", "request.approved", "request.executed"}, actions)
	})

	s.Run("Error case: maker cannot approve their own kind of request", func() {
		t := s.T()
		a := s.setupActors(t)
		userID := dbtest.CreateManagedUser(t, s.DB, "Ada", "ada@example.com")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, requestsURL, renameBody(userID, "Ada Lovelace"), a.makerToken)
		var created resdto.RequestResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(approveURL, created.ID),
			map[string]any{"reason": "self approval"}, a.makerToken)
		httptest.AssertErrorKind(t, w, http.StatusForbidden, "AUTHORIZATION_ERROR")
		require.Equal(t, "Ada", s.managedUserName(t, userID))
	})

	s.Run("Error case: target removed before execution", func() {
		t := s.T()
		a := s.setupActors(t)
		userID := dbtest.CreateManagedUser(t, s.DB, "Ada", "ada@example.com")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, requestsURL, renameBody(userID, "Ada Lovelace"), a.makerToken)
		var created resdto.RequestResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)

		_, err := s.DB.Exec(context.Background(), "DELETE FROM managed_users WHERE id = $1", userID)
		require.NoError(t, err)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(approveURL, created.ID),
			map[string]any{"reason": "looks right"}, a.checkerToken)
		httptest.AssertErrorKind(t, w, http.StatusNotFound, "UNEXIST_RESOURCE")

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(requestURL, created.ID), nil, a.checkerToken)
		var current resdto.RequestResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &current)
		require.Equal(t, "approved", current.State, "approval is kept when execution fails")
	})
}

// =============================================================================
// TestDuplicateRequests - one pending request per target and type
// =============================================================================

func (s *ApprovalSuite) TestDuplicateRequests() {
	s.Run("Error case: second pending request on the same user conflicts", func() {
		t := s.T()
		a := s.setupActors(t)
		userID := dbtest.CreateManagedUser(t, s.DB, "Ada", "ada@example.com")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, requestsURL, renameBody(userID, "Ada Lovelace"), a.makerToken)
		var first resdto.RequestResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &first)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, requestsURL, renameBody(userID, "Ada King"), a.makerToken)
		httptest.AssertErrorKind(t, w, http.StatusConflict, "DUPLICATE_REQUEST")
		require.Contains(t, w.Body.String(), first.ID)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(rejectURL, first.ID),
			map[string]any{"reason": "wrong surname"}, a.checkerToken)
		httptest.AssertSuccessResponse(t, w, http.StatusOK, nil)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, requestsURL, renameBody(userID, "Ada King"), a.makerToken)
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, nil)
	})

	s.Run("Auth test - Unauthorized without token", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, requestsURL, renameBody(1, "X"), "")
		httptest.AssertErrorResponse(t, w, http.StatusUnauthorized, "Access token required")
	})
}
