//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/handler/api"
	resdto "approval-engine/internal/handler/dto/response"
	"approval-engine/internal/pkg/config"
	"approval-engine/internal/usecase/commands"
	"approval-engine/internal/usecase/queries"
	"approval-engine/tests/common/builder"
	"approval-engine/tests/common/httptest"
	"approval-engine/tests/common/testutil"
	commandsmock "approval-engine/tests/mock/commands"
	queriesmock "approval-engine/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RequestHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockCreate  *commandsmock.MockRequestCommands
	mockRespond *commandsmock.MockRespondCommands
	mockQueries *queriesmock.MockRequestQueries
	handler     *api.RequestHandler
	actorID     uuid.UUID
}

func (s *RequestHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCreate = commandsmock.NewMockRequestCommands(s.mockCtrl)
	s.mockRespond = commandsmock.NewMockRespondCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockRequestQueries(s.mockCtrl)
	s.handler = api.NewRequestHandler(s.mockCreate, s.mockRespond, s.mockQueries, config.NewTestConfig())
	s.actorID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		c.Set("user_id", s.actorID)
		c.Next()
	}

	// Setup routes
	s.router.POST("/requests", authMiddleware, s.handler.Create)
	s.router.POST("/requests/preview", authMiddleware, s.handler.Preview)
	s.router.GET("/requests", authMiddleware, s.handler.List)
	s.router.GET("/requests/:id", authMiddleware, s.handler.Get)
	s.router.GET("/requests/:id/comments", authMiddleware, s.handler.Comments)
	s.router.GET("/requests/:id/history", authMiddleware, s.handler.History)
	s.router.GET("/requests/:id/checkers", authMiddleware, s.handler.Checkers)
	s.router.GET("/requests/:id/makers", authMiddleware, s.handler.Makers)
	s.router.POST("/requests/:id/approve", authMiddleware, s.handler.Approve)
	s.router.POST("/requests/:id/reject", authMiddleware, s.handler.Reject)
	s.router.POST("/requests/:id/cancel", authMiddleware, s.handler.Cancel)
	s.router.POST("/requests/:id/execute", authMiddleware, s.handler.Execute)
}

func (s *RequestHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestRequestHandlerSuite(t *testing.T) {
	suite.Run(t, new(RequestHandlerTestSuite))
}

type testCaseRequest struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

// ================================================================================
// TestCreate
// ================================================================================

func (s *RequestHandlerTestSuite) TestCreate() {
	url := "/requests"

	reqBody := builder.NewRequestBuilder().BuildCreateRequestDTO()
	returnView := builder.NewRequestBuilder().BuildViewQuery()
	expectedResult := &commands.CreateRequestResult{RequestID: returnView.ID}

	missing := []testCaseRequest{
		{name: "missing field: event (required)", mutate: testutil.Field("event", nil), expectCode: http.StatusBadRequest},
		{name: "missing field: request_type (required)", mutate: testutil.Field("request_type", nil), expectCode: http.StatusBadRequest},
		{name: "missing field: reason (required)", mutate: testutil.Field("reason", nil), expectCode: http.StatusBadRequest},
		{name: "missing field: targets (required)", mutate: testutil.Field("targets", nil), expectCode: http.StatusBadRequest},
		{name: "missing field: access_scope (optional)", mutate: testutil.Field("access_scope", nil), expectCode: http.StatusCreated},
	}

	invalid := []testCaseRequest{
		{name: "unknown event", mutate: testutil.Field("event", "upsert"), expectCode: http.StatusBadRequest},
		{name: "empty targets", mutate: testutil.Field("targets", []any{}), expectCode: http.StatusBadRequest},
		{name: "target without type", mutate: testutil.Field("targets", []any{map[string]any{"target_id": 42}}), expectCode: http.StatusBadRequest},
		{name: "target id below 1", mutate: testutil.Field("targets", []any{map[string]any{"target_type": "User", "target_id": 0}}), expectCode: http.StatusBadRequest},
		{name: "reason as number", mutate: testutil.Field("reason", 12), expectCode: http.StatusBadRequest},
	}

	allValidationTestCases := [][]testCaseRequest{missing, invalid}

	s.Run("success: returns 201 Created for valid request", func() {
		s.mockCreate.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in commands.CreateRequestInput) (*commands.CreateRequestResult, error) {
				s.Equal(s.actorID, in.ActorID)
				s.Equal(approval.EventUpdate, in.Event)
				s.Equal(approval.RequestTypeUpdateUserInformation, in.RequestType)
				s.Require().Len(in.Targets, 1)
				s.Equal("User", in.Targets[0].TargetType)
				return expectedResult, nil
			}).Times(1)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), returnView.ID).Return(returnView, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body resdto.RequestResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(returnView.ID.String(), body.ID)
		s.Equal("pending", body.State)
		s.Equal(returnView.RequestedAt.Unix(), body.RequestedAt)
		s.Len(body.Items, 1)
		s.Len(body.Comments, 1)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Location": "/api/requests/" + returnView.ID.String()})
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		for _, testCaseGroup := range allValidationTestCases {
			for _, tc := range testCaseGroup {
				s.Run(tc.name, func() {
					requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)

					if tc.expectCode == http.StatusCreated {
						s.mockCreate.EXPECT().Create(gomock.Any(), gomock.Any()).Return(expectedResult, nil).Times(1)
						s.mockQueries.EXPECT().GetByID(gomock.Any(), returnView.ID).Return(returnView, nil).Times(1)
					}
					rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "bearer-token")

					s.Equal(tc.expectCode, rec.Code, rec.Body.String())
				})
			}
		}
	})

	s.Run("error: 401 Unauthorized without token", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	usecaseErrors := []struct {
		name       string
		err        error
		expectCode int
		expectKind string
	}{
		{name: "validation", err: approval.NewValidationError("access_scope", "can't be blank"), expectCode: http.StatusUnprocessableEntity, expectKind: "VALIDATION_ERROR"},
		{name: "duplicate", err: approval.NewDuplicateRequestError([]uuid.UUID{uuid.New()}), expectCode: http.StatusConflict, expectKind: "DUPLICATE_REQUEST"},
		{name: "authorization", err: approval.NewAuthorizationError(uuid.New(), approval.AccessMaker, approval.RequestTypeLockUser, approval.ScopeSystem), expectCode: http.StatusForbidden, expectKind: "AUTHORIZATION_ERROR"},
		{name: "unsupported action", err: approval.NewUnsupportedActionError("User", "callback_explode"), expectCode: http.StatusUnprocessableEntity, expectKind: "UNSUPPORTED_ACTION"},
		{name: "unexpected", err: errors.New("connection reset"), expectCode: http.StatusInternalServerError, expectKind: ""},
	}
	for _, tc := range usecaseErrors {
		s.Run("error: "+tc.name+" is mapped to its status", func() {
			s.mockCreate.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, tc.err).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

			httptest.AssertErrorKind(s.T(), rec, tc.expectCode, tc.expectKind)
		})
	}

	s.Run("error: duplicate carries the conflicting ids", func() {
		existing := uuid.New()
		s.mockCreate.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, approval.NewDuplicateRequestError([]uuid.UUID{existing})).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		s.Equal(http.StatusConflict, rec.Code)
		s.Contains(rec.Body.String(), `"conflicting_ids":["`+existing.String()+`"]`)
	})
}

// ================================================================================
// TestPreview
// ================================================================================

func (s *RequestHandlerTestSuite) TestPreview() {
	url := "/requests/preview"
	reqBody := builder.NewRequestBuilder().BuildCreateRequestDTO()

	s.Run("success: returns the request without storing it", func() {
		r, err := builder.NewRequestBuilder().BuildDomain()
		s.Require().NoError(err)
		snap := r.Snapshot()
		s.mockCreate.EXPECT().Preview(gomock.Any(), gomock.Any()).Return(&snap, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body resdto.RequestResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(snap.ID.String(), body.ID)
		s.Equal(approval.RequestTypeUpdateUserInformation.Label(), body.RequestTypeLabel)
		s.Empty(rec.Header().Get("Location"))
	})

	s.Run("error: 409 Conflict on duplicate", func() {
		s.mockCreate.EXPECT().Preview(gomock.Any(), gomock.Any()).
			Return(nil, approval.NewDuplicateRequestError([]uuid.UUID{uuid.New()})).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		httptest.AssertErrorKind(s.T(), rec, http.StatusConflict, "DUPLICATE_REQUEST")
	})
}

// ================================================================================
// TestGet
// ================================================================================

func (s *RequestHandlerTestSuite) TestGet() {
	view := builder.NewRequestBuilder().BuildViewQuery()

	s.Run("success: returns 200 OK", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/"+view.ID.String(), nil, "bearer-token")

		var body resdto.RequestResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(view.ID.String(), body.ID)
		s.Equal(view.RequestUserID.String(), body.RequestUserID)
		s.Nil(body.RespondUserID)
	})

	s.Run("error: 400 Bad Request for malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/not-a-uuid", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})

	s.Run("error: 404 Not Found", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(nil, queries.ErrRequestNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/"+uuid.NewString(), nil, "bearer-token")

		httptest.AssertErrorKind(s.T(), rec, http.StatusNotFound, "NOT_FOUND")
	})
}

// ================================================================================
// TestList
// ================================================================================

func (s *RequestHandlerTestSuite) TestList() {
	item := &queries.RequestListItem{
		ID:          uuid.New(),
		RequestType: approval.RequestTypeLockUser.String(),
		State:       approval.StatePending.String(),
		ItemCount:   1,
	}

	s.Run("success: passes filters and returns the next cursor", func() {
		requester := uuid.New()
		s.mockQueries.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any(), 5).
			DoAndReturn(func(_ any, f queries.RequestFilters, cursor *queries.Cursor, _ int) ([]*queries.RequestListItem, *queries.Cursor, error) {
				s.Require().NotNil(f.State)
				s.Equal(approval.StatePending, *f.State)
				s.Require().NotNil(f.RequestType)
				s.Equal(approval.RequestTypeLockUser, *f.RequestType)
				s.Require().NotNil(f.RequestUserID)
				s.Equal(requester, *f.RequestUserID)
				s.Nil(f.DisplayStatus)
				s.Require().NotNil(cursor)
				s.Equal("abc", cursor.After)
				return []*queries.RequestListItem{item}, &queries.Cursor{After: "def"}, nil
			}).Times(1)

		url := "/requests?state=pending&request_type=lock_user&limit=5&after=abc&request_user_id=" + requester.String()
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var body resdto.RequestListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body.Items, 1)
		s.Equal(item.ID.String(), body.Items[0].ID)
		s.Equal("def", body.NextCursor)
	})

	s.Run("success: request type label is accepted", func() {
		s.mockQueries.EXPECT().List(gomock.Any(), gomock.Any(), nil, 0).
			DoAndReturn(func(_ any, f queries.RequestFilters, _ *queries.Cursor, _ int) ([]*queries.RequestListItem, *queries.Cursor, error) {
				s.Require().NotNil(f.RequestType)
				s.Equal(approval.RequestTypeLockUser, *f.RequestType)
				return nil, nil, nil
			}).Times(1)

		label := strings.ReplaceAll(approval.RequestTypeLockUser.Label(), " ", "+")
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests?request_type="+label, nil, "bearer-token")

		var body resdto.RequestListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Empty(body.Items)
		s.Empty(body.NextCursor)
	})

	invalid := []struct {
		name  string
		query string
		code  int
	}{
		{name: "unknown state", query: "state=archived", code: http.StatusUnprocessableEntity},
		{name: "unknown display status", query: "display_status=blurred", code: http.StatusUnprocessableEntity},
		{name: "unknown scope", query: "access_scope=galaxy", code: http.StatusUnprocessableEntity},
		{name: "malformed requester", query: "request_user_id=42", code: http.StatusUnprocessableEntity},
		{name: "limit below 1", query: "limit=0", code: http.StatusBadRequest},
		{name: "negative limit", query: "limit=-3", code: http.StatusBadRequest},
		{name: "limit not a number", query: "limit=many", code: http.StatusBadRequest},
	}
	for _, tc := range invalid {
		s.Run("error: "+tc.name, func() {
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests?"+tc.query, nil, "bearer-token")
			s.Equal(tc.code, rec.Code, rec.Body.String())
		})
	}

	s.Run("error: 400 Bad Request for broken cursor", func() {
		s.mockQueries.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, nil, queries.ErrInvalidCursor).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests?after=garbage", nil, "bearer-token")

		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid cursor")
	})
}

// ================================================================================
// TestComments, TestHistory, TestEligibleUsers
// ================================================================================

func (s *RequestHandlerTestSuite) TestComments() {
	id := uuid.New()
	views := []queries.CommentView{
		{ID: uuid.New(), RequestID: id, UserID: uuid.New(), Role: "maker", Content: "please"},
		{ID: uuid.New(), RequestID: id, UserID: uuid.New(), Role: "checker", Content: "no"},
	}
	s.mockQueries.EXPECT().RelatedComments(gomock.Any(), id).Return(views, nil).Times(1)

	rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/"+id.String()+"/comments", nil, "bearer-token")

	var body []resdto.CommentResponse
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
	s.Require().Len(body, 2)
	s.Equal("maker", body[0].Role)
	s.Equal("checker", body[1].Role)
	s.Equal(id.String(), body[1].RequestID)
}

func (s *RequestHandlerTestSuite) TestHistory() {
	id := uuid.New()

	s.Run("success: returns entries", func() {
		s.mockQueries.EXPECT().History(gomock.Any(), id).
			Return([]queries.HistoryEntryView{{Action: "request.created", ActorID: s.actorID}}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/"+id.String()+"/history", nil, "bearer-token")

		var body []resdto.HistoryEntryResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body, 1)
		s.Equal("request.created", body[0].Action)
		s.Equal(s.actorID.String(), body[0].ActorID)
	})

	s.Run("error: 404 Not Found", func() {
		s.mockQueries.EXPECT().History(gomock.Any(), id).Return(nil, queries.ErrRequestNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/"+id.String()+"/history", nil, "bearer-token")

		httptest.AssertErrorKind(s.T(), rec, http.StatusNotFound, "NOT_FOUND")
	})
}

func (s *RequestHandlerTestSuite) TestEligibleUsers() {
	id := uuid.New()
	checker := uuid.New()

	s.Run("checkers", func() {
		s.mockQueries.EXPECT().ValidCheckers(gomock.Any(), id).Return([]uuid.UUID{checker}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/"+id.String()+"/checkers", nil, "bearer-token")

		var body resdto.UserIDsResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal([]string{checker.String()}, body.UserIDs)
	})

	s.Run("makers without anyone eligible", func() {
		s.mockQueries.EXPECT().ValidMakers(gomock.Any(), id).Return([]uuid.UUID{}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/"+id.String()+"/makers", nil, "bearer-token")

		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"user_ids":[]}`, rec.Body.String())
	})

}

// ================================================================================
// TestRespond
// ================================================================================

func (s *RequestHandlerTestSuite) TestApprove() {
	view := builder.NewRequestBuilder().BuildViewQuery()
	url := "/requests/" + view.ID.String() + "/approve"

	s.Run("success: executes by default", func() {
		s.mockRespond.EXPECT().Approve(gomock.Any(), gomock.Any(), true).
			DoAndReturn(func(_ any, in commands.RespondInput, _ bool) error {
				s.Equal(s.actorID, in.ActorID)
				s.Equal(view.ID, in.RequestID)
				s.Equal("looks right", in.Reason)
				return nil
			}).Times(1)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"reason": "looks right"}, "bearer-token")

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("success: body can switch execution off", func() {
		s.mockRespond.EXPECT().Approve(gomock.Any(), gomock.Any(), false).Return(nil).Times(1)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"reason": "ok", "execute": false}, "bearer-token")

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	respondErrors := []struct {
		name       string
		err        error
		expectCode int
		expectKind string
	}{
		{name: "already performed", err: approval.NewAlreadyPerformedError(view.ID, approval.StateRejected), expectCode: http.StatusConflict, expectKind: "ALREADY_PERFORMED"},
		{name: "target vanished", err: approval.NewUnexistResourceError("User", 42), expectCode: http.StatusNotFound, expectKind: "UNEXIST_RESOURCE"},
		{name: "target refused", err: approval.NewResourceRejectedError("User", []string{"email has already been taken"}, nil), expectCode: http.StatusUnprocessableEntity, expectKind: "RESOURCE_REJECTED"},
		{name: "not a checker", err: approval.NewAuthorizationError(s.actorID, approval.AccessChecker, approval.RequestTypeLockUser, approval.ScopeSystem), expectCode: http.StatusForbidden, expectKind: "AUTHORIZATION_ERROR"},
		{name: "unknown request", err: commands.ErrRequestNotFound, expectCode: http.StatusNotFound, expectKind: "NOT_FOUND"},
	}
	for _, tc := range respondErrors {
		s.Run("error: "+tc.name, func() {
			s.mockRespond.EXPECT().Approve(gomock.Any(), gomock.Any(), gomock.Any()).Return(tc.err).Times(1)

			rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"reason": "ok"}, "bearer-token")

			httptest.AssertErrorKind(s.T(), rec, tc.expectCode, tc.expectKind)
		})
	}

	s.Run("error: 400 Bad Request on malformed body", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{"execute": "yes"}, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})
}

func (s *RequestHandlerTestSuite) TestRejectCancelExecute() {
	view := builder.NewRequestBuilder().BuildViewQuery()
	base := "/requests/" + view.ID.String()

	s.Run("reject", func() {
		s.mockRespond.EXPECT().Reject(gomock.Any(), gomock.Any()).Return(nil).Times(1)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, base+"/reject", map[string]any{"reason": "no"}, "bearer-token")

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("cancel by someone else", func() {
		s.mockRespond.EXPECT().Cancel(gomock.Any(), gomock.Any()).
			Return(&approval.Error{Kind: approval.KindAuthorization, Message: "only the requester can cancel"}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, base+"/cancel", map[string]any{"reason": "mine"}, "bearer-token")

		httptest.AssertErrorKind(s.T(), rec, http.StatusForbidden, "AUTHORIZATION_ERROR")
	})

	s.Run("execute without a body", func() {
		s.mockRespond.EXPECT().Execute(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in commands.RespondInput) error {
				s.Empty(in.Reason)
				return nil
			}).Times(1)
		s.mockQueries.EXPECT().GetByID(gomock.Any(), view.ID).Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, base+"/execute", nil, "bearer-token")

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})
}
