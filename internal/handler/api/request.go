package api

import (
	"context"
	"net/http"

	reqdto "approval-engine/internal/handler/dto/request"
	resdto "approval-engine/internal/handler/dto/response"
	"approval-engine/internal/handler/httperr"
	"approval-engine/internal/handler/middleware"
	"approval-engine/internal/pkg/config"
	"approval-engine/internal/usecase/commands"
	"approval-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	requests    commands.RequestCommands
	respond     commands.RespondCommands
	q           queries.RequestQueries
	autoExecute bool
}

func NewRequestHandler(requests commands.RequestCommands, respond commands.RespondCommands, q queries.RequestQueries, cfg config.Config) *RequestHandler {
	return &RequestHandler{
		requests:    requests,
		respond:     respond,
		q:           q,
		autoExecute: cfg.Approval.AutoExecute,
	}
}

// @Summary Create approval request
// @Description Propose a change for a checker to approve
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateRequestRequest true "Create approval request"
// @Success 201 {object} resdto.RequestResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /api/requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthorized, "Unauthorized", nil)
		return
	}
	var req reqdto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.requests.Create(c.Request.Context(), req.ToInput(actorID))
	if err != nil {
		abortWithUsecaseError(c, err, "Create approval request failed")
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), result.RequestID)
	if err != nil {
		abortWithUsecaseError(c, err, "Failed to load approval request")
		return
	}
	h.renderRequest(c, http.StatusCreated, view, "/api/requests/"+result.RequestID.String())
}

// @Summary Preview approval request
// @Description Run every creation check and return the request without storing it
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateRequestRequest true "Create approval request"
// @Success 200 {object} resdto.RequestResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /api/requests/preview [post]
func (h *RequestHandler) Preview(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthorized, "Unauthorized", nil)
		return
	}
	var req reqdto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	snap, err := h.requests.Preview(c.Request.Context(), req.ToInput(actorID))
	if err != nil {
		abortWithUsecaseError(c, err, "Preview approval request failed")
		return
	}
	res, err := resdto.FromSnapshot(snap)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render approval request", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Get approval request
// @Description Checker view of a request; items carry the target summary when available
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} resdto.RequestResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithUsecaseError(c, err, "Failed to load approval request")
		return
	}
	h.renderRequest(c, http.StatusOK, view, "")
}

// @Summary List approval requests
// @Description Newest first with keyset pagination
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param state query string false "pending, cancelled, approved, rejected or executed"
// @Param display_status query string false "displayed or hidden"
// @Param request_type query string false "Request type code or label"
// @Param access_scope query string false "Access scope"
// @Param request_user_id query string false "Requester ID"
// @Param limit query int false "Max items (default 20)"
// @Param after query string false "Cursor for keyset pagination"
// @Success 200 {object} resdto.RequestListResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /api/requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var query reqdto.ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid query", nil)
		return
	}
	filters, err := query.ToFilters()
	if err != nil {
		abortWithUsecaseError(c, err, "Invalid query")
		return
	}
	items, next, err := h.q.List(c.Request.Context(), filters, query.Cursor(), query.PageSize())
	if err != nil {
		abortWithUsecaseError(c, err, "Failed to list approval requests")
		return
	}
	res, err := resdto.FromRequestList(items, next)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render approval requests", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Related comments
// @Description Comments of the request, its parent and its siblings, oldest first
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {array} resdto.CommentResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/requests/{id}/comments [get]
func (h *RequestHandler) Comments(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	views, err := h.q.RelatedComments(c.Request.Context(), id)
	if err != nil {
		abortWithUsecaseError(c, err, "Failed to load comments")
		return
	}
	res, err := resdto.FromComments(views)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render comments", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Audit trail
// @Description Committed mutations of the request with their JSON Patch, oldest first
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {array} resdto.HistoryEntryResponse
// @Failure 404 {object} httperr.Response
// @Router /api/requests/{id}/history [get]
func (h *RequestHandler) History(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	entries, err := h.q.History(c.Request.Context(), id)
	if err != nil {
		abortWithUsecaseError(c, err, "Failed to load audit trail")
		return
	}
	c.JSON(http.StatusOK, resdto.FromHistory(entries))
}

// @Summary Eligible checkers
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} resdto.UserIDsResponse
// @Failure 404 {object} httperr.Response
// @Router /api/requests/{id}/checkers [get]
func (h *RequestHandler) Checkers(c *gin.Context) {
	h.eligible(c, h.q.ValidCheckers)
}

// @Summary Eligible makers
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} resdto.UserIDsResponse
// @Failure 404 {object} httperr.Response
// @Router /api/requests/{id}/makers [get]
func (h *RequestHandler) Makers(c *gin.Context) {
	h.eligible(c, h.q.ValidMakers)
}

func (h *RequestHandler) eligible(c *gin.Context, resolve func(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	users, err := resolve(c.Request.Context(), id)
	if err != nil {
		abortWithUsecaseError(c, err, "Failed to resolve eligible users")
		return
	}
	c.JSON(http.StatusOK, resdto.FromUserIDs(users))
}

// @Summary Approve approval request
// @Description Approve and, unless execute is false, run the request in the same transaction
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body reqdto.RespondRequest true "Reason and execute flag"
// @Success 200 {object} resdto.RequestResponse
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /api/requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	h.respondWith(c, "Approve", func(ctx context.Context, in commands.RespondInput, req reqdto.RespondRequest) error {
		execute := h.autoExecute
		if req.Execute != nil {
			execute = *req.Execute
		}
		return h.respond.Approve(ctx, in, execute)
	})
}

// @Summary Reject approval request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body reqdto.RespondRequest true "Reason"
// @Success 200 {object} resdto.RequestResponse
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	h.respondWith(c, "Reject", func(ctx context.Context, in commands.RespondInput, _ reqdto.RespondRequest) error {
		return h.respond.Reject(ctx, in)
	})
}

// @Summary Cancel approval request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body reqdto.RespondRequest true "Reason"
// @Success 200 {object} resdto.RequestResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/requests/{id}/cancel [post]
func (h *RequestHandler) Cancel(c *gin.Context) {
	h.respondWith(c, "Cancel", func(ctx context.Context, in commands.RespondInput, _ reqdto.RespondRequest) error {
		return h.respond.Cancel(ctx, in)
	})
}

// @Summary Execute approved request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body reqdto.RespondRequest false "Optional reason"
// @Success 200 {object} resdto.RequestResponse
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /api/requests/{id}/execute [post]
func (h *RequestHandler) Execute(c *gin.Context) {
	h.respondWith(c, "Execute", func(ctx context.Context, in commands.RespondInput, _ reqdto.RespondRequest) error {
		return h.respond.Execute(ctx, in)
	})
}

type respondFunc func(ctx context.Context, in commands.RespondInput, req reqdto.RespondRequest) error

// respondWith runs a respond form and renders the request as stored afterwards.
func (h *RequestHandler) respondWith(c *gin.Context, action string, run respondFunc) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthorized, "Unauthorized", nil)
		return
	}
	var req reqdto.RespondRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
			return
		}
	}
	if err := run(c.Request.Context(), req.ToInput(actorID, id), req); err != nil {
		abortWithUsecaseError(c, err, action+" failed")
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithUsecaseError(c, err, "Failed to load approval request")
		return
	}
	h.renderRequest(c, http.StatusOK, view, "")
}

func (h *RequestHandler) renderRequest(c *gin.Context, status int, view *queries.RequestView, location string) {
	res, err := resdto.FromRequestView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to render approval request", nil)
		return
	}
	if location != "" {
		c.Header("Location", location)
	}
	c.JSON(status, res)
}

func requestID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}
