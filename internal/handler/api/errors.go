package api

import (
	"errors"
	"net/http"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/handler/httperr"
	"approval-engine/internal/usecase/commands"
	"approval-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

const kindNotFound = "NOT_FOUND"

var errUnauthorized = errors.New("missing authenticated user")

var statusByKind = map[approval.ErrorKind]int{
	approval.KindValidation:        http.StatusUnprocessableEntity,
	approval.KindAlreadyPerformed:  http.StatusConflict,
	approval.KindDuplicateRequest:  http.StatusConflict,
	approval.KindUnexistResource:   http.StatusNotFound,
	approval.KindUnsupportedAction: http.StatusUnprocessableEntity,
	approval.KindResourceRejected:  http.StatusUnprocessableEntity,
	approval.KindAuthorization:     http.StatusForbidden,
}

type errorDetail struct {
	Fields         []string `json:"fields,omitempty"`
	Messages       []string `json:"messages,omitempty"`
	ConflictingIDs []string `json:"conflicting_ids,omitempty"`
}

// abortWithUsecaseError maps engine errors onto statuses. Anything it does not
// recognise is a 500 carrying fallback as its message.
func abortWithUsecaseError(c *gin.Context, err error, fallback string) {
	var domainErr *approval.Error
	switch {
	case errors.As(err, &domainErr):
		status, ok := statusByKind[domainErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		httperr.AbortWithKind(c, status, err, domainErr.Message, string(domainErr.Kind), detailOf(domainErr))
	case errors.Is(err, commands.ErrRequestNotFound), errors.Is(err, queries.ErrRequestNotFound):
		httperr.AbortWithKind(c, http.StatusNotFound, err, "Approval request not found", kindNotFound, nil)
	case errors.Is(err, queries.ErrInvalidCursor):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid cursor", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, fallback, nil)
	}
}

func detailOf(e *approval.Error) any {
	if len(e.Fields) == 0 && len(e.Messages) == 0 && len(e.ConflictingIDs) == 0 {
		return nil
	}
	d := errorDetail{Fields: e.Fields, Messages: e.Messages}
	for _, id := range e.ConflictingIDs {
		d.ConflictingIDs = append(d.ConflictingIDs, id.String())
	}
	return d
}
