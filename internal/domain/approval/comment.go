package approval

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const DefaultCommentMaximum = 1000

type Comment struct {
	id        uuid.UUID
	requestID uuid.UUID
	userID    uuid.UUID
	content   string
	createdAt time.Time
	persisted bool
}

// NewComment validates the text against maxLength runes. A non-positive
// maxLength falls back to DefaultCommentMaximum.
func NewComment(userID uuid.UUID, content string, maxLength int, now time.Time) (*Comment, error) {
	if maxLength <= 0 {
		maxLength = DefaultCommentMaximum
	}
	text := strings.TrimSpace(content)

	var v ValidationErrors
	if userID == uuid.Nil {
		v.Add("user_id", "can't be blank")
	}
	if text == "" {
		v.Add("content", "can't be blank")
	}
	if utf8.RuneCountInString(text) > maxLength {
		v.Add("content", fmt.Sprintf("is too long (maximum is %d characters)", maxLength))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	return &Comment{
		id:        uuid.New(),
		userID:    userID,
		content:   text,
		createdAt: now,
	}, nil
}

func ReconstructComment(id, requestID, userID uuid.UUID, content string, createdAt time.Time) *Comment {
	return &Comment{
		id:        id,
		requestID: requestID,
		userID:    userID,
		content:   content,
		createdAt: createdAt,
		persisted: true,
	}
}

func (c *Comment) ID() uuid.UUID        { return c.id }
func (c *Comment) RequestID() uuid.UUID { return c.requestID }
func (c *Comment) UserID() uuid.UUID    { return c.userID }
func (c *Comment) Content() string      { return c.content }
func (c *Comment) CreatedAt() time.Time { return c.createdAt }
func (c *Comment) IsPersisted() bool    { return c.persisted }

type CommentRole string

const (
	CommentRoleMaker   CommentRole = "maker"
	CommentRoleChecker CommentRole = "checker"
	CommentRoleNone    CommentRole = ""
)

// RoleIn labels the author. Maker wins when the author sits in both sets.
func (c *Comment) RoleIn(makers, checkers []uuid.UUID) CommentRole {
	for _, id := range makers {
		if id == c.userID {
			return CommentRoleMaker
		}
	}
	for _, id := range checkers {
		if id == c.userID {
			return CommentRoleChecker
		}
	}
	return CommentRoleNone
}
