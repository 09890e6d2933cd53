package user

import (
	"fmt"
	"time"
)

// User is the managed account that approval requests lock, unlock and edit.
// IDs are assigned by the store on first save.
type User struct {
	id        int64
	name      Name
	email     Email
	status    Status
	lockedAt  *time.Time
	createdAt time.Time
	updatedAt time.Time
}

func NewUser(name Name, email Email, now time.Time) *User {
	return &User{
		name:      name,
		email:     email,
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}
}

func ReconstructUser(id int64, name Name, email Email, status Status, lockedAt *time.Time, createdAt, updatedAt time.Time) *User {
	return &User{
		id:        id,
		name:      name,
		email:     email,
		status:    status,
		lockedAt:  lockedAt,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// FromAttributes builds a new user from loosely typed request params.
func FromAttributes(attrs map[string]any, now time.Time) (*User, error) {
	name, err := NewName(stringAttr(attrs, "name"))
	if err != nil {
		return nil, err
	}
	email, err := NewEmail(stringAttr(attrs, "email"))
	if err != nil {
		return nil, err
	}
	return NewUser(name, email, now), nil
}

func (u *User) ID() int64            { return u.id }
func (u *User) Name() Name           { return u.name }
func (u *User) Email() Email         { return u.email }
func (u *User) Status() Status       { return u.status }
func (u *User) LockedAt() *time.Time { return u.lockedAt }
func (u *User) IsLocked() bool       { return u.status == StatusLocked }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
func (u *User) AssignID(id int64)    { u.id = id }

// Apply changes the attributes named in attrs. Unknown keys are rejected.
func (u *User) Apply(attrs map[string]any, now time.Time) error {
	for key := range attrs {
		switch key {
		case "name":
			name, err := NewName(stringAttr(attrs, key))
			if err != nil {
				return err
			}
			u.name = name
		case "email":
			email, err := NewEmail(stringAttr(attrs, key))
			if err != nil {
				return err
			}
			u.email = email
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
	}
	u.updatedAt = now
	return nil
}

func (u *User) Lock(now time.Time) error {
	if u.IsLocked() {
		return ErrAlreadyLocked
	}
	u.status = StatusLocked
	u.lockedAt = &now
	u.updatedAt = now
	return nil
}

func (u *User) Unlock(now time.Time) error {
	if !u.IsLocked() {
		return ErrNotLocked
	}
	u.status = StatusActive
	u.lockedAt = nil
	u.updatedAt = now
	return nil
}

// Attributes is the map form used in checker summaries.
func (u *User) Attributes() map[string]any {
	return map[string]any{
		"id":     u.id,
		"name":   u.name.Value(),
		"email":  u.email.Value(),
		"status": u.status.String(),
	}
}

func stringAttr(attrs map[string]any, key string) string {
	v, ok := attrs[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
