//go:build unit || e2e

package builder

import (
	"time"

	"approval-engine/internal/domain/user"
)

type UserBuilder struct {
	Name   string
	Email  string
	Locked bool
	Now    time.Time
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
		Now:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func (u *UserBuilder) With(mutate func(*UserBuilder)) *UserBuilder {
	mutate(u)
	return u
}

// Build methods
func (u *UserBuilder) BuildDomain() (*user.User, error) {
	name, err := user.NewName(u.Name)
	if err != nil {
		return nil, err
	}
	email, err := user.NewEmail(u.Email)
	if err != nil {
		return nil, err
	}
	usr := user.NewUser(name, email, u.Now)
	if u.Locked {
		if err := usr.Lock(u.Now); err != nil {
			return nil, err
		}
	}
	return usr, nil
}

func (u *UserBuilder) BuildAttributes() map[string]any {
	return map[string]any{"name": u.Name, "email": u.Email}
}

// Fluent builder methods
func (u *UserBuilder) WithName(name string) *UserBuilder {
	u.Name = name
	return u
}

func (u *UserBuilder) WithEmail(email string) *UserBuilder {
	u.Email = email
	return u
}

func (u *UserBuilder) AsLocked() *UserBuilder {
	u.Locked = true
	return u
}
