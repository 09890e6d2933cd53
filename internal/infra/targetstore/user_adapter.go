package targetstore

import (
	"context"
	"errors"
	"fmt"

	"approval-engine/internal/domain/target"
	"approval-engine/internal/domain/user"
	"approval-engine/internal/pkg/clock"
)

const UserTargetType = "User"

// Operation names understood by UserAdapter. Each has a paired
// validation_callback_* check run when the request is proposed.
const (
	OpLock        = "callback_lock"
	OpUnlock      = "callback_unlock"
	OpChangeEmail = "callback_change_email"
)

// UserAdapter exposes managed users to the execution engine.
type UserAdapter struct {
	store       UserStore
	clock       clock.Clock
	operations  map[string]target.Operation
	validations map[string]target.ValidationFunc
}

func NewUserAdapter(store UserStore, clk clock.Clock) *UserAdapter {
	a := &UserAdapter{store: store, clock: clk}
	a.operations = map[string]target.Operation{
		OpLock:        target.Nullary(OpLock, a.lock),
		OpUnlock:      target.Nullary(OpUnlock, a.unlock),
		OpChangeEmail: target.Unary(OpChangeEmail, a.changeEmail),
	}
	a.validations = map[string]target.ValidationFunc{
		mustValidationName(OpLock):        a.validateLock,
		mustValidationName(OpUnlock):      a.validateUnlock,
		mustValidationName(OpChangeEmail): a.validateChangeEmail,
	}
	return a
}

func mustValidationName(op string) string {
	name, ok := target.ValidationName(op)
	if !ok {
		panic("operation without validation pair: " + op)
	}
	return name
}

func (a *UserAdapter) TargetType() string { return UserTargetType }

func (a *UserAdapter) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := a.store.Find(ctx, id)
	if errors.Is(err, target.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (a *UserAdapter) Create(ctx context.Context, params target.Params) (int64, error) {
	u, err := user.FromAttributes(params, a.clock.Now())
	if err != nil {
		return 0, target.Invalid(err.Error())
	}
	return a.store.Insert(ctx, u)
}

func (a *UserAdapter) Update(ctx context.Context, id int64, params target.Params) error {
	u, err := a.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := u.Apply(params, a.clock.Now()); err != nil {
		return target.Invalid(err.Error())
	}
	return a.store.Update(ctx, u)
}

func (a *UserAdapter) Destroy(ctx context.Context, id int64) error {
	return a.store.Delete(ctx, id)
}

func (a *UserAdapter) Operation(name string) (target.Operation, bool) {
	op, ok := a.operations[name]
	return op, ok
}

func (a *UserAdapter) Validation(name string) (target.ValidationFunc, bool) {
	v, ok := a.validations[name]
	return v, ok
}

// SummaryForChecker renders the stored user, or the proposed attributes for
// a user that does not exist yet.
func (a *UserAdapter) SummaryForChecker(ctx context.Context, id *int64, params target.Params) (map[string]any, error) {
	if id == nil {
		return map[string]any{
			"name":  params["name"],
			"email": params["email"],
		}, nil
	}
	u, err := a.store.Find(ctx, *id)
	if err != nil {
		return nil, err
	}
	return u.Attributes(), nil
}

func (a *UserAdapter) subject(ctx context.Context, s target.Subject) (*user.User, error) {
	if s.ID == nil {
		return nil, target.Invalid("user id is required")
	}
	return a.store.Find(ctx, *s.ID)
}

func (a *UserAdapter) lock(ctx context.Context, s target.Subject) (any, error) {
	u, err := a.subject(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := u.Lock(a.clock.Now()); err != nil {
		return nil, target.Invalid(err.Error())
	}
	return u.Attributes(), a.store.Update(ctx, u)
}

func (a *UserAdapter) unlock(ctx context.Context, s target.Subject) (any, error) {
	u, err := a.subject(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := u.Unlock(a.clock.Now()); err != nil {
		return nil, target.Invalid(err.Error())
	}
	return u.Attributes(), a.store.Update(ctx, u)
}

func (a *UserAdapter) changeEmail(ctx context.Context, s target.Subject, options target.Params) (any, error) {
	u, err := a.subject(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := u.Apply(map[string]any{"email": options["email"]}, a.clock.Now()); err != nil {
		return nil, target.Invalid(err.Error())
	}
	return u.Attributes(), a.store.Update(ctx, u)
}

func (a *UserAdapter) validateLock(ctx context.Context, s target.Subject, _ target.Params) (bool, []string) {
	u, msgs := a.validationSubject(ctx, s)
	if u == nil {
		return false, msgs
	}
	if u.IsLocked() {
		return false, []string{user.ErrAlreadyLocked.Error()}
	}
	return true, nil
}

func (a *UserAdapter) validateUnlock(ctx context.Context, s target.Subject, _ target.Params) (bool, []string) {
	u, msgs := a.validationSubject(ctx, s)
	if u == nil {
		return false, msgs
	}
	if !u.IsLocked() {
		return false, []string{user.ErrNotLocked.Error()}
	}
	return true, nil
}

func (a *UserAdapter) validateChangeEmail(ctx context.Context, s target.Subject, options target.Params) (bool, []string) {
	if u, msgs := a.validationSubject(ctx, s); u == nil {
		return false, msgs
	}
	email, _ := options["email"].(string)
	if _, err := user.NewEmail(email); err != nil {
		return false, []string{err.Error()}
	}
	return true, nil
}

func (a *UserAdapter) validationSubject(ctx context.Context, s target.Subject) (*user.User, []string) {
	u, err := a.subject(ctx, s)
	if err == nil {
		return u, nil
	}
	var verr *target.ValidationError
	switch {
	case errors.As(err, &verr):
		return nil, verr.Messages
	case errors.Is(err, target.ErrNotFound):
		return nil, []string{fmt.Sprintf("user %d does not exist", *s.ID)}
	default:
		return nil, []string{err.Error()}
	}
}
