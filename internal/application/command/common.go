// Package command contains write operations (CQRS - Commands) of the
// mentoring lifecycle and report workflow.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// AutoCancelScheduler registers delayed auto-cancellation of waiting logs.
type AutoCancelScheduler interface {
	// Schedule replaces any pending task for logID.
	Schedule(logID string, delay time.Duration) error
	// Cancel is a no-op when nothing is pending.
	Cancel(logID string)
}

// AssetJanitor records uploaded storage keys that are not referenced by any
// report so they can be deleted later.
type AssetJanitor interface {
	MarkOrphaned(ctx context.Context, key string) error
}

// TxRunner runs fn in a single storage transaction. Repositories called with
// the ctx passed to fn take part in that transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxRunnerFunc adapts a function to TxRunner.
type TxRunnerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// RunInTx calls f.
func (f TxRunnerFunc) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTx runs fn directly. Used when storage has no transactions (tests).
var NoTx = TxRunnerFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})

// Clock returns the current time.
type Clock func() time.Time

// IDGenerator returns a new entity id.
type IDGenerator func() string

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs struct tag validation and maps failures to InvalidInput.
func validateStruct(domain, op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.WrapError(domain, op, shared.ErrInvalidInput, "invalid command", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return shared.WrapError(domain, op, shared.ErrInvalidInput,
		"invalid fields: "+strings.Join(fields, ", "), err)
}

// RequestTime is a proposed or confirmed meeting window.
type RequestTime struct {
	Start time.Time `validate:"required"`
	End   time.Time `validate:"required,gtfield=Start"`
}

// TimeRange converts to the domain value object.
func (r RequestTime) TimeRange() shared.TimeRange {
	return shared.TimeRange{Start: r.Start, End: r.End}
}

func defaults(now Clock, newID IDGenerator) (Clock, IDGenerator) {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return now, newID
}
