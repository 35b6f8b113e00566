package mail

import (
	"context"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/pkg/circuitbreaker"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
	"github.com/alem-hub/mentoring-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// BREAKER MAILER
// ══════════════════════════════════════════════════════════════════════════════

// BreakerMailer stops hitting an SMTP server that keeps failing. While the
// circuit is open Send fails fast with a retryable error, so the queue backs
// off instead of holding workers on dial timeouts.
type BreakerMailer struct {
	next    notification.Mailer
	breaker *circuitbreaker.CircuitBreaker
}

var _ notification.Mailer = (*BreakerMailer)(nil)

// NewBreakerMailer wraps next. The circuit opens after failures consecutive
// transient errors and probes again after cooldown.
func NewBreakerMailer(next notification.Mailer, failures int, cooldown time.Duration, log *logger.Logger) *BreakerMailer {
	log = log.With(logger.Component("smtp_breaker"))
	return &BreakerMailer{
		next: next,
		breaker: circuitbreaker.New("smtp",
			circuitbreaker.WithFailureThreshold(failures),
			circuitbreaker.WithSuccessThreshold(1),
			circuitbreaker.WithCooldown(cooldown),
			// A rejected recipient says nothing about the server.
			circuitbreaker.WithIsFailure(func(err error) bool { return !retry.IsPermanent(err) }),
			circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			}),
		),
	}
}

// Send delivers mail through the wrapped mailer.
func (m *BreakerMailer) Send(ctx context.Context, mail notification.Mail) error {
	return m.breaker.Execute(ctx, func(ctx context.Context) error {
		return m.next.Send(ctx, mail)
	})
}

// State returns the circuit state.
func (m *BreakerMailer) State() circuitbreaker.State {
	return m.breaker.State()
}
