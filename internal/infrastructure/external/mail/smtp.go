// Package mail delivers notification mail: an SMTP client, a logging stand-in
// for development and the composer that renders mail for a mentoring log.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/pkg/logger"
	"github.com/alem-hub/mentoring-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// SMTPConfig contains configuration for the SMTP client.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address of every mail.
	From string

	// Timeout bounds dialing and the SMTP conversation.
	Timeout time.Duration
}

// DefaultSMTPConfig returns sensible defaults.
func DefaultSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Port:    587,
		Timeout: 15 * time.Second,
	}
}

// Validate checks the configuration.
func (c SMTPConfig) Validate() error {
	if c.Host == "" {
		return errors.New("smtp: host is required")
	}
	if c.From == "" {
		return errors.New("smtp: sender address is required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SMTP MAILER
// ══════════════════════════════════════════════════════════════════════════════

// SMTPMailer implements notification.Mailer over SMTP with STARTTLS when the
// server offers it.
type SMTPMailer struct {
	config SMTPConfig
	logger *logger.Logger
}

var _ notification.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig, log *logger.Logger) (*SMTPMailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPConfig().Port
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSMTPConfig().Timeout
	}
	return &SMTPMailer{config: cfg, logger: log.With(logger.Component("smtp"))}, nil
}

// Send delivers one mail. Rejected messages are permanent; connection
// problems are left for the caller to retry.
func (m *SMTPMailer) Send(ctx context.Context, mail notification.Mail) error {
	msg, err := m.message(mail)
	if err != nil {
		return retry.Permanent(err)
	}

	client, err := m.client()
	if err != nil {
		return retry.Permanent(err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		var sendErr *gomail.SendError
		if errors.As(err, &sendErr) && !sendErr.IsTemp() {
			return retry.Permanent(fmt.Errorf("smtp: send to %s: %w", mail.To, err))
		}
		return fmt.Errorf("smtp: send to %s: %w", mail.To, err)
	}

	m.logger.Debug("mail delivered", logger.String("to", mail.To))
	return nil
}

func (m *SMTPMailer) message(mail notification.Mail) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.config.From); err != nil {
		return nil, fmt.Errorf("smtp: invalid sender: %w", err)
	}
	if err := msg.To(mail.To); err != nil {
		return nil, fmt.Errorf("smtp: invalid recipient: %w", err)
	}
	msg.Subject(mail.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, mail.Body)
	return msg, nil
}

func (m *SMTPMailer) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(m.config.Port),
		gomail.WithTimeout(m.config.Timeout),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if m.config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.config.Username),
			gomail.WithPassword(m.config.Password),
		)
	}

	client, err := gomail.NewClient(m.config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp: client: %w", err)
	}
	return client, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG MAILER
// ══════════════════════════════════════════════════════════════════════════════

// LogMailer writes mail to the log instead of sending it. Used when no SMTP
// host is configured.
type LogMailer struct {
	logger *logger.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{logger: log.With(logger.Component("log_mailer"))}
}

// Send logs mail.
func (m *LogMailer) Send(ctx context.Context, mail notification.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info("mail",
		logger.String("to", mail.To),
		logger.String("subject", mail.Subject),
		logger.String("body", mail.Body),
	)
	return nil
}
