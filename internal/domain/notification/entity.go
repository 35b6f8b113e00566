// Package notification содержит доменную модель почтовых уведомлений
// о заявках на менторинг.
package notification

import (
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIL TYPE
// ══════════════════════════════════════════════════════════════════════════════

// MailType определяет, какое письмо и кому отправить.
type MailType string

const (
	// MailTypeReservation - ментору пришла новая заявка.
	MailTypeReservation MailType = "reservation"
	// MailTypeApproveToCadet - ментор подтвердил время встречи.
	MailTypeApproveToCadet MailType = "approve_to_cadet"
	// MailTypeCancelToCadet - заявка отклонена или отменена автоматически.
	MailTypeCancelToCadet MailType = "cancel_to_cadet"
)

// IsValid проверяет, что тип письма корректен.
func (t MailType) IsValid() bool {
	switch t {
	case MailTypeReservation, MailTypeApproveToCadet, MailTypeCancelToCadet:
		return true
	default:
		return false
	}
}

// ToMentor возвращает true, если письмо адресовано ментору.
func (t MailType) ToMentor() bool {
	return t == MailTypeReservation
}

// String возвращает строковое представление типа.
func (t MailType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIL
// ══════════════════════════════════════════════════════════════════════════════

// Request - запрос на отправку письма по заявке. Это то, что кладётся в очередь.
type Request struct {
	MentoringLogID string    `json:"mentoring_log_id"`
	Type           MailType  `json:"type"`
	Attempt        int       `json:"attempt"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// Mail - готовое к отправке письмо.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// IsValid проверяет, что у письма есть получатель и тема.
func (m Mail) IsValid() bool {
	return strings.Contains(m.To, "@") && m.Subject != ""
}
