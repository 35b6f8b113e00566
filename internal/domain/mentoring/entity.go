// Package mentoring содержит доменную модель заявки на менторинг (mentoring log):
// жизненный цикл от подачи заявки кадетом до завершённой встречи.
// Здесь нет внешних зависимостей.
package mentoring

import (
	"strings"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// MaxRequestTimes - сколько вариантов времени кадет может предложить.
const MaxRequestTimes = 3

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: MENTORING LOG
// ══════════════════════════════════════════════════════════════════════════════

// MentoringLog - заявка кадета к ментору и её история.
// Никогда не удаляется физически.
type MentoringLog struct {
	ID      string
	Status  Status
	Topic   string
	Content string

	// RejectMessage заполняется только при отклонении.
	RejectMessage string

	// RequestTimes - 1..3 предложенных кадетом окна, первое обязательно.
	RequestTimes []shared.TimeRange

	// MeetingAt задано тогда и только тогда, когда статус confirmed или done.
	MeetingAt *shared.TimeRange

	ReportStatus ReportState
	ReportID     string

	Mentor shared.MemberRef
	Cadet  shared.MemberRef

	// Version - счётчик для оптимистичной блокировки, увеличивается репозиторием.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMentoringLog создаёт заявку в статусе waiting.
func NewMentoringLog(id string, mentor, cadet shared.MemberRef, topic, content string, requestTimes []shared.TimeRange, now time.Time) (*MentoringLog, error) {
	if id == "" {
		return nil, shared.NewDomainError("mentoring", "New", shared.ErrInvalidInput, "id is required")
	}
	if mentor.ID == "" || cadet.ID == "" {
		return nil, shared.NewDomainError("mentoring", "New", shared.ErrInvalidInput, "mentor and cadet are required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, shared.NewDomainError("mentoring", "New", shared.ErrInvalidInput, "topic is required")
	}
	if err := ValidateRequestTimes(requestTimes); err != nil {
		return nil, err
	}

	times := make([]shared.TimeRange, len(requestTimes))
	copy(times, requestTimes)

	return &MentoringLog{
		ID:           id,
		Status:       StatusWaiting,
		Topic:        strings.TrimSpace(topic),
		Content:      content,
		RequestTimes: times,
		ReportStatus: ReportStateNone,
		Mentor:       mentor,
		Cadet:        cadet,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateRequestTimes проверяет предложенные окна: от 1 до 3, каждое с start < end.
func ValidateRequestTimes(times []shared.TimeRange) error {
	if len(times) == 0 {
		return shared.NewDomainError("mentoring", "Validate", shared.ErrInvalidInput, "at least one request time is required")
	}
	if len(times) > MaxRequestTimes {
		return shared.NewDomainError("mentoring", "Validate", shared.ErrInvalidInput, "at most 3 request times are allowed")
	}
	for _, t := range times {
		if !t.IsValid() {
			return shared.NewDomainError("mentoring", "Validate", shared.ErrInvalidInput, "request time start must be before end")
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE TRANSITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Confirm фиксирует время встречи: waiting -> confirmed.
func (m *MentoringLog) Confirm(meeting shared.TimeRange, now time.Time) error {
	if !meeting.IsValid() {
		return shared.NewDomainError("mentoring", "Confirm", shared.ErrInvalidInput, "meeting start must be before end")
	}
	if err := m.apply(EventConfirm, now); err != nil {
		return err
	}
	m.MeetingAt = &meeting
	return nil
}

// Reject отклоняет заявку: waiting -> rejected.
func (m *MentoringLog) Reject(message string, now time.Time) error {
	if err := m.apply(EventReject, now); err != nil {
		return err
	}
	m.RejectMessage = message
	return nil
}

// AutoCancel отменяет заявку без ответа ментора: waiting -> auto_cancelled.
func (m *MentoringLog) AutoCancel(now time.Time) error {
	return m.apply(EventAutoCancel, now)
}

// Complete отмечает встречу состоявшейся: confirmed -> done.
func (m *MentoringLog) Complete(now time.Time) error {
	return m.apply(EventComplete, now)
}

func (m *MentoringLog) apply(ev Event, now time.Time) error {
	next, err := Next(m.Status, ev)
	if err != nil {
		return err
	}
	m.Status = next
	m.UpdatedAt = now
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT LINK
// ══════════════════════════════════════════════════════════════════════════════

// AttachReport связывает заявку с новым отчётом.
// Отчёт можно создать только для состоявшейся встречи и только один раз.
func (m *MentoringLog) AttachReport(reportID string, now time.Time) error {
	if m.ReportID != "" || m.ReportStatus != ReportStateNone {
		return shared.ErrReportAlreadyExists
	}
	if m.Status != StatusDone {
		return shared.ErrMentoringNotDone
	}
	m.ReportID = reportID
	m.ReportStatus = ReportStateDrafting
	m.UpdatedAt = now
	return nil
}

// MarkReportSubmitted отражает отправку отчёта на заявке.
func (m *MentoringLog) MarkReportSubmitted(now time.Time) {
	m.ReportStatus = ReportStateSubmitted
	m.UpdatedAt = now
}

// IsOwnedByMentor проверяет, что заявка адресована ментору с этим логином.
func (m *MentoringLog) IsOwnedByMentor(intraID shared.IntraID) bool {
	return m.Mentor.IntraID == intraID
}

// MeetingEndedBefore возвращает true, если подтверждённая встреча уже закончилась.
func (m *MentoringLog) MeetingEndedBefore(now time.Time) bool {
	return m.MeetingAt != nil && m.MeetingAt.EndedBefore(now)
}
