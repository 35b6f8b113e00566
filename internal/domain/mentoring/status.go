package mentoring

import (
	"fmt"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет состояние заявки на менторинг.
type Status string

const (
	// StatusWaiting - заявка создана и ждёт ответа ментора.
	StatusWaiting Status = "waiting"
	// StatusConfirmed - ментор выбрал время встречи.
	StatusConfirmed Status = "confirmed"
	// StatusRejected - ментор отклонил заявку.
	StatusRejected Status = "rejected"
	// StatusAutoCancelled - ментор не ответил вовремя.
	StatusAutoCancelled Status = "auto_cancelled"
	// StatusDone - встреча состоялась.
	StatusDone Status = "done"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusConfirmed, StatusRejected, StatusAutoCancelled, StatusDone:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true для статусов без исходящих переходов.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// HasMeeting возвращает true, если в этом статусе время встречи обязано быть задано.
func (s Status) HasMeeting() bool {
	return s == StatusConfirmed || s == StatusDone
}

// Label возвращает подпись статуса для писем и выгрузки.
func (s Status) Label() string {
	switch s {
	case StatusWaiting:
		return "대기중"
	case StatusConfirmed:
		return "확정"
	case StatusRejected:
		return "취소"
	case StatusAutoCancelled:
		return "자동취소"
	case StatusDone:
		return "완료"
	default:
		return string(s)
	}
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ReportState отражает состояние отчёта на стороне заявки.
type ReportState string

const (
	ReportStateNone      ReportState = "none"
	ReportStateDrafting  ReportState = "drafting"
	ReportStateSubmitted ReportState = "submitted"
)

// Label возвращает подпись состояния отчёта.
func (r ReportState) Label() string {
	switch r {
	case ReportStateDrafting:
		return "작성중"
	case ReportStateSubmitted:
		return "작성완료"
	default:
		return "-"
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Event - действие, переводящее заявку в другой статус.
type Event string

const (
	EventConfirm    Event = "confirm"
	EventReject     Event = "reject"
	EventAutoCancel Event = "auto_cancel"
	EventComplete   Event = "complete"
)

// transitions - единственный источник допустимых переходов.
var transitions = map[Status]map[Event]Status{
	StatusWaiting: {
		EventConfirm:    StatusConfirmed,
		EventReject:     StatusRejected,
		EventAutoCancel: StatusAutoCancelled,
	},
	StatusConfirmed: {
		EventComplete: StatusDone,
	},
}

// Next возвращает статус после события или ошибку Conflict,
// если из текущего статуса такой переход невозможен.
func Next(from Status, ev Event) (Status, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, shared.WrapError("mentoring", "Transition", shared.ErrConflict,
			fmt.Sprintf("cannot %s a %s mentoring log", ev, from), shared.ErrInvalidTransition)
	}
	return to, nil
}

// CanApply проверяет переход без побочных эффектов.
func CanApply(from Status, ev Event) bool {
	_, ok := transitions[from][ev]
	return ok
}
