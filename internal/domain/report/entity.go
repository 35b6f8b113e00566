// Package report содержит доменную модель отчёта о встрече и расчёт
// вознаграждения ментора. Здесь нет внешних зависимостей.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// DefaultMaxImages - сколько фотографий можно приложить к отчёту.
const DefaultMaxImages = 2

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет состояние отчёта.
type Status string

const (
	// StatusDrafting - отчёт редактируется.
	StatusDrafting Status = "drafting"
	// StatusSubmitted - отчёт отправлен, сумма зафиксирована.
	StatusSubmitted Status = "submitted"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	return s == StatusDrafting || s == StatusSubmitted
}

// Label возвращает подпись статуса для писем и выгрузки.
func (s Status) Label() string {
	switch s {
	case StatusDrafting:
		return "작성중"
	case StatusSubmitted:
		return "작성완료"
	default:
		return string(s)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: REPORT
// ══════════════════════════════════════════════════════════════════════════════

// Report - отчёт ментора о состоявшейся встрече.
type Report struct {
	ID     string
	Status Status

	Topic           string
	Place           string
	Content         string
	FeedbackMessage string
	Feedback1       int
	Feedback2       int
	Feedback3       int

	// ImageKeys - ключи в файловом хранилище, не больше MaxImages.
	ImageKeys []string
	// SignatureKey задаётся один раз.
	SignatureKey string

	// Money равно 0, пока отчёт не отправлен.
	Money int64

	MentoringLogID string
	Mentor         shared.MemberRef
	Cadet          shared.MemberRef

	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
}

// NewReport создаёт пустой черновик отчёта для заявки.
func NewReport(id, mentoringLogID string, mentor, cadet shared.MemberRef, now time.Time) (*Report, error) {
	if id == "" || mentoringLogID == "" {
		return nil, shared.NewDomainError("report", "New", shared.ErrInvalidInput, "id and mentoring log id are required")
	}
	return &Report{
		ID:             id,
		Status:         StatusDrafting,
		ImageKeys:      []string{},
		MentoringLogID: mentoringLogID,
		Mentor:         mentor,
		Cadet:          cadet,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsOwnedBy проверяет, что отчёт принадлежит ментору с этим логином.
func (r *Report) IsOwnedBy(intraID shared.IntraID) bool {
	return r.Mentor.IntraID == intraID
}

// IsEditable возвращает true, пока отчёт в статусе drafting.
func (r *Report) IsEditable() bool {
	return StatusValidator{Status: r.Status}.Verify()
}

// ══════════════════════════════════════════════════════════════════════════════
// PATCH
// ══════════════════════════════════════════════════════════════════════════════

// Patch - частичное обновление отчёта. nil означает "не менять".
// Оценки приходят строками и приводятся к int; пустая строка и "0"
// сохраняют прежнее значение.
type Patch struct {
	Topic           *string
	Place           *string
	Content         *string
	FeedbackMessage *string
	Feedback1       *string
	Feedback2       *string
	Feedback3       *string

	// Submit - после применения изменений отправить отчёт.
	Submit bool
}

// ApplyPatch применяет изменения к черновику.
// Ничего не меняет, если хотя бы одна оценка не является числом.
func (r *Report) ApplyPatch(p Patch, now time.Time) error {
	if !r.IsEditable() {
		return shared.ErrReportNotEditable
	}

	f1, err := coerceScore("feedback1", p.Feedback1, r.Feedback1)
	if err != nil {
		return err
	}
	f2, err := coerceScore("feedback2", p.Feedback2, r.Feedback2)
	if err != nil {
		return err
	}
	f3, err := coerceScore("feedback3", p.Feedback3, r.Feedback3)
	if err != nil {
		return err
	}

	if p.Topic != nil {
		r.Topic = *p.Topic
	}
	if p.Place != nil {
		r.Place = *p.Place
	}
	if p.Content != nil {
		r.Content = *p.Content
	}
	if p.FeedbackMessage != nil {
		r.FeedbackMessage = *p.FeedbackMessage
	}
	r.Feedback1, r.Feedback2, r.Feedback3 = f1, f2, f3
	r.UpdatedAt = now
	return nil
}

// Допустимый диапазон оценок feedback1-3.
const (
	MinScore = 1
	MaxScore = 5
)

func coerceScore(field string, raw *string, current int) (int, error) {
	if raw == nil {
		return current, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return current, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return current, shared.WrapError("report", "ApplyPatch", shared.ErrInvalidInput,
			fmt.Sprintf("%s must be a number", field), err)
	}
	if v == 0 {
		return current, nil
	}
	if v < MinScore || v > MaxScore {
		return current, shared.NewDomainError("report", "ApplyPatch", shared.ErrInvalidInput,
			fmt.Sprintf("%s must be between %d and %d", field, MinScore, MaxScore))
	}
	return v, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSETS
// ══════════════════════════════════════════════════════════════════════════════

// AttachImage добавляет фотографию, если есть место.
// При переполнении существующие ключи не меняются.
// Отправленный отчёт не принимает новых файлов.
func (r *Report) AttachImage(key string, maxImages int, now time.Time) error {
	if !r.IsEditable() {
		return shared.ErrReportNotEditable
	}
	if strings.TrimSpace(key) == "" {
		return shared.NewDomainError("report", "UploadImage", shared.ErrInvalidInput, "image key is required")
	}
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	if len(r.ImageKeys) >= maxImages {
		return shared.ErrImageCapacity
	}
	r.ImageKeys = append(r.ImageKeys, key)
	r.UpdatedAt = now
	return nil
}

// AttachSignature сохраняет подпись. Повторная загрузка отклоняется.
func (r *Report) AttachSignature(key string, now time.Time) error {
	if !r.IsEditable() {
		return shared.ErrReportNotEditable
	}
	if strings.TrimSpace(key) == "" {
		return shared.NewDomainError("report", "UploadSignature", shared.ErrInvalidInput, "signature key is required")
	}
	if r.SignatureKey != "" {
		return shared.ErrSignatureExists
	}
	r.SignatureKey = key
	r.UpdatedAt = now
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// MissingFields возвращает незаполненные обязательные поля в фиксированном порядке.
func (r *Report) MissingFields() []string {
	var missing []string
	if len(r.ImageKeys) == 0 {
		missing = append(missing, "images")
	}
	if r.SignatureKey == "" {
		missing = append(missing, "signature")
	}
	if strings.TrimSpace(r.Topic) == "" {
		missing = append(missing, "topic")
	}
	if strings.TrimSpace(r.Place) == "" {
		missing = append(missing, "place")
	}
	if strings.TrimSpace(r.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(r.FeedbackMessage) == "" {
		missing = append(missing, "feedbackMessage")
	}
	if r.Feedback1 == 0 {
		missing = append(missing, "feedback1")
	}
	if r.Feedback2 == 0 {
		missing = append(missing, "feedback2")
	}
	if r.Feedback3 == 0 {
		missing = append(missing, "feedback3")
	}
	return missing
}

// CheckComplete возвращает InvalidInput с перечнем пустых полей.
func (r *Report) CheckComplete() error {
	missing := r.MissingFields()
	if len(missing) == 0 {
		return nil
	}
	return shared.NewDomainError("report", "Submit", shared.ErrInvalidInput,
		"missing required fields: "+strings.Join(missing, ", "))
}

// Submit фиксирует сумму и переводит отчёт в submitted.
func (r *Report) Submit(money int64, now time.Time) error {
	if !r.IsEditable() {
		return shared.ErrReportNotEditable
	}
	if err := r.CheckComplete(); err != nil {
		return err
	}
	if money < 0 {
		money = 0
	}
	r.Money = money
	r.Status = StatusSubmitted
	r.SubmittedAt = &now
	r.UpdatedAt = now
	return nil
}
