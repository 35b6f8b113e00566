package mentoring

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища для заявок.
type Repository interface {
	// Create сохраняет новую заявку и выставляет Version = 1.
	Create(ctx context.Context, log *MentoringLog) error

	// GetByID возвращает заявку по ID.
	// Возвращает ErrMentoringLogNotFound, если заявка не найдена.
	GetByID(ctx context.Context, id string) (*MentoringLog, error)

	// Update сохраняет изменения, если версия в хранилище совпадает с log.Version,
	// и увеличивает log.Version. Иначе возвращает ErrStaleMentoringLog.
	Update(ctx context.Context, log *MentoringLog) error

	// ListByStatus возвращает заявки с указанным статусом.
	ListByStatus(ctx context.Context, status Status) ([]*MentoringLog, error)

	// FindDoneByMentor возвращает состоявшиеся встречи ментора,
	// начало которых попадает в [from, to).
	FindDoneByMentor(ctx context.Context, mentorID string, from, to time.Time) ([]*MentoringLog, error)
}
