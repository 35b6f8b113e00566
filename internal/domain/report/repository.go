package report

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища для отчётов.
type Repository interface {
	// Create сохраняет новый отчёт и выставляет Version = 1.
	// Возвращает ErrReportAlreadyExists, если у заявки уже есть отчёт.
	Create(ctx context.Context, r *Report) error

	// GetByID возвращает отчёт по ID.
	// Возвращает ErrReportNotFound, если отчёт не найден.
	GetByID(ctx context.Context, id string) (*Report, error)

	// GetByMentoringLogID возвращает отчёт заявки.
	GetByMentoringLogID(ctx context.Context, logID string) (*Report, error)

	// Update сохраняет изменения при совпадении версии и увеличивает r.Version.
	// Иначе возвращает ErrStaleReport.
	Update(ctx context.Context, r *Report) error
}
