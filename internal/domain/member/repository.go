package member

import (
	"context"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// Repository - чтение профилей участников.
type Repository interface {
	// GetMentorByID возвращает ErrMentorNotFound, если ментор не найден.
	GetMentorByID(ctx context.Context, id string) (*Mentor, error)
	GetMentorByIntraID(ctx context.Context, intraID shared.IntraID) (*Mentor, error)

	// GetCadetByID возвращает ErrCadetNotFound, если кадет не найден.
	GetCadetByID(ctx context.Context, id string) (*Cadet, error)
	GetCadetByIntraID(ctx context.Context, intraID shared.IntraID) (*Cadet, error)
}
