// Package member содержит менторов и кадетов - участников заявок.
// Профили ведутся снаружи, ядро только читает их.
package member

import (
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// Mentor - ментор, принимающий заявки.
type Mentor struct {
	ID      string
	IntraID shared.IntraID
	Name    string
	Email   string
	// Company и Duty попадают в ежемесячную выгрузку.
	Company string
	Duty    string
}

// Ref возвращает ссылку на ментора для других агрегатов.
func (m *Mentor) Ref() shared.MemberRef {
	return shared.MemberRef{ID: m.ID, IntraID: m.IntraID}
}

// Cadet - кадет, подающий заявки.
type Cadet struct {
	ID      string
	IntraID shared.IntraID
	Name    string
	Email   string
	// IsCommon - кадет на общем курсе.
	IsCommon bool
}

// Ref возвращает ссылку на кадета для других агрегатов.
func (c *Cadet) Ref() shared.MemberRef {
	return shared.MemberRef{ID: c.ID, IntraID: c.IntraID}
}

// DisplayName возвращает имя или логин, если имя не задано.
func DisplayName(name string, intraID shared.IntraID) string {
	if name != "" {
		return name
	}
	return intraID.String()
}
