package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// IntraID is the campus login shared by mentors and cadets.
type IntraID string

var intraIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{1,29}$`)

// IsValid checks if the intra ID is well formed.
func (i IntraID) IsValid() bool {
	return intraIDRegex.MatchString(string(i))
}

// String returns the string representation.
func (i IntraID) String() string {
	return string(i)
}

// NewIntraID creates a new IntraID with validation.
func NewIntraID(login string) (IntraID, error) {
	id := IntraID(strings.TrimSpace(login))
	if !id.IsValid() {
		return "", NewDomainError("shared", "NewIntraID", ErrInvalidInput, "invalid intra ID")
	}
	return id, nil
}

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s looks like a UUID.
func IsUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange is a half-open meeting window [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// IsValid checks that both ends are set and Start is strictly before End.
func (t TimeRange) IsValid() bool {
	return !t.Start.IsZero() && !t.End.IsZero() && t.Start.Before(t.End)
}

// IsZero reports whether the range is unset.
func (t TimeRange) IsZero() bool {
	return t.Start.IsZero() && t.End.IsZero()
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// EndedBefore reports whether the range is over at tm.
func (t TimeRange) EndedBefore(tm time.Time) bool {
	return !t.End.After(tm)
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	tr := TimeRange{Start: start, End: end}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "start must be before end")
	}
	return tr, nil
}

// MemberRef points at a mentor or cadet from another aggregate.
type MemberRef struct {
	ID      string
	IntraID IntraID
}

// IsZero reports whether the reference is unset.
func (m MemberRef) IsZero() bool {
	return m.ID == "" && m.IntraID == ""
}
