package report

// StatusValidator проверяет, можно ли менять отчёт в данном статусе.
type StatusValidator struct {
	Status Status
}

// Verify возвращает true только для черновика.
func (v StatusValidator) Verify() bool {
	return v.Status == StatusDrafting
}
