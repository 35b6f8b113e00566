package command

import (
	"context"
	"sync"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/member"
	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/report"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// ── mentoring logs ───────────────────────────────────────────────────────────

type memLogRepo struct {
	mu   sync.Mutex
	logs map[string]*mentoring.MentoringLog
}

func newMemLogRepo() *memLogRepo {
	return &memLogRepo{logs: make(map[string]*mentoring.MentoringLog)}
}

func cloneLog(l *mentoring.MentoringLog) *mentoring.MentoringLog {
	c := *l
	c.RequestTimes = append([]shared.TimeRange(nil), l.RequestTimes...)
	if l.MeetingAt != nil {
		m := *l.MeetingAt
		c.MeetingAt = &m
	}
	return &c
}

func (r *memLogRepo) Create(_ context.Context, l *mentoring.MentoringLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.Version = 1
	r.logs[l.ID] = cloneLog(l)
	return nil
}

func (r *memLogRepo) GetByID(_ context.Context, id string) (*mentoring.MentoringLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return nil, shared.ErrMentoringLogNotFound
	}
	return cloneLog(l), nil
}

func (r *memLogRepo) Update(_ context.Context, l *mentoring.MentoringLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.logs[l.ID]
	if !ok {
		return shared.ErrMentoringLogNotFound
	}
	if stored.Version != l.Version {
		return shared.ErrStaleMentoringLog
	}
	l.Version++
	r.logs[l.ID] = cloneLog(l)
	return nil
}

func (r *memLogRepo) ListByStatus(_ context.Context, status mentoring.Status) ([]*mentoring.MentoringLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*mentoring.MentoringLog
	for _, l := range r.logs {
		if l.Status == status {
			out = append(out, cloneLog(l))
		}
	}
	return out, nil
}

func (r *memLogRepo) FindDoneByMentor(_ context.Context, mentorID string, from, to time.Time) ([]*mentoring.MentoringLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*mentoring.MentoringLog
	for _, l := range r.logs {
		if l.Mentor.ID != mentorID || l.Status != mentoring.StatusDone || l.MeetingAt == nil {
			continue
		}
		if l.MeetingAt.Start.Before(from) || !l.MeetingAt.Start.Before(to) {
			continue
		}
		out = append(out, cloneLog(l))
	}
	return out, nil
}

// put stores a log as-is, bypassing the state machine.
func (r *memLogRepo) put(l *mentoring.MentoringLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.Version == 0 {
		l.Version = 1
	}
	r.logs[l.ID] = cloneLog(l)
}

func (r *memLogRepo) get(id string) *mentoring.MentoringLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneLog(r.logs[id])
}

// ── reports ──────────────────────────────────────────────────────────────────

type memReportRepo struct {
	mu      sync.Mutex
	reports map[string]*report.Report
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[string]*report.Report)}
}

func cloneReport(r *report.Report) *report.Report {
	c := *r
	c.ImageKeys = append([]string(nil), r.ImageKeys...)
	return &c
}

func (m *memReportRepo) Create(_ context.Context, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reports {
		if existing.MentoringLogID == r.MentoringLogID {
			return shared.ErrReportAlreadyExists
		}
	}
	r.Version = 1
	m.reports[r.ID] = cloneReport(r)
	return nil
}

func (m *memReportRepo) GetByID(_ context.Context, id string) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, shared.ErrReportNotFound
	}
	return cloneReport(r), nil
}

func (m *memReportRepo) GetByMentoringLogID(_ context.Context, logID string) (*report.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.MentoringLogID == logID {
			return cloneReport(r), nil
		}
	}
	return nil, shared.ErrReportNotFound
}

func (m *memReportRepo) Update(_ context.Context, r *report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reports[r.ID]
	if !ok {
		return shared.ErrReportNotFound
	}
	if stored.Version != r.Version {
		return shared.ErrStaleReport
	}
	r.Version++
	m.reports[r.ID] = cloneReport(r)
	return nil
}

func (m *memReportRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

// ── members ──────────────────────────────────────────────────────────────────

type memMemberRepo struct {
	mentors []*member.Mentor
	cadets  []*member.Cadet
}

func (m *memMemberRepo) GetMentorByID(_ context.Context, id string) (*member.Mentor, error) {
	for _, x := range m.mentors {
		if x.ID == id {
			return x, nil
		}
	}
	return nil, shared.ErrMentorNotFound
}

func (m *memMemberRepo) GetMentorByIntraID(_ context.Context, intraID shared.IntraID) (*member.Mentor, error) {
	for _, x := range m.mentors {
		if x.IntraID == intraID {
			return x, nil
		}
	}
	return nil, shared.ErrMentorNotFound
}

func (m *memMemberRepo) GetCadetByID(_ context.Context, id string) (*member.Cadet, error) {
	for _, x := range m.cadets {
		if x.ID == id {
			return x, nil
		}
	}
	return nil, shared.ErrCadetNotFound
}

func (m *memMemberRepo) GetCadetByIntraID(_ context.Context, intraID shared.IntraID) (*member.Cadet, error) {
	for _, x := range m.cadets {
		if x.IntraID == intraID {
			return x, nil
		}
	}
	return nil, shared.ErrCadetNotFound
}

// ── ports ────────────────────────────────────────────────────────────────────

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]time.Duration
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[string]time.Duration)}
}

func (s *fakeScheduler) Schedule(logID string, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[logID] = delay
	return nil
}

func (s *fakeScheduler) Cancel(logID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scheduled, logID)
	s.cancelled = append(s.cancelled, logID)
}

type sentMail struct {
	LogID string
	Type  notification.MailType
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *fakeNotifier) Notify(logID string, t notification.MailType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{LogID: logID, Type: t})
}

func (n *fakeNotifier) types() []notification.MailType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.MailType, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Type)
	}
	return out
}

type fakeJanitor struct {
	orphaned []string
}

func (j *fakeJanitor) MarkOrphaned(_ context.Context, key string) error {
	j.orphaned = append(j.orphaned, key)
	return nil
}

type fakeObserver struct {
	money []int64
}

func (o *fakeObserver) ReportSubmitted(money int64, _ time.Duration) {
	o.money = append(o.money, money)
}
