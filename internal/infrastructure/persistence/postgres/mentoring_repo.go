package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MENTORING LOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MentoringLogRepository implements mentoring.Repository for PostgreSQL.
type MentoringLogRepository struct {
	conn *Connection
}

// NewMentoringLogRepository creates a new MentoringLogRepository.
func NewMentoringLogRepository(conn *Connection) *MentoringLogRepository {
	return &MentoringLogRepository{conn: conn}
}

const mentoringLogColumns = `
	l.id, l.status, l.topic, l.content, l.reject_message, l.request_times,
	l.meeting_start, l.meeting_end, l.report_status, l.report_id,
	l.mentor_id, m.intra_id, l.cadet_id, c.intra_id,
	l.version, l.created_at, l.updated_at`

const mentoringLogFrom = `
	FROM mentoring_logs l
	JOIN mentors m ON m.id = l.mentor_id
	JOIN cadets c ON c.id = l.cadet_id`

type requestTimeJSON struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create inserts a new mentoring log with version 1.
func (r *MentoringLogRepository) Create(ctx context.Context, l *mentoring.MentoringLog) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	requestTimes, err := encodeRequestTimes(l.RequestTimes)
	if err != nil {
		return err
	}
	start, end := meetingColumns(l.MeetingAt)

	query := `
		INSERT INTO mentoring_logs (
			id, mentor_id, cadet_id, status, topic, content, reject_message,
			request_times, meeting_start, meeting_end, report_status, report_id,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, $13, $14)
	`
	_, err = r.conn.querier(ctx).Exec(ctx, query,
		l.ID,
		l.Mentor.ID,
		l.Cadet.ID,
		string(l.Status),
		l.Topic,
		l.Content,
		l.RejectMessage,
		requestTimes,
		start,
		end,
		string(l.ReportStatus),
		nullableUUID(l.ReportID),
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return createError("mentoring", err,
			shared.NewDomainError("mentoring", "Create", shared.ErrAlreadyExists, "mentoring log already exists"),
			"mentor or cadet does not exist")
	}

	l.Version = 1
	return nil
}

// GetByID returns a mentoring log by ID.
func (r *MentoringLogRepository) GetByID(ctx context.Context, id string) (*mentoring.MentoringLog, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	if !shared.IsUUID(id) {
		return nil, shared.ErrMentoringLogNotFound
	}

	query := `SELECT ` + mentoringLogColumns + mentoringLogFrom + ` WHERE l.id = $1`
	l, err := scanMentoringLog(r.conn.querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMentoringLogNotFound
		}
		return nil, storageError("mentoring", "GetByID", err)
	}
	return l, nil
}

// Update writes l if the stored version still equals l.Version and bumps it.
func (r *MentoringLogRepository) Update(ctx context.Context, l *mentoring.MentoringLog) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	start, end := meetingColumns(l.MeetingAt)
	query := `
		UPDATE mentoring_logs SET
			status = $1,
			reject_message = $2,
			meeting_start = $3,
			meeting_end = $4,
			report_status = $5,
			report_id = $6,
			updated_at = $7,
			version = version + 1
		WHERE id = $8 AND version = $9
	`
	q := r.conn.querier(ctx)
	result, err := q.Exec(ctx, query,
		string(l.Status),
		l.RejectMessage,
		start,
		end,
		string(l.ReportStatus),
		nullableUUID(l.ReportID),
		l.UpdatedAt,
		l.ID,
		l.Version,
	)
	if err != nil {
		return storageError("mentoring", "Update", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM mentoring_logs WHERE id = $1)`, l.ID).Scan(&exists); err != nil {
			return storageError("mentoring", "Update", err)
		}
		if !exists {
			return shared.ErrMentoringLogNotFound
		}
		return shared.ErrStaleMentoringLog
	}

	l.Version++
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// ListByStatus returns logs with the given status, oldest first.
func (r *MentoringLogRepository) ListByStatus(ctx context.Context, status mentoring.Status) ([]*mentoring.MentoringLog, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + mentoringLogColumns + mentoringLogFrom + `
		WHERE l.status = $1
		ORDER BY l.created_at`

	rows, err := r.conn.querier(ctx).Query(ctx, query, string(status))
	if err != nil {
		return nil, storageError("mentoring", "ListByStatus", err)
	}
	return collectMentoringLogs(rows, "ListByStatus")
}

// FindDoneByMentor returns done meetings of a mentor that start in [from, to).
func (r *MentoringLogRepository) FindDoneByMentor(ctx context.Context, mentorID string, from, to time.Time) ([]*mentoring.MentoringLog, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + mentoringLogColumns + mentoringLogFrom + `
		WHERE l.mentor_id = $1
		  AND l.status = 'done'
		  AND l.meeting_start >= $2
		  AND l.meeting_start < $3
		ORDER BY l.meeting_start`

	rows, err := r.conn.querier(ctx).Query(ctx, query, mentorID, from, to)
	if err != nil {
		return nil, storageError("mentoring", "FindDoneByMentor", err)
	}
	return collectMentoringLogs(rows, "FindDoneByMentor")
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func collectMentoringLogs(rows pgx.Rows, op string) ([]*mentoring.MentoringLog, error) {
	defer rows.Close()

	var out []*mentoring.MentoringLog
	for rows.Next() {
		l, err := scanMentoringLog(rows)
		if err != nil {
			return nil, storageError("mentoring", op, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("mentoring", op, err)
	}
	return out, nil
}

func scanMentoringLog(row pgx.Row) (*mentoring.MentoringLog, error) {
	var (
		l                        mentoring.MentoringLog
		status, reportStatus     string
		requestTimes             []byte
		meetingStart, meetingEnd *time.Time
		reportID                 *string
		mentorIntra, cadetIntra  string
	)

	err := row.Scan(
		&l.ID,
		&status,
		&l.Topic,
		&l.Content,
		&l.RejectMessage,
		&requestTimes,
		&meetingStart,
		&meetingEnd,
		&reportStatus,
		&reportID,
		&l.Mentor.ID,
		&mentorIntra,
		&l.Cadet.ID,
		&cadetIntra,
		&l.Version,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Status = mentoring.Status(status)
	l.ReportStatus = mentoring.ReportState(reportStatus)
	l.Mentor.IntraID = shared.IntraID(mentorIntra)
	l.Cadet.IntraID = shared.IntraID(cadetIntra)
	if reportID != nil {
		l.ReportID = *reportID
	}
	if meetingStart != nil && meetingEnd != nil {
		l.MeetingAt = &shared.TimeRange{Start: *meetingStart, End: *meetingEnd}
	}

	l.RequestTimes, err = decodeRequestTimes(requestTimes)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func encodeRequestTimes(times []shared.TimeRange) ([]byte, error) {
	out := make([]requestTimeJSON, len(times))
	for i, t := range times {
		out[i] = requestTimeJSON{Start: t.Start, End: t.End}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request times: %w", err)
	}
	return b, nil
}

func decodeRequestTimes(b []byte) ([]shared.TimeRange, error) {
	var in []requestTimeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request times: %w", err)
	}
	out := make([]shared.TimeRange, len(in))
	for i, t := range in {
		out[i] = shared.TimeRange{Start: t.Start, End: t.End}
	}
	return out, nil
}

func meetingColumns(m *shared.TimeRange) (start, end *time.Time) {
	if m == nil {
		return nil, nil
	}
	s, e := m.Start, m.End
	return &s, &e
}

func nullableUUID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
