package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/mentoring-hub/internal/application/query"
	"github.com/alem-hub/mentoring-hub/internal/domain/report"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ReportRepository implements report.Repository and query.SettlementReader.
type ReportRepository struct {
	conn *Connection
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(conn *Connection) *ReportRepository {
	return &ReportRepository{conn: conn}
}

const reportSelect = `
	SELECT r.id, r.status, r.topic, r.place, r.content, r.feedback_message,
		   r.feedback1, r.feedback2, r.feedback3, r.image_keys, r.signature_key,
		   r.money, r.mentoring_log_id,
		   r.mentor_id, m.intra_id, r.cadet_id, c.intra_id,
		   r.version, r.created_at, r.updated_at, r.submitted_at
	FROM reports r
	JOIN mentors m ON m.id = r.mentor_id
	JOIN cadets c ON c.id = r.cadet_id`

// Create inserts a drafting report. The unique mentoring_log_id constraint
// turns a second report for the same log into ErrReportAlreadyExists.
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO reports (
			id, mentoring_log_id, mentor_id, cadet_id, status,
			topic, place, content, feedback_message,
			feedback1, feedback2, feedback3, image_keys, signature_key, money,
			version, created_at, updated_at, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1, $16, $17, $18)
	`
	_, err := r.conn.querier(ctx).Exec(ctx, query,
		rep.ID,
		rep.MentoringLogID,
		rep.Mentor.ID,
		rep.Cadet.ID,
		string(rep.Status),
		rep.Topic,
		rep.Place,
		rep.Content,
		rep.FeedbackMessage,
		rep.Feedback1,
		rep.Feedback2,
		rep.Feedback3,
		imageKeys(rep.ImageKeys),
		rep.SignatureKey,
		rep.Money,
		rep.CreatedAt,
		rep.UpdatedAt,
		rep.SubmittedAt,
	)
	if err != nil {
		return createError("report", err, shared.ErrReportAlreadyExists, "mentoring log or member does not exist")
	}

	rep.Version = 1
	return nil
}

// GetByID returns a report by ID.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*report.Report, error) {
	if !shared.IsUUID(id) {
		return nil, shared.ErrReportNotFound
	}
	return r.getOne(ctx, "GetByID", reportSelect+` WHERE r.id = $1`, id)
}

// GetByMentoringLogID returns the report of a mentoring log.
func (r *ReportRepository) GetByMentoringLogID(ctx context.Context, logID string) (*report.Report, error) {
	if !shared.IsUUID(logID) {
		return nil, shared.ErrReportNotFound
	}
	return r.getOne(ctx, "GetByMentoringLogID", reportSelect+` WHERE r.mentoring_log_id = $1`, logID)
}

func (r *ReportRepository) getOne(ctx context.Context, op, query string, arg string) (*report.Report, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rep, err := scanReport(r.conn.querier(ctx).QueryRow(ctx, query, arg))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrReportNotFound
		}
		return nil, storageError("report", op, err)
	}
	return rep, nil
}

// Update writes rep if the stored version still equals rep.Version and bumps it.
func (r *ReportRepository) Update(ctx context.Context, rep *report.Report) error {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE reports SET
			status = $1,
			topic = $2,
			place = $3,
			content = $4,
			feedback_message = $5,
			feedback1 = $6,
			feedback2 = $7,
			feedback3 = $8,
			image_keys = $9,
			signature_key = $10,
			money = $11,
			updated_at = $12,
			submitted_at = $13,
			version = version + 1
		WHERE id = $14 AND version = $15
	`
	q := r.conn.querier(ctx)
	result, err := q.Exec(ctx, query,
		string(rep.Status),
		rep.Topic,
		rep.Place,
		rep.Content,
		rep.FeedbackMessage,
		rep.Feedback1,
		rep.Feedback2,
		rep.Feedback3,
		imageKeys(rep.ImageKeys),
		rep.SignatureKey,
		rep.Money,
		rep.UpdatedAt,
		rep.SubmittedAt,
		rep.ID,
		rep.Version,
	)
	if err != nil {
		return storageError("report", "Update", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reports WHERE id = $1)`, rep.ID).Scan(&exists); err != nil {
			return storageError("report", "Update", err)
		}
		if !exists {
			return shared.ErrReportNotFound
		}
		return shared.ErrStaleReport
	}

	rep.Version++
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Settlement
// ─────────────────────────────────────────────────────────────────────────────

// ListSubmittedBetween returns submitted reports whose meeting starts in [from, to).
func (r *ReportRepository) ListSubmittedBetween(ctx context.Context, from, to time.Time) ([]query.SettlementRow, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	sql := `
		SELECT r.id, l.id,
			   m.name, m.intra_id, m.company, m.duty,
			   r.place, l.meeting_start, l.meeting_end,
			   c.name, c.intra_id, c.is_common,
			   r.money
		FROM reports r
		JOIN mentoring_logs l ON l.id = r.mentoring_log_id
		JOIN mentors m ON m.id = r.mentor_id
		JOIN cadets c ON c.id = r.cadet_id
		WHERE r.status = 'submitted'
		  AND l.meeting_start >= $1
		  AND l.meeting_start < $2
		ORDER BY m.intra_id, l.meeting_start
	`
	rows, err := r.conn.querier(ctx).Query(ctx, sql, from, to)
	if err != nil {
		return nil, storageError("settlement", "ListSubmitted", err)
	}
	defer rows.Close()

	var out []query.SettlementRow
	for rows.Next() {
		var row query.SettlementRow
		if err := rows.Scan(
			&row.ReportID,
			&row.MentoringLogID,
			&row.MentorName,
			&row.MentorIntraID,
			&row.MentorCompany,
			&row.MentorDuty,
			&row.Place,
			&row.MeetingStart,
			&row.MeetingEnd,
			&row.CadetName,
			&row.CadetIntraID,
			&row.CadetIsCommon,
			&row.Money,
		); err != nil {
			return nil, storageError("settlement", "ListSubmitted", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("settlement", "ListSubmitted", err)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanReport(row pgx.Row) (*report.Report, error) {
	var (
		rep                     report.Report
		status                  string
		mentorIntra, cadetIntra string
	)

	err := row.Scan(
		&rep.ID,
		&status,
		&rep.Topic,
		&rep.Place,
		&rep.Content,
		&rep.FeedbackMessage,
		&rep.Feedback1,
		&rep.Feedback2,
		&rep.Feedback3,
		&rep.ImageKeys,
		&rep.SignatureKey,
		&rep.Money,
		&rep.MentoringLogID,
		&rep.Mentor.ID,
		&mentorIntra,
		&rep.Cadet.ID,
		&cadetIntra,
		&rep.Version,
		&rep.CreatedAt,
		&rep.UpdatedAt,
		&rep.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}

	rep.Status = report.Status(status)
	rep.Mentor.IntraID = shared.IntraID(mentorIntra)
	rep.Cadet.IntraID = shared.IntraID(cadetIntra)
	return &rep, nil
}

// imageKeys keeps the NOT NULL text[] column non-null for empty slices.
func imageKeys(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}
