package postgres

import (
	"context"

	"github.com/alem-hub/mentoring-hub/internal/domain/member"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MemberRepository implements member.Repository for PostgreSQL.
type MemberRepository struct {
	conn *Connection
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(conn *Connection) *MemberRepository {
	return &MemberRepository{conn: conn}
}

const (
	mentorSelect = `SELECT id, intra_id, name, email, company, duty FROM mentors`
	cadetSelect  = `SELECT id, intra_id, name, email, is_common FROM cadets`
)

// GetMentorByID returns a mentor by ID.
func (r *MemberRepository) GetMentorByID(ctx context.Context, id string) (*member.Mentor, error) {
	if !shared.IsUUID(id) {
		return nil, shared.ErrMentorNotFound
	}
	return r.getMentor(ctx, "GetMentorByID", mentorSelect+` WHERE id = $1`, id)
}

// GetMentorByIntraID returns a mentor by intra login.
func (r *MemberRepository) GetMentorByIntraID(ctx context.Context, intraID shared.IntraID) (*member.Mentor, error) {
	return r.getMentor(ctx, "GetMentorByIntraID", mentorSelect+` WHERE intra_id = $1`, intraID.String())
}

// GetCadetByID returns a cadet by ID.
func (r *MemberRepository) GetCadetByID(ctx context.Context, id string) (*member.Cadet, error) {
	if !shared.IsUUID(id) {
		return nil, shared.ErrCadetNotFound
	}
	return r.getCadet(ctx, "GetCadetByID", cadetSelect+` WHERE id = $1`, id)
}

// GetCadetByIntraID returns a cadet by intra login.
func (r *MemberRepository) GetCadetByIntraID(ctx context.Context, intraID shared.IntraID) (*member.Cadet, error) {
	return r.getCadet(ctx, "GetCadetByIntraID", cadetSelect+` WHERE intra_id = $1`, intraID.String())
}

func (r *MemberRepository) getMentor(ctx context.Context, op, query, arg string) (*member.Mentor, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var (
		m     member.Mentor
		intra string
	)
	err := r.conn.querier(ctx).QueryRow(ctx, query, arg).Scan(&m.ID, &intra, &m.Name, &m.Email, &m.Company, &m.Duty)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMentorNotFound
		}
		return nil, storageError("member", op, err)
	}
	m.IntraID = shared.IntraID(intra)
	return &m, nil
}

func (r *MemberRepository) getCadet(ctx context.Context, op, query, arg string) (*member.Cadet, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var (
		c     member.Cadet
		intra string
	)
	err := r.conn.querier(ctx).QueryRow(ctx, query, arg).Scan(&c.ID, &intra, &c.Name, &c.Email, &c.IsCommon)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCadetNotFound
		}
		return nil, storageError("member", op, err)
	}
	c.IntraID = shared.IntraID(intra)
	return &c, nil
}
