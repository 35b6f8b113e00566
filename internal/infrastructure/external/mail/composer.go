package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/mentoring-hub/internal/domain/member"
	"github.com/alem-hub/mentoring-hub/internal/domain/mentoring"
	"github.com/alem-hub/mentoring-hub/internal/domain/notification"
	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
	"github.com/alem-hub/mentoring-hub/pkg/timeutil"
)

const subjectPrefix = "[멘토링] "

// LogReader loads a mentoring log.
type LogReader interface {
	GetByID(ctx context.Context, id string) (*mentoring.MentoringLog, error)
}

// Composer implements notification.Composer. It renders Korean plain-text
// mail with times shown in the service time zone.
type Composer struct {
	logs     LogReader
	members  member.Repository
	location *time.Location

	// autoCancelDelay is quoted in the reservation mail when positive.
	autoCancelDelay time.Duration
}

var _ notification.Composer = (*Composer)(nil)

// NewComposer creates a Composer. A nil loc means Asia/Seoul.
func NewComposer(logs LogReader, members member.Repository, loc *time.Location, autoCancelDelay time.Duration) *Composer {
	if loc == nil {
		loc = timeutil.SeoulTZ
	}
	return &Composer{logs: logs, members: members, location: loc, autoCancelDelay: autoCancelDelay}
}

// Compose renders the mail for req. Reservation goes to the mentor, the
// other types go to the cadet.
func (c *Composer) Compose(ctx context.Context, req notification.Request) (notification.Mail, error) {
	if !req.Type.IsValid() {
		return notification.Mail{}, shared.NewDomainError("notification", "Compose", shared.ErrInvalidInput,
			fmt.Sprintf("unknown mail type %q", req.Type))
	}

	log, err := c.logs.GetByID(ctx, req.MentoringLogID)
	if err != nil {
		return notification.Mail{}, err
	}
	mentor, err := c.members.GetMentorByID(ctx, log.Mentor.ID)
	if err != nil {
		return notification.Mail{}, err
	}
	cadet, err := c.members.GetCadetByID(ctx, log.Cadet.ID)
	if err != nil {
		return notification.Mail{}, err
	}

	switch req.Type {
	case notification.MailTypeReservation:
		return c.reservation(log, mentor, cadet), nil
	case notification.MailTypeApproveToCadet:
		return c.approve(log, mentor, cadet), nil
	default:
		return c.cancel(log, mentor, cadet), nil
	}
}

func (c *Composer) reservation(log *mentoring.MentoringLog, mentor *member.Mentor, cadet *member.Cadet) notification.Mail {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 멘토님, 새로운 멘토링 신청이 도착했습니다.\n\n", member.DisplayName(mentor.Name, mentor.IntraID))
	fmt.Fprintf(&sb, "신청자: %s (%s)\n", member.DisplayName(cadet.Name, cadet.IntraID), cadet.IntraID)
	fmt.Fprintf(&sb, "주제: %s\n", log.Topic)
	fmt.Fprintf(&sb, "내용: %s\n\n", log.Content)
	sb.WriteString("희망 시간:\n")
	for i, rt := range log.RequestTimes {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, c.formatRange(rt))
	}
	if c.autoCancelDelay > 0 {
		fmt.Fprintf(&sb, "\n신청 후 %s 안에 응답하지 않으면 자동으로 취소됩니다.\n", koreanDuration(c.autoCancelDelay))
	}

	return notification.Mail{
		To:      mentor.Email,
		Subject: subjectPrefix + "새로운 멘토링 신청이 도착했습니다",
		Body:    sb.String(),
	}
}

func (c *Composer) approve(log *mentoring.MentoringLog, mentor *member.Mentor, cadet *member.Cadet) notification.Mail {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 님, 멘토링 일정이 확정되었습니다.\n\n", member.DisplayName(cadet.Name, cadet.IntraID))
	fmt.Fprintf(&sb, "멘토: %s\n", member.DisplayName(mentor.Name, mentor.IntraID))
	fmt.Fprintf(&sb, "주제: %s\n", log.Topic)
	if log.MeetingAt != nil {
		fmt.Fprintf(&sb, "일정: %s\n", c.formatRange(*log.MeetingAt))
	}
	fmt.Fprintf(&sb, "상태: %s\n", log.Status.Label())

	return notification.Mail{
		To:      cadet.Email,
		Subject: subjectPrefix + "멘토링 일정이 확정되었습니다",
		Body:    sb.String(),
	}
}

func (c *Composer) cancel(log *mentoring.MentoringLog, mentor *member.Mentor, cadet *member.Cadet) notification.Mail {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 님, 멘토링 신청이 취소되었습니다.\n\n", member.DisplayName(cadet.Name, cadet.IntraID))
	fmt.Fprintf(&sb, "멘토: %s\n", member.DisplayName(mentor.Name, mentor.IntraID))
	fmt.Fprintf(&sb, "주제: %s\n", log.Topic)
	fmt.Fprintf(&sb, "상태: %s\n", log.Status.Label())
	if log.RejectMessage != "" {
		fmt.Fprintf(&sb, "사유: %s\n", log.RejectMessage)
	}
	if log.Status == mentoring.StatusAutoCancelled {
		sb.WriteString("\n멘토가 기한 내에 응답하지 않아 자동으로 취소되었습니다.\n")
	}

	return notification.Mail{
		To:      cadet.Email,
		Subject: subjectPrefix + "멘토링 신청이 취소되었습니다",
		Body:    sb.String(),
	}
}

func (c *Composer) formatRange(r shared.TimeRange) string {
	start := r.Start.In(c.location)
	end := r.End.In(c.location)
	if timeutil.IsSameDay(start, end, c.location) {
		return fmt.Sprintf("%s ~ %s", start.Format(timeutil.FormatDateTime), end.Format(timeutil.FormatTime))
	}
	return fmt.Sprintf("%s ~ %s", start.Format(timeutil.FormatDateTime), end.Format(timeutil.FormatDateTime))
}

// koreanDuration renders d as whole hours, or minutes below one hour.
func koreanDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d분", int(d/time.Minute))
	}
	return fmt.Sprintf("%d시간", int(d/time.Hour))
}
