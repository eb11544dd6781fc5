package notification

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/svco/mentoring-server-go/internal/model"
)

// LogPort is a stand-in Port that records notices in the log. The real
// mailer lives in the enclosing service; this keeps the lifecycle runnable
// without one.
type LogPort struct{}

func NewLogPort() *LogPort {
	return &LogPort{}
}

func (p *LogPort) MeetingRequestAccepted(ctx context.Context, meeting model.MeetingRequest, recipient model.User) error {
	logNotice(model.AcceptanceNotice, meeting, recipient.Email)
	return nil
}

func (p *LogPort) MeetingRequestRejected(ctx context.Context, meeting model.MeetingRequest, recipient model.User) error {
	logNotice(model.RejectionNotice, meeting, recipient.Email)
	return nil
}

func (p *LogPort) MeetingRequestRescheduled(ctx context.Context, meeting model.MeetingRequest) error {
	logNotice(model.RescheduleNotice, meeting, "")
	return nil
}

func (p *LogPort) MeetingRequestCancelled(ctx context.Context, meeting model.MeetingRequest, recipient model.User) error {
	logNotice(model.CancellationNotice, meeting, recipient.Email)
	return nil
}

func logNotice(kind model.NoticeKind, meeting model.MeetingRequest, recipient string) {
	evt := log.Info().
		Str("kind", string(kind)).
		Str("meetingId", meeting.ID).
		Str("status", string(meeting.Status))
	if recipient != "" {
		evt = evt.Str("recipient", recipient)
	}
	evt.Msg("meeting notice")
}
