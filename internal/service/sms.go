package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/svco/mentoring-server-go/internal/errors"
	"github.com/svco/mentoring-server-go/internal/model"
	"github.com/svco/mentoring-server-go/internal/repository"
	"github.com/svco/mentoring-server-go/internal/sms"
)

// SMSReminderService sends the "ready and waiting" SMS to the counterpart
// when a party shows up for a session. Sends are throttled per party per
// meeting: within the throttle window the call is a silent no-op.
type SMSReminderService struct {
	meetingRepo repository.MeetingRepository
	userRepo    repository.UserRepository
	mentorRepo  repository.MentorRepository
	sender      sms.Sender
}

func NewSMSReminderService(
	meetingRepo repository.MeetingRepository,
	userRepo repository.UserRepository,
	mentorRepo repository.MentorRepository,
	sender sms.Sender,
) *SMSReminderService {
	return &SMSReminderService{
		meetingRepo: meetingRepo,
		userRepo:    userRepo,
		mentorRepo:  mentorRepo,
		sender:      sender,
	}
}

// NotifyByPhone texts the counterpart that the actor is waiting. The throttle
// stamp is written before the send and is guarded in SQL, so two racing calls
// within the window issue at most one SMS. Provider failures are best-effort:
// logged, never returned.
func (s *SMSReminderService) NotifyByPhone(ctx context.Context, meetingID string, actor model.Actor) error {
	m, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("find meeting: %w", err)
	}
	if m == nil {
		return apperrors.NotFound("meeting")
	}

	now := time.Now()
	if m.RecentSMSSent(actor.Role, now) {
		return nil
	}

	counterpart, err := resolveParty(ctx, s.userRepo, s.mentorRepo, m, actor.Role.Other())
	if err != nil {
		return fmt.Errorf("resolve counterpart: %w", err)
	}
	if counterpart.Phone == nil || *counterpart.Phone == "" {
		log.Warn().
			Str("meetingId", meetingID).
			Str("userId", counterpart.ID).
			Msg("counterpart has no phone number; sms skipped")
		return nil
	}

	stamped, err := s.meetingRepo.StampSMSSent(ctx, meetingID, actor.Role, now)
	if err != nil {
		return fmt.Errorf("stamp sms sent: %w", err)
	}
	if !stamped {
		// Lost the race to a concurrent call inside the window.
		return nil
	}

	text := fmt.Sprintf("%s is ready and waiting for today's mentoring session", actor.User.FullName)
	if err := s.sender.Send(ctx, text, *counterpart.Phone); err != nil {
		log.Warn().Err(err).
			Str("meetingId", meetingID).
			Msg("sms send failed")
		return nil
	}

	log.Info().
		Str("meetingId", meetingID).
		Str("role", string(actor.Role)).
		Msg("session reminder sms sent")

	return nil
}
