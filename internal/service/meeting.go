package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/svco/mentoring-server-go/internal/errors"
	"github.com/svco/mentoring-server-go/internal/model"
	"github.com/svco/mentoring-server-go/internal/notification"
	"github.com/svco/mentoring-server-go/internal/repository"
)

// MeetingService drives the meeting lifecycle: it validates the aggregate on
// every persist attempt, writes through the repository, and hands notification
// intents to the dispatcher after the state change is durable. Notice
// delivery failing never rolls back a transition.
type MeetingService struct {
	meetingRepo repository.MeetingRepository
	userRepo    repository.UserRepository
	mentorRepo  repository.MentorRepository
	notifier    notification.Enqueuer
}

func NewMeetingService(
	meetingRepo repository.MeetingRepository,
	userRepo repository.UserRepository,
	mentorRepo repository.MentorRepository,
	notifier notification.Enqueuer,
) *MeetingService {
	return &MeetingService{
		meetingRepo: meetingRepo,
		userRepo:    userRepo,
		mentorRepo:  mentorRepo,
		notifier:    notifier,
	}
}

// Request creates a new meeting request from founder input.
//
// An active meeting may already exist for the pair; the original product
// never enforced one-active-meeting-per-pair, so we only log it until the
// business confirms the rule.
func (s *MeetingService) Request(ctx context.Context, params model.CreateMeetingParams) (*model.MeetingRequest, error) {
	m, err := model.NewMeetingRequest(params)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.meetingRepo.ExistsActiveBetween(ctx, params.FounderID, params.MentorID)
	if err != nil {
		return nil, fmt.Errorf("check active meetings: %w", err)
	}
	if exists {
		log.Warn().
			Str("founderId", params.FounderID).
			Str("mentorId", params.MentorID).
			Msg("pair already has an active meeting; creating anyway")
	}

	created, err := s.meetingRepo.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("create meeting request: %w", err)
	}

	log.Info().
		Str("meetingId", created.ID).
		Str("founderId", created.FounderID).
		Str("mentorId", created.MentorID).
		Time("suggestedMeetingAt", created.SuggestedMeetingAt).
		Msg("meeting requested")

	return created, nil
}

func (s *MeetingService) FindByID(ctx context.Context, id string) (*model.MeetingRequest, error) {
	return s.meetingRepo.FindByID(ctx, id)
}

// Start marks the session as underway.
func (s *MeetingService) Start(ctx context.Context, id string) (*model.MeetingRequest, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Start()
	return s.save(ctx, m, nil, model.Actor{})
}

// Accept confirms the meeting at the given time and notifies the counterpart.
func (s *MeetingService) Accept(ctx context.Context, id string, confirmedAt time.Time, actor model.Actor) (*model.MeetingRequest, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	intent := m.Accept(confirmedAt, actor)
	return s.save(ctx, m, intent, actor)
}

// Reject declines the request with the acting party's comment.
func (s *MeetingService) Reject(ctx context.Context, id, comment string, actor model.Actor) (*model.MeetingRequest, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	intent := m.Reject(comment, actor)
	return s.save(ctx, m, intent, actor)
}

// Reschedule moves the suggested time and notifies both parties.
func (s *MeetingService) Reschedule(ctx context.Context, id string, newTime time.Time) (*model.MeetingRequest, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	intent := m.Reschedule(newTime)
	return s.save(ctx, m, intent, model.Actor{})
}

// Cancel calls the meeting off with the acting party's comment.
func (s *MeetingService) Cancel(ctx context.Context, id, comment string, actor model.Actor) (*model.MeetingRequest, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	intent := m.Cancel(comment, actor)
	return s.save(ctx, m, intent, actor)
}

// Complete marks the session as held.
func (s *MeetingService) Complete(ctx context.Context, id string) (*model.MeetingRequest, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Complete()
	return s.save(ctx, m, nil, model.Actor{})
}

// Expire retires a request that never came together.
func (s *MeetingService) Expire(ctx context.Context, id string) (*model.MeetingRequest, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Expire()
	return s.save(ctx, m, nil, model.Actor{})
}

// RecordFeedback stores a party's rating. Ratings are set once; a repeat
// attempt fails without overwriting the original.
func (s *MeetingService) RecordFeedback(ctx context.Context, id string, actor model.Actor, rating int) error {
	if rating < model.RatingMin || rating > model.RatingMax {
		return apperrors.Validation(apperrors.ErrCodeInvalidRating, "rating", "must be between 0 and 5")
	}

	set, err := s.meetingRepo.SetRating(ctx, id, actor.Role, rating)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	if !set {
		return apperrors.New(apperrors.ErrCodeFeedbackAlreadySent, "feedback was already recorded for this party")
	}

	log.Info().
		Str("meetingId", id).
		Str("role", string(actor.Role)).
		Int("rating", rating).
		Msg("meeting feedback recorded")

	return nil
}

// UsersPendingFeedback lists completed meetings past the grace period whose
// founder has not rated yet.
func (s *MeetingService) UsersPendingFeedback(ctx context.Context) ([]model.MeetingRequest, error) {
	return s.meetingRepo.UsersPendingFeedback(ctx, time.Now().Add(-model.FeedbackGracePeriod))
}

// MentorsPendingFeedback lists completed meetings past the grace period whose
// mentor has not rated yet.
func (s *MeetingService) MentorsPendingFeedback(ctx context.Context) ([]model.MeetingRequest, error) {
	return s.meetingRepo.MentorsPendingFeedback(ctx, time.Now().Add(-model.FeedbackGracePeriod))
}

// ExistsActiveBetween reports whether the pair already has a live meeting.
func (s *MeetingService) ExistsActiveBetween(ctx context.Context, founderID, mentorID string) (bool, error) {
	return s.meetingRepo.ExistsActiveBetween(ctx, founderID, mentorID)
}

func (s *MeetingService) load(ctx context.Context, id string) (*model.MeetingRequest, error) {
	m, err := s.meetingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find meeting: %w", err)
	}
	if m == nil {
		return nil, apperrors.NotFound("meeting")
	}
	return m, nil
}

// save validates the mutated aggregate, persists it, then enqueues the
// notice. A validation failure rejects the whole transition; nothing is
// persisted. The notice is enqueued only after the write succeeds.
func (s *MeetingService) save(ctx context.Context, m *model.MeetingRequest, intent *model.NoticeIntent, actor model.Actor) (*model.MeetingRequest, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.meetingRepo.Update(ctx, m)
	if errors.Is(err, repository.ErrStaleMeeting) {
		return nil, apperrors.Conflict("meeting was modified concurrently")
	}
	if err != nil {
		return nil, fmt.Errorf("update meeting: %w", err)
	}

	log.Info().
		Str("meetingId", updated.ID).
		Str("status", string(updated.Status)).
		Msg("meeting transitioned")

	if intent != nil {
		s.enqueueNotice(ctx, updated, intent)
	}

	return updated, nil
}

func (s *MeetingService) enqueueNotice(ctx context.Context, m *model.MeetingRequest, intent *model.NoticeIntent) {
	notice := notification.Notice{Kind: intent.Kind, Meeting: *m}

	if !intent.Broadcast {
		recipient, err := resolveParty(ctx, s.userRepo, s.mentorRepo, m, intent.RecipientRole)
		if err != nil {
			log.Error().Err(err).
				Str("meetingId", m.ID).
				Str("kind", string(intent.Kind)).
				Msg("failed to resolve notice recipient; notice dropped")
			return
		}
		notice.Recipient = recipient
	}

	s.notifier.Enqueue(ctx, notice)
}

// resolveParty resolves the user identity behind a role: the founder is the
// meeting's user, the mentor side resolves through the mentor's wrapped user.
func resolveParty(
	ctx context.Context,
	userRepo repository.UserRepository,
	mentorRepo repository.MentorRepository,
	m *model.MeetingRequest,
	role model.Role,
) (*model.User, error) {
	if role == model.RoleFounder {
		u, err := userRepo.FindByID(ctx, m.FounderID)
		if err != nil {
			return nil, fmt.Errorf("find founder: %w", err)
		}
		if u == nil {
			return nil, apperrors.NotFound("founder")
		}
		return u, nil
	}

	mentor, err := mentorRepo.FindByID(ctx, m.MentorID)
	if err != nil {
		return nil, fmt.Errorf("find mentor: %w", err)
	}
	if mentor == nil {
		return nil, apperrors.NotFound("mentor")
	}
	return &mentor.User, nil
}
