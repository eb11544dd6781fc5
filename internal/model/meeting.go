package model

import (
	"strings"
	"time"

	apperrors "github.com/svco/mentoring-server-go/internal/errors"
)

const (
	// StartsSoonWindow is how far ahead of the confirmed time a meeting
	// counts as "starting soon".
	StartsSoonWindow = 15 * time.Minute

	// SMSThrottleWindow suppresses duplicate SMS reminders per party.
	SMSThrottleWindow = 30 * time.Minute

	// FeedbackGracePeriod is how long after the confirmed time a completed
	// meeting may go unrated before it shows up as pending feedback.
	FeedbackGracePeriod = 7 * 24 * time.Hour

	RatingMin = 0
	RatingMax = 5
)

// MeetingRequest is the lifecycle aggregate: one founder asking one mentor
// for a session. All mutation goes through the transition methods; every
// persist attempt re-runs Validate so invariants hold regardless of the code
// path that produced the state.
type MeetingRequest struct {
	ID                 string          `db:"id" json:"id"`
	FounderID          string          `db:"founder_id" json:"founderId"`
	MentorID           string          `db:"mentor_id" json:"mentorId"`
	Status             MeetingStatus   `db:"status" json:"status"`
	Duration           MeetingDuration `db:"duration_minutes" json:"durationMinutes"`
	Purpose            string          `db:"purpose" json:"purpose"`
	SuggestedMeetingAt time.Time       `db:"suggested_meeting_at" json:"suggestedMeetingAt"`
	MeetingAt          *time.Time      `db:"meeting_at" json:"meetingAt,omitempty"`
	MentorComments     *string         `db:"mentor_comments" json:"mentorComments,omitempty"`
	UserComments       *string         `db:"user_comments" json:"userComments,omitempty"`
	MentorRating       *int            `db:"mentor_rating" json:"mentorRating,omitempty"`
	UserRating         *int            `db:"user_rating" json:"userRating,omitempty"`
	MentorSMSSentAt    *time.Time      `db:"mentor_sms_sent_at" json:"-"`
	UserSMSSentAt      *time.Time      `db:"user_sms_sent_at" json:"-"`
	LockVersion        int             `db:"lock_version" json:"-"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}

// CreateMeetingParams carries the founder's request input. SuggestedTimeOfDay
// is a convenience selector: when set it overwrites the clock time of
// SuggestedMeetingAt while preserving its date, and is never stored itself.
type CreateMeetingParams struct {
	FounderID          string
	MentorID           string
	Duration           MeetingDuration
	Purpose            string
	SuggestedMeetingAt time.Time
	SuggestedTimeOfDay TimeOfDay
}

// NewMeetingRequest builds a requested meeting from founder input. The
// aggregate is not persisted; callers run Validate via the save path.
func NewMeetingRequest(params CreateMeetingParams) (*MeetingRequest, error) {
	if params.SuggestedTimeOfDay == "" && params.SuggestedMeetingAt.IsZero() {
		return nil, apperrors.Validation(apperrors.ErrCodeMissingMeetingTime,
			"suggestedMeetingTime", "cannot be blank")
	}

	suggestedAt := params.SuggestedMeetingAt
	if hour, ok := params.SuggestedTimeOfDay.Hour(); ok {
		suggestedAt = time.Date(
			suggestedAt.Year(), suggestedAt.Month(), suggestedAt.Day(),
			hour, 0, 0, 0, suggestedAt.Location(),
		)
	}

	return &MeetingRequest{
		FounderID:          params.FounderID,
		MentorID:           params.MentorID,
		Status:             StatusRequested,
		Duration:           params.Duration,
		Purpose:            params.Purpose,
		SuggestedMeetingAt: suggestedAt,
	}, nil
}

// Validate enforces every lifecycle invariant. It runs on every persist
// attempt so a bad status/comment combination fails no matter which
// transition produced it.
func (m *MeetingRequest) Validate() error {
	if !m.Status.Valid() {
		return apperrors.Validation(apperrors.ErrCodeInvalidStatus,
			"status", "is not a valid meeting status")
	}
	if !m.Duration.Valid() {
		return apperrors.Validation(apperrors.ErrCodeInvalidDuration,
			"duration", "must be 15, 30 or 60 minutes")
	}
	if err := validRating(m.MentorRating, "mentorRating"); err != nil {
		return err
	}
	if err := validRating(m.UserRating, "userRating"); err != nil {
		return err
	}
	if strings.TrimSpace(m.Purpose) == "" {
		return apperrors.Validation(apperrors.ErrCodeMissingPurpose,
			"purpose", "cannot be blank")
	}
	if m.SuggestedMeetingAt.IsZero() {
		return apperrors.Validation(apperrors.ErrCodeMissingSuggested,
			"suggestedMeetingAt", "cannot be blank")
	}
	if (m.Status == StatusRejected || m.Status == StatusCancelled) && !m.hasComment() {
		return apperrors.Validation(apperrors.ErrCodeMissingComment,
			"", "comments required to reject or cancel a meeting request")
	}
	if m.Status == StatusAccepted && (m.MeetingAt == nil || m.MeetingAt.IsZero()) {
		return apperrors.Validation(apperrors.ErrCodeMissingConfirmed,
			"meetingAt", "meeting cannot be accepted without a confirmed time")
	}
	return nil
}

func validRating(rating *int, field string) error {
	if rating == nil {
		return nil
	}
	if *rating < RatingMin || *rating > RatingMax {
		return apperrors.Validation(apperrors.ErrCodeInvalidRating,
			field, "must be between 0 and 5")
	}
	return nil
}

func (m *MeetingRequest) hasComment() bool {
	return hasText(m.MentorComments) || hasText(m.UserComments)
}

func hasText(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// ActorFor resolves which side of the meeting a user is on. The founder is
// participant A; anyone else acting on the meeting is the mentor's side.
func (m *MeetingRequest) ActorFor(u *User) Actor {
	if u != nil && u.ID == m.FounderID {
		return Actor{User: u, Role: RoleFounder}
	}
	return Actor{User: u, Role: RoleMentor}
}

// NoticeIntent is the pure-data result of a transition: which notice to send
// and to whom. Broadcast intents carry no recipient role; recipient
// resolution is left to the notification collaborator.
type NoticeIntent struct {
	Kind          NoticeKind
	Broadcast     bool
	RecipientRole Role
}

// Start marks the session as underway. No notice is sent.
func (m *MeetingRequest) Start() {
	m.Status = StatusStarted
}

// Accept confirms the meeting at the given time and emits an acceptance
// notice for the non-accepting party.
func (m *MeetingRequest) Accept(confirmedAt time.Time, actor Actor) *NoticeIntent {
	m.Status = StatusAccepted
	m.MeetingAt = &confirmedAt
	return &NoticeIntent{Kind: AcceptanceNotice, RecipientRole: actor.Role.Other()}
}

// Reject turns the request down, recording the acting party's comment, and
// emits a rejection notice for the counterpart.
func (m *MeetingRequest) Reject(comment string, actor Actor) *NoticeIntent {
	m.Status = StatusRejected
	m.setComment(comment, actor)
	return &NoticeIntent{Kind: RejectionNotice, RecipientRole: actor.Role.Other()}
}

// Reschedule proposes a new suggested time. The reschedule notice addresses
// only the meeting; both parties are informed by the notification collaborator.
func (m *MeetingRequest) Reschedule(newTime time.Time) *NoticeIntent {
	m.Status = StatusRescheduled
	m.SuggestedMeetingAt = newTime
	return &NoticeIntent{Kind: RescheduleNotice, Broadcast: true}
}

// Cancel calls the meeting off, recording the acting party's comment, and
// emits a cancellation notice for the counterpart.
func (m *MeetingRequest) Cancel(comment string, actor Actor) *NoticeIntent {
	m.Status = StatusCancelled
	m.setComment(comment, actor)
	return &NoticeIntent{Kind: CancellationNotice, RecipientRole: actor.Role.Other()}
}

// Complete marks the session as held. No notice is sent.
func (m *MeetingRequest) Complete() {
	m.Status = StatusCompleted
}

// Expire retires a request that never came together. When to expire is the
// caller's decision; the transition itself is unconditional.
func (m *MeetingRequest) Expire() {
	m.Status = StatusExpired
}

func (m *MeetingRequest) setComment(comment string, actor Actor) {
	if actor.IsMentor() {
		m.MentorComments = &comment
	} else {
		m.UserComments = &comment
	}
}

// GaveFeedback reports whether the party in the given role has rated the
// meeting. Ratings are set once and never overwritten.
func (m *MeetingRequest) GaveFeedback(role Role) bool {
	if role == RoleMentor {
		return m.MentorRating != nil
	}
	return m.UserRating != nil
}

// StartsSoon reports whether an accepted meeting's confirmed time is within
// the starts-soon window of now. False for any other status.
func (m *MeetingRequest) StartsSoon(now time.Time) bool {
	if m.Status != StatusAccepted || m.MeetingAt == nil {
		return false
	}
	return m.MeetingAt.Before(now.Add(StartsSoonWindow))
}

// ToBeRescheduled reports whether the candidate time differs from the
// currently suggested one.
func (m *MeetingRequest) ToBeRescheduled(candidate time.Time) bool {
	return !m.SuggestedMeetingAt.Equal(candidate)
}

// SMSSentAt returns the throttle stamp for the given role.
func (m *MeetingRequest) SMSSentAt(role Role) *time.Time {
	if role == RoleMentor {
		return m.MentorSMSSentAt
	}
	return m.UserSMSSentAt
}

// RecentSMSSent reports whether an SMS reminder went out for the given role
// within the throttle window.
func (m *MeetingRequest) RecentSMSSent(role Role, now time.Time) bool {
	sentAt := m.SMSSentAt(role)
	return sentAt != nil && sentAt.After(now.Add(-SMSThrottleWindow))
}
