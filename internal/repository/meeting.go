package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/svco/mentoring-server-go/internal/model"
)

// ErrStaleMeeting is returned when an update loses an optimistic-lock race.
// Callers should reload the meeting and retry the transition.
var ErrStaleMeeting = errors.New("meeting was modified concurrently")

type MeetingRepository interface {
	FindByID(ctx context.Context, id string) (*model.MeetingRequest, error)
	Create(ctx context.Context, m *model.MeetingRequest) (*model.MeetingRequest, error)
	Update(ctx context.Context, m *model.MeetingRequest) (*model.MeetingRequest, error)
	ExistsActiveBetween(ctx context.Context, founderID, mentorID string) (bool, error)
	UsersPendingFeedback(ctx context.Context, olderThan time.Time) ([]model.MeetingRequest, error)
	MentorsPendingFeedback(ctx context.Context, olderThan time.Time) ([]model.MeetingRequest, error)
	FindStaleRequests(ctx context.Context, suggestedBefore time.Time) ([]model.MeetingRequest, error)
	StampSMSSent(ctx context.Context, id string, role model.Role, now time.Time) (bool, error)
	SetRating(ctx context.Context, id string, role model.Role, rating int) (bool, error)
}

type meetingRepo struct {
	db *sqlx.DB
}

func NewMeetingRepository(db *sqlx.DB) MeetingRepository {
	return &meetingRepo{db: db}
}

func (r *meetingRepo) FindByID(ctx context.Context, id string) (*model.MeetingRequest, error) {
	var m model.MeetingRequest
	err := r.db.GetContext(ctx, &m, `SELECT * FROM mentor_meetings WHERE id = $1`, id)
	return HandleNotFound(&m, err)
}

func (r *meetingRepo) Create(ctx context.Context, m *model.MeetingRequest) (*model.MeetingRequest, error) {
	id := m.ID
	if id == "" {
		id = uuid.NewString()
	}
	var created model.MeetingRequest
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO mentor_meetings
			(id, founder_id, mentor_id, status, duration_minutes, purpose,
			 suggested_meeting_at, meeting_at, mentor_comments, user_comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING *
	`, id, m.FounderID, m.MentorID, m.Status, m.Duration, m.Purpose,
		m.SuggestedMeetingAt, m.MeetingAt, m.MentorComments, m.UserComments)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update persists the aggregate guarded by its lock version so concurrent
// writers to the same meeting serialize; the loser gets ErrStaleMeeting.
func (r *meetingRepo) Update(ctx context.Context, m *model.MeetingRequest) (*model.MeetingRequest, error) {
	var updated model.MeetingRequest
	err := r.db.GetContext(ctx, &updated, `
		UPDATE mentor_meetings SET
			status = $2,
			duration_minutes = $3,
			purpose = $4,
			suggested_meeting_at = $5,
			meeting_at = $6,
			mentor_comments = $7,
			user_comments = $8,
			lock_version = lock_version + 1,
			updated_at = NOW()
		WHERE id = $1 AND lock_version = $9
		RETURNING *
	`, m.ID, m.Status, m.Duration, m.Purpose, m.SuggestedMeetingAt,
		m.MeetingAt, m.MentorComments, m.UserComments, m.LockVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaleMeeting
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *meetingRepo) ExistsActiveBetween(ctx context.Context, founderID, mentorID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM mentor_meetings
			WHERE founder_id = $1 AND mentor_id = $2
			AND status IN ('requested', 'accepted', 'rescheduled', 'started')
		)
	`, founderID, mentorID)
	return exists, err
}

func (r *meetingRepo) UsersPendingFeedback(ctx context.Context, olderThan time.Time) ([]model.MeetingRequest, error) {
	var meetings []model.MeetingRequest
	err := r.db.SelectContext(ctx, &meetings, `
		SELECT * FROM mentor_meetings
		WHERE status = 'completed' AND meeting_at < $1 AND user_rating IS NULL
		ORDER BY meeting_at ASC
	`, olderThan)
	return meetings, err
}

func (r *meetingRepo) MentorsPendingFeedback(ctx context.Context, olderThan time.Time) ([]model.MeetingRequest, error) {
	var meetings []model.MeetingRequest
	err := r.db.SelectContext(ctx, &meetings, `
		SELECT * FROM mentor_meetings
		WHERE status = 'completed' AND meeting_at < $1 AND mentor_rating IS NULL
		ORDER BY meeting_at ASC
	`, olderThan)
	return meetings, err
}

func (r *meetingRepo) FindStaleRequests(ctx context.Context, suggestedBefore time.Time) ([]model.MeetingRequest, error) {
	var meetings []model.MeetingRequest
	err := r.db.SelectContext(ctx, &meetings, `
		SELECT * FROM mentor_meetings
		WHERE status IN ('requested', 'rescheduled')
		AND suggested_meeting_at < $1
		ORDER BY suggested_meeting_at ASC
	`, suggestedBefore)
	return meetings, err
}

// StampSMSSent records the throttle timestamp for the acting party. The
// update is guarded in SQL so racing callers within the throttle window
// stamp at most once; it returns false when the stamp was suppressed.
func (r *meetingRepo) StampSMSSent(ctx context.Context, id string, role model.Role, now time.Time) (bool, error) {
	query := `
		UPDATE mentor_meetings SET
			user_sms_sent_at = $2,
			updated_at = NOW()
		WHERE id = $1 AND (user_sms_sent_at IS NULL OR user_sms_sent_at < $3)
	`
	if role == model.RoleMentor {
		query = `
		UPDATE mentor_meetings SET
			mentor_sms_sent_at = $2,
			updated_at = NOW()
		WHERE id = $1 AND (mentor_sms_sent_at IS NULL OR mentor_sms_sent_at < $3)
	`
	}
	result, err := r.db.ExecContext(ctx, query, id, now, now.Add(-model.SMSThrottleWindow))
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// SetRating records a party's rating once; a second attempt returns false.
// Feedback-pending queries rely on the rating staying NULL until rated.
func (r *meetingRepo) SetRating(ctx context.Context, id string, role model.Role, rating int) (bool, error) {
	query := `
		UPDATE mentor_meetings SET
			user_rating = $2,
			updated_at = NOW()
		WHERE id = $1 AND user_rating IS NULL
	`
	if role == model.RoleMentor {
		query = `
		UPDATE mentor_meetings SET
			mentor_rating = $2,
			updated_at = NOW()
		WHERE id = $1 AND mentor_rating IS NULL
	`
	}
	result, err := r.db.ExecContext(ctx, query, id, rating)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
