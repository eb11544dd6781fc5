package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/svco/mentoring-server-go/internal/errors"
	"github.com/svco/mentoring-server-go/internal/model"
	"github.com/svco/mentoring-server-go/internal/notification"
)

// Mock meeting repository

type mockMeetingRepo struct {
	mock.Mock
}

func (m *mockMeetingRepo) FindByID(ctx context.Context, id string) (*model.MeetingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MeetingRequest), args.Error(1)
}

func (m *mockMeetingRepo) Create(ctx context.Context, meeting *model.MeetingRequest) (*model.MeetingRequest, error) {
	args := m.Called(ctx, meeting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MeetingRequest), args.Error(1)
}

func (m *mockMeetingRepo) Update(ctx context.Context, meeting *model.MeetingRequest) (*model.MeetingRequest, error) {
	args := m.Called(ctx, meeting)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MeetingRequest), args.Error(1)
}

func (m *mockMeetingRepo) ExistsActiveBetween(ctx context.Context, founderID, mentorID string) (bool, error) {
	args := m.Called(ctx, founderID, mentorID)
	return args.Bool(0), args.Error(1)
}

func (m *mockMeetingRepo) UsersPendingFeedback(ctx context.Context, olderThan time.Time) ([]model.MeetingRequest, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MeetingRequest), args.Error(1)
}

func (m *mockMeetingRepo) MentorsPendingFeedback(ctx context.Context, olderThan time.Time) ([]model.MeetingRequest, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MeetingRequest), args.Error(1)
}

func (m *mockMeetingRepo) FindStaleRequests(ctx context.Context, suggestedBefore time.Time) ([]model.MeetingRequest, error) {
	args := m.Called(ctx, suggestedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MeetingRequest), args.Error(1)
}

func (m *mockMeetingRepo) StampSMSSent(ctx context.Context, id string, role model.Role, now time.Time) (bool, error) {
	args := m.Called(ctx, id, role, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockMeetingRepo) SetRating(ctx context.Context, id string, role model.Role, rating int) (bool, error) {
	args := m.Called(ctx, id, role, rating)
	return args.Bool(0), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type mockMentorRepo struct {
	mock.Mock
}

func (m *mockMentorRepo) FindByID(ctx context.Context, id string) (*model.Mentor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Mentor), args.Error(1)
}

// recordingNotifier captures enqueued notices instead of dispatching them.
type recordingNotifier struct {
	notices []notification.Notice
}

func (r *recordingNotifier) Enqueue(ctx context.Context, notice notification.Notice) {
	r.notices = append(r.notices, notice)
}

func newService() (*MeetingService, *mockMeetingRepo, *mockUserRepo, *mockMentorRepo, *recordingNotifier) {
	meetingRepo := new(mockMeetingRepo)
	userRepo := new(mockUserRepo)
	mentorRepo := new(mockMentorRepo)
	notifier := &recordingNotifier{}
	svc := NewMeetingService(meetingRepo, userRepo, mentorRepo, notifier)
	return svc, meetingRepo, userRepo, mentorRepo, notifier
}

func requestedMeeting() *model.MeetingRequest {
	return &model.MeetingRequest{
		ID:                 "meeting-1",
		FounderID:          "founder-1",
		MentorID:           "mentor-1",
		Status:             model.StatusRequested,
		Duration:           model.DurationHalfHour,
		Purpose:            "career advice",
		SuggestedMeetingAt: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		LockVersion:        3,
	}
}

func founder() *model.User {
	return &model.User{ID: "founder-1", FullName: "Fiona Founder", Email: "fiona@example.com"}
}

func mentorUser() *model.User {
	return &model.User{ID: "user-2", FullName: "Max Mentor", Email: "max@example.com"}
}

func mentorActing() model.Actor {
	return model.Actor{User: mentorUser(), Role: model.RoleMentor}
}

func founderActing() model.Actor {
	return model.Actor{User: founder(), Role: model.RoleFounder}
}

func TestMeetingService_Request(t *testing.T) {
	t.Run("creates a request with the midday selector applied", func(t *testing.T) {
		svc, meetingRepo, _, _, _ := newService()
		ctx := context.Background()

		meetingRepo.On("ExistsActiveBetween", ctx, "founder-1", "mentor-1").Return(false, nil)
		meetingRepo.On("Create", ctx, mock.MatchedBy(func(m *model.MeetingRequest) bool {
			return m.Status == model.StatusRequested &&
				m.SuggestedMeetingAt.Equal(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
		})).Return(requestedMeeting(), nil)

		created, err := svc.Request(ctx, model.CreateMeetingParams{
			FounderID:          "founder-1",
			MentorID:           "mentor-1",
			Duration:           model.DurationHalfHour,
			Purpose:            "career advice",
			SuggestedMeetingAt: time.Date(2024, 1, 10, 8, 15, 0, 0, time.UTC),
			SuggestedTimeOfDay: model.TimeOfDayMidday,
		})

		require.NoError(t, err)
		assert.Equal(t, model.StatusRequested, created.Status)
		meetingRepo.AssertExpectations(t)
	})

	t.Run("rejects an invalid duration before touching storage", func(t *testing.T) {
		svc, meetingRepo, _, _, _ := newService()

		_, err := svc.Request(context.Background(), model.CreateMeetingParams{
			FounderID:          "founder-1",
			MentorID:           "mentor-1",
			Duration:           model.MeetingDuration(45),
			Purpose:            "career advice",
			SuggestedMeetingAt: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		})

		assert.True(t, apperrors.IsValidation(err, apperrors.ErrCodeInvalidDuration))
		meetingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("still creates when the pair has an active meeting", func(t *testing.T) {
		svc, meetingRepo, _, _, _ := newService()
		ctx := context.Background()

		meetingRepo.On("ExistsActiveBetween", ctx, "founder-1", "mentor-1").Return(true, nil)
		meetingRepo.On("Create", ctx, mock.Anything).Return(requestedMeeting(), nil)

		_, err := svc.Request(ctx, model.CreateMeetingParams{
			FounderID:          "founder-1",
			MentorID:           "mentor-1",
			Duration:           model.DurationHalfHour,
			Purpose:            "career advice",
			SuggestedMeetingAt: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		meetingRepo.AssertExpectations(t)
	})
}

func TestMeetingService_Accept(t *testing.T) {
	confirmed := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)

	t.Run("confirms the time and notifies the founder", func(t *testing.T) {
		svc, meetingRepo, userRepo, _, notifier := newService()
		ctx := context.Background()

		meetingRepo.On("FindByID", ctx, "meeting-1").Return(requestedMeeting(), nil)

		accepted := requestedMeeting()
		accepted.Status = model.StatusAccepted
		accepted.MeetingAt = &confirmed
		meetingRepo.On("Update", ctx, mock.MatchedBy(func(m *model.MeetingRequest) bool {
			return m.Status == model.StatusAccepted && m.MeetingAt != nil && m.MeetingAt.Equal(confirmed)
		})).Return(accepted, nil)

		userRepo.On("FindByID", ctx, "founder-1").Return(founder(), nil)

		result, err := svc.Accept(ctx, "meeting-1", confirmed, mentorActing())

		require.NoError(t, err)
		assert.Equal(t, model.StatusAccepted, result.Status)
		require.NotNil(t, result.MeetingAt)
		assert.Equal(t, confirmed, *result.MeetingAt)

		require.Len(t, notifier.notices, 1)
		notice := notifier.notices[0]
		assert.Equal(t, model.AcceptanceNotice, notice.Kind)
		require.NotNil(t, notice.Recipient)
		assert.Equal(t, "founder-1", notice.Recipient.ID)

		meetingRepo.AssertExpectations(t)
		userRepo.AssertExpectations(t)
	})

	t.Run("rejects acceptance without a confirmed time", func(t *testing.T) {
		svc, meetingRepo, _, _, notifier := newService()
		ctx := context.Background()

		meetingRepo.On("FindByID", ctx, "meeting-1").Return(requestedMeeting(), nil)

		_, err := svc.Accept(ctx, "meeting-1", time.Time{}, mentorActing())

		assert.True(t, apperrors.IsValidation(err, apperrors.ErrCodeMissingConfirmed))
		assert.Empty(t, notifier.notices)
		meetingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestMeetingService_Reject(t *testing.T) {
	t.Run("requires a comment", func(t *testing.T) {
		svc, meetingRepo, _, _, notifier := newService()
		ctx := context.Background()

		meetingRepo.On("FindByID", ctx, "meeting-1").Return(requestedMeeting(), nil)

		_, err := svc.Reject(ctx, "meeting-1", "   ", mentorActing())

		assert.True(t, apperrors.IsValidation(err, apperrors.ErrCodeMissingComment))
		assert.Empty(t, notifier.notices)
		meetingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("notifies the founder when the mentor rejects", func(t *testing.T) {
		svc, meetingRepo, userRepo, _, notifier := newService()
		ctx := context.Background()

		meetingRepo.On("FindByID", ctx, "meeting-1").Return(requestedMeeting(), nil)

		rejected := requestedMeeting()
		rejected.Status = model.StatusRejected
		comment := "not my area"
		rejected.MentorComments = &comment
		meetingRepo.On("Update", ctx, mock.MatchedBy(func(m *model.MeetingRequest) bool {
			return m.Status == model.StatusRejected && m.MentorComments != nil
		})).Return(rejected, nil)

		userRepo.On("FindByID", ctx, "founder-1").Return(founder(), nil)

		_, err := svc.Reject(ctx, "meeting-1", "not my area", mentorActing())

		require.NoError(t, err)
		require.Len(t, notifier.notices, 1)
		assert.Equal(t, model.RejectionNotice, notifier.notices[0].Kind)
		assert.Equal(t, "founder-1", notifier.notices[0].Recipient.ID)
	})
}

func TestMeetingService_Cancel(t *testing.T) {
	t.Run("founder cancel notifies the mentor's user", func(t *testing.T) {
		svc, meetingRepo, _, mentorRepo, notifier := newService()
		ctx := context.Background()

		meetingRepo.On("FindByID", ctx, "meeting-1").Return(requestedMeeting(), nil)

		cancelled := requestedMeeting()
		cancelled.Status = model.StatusCancelled
		comment := "something came up"
		cancelled.UserComments = &comment
		meetingRepo.On("Update", ctx, mock.MatchedBy(func(m *model.MeetingRequest) bool {
			return m.Status == model.StatusCancelled && m.UserComments != nil
		})).Return(cancelled, nil)

		mentorRepo.On("FindByID", ctx, "mentor-1").Return(&model.Mentor{
			ID: "mentor-1", UserID: "user-2", Name: "Max", User: *mentorUser(),
		}, nil)

		_, err := svc.Cancel(ctx, "meeting-1", "something came up", founderActing())

		require.NoError(t, err)
		require.Len(t, notifier.notices, 1)
		assert.Equal(t, model.CancellationNotice, notifier.notices[0].Kind)
		assert.Equal(t, "user-2", notifier.notices[0].Recipient.ID)
	})
}

func TestMeetingService_Reschedule(t *testing.T) {
	t.Run("broadcast notice carries no recipient", func(t *testing.T) {
		svc, meetingRepo, userRepo, mentorRepo, notifier := newService()
		ctx := context.Background()
		newTime := time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)

		meetingRepo.On("FindByID", ctx, "meeting-1").Return(requestedMeeting(), nil)

		rescheduled := requestedMeeting()
		rescheduled.Status = model.StatusRescheduled
		rescheduled.SuggestedMeetingAt = newTime
		meetingRepo.On("Update", ctx, mock.MatchedBy(func(m *model.MeetingRequest) bool {
			return m.Status == model.StatusRescheduled && m.SuggestedMeetingAt.Equal(newTime)
		})).Return(rescheduled, nil)

		_, err := svc.Reschedule(ctx, "meeting-1", newTime)

		require.NoError(t, err)
		require.Len(t, notifier.notices, 1)
		assert.Equal(t, model.RescheduleNotice, notifier.notices[0].Kind)
		assert.Nil(t, notifier.notices[0].Recipient)

		userRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		mentorRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestMeetingService_CompleteAndExpire(t *testing.T) {
	t.Run("complete emits no notice", func(t *testing.T) {
		svc, meetingRepo, _, _, notifier := newService()
		ctx := context.Background()

		accepted := requestedMeeting()
		accepted.Status = model.StatusAccepted
		at := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)
		accepted.MeetingAt = &at

		meetingRepo.On("FindByID", ctx, "meeting-1").Return(accepted, nil)

		completed := requestedMeeting()
		completed.Status = model.StatusCompleted
		completed.MeetingAt = &at
		meetingRepo.On("Update", ctx, mock.MatchedBy(func(m *model.MeetingRequest) bool {
			return m.Status == model.StatusCompleted
		})).Return(completed, nil)

		_, err := svc.Complete(ctx, "meeting-1")

		require.NoError(t, err)
		assert.Empty(t, notifier.notices)
	})

	t.Run("expire emits no notice", func(t *testing.T) {
		svc, meetingRepo, _, _, notifier := newService()
		ctx := context.Background()

		meetingRepo.On("FindByID", ctx, "meeting-1").Return(requestedMeeting(), nil)

		expired := requestedMeeting()
		expired.Status = model.StatusExpired
		meetingRepo.On("Update", ctx, mock.MatchedBy(func(m *model.MeetingRequest) bool {
			return m.Status == model.StatusExpired
		})).Return(expired, nil)

		_, err := svc.Expire(ctx, "meeting-1")

		require.NoError(t, err)
		assert.Empty(t, notifier.notices)
	})

	t.Run("missing meeting returns not found", func(t *testing.T) {
		svc, meetingRepo, _, _, _ := newService()
		ctx := context.Background()

		meetingRepo.On("FindByID", ctx, "missing").Return(nil, nil)

		_, err := svc.Complete(ctx, "missing")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestMeetingService_RecordFeedback(t *testing.T) {
	t.Run("rejects out of range ratings without touching storage", func(t *testing.T) {
		svc, meetingRepo, _, _, _ := newService()

		err := svc.RecordFeedback(context.Background(), "meeting-1", founderActing(), 6)

		assert.True(t, apperrors.IsValidation(err, apperrors.ErrCodeInvalidRating))
		meetingRepo.AssertNotCalled(t, "SetRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("records a rating once", func(t *testing.T) {
		svc, meetingRepo, _, _, _ := newService()
		ctx := context.Background()

		meetingRepo.On("SetRating", ctx, "meeting-1", model.RoleFounder, 4).Return(true, nil)

		assert.NoError(t, svc.RecordFeedback(ctx, "meeting-1", founderActing(), 4))
		meetingRepo.AssertExpectations(t)
	})

	t.Run("refuses to overwrite an existing rating", func(t *testing.T) {
		svc, meetingRepo, _, _, _ := newService()
		ctx := context.Background()

		meetingRepo.On("SetRating", ctx, "meeting-1", model.RoleMentor, 2).Return(false, nil)

		err := svc.RecordFeedback(ctx, "meeting-1", mentorActing(), 2)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrCodeFeedbackAlreadySent, appErr.Code)
	})
}
