package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/svco/mentoring-server-go/internal/model"
	"github.com/svco/mentoring-server-go/internal/repository"
)

// MeetingExpirer applies the expire transition; satisfied by
// service.MeetingService.
type MeetingExpirer interface {
	Expire(ctx context.Context, id string) (*model.MeetingRequest, error)
}

// MaintenanceJob periodically expires meeting requests whose suggested time
// passed without an answer and surfaces meetings still waiting on feedback.
type MaintenanceJob struct {
	meetingRepo repository.MeetingRepository
	expirer     MeetingExpirer
	staleAfter  time.Duration
	interval    time.Duration
	done        chan struct{}
}

func NewMaintenanceJob(
	meetingRepo repository.MeetingRepository,
	expirer MeetingExpirer,
	staleAfter time.Duration,
	interval time.Duration,
) *MaintenanceJob {
	return &MaintenanceJob{
		meetingRepo: meetingRepo,
		expirer:     expirer,
		staleAfter:  staleAfter,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *MaintenanceJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("maintenance job started")
}

func (j *MaintenanceJob) Stop() {
	close(j.done)
	log.Info().Msg("maintenance job stopped")
}

func (j *MaintenanceJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.maintain()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.maintain()
		}
	}
}

func (j *MaintenanceJob) maintain() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.expireStale(ctx)
	j.reportPendingFeedback(ctx)
}

func (j *MaintenanceJob) expireStale(ctx context.Context) {
	cutoff := time.Now().Add(-j.staleAfter)
	stale, err := j.meetingRepo.FindStaleRequests(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to find stale meeting requests")
		return
	}

	expired := 0
	for _, m := range stale {
		if _, err := j.expirer.Expire(ctx, m.ID); err != nil {
			log.Error().Err(err).Str("meetingId", m.ID).Msg("failed to expire meeting request")
			continue
		}
		expired++
	}

	if expired > 0 {
		log.Info().Int("count", expired).Msg("expired stale meeting requests")
	}
}

func (j *MaintenanceJob) reportPendingFeedback(ctx context.Context) {
	olderThan := time.Now().Add(-model.FeedbackGracePeriod)

	users, err := j.meetingRepo.UsersPendingFeedback(ctx, olderThan)
	if err != nil {
		log.Error().Err(err).Msg("failed to query founder feedback backlog")
		return
	}
	mentors, err := j.meetingRepo.MentorsPendingFeedback(ctx, olderThan)
	if err != nil {
		log.Error().Err(err).Msg("failed to query mentor feedback backlog")
		return
	}

	if len(users) > 0 || len(mentors) > 0 {
		log.Info().
			Int("foundersPending", len(users)).
			Int("mentorsPending", len(mentors)).
			Msg("meetings awaiting feedback")
	}
}
