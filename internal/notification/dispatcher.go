package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/svco/mentoring-server-go/internal/model"
	redisclient "github.com/svco/mentoring-server-go/internal/redis"
)

const (
	enqueueTimeout = 2 * time.Second
	popTimeout     = 5 * time.Second
)

// Dispatcher decouples lifecycle transitions from notification I/O: Enqueue
// pushes the notice onto a Redis list and returns immediately; a background
// worker drains the list and invokes the port. Delivery failures are logged
// and dropped, never surfaced to the transition caller.
type Dispatcher struct {
	redis *redisclient.Client
	port  Port
	done  chan struct{}
}

func NewDispatcher(redisClient *redisclient.Client, port Port) *Dispatcher {
	return &Dispatcher{
		redis: redisClient,
		port:  port,
		done:  make(chan struct{}),
	}
}

// Enqueue hands the notice off for delivery. Fire-and-forget: a queue
// failure is logged but does not affect the already-persisted transition.
func (d *Dispatcher) Enqueue(ctx context.Context, notice Notice) {
	payload, err := json.Marshal(notice)
	if err != nil {
		log.Error().Err(err).Str("kind", string(notice.Kind)).Msg("failed to marshal notice")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()

	if err := d.redis.LPush(ctx, redisclient.NoticeQueueKey, payload).Err(); err != nil {
		log.Error().Err(err).
			Str("kind", string(notice.Kind)).
			Str("meetingId", notice.Meeting.ID).
			Msg("failed to enqueue notice")
		return
	}

	log.Debug().
		Str("kind", string(notice.Kind)).
		Str("meetingId", notice.Meeting.ID).
		Msg("notice enqueued")
}

func (d *Dispatcher) Start() {
	go d.run()
	log.Info().Msg("notification dispatcher started")
}

func (d *Dispatcher) Stop() {
	close(d.done)
	log.Info().Msg("notification dispatcher stopped")
}

func (d *Dispatcher) run() {
	for {
		select {
		case <-d.done:
			return
		default:
		}

		result, err := d.redis.BRPop(context.Background(), popTimeout, redisclient.NoticeQueueKey).Result()
		if err != nil {
			if !errors.Is(err, goredis.Nil) {
				log.Warn().Err(err).Msg("notice queue pop failed")
			}
			continue
		}
		if len(result) != 2 {
			continue
		}

		var notice Notice
		if err := json.Unmarshal([]byte(result[1]), &notice); err != nil {
			log.Error().Err(err).Msg("failed to decode queued notice")
			continue
		}

		d.deliver(notice)
	}
}

func (d *Dispatcher) deliver(notice Notice) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch notice.Kind {
	case model.AcceptanceNotice:
		err = d.port.MeetingRequestAccepted(ctx, notice.Meeting, recipientOrZero(notice))
	case model.RejectionNotice:
		err = d.port.MeetingRequestRejected(ctx, notice.Meeting, recipientOrZero(notice))
	case model.RescheduleNotice:
		err = d.port.MeetingRequestRescheduled(ctx, notice.Meeting)
	case model.CancellationNotice:
		err = d.port.MeetingRequestCancelled(ctx, notice.Meeting, recipientOrZero(notice))
	default:
		log.Error().Str("kind", string(notice.Kind)).Msg("unknown notice kind dropped")
		return
	}

	if err != nil {
		log.Error().Err(err).
			Str("kind", string(notice.Kind)).
			Str("meetingId", notice.Meeting.ID).
			Msg("notice delivery failed")
		return
	}

	log.Info().
		Str("kind", string(notice.Kind)).
		Str("meetingId", notice.Meeting.ID).
		Msg("notice delivered")
}

func recipientOrZero(notice Notice) model.User {
	if notice.Recipient != nil {
		return *notice.Recipient
	}
	return model.User{}
}
