package notification

import (
	"context"

	"github.com/svco/mentoring-server-go/internal/model"
)

// Notice is a typed notification intent: which event happened, the meeting
// snapshot it happened to, and who should hear about it. Reschedule notices
// carry no recipient; the transport informs both parties.
type Notice struct {
	Kind      model.NoticeKind     `json:"kind"`
	Meeting   model.MeetingRequest `json:"meeting"`
	Recipient *model.User          `json:"recipient,omitempty"`
}

// Port is the outbound notification contract. Implementations own their
// retry and logging; failures never reach the lifecycle caller.
type Port interface {
	MeetingRequestAccepted(ctx context.Context, meeting model.MeetingRequest, recipient model.User) error
	MeetingRequestRejected(ctx context.Context, meeting model.MeetingRequest, recipient model.User) error
	MeetingRequestRescheduled(ctx context.Context, meeting model.MeetingRequest) error
	MeetingRequestCancelled(ctx context.Context, meeting model.MeetingRequest, recipient model.User) error
}

// Enqueuer hands a notice off for asynchronous delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, notice Notice)
}
