package model

type MeetingStatus string

const (
	StatusRequested   MeetingStatus = "requested"
	StatusRejected    MeetingStatus = "rejected"
	StatusRescheduled MeetingStatus = "rescheduled"
	StatusAccepted    MeetingStatus = "accepted"
	StatusStarted     MeetingStatus = "started"
	StatusCompleted   MeetingStatus = "completed"
	StatusExpired     MeetingStatus = "expired"
	StatusCancelled   MeetingStatus = "cancelled"
)

// ActiveStatuses are the statuses in which a meeting still occupies the
// founder-mentor pair: anything that has neither finished nor been called off.
var ActiveStatuses = []MeetingStatus{
	StatusRequested, StatusAccepted, StatusRescheduled, StatusStarted,
}

func (s MeetingStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusRejected, StatusRescheduled, StatusAccepted,
		StatusStarted, StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions leave this status.
func (s MeetingStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// MeetingDuration is the meeting length in minutes.
type MeetingDuration int

const (
	DurationQuarterHour MeetingDuration = 15
	DurationHalfHour    MeetingDuration = 30
	DurationHour        MeetingDuration = 60
)

func (d MeetingDuration) Valid() bool {
	switch d {
	case DurationQuarterHour, DurationHalfHour, DurationHour:
		return true
	}
	return false
}

// TimeOfDay is a write-only selector used when requesting a meeting. It maps
// to a fixed clock hour applied to the suggested date and is never persisted.
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayMidday    TimeOfDay = "midday"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
)

func (t TimeOfDay) Valid() bool {
	_, ok := t.Hour()
	return ok
}

func (t TimeOfDay) Hour() (int, bool) {
	switch t {
	case TimeOfDayMorning:
		return 9, true
	case TimeOfDayMidday:
		return 12, true
	case TimeOfDayAfternoon:
		return 15, true
	case TimeOfDayEvening:
		return 18, true
	}
	return 0, false
}

// Role identifies which side of the meeting a party is on.
type Role string

const (
	RoleFounder Role = "founder"
	RoleMentor  Role = "mentor"
)

// Other returns the counterpart role.
func (r Role) Other() Role {
	if r == RoleFounder {
		return RoleMentor
	}
	return RoleFounder
}

// NoticeKind names a notification intent emitted by a lifecycle transition.
type NoticeKind string

const (
	AcceptanceNotice   NoticeKind = "meeting_request_accepted"
	RejectionNotice    NoticeKind = "meeting_request_rejected"
	RescheduleNotice   NoticeKind = "meeting_request_rescheduled"
	CancellationNotice NoticeKind = "meeting_request_cancelled"
)
