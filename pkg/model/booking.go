package model

const (
	// BookingStatusPending marks a record whose locker mutation has not been
	// confirmed yet. The durable intent is written before the remote call so
	// an interrupted start can be reconciled instead of silently lost.
	BookingStatusPending = "pending"

	BookingStatusActive    = "active"
	BookingStatusCompleted = "completed"

	// BookingStatusVoid marks a pending record whose locker mutation never
	// landed. Void records are kept for diagnosis, never resurrected.
	BookingStatusVoid = "void"
)

type Booking struct {
	ID       string `json:"booking_id" bson:"_id"`
	UserID   string `json:"user_id" bson:"user_id"`
	LockerID string `json:"locker_id" bson:"locker_id"`
	// StartedAt and EndedAt are milliseconds since epoch. EndedAt is set if
	// and only if the booking is completed.
	StartedAt int64  `json:"started_at" bson:"started_at"`
	EndedAt   *int64 `json:"ended_at" bson:"ended_at"`
	Status    string `json:"status" bson:"status"`
}

func (b *Booking) IsCompleted() bool {
	return b.Status == BookingStatusCompleted
}

type StartBookingRequest struct {
	LockerID string `json:"lockerId" validate:"required,min=1,max=100"`
	UserID   string `json:"userId" validate:"required,min=1,max=100"`
}

type EndBookingRequest struct {
	BookingID string `json:"bookingId" validate:"required,min=1,max=150"`
}

type StartBookingResult struct {
	BookingID string `json:"bookingId"`
	Result    string `json:"result"`
}

type EndBookingResult struct {
	BookingID string `json:"bookingId"`
	EndedAt   int64  `json:"endedAt"`
	LockerID  string `json:"lockerId"`
	Result    string `json:"result"`
}
