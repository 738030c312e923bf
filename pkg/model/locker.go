package model

import "time"

const (
	LockerStatusLocked    = "locked"
	LockerStatusBroken    = "broken"
	LockerStatusAvailable = "available"
	LockerStatusBooked    = "booked"
)

// LockerStatuses lists every status a locker can hold. Only available lockers
// can be booked; locked and broken lockers are managed outside the booking
// workflow.
var LockerStatuses = []string{
	LockerStatusLocked,
	LockerStatusBroken,
	LockerStatusAvailable,
	LockerStatusBooked,
}

type Locker struct {
	ID        string    `json:"locker_id" bson:"_id" validate:"required,min=1,max=100"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=locked broken available booked"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at" validate:"omitempty"`
}

// LockerStatusUpdate carries a status mutation request. When ExpectedStatus is
// set the update is applied as a compare-and-swap: it only commits if the
// locker currently holds ExpectedStatus.
type LockerStatusUpdate struct {
	Status         string `json:"status" validate:"required,oneof=locked broken available booked"`
	ExpectedStatus string `json:"expected_status,omitempty" validate:"omitempty,oneof=locked broken available booked"`
}
