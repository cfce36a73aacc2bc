// README: Booking aggregate, status machine and cancellation window.
package booking

import (
	"strings"
	"time"

	"taxihub/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// ParseStatus accepts "confirmed" as the legacy spelling of approved.
func ParseStatus(v string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if s == "confirmed" {
		return StatusApproved, true
	}
	switch s {
	case StatusNone, StatusPending, StatusApproved, StatusPaid, StatusCompleted, StatusCancelled, StatusRejected:
		return s, true
	}
	return "", false
}

// AllowedTransitions represents the booking state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusNone:     {StatusPending},
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusPaid, StatusCancelled},
	StatusPaid:     {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// CancellationBuffer is how long before departure cancellation closes.
const CancellationBuffer = 2 * time.Hour

func CancellationDeadline(departure time.Time) time.Time {
	return departure.Add(-CancellationBuffer)
}

// CanCancel is true for pending and approved only, and only strictly before the deadline.
func CanCancel(status Status, departure, now time.Time) bool {
	if status != StatusPending && status != StatusApproved {
		return false
	}
	return now.Before(CancellationDeadline(departure))
}

type Booking struct {
	ID             types.ID       `json:"id"`
	Number         string         `json:"number"`
	PassengerUID   string         `json:"passenger_uid,omitempty"`
	PassengerName  string         `json:"passenger_name"`
	PassengerPhone string         `json:"passenger_phone"`
	PassengerEmail string         `json:"passenger_email,omitempty"`
	VehicleID      string         `json:"vehicle_id"`
	TripType       types.TripType `json:"trip_type"`
	TripMode       types.TripMode `json:"trip_mode"`
	PackageID      string         `json:"package_id,omitempty"`
	PickupLocation string         `json:"pickup_location"`
	DropLocation   string         `json:"drop_location,omitempty"`
	PickupAt       time.Time      `json:"pickup_at"`
	ReturnAt       *time.Time     `json:"return_at,omitempty"`
	DistanceKm     float64        `json:"distance_km"`
	Fare           types.Money    `json:"fare"`
	Status         Status         `json:"status"`
	StatusVersion  int            `json:"status_version"`
	CancelReason   *string        `json:"cancel_reason,omitempty"`
	PaymentRef     *string        `json:"payment_ref,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *string
	CreatedAt  time.Time
}

// Cancellation describes whether a booking can still be cancelled.
type Cancellation struct {
	BookingID types.ID  `json:"booking_id"`
	Status    Status    `json:"status"`
	Deadline  time.Time `json:"deadline"`
	CanCancel bool      `json:"can_cancel"`
}

type Filter struct {
	Status       Status
	PassengerUID string
	Limit        int
}
