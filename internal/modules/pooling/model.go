// README: Pool rides published by providers and the seat requests made against them.
package pooling

import (
	"strings"
	"time"

	"taxihub/internal/modules/booking"
	"taxihub/internal/types"
)

type RideStatus string

const (
	RideActive    RideStatus = "active"
	RideFull      RideStatus = "full"
	RideCompleted RideStatus = "completed"
	RideCancelled RideStatus = "cancelled"
)

type Ride struct {
	ID             types.ID    `json:"id"`
	ProviderUID    string      `json:"provider_uid"`
	ProviderName   string      `json:"provider_name"`
	ProviderPhone  string      `json:"provider_phone,omitempty"`
	VehicleID      string      `json:"vehicle_id"`
	FromCity       string      `json:"from_city"`
	ToCity         string      `json:"to_city"`
	DepartAt       time.Time   `json:"depart_at"`
	TotalSeats     int         `json:"total_seats"`
	AvailableSeats int         `json:"available_seats"`
	PricePerSeat   types.Money `json:"price_per_seat"`
	Notes          string      `json:"notes,omitempty"`
	Status         RideStatus  `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// SeatRequest moves through the same status machine as a booking.
type SeatRequest struct {
	ID             types.ID       `json:"id"`
	RideID         types.ID       `json:"ride_id"`
	PassengerUID   string         `json:"passenger_uid,omitempty"`
	PassengerName  string         `json:"passenger_name"`
	PassengerPhone string         `json:"passenger_phone"`
	PassengerEmail string         `json:"passenger_email,omitempty"`
	Seats          int            `json:"seats"`
	Amount         types.Money    `json:"amount"`
	Status         booking.Status `json:"status"`
	StatusVersion  int            `json:"status_version"`
	CancelReason   *string        `json:"cancel_reason,omitempty"`
	PaymentRef     *string        `json:"payment_ref,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// HoldsSeats reports whether the request currently occupies seats on the ride.
func (r SeatRequest) HoldsSeats() bool {
	return r.Status == booking.StatusApproved || r.Status == booking.StatusPaid
}

type SearchQuery struct {
	FromCity string
	ToCity   string
	Date     time.Time
	Seats    int
	Limit    int
}

func normalizeCity(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
