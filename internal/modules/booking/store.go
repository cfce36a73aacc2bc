// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxihub/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const bookingColumns = `
	id, number, passenger_uid, passenger_name, passenger_phone, passenger_email,
	vehicle_id, trip_type, trip_mode, package_id, pickup_location, drop_location,
	pickup_at, return_at, distance_km, fare_amount, currency,
	status, status_version, cancel_reason, payment_ref, created_at, updated_at`

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		string(b.ID), b.Number, b.PassengerUID, b.PassengerName, b.PassengerPhone, b.PassengerEmail,
		b.VehicleID, string(b.TripType), string(b.TripMode), b.PackageID, b.PickupLocation, b.DropLocation,
		b.PickupAt, b.ReturnAt, b.DistanceKm, b.Fare.Amount, b.Fare.Currency,
		string(b.Status), b.StatusVersion, b.CancelReason, b.PaymentRef, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *Store) List(ctx context.Context, f Filter) ([]Booking, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR passenger_uid = $2)
		ORDER BY pickup_at DESC
		LIMIT $3`,
		string(f.Status), f.PassengerUID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListPaidBefore returns paid bookings whose pickup is before cutoff.
func (s *Store) ListPaidBefore(ctx context.Context, cutoff time.Time) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'paid' AND pickup_at < $1
		ORDER BY pickup_at`, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, u Update) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    cancel_reason = COALESCE($2, cancel_reason),
		    payment_ref = COALESCE($3, payment_ref),
		    updated_at = $4
		WHERE id = $5 AND status = $6 AND status_version = $7`,
		string(to), u.Reason, u.PaymentRef, u.At, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_status_events (
			booking_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID), string(e.FromStatus), string(e.ToStatus), e.ActorType, e.ActorID, e.CreatedAt,
	)
	return err
}

func collect(rows pgx.Rows) ([]Booking, error) {
	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var id, tripType, tripMode, status string
	err := row.Scan(
		&id, &b.Number, &b.PassengerUID, &b.PassengerName, &b.PassengerPhone, &b.PassengerEmail,
		&b.VehicleID, &tripType, &tripMode, &b.PackageID, &b.PickupLocation, &b.DropLocation,
		&b.PickupAt, &b.ReturnAt, &b.DistanceKm, &b.Fare.Amount, &b.Fare.Currency,
		&status, &b.StatusVersion, &b.CancelReason, &b.PaymentRef, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.ID = types.ID(id)
	b.TripType = types.TripType(tripType)
	b.TripMode = types.TripMode(tripMode)
	b.Status = Status(status)
	return &b, nil
}
