// README: Pool store backed by PostgreSQL. Seat changes run in one transaction with the ride row locked.
package pooling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxihub/internal/modules/booking"
	"taxihub/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const rideColumns = `id, provider_uid, provider_name, provider_phone, vehicle_id, from_city, to_city,
	depart_at, total_seats, available_seats, price_per_seat, currency, notes, status, created_at, updated_at`

const requestColumns = `id, ride_id, passenger_uid, passenger_name, passenger_phone, passenger_email,
	seats, amount, currency, status, status_version, cancel_reason, payment_ref, created_at, updated_at`

func (s *Store) CreateRide(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pool_rides (`+rideColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		string(r.ID), r.ProviderUID, r.ProviderName, r.ProviderPhone, r.VehicleID, r.FromCity, r.ToCity,
		r.DepartAt, r.TotalSeats, r.AvailableSeats, r.PricePerSeat.Amount, r.PricePerSeat.Currency,
		r.Notes, string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *Store) GetRide(ctx context.Context, id types.ID) (*Ride, error) {
	r, err := scanRide(s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM pool_rides WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRideNotFound
	}
	return r, err
}

func (s *Store) SearchRides(ctx context.Context, q SearchQuery) ([]Ride, error) {
	var from, to *time.Time
	if !q.Date.IsZero() {
		start := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, q.Date.Location())
		end := start.AddDate(0, 0, 1)
		from, to = &start, &end
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+rideColumns+`
		FROM pool_rides
		WHERE status = 'active'
		  AND ($1 = '' OR from_city = $1)
		  AND ($2 = '' OR to_city = $2)
		  AND ($3::timestamptz IS NULL OR depart_at >= $3)
		  AND ($4::timestamptz IS NULL OR depart_at < $4)
		  AND depart_at > NOW()
		  AND available_seats >= $5
		ORDER BY depart_at
		LIMIT $6`,
		q.FromCity, q.ToCity, from, to, q.Seats, q.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) CreateRequest(ctx context.Context, r *SeatRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pool_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		string(r.ID), string(r.RideID), r.PassengerUID, r.PassengerName, r.PassengerPhone, r.PassengerEmail,
		r.Seats, r.Amount.Amount, r.Amount.Currency, string(r.Status), r.StatusVersion,
		r.CancelReason, r.PaymentRef, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *Store) GetRequest(ctx context.Context, id types.ID) (*SeatRequest, error) {
	r, err := scanRequest(s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM pool_requests WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	return r, err
}

func (s *Store) ListPaidDepartedBefore(ctx context.Context, cutoff time.Time) ([]SeatRequest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+prefixed("q.", requestColumns)+`
		FROM pool_requests q
		JOIN pool_rides r ON r.id = q.ride_id
		WHERE q.status = 'paid' AND r.depart_at < $1`, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeatRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id types.ID, from, to booking.Status, version int, u booking.Update) (bool, error) {
	return updateRequest(ctx, s.db, id, from, to, version, u)
}

// ReserveSeats approves a pending request and takes its seats from the ride atomically.
func (s *Store) ReserveSeats(ctx context.Context, req *SeatRequest, at time.Time) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var available int
		var status string
		err := tx.QueryRow(ctx, `SELECT available_seats, status FROM pool_rides WHERE id = $1 FOR UPDATE`,
			string(req.RideID)).Scan(&available, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRideNotFound
		}
		if err != nil {
			return err
		}
		if RideStatus(status) != RideActive || available < req.Seats {
			return ErrNoSeats
		}
		ok, err := updateRequest(ctx, tx, req.ID, booking.StatusPending, booking.StatusApproved, req.StatusVersion, booking.Update{At: at})
		if err != nil {
			return err
		}
		if !ok {
			return booking.ErrConflict
		}
		_, err = tx.Exec(ctx, `
			UPDATE pool_rides
			SET available_seats = available_seats - $1,
			    status = CASE WHEN available_seats - $1 = 0 THEN 'full' ELSE status END,
			    updated_at = $2
			WHERE id = $3`, req.Seats, at, string(req.RideID))
		return err
	})
}

// ReleaseSeats moves a seat-holding request to a terminal status and returns its seats.
func (s *Store) ReleaseSeats(ctx context.Context, req *SeatRequest, to booking.Status, u booking.Update) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM pool_rides WHERE id = $1 FOR UPDATE`, string(req.RideID)); err != nil {
			return err
		}
		ok, err := updateRequest(ctx, tx, req.ID, req.Status, to, req.StatusVersion, u)
		if err != nil {
			return err
		}
		if !ok {
			return booking.ErrConflict
		}
		_, err = tx.Exec(ctx, `
			UPDATE pool_rides
			SET available_seats = LEAST(total_seats, available_seats + $1),
			    status = CASE WHEN status = 'full' THEN 'active' ELSE status END,
			    updated_at = $2
			WHERE id = $3`, req.Seats, u.At, string(req.RideID))
		return err
	})
}

func (s *Store) CancelRide(ctx context.Context, rideID types.ID, u booking.Update) ([]SeatRequest, error) {
	var affected []SeatRequest
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM pool_rides WHERE id = $1 FOR UPDATE`, string(rideID)).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRideNotFound
		}
		if err != nil {
			return err
		}
		if st := RideStatus(status); st != RideActive && st != RideFull {
			return ErrRideClosed
		}
		var paid int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM pool_requests WHERE ride_id = $1 AND status = 'paid'`,
			string(rideID)).Scan(&paid); err != nil {
			return err
		}
		if paid > 0 {
			return ErrRideHasPaid
		}

		rows, err := tx.Query(ctx, `
			SELECT `+requestColumns+`
			FROM pool_requests
			WHERE ride_id = $1 AND status IN ('pending', 'approved')
			FOR UPDATE`, string(rideID))
		if err != nil {
			return err
		}
		for rows.Next() {
			r, err := scanRequest(rows)
			if err != nil {
				rows.Close()
				return err
			}
			affected = append(affected, *r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, r := range affected {
			ok, err := updateRequest(ctx, tx, r.ID, r.Status, rideCancelTarget(r.Status), r.StatusVersion, u)
			if err != nil {
				return err
			}
			if !ok {
				return booking.ErrConflict
			}
		}
		_, err = tx.Exec(ctx, `
			UPDATE pool_rides
			SET status = 'cancelled', available_seats = total_seats, updated_at = $1
			WHERE id = $2`, u.At, string(rideID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// CompleteRidesDepartedBefore closes open rides whose departure is before cutoff.
func (s *Store) CompleteRidesDepartedBefore(ctx context.Context, cutoff, at time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE pool_rides
		SET status = 'completed', updated_at = $1
		WHERE status IN ('active', 'full') AND depart_at < $2`, at, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateRequest(ctx context.Context, db execer, id types.ID, from, to booking.Status, version int, u booking.Update) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE pool_requests
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

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	var id, status string
	err := row.Scan(&id, &r.ProviderUID, &r.ProviderName, &r.ProviderPhone, &r.VehicleID, &r.FromCity, &r.ToCity,
		&r.DepartAt, &r.TotalSeats, &r.AvailableSeats, &r.PricePerSeat.Amount, &r.PricePerSeat.Currency,
		&r.Notes, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = types.ID(id)
	r.Status = RideStatus(status)
	return &r, nil
}

func scanRequest(row pgx.Row) (*SeatRequest, error) {
	var r SeatRequest
	var id, rideID, status string
	err := row.Scan(&id, &rideID, &r.PassengerUID, &r.PassengerName, &r.PassengerPhone, &r.PassengerEmail,
		&r.Seats, &r.Amount.Amount, &r.Amount.Currency, &status, &r.StatusVersion,
		&r.CancelReason, &r.PaymentRef, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = types.ID(id)
	r.RideID = types.ID(rideID)
	r.Status = booking.Status(status)
	return &r, nil
}
