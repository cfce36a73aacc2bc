// README: Ledger store backed by PostgreSQL.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxihub/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Create fails with ErrDuplicate when an entry for the same booking and kind exists.
func (s *Store) Create(ctx context.Context, e *Entry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ledger_entries (id, kind, category, amount, currency, note, booking_ref, entry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(e.ID), string(e.Kind), e.Category, e.Amount, e.Currency, e.Note, e.BookingRef, e.EntryDate, e.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *Store) List(ctx context.Context, from, to time.Time) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, kind, category, amount, currency, note, booking_ref, entry_date, created_at
		FROM ledger_entries
		WHERE entry_date >= $1 AND entry_date < $2
		ORDER BY entry_date, created_at`, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var id, kind string
		if err := rows.Scan(&id, &kind, &e.Category, &e.Amount, &e.Currency, &e.Note, &e.BookingRef, &e.EntryDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ID = types.ID(id)
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
