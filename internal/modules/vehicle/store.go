// README: Vehicle store backed by PostgreSQL.
package vehicle

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const vehicleColumns = `id, name, category, capacity, luggage_capacity, ac, amenities,
	description, image_url, sort_order, active, updated_at`

func (s *Store) List(ctx context.Context, includeInactive bool) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+vehicleColumns+`
		FROM vehicles
		WHERE active OR $1
		ORDER BY sort_order, name`, includeInactive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Vehicle, error) {
	v, err := scanVehicle(s.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, ErrNotFound
	}
	return v, err
}

func (s *Store) Upsert(ctx context.Context, v Vehicle) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicles (`+vehicleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			capacity = EXCLUDED.capacity,
			luggage_capacity = EXCLUDED.luggage_capacity,
			ac = EXCLUDED.ac,
			amenities = EXCLUDED.amenities,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			sort_order = EXCLUDED.sort_order,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at`,
		v.ID, v.Name, v.Category, v.Capacity, v.LuggageCapacity, v.AC, v.Amenities,
		v.Description, v.ImageURL, v.SortOrder, v.Active, v.UpdatedAt,
	)
	return err
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE vehicles SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.Name, &v.Category, &v.Capacity, &v.LuggageCapacity, &v.AC, &v.Amenities,
		&v.Description, &v.ImageURL, &v.SortOrder, &v.Active, &v.UpdatedAt)
	return v, err
}
