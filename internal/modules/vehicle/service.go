// README: Vehicle service keeps an in-memory snapshot of the active fleet.
package vehicle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"taxihub/internal/events"
	"taxihub/internal/logging"
	"taxihub/internal/types"
)

var (
	ErrNotFound   = errors.New("vehicle not found")
	ErrBadRequest = errors.New("bad request")
)

type Repository interface {
	List(ctx context.Context, includeInactive bool) ([]Vehicle, error)
	Get(ctx context.Context, id string) (Vehicle, error)
	Upsert(ctx context.Context, v Vehicle) error
	SetActive(ctx context.Context, id string, active bool) error
}

type Service struct {
	repo Repository
	bus  *events.Bus
	log  *zap.Logger
	now  func() time.Time

	mu       sync.RWMutex
	active   []Vehicle
	loadedAt time.Time
}

func NewService(repo Repository, bus *events.Bus, log *zap.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: logging.OrNop(log), now: time.Now}
}

// Active returns the snapshot, loading it on first use.
func (s *Service) Active(ctx context.Context) ([]Vehicle, error) {
	s.mu.RLock()
	snap, loaded := s.active, !s.loadedAt.IsZero()
	s.mu.RUnlock()
	if loaded {
		return snap, nil
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, nil
}

// ActiveIDs lists the ids of the active fleet in display order.
func (s *Service) ActiveIDs(ctx context.Context) ([]string, error) {
	list, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, v := range list {
		ids = append(ids, v.ID)
	}
	return ids, nil
}

func (s *Service) All(ctx context.Context) ([]Vehicle, error) {
	return s.repo.List(ctx, true)
}

func (s *Service) Get(ctx context.Context, id string) (Vehicle, error) {
	id = types.NormalizeVehicleID(id)
	if id == "" {
		return Vehicle{}, ErrBadRequest
	}
	return s.repo.Get(ctx, id)
}

// Refresh reloads the snapshot and tells fare caches that vehicle data changed.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.load(ctx); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.TopicVehiclesUpdated, nil)
	return nil
}

func (s *Service) Upsert(ctx context.Context, v Vehicle) (Vehicle, error) {
	v.ID = types.NormalizeVehicleID(v.ID)
	v.Name = strings.TrimSpace(v.Name)
	v.Category = strings.ToLower(strings.TrimSpace(v.Category))
	if v.ID == "" || v.Name == "" {
		return Vehicle{}, fmt.Errorf("%w: id and name required", ErrBadRequest)
	}
	if v.Capacity <= 0 {
		return Vehicle{}, fmt.Errorf("%w: capacity must be positive", ErrBadRequest)
	}
	v.UpdatedAt = s.now()
	if err := s.repo.Upsert(ctx, v); err != nil {
		return Vehicle{}, err
	}
	s.log.Info("vehicle saved", zap.String("vehicle_id", v.ID), zap.Bool("active", v.Active))
	return v, s.Refresh(ctx)
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	id = types.NormalizeVehicleID(id)
	if id == "" {
		return ErrBadRequest
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *Service) load(ctx context.Context) error {
	list, err := s.repo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("load vehicles: %w", err)
	}
	s.mu.Lock()
	s.active = list
	s.loadedAt = s.now()
	s.mu.Unlock()
	return nil
}
