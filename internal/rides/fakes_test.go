package rides

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-lifecycle/pkg/eventbus"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// memoryRepository mirrors the version check of PostgresRepository
type memoryRepository struct {
	mu          sync.Mutex
	rides       map[uuid.UUID]*models.Ride
	transitions []models.RideTransition
	updateErr   error
	// beforeUpdate runs outside the lock, letting race tests line up writers
	beforeUpdate func()
	// afterGet runs once the row has been read, before it is returned
	afterGet func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{rides: make(map[uuid.UUID]*models.Ride)}
}

func (r *memoryRepository) Create(_ context.Context, ride *models.Ride, transition models.RideTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride.Version = 1
	r.rides[ride.ID] = ride.Clone()
	r.transitions = append(r.transitions, transition)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	r.mu.Lock()
	ride, ok := r.rides[id]
	if ok {
		ride = ride.Clone()
	}
	hook := r.afterGet
	r.mu.Unlock()

	if !ok {
		return nil, ErrRideNotFound
	}
	if hook != nil {
		hook()
	}
	return ride, nil
}

func (r *memoryRepository) setAfterGet(hook func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterGet = hook
}

func (r *memoryRepository) Update(_ context.Context, ride *models.Ride, transition *models.RideTransition) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.rides[ride.ID]
	if !ok {
		return ErrRideNotFound
	}
	if stored.Version != ride.Version {
		return ErrVersionConflict
	}
	ride.Version++
	ride.UpdatedAt = time.Now().UTC()
	r.rides[ride.ID] = ride.Clone()
	if transition != nil {
		r.transitions = append(r.transitions, *transition)
	}
	return nil
}

func (r *memoryRepository) stored(id uuid.UUID) *models.Ride {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rides[id].Clone()
}

func (r *memoryRepository) transitionsOf(id uuid.UUID) []models.RideTransition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.RideTransition{}
	for _, t := range r.transitions {
		if t.RideID == id {
			out = append(out, t)
		}
	}
	return out
}

func (r *memoryRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]models.RideTransition, error) {
	return r.transitionsOf(rideID), nil
}

func (r *memoryRepository) CountByStatus(_ context.Context, since time.Time) (map[models.RideStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.RideStatus]int)
	for _, t := range r.transitions {
		if !t.OccurredAt.Before(since) {
			counts[t.ToStatus]++
		}
	}
	return counts, nil
}

type fixedRoute struct {
	route Route
	err   error
}

func (f fixedRoute) Estimate(context.Context, models.Location, models.Location) (Route, error) {
	return f.route, f.err
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []*eventbus.Event
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event *eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

type memoryCache struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*models.Ride
	hits  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{rides: make(map[uuid.UUID]*models.Ride)}
}

func (c *memoryCache) Get(_ context.Context, id uuid.UUID) (*models.Ride, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ride, ok := c.rides[id]
	if ok {
		c.hits++
		return ride.Clone(), true
	}
	return nil, false
}

// Put keeps the newer snapshot, like the Redis script
func (c *memoryCache) Put(_ context.Context, ride *models.Ride) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.rides[ride.ID]; ok && cached.Version >= ride.Version {
		return
	}
	c.rides[ride.ID] = ride.Clone()
}

// noLocker leaves serialization entirely to the version check
type noLocker struct{}

func (noLocker) Lock(context.Context, uuid.UUID) (func(), error) { return func() {}, nil }

type failingLocker struct{ err error }

func (l failingLocker) Lock(context.Context, uuid.UUID) (func(), error) { return nil, l.err }

// tickingClock advances one minute per reading
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}
