package rides

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/ride-lifecycle/internal/cancellation"
	"github.com/richxcame/ride-lifecycle/internal/fare"
	"github.com/richxcame/ride-lifecycle/internal/lifecycle"
	"github.com/richxcame/ride-lifecycle/internal/ratings"
	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/database"
	"github.com/richxcame/ride-lifecycle/pkg/eventbus"
	"github.com/richxcame/ride-lifecycle/pkg/geo"
	"github.com/richxcame/ride-lifecycle/pkg/logger"
	"github.com/richxcame/ride-lifecycle/pkg/models"
	"github.com/richxcame/ride-lifecycle/pkg/tracing"
)

const (
	serviceTracer = "rides-service"

	// DefaultOperationTimeout bounds every command when none is configured
	DefaultOperationTimeout = 5 * time.Second

	maxAddressLength = 255
	maxReasonLength  = 500
)

// Config holds the service tunables
type Config struct {
	OperationTimeout    time.Duration
	Currency            string
	CancellationFeeRate float64
}

// Option configures optional collaborators of the service
type Option func(*Service)

// WithLocker replaces the in-process keyed mutex
func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithRouteEstimator replaces the straight-line estimator
func WithRouteEstimator(r RouteEstimator) Option {
	return func(s *Service) { s.routes = r }
}

// WithEventPublisher enables lifecycle events
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithCache enables the ride-state read-through cache
func WithCache(c RideCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithHistory enables the transition history queries
func WithHistory(h HistoryReader) Option {
	return func(s *Service) { s.history = h }
}

// WithClock overrides the transition clock, mainly for tests
func WithClock(clock lifecycle.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// Service orchestrates ride commands: it serializes them per ride, applies
// the lifecycle rules to a copy and persists the result with a version check.
type Service struct {
	repo    Repository
	locker  Locker
	routes  RouteEstimator
	events  EventPublisher
	cache   RideCache
	history HistoryReader
	clock   lifecycle.Clock

	machine *lifecycle.Machine
	fares   *fare.Calculator
	policy  *cancellation.Policy
	timeout time.Duration
}

// NewService creates a new rides service
func NewService(repo Repository, cfg Config, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		locker:  NewKeyedMutex(),
		routes:  HaversineEstimator{},
		events:  noopPublisher{},
		cache:   noopCache{},
		fares:   fare.NewCalculator(cfg.Currency),
		policy:  cancellation.NewPolicy(cfg.CancellationFeeRate),
		timeout: cfg.OperationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout <= 0 {
		s.timeout = DefaultOperationTimeout
	}
	if s.clock == nil {
		s.clock = func() time.Time { return time.Now().UTC() }
	}
	s.machine = lifecycle.NewMachine(s.clock)
	return s
}

// RequestRideInput is the ride-request payload
type RequestRideInput struct {
	Pickup      models.Location
	Destination models.Location
	RideType    models.RideType
}

// AdvanceInput moves a ride along its trip. The actual distance and the
// adjustment reason are only read when completing.
type AdvanceInput struct {
	Target           models.RideStatus
	ActualDistanceKm *float64
	AdjustmentReason string
}

// CancelInput is a cancellation request
type CancelInput struct {
	Reason    string
	Emergency bool
}

// RateInput is one side's feedback on a completed ride
type RateInput struct {
	Rating   int
	Feedback string
}

// FareQuote prices a route for one ride type
type FareQuote struct {
	RideType models.RideType `json:"ride_type"`
	Fare     models.Fare     `json:"fare"`
}

// FareEstimate is the answer to a quote request
type FareEstimate struct {
	DistanceKm           float64     `json:"distance_km"`
	EstimatedDurationMin int         `json:"estimated_duration_min"`
	Quotes               []FareQuote `json:"quotes"`
}

// RequestRide creates a ride in requested for the calling rider
func (s *Service) RequestRide(ctx context.Context, actor models.Actor, in RequestRideInput) (ride *models.Ride, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "RequestRide")
	defer span.End()
	defer s.observe(ctx, "request", time.Now(), &err)

	tracing.AddSpanAttributes(ctx, tracing.RideAttributes("", actor.ID.String(), string(actor.Role))...)

	if actor.Role != models.ActorRider {
		return nil, common.NewForbiddenError("only riders can request rides")
	}

	pickup, err := normalizeLocation("pickup", in.Pickup)
	if err != nil {
		return nil, err
	}
	destination, err := normalizeLocation("destination", in.Destination)
	if err != nil {
		return nil, err
	}
	rideType := fare.NormalizeRideType(in.RideType)
	if _, err := s.fares.Tariff(rideType); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	route, err := s.estimateRoute(ctx, pickup, destination)
	if err != nil {
		return nil, err
	}

	price, err := s.fares.ComputeFare(rideType, route.DistanceKm, float64(route.DurationMin))
	if err != nil {
		return nil, err
	}

	now := s.clock()
	ride = &models.Ride{
		ID:          uuid.New(),
		RiderID:     actor.ID,
		Status:      models.RideStatusRequested,
		RideType:    rideType,
		Pickup:      pickup,
		Destination: destination,
		Distance: models.Distance{
			EstimatedKm:          route.DistanceKm,
			EstimatedDurationMin: route.DurationMin,
		},
		Fare:       price,
		Timestamps: models.RideTimestamps{Requested: now},
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	transition := newTransition(ride.ID, "", models.RideStatusRequested, actor, "", now)
	if err := s.repo.Create(ctx, ride, transition); err != nil {
		tracing.RecordError(ctx, err)
		return nil, storeError("failed to create ride", err)
	}

	tracing.AddSpanAttributes(ctx,
		tracing.RideIDKey.String(ride.ID.String()),
		tracing.RideTypeKey.String(string(ride.RideType)),
		tracing.FareAmountKey.Float64(ride.Fare.TotalFare),
		tracing.DistanceKey.Float64(ride.Distance.EstimatedKm),
	)
	s.recordTransition(ctx, nil, ride, actor)
	s.publish(ctx, eventbus.SubjectRideRequested, rideEventData(ride, "", actor, now))
	return ride, nil
}

// AcceptRide binds the calling driver to the ride
func (s *Service) AcceptRide(ctx context.Context, actor models.Actor, rideID uuid.UUID) (ride *models.Ride, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "AcceptRide")
	defer span.End()
	defer s.observe(ctx, "accept", time.Now(), &err)

	tracing.AddSpanAttributes(ctx, tracing.RideAttributes(rideID.String(), actor.ID.String(), string(actor.Role))...)

	if actor.Role != models.ActorDriver {
		return nil, common.NewForbiddenError("only drivers can accept rides")
	}

	prev, next, err := s.mutate(ctx, rideID, errAlreadyAssigned, func(ride *models.Ride) (*models.Ride, *models.RideTransition, error) {
		next, err := s.machine.Accept(ride, actor.ID)
		if err != nil {
			return nil, nil, err
		}
		t := newTransition(ride.ID, ride.Status, next.Status, actor, "", *next.Timestamps.Accepted)
		return next, &t, nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, prev, next, actor)
	s.publish(ctx, eventbus.SubjectRideAccepted, rideEventData(next, prev.Status, actor, *next.Timestamps.Accepted))
	return next, nil
}

// AssignDriver offers a requested ride to a driver on behalf of dispatch
func (s *Service) AssignDriver(ctx context.Context, actor models.Actor, rideID, driverID uuid.UUID) (ride *models.Ride, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "AssignDriver")
	defer span.End()
	defer s.observe(ctx, "assign", time.Now(), &err)

	tracing.AddSpanAttributes(ctx, tracing.RideAttributes(rideID.String(), actor.ID.String(), string(actor.Role))...)
	tracing.AddSpanAttributes(ctx, tracing.DriverIDKey.String(driverID.String()))

	if !actor.IsSystem() {
		return nil, common.NewForbiddenError("only dispatch can assign drivers")
	}

	prev, next, err := s.mutate(ctx, rideID, errAlreadyAssigned, func(ride *models.Ride) (*models.Ride, *models.RideTransition, error) {
		next, err := s.machine.Assign(ride, driverID)
		if err != nil {
			return nil, nil, err
		}
		t := newTransition(ride.ID, ride.Status, next.Status, actor, "", *next.Timestamps.DriverAssigned)
		return next, &t, nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, prev, next, actor)
	s.publish(ctx, eventbus.SubjectRideDriverAssigned, rideEventData(next, prev.Status, actor, *next.Timestamps.DriverAssigned))
	return next, nil
}

// AdvanceStatus moves a ride to picked_up, in_transit or completed. On
// completion the fare is settled against the reported distance.
func (s *Service) AdvanceStatus(ctx context.Context, actor models.Actor, rideID uuid.UUID, in AdvanceInput) (ride *models.Ride, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "AdvanceStatus")
	defer span.End()
	defer s.observe(ctx, "advance", time.Now(), &err)

	tracing.AddSpanAttributes(ctx, tracing.RideAttributes(rideID.String(), actor.ID.String(), string(actor.Role))...)
	tracing.AddSpanAttributes(ctx, tracing.RideStatusKey.String(string(in.Target)))

	if in.ActualDistanceKm != nil && in.Target != models.RideStatusCompleted {
		return nil, common.NewInvalidInputError("actual distance can only be reported on completion")
	}
	reason := strings.TrimSpace(in.AdjustmentReason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, common.NewInvalidInputError(fmt.Sprintf("adjustment reason must be at most %d characters", maxReasonLength))
	}

	prev, next, err := s.mutate(ctx, rideID, nil, func(ride *models.Ride) (*models.Ride, *models.RideTransition, error) {
		next, err := s.machine.Advance(ride, actor, in.Target)
		if err != nil {
			return nil, nil, err
		}

		note := ""
		if in.Target == models.RideStatusCompleted {
			settled, err := s.fares.Settle(ride.Fare, ride.RideType, in.ActualDistanceKm, reason)
			if err != nil {
				return nil, nil, err
			}
			if in.ActualDistanceKm != nil {
				km := *in.ActualDistanceKm
				next.Distance.ActualKm = &km
			}
			next.Fare = settled
			if settled.Adjustment != nil {
				note = settled.Adjustment.Reason
			}
		}

		t := newTransition(ride.ID, ride.Status, next.Status, actor, note, next.Timestamps.Latest())
		return next, &t, nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, prev, next, actor)
	s.publish(ctx, eventbus.SubjectForStatus(string(next.Status)), rideEventData(next, prev.Status, actor, next.Timestamps.Latest()))
	return next, nil
}

// CancelRide consults the cancellation policy and, when allowed, moves the
// ride to cancelled. A rejected request leaves the ride untouched.
func (s *Service) CancelRide(ctx context.Context, actor models.Actor, rideID uuid.UUID, in CancelInput) (ride *models.Ride, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "CancelRide")
	defer span.End()
	defer s.observe(ctx, "cancel", time.Now(), &err)

	tracing.AddSpanAttributes(ctx, tracing.RideAttributes(rideID.String(), actor.ID.String(), string(actor.Role))...)
	tracing.AddSpanAttributes(ctx, tracing.EmergencyKey.Bool(in.Emergency))

	reason := strings.TrimSpace(in.Reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, common.NewInvalidInputError(fmt.Sprintf("reason must be at most %d characters", maxReasonLength))
	}

	prev, next, err := s.mutate(ctx, rideID, nil, func(ride *models.Ride) (*models.Ride, *models.RideTransition, error) {
		decision := s.policy.Evaluate(ride, actor, in.Emergency)
		if err := decision.Err(); err != nil {
			logger.DebugContext(ctx, "cancellation rejected",
				zap.String("ride_id", ride.ID.String()),
				zap.String("status", string(ride.Status)),
				zap.String("reason", string(decision.Reason)),
			)
			return nil, nil, err
		}

		next, err := s.machine.Cancel(ride, actor, decision.Record(actor, ride, reason, in.Emergency))
		if err != nil {
			return nil, nil, err
		}
		t := newTransition(ride.ID, ride.Status, next.Status, actor, reason, *next.Timestamps.Cancelled)
		return next, &t, nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, prev, next, actor)
	s.publish(ctx, eventbus.SubjectRideCancelled, rideEventData(next, prev.Status, actor, *next.Timestamps.Cancelled))
	return next, nil
}

// RateRide stores the caller's rating of a completed ride
func (s *Service) RateRide(ctx context.Context, actor models.Actor, rideID uuid.UUID, in RateInput) (ride *models.Ride, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "RateRide")
	defer span.End()
	defer s.observe(ctx, "rate", time.Now(), &err)

	tracing.AddSpanAttributes(ctx, tracing.RideAttributes(rideID.String(), actor.ID.String(), string(actor.Role))...)

	_, next, err := s.mutate(ctx, rideID, nil, func(ride *models.Ride) (*models.Ride, *models.RideTransition, error) {
		next, err := ratings.Submit(ride, actor, in.Rating, in.Feedback)
		return next, nil, err
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "ride rated",
		zap.String("ride_id", next.ID.String()),
		zap.String("side", ratings.Side(next, actor)),
		zap.Int("rating", in.Rating),
	)
	s.publish(ctx, eventbus.SubjectRideRated, ratedEventData(next, actor, in.Rating, s.clock()))
	return next, nil
}

// GetRide returns the ride to one of its participants or the system
func (s *Service) GetRide(ctx context.Context, actor models.Actor, rideID uuid.UUID) (ride *models.Ride, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "GetRide")
	defer span.End()
	defer s.observe(ctx, "get", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ride, ok := s.cache.Get(ctx, rideID)
	if !ok {
		ride, err = s.load(ctx, rideID)
		if err != nil {
			return nil, err
		}
		s.cache.Put(ctx, ride)
	}

	if !actor.CanView(ride) {
		return nil, common.NewForbiddenError("you are not a participant of this ride")
	}
	return ride, nil
}

// PreviewCancellation tells the caller what cancelling now would cost
// without changing the ride.
func (s *Service) PreviewCancellation(ctx context.Context, actor models.Actor, rideID uuid.UUID, emergency bool) (decision cancellation.Decision, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "PreviewCancellation")
	defer span.End()
	defer s.observe(ctx, "preview_cancellation", time.Now(), &err)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ride, err := s.load(ctx, rideID)
	if err != nil {
		return cancellation.Decision{}, err
	}
	if !actor.CanView(ride) {
		return cancellation.Decision{}, common.NewForbiddenError("you are not a participant of this ride")
	}
	return s.policy.Evaluate(ride, actor, emergency), nil
}

// EstimateFare quotes a route without creating a ride. An empty ride type
// quotes every tariff.
func (s *Service) EstimateFare(ctx context.Context, pickup, destination models.Location, rideType models.RideType) (estimate *FareEstimate, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "EstimateFare")
	defer span.End()
	defer s.observe(ctx, "estimate", time.Now(), &err)

	pickup, err = normalizeLocation("pickup", pickup)
	if err != nil {
		return nil, err
	}
	destination, err = normalizeLocation("destination", destination)
	if err != nil {
		return nil, err
	}

	types := []models.RideType{}
	if rideType == "" {
		for _, t := range s.fares.Tariffs() {
			types = append(types, t.RideType)
		}
	} else {
		normalized := fare.NormalizeRideType(rideType)
		if _, err := s.fares.Tariff(normalized); err != nil {
			return nil, err
		}
		types = append(types, normalized)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	route, err := s.estimateRoute(ctx, pickup, destination)
	if err != nil {
		return nil, err
	}

	estimate = &FareEstimate{
		DistanceKm:           route.DistanceKm,
		EstimatedDurationMin: route.DurationMin,
		Quotes:               make([]FareQuote, 0, len(types)),
	}
	for _, t := range types {
		price, err := s.fares.ComputeFare(t, route.DistanceKm, float64(route.DurationMin))
		if err != nil {
			return nil, err
		}
		estimate.Quotes = append(estimate.Quotes, FareQuote{RideType: t, Fare: price})
	}
	return estimate, nil
}

// Tariffs lists the tariff table
func (s *Service) Tariffs() []fare.Tariff {
	return s.fares.Tariffs()
}

// RideHistory returns the ride's transition audit trail
func (s *Service) RideHistory(ctx context.Context, actor models.Actor, rideID uuid.UUID) (transitions []models.RideTransition, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "RideHistory")
	defer span.End()
	defer s.observe(ctx, "history", time.Now(), &err)

	if s.history == nil {
		return nil, common.NewUnavailableError("ride history is not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ride, err := s.load(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(ride) {
		return nil, common.NewForbiddenError("you are not a participant of this ride")
	}

	transitions, err = s.history.ListByRide(ctx, rideID)
	if err != nil {
		return nil, common.NewUnavailableError("failed to read ride history", err)
	}
	return transitions, nil
}

// TransitionStats counts how many rides entered each status since the
// given time. System only.
func (s *Service) TransitionStats(ctx context.Context, actor models.Actor, since time.Time) (counts map[models.RideStatus]int, err error) {
	ctx, span := tracing.StartSpan(ctx, serviceTracer, "TransitionStats")
	defer span.End()
	defer s.observe(ctx, "stats", time.Now(), &err)

	if !actor.IsSystem() {
		return nil, common.NewForbiddenError("admin access required")
	}
	if s.history == nil {
		return nil, common.NewUnavailableError("ride history is not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	counts, err = s.history.CountByStatus(ctx, since)
	if err != nil {
		return nil, common.NewUnavailableError("failed to read ride statistics", err)
	}
	for _, status := range models.AllRideStatuses {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	return counts, nil
}

type applyFunc func(ride *models.Ride) (*models.Ride, *models.RideTransition, error)

// mutate runs one command under the ride's lock: load, apply to a copy,
// persist with a version check and cache the committed ride. onConflict
// maps a lost version race; nil means the caller may retry.
func (s *Service) mutate(ctx context.Context, rideID uuid.UUID, onConflict func() error, apply applyFunc) (*models.Ride, *models.Ride, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = logger.ContextWithRideID(ctx, rideID.String())

	unlock, err := s.locker.Lock(ctx, rideID)
	if err != nil {
		logger.WarnContext(ctx, "ride lock not acquired", zap.Error(err))
		return nil, nil, common.NewUnavailableError("ride is busy, please retry", err)
	}
	defer unlock()

	current, err := s.load(ctx, rideID)
	if err != nil {
		return nil, nil, err
	}

	next, transition, err := apply(current)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Update(ctx, next, transition); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			logger.InfoContext(ctx, "ride changed concurrently", zap.Int64("version", current.Version))
			if onConflict != nil {
				return nil, nil, onConflict()
			}
			return nil, nil, common.NewUnavailableError("ride was modified concurrently, please retry", err)
		}
		tracing.RecordError(ctx, err)
		return nil, nil, storeError("failed to update ride", err)
	}

	s.cache.Put(context.WithoutCancel(ctx), next)
	return current, next, nil
}

func (s *Service) load(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ride, err := s.repo.Get(ctx, rideID)
	if err != nil {
		if errors.Is(err, ErrRideNotFound) {
			return nil, common.NewNotFoundError("ride not found")
		}
		return nil, storeError("failed to load ride", err)
	}
	return ride, nil
}

func (s *Service) estimateRoute(ctx context.Context, from, to models.Location) (Route, error) {
	route, err := s.routes.Estimate(ctx, from, to)
	if err != nil {
		if _, ok := common.AsAppError(err); ok {
			return Route{}, err
		}
		return Route{}, common.NewUnavailableError("routing service unavailable", err)
	}
	if route.DistanceKm < 0 || route.DurationMin < 0 {
		return Route{}, common.NewUnavailableError("routing service returned an invalid estimate", nil)
	}
	return route, nil
}

func (s *Service) recordTransition(ctx context.Context, prev, next *models.Ride, actor models.Actor) {
	from := models.RideStatus("")
	if prev != nil {
		from = prev.Status
	}
	rideTransitionsTotal.WithLabelValues(string(from), string(next.Status), string(actor.Role)).Inc()
	logger.InfoContext(ctx, "ride transitioned",
		zap.String("ride_id", next.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(next.Status)),
		zap.String("actor_id", actor.ID.String()),
		zap.String("actor_role", string(actor.Role)),
		zap.Int64("version", next.Version),
	)
}

// observe records latency and, for failures, the error code. Domain
// rejections are logged at debug; infrastructure failures at error.
func (s *Service) observe(ctx context.Context, operation string, start time.Time, errp *error) {
	rideOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	err := *errp
	if err == nil {
		return
	}
	recordCommandError(operation, err)

	switch common.CodeOf(err) {
	case common.CodeUnavailable, common.CodeInternal:
		tracing.RecordError(ctx, err)
		logger.ErrorContext(ctx, "ride command failed", zap.String("operation", operation), zap.Error(err))
	default:
		logger.DebugContext(ctx, "ride command rejected", zap.String("operation", operation), zap.Error(err))
	}
}

func errAlreadyAssigned() error {
	return common.NewAlreadyAssignedError("ride was taken by another driver")
}

func storeError(message string, err error) error {
	if database.IsTimeout(err) || database.IsRetryable(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.NewUnavailableError("ride store unavailable", err)
	}
	return common.NewInternalError(message, err)
}

func normalizeLocation(field string, loc models.Location) (models.Location, error) {
	loc.Address = strings.TrimSpace(loc.Address)
	if loc.Address == "" {
		return models.Location{}, common.NewInvalidInputError(field + " address is required")
	}
	if utf8.RuneCountInString(loc.Address) > maxAddressLength {
		return models.Location{}, common.NewInvalidInputError(fmt.Sprintf("%s address must be at most %d characters", field, maxAddressLength))
	}
	if !geo.ValidCoordinate(loc.Latitude, loc.Longitude) {
		return models.Location{}, common.NewInvalidInputError(field + " coordinates are out of range")
	}
	return loc, nil
}

func newTransition(rideID uuid.UUID, from, to models.RideStatus, actor models.Actor, note string, at time.Time) models.RideTransition {
	return models.RideTransition{
		ID:         uuid.New(),
		RideID:     rideID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Note:       note,
		OccurredAt: at,
	}
}
