package rides

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/richxcame/ride-lifecycle/internal/cancellation"
	"github.com/richxcame/ride-lifecycle/internal/fare"
	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/middleware"
	"github.com/richxcame/ride-lifecycle/pkg/models"
	"github.com/richxcame/ride-lifecycle/pkg/validation"
)

const defaultStatsWindow = 24 * time.Hour

// RideService is the subset of Service the handler depends on
type RideService interface {
	RequestRide(ctx context.Context, actor models.Actor, in RequestRideInput) (*models.Ride, error)
	AcceptRide(ctx context.Context, actor models.Actor, rideID uuid.UUID) (*models.Ride, error)
	AssignDriver(ctx context.Context, actor models.Actor, rideID, driverID uuid.UUID) (*models.Ride, error)
	AdvanceStatus(ctx context.Context, actor models.Actor, rideID uuid.UUID, in AdvanceInput) (*models.Ride, error)
	CancelRide(ctx context.Context, actor models.Actor, rideID uuid.UUID, in CancelInput) (*models.Ride, error)
	RateRide(ctx context.Context, actor models.Actor, rideID uuid.UUID, in RateInput) (*models.Ride, error)
	GetRide(ctx context.Context, actor models.Actor, rideID uuid.UUID) (*models.Ride, error)
	PreviewCancellation(ctx context.Context, actor models.Actor, rideID uuid.UUID, emergency bool) (cancellation.Decision, error)
	EstimateFare(ctx context.Context, pickup, destination models.Location, rideType models.RideType) (*FareEstimate, error)
	Tariffs() []fare.Tariff
	RideHistory(ctx context.Context, actor models.Actor, rideID uuid.UUID) ([]models.RideTransition, error)
	TransitionStats(ctx context.Context, actor models.Actor, since time.Time) (map[models.RideStatus]int, error)
}

// Handler handles HTTP requests for rides
type Handler struct {
	service RideService
}

// NewHandler creates a new rides handler
func NewHandler(service RideService) *Handler {
	return &Handler{service: service}
}

// RouteConfig carries what RegisterRoutes needs besides the handler
type RouteConfig struct {
	JWTSecret string
	// InternalAPIKey enables the service-to-service group when set
	InternalAPIKey string
	// Idempotency guards ride creation when set
	Idempotency gin.HandlerFunc
}

// RegisterRoutes registers ride routes
func (h *Handler) RegisterRoutes(r *gin.Engine, cfg RouteConfig) {
	api := r.Group("/api/v1")

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	rides := authed.Group("/rides")
	{
		create := []gin.HandlerFunc{middleware.RequireRole(models.RoleRider)}
		if cfg.Idempotency != nil {
			create = append(create, cfg.Idempotency)
		}
		rides.POST("", append(create, h.RequestRide)...)

		rides.GET("/:id", h.GetRide)
		rides.GET("/:id/history", h.RideHistory)
		rides.GET("/:id/cancellation-preview", h.PreviewCancellation)
		rides.PATCH("/:id/cancel", h.CancelRide)
		rides.PATCH("/:id/rating", middleware.RequireRole(models.RoleRider, models.RoleDriver), h.RateRide)
		rides.POST("/:id/accept", middleware.RequireRole(models.RoleDriver), h.AcceptRide)
		rides.PATCH("/:id/status", middleware.RequireRole(models.RoleDriver), h.AdvanceStatus)
		rides.POST("/:id/assign", middleware.RequireRole(models.RoleAdmin), h.AssignDriver)
	}

	fares := authed.Group("/fares")
	{
		fares.GET("/tariffs", h.Tariffs)
		fares.POST("/estimate", h.EstimateFare)
	}

	admin := authed.Group("/admin/rides")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/stats", h.TransitionStats)
	}

	if cfg.InternalAPIKey != "" {
		internal := api.Group("/internal/rides")
		internal.Use(middleware.InternalAPIKey(cfg.InternalAPIKey))
		{
			internal.GET("/:id", h.GetRide)
			internal.POST("/:id/assign", h.AssignDriver)
			internal.PATCH("/:id/cancel", h.CancelRide)
		}
	}
}

// RequestRide handles creating a new ride request
func (h *Handler) RequestRide(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req RequestRideRequest
	if !bindJSON(c, &req) {
		return
	}

	ride, err := h.service.RequestRide(c.Request.Context(), actor, req.toInput())
	if common.HandleServiceError(c, err, "failed to request ride") {
		return
	}

	common.CreatedResponse(c, ride)
}

// GetRide handles the ride-state query
func (h *Handler) GetRide(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	rideID, ok := common.ParseUUIDParam(c, "id", "ride ID")
	if !ok {
		return
	}

	ride, err := h.service.GetRide(c.Request.Context(), actor, rideID)
	if common.HandleServiceError(c, err, "failed to get ride") {
		return
	}

	common.SuccessResponse(c, ride)
}

// AcceptRide handles a driver accepting a ride
func (h *Handler) AcceptRide(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	rideID, ok := common.ParseUUIDParam(c, "id", "ride ID")
	if !ok {
		return
	}

	ride, err := h.service.AcceptRide(c.Request.Context(), actor, rideID)
	if common.HandleServiceError(c, err, "failed to accept ride") {
		return
	}

	common.SuccessResponse(c, ride)
}

// AssignDriver handles dispatch offering a ride to a driver
func (h *Handler) AssignDriver(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	rideID, ok := common.ParseUUIDParam(c, "id", "ride ID")
	if !ok {
		return
	}

	var req AssignDriverRequest
	if !bindJSON(c, &req) {
		return
	}

	ride, err := h.service.AssignDriver(c.Request.Context(), actor, rideID, req.DriverID)
	if common.HandleServiceError(c, err, "failed to assign driver") {
		return
	}

	common.SuccessResponse(c, ride)
}

// AdvanceStatus handles picked_up, in_transit and completed
func (h *Handler) AdvanceStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	rideID, ok := common.ParseUUIDParam(c, "id", "ride ID")
	if !ok {
		return
	}

	var req AdvanceStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := models.ParseRideStatus(req.TargetStatus)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, common.CodeInvalidInput, "unknown target_status")
		return
	}

	ride, err := h.service.AdvanceStatus(c.Request.Context(), actor, rideID, AdvanceInput{
		Target:           target,
		ActualDistanceKm: req.ActualDistanceKm,
		AdjustmentReason: req.AdjustmentReason,
	})
	if common.HandleServiceError(c, err, "failed to update ride status") {
		return
	}

	common.SuccessResponse(c, ride)
}

// CancelRide handles a cancellation by the rider, the driver or the system
func (h *Handler) CancelRide(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	rideID, ok := common.ParseUUIDParam(c, "id", "ride ID")
	if !ok {
		return
	}

	var req CancelRideRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	ride, err := h.service.CancelRide(c.Request.Context(), actor, rideID, CancelInput{
		Reason:    req.Reason,
		Emergency: req.Emergency,
	})
	if common.HandleServiceError(c, err, "failed to cancel ride") {
		return
	}

	common.SuccessResponse(c, ride)
}

// PreviewCancellation reports what a cancellation would cost right now
func (h *Handler) PreviewCancellation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	rideID, ok := common.ParseUUIDParam(c, "id", "ride ID")
	if !ok {
		return
	}

	var query CancellationPreviewQuery
	if !common.BindQuery(c, &query) {
		return
	}

	decision, err := h.service.PreviewCancellation(c.Request.Context(), actor, rideID, query.Emergency)
	if common.HandleServiceError(c, err, "failed to preview cancellation") {
		return
	}

	common.SuccessResponse(c, decision)
}

// RateRide handles one side's rating of a completed ride
func (h *Handler) RateRide(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	rideID, ok := common.ParseUUIDParam(c, "id", "ride ID")
	if !ok {
		return
	}

	var req RateRideRequest
	if !bindJSON(c, &req) {
		return
	}
	rating, ok := req.WholeRating()
	if !ok {
		common.AppErrorResponse(c, common.NewInvalidRatingError("rating must be a whole number between 1 and 5"))
		return
	}

	ride, err := h.service.RateRide(c.Request.Context(), actor, rideID, RateInput{
		Rating:   rating,
		Feedback: req.Feedback,
	})
	if common.HandleServiceError(c, err, "failed to rate ride") {
		return
	}

	common.SuccessResponse(c, ride)
}

// RideHistory returns the ride's transition audit trail
func (h *Handler) RideHistory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	rideID, ok := common.ParseUUIDParam(c, "id", "ride ID")
	if !ok {
		return
	}

	transitions, err := h.service.RideHistory(c.Request.Context(), actor, rideID)
	if common.HandleServiceError(c, err, "failed to get ride history") {
		return
	}

	common.SuccessResponse(c, HistoryResponse{RideID: rideID, Transitions: transitions})
}

// EstimateFare quotes a trip without creating a ride
func (h *Handler) EstimateFare(c *gin.Context) {
	var req EstimateFareRequest
	if !bindJSON(c, &req) {
		return
	}

	estimate, err := h.service.EstimateFare(c.Request.Context(),
		req.PickupLocation.toModel(),
		req.DestinationLocation.toModel(),
		normalizeRideTypeParam(req.RideType),
	)
	if common.HandleServiceError(c, err, "failed to estimate fare") {
		return
	}

	common.SuccessResponse(c, estimate)
}

// Tariffs lists the tariff table
func (h *Handler) Tariffs(c *gin.Context) {
	common.SuccessResponse(c, h.service.Tariffs())
}

// TransitionStats reports status counts for the admin dashboard
func (h *Handler) TransitionStats(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var query StatsQuery
	if !common.BindQuery(c, &query) {
		return
	}
	since := query.Since
	if since.IsZero() {
		since = time.Now().UTC().Add(-defaultStatsWindow)
	}

	counts, err := h.service.TransitionStats(c.Request.Context(), actor, since)
	if common.HandleServiceError(c, err, "failed to get ride statistics") {
		return
	}

	common.SuccessResponse(c, StatsResponse{Since: since, Counts: counts})
}

func actorFrom(c *gin.Context) (models.Actor, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		common.AppErrorResponse(c, common.NewUnauthorizedError("unauthorized"))
		return models.Actor{}, false
	}
	return actor, true
}

// bindJSON binds the body and renders validation failures as one readable
// INVALID_INPUT message.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		renderBindError(c, err)
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, obj)
}

func renderBindError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		common.ErrorResponse(c, http.StatusBadRequest, common.CodeInvalidInput, validation.Describe(validationErrors))
		return
	}
	common.ErrorResponse(c, http.StatusBadRequest, common.CodeInvalidInput, "invalid request body")
}
