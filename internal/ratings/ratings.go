// Package ratings records the one-time feedback each side leaves after a
// completed ride.
package ratings

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

const (
	MinRating         = 1
	MaxRating         = 5
	MaxFeedbackLength = 500
)

// Submit returns a copy of ride carrying the actor's rating. The ride's
// status is left untouched and each side can rate exactly once.
func Submit(ride *models.Ride, actor models.Actor, rating int, feedback string) (*models.Ride, error) {
	if ride.Status != models.RideStatusCompleted {
		return nil, common.NewInvalidTransitionError("ride not completed")
	}

	isRider := actor.Role == models.ActorRider && ride.IsRider(actor.ID)
	isDriver := actor.Role == models.ActorDriver && ride.IsDriver(actor.ID)
	if !isRider && !isDriver {
		return nil, common.NewForbiddenError("only the rider or the driver of this ride can rate it")
	}

	if rating < MinRating || rating > MaxRating {
		return nil, common.NewInvalidRatingError(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}

	if (isRider && ride.Rating.RiderRating != nil) || (isDriver && ride.Rating.DriverRating != nil) {
		return nil, common.NewAlreadyRatedError("you have already rated this ride")
	}

	feedback = strings.TrimSpace(feedback)
	if utf8.RuneCountInString(feedback) > MaxFeedbackLength {
		return nil, common.NewInvalidInputError(fmt.Sprintf("feedback must be at most %d characters", MaxFeedbackLength))
	}

	next := ride.Clone()
	var text *string
	if feedback != "" {
		text = &feedback
	}
	score := rating
	if isRider {
		next.Rating.RiderRating = &score
		next.Rating.RiderFeedback = text
	} else {
		next.Rating.DriverRating = &score
		next.Rating.DriverFeedback = text
	}
	return next, nil
}

// Side names which participant an actor rates as.
func Side(ride *models.Ride, actor models.Actor) string {
	if actor.Role == models.ActorDriver && ride.IsDriver(actor.ID) {
		return "driver"
	}
	return "rider"
}
