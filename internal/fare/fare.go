package fare

import (
	"fmt"
	"math"
	"strings"

	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// DefaultCurrency is used when no currency is configured
const DefaultCurrency = "BDT"

// amounts closer than this are considered equal
const moneyEpsilon = 1e-9

// Calculator prices rides from a fixed tariff table. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	currency string
	tariffs  map[models.RideType]Tariff
}

// NewCalculator creates a calculator quoting in currency
func NewCalculator(currency string) *Calculator {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Calculator{
		currency: currency,
		tariffs:  defaultTariffs(),
	}
}

// Currency returns the quoting currency
func (c *Calculator) Currency() string {
	return c.currency
}

// Tariffs lists the tariff table ordered by multiplier
func (c *Calculator) Tariffs() []Tariff {
	return sortedTariffs(c.tariffs)
}

// Tariff returns the tariff for rideType
func (c *Calculator) Tariff(rideType models.RideType) (Tariff, error) {
	t, ok := c.tariffs[NormalizeRideType(rideType)]
	if !ok {
		return Tariff{}, common.NewInvalidInputError(fmt.Sprintf("unknown ride type %q", rideType))
	}
	return t, nil
}

// ComputeFare prices a trip of distanceKm for rideType.
func (c *Calculator) ComputeFare(rideType models.RideType, distanceKm float64, durationMin float64) (models.Fare, error) {
	t, err := c.Tariff(rideType)
	if err != nil {
		return models.Fare{}, err
	}
	if invalidAmount(distanceKm) {
		return models.Fare{}, common.NewInvalidInputError("distance must be a non-negative number")
	}
	if invalidAmount(durationMin) {
		return models.Fare{}, common.NewInvalidInputError("duration must be a non-negative number")
	}

	distanceFare := t.PerKm * distanceKm
	return models.Fare{
		BaseFare:     roundMoney(t.BasePrice),
		DistanceFare: roundMoney(distanceFare),
		TimeFare:     0,
		TotalFare:    roundMoney(t.BasePrice + distanceFare),
		Currency:     c.currency,
	}, nil
}

// Settle decides the final fare at completion. The estimate stands unless
// the recomputed fare matches it or the deviation is explained by reason.
func (c *Calculator) Settle(estimate models.Fare, rideType models.RideType, actualKm *float64, reason string) (models.Fare, error) {
	if actualKm == nil {
		return estimate, nil
	}

	recomputed, err := c.ComputeFare(rideType, *actualKm, 0)
	if err != nil {
		return models.Fare{}, err
	}
	if estimate.Currency != "" {
		recomputed.Currency = estimate.Currency
	}

	if SameAmount(recomputed.TotalFare, estimate.TotalFare) {
		return recomputed, nil
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return estimate, nil
	}

	recomputed.Adjustment = &models.FareAdjustment{
		Reason:         reason,
		EstimatedTotal: estimate.TotalFare,
		Delta:          math.Round((recomputed.TotalFare-estimate.TotalFare)*100) / 100,
	}
	return recomputed, nil
}

// Round applies the monetary rounding rule to an arbitrary amount.
func Round(amount float64) float64 {
	return roundMoney(amount)
}

// SameAmount reports whether two monetary amounts are equal to the cent.
func SameAmount(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func invalidAmount(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

// roundMoney rounds half-up to 2 decimals and never returns less than the
// unrounded amount.
func roundMoney(v float64) float64 {
	rounded := math.Floor(v*100+0.5+moneyEpsilon) / 100
	if rounded+moneyEpsilon < v {
		rounded = math.Ceil(v*100-moneyEpsilon) / 100
	}
	return rounded
}
