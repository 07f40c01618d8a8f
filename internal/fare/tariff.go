package fare

import (
	"sort"

	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// Reference tariff every ride type is scaled from.
const (
	ReferenceBasePrice = 150.0
	ReferencePerKm     = 50.0
)

// Tariff is the pricing record for a ride type
type Tariff struct {
	RideType   models.RideType `json:"ride_type"`
	BasePrice  float64         `json:"base_price"`
	PerKm      float64         `json:"per_km"`
	Multiplier float64         `json:"multiplier"`
}

var multipliers = map[models.RideType]float64{
	models.RideTypeEconomy: 1.0,
	models.RideTypePremium: 1.5,
	models.RideTypeLuxury:  2.5,
}

func defaultTariffs() map[models.RideType]Tariff {
	tariffs := make(map[models.RideType]Tariff, len(multipliers))
	for rideType, m := range multipliers {
		tariffs[rideType] = Tariff{
			RideType:   rideType,
			BasePrice:  roundMoney(ReferenceBasePrice * m),
			PerKm:      roundMoney(ReferencePerKm * m),
			Multiplier: m,
		}
	}
	return tariffs
}

// NormalizeRideType resolves aliases. An empty type defaults to economy.
func NormalizeRideType(rideType models.RideType) models.RideType {
	switch rideType {
	case "", models.RideTypeRegular:
		return models.RideTypeEconomy
	default:
		return rideType
	}
}

func sortedTariffs(tariffs map[models.RideType]Tariff) []Tariff {
	out := make([]Tariff, 0, len(tariffs))
	for _, t := range tariffs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Multiplier < out[j].Multiplier })
	return out
}
