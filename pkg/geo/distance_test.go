package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name     string
		lat1     float64
		lon1     float64
		lat2     float64
		lon2     float64
		expected float64
		delta    float64
	}{
		{"same point", 23.81, 90.41, 23.81, 90.41, 0, 0.001},
		{"across Dhaka", 23.81, 90.41, 23.79, 90.42, 2.45, 0.05},
		{"London to Paris", 51.5074, -0.1278, 48.8566, 2.3522, 344, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2), tt.delta)
		})
	}
}

func TestEstimateDuration(t *testing.T) {
	assert.Equal(t, 0, EstimateDuration(0))
	assert.Equal(t, 15, EstimateDuration(10))
	assert.Equal(t, 60, EstimateDuration(40))
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(23.81, 90.41))
	assert.True(t, ValidCoordinate(-90, 180))
	assert.False(t, ValidCoordinate(91, 0))
	assert.False(t, ValidCoordinate(0, -181))
	assert.False(t, ValidCoordinate(math.NaN(), 0))
	assert.False(t, ValidCoordinate(0, math.Inf(1)))
}
