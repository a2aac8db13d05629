package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZero(t *testing.T) {
	p := Point{Lat: 28.6139, Lng: 77.2090}
	assert.Equal(t, 0.0, Distance(p, p))
}

func TestDistanceSymmetry(t *testing.T) {
	a := Point{Lat: 28.6139, Lng: 77.2090}
	b := Point{Lat: 28.7041, Lng: 77.1025}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDistanceKnownValues(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Point
		meters float64
		delta  float64
	}{
		{
			name:   "adjacent points in a city block",
			a:      Point{Lat: 28.6139, Lng: 77.2090},
			b:      Point{Lat: 28.6140, Lng: 77.2091},
			meters: 14.8,
			delta:  1.0,
		},
		{
			name:   "across Delhi",
			a:      Point{Lat: 28.6139, Lng: 77.2090},
			b:      Point{Lat: 28.7041, Lng: 77.1025},
			meters: 14500,
			delta:  400,
		},
		{
			name:   "one degree of latitude",
			a:      Point{Lat: 0, Lng: 0},
			b:      Point{Lat: 1, Lng: 0},
			meters: 111195,
			delta:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.meters, Distance(tt.a, tt.b), tt.delta)
		})
	}
}

func TestDistanceAntipodal(t *testing.T) {
	// Half the circumference; also exercises the asin clamp.
	d := Distance(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 180})
	assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(28.6139, 77.2090))
	assert.True(t, ValidCoordinates(-90, -180))
	assert.True(t, ValidCoordinates(90, 180))
	assert.False(t, ValidCoordinates(90.1, 0))
	assert.False(t, ValidCoordinates(0, 180.1))
	assert.False(t, ValidCoordinates(math.NaN(), 0))
	assert.False(t, ValidCoordinates(0, math.NaN()))
}
