package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineM(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Geo
		expected float64
		delta    float64
	}{
		{
			"same point",
			Geo{Lat: 53.3498, Lon: -6.2603},
			Geo{Lat: 53.3498, Lon: -6.2603},
			0, 0.001,
		},
		{
			"30 meters north",
			Geo{Lat: 53.35, Lon: -6.26},
			Geo{Lat: 53.35027, Lon: -6.26},
			30.0, 0.2,
		},
		{
			"dublin city centre block",
			Geo{Lat: 53.3498, Lon: -6.2603},
			Geo{Lat: 53.3500, Lon: -6.2600},
			29.9, 1.0,
		},
		{
			"dublin to cork",
			Geo{Lat: 53.3498, Lon: -6.2603},
			Geo{Lat: 51.8985, Lon: -8.4756},
			219500, 2500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, HaversineM(tt.a, tt.b), tt.delta)
		})
	}
}

func TestHaversineM_Symmetric(t *testing.T) {
	a := Geo{Lat: 53.35, Lon: -6.26}
	b := Geo{Lat: 53.36, Lon: -6.27}
	assert.Equal(t, HaversineM(a, b), HaversineM(b, a))
}

func TestCentroid(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, Geo{}, Centroid(nil))
	})

	t.Run("single point", func(t *testing.T) {
		p := Geo{Lat: 53.35, Lon: -6.26}
		assert.Equal(t, p, Centroid([]Geo{p}))
	})

	t.Run("mean of points", func(t *testing.T) {
		c := Centroid([]Geo{
			{Lat: 53.0, Lon: -6.0},
			{Lat: 54.0, Lon: -7.0},
		})
		assert.InDelta(t, 53.5, c.Lat, 1e-9)
		assert.InDelta(t, -6.5, c.Lon, 1e-9)
	})
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		expected bool
	}{
		{"dublin", 53.3498, -6.2603, true},
		{"null island", 0, 0, false},
		{"lat too high", 90.1, 0, false},
		{"lat too low", -90.1, 0, false},
		{"lon too high", 0, 180.1, false},
		{"lon too low", 0, -180.1, false},
		{"equator non-zero lon", 0, -6.26, true},
		{"boundary", 90, 180, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidCoordinate(tt.lat, tt.lon))
		})
	}
}
