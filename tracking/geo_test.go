package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	connaught := Coordinates{Latitude: 28.6315, Longitude: 77.2167}
	indiaGate := Coordinates{Latitude: 28.6129, Longitude: 77.2295}

	d := Haversine(connaught, indiaGate)
	assert.InDelta(t, 2.4, d, 0.3, "Connaught Place to India Gate is roughly 2.4 km")

	assert.Zero(t, Haversine(connaught, connaught))
}

func TestHaversineSymmetry(t *testing.T) {
	a := Coordinates{Latitude: 12.9716, Longitude: 77.5946}
	b := Coordinates{Latitude: 13.0827, Longitude: 80.2707}

	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
}

func TestEstimateArrival(t *testing.T) {
	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	// 10 km at 20 km/h is half an hour
	eta := EstimateArrival(10, 20, at)
	assert.Equal(t, at.Add(30*time.Minute), eta)

	// Zero speed falls back to the default instead of a frozen ETA
	eta = EstimateArrival(10, 0, at)
	assert.True(t, eta.After(at))
	assert.Equal(t, at.Add(30*time.Minute), eta)
}
