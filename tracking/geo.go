package tracking

import (
	"math"
	"time"
)

// Coordinates is a latitude/longitude pair in degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceFunc computes the distance in kilometers between two points. The
// relay takes it as a dependency so straight-line math can be swapped for an
// external routing service.
type DistanceFunc func(from, to Coordinates) float64

const earthRadiusKM = 6371.0

// Haversine returns the great-circle distance between two coordinates in km
func Haversine(from, to Coordinates) float64 {
	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	dLat := (to.Latitude - from.Latitude) * math.Pi / 180
	dLng := (to.Longitude - from.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// fallbackSpeedKMH is assumed when the partner reports no speed, so the ETA
// still moves as the distance shrinks.
const fallbackSpeedKMH = 20.0

// EstimateArrival derives an estimated arrival time from the remaining
// distance and the partner's reported speed in km/h.
func EstimateArrival(distanceKM, speedKMH float64, at time.Time) time.Time {
	if speedKMH <= 0 {
		speedKMH = fallbackSpeedKMH
	}
	hours := distanceKM / speedKMH
	return at.Add(time.Duration(hours * float64(time.Hour)))
}
