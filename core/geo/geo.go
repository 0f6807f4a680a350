// Package geo normalises node coordinates and estimates straight-line
// distances and road travel durations between nodes.
package geo

import (
	"math"
	"time"
)

// EarthRadiusKm is the mean Earth radius used by HaversineKm.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// HaversineKm returns the great-circle distance between a and b in kilometres.
func HaversineKm(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

// Travel estimates road travel time from a straight-line distance.
type Travel struct {
	// SpeedKmh is the average driving speed.
	SpeedKmh float64 `json:"speed_kmh"`
	// RestEveryHours is the amount of driving after which a break is taken.
	RestEveryHours float64 `json:"rest_every_hours"`
	// RestHours is the length of each break.
	RestHours float64 `json:"rest_hours"`
}

// DefaultTravel returns the travel model used when none is configured.
func DefaultTravel() Travel {
	return Travel{SpeedKmh: 40, RestEveryHours: 4, RestHours: 0.5}
}

// SetDefaults fills zero fields with DefaultTravel values.
func (t *Travel) SetDefaults() {
	d := DefaultTravel()
	if *t == (Travel{}) {
		*t = d
		return
	}
	if t.SpeedKmh <= 0 {
		t.SpeedKmh = d.SpeedKmh
	}
	if t.RestEveryHours <= 0 {
		t.RestEveryHours = d.RestEveryHours
	}
	if t.RestHours < 0 {
		t.RestHours = d.RestHours
	}
}

// Hours returns the estimated travel time in hours for distanceKm, including
// one rest break per completed RestEveryHours of driving.
func (t Travel) Hours(distanceKm float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	speed := t.SpeedKmh
	if speed <= 0 {
		speed = DefaultTravel().SpeedKmh
	}
	drive := distanceKm / speed
	if t.RestEveryHours <= 0 || t.RestHours <= 0 {
		return drive
	}
	return drive + math.Floor(drive/t.RestEveryHours)*t.RestHours
}

// Duration is Hours expressed as a time.Duration.
func (t Travel) Duration(distanceKm float64) time.Duration {
	return time.Duration(t.Hours(distanceKm) * float64(time.Hour))
}
