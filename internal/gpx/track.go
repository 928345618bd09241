package gpx

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/nir0k/pixtrail/internal/media"
	"github.com/samber/lo"
)

// GeoPoint is a single track position.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64
	Time      time.Time // zero when unknown
	Name      string
}

// HasTime reports whether the point carries a timestamp.
func (p GeoPoint) HasTime() bool {
	return !p.Time.IsZero()
}

// Track is an ordered sequence of points built from one directory.
type Track struct {
	Name   string
	Points []GeoPoint
}

// Len returns the number of points in the track.
func (t Track) Len() int {
	return len(t.Points)
}

// Empty reports whether the track has no points.
func (t Track) Empty() bool {
	return len(t.Points) == 0
}

// BuildTrack turns extractor records into a track.
//
// Records without a coordinate are dropped. Points are sorted by time only when
// every kept point has one; otherwise discovery order is preserved as is.
func BuildTrack(name string, records []media.Record) Track {
	points := lo.FilterMap(records, func(rec media.Record, _ int) (GeoPoint, bool) {
		if rec.Outcome != media.OutcomeGeotagged || rec.Coord == nil {
			return GeoPoint{}, false
		}
		return GeoPoint{
			Latitude:  rec.Coord.Latitude,
			Longitude: rec.Coord.Longitude,
			Altitude:  rec.Coord.Altitude,
			Time:      rec.CaptureTime,
			Name:      filepath.Base(rec.Path),
		}, true
	})

	return Track{Name: name, Points: OrderPoints(points)}
}

// OrderPoints sorts points ascending by time when all of them are timestamped.
// A single missing timestamp keeps the input order untouched.
func OrderPoints(points []GeoPoint) []GeoPoint {
	if len(points) < 2 {
		return points
	}
	for _, p := range points {
		if !p.HasTime() {
			return points
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return points
}
