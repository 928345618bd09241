package gpx

import (
	"fmt"
	"time"

	gogpx "github.com/tkrajina/gpxgo/gpx"
)

// LoadTrack parses a GPX file and flattens every track segment into one Track.
// Point order is kept as stored in the file.
func LoadTrack(path string) (Track, error) {
	parsed, err := gogpx.ParseFile(path)
	if err != nil {
		return Track{}, fmt.Errorf("parse gpx: %w", err)
	}
	return fromDocument(parsed), nil
}

// ParseBytes is LoadTrack for in-memory documents.
func ParseBytes(data []byte) (Track, error) {
	parsed, err := gogpx.ParseBytes(data)
	if err != nil {
		return Track{}, fmt.Errorf("parse gpx: %w", err)
	}
	return fromDocument(parsed), nil
}

// Bounds returns the earliest and latest timestamps in the track.
// Both are zero when no point carries a time.
func (t Track) Bounds() (time.Time, time.Time) {
	var start, end time.Time
	for _, p := range t.Points {
		if !p.HasTime() {
			continue
		}
		if start.IsZero() || p.Time.Before(start) {
			start = p.Time
		}
		if end.IsZero() || p.Time.After(end) {
			end = p.Time
		}
	}
	return start, end
}

func fromDocument(doc *gogpx.GPX) Track {
	var track Track

	for _, trk := range doc.Tracks {
		if track.Name == "" {
			track.Name = trk.Name
		}
		for _, segment := range trk.Segments {
			for _, pt := range segment.Points {
				p := GeoPoint{
					Latitude:  pt.GetLatitude(),
					Longitude: pt.GetLongitude(),
					Name:      pt.Name,
				}
				if ele := pt.GetElevation(); ele.NotNull() {
					val := ele.Value()
					p.Altitude = &val
				}
				if !pt.Timestamp.IsZero() {
					p.Time = pt.Timestamp.UTC()
				}
				track.Points = append(track.Points, p)
			}
		}
	}

	return track
}
