package gpx

import (
	"fmt"
	"os"
	"path/filepath"

	gogpx "github.com/tkrajina/gpxgo/gpx"
)

// DefaultCreator is written to the GPX creator attribute when none is configured.
const DefaultCreator = "PixTrail"

// Encode renders the track as a GPX 1.1 document with a single track segment.
//
// No generation timestamp is embedded, so the same track always encodes to the
// same bytes. Text fields are escaped by the XML encoder.
func Encode(track Track, creator string) ([]byte, error) {
	if creator == "" {
		creator = DefaultCreator
	}

	segment := gogpx.GPXTrackSegment{
		Points: make([]gogpx.GPXPoint, 0, len(track.Points)),
	}
	for _, p := range track.Points {
		pt := gogpx.GPXPoint{
			Point: gogpx.Point{
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
			},
			Name: p.Name,
		}
		if p.Altitude != nil {
			pt.Elevation = *gogpx.NewNullableFloat64(*p.Altitude)
		}
		if p.HasTime() {
			pt.Timestamp = p.Time.UTC()
		}
		segment.Points = append(segment.Points, pt)
	}

	doc := &gogpx.GPX{
		Version: "1.1",
		Creator: creator,
		Tracks: []gogpx.GPXTrack{{
			Name:     track.Name,
			Segments: []gogpx.GPXTrackSegment{segment},
		}},
	}

	data, err := doc.ToXml(gogpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encode gpx: %w", err)
	}
	return data, nil
}

// WriteFile encodes the track and atomically replaces path with the result.
// The destination directory must already exist.
func WriteFile(path string, track Track, creator string) (int64, error) {
	data, err := Encode(track, creator)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pixtrail-*.gpx.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return 0, fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("replace %s: %w", path, err)
	}
	return int64(len(data)), nil
}
