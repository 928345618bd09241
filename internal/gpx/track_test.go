package gpx

import (
	"testing"
	"time"

	"github.com/nir0k/pixtrail/internal/media"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 1, hour, minute, 0, 0, time.UTC)
}

func geotagged(path string, lat, lon float64, ts time.Time) media.Record {
	return media.Record{
		Path:        path,
		CaptureTime: ts,
		Coord:       &media.Coordinate{Latitude: lat, Longitude: lon},
		Outcome:     media.OutcomeGeotagged,
	}
}

func names(track Track) []string {
	out := make([]string, 0, len(track.Points))
	for _, p := range track.Points {
		out = append(out, p.Name)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildTrackSortsWhenAllTimed(t *testing.T) {
	records := []media.Record{
		geotagged("/p/c.jpg", 3, 3, at(12, 0)),
		geotagged("/p/a.jpg", 1, 1, at(10, 0)),
		geotagged("/p/b.jpg", 2, 2, at(11, 0)),
	}

	track := BuildTrack("trip", records)
	if got, want := names(track), []string{"a.jpg", "b.jpg", "c.jpg"}; !equalStrings(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if track.Name != "trip" {
		t.Fatalf("name = %q", track.Name)
	}
}

func TestBuildTrackMixedTimestampsKeepsDiscoveryOrder(t *testing.T) {
	records := []media.Record{
		geotagged("/p/A.jpg", 1, 1, time.Time{}),
		geotagged("/p/B.jpg", 2, 2, at(10, 0)),
		geotagged("/p/C.jpg", 3, 3, time.Time{}),
	}

	track := BuildTrack("mixed", records)
	if got, want := names(track), []string{"A.jpg", "B.jpg", "C.jpg"}; !equalStrings(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestBuildTrackMixedDoesNotPartiallySort(t *testing.T) {
	records := []media.Record{
		geotagged("/p/late.jpg", 1, 1, at(15, 0)),
		geotagged("/p/untimed.jpg", 2, 2, time.Time{}),
		geotagged("/p/early.jpg", 3, 3, at(9, 0)),
	}

	track := BuildTrack("mixed", records)
	if got, want := names(track), []string{"late.jpg", "untimed.jpg", "early.jpg"}; !equalStrings(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestBuildTrackStableForEqualTimes(t *testing.T) {
	records := []media.Record{
		geotagged("/p/x.jpg", 1, 1, at(10, 0)),
		geotagged("/p/y.jpg", 2, 2, at(10, 0)),
		geotagged("/p/w.jpg", 0, 0, at(9, 0)),
	}

	track := BuildTrack("burst", records)
	if got, want := names(track), []string{"w.jpg", "x.jpg", "y.jpg"}; !equalStrings(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestBuildTrackDropsRecordsWithoutGPS(t *testing.T) {
	records := []media.Record{
		{Path: "/p/plain.jpg", Outcome: media.OutcomeNoGPS, CaptureTime: at(8, 0)},
		geotagged("/p/geo.jpg", 1, 1, at(9, 0)),
		{Path: "/p/broken.jpg", Outcome: media.OutcomeUnreadable},
	}

	track := BuildTrack("filtered", records)
	if track.Len() != 1 || track.Points[0].Name != "geo.jpg" {
		t.Fatalf("unexpected points: %+v", track.Points)
	}
}

func TestBuildTrackEmpty(t *testing.T) {
	track := BuildTrack("none", []media.Record{
		{Path: "/p/plain.jpg", Outcome: media.OutcomeNoGPS},
	})
	if !track.Empty() {
		t.Fatalf("expected empty track, got %d points", track.Len())
	}

	if !BuildTrack("nil", nil).Empty() {
		t.Fatal("expected empty track for nil input")
	}
}

func TestBoundsIgnoresUntimedPoints(t *testing.T) {
	track := Track{Points: []GeoPoint{
		{Time: at(11, 0)},
		{},
		{Time: at(9, 30)},
	}}

	start, end := track.Bounds()
	if !start.Equal(at(9, 30)) || !end.Equal(at(11, 0)) {
		t.Fatalf("bounds = %s .. %s", start, end)
	}
}
