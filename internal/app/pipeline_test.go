package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nir0k/pixtrail/internal/gpx"
	"github.com/nir0k/pixtrail/internal/media"
	"github.com/nir0k/pixtrail/internal/testsupport"
)

func TestProcessAndGenerateWritesDefaultOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Summer Trip")
	photoAt(t, dir, "b.jpg", 48.8606, 2.3376, 20)
	photoAt(t, dir, "a.jpg", 48.8582, 2.2945, 10)
	plainPhoto(t, dir, "c.jpg")

	log := &recordingLogger{}
	proc := &Processor{Log: log}
	res, err := proc.ProcessAndGenerate(context.Background(), dir, "", false)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Success() {
		t.Fatalf("expected success, got %s: %v", res.Status, res.Err)
	}
	wantPath := filepath.Join(dir, "Summer Trip.gpx")
	if res.OutputPath != wantPath {
		t.Fatalf("output = %s, want %s", res.OutputPath, wantPath)
	}
	if res.Images != 3 || res.PointCount != 2 || res.NoGPS != 1 || res.Unreadable != 0 {
		t.Fatalf("unexpected counts: %+v", res)
	}

	track, err := gpx.LoadTrack(res.OutputPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if track.Len() != 2 || track.Points[0].Name != "a.jpg" || track.Points[1].Name != "b.jpg" {
		t.Fatalf("unexpected track: %+v", track.Points)
	}
	if track.Name != "Summer Trip" {
		t.Fatalf("track name = %q", track.Name)
	}
}

func TestProcessAndGenerateExplicitOutputCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	photoAt(t, dir, "a.jpg", 10, 20, 0)
	out := filepath.Join(t.TempDir(), "nested", "deeper", "track.gpx")

	res, err := (&Processor{}).ProcessAndGenerate(context.Background(), dir, out, false)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.OutputPath != out || !res.Success() {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestProcessAndGenerateNoGeotags(t *testing.T) {
	dir := t.TempDir()
	plainPhoto(t, dir, "a.jpg")
	plainPhoto(t, dir, "b.jpg")

	res, err := (&Processor{}).ProcessAndGenerate(context.Background(), dir, "", false)
	if err != nil {
		t.Fatalf("empty track must not be an error: %v", err)
	}
	if res.Status != StatusNoGeotags || res.Success() || res.PointCount != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := os.Stat(res.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("no file should be written, stat err = %v", err)
	}
	if !strings.Contains(res.Message(), "no GPX generated") {
		t.Fatalf("message = %q", res.Message())
	}
}

func TestProcessAndGenerateNoImages(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), []byte("hello"))

	res, err := (&Processor{}).ProcessAndGenerate(context.Background(), dir, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusNoImages {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestProcessAndGenerateToleratesCorruptPhoto(t *testing.T) {
	dir := t.TempDir()
	photoAt(t, dir, "good.jpg", 1, 2, 0)
	testsupport.WriteFile(t, filepath.Join(dir, "bad.jpg"), []byte("garbage"))
	testsupport.WritePhoto(t, filepath.Join(dir, "worse.jpg"), testsupport.Photo{GPS: &testsupport.GPSTag{
		Lat: [3]float64{120, 0, 0}, LatRef: "N", Lon: [3]float64{1, 0, 0}, LonRef: "E",
	}})

	log := &recordingLogger{}
	res, err := (&Processor{Log: log}).ProcessAndGenerate(context.Background(), dir, "", false)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !res.Success() || res.PointCount != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Unreadable < 1 || len(res.Warnings) < 1 {
		t.Fatalf("expected warnings for unreadable photos: %+v", res)
	}
	found := false
	for _, w := range res.Warnings {
		if filepath.Base(w.Path) == "worse.jpg" && w.Reason != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("warning for worse.jpg missing: %v", res.Warnings)
	}
	if len(log.warnings) == 0 {
		t.Fatal("expected logged warnings")
	}
}

func TestProcessAndGenerateRecursive(t *testing.T) {
	dir := t.TempDir()
	photoAt(t, dir, "a.jpg", 1, 1, 0)
	photoAt(t, filepath.Join(dir, "day2"), "b.jpg", 2, 2, 5)

	flat, err := (&Processor{}).ProcessAndGenerate(context.Background(), dir, filepath.Join(t.TempDir(), "flat.gpx"), false)
	if err != nil {
		t.Fatal(err)
	}
	deep, err := (&Processor{}).ProcessAndGenerate(context.Background(), dir, filepath.Join(t.TempDir(), "deep.gpx"), true)
	if err != nil {
		t.Fatal(err)
	}
	if flat.PointCount != 1 || deep.PointCount != 2 {
		t.Fatalf("flat=%d deep=%d", flat.PointCount, deep.PointCount)
	}
}

func TestProcessAndGenerateSymlinkedDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "real")
	photoAt(t, target, "a.jpg", 1, 1, 0)
	link := filepath.Join(t.TempDir(), "Link Trip")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	for _, recursive := range []bool{false, true} {
		res, err := (&Processor{}).ProcessAndGenerate(context.Background(), link, filepath.Join(t.TempDir(), "out.gpx"), recursive)
		if err != nil {
			t.Fatalf("recursive=%t: %v", recursive, err)
		}
		if res.Images != 1 || res.PointCount != 1 {
			t.Fatalf("recursive=%t: images=%d points=%d", recursive, res.Images, res.PointCount)
		}
	}
}

func TestProcessAndGenerateStrippedPhotoIsNotAWarning(t *testing.T) {
	dir := t.TempDir()
	photoAt(t, dir, "a.jpg", 1, 1, 0)
	testsupport.WriteFile(t, filepath.Join(dir, "screenshot.jpg"), testsupport.BareJPEG())

	res, err := (&Processor{}).ProcessAndGenerate(context.Background(), dir, filepath.Join(t.TempDir(), "out.gpx"), false)
	if err != nil {
		t.Fatal(err)
	}
	if res.NoGPS != 1 || res.Unreadable != 0 || len(res.Warnings) != 0 {
		t.Fatalf("no_gps=%d unreadable=%d warnings=%v", res.NoGPS, res.Unreadable, res.Warnings)
	}
}

func TestProcessAndGenerateMissingDirectory(t *testing.T) {
	res, err := (&Processor{}).ProcessAndGenerate(context.Background(), filepath.Join(t.TempDir(), "nope"), "", false)
	if !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if res.Success() || res.Status != StatusFailed {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestProcessAndGenerateUnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	photoAt(t, dir, "a.jpg", 1, 1, 0)
	blocker := filepath.Join(t.TempDir(), "file")
	testsupport.WriteFile(t, blocker, []byte("x"))

	res, err := (&Processor{}).ProcessAndGenerate(context.Background(), dir, filepath.Join(blocker, "out.gpx"), false)
	if !errors.Is(err, ErrOutput) {
		t.Fatalf("expected ErrOutput, got %v", err)
	}
	if res.Success() {
		t.Fatal("expected failure")
	}
}

func TestProcessAndGenerateCancelled(t *testing.T) {
	dir := t.TempDir()
	photoAt(t, dir, "a.jpg", 1, 1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Processor{}).ProcessAndGenerate(ctx, dir, "", false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProcessAndGenerateProgress(t *testing.T) {
	dir := t.TempDir()
	photoAt(t, dir, "a.jpg", 1, 1, 0)
	photoAt(t, dir, "b.jpg", 2, 2, 1)

	var calls [][2]int
	proc := &Processor{Progress: func(done, total int, _ string) {
		calls = append(calls, [2]int{done, total})
	}}
	if _, err := proc.ProcessAndGenerate(context.Background(), dir, "", false); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[0] != [2]int{1, 2} || calls[1] != [2]int{2, 2} {
		t.Fatalf("progress calls = %v", calls)
	}
}
