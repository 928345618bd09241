package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProcessBatchSkipsMissingDirectory(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	third := filepath.Join(root, "third")
	photoAt(t, first, "a.jpg", 1, 1, 0)
	photoAt(t, third, "b.jpg", 2, 2, 0)
	missing := filepath.Join(root, "second")

	log := &recordingLogger{}
	sum, err := (&Processor{Log: log}).ProcessBatch(context.Background(), []string{first, missing, third}, BatchOptions{})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if sum.Succeeded != 2 || sum.Failed != 0 {
		t.Fatalf("succeeded=%d failed=%d", sum.Succeeded, sum.Failed)
	}
	if len(sum.Skipped) != 1 || sum.Skipped[0].Path != missing {
		t.Fatalf("skipped = %v", sum.Skipped)
	}
	if len(sum.Results) != 2 || sum.Results[0].InputDir != first || sum.Results[1].InputDir != third {
		t.Fatalf("results = %+v", sum.Results)
	}
	for _, res := range sum.Results {
		if filepath.Dir(res.OutputPath) != res.InputDir {
			t.Fatalf("default output should live in the input dir: %s", res.OutputPath)
		}
	}
	if !sum.Success() {
		t.Fatal("expected overall success")
	}
	if sum.Tally() != "Batch processing completed: 2 succeeded, 0 failed" {
		t.Fatalf("tally = %q", sum.Tally())
	}
}

func TestProcessBatchOutputDirNaming(t *testing.T) {
	root := t.TempDir()
	tripA := filepath.Join(root, "a", "Trip: Rome!")
	tripB := filepath.Join(root, "b", "Trip Rome")
	photoAt(t, tripA, "a.jpg", 41.9, 12.5, 0)
	photoAt(t, tripB, "b.jpg", 41.8, 12.4, 0)
	outDir := filepath.Join(root, "gpx")

	sum, err := (&Processor{}).ProcessBatch(context.Background(), []string{tripA, tripB}, BatchOptions{OutputDir: outDir, Workers: 2})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if sum.Succeeded != 2 {
		t.Fatalf("results = %+v", sum.Results)
	}
	if got := sum.Results[0].OutputPath; got != filepath.Join(outDir, "Trip Rome.gpx") {
		t.Fatalf("first output = %s", got)
	}
	if got := sum.Results[1].OutputPath; got != filepath.Join(outDir, "Trip Rome-2.gpx") {
		t.Fatalf("second output = %s", got)
	}
	for _, res := range sum.Results {
		if _, err := os.Stat(res.OutputPath); err != nil {
			t.Fatalf("missing %s: %v", res.OutputPath, err)
		}
	}
}

func TestProcessBatchCountsEmptyDirectoriesAsFailed(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good")
	plain := filepath.Join(root, "plain")
	photoAt(t, good, "a.jpg", 1, 1, 0)
	plainPhoto(t, plain, "b.jpg")

	sum, err := (&Processor{}).ProcessBatch(context.Background(), []string{plain, good}, BatchOptions{Workers: 4})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Succeeded != 1 || sum.Failed != 1 {
		t.Fatalf("succeeded=%d failed=%d", sum.Succeeded, sum.Failed)
	}
	if sum.Results[0].Status != StatusNoGeotags {
		t.Fatalf("status = %s", sum.Results[0].Status)
	}
}

func TestProcessBatchAllFailed(t *testing.T) {
	root := t.TempDir()
	plain := filepath.Join(root, "plain")
	plainPhoto(t, plain, "b.jpg")

	sum, err := (&Processor{}).ProcessBatch(context.Background(), []string{plain}, BatchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Success() || sum.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestProcessBatchNoValidDirectories(t *testing.T) {
	root := t.TempDir()
	_, err := (&Processor{}).ProcessBatch(context.Background(), []string{filepath.Join(root, "x"), filepath.Join(root, "y")}, BatchOptions{})
	if !errors.Is(err, ErrNoValidDirectories) {
		t.Fatalf("expected ErrNoValidDirectories, got %v", err)
	}
}

func TestProcessBatchSkipsDuplicates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dup")
	photoAt(t, dir, "a.jpg", 1, 1, 0)

	sum, err := (&Processor{}).ProcessBatch(context.Background(), []string{dir, dir + string(filepath.Separator)}, BatchOptions{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Results) != 1 || len(sum.Skipped) != 1 {
		t.Fatalf("results=%d skipped=%d", len(sum.Results), len(sum.Skipped))
	}
}

func TestProcessBatchUnwritableOutputDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "photos")
	photoAt(t, dir, "a.jpg", 1, 1, 0)
	blocker := filepath.Join(root, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sum, err := (&Processor{}).ProcessBatch(context.Background(), []string{dir}, BatchOptions{OutputDir: filepath.Join(blocker, "out")})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Failed != 1 || !errors.Is(sum.Results[0].Err, ErrOutput) {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestRenderBatchTable(t *testing.T) {
	sum := BatchSummary{
		Results: []Result{
			{InputDir: "/photos/rome", OutputPath: "/out/rome.gpx", Status: StatusWritten, Images: 4, PointCount: 3, Bytes: 2048},
			{InputDir: "/photos/empty", Status: StatusNoGeotags, Images: 2},
		},
		Skipped: []Warning{{Path: "/photos/missing", Reason: "directory not found"}},
	}

	out := RenderBatchTable(sum, TablePlain)
	for _, want := range []string{"/photos/rome", "rome.gpx", "2.0 kB", "no_geotags", "/photos/missing", "skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
