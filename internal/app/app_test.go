package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunSingle(t *testing.T) {
	dir := t.TempDir()
	photoAt(t, dir, "a.jpg", 1, 1, 0)
	out := filepath.Join(t.TempDir(), "out.gpx")

	var buf bytes.Buffer
	err := Run(context.Background(), Options{
		Mode:    SingleMode{InputDir: dir, Output: out},
		LogFile: filepath.Join(t.TempDir(), "pixtrail.log"),
	}, &buf, TablePlain)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, buf.String())
	}
	if !strings.Contains(buf.String(), "GPX file created successfully: "+out) {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestRunSingleNoGeotags(t *testing.T) {
	dir := t.TempDir()
	plainPhoto(t, dir, "a.jpg")

	var buf bytes.Buffer
	err := Run(context.Background(), Options{
		Mode:    SingleMode{InputDir: dir},
		LogFile: filepath.Join(t.TempDir(), "pixtrail.log"),
	}, &buf, TablePlain)
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("expected ErrNoOutput, got %v", err)
	}
}

func TestRunBatchPrintsTally(t *testing.T) {
	root := t.TempDir()
	good := filepath.Join(root, "good")
	photoAt(t, good, "a.jpg", 1, 1, 0)

	var buf bytes.Buffer
	err := Run(context.Background(), Options{
		Mode:    BatchMode{Dirs: []string{good, filepath.Join(root, "missing")}},
		LogFile: filepath.Join(t.TempDir(), "pixtrail.log"),
	}, &buf, TablePlain)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, buf.String())
	}
	out := buf.String()
	for _, want := range []string{"Warning: Skipping directory", "Batch processing completed: 1 succeeded, 0 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunRejectsWebMode(t *testing.T) {
	err := Run(context.Background(), Options{
		Mode:    WebMode{Port: 5000},
		LogFile: filepath.Join(t.TempDir(), "pixtrail.log"),
	}, &bytes.Buffer{}, TablePlain)
	if err == nil {
		t.Fatal("expected error for web mode")
	}
}
