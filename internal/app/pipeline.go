package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nir0k/pixtrail/internal/gpx"
	"github.com/nir0k/pixtrail/internal/media"
)

// ErrOutput marks failures to prepare or write the destination file.
var ErrOutput = errors.New("output error")

// Status describes how a directory run ended.
type Status int

const (
	StatusWritten Status = iota
	StatusNoImages
	StatusNoGeotags
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusNoImages:
		return "no_images"
	case StatusNoGeotags:
		return "no_geotags"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Warning is a soft, per-item problem that did not stop the run.
type Warning struct {
	Path   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// Result is the outcome of processing one input directory.
type Result struct {
	InputDir   string
	OutputPath string
	Status     Status
	Images     int
	PointCount int
	NoGPS      int
	Unreadable int
	Bytes      int64
	Warnings   []Warning
	Err        error
}

// Success reports whether a non-empty GPX file was written.
func (r Result) Success() bool {
	return r.Status == StatusWritten
}

// Message is a one-line, user-facing explanation of the result.
func (r Result) Message() string {
	switch r.Status {
	case StatusWritten:
		return fmt.Sprintf("GPX file created successfully: %s (%d points)", r.OutputPath, r.PointCount)
	case StatusNoImages:
		return fmt.Sprintf("No images found in %s; no GPX generated", r.InputDir)
	case StatusNoGeotags:
		return fmt.Sprintf("No geotagged images among %d in %s; no GPX generated", r.Images, r.InputDir)
	default:
		if r.Err != nil {
			return fmt.Sprintf("Failed to create GPX file for %s: %v", r.InputDir, r.Err)
		}
		return fmt.Sprintf("Failed to create GPX file for %s", r.InputDir)
	}
}

// ProgressFunc is called after each image is examined.
type ProgressFunc func(done, total int, path string)

// Processor runs the discover, extract, build and write pipeline.
type Processor struct {
	Log      Logger
	Creator  string
	Progress ProgressFunc
}

func (p *Processor) logger() Logger {
	if p == nil || p.Log == nil {
		return nopLogger{}
	}
	return p.Log
}

// ProcessAndGenerate converts the geotagged images of inputDir into a GPX file.
//
// An empty outputPath selects DefaultOutputPath. The returned error is non-nil
// only for fatal conditions (missing input directory, unwritable output, or a
// cancelled context); directories without images or geotags return a Result
// whose Status says so and a nil error.
func (p *Processor) ProcessAndGenerate(ctx context.Context, inputDir, outputPath string, recursive bool) (Result, error) {
	log := p.logger()
	res := Result{InputDir: inputDir, OutputPath: strings.TrimSpace(outputPath)}

	fail := func(err error) (Result, error) {
		res.Status = StatusFailed
		res.Err = err
		log.Errorf("Processing %s failed: %v", inputDir, err)
		return res, err
	}

	seq, err := media.DiscoverImages(inputDir, recursive)
	if err != nil {
		return fail(err)
	}

	if res.OutputPath == "" {
		res.OutputPath = DefaultOutputPath(inputDir)
	}
	if err := EnsureDirectory(filepath.Dir(res.OutputPath)); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrOutput, err))
	}

	log.Infof("Processing %s recursive=%t output=%s", inputDir, recursive, res.OutputPath)

	var paths []string
	for path, err := range seq {
		if err != nil {
			log.Warningf("Skipping %s: %v", path, err)
			res.Warnings = append(res.Warnings, Warning{Path: path, Reason: err.Error()})
			continue
		}
		paths = append(paths, path)
	}
	res.Images = len(paths)

	records := make([]media.Record, 0, len(paths))
	for i, path := range paths {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		default:
		}

		rec := media.ReadGeotag(path)
		switch rec.Outcome {
		case media.OutcomeUnreadable:
			res.Unreadable++
			log.Warningf("Failed to read metadata for %s: %v", path, rec.Err)
			res.Warnings = append(res.Warnings, Warning{Path: path, Reason: rec.Err.Error()})
		case media.OutcomeNoGPS:
			res.NoGPS++
			log.Infof("No GPS data in %s", path)
		default:
			log.Infof("Geotag %s lat=%.6f lon=%.6f time=%s", path, rec.Coord.Latitude, rec.Coord.Longitude, timeText(rec))
		}
		records = append(records, rec)

		if p != nil && p.Progress != nil {
			p.Progress(i+1, len(paths), path)
		}
	}

	if res.Images == 0 {
		res.Status = StatusNoImages
		log.Warningf("No images found in %s", inputDir)
		return res, nil
	}

	track := gpx.BuildTrack(trackName(inputDir), records)
	res.PointCount = track.Len()
	if track.Empty() {
		res.Status = StatusNoGeotags
		log.Warningf("No geotagged images among %d files in %s", res.Images, inputDir)
		return res, nil
	}

	creator := ""
	if p != nil {
		creator = p.Creator
	}
	size, err := gpx.WriteFile(res.OutputPath, track, creator)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrOutput, err))
	}
	res.Bytes = size
	res.Status = StatusWritten

	log.Infof("Wrote %s with %d points (images=%d no_gps=%d unreadable=%d)", res.OutputPath, res.PointCount, res.Images, res.NoGPS, res.Unreadable)
	return res, nil
}

func trackName(inputDir string) string {
	return strings.TrimSuffix(OutputName(inputDir), gpxExt)
}

func timeText(rec media.Record) string {
	if !rec.HasTime() {
		return "n/a"
	}
	return rec.CaptureTime.Format("2006-01-02T15:04:05")
}
