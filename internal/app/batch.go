package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nir0k/pixtrail/internal/media"
	"golang.org/x/sync/errgroup"
)

// ErrNoValidDirectories is returned when every batch entry had to be skipped.
var ErrNoValidDirectories = errors.New("no valid directories to process")

// BatchOptions configures ProcessBatch.
type BatchOptions struct {
	// OutputDir collects all GPX files; empty writes each next to its photos.
	OutputDir string
	Recursive bool
	// Workers bounds how many directories run at once; values below 1 mean 1.
	Workers int
}

// BatchSummary aggregates a batch run. Results follow the input order of the
// directories that were attempted.
type BatchSummary struct {
	Results   []Result
	Skipped   []Warning
	Succeeded int
	Failed    int
}

// Success reports whether at least one directory produced a GPX file.
func (s BatchSummary) Success() bool {
	return s.Succeeded > 0
}

// Tally is the final one-line report of a batch run.
func (s BatchSummary) Tally() string {
	return fmt.Sprintf("Batch processing completed: %d succeeded, %d failed", s.Succeeded, s.Failed)
}

// ProcessBatch runs ProcessAndGenerate for each directory.
//
// Missing directories and repeated entries are skipped with a warning and are
// not counted as failures. A failing directory never stops the others. Output
// paths are assigned before any work starts so concurrent workers never write
// the same file.
func (p *Processor) ProcessBatch(ctx context.Context, dirs []string, opts BatchOptions) (BatchSummary, error) {
	log := p.logger()
	var sum BatchSummary

	valid := make([]string, 0, len(dirs))
	seen := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		if err := media.CheckDir(dir); err != nil {
			log.Warningf("Skipping non-existent directory: %s (%v)", dir, err)
			sum.Skipped = append(sum.Skipped, Warning{Path: dir, Reason: err.Error()})
			continue
		}
		key := dir
		if abs, err := filepath.Abs(dir); err == nil {
			key = abs
		}
		if _, dup := seen[key]; dup {
			log.Warningf("Skipping duplicate directory: %s", dir)
			sum.Skipped = append(sum.Skipped, Warning{Path: dir, Reason: "listed more than once"})
			continue
		}
		seen[key] = struct{}{}
		valid = append(valid, dir)
	}
	if len(valid) == 0 {
		return sum, ErrNoValidDirectories
	}

	outputs := make([]string, len(valid))
	for i, dir := range valid {
		if opts.OutputDir != "" {
			outputs[i] = filepath.Join(opts.OutputDir, OutputName(dir))
		} else {
			outputs[i] = DefaultOutputPath(dir)
		}
	}
	outputs = uniquePaths(outputs)

	sum.Results = make([]Result, len(valid))

	if opts.OutputDir != "" {
		if err := EnsureDirectory(opts.OutputDir); err != nil {
			err = fmt.Errorf("%w: %w", ErrOutput, err)
			log.Errorf("Could not create output directory %s: %v", opts.OutputDir, err)
			for i, dir := range valid {
				sum.Results[i] = Result{InputDir: dir, OutputPath: outputs[i], Status: StatusFailed, Err: err}
			}
			sum.Failed = len(valid)
			return sum, nil
		}
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	log.Infof("Batch of %d directories with %d workers (skipped=%d)", len(valid), workers, len(sum.Skipped))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, dir := range valid {
		g.Go(func() error {
			res, err := p.ProcessAndGenerate(ctx, dir, outputs[i], opts.Recursive)
			if err != nil && res.Err == nil {
				res.Err = err
			}
			sum.Results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range sum.Results {
		if res.Success() {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}
	log.Infof("%s", sum.Tally())
	return sum, nil
}
