package app

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNoOutput is returned by Run when nothing was written.
var ErrNoOutput = errors.New("no GPX file generated")

// Run executes a single or batch conversion and prints user-facing messages to
// out. Web mode is served by the web package and is rejected here.
func Run(ctx context.Context, opts Options, out io.Writer, table TableStyle) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	logInstance, err := NewLogger(LogOptions{File: opts.LogFile, Level: opts.LogLevel, Verbose: opts.Verbose}, nil)
	if err != nil {
		return err
	}
	logInstance.Infof("Starting PixTrail mode=%s recursive=%t", ModeName(opts.Mode), opts.Recursive)

	proc := &Processor{Log: logInstance, Creator: opts.Creator}

	switch m := opts.Mode.(type) {
	case SingleMode:
		return runSingle(ctx, proc, m, opts, out)
	case BatchMode:
		return runBatch(ctx, proc, m, opts, out, table)
	default:
		return fmt.Errorf("mode %s is not handled by app.Run", ModeName(m))
	}
}

func runSingle(ctx context.Context, proc *Processor, m SingleMode, opts Options, out io.Writer) error {
	if opts.Verbose {
		fmt.Fprintf(out, "Processing images in %s\n", m.InputDir)
		if opts.Recursive {
			fmt.Fprintln(out, "Searching recursively in subdirectories")
		}
	}

	res, err := proc.ProcessAndGenerate(ctx, m.InputDir, m.Output, opts.Recursive)
	printWarnings(out, res.Warnings, opts.Verbose)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return err
	}
	fmt.Fprintln(out, res.Message())
	if !res.Success() {
		return ErrNoOutput
	}
	return nil
}

func runBatch(ctx context.Context, proc *Processor, m BatchMode, opts Options, out io.Writer, table TableStyle) error {
	sum, err := proc.ProcessBatch(ctx, m.Dirs, BatchOptions{
		OutputDir: m.OutputDir,
		Recursive: opts.Recursive,
		Workers:   m.Workers,
	})
	for _, w := range sum.Skipped {
		fmt.Fprintf(out, "Warning: Skipping directory %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return err
	}

	for _, res := range sum.Results {
		printWarnings(out, res.Warnings, opts.Verbose)
		fmt.Fprintln(out, res.Message())
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, RenderBatchTable(sum, table))
	fmt.Fprintln(out, sum.Tally())

	if !sum.Success() {
		return ErrNoOutput
	}
	return nil
}

func printWarnings(out io.Writer, warnings []Warning, verbose bool) {
	const maxQuiet = 5
	for i, w := range warnings {
		if !verbose && i == maxQuiet {
			fmt.Fprintf(out, "Warning: %d more warnings (use --verbose to list them)\n", len(warnings)-maxQuiet)
			return
		}
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
}
