package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nir0k/pixtrail/internal/app"
	"github.com/nir0k/pixtrail/internal/config"
	"github.com/nir0k/pixtrail/internal/web"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagValues holds raw command-line values before they are merged with the
// configuration file.
type flagValues struct {
	inputDir   string
	batch      []string
	web        bool
	output     string
	outputDir  string
	recursive  bool
	verbose    bool
	host       string
	port       int
	noBrowser  bool
	workers    int
	logFile    string
	logLevel   string
	configPath string
}

func newRootCommand() *cobra.Command {
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:   "pixtrail -i DIR | -b DIR... | -w",
		Short: "Create GPX tracks from the GPS data in photos",
		Long: "PixTrail reads GPS coordinates from photo EXIF metadata and writes them,\n" +
			"ordered by capture time, as a GPX 1.1 track.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(fv.configPath)
			if err != nil {
				return err
			}
			opts, err := buildOptions(cmd.Flags(), fv, cfg, args)
			if err != nil {
				return err
			}
			return execute(cmd, opts, cfg)
		},
	}

	bindFlags(rootCmd.Flags(), &fv)
	rootCmd.PersistentFlags().StringVar(&fv.configPath, "config", "", "Configuration file path (defaults to the user config dir)")
	rootCmd.MarkFlagsMutuallyExclusive("input-dir", "batch", "web")
	rootCmd.MarkFlagsOneRequired("input-dir", "batch", "web")
	rootCmd.MarkFlagsMutuallyExclusive("output", "output-dir")

	rootCmd.AddCommand(newConfigCommand(&fv.configPath))
	return rootCmd
}

func bindFlags(flags *pflag.FlagSet, fv *flagValues) {
	def := config.Default()
	flags.SortFlags = false

	flags.StringVarP(&fv.inputDir, "input-dir", "i", "", "Directory containing geotagged images")
	flags.StringSliceVarP(&fv.batch, "batch", "b", nil, "Process multiple directories (repeat the flag, separate with commas, or list them as arguments)")
	flags.BoolVarP(&fv.web, "web", "w", false, "Start the local web interface")
	flags.StringVarP(&fv.output, "output", "o", "", "Output GPX file path (single directory only)")
	flags.StringVarP(&fv.outputDir, "output-dir", "d", def.OutputDir, "Output directory for GPX files in batch mode")
	flags.BoolVarP(&fv.recursive, "recursive", "r", def.Recursive, "Search for images in subdirectories")
	flags.BoolVarP(&fv.verbose, "verbose", "v", false, "Print detailed progress and log to the console")
	flags.StringVar(&fv.host, "host", def.Web.Host, "Host for the web interface")
	flags.IntVar(&fv.port, "port", def.Web.Port, "Port for the web interface")
	flags.BoolVar(&fv.noBrowser, "no-browser", false, "Do not open a browser when starting the web interface")
	flags.IntVar(&fv.workers, "workers", def.Workers, "Directories processed concurrently in batch mode")
	flags.StringVar(&fv.logFile, "log-file", def.LogFile, "Log file path (defaults to pixtrail.log next to the binary)")
	flags.StringVarP(&fv.logLevel, "log-level", "l", def.LogLevel, "Logging level for file and console output")
}

// buildOptions merges configuration with the flags the user actually set.
func buildOptions(flags *pflag.FlagSet, fv flagValues, cfg config.Config, args []string) (app.Options, error) {
	pick := func(name, flagVal, cfgVal string) string {
		if flags.Changed(name) {
			return flagVal
		}
		return cfgVal
	}
	pickInt := func(name string, flagVal, cfgVal int) int {
		if flags.Changed(name) {
			return flagVal
		}
		return cfgVal
	}

	opts := app.Options{
		Recursive: cfg.Recursive,
		Verbose:   fv.verbose,
		LogLevel:  pick("log-level", fv.logLevel, cfg.LogLevel),
		LogFile:   pick("log-file", fv.logFile, cfg.LogFile),
		Creator:   cfg.Creator,
	}
	if flags.Changed("recursive") {
		opts.Recursive = fv.recursive
	}

	if len(args) > 0 && !flags.Changed("batch") {
		return app.Options{}, fmt.Errorf("unexpected arguments %q (directories are only accepted with --batch)", args)
	}

	switch {
	case flags.Changed("input-dir"):
		opts.Mode = app.SingleMode{InputDir: fv.inputDir, Output: fv.output}
	case flags.Changed("batch"):
		if flags.Changed("output") {
			return app.Options{}, fmt.Errorf("--output is not supported with --batch; use --output-dir")
		}
		dirs := append(append([]string{}, fv.batch...), args...)
		opts.Mode = app.BatchMode{
			Dirs:      dirs,
			OutputDir: pick("output-dir", fv.outputDir, cfg.OutputDir),
			Workers:   pickInt("workers", fv.workers, cfg.Workers),
		}
	case fv.web:
		opts.Mode = app.WebMode{
			Host:        pick("host", fv.host, cfg.Web.Host),
			Port:        pickInt("port", fv.port, cfg.Web.Port),
			OpenBrowser: cfg.Web.OpenBrowser && !fv.noBrowser,
		}
	}

	if err := opts.Validate(); err != nil {
		return app.Options{}, err
	}
	return opts, nil
}

func execute(cmd *cobra.Command, opts app.Options, cfg config.Config) error {
	out := cmd.OutOrStdout()
	m, ok := opts.Mode.(app.WebMode)
	if !ok {
		return app.Run(cmd.Context(), opts, out, tableStyle(out))
	}

	logInstance, err := app.NewLogger(app.LogOptions{File: opts.LogFile, Level: opts.LogLevel, Verbose: opts.Verbose}, nil)
	if err != nil {
		return err
	}
	srv := web.New(web.Options{
		Host:        m.Host,
		Port:        m.Port,
		OpenBrowser: m.OpenBrowser,
		LogLevel:    opts.LogLevel,
		Creator:     cfg.Creator,
	}, logInstance)
	fmt.Fprintf(out, "PixTrail web interface: http://%s/ (Ctrl+C to stop)\n", srv.Addr())
	return srv.ListenAndServe(cmd.Context())
}

// tableStyle uses box drawing only when writing to a terminal.
func tableStyle(w io.Writer) app.TableStyle {
	f, ok := w.(*os.File)
	if !ok {
		return app.TablePlain
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return app.TableRounded
	}
	return app.TablePlain
}
