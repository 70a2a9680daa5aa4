package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chrissnell/tlprofile/internal/app"
	"github.com/chrissnell/tlprofile/internal/engine"
	"github.com/chrissnell/tlprofile/internal/log"
	"github.com/chrissnell/tlprofile/internal/simplify"
	"github.com/chrissnell/tlprofile/pkg/config"
	"github.com/chrissnell/tlprofile/pkg/responseformat"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

var (
	cfgFile    string
	cfgBackend string
	debug      bool
	input      string
	lineID     string

	epsilon       float64
	distanceUnit  string
	elevationUnit string
	topN          int
	breakAt       []float64
	sizeChanges   bool
	features      bool
	output        string
	format        string

	application *app.App
	formatter   *responseformat.Formatter
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tlprofile",
		Short:   "Simplify pipeline elevation profiles and split them into transfer-line pipes",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgData, err := loadConfig(cfgFile, cfgBackend)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfgData)

			f, err := responseformat.ParseFormat(format)
			if err != nil {
				return err
			}
			formatter = responseformat.NewFormatter(f)

			if err := log.Init(debug || cfgData.Log.Debug, cfgData.Log.File); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			application, err = app.New(cfgData, log.GetSugaredLogger())
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Sync()
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration source (YAML file or SQLite database); defaults apply when empty")
	flags.StringVar(&cfgBackend, "config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	flags.BoolVar(&debug, "debug", false, "Turn on debugging output")
	flags.StringVarP(&input, "input", "i", "", "Profile CSV to analyze")
	flags.StringVarP(&lineID, "line", "l", "", "Line identifier used for per-line settings and caching (defaults to the input file name)")
	flags.Float64VarP(&epsilon, "epsilon", "e", 0, "Simplification tolerance in the elevation unit")
	flags.StringVar(&distanceUnit, "distance-unit", "", "Display distance unit: km, mi or m")
	flags.StringVar(&elevationUnit, "elevation-unit", "", "Display elevation unit: m or ft")
	flags.Float64SliceVar(&breakAt, "break-at", nil, "Distances (in the distance unit) to split pipes at")
	flags.BoolVar(&sizeChanges, "size-changes", false, "Split pipes at detected pipe size changes")
	flags.BoolVar(&features, "features", false, "Split pipes at every valve and station")
	flags.StringVarP(&format, "format", "f", "text", "Output format: text, json or msgpack")
	_ = rootCmd.MarkPersistentFlagRequired("input")

	rootCmd.AddCommand(newSimplifyCmd(), newDeviationsCmd(), newMarkersCmd(), newExportCmd())
	return rootCmd
}

func newSimplifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simplify",
		Short: "Print the simplified profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, opts, err := analyze(cmd)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if formatter.Structured() {
				return formatter.Write(w, simplifyReport(res, opts))
			}

			fmt.Fprintf(w, "# %s\n", simplify.Summary(res.Kept))
			fmt.Fprintf(w, "orig_row_id,distance_%s,elevation_%s\n", opts.DistanceUnit, opts.ElevationUnit)
			for _, pt := range res.Simplified {
				fmt.Fprintf(w, "%d,%.5f,%.3f\n", pt.OrigRowID,
					opts.DistanceUnit.FromMeters(pt.Distance), opts.ElevationUnit.FromMeters(pt.Elevation))
			}
			return nil
		},
	}
}

func newDeviationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deviations",
		Short: "Print the largest elevation errors introduced by simplification",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, opts, err := analyze(cmd)
			if err != nil {
				return err
			}

			if formatter.Structured() {
				return formatter.Write(cmd.OutOrStdout(), deviationsReport(res, opts))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "RANK\tINDEX\tDISTANCE (%s)\tDEVIATION (%s)\n", opts.DistanceUnit, opts.ElevationUnit)
			for i, d := range res.Deviations {
				fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.3f\n", i+1, d.Index,
					opts.DistanceUnit.FromMeters(res.Original[d.Index].Distance),
					opts.ElevationUnit.FromMeters(d.Value))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&topN, "top", "n", 0, "Number of deviations to report")
	return cmd
}

func newMarkersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "markers",
		Short: "Print detected pipe size changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			sizeChanges = true
			res, opts, err := analyze(cmd)
			if err != nil {
				return err
			}

			if formatter.Structured() {
				return formatter.Write(cmd.OutOrStdout(), markersReport(res, opts))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "INDEX\tDISTANCE (%s)\tELEVATION (%s)\tFROM (in)\tTO (in)\n", opts.DistanceUnit, opts.ElevationUnit)
			for _, m := range res.Markers {
				fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%g\t%g\n", m.Index,
					opts.DistanceUnit.FromMeters(m.Distance), opts.ElevationUnit.FromMeters(m.Elevation),
					m.PrevSize, m.CurrSize)
			}
			return tw.Flush()
		},
	}
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the pipes, segment elevation files and WT profile to a zip bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			if output == "" {
				output = opts.LineID + ".zip"
			}
			return application.Run(cmd.Context(), input, output, opts)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Bundle path (defaults to <line>.zip)")
	return cmd
}

func analyze(cmd *cobra.Command) (*engine.Result, engine.Options, error) {
	opts, err := options(cmd)
	if err != nil {
		return nil, opts, err
	}
	res, err := application.Analyze(cmd.Context(), input, opts)
	return res, opts, err
}

// options resolves engine options from config, then applies command line overrides
func options(cmd *cobra.Command) (engine.Options, error) {
	id := lineID
	if id == "" {
		id = trimExt(filepath.Base(input))
	}

	opts, err := application.Options(id)
	if err != nil {
		return opts, err
	}

	flags := cmd.Flags()
	if flags.Changed("epsilon") {
		opts.Epsilon = epsilon
	}
	if flags.Changed("top") {
		opts.TopN = topN
	}
	if flags.Changed("break-at") {
		opts.BreakAt = breakAt
	}
	if sizeChanges {
		opts.UseSizeChanges = true
	}
	opts.UseFeatures = features
	return opts, nil
}

// applyFlags copies unit flags into the loaded configuration so they are validated with it
func applyFlags(cmd *cobra.Command, cfgData *config.ConfigData) {
	flags := cmd.Flags()
	if flags.Changed("distance-unit") {
		cfgData.Units.Distance = distanceUnit
	}
	if flags.Changed("elevation-unit") {
		cfgData.Units.Elevation = elevationUnit
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	if cfgFile == "" {
		return config.Defaults(), nil
	}
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config. Did you pass the --config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// run executes the root command with args, for tests
func run(ctx context.Context, args []string, out io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd.ExecuteContext(ctx)
}
