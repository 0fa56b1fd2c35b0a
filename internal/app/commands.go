package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agbru/fractree/internal/bench"
	"github.com/agbru/fractree/internal/cli"
	"github.com/agbru/fractree/internal/config"
	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/internal/orchestration"
	"github.com/agbru/fractree/internal/render"
	"github.com/agbru/fractree/internal/report"
	"github.com/agbru/fractree/internal/server"
	"github.com/agbru/fractree/internal/service"
	"github.com/agbru/fractree/pkg/models"
)

const (
	// DefaultRenderMinLength keeps rendered trees legible.
	DefaultRenderMinLength = 2.0
	// DefaultFramesDir is where rendered frames are saved.
	DefaultFramesDir = "frames"
	// visualizationFile is the document saved next to generated frames.
	visualizationFile = "visualization.json"
)

type benchFlags struct {
	planPath string
	outDir   string
	noReport bool
}

type reportFlags struct {
	scaling  string
	json     bool
	tableCSV string
}

type renderFlags struct {
	input  string
	outDir string
}

func (a *Application) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a fractal tree (default command)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd.Context())
		},
	}
	a.Config.BindGenerationFlags(cmd.Flags())
	a.Config.BindRunFlags(cmd.Flags())
	return cmd
}

// runGenerate executes one generation, a verification, or a sequential run.
func (a *Application) runGenerate(ctx context.Context) error {
	cfg := a.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts, err := cfg.GeneratorOptions()
	if err != nil {
		return err
	}
	keep := cfg.Verify || cfg.Iterations || cfg.JSONOutput
	gen := fractal.NewGenerator(append(opts, fractal.WithKeepBranches(keep), fractal.WithLogger(a.Logger))...)

	ctx, cancel := SetupContext(ctx, cfg.Timeout)
	defer cancel()

	if cfg.Verify {
		outcomes := orchestration.ExecuteVerification(ctx, gen, cfg.Generation())
		return exitWith(orchestration.AnalyzeVerification(outcomes, a.Out))
	}

	start := time.Now()
	var res *fractal.Result
	if cfg.Sequential {
		res, err = gen.GenerateSequential(ctx, cfg.Generation())
	} else {
		res, err = gen.Generate(ctx, cfg.Generation())
	}
	if err != nil {
		return exitWith(apperrors.HandleRunError(err, time.Since(start), a.Out, cli.ColorProvider{}))
	}

	if cfg.JSONOutput {
		if err := cli.WriteJSON(a.Out, service.Summarize(res)); err != nil {
			return err
		}
		if cfg.OutputFile != "" {
			if err := cli.WriteResultDocument(cfg.OutputFile, cli.BuildResultDocument(res, cfg.Iterations)); err != nil {
				return exitWith(apperrors.HandleRunError(err, 0, a.ErrWriter, cli.ColorProvider{}))
			}
		}
		return nil
	}

	err = cli.DisplayRun(a.Out, res, cli.OutputConfig{
		OutputFile: cfg.OutputFile,
		Iterations: cfg.Iterations,
		Quiet:      cfg.Quiet,
	})
	if err != nil {
		return exitWith(apperrors.HandleRunError(err, 0, a.Out, cli.ColorProvider{}))
	}
	return nil
}

func (a *Application) newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench strong|weak",
		Short: "Run a strong or weak scaling benchmark session",
		Long: `bench runs every core count of the plan the configured number of times,
one configuration at a time, and saves <scaling>.csv and
<scaling>_machine.json in the output directory. Strong scaling keeps the tree
fixed; weak scaling lowers min_length so the tree grows with the core count.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBench(cmd.Context(), args[0])
		},
	}
	cmd.Flags().StringVar(&a.bench.planPath, "plan", "", "TOML bench plan (default: built-in plan).")
	cmd.Flags().StringVar(&a.bench.outDir, "out-dir", "", "Directory for the session files (default: the plan's output_dir).")
	cmd.Flags().BoolVar(&a.bench.noReport, "no-report", false, "Skip the scaling report after the session.")
	return cmd
}

func (a *Application) runBench(ctx context.Context, arg string) error {
	scaling, err := config.ParseScaling(arg)
	if err != nil {
		return err
	}
	plan, err := config.LoadBenchPlan(a.bench.planPath)
	if err != nil {
		return err
	}
	profile := bench.NewMachineProfile(plan, scaling)
	if !a.Config.Quiet {
		cli.PrintHeader(a.Out, strings.ToUpper(string(scaling[:1]))+string(scaling[1:])+" Scaling Benchmark")
		fmt.Fprintf(a.Out, "Session: %s\nPlan: %s\n", profile.SessionID, plan)
	}

	gen := fractal.NewGenerator(fractal.WithKeepBranches(false), fractal.WithLogger(a.Logger))
	runner := bench.NewRunner(gen,
		bench.WithLogger(a.Logger),
		bench.WithProgress(func(total int) bench.ProgressReporter {
			return cli.NewProgress(a.Out, total, !a.Config.Quiet)
		}),
	)
	start := time.Now()
	rows, err := runner.Run(ctx, plan, scaling)
	if err != nil {
		return exitWith(apperrors.HandleRunError(err, time.Since(start), a.Out, cli.ColorProvider{}))
	}

	dir := a.bench.outDir
	if dir == "" {
		dir = plan.OutputDir
	}
	if dir == "" {
		dir = "."
	}
	session, err := bench.SaveSession(dir, rows, profile)
	if err != nil {
		return exitWith(apperrors.HandleRunError(err, 0, a.Out, cli.ColorProvider{}))
	}
	if !a.Config.Quiet {
		fmt.Fprintf(a.Out, "\nResults saved to: %s\nMachine profile saved to: %s\n", session.CSVPath, session.ProfilePath)
	}
	if a.bench.noReport || a.Config.Quiet {
		return nil
	}
	r, err := report.Analyze(rows, scaling)
	if err != nil {
		return err
	}
	return r.WriteTable(a.Out)
}

func (a *Application) newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <session.csv>",
		Short: "Summarize a benchmark session and fit the sequential fraction",
		Args:  exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.runReport(args[0])
		},
	}
	cmd.Flags().StringVar(&a.report.scaling, "scaling", "", "strong or weak (default: inferred from the file name).")
	cmd.Flags().BoolVar(&a.report.json, "json", false, "Output the report in JSON format.")
	cmd.Flags().StringVar(&a.report.tableCSV, "table-csv", "", "Also save the per-core table as CSV to this path.")
	return cmd
}

func (a *Application) runReport(path string) error {
	scaling, err := a.reportScaling(path)
	if err != nil {
		return err
	}
	rows, err := bench.LoadCSV(path)
	if err != nil {
		return apperrors.SerializationError{Path: path, Cause: err}
	}
	r, err := report.Analyze(rows, scaling)
	if err != nil {
		return err
	}

	if a.report.json {
		err = r.WriteJSON(a.Out)
	} else {
		err = r.WriteTable(a.Out)
	}
	if err != nil {
		return err
	}
	if a.report.tableCSV != "" {
		if err := writeTableCSV(a.report.tableCSV, r); err != nil {
			return err
		}
		if !a.report.json && !a.Config.Quiet {
			fmt.Fprintf(a.Out, "\nTable saved to: %s\n", a.report.tableCSV)
		}
	}
	return nil
}

// reportScaling resolves the scaling mode from the flag, then from a file
// name such as "weak.csv".
func (a *Application) reportScaling(path string) (config.Scaling, error) {
	if a.report.scaling != "" {
		return config.ParseScaling(a.report.scaling)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if s, err := config.ParseScaling(base); err == nil {
		return s, nil
	}
	return config.ScalingStrong, nil
}

func writeTableCSV(path string, r report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.SerializationError{Path: path, Cause: err}
	}
	werr := r.WriteCSV(f)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return apperrors.SerializationError{Path: path, Cause: werr}
	}
	return nil
}

func (a *Application) newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one PNG frame per iteration of a tree",
		Long: `render draws frame_000.png, frame_001.png, ... from a result document
saved with --iterations. Without --input it generates the tree first and
saves the document next to the frames.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRender(cmd.Context())
		},
	}
	a.renderConfig.BindGenerationFlags(cmd.Flags())
	cmd.Flags().StringVarP(&a.render.input, "input", "i", "", "Result document to render (default: generate one).")
	cmd.Flags().StringVar(&a.render.outDir, "out-dir", DefaultFramesDir, "Directory for the frames.")
	return cmd
}

func (a *Application) runRender(ctx context.Context) error {
	fmt.Fprintln(a.Out, "=== Fractal Tree Visualizer ===")
	doc, err := a.renderDocument(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Loaded: %d branches, %d iterations (max depth %d)\n",
		doc.TotalBranches, len(doc.Iterations), doc.MaxDepth)
	fmt.Fprintf(a.Out, "\nSaving %d frames to: %s\n\n", len(doc.Iterations), a.render.outDir)

	frames, err := render.Frames(ctx, doc, a.render.outDir, render.DefaultOptions(), func(f render.Frame) {
		fmt.Fprintf(a.Out, "  %s  (%s branches)\n", filepath.Base(f.Path), cli.FormatCount(f.Branches))
	})
	if err != nil {
		return exitWith(apperrors.HandleRunError(err, 0, a.Out, cli.ColorProvider{}))
	}
	fmt.Fprintf(a.Out, "\nDone! %d frames saved.\n", len(frames))
	return nil
}

// renderDocument loads --input or generates a tree with the render
// configuration and saves it in the frames directory.
func (a *Application) renderDocument(ctx context.Context) (doc models.ResultDocument, err error) {
	if a.render.input != "" {
		doc, err = cli.ReadResultDocument(a.render.input)
		if err != nil {
			return doc, apperrors.SerializationError{Path: a.render.input, Cause: err}
		}
		return doc, nil
	}

	cfg := a.renderConfig
	if err := cfg.Validate(); err != nil {
		return doc, err
	}
	cli.PrintParams(a.Out, cfg.Generation())
	opts, err := cfg.GeneratorOptions()
	if err != nil {
		return doc, err
	}
	ctx, cancel := SetupContext(ctx, cfg.Timeout)
	defer cancel()
	res, err := fractal.NewGenerator(append(opts, fractal.WithLogger(a.Logger))...).Generate(ctx, cfg.Generation())
	if err != nil {
		return doc, err
	}
	fmt.Fprintf(a.Out, "Generated: %s branches, max depth %d\n", cli.FormatCount(res.TotalBranches), res.MaxDepth)

	doc = cli.BuildResultDocument(res, true)
	path := filepath.Join(a.render.outDir, visualizationFile)
	if err := cli.WriteResultDocument(path, doc); err != nil {
		return doc, err
	}
	fmt.Fprintf(a.Out, "\nSaved: %s\n", path)
	return doc, nil
}

func (a *Application) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve generations over HTTP",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.Config.Validate(); err != nil {
				return err
			}
			srv := server.NewServer(a.Config, server.WithLogger(a.Logger))
			if err := srv.Start(cmd.Context()); err != nil {
				a.Logger.Error("server error", err)
				return exitWith(apperrors.ExitErrorGeneric)
			}
			return nil
		},
	}
	a.Config.BindServerFlags(cmd.Flags())
	return cmd
}

func (a *Application) newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.versionJSON {
				enc := json.NewEncoder(a.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(GetVersionInfo())
			}
			PrintVersion(a.Out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&a.versionJSON, "json", false, "Output version information in JSON format.")
	return cmd
}
