package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agbru/fractree/internal/cli"
	"github.com/agbru/fractree/internal/config"
	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/logging"
	"github.com/agbru/fractree/internal/ui"
)

// Application represents a fractree invocation. It owns the parsed
// configuration, the output writers and the logger shared by the commands.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Out receives command output (typically os.Stdout).
	Out io.Writer
	// ErrWriter receives logs and error reports (typically os.Stderr).
	ErrWriter io.Writer
	// Logger is built from the global flags before any command runs.
	Logger logging.Logger

	bench  benchFlags
	report reportFlags
	render renderFlags
	// renderConfig has its own defaults: frames use a coarser tree.
	renderConfig config.AppConfig
	versionJSON  bool
}

// exitError carries an exit code whose message has already been reported.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// exitWith converts a code into a command error; success maps to nil.
func exitWith(code int) error {
	if code == apperrors.ExitSuccess {
		return nil
	}
	return exitError{code: code}
}

// New creates an Application writing to out and errWriter.
func New(out, errWriter io.Writer) *Application {
	renderCfg := config.Default()
	renderCfg.MinLength = DefaultRenderMinLength
	return &Application{
		Config:       config.Default(),
		Out:          out,
		ErrWriter:    errWriter,
		Logger:       logging.NewNopLogger(),
		renderConfig: renderCfg,
	}
}

// Run parses args (without the program name), executes the selected
// command and returns the process exit code.
//
// Parameters:
//   - ctx: The context for cancellation; signals should already be wired.
//   - args: The command-line arguments, excluding the program name.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, args []string) int {
	root := a.RootCommand()
	root.SetArgs(args)
	root.SetOut(a.Out)
	root.SetErr(a.ErrWriter)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return apperrors.ExitSuccess
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return apperrors.HandleRunError(err, 0, a.ErrWriter, cli.ColorProvider{})
}

// RootCommand builds the command tree. The root command runs a generation
// when no subcommand is given.
func (a *Application) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "fractree",
		Short: "Generate fractal trees in parallel and measure how they scale",
		Long: `fractree generates binary fractal trees by partitioning the recursion
into independent subtrees, growing them on parallel workers and merging the
results into one branch collection. It also benchmarks strong and weak
scaling, reports Amdahl and Gustafson fits, renders PNG frames and serves
generations over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          noArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.NewConfigError("%v", err)
	})

	a.Config.BindGlobalFlags(root.PersistentFlags())
	a.Config.BindGenerationFlags(root.Flags())
	a.Config.BindRunFlags(root.Flags())

	root.AddCommand(
		a.newRunCmd(),
		a.newBenchCmd(),
		a.newReportCmd(),
		a.newRenderCmd(),
		a.newServeCmd(),
		a.newVersionCmd(),
	)
	return root
}

// setup applies environment overrides for the flags of the executing
// command, then initializes the theme and the logger.
func (a *Application) setup(fs *pflag.FlagSet) error {
	config.ApplyEnvOverrides(&a.Config, fs)
	config.ApplyEnvOverrides(&a.renderConfig, fs)

	theme := ui.InitTheme(a.Config.NoColor)
	a.Logger = logging.New(a.ErrWriter, logging.Options{
		JSON:    a.Config.LogJSON,
		Verbose: a.Config.Verbose,
		NoColor: theme.Name == ui.NoColorTheme.Name,
	})
	a.Logger.Debug("configuration loaded",
		logging.String("theme", theme.Name),
		logging.Int("workers", a.Config.Workers),
		logging.String("encoding", a.Config.Encoding),
	)
	return nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return apperrors.NewConfigError("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return apperrors.NewConfigError("%s accepts %d argument(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}
