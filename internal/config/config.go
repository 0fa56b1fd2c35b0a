// Package config provides the configuration management for the fractree
// application. It defines the configuration structure, binds it to the
// command-line flags of each command, applies environment overrides, and
// validates the resulting values.
package config

import (
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/fractal"
)

const (
	// EnvPrefix is the prefix for all environment variables used by fractree.
	EnvPrefix = "FRACTREE_"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultTrunkLength is the length of the depth-0 branch.
	DefaultTrunkLength = 100.0
	// DefaultRatio is the child/parent length ratio.
	DefaultRatio = 0.67
	// DefaultBranchAngle is the branching angle in degrees.
	DefaultBranchAngle = 30.0
	// DefaultMinLength is the emission threshold.
	DefaultMinLength = 0.335
	// DefaultTimeout is the default generation timeout.
	DefaultTimeout = 5 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultMaxBranches bounds the tree size accepted by the HTTP API.
	DefaultMaxBranches = 1 << 20
	// DefaultEncoding is the default worker encoding.
	DefaultEncoding = "packed"
	// DefaultMergeOrder is the default merge layout.
	DefaultMergeOrder = "upper-first"
)

// AppConfig aggregates the application's configuration parameters, parsed from
// command-line flags and FRACTREE_* environment variables.
type AppConfig struct {
	// TrunkLength is the length of the trunk.
	TrunkLength float64
	// Ratio is the length ratio between a child and its parent.
	Ratio float64
	// BranchAngle is the branching angle in degrees.
	BranchAngle float64
	// MinLength is the length below which branches are not emitted.
	MinLength float64
	// Workers is the parallel worker count; 0 selects the available parallelism.
	Workers int
	// SplitDepth forces the partition depth; negative values let the planner decide.
	SplitDepth int
	// Encoding selects the worker encoding ("packed" or "fixed").
	Encoding string
	// MergeOrder selects the merge layout ("upper-first" or "preorder").
	MergeOrder string
	// Timeout sets the maximum duration of a run.
	Timeout time.Duration

	// OutputFile, if set, saves the result document to this path.
	OutputFile string
	// Iterations includes the per-iteration branch lists in the saved document.
	Iterations bool
	// Verify runs sequential and parallel generation and compares them.
	Verify bool
	// Sequential runs the single-goroutine generator only.
	Sequential bool
	// JSONOutput prints the run summary as JSON.
	JSONOutput bool

	// Quiet suppresses banners and informational output.
	Quiet bool
	// NoColor disables colored output. Also respects NO_COLOR.
	NoColor bool
	// Verbose enables debug logging.
	Verbose bool
	// LogJSON writes logs as JSON lines.
	LogJSON bool

	// Port specifies the port to listen on in server mode.
	Port string
	// MaxBranches bounds the predicted tree size accepted by the server.
	MaxBranches int
}

// Default returns a configuration populated with the default values.
func Default() AppConfig {
	return AppConfig{
		TrunkLength: DefaultTrunkLength,
		Ratio:       DefaultRatio,
		BranchAngle: DefaultBranchAngle,
		MinLength:   DefaultMinLength,
		SplitDepth:  -1,
		Encoding:    DefaultEncoding,
		MergeOrder:  DefaultMergeOrder,
		Timeout:     DefaultTimeout,
		Port:        DefaultPort,
		MaxBranches: DefaultMaxBranches,
	}
}

// BindGlobalFlags registers the flags shared by every command.
func (c *AppConfig) BindGlobalFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.Quiet, "quiet", "q", c.Quiet, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "Disable colored output (also respects NO_COLOR env var).")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Enable debug logging.")
	fs.BoolVar(&c.LogJSON, "log-json", c.LogJSON, "Write logs as JSON lines.")
}

// BindGenerationFlags registers the tree parameters and engine tuning flags.
func (c *AppConfig) BindGenerationFlags(fs *pflag.FlagSet) {
	fs.Float64Var(&c.TrunkLength, "trunk-length", c.TrunkLength, "Length of the trunk.")
	fs.Float64Var(&c.Ratio, "ratio", c.Ratio, "Length ratio between a child and its parent, in (0, 1).")
	fs.Float64Var(&c.BranchAngle, "angle", c.BranchAngle, "Branching angle in degrees.")
	fs.Float64Var(&c.MinLength, "min-length", c.MinLength, "Branches shorter than this are not emitted.")
	fs.IntVarP(&c.Workers, "workers", "w", c.Workers, "Number of parallel workers (0 = available parallelism).")
	fs.IntVar(&c.SplitDepth, "split-depth", c.SplitDepth, "Force the partition depth (negative = planned).")
	fs.StringVar(&c.Encoding, "encoding", c.Encoding, "Worker encoding: packed or fixed.")
	fs.StringVar(&c.MergeOrder, "merge-order", c.MergeOrder, "Merge layout: upper-first or preorder.")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Maximum execution time for a run.")
}

// BindRunFlags registers the flags of the run command.
func (c *AppConfig) BindRunFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.OutputFile, "output", "o", c.OutputFile, "Save the result document to this path.")
	fs.BoolVar(&c.Iterations, "iterations", c.Iterations, "Include per-iteration branches in the saved document.")
	fs.BoolVar(&c.Verify, "verify", c.Verify, "Run sequential and parallel generation and compare them.")
	fs.BoolVar(&c.Sequential, "sequential", c.Sequential, "Run the sequential generator only.")
	fs.BoolVar(&c.JSONOutput, "json", c.JSONOutput, "Output the run summary in JSON format.")
}

// BindServerFlags registers the flags of the serve command.
func (c *AppConfig) BindServerFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Port, "port", c.Port, "Port to listen on in server mode.")
	fs.IntVar(&c.MaxBranches, "max-branches", c.MaxBranches, "Reject requests predicted to exceed this many branches.")
}

// Generation returns the engine configuration described by c.
func (c AppConfig) Generation() fractal.Config {
	return fractal.Config{
		TrunkLength:        c.TrunkLength,
		LengthRatio:        c.Ratio,
		BranchAngleDegrees: c.BranchAngle,
		MinLength:          c.MinLength,
		Workers:            c.Workers,
	}
}

// GeneratorOptions translates the engine tuning settings into generator
// options.
//
// Returns:
//   - []fractal.Option: Options for fractal.NewGenerator.
//   - error: A ConfigError for an unknown encoding or merge order.
func (c AppConfig) GeneratorOptions() ([]fractal.Option, error) {
	enc, err := fractal.ParseEncoding(c.Encoding)
	if err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}
	order, err := fractal.ParseMergeOrder(c.MergeOrder)
	if err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}
	return []fractal.Option{
		fractal.WithEncoding(enc),
		fractal.WithMergeOrder(order),
		fractal.WithSplitDepth(c.SplitDepth),
	}, nil
}

// Validate checks the semantic consistency of the configuration parameters.
// Tree parameters are checked by the engine's own rules so that out-of-range
// values are reported as InvalidParametersError before any run starts.
//
// Returns:
//   - error: A ConfigError or InvalidParametersError if the configuration is
//     invalid, nil otherwise.
func (c AppConfig) Validate() error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Verify && c.Sequential {
		return apperrors.NewConfigError("--verify and --sequential are mutually exclusive")
	}
	if c.MaxBranches < 1 {
		return apperrors.NewConfigError("max branches must be at least 1: %d", c.MaxBranches)
	}
	if _, err := c.GeneratorOptions(); err != nil {
		return err
	}
	return c.Generation().Validate()
}
