package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as int, or the default value if not set
// or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvFloat64 returns the value of the environment variable with the given
// key (prefixed with EnvPrefix) parsed as float64, or the default value if not
// set or invalid.
func getEnvFloat64(key string, defaultVal float64) float64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as bool, or the default value if not set.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as time.Duration, or the default value if not
// set or invalid.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// envApplies reports whether the named flag is registered in fs and was not
// set explicitly, in which case the environment may override it.
func envApplies(fs *pflag.FlagSet, name string) bool {
	return fs.Lookup(name) != nil && !fs.Changed(name)
}

// ApplyEnvOverrides applies environment variable values to the configuration
// for every flag of fs that was not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
// Flags that fs does not define are left untouched.
//
// Supported environment variables:
//   - FRACTREE_TRUNK_LENGTH, FRACTREE_RATIO, FRACTREE_ANGLE, FRACTREE_MIN_LENGTH (float)
//   - FRACTREE_WORKERS, FRACTREE_SPLIT_DEPTH, FRACTREE_MAX_BRANCHES (int)
//   - FRACTREE_ENCODING, FRACTREE_MERGE_ORDER, FRACTREE_OUTPUT, FRACTREE_PORT (string)
//   - FRACTREE_TIMEOUT (duration: "5m", "30s")
//   - FRACTREE_QUIET, FRACTREE_NO_COLOR, FRACTREE_VERBOSE, FRACTREE_LOG_JSON,
//     FRACTREE_JSON, FRACTREE_ITERATIONS (bool: true/false, 1/0, yes/no)
func ApplyEnvOverrides(config *AppConfig, fs *pflag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *pflag.FlagSet) {
	floats := []struct {
		flag, env string
		dst       *float64
	}{
		{"trunk-length", "TRUNK_LENGTH", &config.TrunkLength},
		{"ratio", "RATIO", &config.Ratio},
		{"angle", "ANGLE", &config.BranchAngle},
		{"min-length", "MIN_LENGTH", &config.MinLength},
	}
	for _, f := range floats {
		if envApplies(fs, f.flag) {
			*f.dst = getEnvFloat64(f.env, *f.dst)
		}
	}

	ints := []struct {
		flag, env string
		dst       *int
	}{
		{"workers", "WORKERS", &config.Workers},
		{"split-depth", "SPLIT_DEPTH", &config.SplitDepth},
		{"max-branches", "MAX_BRANCHES", &config.MaxBranches},
	}
	for _, f := range ints {
		if envApplies(fs, f.flag) {
			*f.dst = getEnvInt(f.env, *f.dst)
		}
	}

	if envApplies(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *pflag.FlagSet) {
	if envApplies(fs, "encoding") {
		config.Encoding = getEnvString("ENCODING", config.Encoding)
	}
	if envApplies(fs, "merge-order") {
		config.MergeOrder = getEnvString("MERGE_ORDER", config.MergeOrder)
	}
	if envApplies(fs, "output") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
	if envApplies(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *pflag.FlagSet) {
	bools := []struct {
		flag, env string
		dst       *bool
	}{
		{"quiet", "QUIET", &config.Quiet},
		{"no-color", "NO_COLOR", &config.NoColor},
		{"verbose", "VERBOSE", &config.Verbose},
		{"log-json", "LOG_JSON", &config.LogJSON},
		{"json", "JSON", &config.JSONOutput},
		{"iterations", "ITERATIONS", &config.Iterations},
	}
	for _, b := range bools {
		if envApplies(fs, b.flag) {
			*b.dst = getEnvBool(b.env, *b.dst)
		}
	}
}
