/*
Package models defines the data structures fractree exchanges with the
outside world.

These models are used for:
  - **Result documents**: the JSON file written by `fractree run --output`
    and read back by `fractree render`.
  - **Benchmark sessions**: the CSV rows and machine profile written by
    `fractree bench` and read by `fractree report`.
  - **HTTP API**: the summary returned by `GET /generate`.
*/
package models

// ParametersRecord echoes the tree parameters of a run. BranchAngle is in
// degrees, as given on the command line.
type ParametersRecord struct {
	TrunkLength float64 `json:"trunk_length"`
	Ratio       float64 `json:"ratio"`
	BranchAngle float64 `json:"branch_angle"`
	MinLength   float64 `json:"min_length"`
}

// IterationRecord is the cumulative tree up to one depth. Each branch is
// stored as [x1, y1, x2, y2].
type IterationRecord struct {
	Iteration   int          `json:"iteration"`
	BranchCount int          `json:"branch_count"`
	Branches    [][4]float64 `json:"branches"`
}

// ResultDocument is the persisted form of a generation run.
type ResultDocument struct {
	Parameters ParametersRecord `json:"parameters"`
	// ExecutionTime is the generation wall time in seconds.
	ExecutionTime float64 `json:"execution_time"`
	TotalBranches int     `json:"total_branches"`
	MaxDepth      int     `json:"max_depth"`
	// SplitDepth and Workers describe the partitioning; a sequential run
	// reports split depth 0 and one worker.
	SplitDepth int `json:"split_depth"`
	Workers    int `json:"workers"`
	// Iterations is empty unless the run exported them.
	Iterations []IterationRecord `json:"iterations"`
}

// BenchmarkRow is one timed run of a benchmark session.
type BenchmarkRow struct {
	Cores int `json:"cores"`
	Run   int `json:"run"`
	// Time is the generation wall time in seconds.
	Time     float64 `json:"time"`
	Branches int     `json:"branches"`
}

// MachineProfile describes the host a benchmark session ran on.
type MachineProfile struct {
	SessionID  string   `json:"session_id"`
	StartedAt  string   `json:"started_at"`
	Scaling    string   `json:"scaling"`
	NumCPU     int      `json:"num_cpu"`
	GOMAXPROCS int      `json:"gomaxprocs"`
	GOOS       string   `json:"goos"`
	GOARCH     string   `json:"goarch"`
	GoVersion  string   `json:"go_version"`
	Features   []string `json:"cpu_features"`
	Plan       string   `json:"plan"`
}

// GenerateSummary is the response body of GET /generate.
type GenerateSummary struct {
	Parameters    ParametersRecord `json:"parameters"`
	Workers       int              `json:"workers"`
	SplitDepth    int              `json:"split_depth"`
	Tasks         int              `json:"tasks"`
	TotalBranches int              `json:"total_branches"`
	MaxDepth      int              `json:"max_depth"`
	Fingerprint   string           `json:"fingerprint,omitempty"`
	// ExecutionTime is the generation wall time in seconds.
	ExecutionTime float64 `json:"execution_time"`
	TaskTimeP50   float64 `json:"task_time_p50"`
	TaskTimeP99   float64 `json:"task_time_p99"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
