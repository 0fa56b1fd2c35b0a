package bench

import (
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/cpu"

	"github.com/agbru/fractree/internal/config"
	"github.com/agbru/fractree/pkg/models"
)

// NewMachineProfile describes the current host for a session. Every
// profile gets a fresh session id.
func NewMachineProfile(plan config.BenchPlan, scaling config.Scaling) models.MachineProfile {
	return models.MachineProfile{
		SessionID:  uuid.NewString(),
		StartedAt:  time.Now().UTC().Format(time.RFC3339),
		Scaling:    string(scaling),
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		GoVersion:  runtime.Version(),
		Features:   cpuFeatures(),
		Plan:       plan.String(),
	}
}

// cpuFeatures lists the SIMD extensions relevant to floating-point
// throughput that the CPU reports.
func cpuFeatures() []string {
	flags := []struct {
		name string
		has  bool
	}{
		{"sse4.2", cpu.X86.HasSSE42},
		{"avx", cpu.X86.HasAVX},
		{"avx2", cpu.X86.HasAVX2},
		{"fma", cpu.X86.HasFMA},
		{"avx512f", cpu.X86.HasAVX512F},
		{"asimd", cpu.ARM64.HasASIMD},
		{"sve", cpu.ARM64.HasSVE},
	}
	features := []string{}
	for _, f := range flags {
		if f.has {
			features = append(features, f.name)
		}
	}
	return features
}
