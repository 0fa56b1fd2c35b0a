package app

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestPrintVersion(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintVersion(&buf)
	out := buf.String()
	for _, want := range []string{"fractree " + Version, "Commit:", "Built:", "Go version: " + runtime.Version(), "OS/Arch:"} {
		if !strings.Contains(out, want) {
			t.Errorf("PrintVersion output lacks %q", want)
		}
	}
}

func TestGetVersionInfo(t *testing.T) {
	t.Parallel()
	info := GetVersionInfo()
	want := VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if info != want {
		t.Errorf("GetVersionInfo() = %+v, want %+v", info, want)
	}
}
