package render

import (
	"context"
	"errors"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/agbru/fractree/internal/cli"
	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/pkg/models"
)

func smallDocument(t *testing.T) models.ResultDocument {
	t.Helper()
	cfg := fractal.Config{TrunkLength: 100, LengthRatio: 0.5, BranchAngleDegrees: 30, MinLength: 1, Workers: 2}
	res, err := fractal.NewGenerator().Generate(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return cli.BuildResultDocument(res, true)
}

func smallOptions() Options {
	return Options{Width: 120, Height: 120, Margin: 10}
}

func TestFrames(t *testing.T) {
	t.Parallel()
	doc := smallDocument(t)
	dir := filepath.Join(t.TempDir(), "frames")

	var seen []int
	frames, err := Frames(context.Background(), doc, dir, smallOptions(), func(f Frame) { seen = append(seen, f.Iteration) })
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 7 || len(seen) != 7 {
		t.Fatalf("got %d frames and %d callbacks, want 7", len(frames), len(seen))
	}
	last := frames[6]
	if last.Path != filepath.Join(dir, "frame_006.png") || last.Branches != 127 {
		t.Errorf("unexpected last frame %+v", last)
	}

	f, err := os.Open(frames[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 120 {
		t.Errorf("frame size %v", b)
	}
	r, g, b, _ := img.At(0, 119).RGBA()
	if r>>8 != 15 || g>>8 != 15 || b>>8 != 20 {
		t.Errorf("corner pixel = (%d,%d,%d), want the background", r>>8, g>>8, b>>8)
	}
}

func TestFramesErrors(t *testing.T) {
	t.Parallel()

	t.Run("no iterations", func(t *testing.T) {
		t.Parallel()
		_, err := Frames(context.Background(), models.ResultDocument{}, t.TempDir(), smallOptions(), nil)
		if !errors.Is(err, ErrNoIterations) {
			t.Errorf("expected ErrNoIterations, got %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		frames, err := Frames(ctx, smallDocument(t), t.TempDir(), smallOptions(), nil)
		if !errors.Is(err, context.Canceled) || len(frames) != 0 {
			t.Errorf("got %d frames, err %v", len(frames), err)
		}
	})

	t.Run("unwritable directory", func(t *testing.T) {
		t.Parallel()
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Frames(context.Background(), smallDocument(t), filepath.Join(blocker, "frames"), smallOptions(), nil)
		var serr apperrors.SerializationError
		if !errors.As(err, &serr) {
			t.Errorf("expected SerializationError, got %v", err)
		}
	})
}

func TestComputeBounds(t *testing.T) {
	t.Parallel()
	if got := ComputeBounds(nil); got != fallbackBounds {
		t.Errorf("empty bounds = %+v", got)
	}
	got := ComputeBounds([][4]float64{{0, 0, 0, 100}, {-50, 100, 50, 100}})
	want := Bounds{XMin: -56, XMax: 56, YMin: -6, YMax: 106}
	for _, pair := range [][2]float64{{got.XMin, want.XMin}, {got.XMax, want.XMax}, {got.YMin, want.YMin}, {got.YMax, want.YMax}} {
		if math.Abs(pair[0]-pair[1]) > 1e-9 {
			t.Errorf("ComputeBounds = %+v, want %+v", got, want)
			break
		}
	}
}

func TestBranchColor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		seg  [4]float64
		want color.RGBA
	}{
		{"trunk", [4]float64{0, 0, 0, 100}, color.RGBA{139, 90, 43, 255}},
		{"point", [4]float64{5, 5, 5, 5}, color.RGBA{180, 220, 100, 255}},
		{"longer than trunk", [4]float64{0, 0, 0, 300}, color.RGBA{139, 90, 43, 255}},
		{"half", [4]float64{0, 0, 50, 0}, color.RGBA{159, 155, 71, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := BranchColor(tt.seg, 100); got != tt.want {
				t.Errorf("BranchColor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrameName(t *testing.T) {
	t.Parallel()
	if FrameName(7) != "frame_007.png" || FrameName(123) != "frame_123.png" {
		t.Error("unexpected frame names")
	}
}
