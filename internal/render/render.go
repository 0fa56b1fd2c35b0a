// Package render draws the iterations of a result document as PNG frames.
package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/pkg/models"
)

const (
	defaultSize   = 900
	defaultMargin = 30
	boundsMargin  = 0.06
	captionHeight = 24
)

var (
	background   = color.RGBA{R: 15, G: 15, B: 20, A: 255}
	captionColor = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	trunkColor   = [3]float64{139, 90, 43}
	leafColor    = [3]float64{180, 220, 100}
)

// ErrNoIterations is returned for a document saved without iterations.
var ErrNoIterations = errors.New("result document has no iterations; rerun with --iterations")

// Bounds is the world-space rectangle mapped onto the plot area.
type Bounds struct {
	XMin, XMax, YMin, YMax float64
}

// fallbackBounds frames a default tree when no branch is available.
var fallbackBounds = Bounds{XMin: -120, XMax: 120, YMin: -10, YMax: 120}

// Options controls the frame geometry.
type Options struct {
	Width, Height int
	// Margin is the pixel border around the plot area.
	Margin float64
}

// DefaultOptions returns 900x900 frames with a 30 pixel margin.
func DefaultOptions() Options {
	return Options{Width: defaultSize, Height: defaultSize, Margin: defaultMargin}
}

// Frame describes one written image.
type Frame struct {
	Iteration int
	Path      string
	Branches  int
}

// FrameName is the file name of the frame for an iteration.
func FrameName(iteration int) string {
	return fmt.Sprintf("frame_%03d.png", iteration)
}

// ComputeBounds returns the extent of branches grown by 6% on each axis, or
// the fallback bounds when branches is empty.
func ComputeBounds(branches [][4]float64) Bounds {
	if len(branches) == 0 {
		return fallbackBounds
	}
	b := Bounds{XMin: math.MaxFloat64, XMax: -math.MaxFloat64, YMin: math.MaxFloat64, YMax: -math.MaxFloat64}
	for _, s := range branches {
		b.XMin = math.Min(b.XMin, math.Min(s[0], s[2]))
		b.XMax = math.Max(b.XMax, math.Max(s[0], s[2]))
		b.YMin = math.Min(b.YMin, math.Min(s[1], s[3]))
		b.YMax = math.Max(b.YMax, math.Max(s[1], s[3]))
	}
	xm := (b.XMax - b.XMin) * boundsMargin
	ym := (b.YMax - b.YMin) * boundsMargin
	return Bounds{XMin: b.XMin - xm, XMax: b.XMax + xm, YMin: b.YMin - ym, YMax: b.YMax + ym}
}

// BranchColor interpolates from bark brown for the trunk to leaf green for
// vanishing branches, by length relative to the trunk.
func BranchColor(s [4]float64, trunkLength float64) color.RGBA {
	length := math.Hypot(s[2]-s[0], s[3]-s[1])
	t := 1.0
	if trunkLength > 0 {
		t = math.Max(0, math.Min(1, 1-length/trunkLength))
	}
	lerp := func(i int) uint8 { return uint8(trunkColor[i] + (leafColor[i]-trunkColor[i])*t) }
	return color.RGBA{R: lerp(0), G: lerp(1), B: lerp(2), A: 255}
}

// Frames writes one PNG per iteration of doc into dir, all sharing the
// bounds of the last iteration. onFrame, when non-nil, is called after each
// frame is saved. Cancellation is checked between frames.
//
// Parameters:
//   - ctx: Cancels the remaining frames.
//   - doc: A result document saved with iterations.
//   - dir: The output directory, created if needed.
//   - opts: Frame geometry.
//   - onFrame: Optional per-frame callback.
//
// Returns:
//   - []Frame: The frames written so far.
//   - error: ErrNoIterations, a context error, or a SerializationError.
func Frames(ctx context.Context, doc models.ResultDocument, dir string, opts Options, onFrame func(Frame)) ([]Frame, error) {
	if len(doc.Iterations) == 0 {
		return nil, ErrNoIterations
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.SerializationError{Path: dir, Cause: err}
	}
	bounds := ComputeBounds(doc.Iterations[len(doc.Iterations)-1].Branches)

	frames := make([]Frame, 0, len(doc.Iterations))
	for _, it := range doc.Iterations {
		if err := ctx.Err(); err != nil {
			return frames, err
		}
		dc := Draw(it, doc.MaxDepth, bounds, doc.Parameters.TrunkLength, opts)
		path := filepath.Join(dir, FrameName(it.Iteration))
		if err := dc.SavePNG(path); err != nil {
			return frames, apperrors.SerializationError{Path: path, Cause: err}
		}
		f := Frame{Iteration: it.Iteration, Path: path, Branches: it.BranchCount}
		frames = append(frames, f)
		if onFrame != nil {
			onFrame(f)
		}
	}
	return frames, nil
}

// Draw renders a single iteration onto a new context.
func Draw(it models.IterationRecord, maxDepth int, b Bounds, trunkLength float64, opts Options) *gg.Context {
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(background)
	dc.Clear()

	dc.SetColor(captionColor)
	dc.DrawStringAnchored(fmt.Sprintf("Fractal Tree  |  Iteration %d/%d", it.Iteration, maxDepth),
		float64(opts.Width)/2, opts.Margin/2+captionHeight/2, 0.5, 0.5)

	left, top := opts.Margin, opts.Margin+captionHeight
	w := float64(opts.Width) - 2*opts.Margin
	h := float64(opts.Height) - 2*opts.Margin - captionHeight
	spanX, spanY := b.XMax-b.XMin, b.YMax-b.YMin
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	px := func(x float64) float64 { return left + (x-b.XMin)/spanX*w }
	py := func(y float64) float64 { return top + h - (y-b.YMin)/spanY*h }

	dc.SetLineWidth(1)
	for _, s := range it.Branches {
		dc.SetColor(BranchColor(s, trunkLength))
		dc.DrawLine(px(s[0]), py(s[1]), px(s[2]), py(s[3]))
		dc.Stroke()
	}
	return dc
}
