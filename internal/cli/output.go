package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/internal/ui"
	"github.com/agbru/fractree/pkg/models"
)

// OutputConfig holds the presentation settings of a run.
type OutputConfig struct {
	// OutputFile is the path of the result document (empty for none).
	OutputFile string
	// Iterations includes the per-iteration branch lists in the document.
	Iterations bool
	// Quiet prints a single line suitable for scripts.
	Quiet bool
}

// BuildResultDocument converts a run into its persisted form. Iterations are
// only exported when requested and the run kept its branches.
//
// Parameters:
//   - res: The generation result.
//   - withIterations: Whether to include the cumulative per-depth branch lists.
//
// Returns:
//   - models.ResultDocument: The document, with an empty iteration list if
//     iterations were not exported.
func BuildResultDocument(res *fractal.Result, withIterations bool) models.ResultDocument {
	doc := models.ResultDocument{
		Parameters: models.ParametersRecord{
			TrunkLength: res.Config.TrunkLength,
			Ratio:       res.Config.LengthRatio,
			BranchAngle: res.Config.BranchAngleDegrees,
			MinLength:   res.Config.MinLength,
		},
		ExecutionTime: res.ExecutionTime.Seconds(),
		TotalBranches: res.TotalBranches,
		MaxDepth:      res.MaxDepth,
		SplitDepth:    res.SplitDepth,
		Workers:       res.Workers,
		Iterations:    []models.IterationRecord{},
	}
	if !withIterations || res.Branches == nil {
		return doc
	}
	for _, it := range fractal.GroupIterations(res.Branches) {
		rec := models.IterationRecord{
			Iteration:   it.Index,
			BranchCount: len(it.Branches),
			Branches:    make([][4]float64, len(it.Branches)),
		}
		for i, b := range it.Branches {
			rec.Branches[i] = [4]float64{b.X1, b.Y1, b.X2, b.Y2}
		}
		doc.Iterations = append(doc.Iterations, rec)
	}
	return doc
}

// WriteResultDocument saves doc as indented JSON, creating parent
// directories as needed.
//
// Parameters:
//   - path: The destination file.
//   - doc: The document to write.
//
// Returns:
//   - error: A SerializationError if the file cannot be written.
func WriteResultDocument(path string, doc models.ResultDocument) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.SerializationError{Path: path, Cause: err}
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperrors.SerializationError{Path: path, Cause: err}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return apperrors.SerializationError{Path: path, Cause: err}
	}
	return nil
}

// ReadResultDocument loads a document written by WriteResultDocument.
func ReadResultDocument(path string) (models.ResultDocument, error) {
	var doc models.ResultDocument
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("failed to read result document: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode result document %s: %w", path, err)
	}
	return doc, nil
}

// DisplayRun prints a run and, if configured, saves its document. The
// result is printed before saving so that it stays visible when the save
// fails.
//
// Parameters:
//   - out: The output writer.
//   - res: The generation result.
//   - cfg: Presentation settings.
//
// Returns:
//   - error: A SerializationError if the document cannot be saved.
func DisplayRun(out io.Writer, res *fractal.Result, cfg OutputConfig) error {
	if cfg.Quiet {
		fmt.Fprintf(out, "%d %d %s\n", res.TotalBranches, res.MaxDepth, FormatSeconds(res.ExecutionTime))
	} else {
		PrintHeader(out, RunTitle(res))
		PrintParams(out, res.Config, RunExtras(res)...)
		PrintResult(out, res.ExecutionTime, res.TotalBranches, res.MaxDepth)
	}

	if cfg.OutputFile == "" {
		return nil
	}
	if err := WriteResultDocument(cfg.OutputFile, BuildResultDocument(res, cfg.Iterations)); err != nil {
		return err
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "%sResult saved to:%s %s\n", ui.ColorGreen(), ui.ColorReset(), cfg.OutputFile)
	}
	return nil
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
