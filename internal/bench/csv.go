package bench

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/pkg/models"
)

// csvHeader is the column layout of a session file.
var csvHeader = []string{"cores", "run", "time", "branches"}

// WriteCSV writes rows with the session header; times have six decimals.
func WriteCSV(w io.Writer, rows []models.BenchmarkRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		rec := []string{
			strconv.Itoa(row.Cores),
			strconv.Itoa(row.Run),
			strconv.FormatFloat(row.Time, 'f', 6, 64),
			strconv.Itoa(row.Branches),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a session file. Columns are located by header name, so
// extra columns are ignored.
func ReadCSV(r io.Reader) ([]models.BenchmarkRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range csvHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("CSV header lacks column %q", name)
		}
	}

	var rows []models.BenchmarkRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		row, err := parseRow(rec, col)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func parseRow(rec []string, col map[string]int) (models.BenchmarkRow, error) {
	field := func(name string) (string, error) {
		i := col[name]
		if i >= len(rec) {
			return "", fmt.Errorf("missing %s", name)
		}
		return rec[i], nil
	}
	var row models.BenchmarkRow
	ints := []struct {
		name string
		dst  *int
	}{
		{"cores", &row.Cores},
		{"run", &row.Run},
		{"branches", &row.Branches},
	}
	for _, f := range ints {
		raw, err := field(f.name)
		if err != nil {
			return row, err
		}
		if *f.dst, err = strconv.Atoi(raw); err != nil {
			return row, fmt.Errorf("invalid %s %q", f.name, raw)
		}
	}
	raw, err := field("time")
	if err != nil {
		return row, err
	}
	if row.Time, err = strconv.ParseFloat(raw, 64); err != nil {
		return row, fmt.Errorf("invalid time %q", raw)
	}
	return row, nil
}

// LoadCSV reads a session file from path.
func LoadCSV(path string) ([]models.BenchmarkRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// Session holds the files written for one benchmark session.
type Session struct {
	CSVPath     string
	ProfilePath string
}

// SaveSession writes <dir>/<scaling>.csv and <dir>/<scaling>_machine.json.
//
// Parameters:
//   - dir: The output directory, created if needed.
//   - rows: The session rows.
//   - profile: The machine profile of the session.
//
// Returns:
//   - Session: The written paths.
//   - error: A SerializationError naming the file that failed.
func SaveSession(dir string, rows []models.BenchmarkRow, profile models.MachineProfile) (Session, error) {
	s := Session{
		CSVPath:     filepath.Join(dir, profile.Scaling+".csv"),
		ProfilePath: filepath.Join(dir, profile.Scaling+"_machine.json"),
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return s, apperrors.SerializationError{Path: dir, Cause: err}
	}

	f, err := os.Create(s.CSVPath)
	if err != nil {
		return s, apperrors.SerializationError{Path: s.CSVPath, Cause: err}
	}
	werr := WriteCSV(f, rows)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return s, apperrors.SerializationError{Path: s.CSVPath, Cause: werr}
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err == nil {
		err = os.WriteFile(s.ProfilePath, append(data, '\n'), 0o644)
	}
	if err != nil {
		return s, apperrors.SerializationError{Path: s.ProfilePath, Cause: err}
	}
	return s, nil
}
