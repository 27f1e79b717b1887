// Package report persists completed session results under a results
// directory, as a JSON document per session plus a shared CSV of stage
// timings for cross-session comparison.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/preshare/internal/filex"
	"github.com/dmitrijs2005/preshare/internal/monitor"
	"github.com/dmitrijs2005/preshare/internal/session"
)

// Report bundles a session outcome with the resource usage sampled
// while it ran. Resources is nil when monitoring was disabled.
type Report struct {
	Session   *session.Result  `json:"session"`
	Resources *monitor.Summary `json:"resources,omitempty"`
}

// Writer writes reports into a single results directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("results dir: %w", err)
	}
	return &Writer{dir: abs}, nil
}

// Dir returns the absolute results directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteJSON stores the full report as session-<id>.json and returns
// the file path.
func (w *Writer) WriteJSON(r *Report) (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(w.dir, "session-"+r.Session.SessionID+".json")
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

var csvHeader = []string{"session_id", "record_id", "stage", "duration_ms"}

// AppendCSV appends one row per stage to stages.csv, creating the file
// with a header row on first use, and returns the file path.
func (w *Writer) AppendCSV(r *Report) (string, error) {
	path := filepath.Join(w.dir, "stages.csv")

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(csvHeader); err != nil {
			return "", fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, stage := range r.Session.Stages {
		row := []string{
			r.Session.SessionID,
			r.Session.RecordID,
			stage.Name,
			strconv.FormatFloat(stage.DurationMS, 'f', 3, 64),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return path, nil
}
