package present

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rewired-gh/cinestat/internal/dashboard"
)

// Report is the JSON document served by the API and written to disk.
type Report struct {
	Dashboard *dashboard.Dashboard `json:"dashboard"`
	Charts    []ChartConfig        `json:"charts"`
}

// NewReport pairs a dashboard with its charts.
func NewReport(d *dashboard.Dashboard) Report {
	return Report{Dashboard: d, Charts: Charts(d)}
}

// WriteFile writes the report as indented JSON, creating parent directories.
func (r Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
