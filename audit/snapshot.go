package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// timeNow is swapped in tests for deterministic filenames.
var timeNow = time.Now

func snapshotPath(dir, kind, suffix, ext string) string {
	name := fmt.Sprintf("%s_%s_%s.%s", timeNow().Format(time.RFC3339), kind, suffix, ext)
	return filepath.Join(dir, name)
}

// WriteSnapshot persists the forest as an indented JSON file named
// <timestamp>_result_<suffix>.json and returns the path written.
func WriteSnapshot(dir, suffix string, forest Forest) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(forest, "", "    ")
	if err != nil {
		return "", err
	}

	path := snapshotPath(dir, "result", suffix, "json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}

	return path, nil
}

// LoadSnapshot reads a forest back from a snapshot file, so backfill and
// reporting can run from a persisted state instead of a live listing.
func LoadSnapshot(path string) (Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var forest Forest
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, fmt.Errorf("malformed snapshot %q: %w", path, err)
	}

	return forest, nil
}

// WriteReportFile renders the report to <timestamp>_report_<suffix>.txt and
// returns the path written.
func WriteReportFile(dir, suffix string, forest Forest, opts ReportOptions) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	path := snapshotPath(dir, "report", suffix, "txt")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}

	if err := WriteReport(f, forest, opts); err != nil {
		_ = f.Close()
		return "", err
	}

	return path, f.Close()
}
