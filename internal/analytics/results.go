package analytics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
)

// WriteResult serializes a result set as an indented JSON array under dir,
// slugifying the analytic name into the file name (for example
// "Daily average pm25 @ 749" becomes "daily-average-pm25-749.json").
// Empty result sets are written as "[]" so downstream consumers always find
// the file. Returns the path written.
func WriteResult[T any](dir, name string, rows []T) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	if rows == nil {
		rows = []T{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}

	path := filepath.Join(dir, slug.Make(name)+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
