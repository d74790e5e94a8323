package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
)

// FileSource discovers raw CSV batches under the archive directory layout
// produced by the fetch stage:
//
//	<root>/location_<id>/year_<yyyy>/month=<mm>/*.csv
type FileSource struct {
	root string
}

// NewFileSource creates a FileSource rooted at the raw-data directory.
func NewFileSource(root string) *FileSource {
	return &FileSource{root: root}
}

// Discover globs for batch files and returns them sorted, so a run
// processes batches in a stable order regardless of filesystem iteration.
func (s *FileSource) Discover(_ context.Context) ([]string, error) {
	pattern := filepath.Join(s.root, "location_*", "year_*", "month=*", "*.csv")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(paths)
	return paths, nil
}
