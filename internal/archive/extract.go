package archive

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ExtractAll walks the raw tree and gunzips every .csv.gz into a sibling
// .csv, removing the archive afterwards. Files whose .csv already exists
// are skipped so re-runs are cheap. Returns the number of files extracted.
func ExtractAll(root string, logger *slog.Logger) (int, error) {
	extracted := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".csv.gz") {
			return nil
		}

		dest := strings.TrimSuffix(path, ".gz")
		if _, err := os.Stat(dest); err == nil {
			return os.Remove(path)
		}

		if err := extractFile(path, dest); err != nil {
			return err
		}
		extracted++
		return os.Remove(path)
	})
	if err != nil {
		return extracted, fmt.Errorf("extract %s: %w", root, err)
	}

	logger.Info("extracted archives", "root", root, "count", extracted)
	return extracted, nil
}

func extractFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("gunzip %s: %w", src, err)
	}
	defer gz.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, gz); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return out.Close()
}
