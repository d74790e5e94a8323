// Package archive fetches raw measurement exports from the public
// OpenAQ S3 archive and unpacks them into the local raw-data tree.
package archive

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const keyPrefixFormat = "records/csv.gz/locationid=%d/year=%d/"

// Client lists and downloads archive objects over the bucket's anonymous
// REST endpoint. No AWS credentials are involved; the bucket is public.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an archive client for the given bucket endpoint, e.g.
// "https://openaq-data-archive.s3.amazonaws.com".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ListKeys returns every object key under prefix, following continuation
// tokens until the listing is exhausted.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	token := ""
	for {
		page, err := c.listPage(ctx, prefix, token)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, obj.Key)
		}
		if !page.IsTruncated {
			return keys, nil
		}
		token = page.NextContinuationToken
	}
}

func (c *Client) listPage(ctx context.Context, prefix, token string) (*listBucketResult, error) {
	params := url.Values{
		"list-type": {"2"},
		"prefix":    {prefix},
	}
	if token != "" {
		params.Set("continuation-token", token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("archive list error: status %d: %s", resp.StatusCode, body)
	}

	var result listBucketResult
	if err := xml.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &result, nil
}

// Download streams one object to the local path, creating parent
// directories as needed. Writes go through a temp file so a failed
// download never leaves a truncated object behind.
func (c *Client) Download(ctx context.Context, key, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+key, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("archive download error: key %s: status %d", key, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}

	tmp := dest + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, dest)
}

// SyncLocationYear mirrors one location-year slice of the archive into
// root, preserving the month partitioning:
//
//	<root>/location_<id>/year_<yyyy>/month=<mm>/<object name>
//
// Files already present locally are skipped. Returns the number of objects
// downloaded.
func (c *Client) SyncLocationYear(ctx context.Context, root string, locationID, year int) (int, error) {
	prefix := fmt.Sprintf(keyPrefixFormat, locationID, year)
	keys, err := c.ListKeys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	c.logger.Debug("listed archive objects",
		"location_id", locationID, "year", year, "count", len(keys))

	downloaded := 0
	for _, key := range keys {
		dest := localPath(root, locationID, year, key)
		if dest == "" {
			c.logger.Warn("skipping unrecognized archive key", "key", key)
			continue
		}
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := c.Download(ctx, key, dest); err != nil {
			return downloaded, err
		}
		downloaded++
	}

	c.logger.Info("synced archive slice",
		"location_id", locationID, "year", year, "downloaded", downloaded, "total", len(keys))
	return downloaded, nil
}

// localPath maps an archive key like
// "records/csv.gz/locationid=749/year=2016/month=03/location-749-20160306.csv.gz"
// to its place in the local tree. Returns "" for keys that do not carry a
// month partition.
func localPath(root string, locationID, year int, key string) string {
	rest := strings.TrimPrefix(key, fmt.Sprintf(keyPrefixFormat, locationID, year))
	if rest == key || !strings.HasPrefix(rest, "month=") {
		return ""
	}
	month, name := path.Split(rest)
	if name == "" {
		return ""
	}
	return filepath.Join(root,
		fmt.Sprintf("location_%d", locationID),
		fmt.Sprintf("year_%d", year),
		strings.TrimRight(month, "/"),
		name,
	)
}

// S3 ListObjectsV2 response subset.

type listBucketResult struct {
	Contents              []s3Object `xml:"Contents"`
	IsTruncated           bool       `xml:"IsTruncated"`
	NextContinuationToken string     `xml:"NextContinuationToken"`
}

type s3Object struct {
	Key  string `xml:"Key"`
	Size int64  `xml:"Size"`
}
