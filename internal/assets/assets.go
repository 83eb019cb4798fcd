// Package assets downloads the corpus and index artifacts when they are
// missing locally.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwiater/cirag/internal/appconfig"
	"github.com/mwiater/cirag/internal/logging"
)

// ErrNoSource is returned when an artifact is missing and no URL is configured for it.
var ErrNoSource = errors.New("artifact missing and no download URL configured")

// Artifact is one file the runtime needs at startup.
type Artifact struct {
	Name string
	Path string
	URL  string
}

// Result reports what Ensure did for one artifact.
type Result struct {
	Artifact   Artifact
	Downloaded bool
	Bytes      int64
}

// Artifacts lists the files named by cfg.
func Artifacts(cfg appconfig.Config) []Artifact {
	return []Artifact{
		{Name: "corpus", Path: cfg.CorpusPath(), URL: cfg.Assets.CorpusURL},
		{Name: "index", Path: cfg.IndexPath(), URL: cfg.Assets.IndexURL},
	}
}

// Fetcher downloads artifacts over HTTP.
type Fetcher struct {
	client *http.Client
	force  bool
}

// NewFetcher returns a Fetcher. With force set, existing files are replaced.
func NewFetcher(client *http.Client, force bool) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, force: force}
}

// Ensure makes every artifact present on disk, downloading the missing ones.
func (f *Fetcher) Ensure(ctx context.Context, artifacts []Artifact) ([]Result, error) {
	results := make([]Result, 0, len(artifacts))
	for _, a := range artifacts {
		res, err := f.ensureOne(ctx, a)
		if err != nil {
			return results, fmt.Errorf("%s: %w", a.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (f *Fetcher) ensureOne(ctx context.Context, a Artifact) (Result, error) {
	if !f.force {
		if _, err := os.Stat(a.Path); err == nil {
			logging.LogEvent("[ASSETS] %s present at %s", a.Name, a.Path)
			return Result{Artifact: a}, nil
		}
	}
	if strings.TrimSpace(a.URL) == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrNoSource, a.Path)
	}

	logging.LogEvent("[ASSETS] downloading %s from %s", a.Name, a.URL)
	n, err := f.download(ctx, a.URL, a.Path)
	if err != nil {
		return Result{}, err
	}
	logging.LogEvent("[ASSETS] wrote %d bytes to %s", n, a.Path)
	return Result{Artifact: a, Downloaded: true, Bytes: n}, nil
}

// download streams url into a temp file beside dest and renames it into
// place so a failed transfer never leaves a partial artifact.
func (f *Fetcher) download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create asset directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("move into place: %w", err)
	}
	return n, nil
}
