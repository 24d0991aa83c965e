package tasks

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/desertthunder/vorplay/internal/formatter"
	"github.com/desertthunder/vorplay/internal/models"
	"github.com/desertthunder/vorplay/internal/shared"
	"golang.org/x/time/rate"
)

// Formats accepted by [Exporter.BulkExport].
var bulkFormats = map[string]string{
	"csv": "csv", "md": "markdown", "markdown": "markdown", "txt": "txt", "text": "txt", "json": "json",
}

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string       // csv, markdown, txt or json (default: json)
	OutputDir  string       // Base output directory (default: vorplay_export_{epoch})
	NumWorkers int          // Concurrent workers (default: 5, max: 10)
	RateLimit  float64      // Playlist fetches per second (default: 5)
	Client     *http.Client // Used for Markdown cover downloads
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   int64    `json:"playlistId"`
	PlaylistName string   `json:"playlistName"`
	Success      bool     `json:"success"`
	Files        []string `json:"files,omitempty"`
	Error        error    `json:"-"`
	ErrorMessage string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	Format            string                 `json:"format"`
	ExportedAt        time.Time              `json:"exportedAt"`
	TotalPlaylists    int                    `json:"totalPlaylists"`
	SuccessfulExports int                    `json:"successfulExports"`
	FailedExports     int                    `json:"failedExports"`
	OutputDirectory   string                 `json:"outputDirectory"`
	Results           []PlaylistExportResult `json:"results"`
	ManifestPath      string                 `json:"-"`
}

type exportJob struct {
	playlist *models.PlaylistDetail
}

// BulkExport exports every playlist of the user behind credential concurrently with rate limiting and progress
// tracking.
//
// Fetches are sequential and rate limited; writes run on a bounded worker pool. Failed playlists are recorded in the result and the manifest rather than aborting the export.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	credential string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: playlist source not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = "json"
	}
	format, ok := bulkFormats[opts.Format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown export format %q (csv, md, txt, json)", shared.ErrInvalidArgument, opts.Format)
	}
	opts.Format = format

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("vorplay_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	sendProgress(prog, fetchingPlaylistsUpdate())
	playlists, err := e.source.Playlists(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		ExportedAt:      time.Now().UTC(),
		TotalPlaylists:  len(playlists),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(playlists)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(playlists))
	results := make(chan PlaylistExportResult, len(playlists))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, p := range playlists {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			detail, err := e.source.Playlist(ctx, credential, p.ID)
			if err != nil {
				results <- failed(p, fmt.Errorf("failed to fetch playlist: %w", err))
				continue
			}

			jobs <- exportJob{playlist: detail}
			sendProgress(prog, exportingPlaylistUpdate(i+1, len(playlists), p.Name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(playlists), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "id", res.PlaylistID, "err", res.Error)
			sendProgress(prog, exportFailedUpdate(completed, len(playlists), res.PlaylistName, res.Error))
		}
	}
	slices.SortFunc(result.Results, func(a, b PlaylistExportResult) int { return cmp.Compare(a.PlaylistID, b.PlaylistID) })

	if err := ctx.Err(); err != nil {
		return result, err
	}

	sendProgress(prog, ProgressUpdate{Phase: WriteManifest, Step: 1, Total: 1, Message: "Writing manifest..."})
	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func failed(p models.Playlist, err error) PlaylistExportResult {
	return PlaylistExportResult{
		PlaylistID:   p.ID,
		PlaylistName: p.Name,
		Error:        err,
		ErrorMessage: err.Error(),
	}
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// exportWorker exports playlists from the jobs channel until it closes or ctx is canceled.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- e.exportSinglePlaylist(ctx, job.playlist, opts)
	}
}

// exportSinglePlaylist writes one playlist in the requested format.
func (e *Exporter) exportSinglePlaylist(ctx context.Context, p *models.PlaylistDetail, opts BulkExportOpts) PlaylistExportResult {
	id := strconv.FormatInt(p.ID, 10)
	base := filepath.Join(opts.OutputDir, id)

	var files []string
	var err error

	switch opts.Format {
	case "csv":
		var res *formatter.CSVExportResult
		if res, err = formatter.WriteCSVExport(p, base); err == nil {
			files = []string{res.TracksFile, res.MetadataFile}
		}
	case "markdown":
		var res *formatter.MarkdownExportResult
		res, err = formatter.WriteMarkdownExport(ctx, p, formatter.MarkdownOptions{
			OutputDir: base,
			ImageURL:  formatter.CoverURL(p),
			Client:    opts.Client,
			Logger:    e.logger,
		})
		if err == nil {
			files = res.Files
		}
	case "txt":
		var path string
		if path, err = formatter.WriteTextExport(p, base+"_tracks.txt"); err == nil {
			files = []string{path}
		}
	default:
		path := base + ".json"
		if err = writeJSONFile(p, path); err == nil {
			files = []string{path}
		}
	}

	if err != nil {
		return failed(p.Playlist, fmt.Errorf("%s export failed: %w", opts.Format, err))
	}
	return PlaylistExportResult{PlaylistID: p.ID, PlaylistName: p.Name, Success: true, Files: files}
}

func writeJSONFile(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("JSON write failed: %w", err)
	}
	return nil
}
