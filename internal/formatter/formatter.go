// package formatter renders playlists and section content as CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vorplay/internal/models"
	"github.com/desertthunder/vorplay/internal/shared"
)

// ExportToCSV converts a playlist to CSV format with columns: ID, Title, Artist, Album, Duration
func ExportToCSV(playlist *models.PlaylistDetail) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range playlist.Tracks {
		record := []string{
			track.ID,
			track.Title,
			track.ArtistName,
			track.AlbumTitle,
			strconv.Itoa(track.Duration),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to Markdown format with optional cover image
func ExportToMarkdown(playlist *models.PlaylistDetail, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", playlist.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if playlist.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", playlist.Description)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(playlist.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range playlist.Tracks {
		albumPart := ""
		if track.AlbumTitle != "" {
			albumPart = fmt.Sprintf(" (%s)", track.AlbumTitle)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.ArtistName, track.Title, albumPart, shared.FormatDuration(track.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(playlist *models.PlaylistDetail) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(playlist.Tracks))

	for i, track := range playlist.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.ArtistName, track.Title)
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return json.MarshalIndent(playlist, "", "  ")
}

func defaultBase(playlist *models.PlaylistDetail) string {
	return "playlist_" + strconv.FormatInt(playlist.ID, 10)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist_{id} as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(playlist *models.PlaylistDetail, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = defaultBase(playlist)
	}

	csvData, err := ExportToCSV(playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(playlist.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// MarkdownOptions controls [WriteMarkdownExport].
type MarkdownOptions struct {
	OutputDir string
	ImageURL  string // downloaded as cover.jpg when set
	Client    *http.Client
	Logger    *log.Logger
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Creates {dir}/README.md and, when a cover URL is given and downloads, {dir}/cover.jpg.
// A failed cover download is logged and the export continues without it.
func WriteMarkdownExport(ctx context.Context, playlist *models.PlaylistDetail, opts MarkdownOptions) (*MarkdownExportResult, error) {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = defaultBase(playlist)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if opts.ImageURL != "" {
		imageData, err := DownloadImage(ctx, opts.Client, opts.ImageURL)
		if err != nil {
			warn(opts.Logger, "failed to download cover image", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				warn(opts.Logger, "failed to save cover image", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(playlist, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

func warn(logger *log.Logger, msg string, err error) {
	if logger != nil {
		logger.Warn(msg, "err", err)
	}
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to playlist_{id}_tracks.txt as the filename.
func WriteTextExport(playlist *models.PlaylistDetail, path string) (string, error) {
	if path == "" {
		path = defaultBase(playlist) + "_tracks.txt"
	}

	textData, err := ExportToText(playlist)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// CoverURL returns the cover of the first track that has one.
func CoverURL(playlist *models.PlaylistDetail) string {
	for _, track := range playlist.Tracks {
		if track.CoverURL != "" {
			return track.CoverURL
		}
	}
	return ""
}
