package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vorplay/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Phase of a long-running operation
type Phase int

const (
	FetchPlaylists Phase = iota
	ExportPlaylist
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case ExportPlaylist:
		return "export_playlist"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// PlaylistSource reads the current user's playlists.
type PlaylistSource interface {
	Playlists(ctx context.Context, credential string) ([]models.Playlist, error)
	Playlist(ctx context.Context, credential string, playlistID int64) (*models.PlaylistDetail, error)
}

// Exporter runs bulk playlist exports against a [PlaylistSource].
type Exporter struct {
	source PlaylistSource
	logger *log.Logger
}

// NewExporter creates an Exporter. A nil logger discards log output.
func NewExporter(source PlaylistSource, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exporter{source: source, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingPlaylistsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchPlaylists, Step: 0, Total: 1, Message: "Fetching playlists..."}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetched %s", name),
	}
}

func exportCompletedUpdate(step, total int, name string, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ Exported %s (%d files)", name, files),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✗ Failed to export %s: %v", name, err),
	}
}
