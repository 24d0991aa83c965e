package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/vorplay/internal/formatter"
	"github.com/desertthunder/vorplay/internal/models"
	"github.com/desertthunder/vorplay/internal/sections"
	"github.com/desertthunder/vorplay/internal/shared"
	"github.com/desertthunder/vorplay/internal/tasks"
	"github.com/urfave/cli/v3"
)

// removeRef confirms and deletes the resource ref points at, through the same path the TUI uses.
func (r *Runner) removeRef(ctx context.Context, cmd *cli.Command, ref sections.Ref) error {
	if _, err := r.credential(ctx); err != nil {
		return err
	}
	req, err := r.loader.Remove(sections.Item{Title: ref.Label, Ref: &ref})
	if err != nil {
		return err
	}
	if err := r.resolve(ctx, cmd, req); err != nil {
		return err
	}
	return r.writePlain("✓ %s %s\n", req.Intent.Action, ref.Label)
}

// ReviewAdd reviews a track.
func (r *Runner) ReviewAdd(ctx context.Context, cmd *cli.Command) error {
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}

	review, err := r.vorplay.CreateReview(ctx, credential, models.ReviewInput{
		TrackID: trackID,
		Rating:  int(cmd.Int("rating")),
		Content: cmd.String("content"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Reviewed %q %s (review %d)\n", review.TrackTitle, shared.Stars(review.Rating), review.ID)
}

// ReviewEdit changes the rating and/or text of a review; unset flags keep their current values.
func (r *Runner) ReviewEdit(ctx context.Context, cmd *cli.Command) error {
	reviewID, err := parseID("review id", cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if !cmd.IsSet("rating") && !cmd.IsSet("content") {
		return fmt.Errorf("%w: pass --rating and/or --content", shared.ErrMissingArgument)
	}
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}

	mine, err := r.vorplay.MyReviews(ctx, credential)
	if err != nil {
		return err
	}
	var current *models.Review
	for i := range mine {
		if mine[i].ID == reviewID {
			current = &mine[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("%w: you have no review %d", shared.ErrNotFound, reviewID)
	}

	input := models.ReviewInput{Rating: current.Rating, Content: current.Content}
	if cmd.IsSet("rating") {
		input.Rating = int(cmd.Int("rating"))
	}
	if cmd.IsSet("content") {
		input.Content = cmd.String("content")
	}

	review, err := r.vorplay.UpdateReview(ctx, credential, reviewID, input)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated review of %q %s\n", review.TrackTitle, shared.Stars(review.Rating))
}

// ReviewDelete deletes a review after confirmation.
func (r *Runner) ReviewDelete(ctx context.Context, cmd *cli.Command) error {
	reviewID, err := parseID("review id", cmd.StringArg("id"))
	if err != nil {
		return err
	}
	id := strconv.FormatInt(reviewID, 10)
	return r.removeRef(ctx, cmd, sections.Ref{Kind: sections.RefReview, ID: id, Label: "review " + id})
}

// FavoriteAdd adds a track to the favorites.
func (r *Runner) FavoriteAdd(ctx context.Context, cmd *cli.Command) error {
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}
	if err := r.vorplay.AddFavorite(ctx, credential, trackID); err != nil {
		return err
	}
	return r.writePlain("✓ Added track %s to favorites\n", trackID)
}

// FavoriteRemove removes a track from the favorites after confirmation.
func (r *Runner) FavoriteRemove(ctx context.Context, cmd *cli.Command) error {
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}
	return r.removeRef(ctx, cmd, sections.Ref{Kind: sections.RefFavorite, ID: trackID, Label: "track " + trackID + " from favorites"})
}

// PlaylistCreate creates a playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}

	playlist, err := r.vorplay.CreatePlaylist(ctx, credential, models.PlaylistInput{Name: name, Description: cmd.String("description")})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created playlist %q (id %d)\n", playlist.Name, playlist.ID)
}

// PlaylistRename changes a playlist's name and/or description.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := parseID("playlist id", cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if !cmd.IsSet("name") && !cmd.IsSet("description") {
		return fmt.Errorf("%w: pass --name and/or --description", shared.ErrMissingArgument)
	}
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}

	current, err := r.vorplay.Playlist(ctx, credential, playlistID)
	if err != nil {
		return err
	}
	input := models.PlaylistInput{Name: current.Name, Description: current.Description}
	if cmd.IsSet("name") {
		input.Name = cmd.String("name")
	}
	if cmd.IsSet("description") {
		input.Description = cmd.String("description")
	}

	playlist, err := r.vorplay.UpdatePlaylist(ctx, credential, playlistID, input)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated playlist %q\n", playlist.Name)
}

// PlaylistDelete deletes a playlist after confirmation.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := parseID("playlist id", cmd.StringArg("id"))
	if err != nil {
		return err
	}
	id := strconv.FormatInt(playlistID, 10)
	return r.removeRef(ctx, cmd, sections.Ref{Kind: sections.RefPlaylist, ID: id, Label: "playlist " + id})
}

// PlaylistAdd appends a track to a playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := parseID("playlist id", cmd.StringArg("id"))
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}
	if err := r.vorplay.AddPlaylistTrack(ctx, credential, playlistID, trackID); err != nil {
		return err
	}
	return r.writePlain("✓ Added track %s to playlist %d\n", trackID, playlistID)
}

// PlaylistRemove removes a track from a playlist after confirmation.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := parseID("playlist id", cmd.StringArg("id"))
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}
	return r.removeRef(ctx, cmd, sections.Ref{
		Kind:     sections.RefPlaylistTrack,
		ID:       trackID,
		ParentID: strconv.FormatInt(playlistID, 10),
		Label:    fmt.Sprintf("track %s from playlist %d", trackID, playlistID),
	})
}

// PlaylistExport writes a playlist to disk as CSV (+ metadata JSON), Markdown (+ cover) or plain text.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := parseID("playlist id", cmd.StringArg("id"))
	if err != nil {
		return err
	}
	format := cmd.String("format")
	output := cmd.String("output")

	if err := r.boot(ctx); err != nil {
		return err
	}
	playlist, err := r.vorplay.Playlist(ctx, r.store.Credential(), playlistID)
	if err != nil {
		return err
	}

	r.logger.Info("exporting playlist", "id", playlistID, "format", format, "tracks", len(playlist.Tracks))

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(playlist, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s\n", itemCount(len(playlist.Tracks), "track"))
		r.writePlain("Tracks: %s\n", result.TracksFile)
		return r.writePlain("Metadata: %s\n", result.MetadataFile)
	case "md", "markdown":
		result, err := formatter.WriteMarkdownExport(ctx, playlist, formatter.MarkdownOptions{
			OutputDir: output,
			ImageURL:  formatter.CoverURL(playlist),
			Client:    r.httpClient,
			Logger:    r.logger,
		})
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s to %s\n", itemCount(len(playlist.Tracks), "track"), result.Directory)
		for _, f := range result.Files {
			r.writePlain("  %s\n", f)
		}
		return nil
	case "txt", "text":
		path, err := formatter.WriteTextExport(playlist, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %s to %s\n", itemCount(len(playlist.Tracks), "track"), path)
	default:
		return fmt.Errorf("%w: unknown export format %q (csv, md, txt)", shared.ErrInvalidArgument, format)
	}
}

// PlaylistExportAll exports every playlist of the current user through the bulk exporter, printing progress as it
// goes.
func (r *Runner) PlaylistExportAll(ctx context.Context, cmd *cli.Command) error {
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	exporter := tasks.NewExporter(r.vorplay, r.logger)
	result, err := exporter.BulkExport(ctx, progress, credential, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.API.RateLimit,
		Client:     r.httpClient,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d of %s to %s\n", result.SuccessfulExports, itemCount(result.TotalPlaylists, "playlist"), result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("✗ %d failed, see %s\n", result.FailedExports, result.ManifestPath)
	}
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}

// FollowAdd follows a user.
func (r *Runner) FollowAdd(ctx context.Context, cmd *cli.Command) error {
	userID, err := parseID("user id", cmd.StringArg("user"))
	if err != nil {
		return err
	}
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}
	if err := r.vorplay.Follow(ctx, credential, userID); err != nil {
		return err
	}
	return r.writePlain("✓ Following user %d\n", userID)
}

// FollowRemove unfollows a user after confirmation.
func (r *Runner) FollowRemove(ctx context.Context, cmd *cli.Command) error {
	userID, err := parseID("user id", cmd.StringArg("user"))
	if err != nil {
		return err
	}
	id := strconv.FormatInt(userID, 10)
	return r.removeRef(ctx, cmd, sections.Ref{Kind: sections.RefFollow, ID: id, Label: "user " + id})
}

// HistoryDelete deletes one search history entry after confirmation.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	entryID, err := parseID("history id", cmd.StringArg("id"))
	if err != nil {
		return err
	}
	id := strconv.FormatInt(entryID, 10)
	return r.removeRef(ctx, cmd, sections.Ref{Kind: sections.RefHistory, ID: id, Label: "search " + id})
}

// HistoryClear erases the whole search history after confirmation.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.credential(ctx); err != nil {
		return err
	}
	if err := r.resolve(ctx, cmd, r.loader.ClearHistory()); err != nil {
		return err
	}
	return r.writePlain("✓ Search history cleared\n")
}
