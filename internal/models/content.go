package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating and comment on a track.
type Review struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	UserName   string     `json:"userName"`
	TrackID    string     `json:"trackId"`
	TrackTitle string     `json:"trackTitle"`
	ArtistName string     `json:"artistName,omitempty"`
	Rating     int        `json:"rating"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// ReviewInput is the body of review create and update requests.
type ReviewInput struct {
	TrackID string `json:"trackId,omitempty"`
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

// Validate checks the rating range and, when creating, the track reference.
func (r ReviewInput) Validate(creating bool) error {
	if creating && strings.TrimSpace(r.TrackID) == "" {
		return fmt.Errorf("track id is required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d, got %d", MinRating, MaxRating, r.Rating)
	}
	return nil
}

// Favorite is a track the user marked as favorite.
type Favorite struct {
	TrackID    string    `json:"trackId"`
	TrackTitle string    `json:"trackTitle"`
	ArtistName string    `json:"artistName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Playlist is a user-created playlist.
type Playlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TrackCount  int       `json:"trackCount"`
	OwnerID     int64     `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PlaylistDetail is a playlist with its tracks in order.
type PlaylistDetail struct {
	Playlist
	Tracks []Track `json:"tracks"`
}

// PlaylistInput is the body of playlist create and update requests.
type PlaylistInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate requires a non-blank name.
func (p PlaylistInput) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}

// SearchEntry is one query in the user's search history.
type SearchEntry struct {
	ID        int64     `json:"id"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"createdAt"`
}
