package router

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/vorplay/internal/shared"
)

// Query string keys.
const (
	KeySection    = "section"
	KeyQuery      = "query"
	KeyTrackID    = "trackId"
	KeyArtistID   = "artistId"
	KeyAlbumID    = "albumId"
	KeyPlaylistID = "playlistId"
	KeyUserID     = "userId"
)

// State is one navigation entry.
type State struct {
	Section    string
	Query      string
	TrackID    string
	ArtistID   string
	AlbumID    string
	PlaylistID string
	UserID     string
}

// ParseState decodes a query string such as "section=track&trackId=42". A leading "?" is ignored.
func ParseState(raw string) (State, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(raw), "?"))
	if err != nil {
		return State{}, fmt.Errorf("%w: navigation state %q: %v", shared.ErrInvalidArgument, raw, err)
	}
	return FromValues(values), nil
}

// FromValues builds a state from decoded query values.
func FromValues(values url.Values) State {
	return State{
		Section:    values.Get(KeySection),
		Query:      values.Get(KeyQuery),
		TrackID:    values.Get(KeyTrackID),
		ArtistID:   values.Get(KeyArtistID),
		AlbumID:    values.Get(KeyAlbumID),
		PlaylistID: values.Get(KeyPlaylistID),
		UserID:     values.Get(KeyUserID),
	}
}

// Values returns the non-empty fields as query values.
func (s State) Values() url.Values {
	values := url.Values{}
	for key, value := range map[string]string{
		KeySection:    s.Section,
		KeyQuery:      s.Query,
		KeyTrackID:    s.TrackID,
		KeyArtistID:   s.ArtistID,
		KeyAlbumID:    s.AlbumID,
		KeyPlaylistID: s.PlaylistID,
		KeyUserID:     s.UserID,
	} {
		if value != "" {
			values.Set(key, value)
		}
	}
	return values
}

// Encode returns the query string form, keys sorted.
func (s State) Encode() string {
	return s.Values().Encode()
}

// Kind is shorthand for [ResolveSection].
func (s State) Kind() SectionKind {
	return ResolveSection(s)
}

// Normalize returns the canonical form of s: the section name in lowercase canonical spelling and only the
// parameters its section uses.
func Normalize(s State) State {
	kind := ResolveSection(s)
	out := State{Section: string(kind)}

	switch kind {
	case SectionResults:
		out.Query = s.Query
	case SectionTrack:
		out.TrackID = s.TrackID
	case SectionArtist:
		out.ArtistID = s.ArtistID
	case SectionAlbum:
		out.ArtistID = s.ArtistID
		out.AlbumID = s.AlbumID
	case SectionPlaylist:
		out.PlaylistID = s.PlaylistID
	case SectionUser:
		out.UserID = s.UserID
	}
	return out
}

// To returns the canonical state for a parameterless section.
func To(kind SectionKind) State {
	return State{Section: string(kind)}
}

// TrackState deep-links to a track.
func TrackState(trackID string) State {
	return State{Section: string(SectionTrack), TrackID: trackID}
}

// ArtistState deep-links to an artist.
func ArtistState(artistID string) State {
	return State{Section: string(SectionArtist), ArtistID: artistID}
}

// AlbumState deep-links to an album.
func AlbumState(artistID, albumID string) State {
	return State{Section: string(SectionAlbum), ArtistID: artistID, AlbumID: albumID}
}

// PlaylistState deep-links to a playlist.
func PlaylistState(playlistID int64) State {
	return State{Section: string(SectionPlaylist), PlaylistID: fmt.Sprint(playlistID)}
}

// UserState deep-links to a user's profile.
func UserState(userID int64) State {
	return State{Section: string(SectionUser), UserID: fmt.Sprint(userID)}
}

// ResultsState is the search results state for query.
func ResultsState(query string) State {
	return State{Section: string(SectionResults), Query: query}
}
