// Package router maps navigation state to exactly one section and keeps the navigation history.
//
// Navigation state is encoded as a URL query string (section=track&trackId=42), the same shape the web client
// keeps in its address bar, so a state can be passed on the command line or turned into a deep link.
package router

import "strings"

// SectionKind names one of the mutually exclusive content views.
type SectionKind string

const (
	SectionWelcome   SectionKind = "welcome"
	SectionReviews   SectionKind = "reviews"
	SectionFavorites SectionKind = "favorites"
	SectionPlaylists SectionKind = "playlists"
	SectionHistory   SectionKind = "history"
	SectionFollows   SectionKind = "follows"
	SectionAccount   SectionKind = "account"
	SectionUser      SectionKind = "user"
	SectionResults   SectionKind = "results"
	SectionTrack     SectionKind = "track"
	SectionArtist    SectionKind = "artist"
	SectionAlbum     SectionKind = "album"
	SectionPlaylist  SectionKind = "playlist"
)

var sections = map[string]SectionKind{
	"welcome":   SectionWelcome,
	"reviews":   SectionReviews,
	"favorites": SectionFavorites,
	"playlists": SectionPlaylists,
	"history":   SectionHistory,
	"follows":   SectionFollows,
	"account":   SectionAccount,
	"user":      SectionUser,
	"follower":  SectionUser,
	"results":   SectionResults,
	"track":     SectionTrack,
	"artist":    SectionArtist,
	"album":     SectionAlbum,
	"playlist":  SectionPlaylist,
}

var labels = map[SectionKind]string{
	SectionWelcome:   "Home",
	SectionReviews:   "My Reviews",
	SectionFavorites: "Favorites",
	SectionPlaylists: "Playlists",
	SectionHistory:   "Search History",
	SectionFollows:   "Follows",
	SectionAccount:   "Account",
	SectionUser:      "Profile",
	SectionResults:   "Search Results",
	SectionTrack:     "Track",
	SectionArtist:    "Artist",
	SectionAlbum:     "Album",
	SectionPlaylist:  "Playlist",
}

// Sidebar returns the sections reachable from the menu, in display order.
func Sidebar() []SectionKind {
	return []SectionKind{
		SectionWelcome,
		SectionReviews,
		SectionFavorites,
		SectionPlaylists,
		SectionHistory,
		SectionFollows,
		SectionAccount,
	}
}

// ParseSection matches name case-insensitively. Unknown and empty names resolve to [SectionWelcome].
func ParseSection(name string) SectionKind {
	if kind, ok := sections[strings.ToLower(strings.TrimSpace(name))]; ok {
		return kind
	}
	return SectionWelcome
}

// ResolveSection returns the section to render for state.
func ResolveSection(state State) SectionKind {
	return ParseSection(state.Section)
}

// Label is the human-readable section title.
func (k SectionKind) Label() string {
	if label, ok := labels[k]; ok {
		return label
	}
	return labels[SectionWelcome]
}

// RequiresAuth reports whether the section shows the current user's own data.
func (k SectionKind) RequiresAuth() bool {
	switch k {
	case SectionReviews, SectionFavorites, SectionPlaylists, SectionHistory, SectionFollows, SectionAccount:
		return true
	}
	return false
}

func (k SectionKind) String() string { return string(k) }
