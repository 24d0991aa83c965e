// Package sections loads the data behind each navigation section and tracks the state of the active view.
//
// A [Loader] fetches one section per call with no caching between calls. A [View] holds exactly one of
// loading, failed or ready, and only accepts the response of the most recent fetch.
package sections

import "github.com/desertthunder/vorplay/internal/router"

// RefKind identifies what a removable item points at.
type RefKind string

const (
	RefReview        RefKind = "review"
	RefFavorite      RefKind = "favorite"
	RefPlaylist      RefKind = "playlist"
	RefPlaylistTrack RefKind = "playlist-track"
	RefFollow        RefKind = "follow"
	RefHistory       RefKind = "history"
)

// Ref points at a resource the current user may delete.
type Ref struct {
	Kind     RefKind
	ID       string
	ParentID string // playlist id for playlist tracks
	Label    string
}

// Item is one row of a section.
type Item struct {
	Title       string
	Description string
	Target      *router.State // deep link followed on selection
	Ref         *Ref          // set when the item can be removed
}

// Content is the rendered data of one section.
type Content struct {
	Section router.SectionKind
	Title   string
	Summary []string
	Items   []Item
	Empty   string // shown when Items is empty
}

func link(s router.State) *router.State { return &s }
