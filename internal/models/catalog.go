package models

// Track is a catalog track.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ArtistID   string `json:"artistId"`
	ArtistName string `json:"artistName"`
	AlbumID    string `json:"albumId,omitempty"`
	AlbumTitle string `json:"albumTitle,omitempty"`
	Duration   int    `json:"duration"` // seconds
	PreviewURL string `json:"preview,omitempty"`
	CoverURL   string `json:"cover,omitempty"`
}

// Artist is a catalog artist with a preview of their discography.
type Artist struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Picture   string  `json:"picture,omitempty"`
	Fans      int     `json:"fans"`
	Albums    []Album `json:"albums,omitempty"`
	TopTracks []Track `json:"topTracks,omitempty"`
}

// Album is a catalog album.
type Album struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	ArtistID    string  `json:"artistId"`
	ArtistName  string  `json:"artistName"`
	CoverURL    string  `json:"cover,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Tracks      []Track `json:"tracks,omitempty"`
}

// SearchResults groups catalog matches for a free-text query.
type SearchResults struct {
	Query   string   `json:"query"`
	Tracks  []Track  `json:"tracks"`
	Artists []Artist `json:"artists"`
	Albums  []Album  `json:"albums"`
}

// Empty reports whether nothing matched.
func (r SearchResults) Empty() bool {
	return len(r.Tracks) == 0 && len(r.Artists) == 0 && len(r.Albums) == 0
}
