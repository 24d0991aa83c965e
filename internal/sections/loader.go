package sections

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vorplay/internal/models"
	"github.com/desertthunder/vorplay/internal/router"
	"github.com/desertthunder/vorplay/internal/shared"
)

// Backend is the remote API surface the sections use.
type Backend interface {
	CurrentUser(ctx context.Context, credential string) (*models.Identity, error)
	User(ctx context.Context, credential string, userID int64) (*models.Profile, error)
	MyReviews(ctx context.Context, credential string) ([]models.Review, error)
	UserReviews(ctx context.Context, userID int64) ([]models.Review, error)
	TrackReviews(ctx context.Context, trackID string) ([]models.Review, error)
	DeleteReview(ctx context.Context, credential string, reviewID int64) error
	Favorites(ctx context.Context, credential string) ([]models.Favorite, error)
	RemoveFavorite(ctx context.Context, credential, trackID string) error
	Playlists(ctx context.Context, credential string) ([]models.Playlist, error)
	Playlist(ctx context.Context, credential string, playlistID int64) (*models.PlaylistDetail, error)
	DeletePlaylist(ctx context.Context, credential string, playlistID int64) error
	RemovePlaylistTrack(ctx context.Context, credential string, playlistID int64, trackID string) error
	Following(ctx context.Context, credential string) ([]models.Follow, error)
	Followers(ctx context.Context, credential string) ([]models.Follow, error)
	Unfollow(ctx context.Context, credential string, userID int64) error
	History(ctx context.Context, credential string) ([]models.SearchEntry, error)
	AddHistory(ctx context.Context, credential, query string) (*models.SearchEntry, error)
	DeleteHistory(ctx context.Context, credential string, entryID int64) error
	ClearHistory(ctx context.Context, credential string) error
	Search(ctx context.Context, query string) (*models.SearchResults, error)
	Track(ctx context.Context, trackID string) (*models.Track, error)
	Artist(ctx context.Context, artistID string) (*models.Artist, error)
	Album(ctx context.Context, artistID, albumID string) (*models.Album, error)
}

// Session is the read-only view of the session store.
type Session interface {
	Credential() string
	Identity() *models.Identity
}

// Loader fetches section content.
type Loader struct {
	backend Backend
	session Session
	logger  *log.Logger
}

// NewLoader creates a loader reading the credential from session on every call.
func NewLoader(backend Backend, session Session, logger *log.Logger) *Loader {
	return &Loader{backend: backend, session: session, logger: logger}
}

// Load fetches the content of the section state resolves to.
func (l *Loader) Load(ctx context.Context, state router.State) (*Content, error) {
	kind := router.ResolveSection(state)
	credential := l.session.Credential()
	if kind.RequiresAuth() && credential == "" {
		return nil, fmt.Errorf("%w: %s requires a logged-in user", shared.ErrNotAuthenticated, kind.Label())
	}

	l.logger.Debug("loading section", "section", kind, "state", state.Encode())

	switch kind {
	case router.SectionReviews:
		return l.reviews(ctx, credential)
	case router.SectionFavorites:
		return l.favorites(ctx, credential)
	case router.SectionPlaylists:
		return l.playlists(ctx, credential)
	case router.SectionHistory:
		return l.history(ctx, credential)
	case router.SectionFollows:
		return l.follows(ctx, credential)
	case router.SectionAccount:
		return l.account(ctx, credential)
	case router.SectionUser:
		return l.user(ctx, credential, state.UserID)
	case router.SectionResults:
		return l.results(ctx, credential, state.Query)
	case router.SectionTrack:
		return l.track(ctx, state.TrackID)
	case router.SectionArtist:
		return l.artist(ctx, state.ArtistID)
	case router.SectionAlbum:
		return l.album(ctx, state.ArtistID, state.AlbumID)
	case router.SectionPlaylist:
		return l.playlist(ctx, credential, state.PlaylistID)
	default:
		return l.welcome(), nil
	}
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", shared.ErrInvalidArgument, name)
	}
	return nil
}

func numericID(name, value string) (int64, error) {
	if err := required(name, value); err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q is not a valid id", shared.ErrInvalidArgument, name, value)
	}
	return id, nil
}

func (l *Loader) welcome() *Content {
	content := &Content{Section: router.SectionWelcome, Title: "Vorplay", Empty: "Press / to search the catalog."}

	if identity := l.session.Identity(); identity != nil {
		content.Summary = []string{fmt.Sprintf("Welcome back, %s.", identity.DisplayName())}
	} else {
		content.Summary = []string{"Search the catalog, or log in to review tracks and build playlists."}
	}

	for _, kind := range router.Sidebar()[1:] {
		if kind.RequiresAuth() && l.session.Identity() == nil {
			continue
		}
		content.Items = append(content.Items, Item{Title: kind.Label(), Target: link(router.To(kind))})
	}
	return content
}

func reviewItem(r models.Review, removable bool) Item {
	item := Item{
		Title:       fmt.Sprintf("%s %s", shared.Stars(r.Rating), r.TrackTitle),
		Description: r.Content,
		Target:      link(router.TrackState(r.TrackID)),
	}
	if r.ArtistName != "" {
		item.Title += " · " + r.ArtistName
	}
	if removable {
		item.Ref = &Ref{Kind: RefReview, ID: strconv.FormatInt(r.ID, 10), Label: fmt.Sprintf("your review of %q", r.TrackTitle)}
	}
	return item
}

func (l *Loader) reviews(ctx context.Context, credential string) (*Content, error) {
	reviews, err := l.backend.MyReviews(ctx, credential)
	if err != nil {
		return nil, err
	}

	content := &Content{Section: router.SectionReviews, Title: "My Reviews", Empty: "You have not reviewed any tracks yet."}
	for _, r := range reviews {
		content.Items = append(content.Items, reviewItem(r, true))
	}
	return content, nil
}

func (l *Loader) favorites(ctx context.Context, credential string) (*Content, error) {
	favorites, err := l.backend.Favorites(ctx, credential)
	if err != nil {
		return nil, err
	}

	content := &Content{Section: router.SectionFavorites, Title: "Favorites", Empty: "No favorite tracks yet."}
	for _, f := range favorites {
		content.Items = append(content.Items, Item{
			Title:       f.TrackTitle,
			Description: f.ArtistName,
			Target:      link(router.TrackState(f.TrackID)),
			Ref:         &Ref{Kind: RefFavorite, ID: f.TrackID, Label: fmt.Sprintf("%q from favorites", f.TrackTitle)},
		})
	}
	return content, nil
}

func (l *Loader) playlists(ctx context.Context, credential string) (*Content, error) {
	playlists, err := l.backend.Playlists(ctx, credential)
	if err != nil {
		return nil, err
	}

	content := &Content{Section: router.SectionPlaylists, Title: "Playlists", Empty: "No playlists yet."}
	for _, p := range playlists {
		content.Items = append(content.Items, Item{
			Title:       p.Name,
			Description: fmt.Sprintf("%d tracks", p.TrackCount),
			Target:      link(router.PlaylistState(p.ID)),
			Ref:         &Ref{Kind: RefPlaylist, ID: strconv.FormatInt(p.ID, 10), Label: fmt.Sprintf("playlist %q", p.Name)},
		})
	}
	return content, nil
}

func (l *Loader) history(ctx context.Context, credential string) (*Content, error) {
	entries, err := l.backend.History(ctx, credential)
	if err != nil {
		return nil, err
	}

	content := &Content{Section: router.SectionHistory, Title: "Search History", Empty: "No searches yet."}
	for _, e := range entries {
		content.Items = append(content.Items, Item{
			Title:       e.Query,
			Description: e.CreatedAt.Local().Format("Jan 2, 2006 15:04"),
			Target:      link(router.ResultsState(e.Query)),
			Ref:         &Ref{Kind: RefHistory, ID: strconv.FormatInt(e.ID, 10), Label: fmt.Sprintf("search %q", e.Query)},
		})
	}
	return content, nil
}

func (l *Loader) follows(ctx context.Context, credential string) (*Content, error) {
	following, err := l.backend.Following(ctx, credential)
	if err != nil {
		return nil, err
	}
	followers, err := l.backend.Followers(ctx, credential)
	if err != nil {
		return nil, err
	}

	content := &Content{
		Section: router.SectionFollows,
		Title:   "Follows",
		Summary: []string{fmt.Sprintf("Following %d · %d followers", len(following), len(followers))},
		Empty:   "You are not following anyone and nobody follows you yet.",
	}
	for _, f := range following {
		content.Items = append(content.Items, Item{
			Title:       f.Name,
			Description: "Following since " + f.Since.Local().Format("Jan 2, 2006"),
			Target:      link(router.UserState(f.UserID)),
			Ref:         &Ref{Kind: RefFollow, ID: strconv.FormatInt(f.UserID, 10), Label: f.Name},
		})
	}
	for _, f := range followers {
		content.Items = append(content.Items, Item{
			Title:       f.Name,
			Description: "Follows you",
			Target:      link(router.UserState(f.UserID)),
		})
	}
	return content, nil
}

func (l *Loader) account(ctx context.Context, credential string) (*Content, error) {
	identity, err := l.backend.CurrentUser(ctx, credential)
	if err != nil {
		return nil, err
	}

	content := &Content{
		Section: router.SectionAccount,
		Title:   identity.DisplayName(),
		Summary: []string{"Email: " + identity.Email},
	}
	if identity.CreatedAt != nil {
		content.Summary = append(content.Summary, "Member since "+identity.CreatedAt.Local().Format("January 2006"))
	}
	if identity.ProfilePicture != nil {
		content.Summary = append(content.Summary, "Avatar: "+*identity.ProfilePicture)
	}
	content.Items = []Item{
		{Title: "My Reviews", Target: link(router.To(router.SectionReviews))},
		{Title: "Public profile", Target: link(router.UserState(identity.ID))},
	}
	return content, nil
}

func (l *Loader) user(ctx context.Context, credential, rawID string) (*Content, error) {
	userID, err := numericID("userId", rawID)
	if err != nil {
		return nil, err
	}

	profile, err := l.backend.User(ctx, credential, userID)
	if err != nil {
		return nil, err
	}
	reviews, err := l.backend.UserReviews(ctx, userID)
	if err != nil {
		return nil, err
	}

	content := &Content{
		Section: router.SectionUser,
		Title:   profile.DisplayName(),
		Summary: []string{fmt.Sprintf("%d followers · following %d", profile.Followers, profile.Following)},
		Empty:   "No reviews yet.",
	}
	if profile.IsFollowing {
		content.Summary = append(content.Summary, "You follow this user.")
	}

	var self int64
	if identity := l.session.Identity(); identity != nil {
		self = identity.ID
	}
	for _, r := range reviews {
		content.Items = append(content.Items, reviewItem(r, r.UserID == self))
	}
	return content, nil
}

func (l *Loader) results(ctx context.Context, credential, query string) (*Content, error) {
	if err := required("query", query); err != nil {
		return nil, err
	}

	results, err := l.backend.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if credential != "" {
		if _, err := l.backend.AddHistory(ctx, credential, results.Query); err != nil {
			l.logger.Warn("could not record search", "query", results.Query, "err", err)
		}
	}

	content := &Content{
		Section: router.SectionResults,
		Title:   fmt.Sprintf("Results for %q", results.Query),
		Summary: []string{fmt.Sprintf("%d tracks · %d artists · %d albums", len(results.Tracks), len(results.Artists), len(results.Albums))},
		Empty:   "Nothing matched your search.",
	}
	for _, a := range results.Artists {
		content.Items = append(content.Items, Item{Title: a.Name, Description: "Artist", Target: link(router.ArtistState(a.ID))})
	}
	for _, a := range results.Albums {
		content.Items = append(content.Items, Item{Title: a.Title, Description: "Album · " + a.ArtistName, Target: link(router.AlbumState(a.ArtistID, a.ID))})
	}
	for _, t := range results.Tracks {
		content.Items = append(content.Items, trackItem(t))
	}
	return content, nil
}

func trackItem(t models.Track) Item {
	return Item{
		Title:       t.Title,
		Description: fmt.Sprintf("%s · %s", t.ArtistName, shared.FormatDuration(t.Duration)),
		Target:      link(router.TrackState(t.ID)),
	}
}

func (l *Loader) track(ctx context.Context, trackID string) (*Content, error) {
	if err := required("trackId", trackID); err != nil {
		return nil, err
	}

	track, err := l.backend.Track(ctx, trackID)
	if err != nil {
		return nil, err
	}
	reviews, err := l.backend.TrackReviews(ctx, trackID)
	if err != nil {
		return nil, err
	}

	content := &Content{
		Section: router.SectionTrack,
		Title:   track.Title,
		Summary: []string{fmt.Sprintf("%s · %s", track.ArtistName, shared.FormatDuration(track.Duration))},
		Empty:   "No reviews yet.",
	}
	if len(reviews) > 0 {
		total := 0
		for _, r := range reviews {
			total += r.Rating
		}
		content.Summary = append(content.Summary, fmt.Sprintf("Average %.1f from %d reviews", float64(total)/float64(len(reviews)), len(reviews)))
	}

	content.Items = append(content.Items, Item{Title: track.ArtistName, Description: "Artist", Target: link(router.ArtistState(track.ArtistID))})
	if track.AlbumID != "" {
		content.Items = append(content.Items, Item{Title: track.AlbumTitle, Description: "Album", Target: link(router.AlbumState(track.ArtistID, track.AlbumID))})
	}

	var self int64
	if identity := l.session.Identity(); identity != nil {
		self = identity.ID
	}
	for _, r := range reviews {
		item := Item{
			Title:       fmt.Sprintf("%s %s", shared.Stars(r.Rating), r.UserName),
			Description: r.Content,
			Target:      link(router.UserState(r.UserID)),
		}
		if r.UserID == self {
			item.Ref = &Ref{Kind: RefReview, ID: strconv.FormatInt(r.ID, 10), Label: fmt.Sprintf("your review of %q", track.Title)}
		}
		content.Items = append(content.Items, item)
	}
	return content, nil
}

func (l *Loader) artist(ctx context.Context, artistID string) (*Content, error) {
	if err := required("artistId", artistID); err != nil {
		return nil, err
	}

	artist, err := l.backend.Artist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	content := &Content{
		Section: router.SectionArtist,
		Title:   artist.Name,
		Summary: []string{fmt.Sprintf("%d fans", artist.Fans)},
		Empty:   "No albums or tracks listed.",
	}
	for _, a := range artist.Albums {
		description := "Album"
		if a.ReleaseDate != "" {
			description += " · " + a.ReleaseDate
		}
		content.Items = append(content.Items, Item{Title: a.Title, Description: description, Target: link(router.AlbumState(artist.ID, a.ID))})
	}
	for _, t := range artist.TopTracks {
		content.Items = append(content.Items, trackItem(t))
	}
	return content, nil
}

func (l *Loader) album(ctx context.Context, artistID, albumID string) (*Content, error) {
	if err := required("artistId", artistID); err != nil {
		return nil, err
	}
	if err := required("albumId", albumID); err != nil {
		return nil, err
	}

	album, err := l.backend.Album(ctx, artistID, albumID)
	if err != nil {
		return nil, err
	}

	content := &Content{
		Section: router.SectionAlbum,
		Title:   album.Title,
		Summary: []string{album.ArtistName},
		Empty:   "This album has no tracks.",
	}
	if album.ReleaseDate != "" {
		content.Summary = append(content.Summary, "Released "+album.ReleaseDate)
	}
	for _, t := range album.Tracks {
		content.Items = append(content.Items, trackItem(t))
	}
	return content, nil
}

func (l *Loader) playlist(ctx context.Context, credential, rawID string) (*Content, error) {
	playlistID, err := numericID("playlistId", rawID)
	if err != nil {
		return nil, err
	}

	playlist, err := l.backend.Playlist(ctx, credential, playlistID)
	if err != nil {
		return nil, err
	}

	content := &Content{
		Section: router.SectionPlaylist,
		Title:   playlist.Name,
		Summary: []string{fmt.Sprintf("%d tracks", len(playlist.Tracks))},
		Empty:   "This playlist is empty.",
	}
	if playlist.Description != "" {
		content.Summary = append(content.Summary, playlist.Description)
	}

	identity := l.session.Identity()
	owned := identity != nil && identity.ID == playlist.OwnerID
	for _, t := range playlist.Tracks {
		item := trackItem(t)
		if owned {
			item.Ref = &Ref{Kind: RefPlaylistTrack, ID: t.ID, ParentID: rawID, Label: fmt.Sprintf("%q from %q", t.Title, playlist.Name)}
		}
		content.Items = append(content.Items, item)
	}
	return content, nil
}
