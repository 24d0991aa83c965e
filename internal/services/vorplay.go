package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/vorplay/internal/models"
	"github.com/desertthunder/vorplay/internal/shared"
)

// VorplayService is the typed client for the Vorplay API.
type VorplayService struct {
	api *APIService
}

// NewVorplayService creates a typed client over api.
func NewVorplayService(api *APIService) *VorplayService {
	return &VorplayService{api: api}
}

// call performs a request and decodes a successful body into result (when non-nil).
func (v *VorplayService) call(ctx context.Context, method, path, credential string, body, result any) error {
	resp, err := v.api.Do(ctx, method, path, body, credential)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if result == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(result)
}

// authed is call for endpoints that need a credential.
func (v *VorplayService) authed(ctx context.Context, method, path, credential string, body, result any) error {
	if credential == "" {
		return fmt.Errorf("%w: %s %s requires a credential", shared.ErrNotAuthenticated, method, path)
	}
	return v.call(ctx, method, path, credential, body, result)
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func seg(s string) string { return url.PathEscape(s) }

func invalid(err error) error {
	return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
}

// Login exchanges email and password for a credential.
//
// A 401 response unwraps to [shared.ErrInvalidCredentials] and keeps the server message.
func (v *VorplayService) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result models.AuthResult
	if err := v.call(ctx, http.MethodPost, "/auth/login", "", body, &result); err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode == http.StatusUnauthorized {
			apiErr.Kind = shared.ErrInvalidCredentials
		}
		return nil, err
	}
	return completeAuth(&result)
}

// Register creates an account and returns its credential.
//
// A 409 response unwraps to [shared.ErrEmailTaken] and keeps the server message.
func (v *VorplayService) Register(ctx context.Context, name, email, password string) (*models.AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}

	var result models.AuthResult
	if err := v.call(ctx, http.MethodPost, "/auth/register", "", body, &result); err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode == http.StatusConflict {
			apiErr.Kind = shared.ErrEmailTaken
		}
		return nil, err
	}
	return completeAuth(&result)
}

// completeAuth validates a credential exchange response and fills a missing expiry from the token's claims.
func completeAuth(result *models.AuthResult) (*models.AuthResult, error) {
	if result.Token == "" {
		return nil, fmt.Errorf("%w: response carried no token", shared.ErrMalformedResponse)
	}
	if err := result.User.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	if result.ExpiresAt == nil {
		if exp, ok := shared.TokenExpiry(result.Token); ok {
			result.ExpiresAt = &exp
		}
	}
	return result, nil
}

// CurrentUser fetches the authoritative profile for credential.
func (v *VorplayService) CurrentUser(ctx context.Context, credential string) (*models.Identity, error) {
	var identity models.Identity
	if err := v.authed(ctx, http.MethodGet, "/users/me", credential, nil, &identity); err != nil {
		return nil, err
	}
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return &identity, nil
}

// UpdateProfile applies patch and returns the server-confirmed profile.
func (v *VorplayService) UpdateProfile(ctx context.Context, credential string, patch models.ProfilePatch) (*models.Identity, error) {
	if err := patch.Validate(); err != nil {
		return nil, invalid(err)
	}

	var identity models.Identity
	if err := v.authed(ctx, http.MethodPut, "/users/me", credential, patch, &identity); err != nil {
		return nil, err
	}
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return &identity, nil
}

// UploadAvatar replaces the profile picture and returns the updated profile.
func (v *VorplayService) UploadAvatar(ctx context.Context, credential, filename string, r io.Reader) (*models.Identity, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: avatar upload requires a credential", shared.ErrNotAuthenticated)
	}

	resp, err := v.api.Upload(ctx, "/users/me/avatar", "avatar", filename, r, credential)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var identity models.Identity
	if err := resp.Decode(&identity); err != nil {
		return nil, err
	}
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return &identity, nil
}

// DeleteAccount permanently removes the current user's account.
func (v *VorplayService) DeleteAccount(ctx context.Context, credential string) error {
	return v.authed(ctx, http.MethodDelete, "/users/me", credential, nil, nil)
}

// User fetches another user's public profile. The credential is optional and only affects IsFollowing.
func (v *VorplayService) User(ctx context.Context, credential string, userID int64) (*models.Profile, error) {
	var profile models.Profile
	if err := v.call(ctx, http.MethodGet, "/users/"+id(userID), credential, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// MyReviews lists the current user's reviews.
func (v *VorplayService) MyReviews(ctx context.Context, credential string) ([]models.Review, error) {
	var reviews []models.Review
	err := v.authed(ctx, http.MethodGet, "/reviews/me", credential, nil, &reviews)
	return reviews, err
}

// UserReviews lists another user's reviews.
func (v *VorplayService) UserReviews(ctx context.Context, userID int64) ([]models.Review, error) {
	var reviews []models.Review
	err := v.call(ctx, http.MethodGet, "/users/"+id(userID)+"/reviews", "", nil, &reviews)
	return reviews, err
}

// TrackReviews lists every review of a track.
func (v *VorplayService) TrackReviews(ctx context.Context, trackID string) ([]models.Review, error) {
	var reviews []models.Review
	err := v.call(ctx, http.MethodGet, "/tracks/"+seg(trackID)+"/reviews", "", nil, &reviews)
	return reviews, err
}

// CreateReview posts a new review.
func (v *VorplayService) CreateReview(ctx context.Context, credential string, input models.ReviewInput) (*models.Review, error) {
	if err := input.Validate(true); err != nil {
		return nil, invalid(err)
	}

	var review models.Review
	if err := v.authed(ctx, http.MethodPost, "/reviews", credential, input, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateReview edits the rating and text of an existing review.
func (v *VorplayService) UpdateReview(ctx context.Context, credential string, reviewID int64, input models.ReviewInput) (*models.Review, error) {
	if err := input.Validate(false); err != nil {
		return nil, invalid(err)
	}

	var review models.Review
	if err := v.authed(ctx, http.MethodPut, "/reviews/"+id(reviewID), credential, input, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteReview removes a review.
func (v *VorplayService) DeleteReview(ctx context.Context, credential string, reviewID int64) error {
	return v.authed(ctx, http.MethodDelete, "/reviews/"+id(reviewID), credential, nil, nil)
}

// Favorites lists the current user's favorite tracks.
func (v *VorplayService) Favorites(ctx context.Context, credential string) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := v.authed(ctx, http.MethodGet, "/favorites", credential, nil, &favorites)
	return favorites, err
}

// AddFavorite marks a track as favorite.
func (v *VorplayService) AddFavorite(ctx context.Context, credential, trackID string) error {
	if strings.TrimSpace(trackID) == "" {
		return invalid(errors.New("track id is required"))
	}
	return v.authed(ctx, http.MethodPost, "/favorites", credential, map[string]string{"trackId": trackID}, nil)
}

// RemoveFavorite unmarks a favorite track.
func (v *VorplayService) RemoveFavorite(ctx context.Context, credential, trackID string) error {
	return v.authed(ctx, http.MethodDelete, "/favorites/"+seg(trackID), credential, nil, nil)
}

// Playlists lists the current user's playlists.
func (v *VorplayService) Playlists(ctx context.Context, credential string) ([]models.Playlist, error) {
	var playlists []models.Playlist
	err := v.authed(ctx, http.MethodGet, "/playlists", credential, nil, &playlists)
	return playlists, err
}

// Playlist fetches a playlist with its tracks.
func (v *VorplayService) Playlist(ctx context.Context, credential string, playlistID int64) (*models.PlaylistDetail, error) {
	var playlist models.PlaylistDetail
	if err := v.call(ctx, http.MethodGet, "/playlists/"+id(playlistID), credential, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// CreatePlaylist creates an empty playlist.
func (v *VorplayService) CreatePlaylist(ctx context.Context, credential string, input models.PlaylistInput) (*models.Playlist, error) {
	if err := input.Validate(); err != nil {
		return nil, invalid(err)
	}

	var playlist models.Playlist
	if err := v.authed(ctx, http.MethodPost, "/playlists", credential, input, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// UpdatePlaylist renames or re-describes a playlist.
func (v *VorplayService) UpdatePlaylist(ctx context.Context, credential string, playlistID int64, input models.PlaylistInput) (*models.Playlist, error) {
	if err := input.Validate(); err != nil {
		return nil, invalid(err)
	}

	var playlist models.Playlist
	if err := v.authed(ctx, http.MethodPut, "/playlists/"+id(playlistID), credential, input, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// DeletePlaylist removes a playlist.
func (v *VorplayService) DeletePlaylist(ctx context.Context, credential string, playlistID int64) error {
	return v.authed(ctx, http.MethodDelete, "/playlists/"+id(playlistID), credential, nil, nil)
}

// AddPlaylistTrack appends a track to a playlist.
func (v *VorplayService) AddPlaylistTrack(ctx context.Context, credential string, playlistID int64, trackID string) error {
	if strings.TrimSpace(trackID) == "" {
		return invalid(errors.New("track id is required"))
	}
	path := "/playlists/" + id(playlistID) + "/tracks"
	return v.authed(ctx, http.MethodPost, path, credential, map[string]string{"trackId": trackID}, nil)
}

// RemovePlaylistTrack removes a track from a playlist.
func (v *VorplayService) RemovePlaylistTrack(ctx context.Context, credential string, playlistID int64, trackID string) error {
	path := "/playlists/" + id(playlistID) + "/tracks/" + seg(trackID)
	return v.authed(ctx, http.MethodDelete, path, credential, nil, nil)
}

// Following lists users the current user follows.
func (v *VorplayService) Following(ctx context.Context, credential string) ([]models.Follow, error) {
	var follows []models.Follow
	err := v.authed(ctx, http.MethodGet, "/follows", credential, nil, &follows)
	return follows, err
}

// Followers lists users following the current user.
func (v *VorplayService) Followers(ctx context.Context, credential string) ([]models.Follow, error) {
	var follows []models.Follow
	err := v.authed(ctx, http.MethodGet, "/follows/followers", credential, nil, &follows)
	return follows, err
}

// Follow starts following userID.
func (v *VorplayService) Follow(ctx context.Context, credential string, userID int64) error {
	return v.authed(ctx, http.MethodPost, "/follows/"+id(userID), credential, nil, nil)
}

// Unfollow stops following userID.
func (v *VorplayService) Unfollow(ctx context.Context, credential string, userID int64) error {
	return v.authed(ctx, http.MethodDelete, "/follows/"+id(userID), credential, nil, nil)
}

// History lists the current user's past searches, newest first.
func (v *VorplayService) History(ctx context.Context, credential string) ([]models.SearchEntry, error) {
	var entries []models.SearchEntry
	err := v.authed(ctx, http.MethodGet, "/history", credential, nil, &entries)
	return entries, err
}

// AddHistory records a search query.
func (v *VorplayService) AddHistory(ctx context.Context, credential, query string) (*models.SearchEntry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, invalid(errors.New("query is required"))
	}

	var entry models.SearchEntry
	if err := v.authed(ctx, http.MethodPost, "/history", credential, map[string]string{"query": query}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteHistory removes one history entry.
func (v *VorplayService) DeleteHistory(ctx context.Context, credential string, entryID int64) error {
	return v.authed(ctx, http.MethodDelete, "/history/"+id(entryID), credential, nil, nil)
}

// ClearHistory removes every history entry.
func (v *VorplayService) ClearHistory(ctx context.Context, credential string) error {
	return v.authed(ctx, http.MethodDelete, "/history", credential, nil, nil)
}

// Search queries the catalog.
func (v *VorplayService) Search(ctx context.Context, query string) (*models.SearchResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid(errors.New("search query is required"))
	}

	var results models.SearchResults
	if err := v.call(ctx, http.MethodGet, "/catalog/search?q="+url.QueryEscape(query), "", nil, &results); err != nil {
		return nil, err
	}
	results.Query = query
	return &results, nil
}

// Track fetches one catalog track.
func (v *VorplayService) Track(ctx context.Context, trackID string) (*models.Track, error) {
	var track models.Track
	if err := v.call(ctx, http.MethodGet, "/catalog/tracks/"+seg(trackID), "", nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Artist fetches one catalog artist.
func (v *VorplayService) Artist(ctx context.Context, artistID string) (*models.Artist, error) {
	var artist models.Artist
	if err := v.call(ctx, http.MethodGet, "/catalog/artists/"+seg(artistID), "", nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// Album fetches one album of an artist.
func (v *VorplayService) Album(ctx context.Context, artistID, albumID string) (*models.Album, error) {
	var album models.Album
	path := "/catalog/artists/" + seg(artistID) + "/albums/" + seg(albumID)
	if err := v.call(ctx, http.MethodGet, path, "", nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}
