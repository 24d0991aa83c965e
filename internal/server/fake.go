package server

import (
	"cmp"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/vorplay/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// APIPrefix is the path every fake API route is mounted under.
const APIPrefix = "/api"

// DemoPassword is the password of the account created by [FakeAPI.SeedDemo].
const DemoPassword = "password"

const defaultTokenTTL = 24 * time.Hour

// ErrNoFakeUser is returned by [FakeAPI.IssueToken] for an unknown user.
var ErrNoFakeUser = errors.New("fake api: unknown user")

type fakeUser struct {
	models.Identity
	password string
}

type fakePlaylist struct {
	models.Playlist
	tracks []string
}

type failure struct {
	status  int
	message string
}

// FakeAPI is an in-memory implementation of the Vorplay API.
type FakeAPI struct {
	mu         sync.Mutex
	mux        *http.ServeMux
	patterns   []string
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
	omitExpiry bool

	nextID    int64
	users     map[int64]*fakeUser
	tracks    map[string]models.Track
	artists   map[string]models.Artist
	albums    map[string]models.Album
	reviews   map[int64]*models.Review
	favorites map[int64][]models.Favorite
	playlists map[int64]*fakePlaylist
	follows   map[int64]map[int64]time.Time
	history   map[int64][]models.SearchEntry
	revoked   map[string]bool

	calls    map[string]int
	failures map[string]failure
	delays   map[string]time.Duration
}

// NewFakeAPI creates an empty fake API with a random signing key.
func NewFakeAPI() *FakeAPI {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(fmt.Sprintf("fake api: generate signing key: %v", err))
	}

	f := &FakeAPI{
		mux:       http.NewServeMux(),
		secret:    secret,
		ttl:       defaultTokenTTL,
		now:       time.Now,
		users:     map[int64]*fakeUser{},
		tracks:    map[string]models.Track{},
		artists:   map[string]models.Artist{},
		albums:    map[string]models.Album{},
		reviews:   map[int64]*models.Review{},
		favorites: map[int64][]models.Favorite{},
		playlists: map[int64]*fakePlaylist{},
		follows:   map[int64]map[int64]time.Time{},
		history:   map[int64][]models.SearchEntry{},
		revoked:   map[string]bool{},
		calls:     map[string]int{},
		failures:  map[string]failure{},
		delays:    map[string]time.Duration{},
	}

	f.route("POST /auth/login", f.login)
	f.route("POST /auth/register", f.register)
	f.route("GET /users/me", f.me)
	f.route("PUT /users/me", f.updateMe)
	f.route("DELETE /users/me", f.deleteMe)
	f.route("POST /users/me/avatar", f.avatar)
	f.route("GET /users/{id}", f.user)
	f.route("GET /users/{id}/reviews", f.userReviews)
	f.route("GET /reviews/me", f.myReviews)
	f.route("GET /tracks/{id}/reviews", f.trackReviews)
	f.route("POST /reviews", f.createReview)
	f.route("PUT /reviews/{id}", f.updateReview)
	f.route("DELETE /reviews/{id}", f.deleteReview)
	f.route("GET /favorites", f.listFavorites)
	f.route("POST /favorites", f.addFavorite)
	f.route("DELETE /favorites/{trackId}", f.removeFavorite)
	f.route("GET /playlists", f.listPlaylists)
	f.route("POST /playlists", f.createPlaylist)
	f.route("GET /playlists/{id}", f.playlist)
	f.route("PUT /playlists/{id}", f.updatePlaylist)
	f.route("DELETE /playlists/{id}", f.deletePlaylist)
	f.route("POST /playlists/{id}/tracks", f.addPlaylistTrack)
	f.route("DELETE /playlists/{id}/tracks/{trackId}", f.removePlaylistTrack)
	f.route("GET /follows", f.following)
	f.route("GET /follows/followers", f.followers)
	f.route("POST /follows/{userId}", f.follow)
	f.route("DELETE /follows/{userId}", f.unfollow)
	f.route("GET /history", f.listHistory)
	f.route("POST /history", f.addHistory)
	f.route("DELETE /history", f.clearHistory)
	f.route("DELETE /history/{id}", f.deleteHistory)
	f.route("GET /catalog/search", f.search)
	f.route("GET /catalog/tracks/{id}", f.track)
	f.route("GET /catalog/artists/{id}", f.artist)
	f.route("GET /catalog/artists/{artistId}/albums/{albumId}", f.album)
	return f
}

// route registers h under APIPrefix. Every call is counted and may be delayed or failed on demand.
func (f *FakeAPI) route(pattern string, h http.HandlerFunc) {
	method, p, _ := strings.Cut(pattern, " ")
	full := method + " " + APIPrefix + p
	f.patterns = append(f.patterns, full)

	f.mux.HandleFunc(full, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[full]++
		delay := f.delays[full]
		fail, failing := f.failures[full]
		f.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeError(w, fail.status, fail.message)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		h(w, r)
	})
}

// Routes returns the method patterns of every endpoint.
func (f *FakeAPI) Routes() []string {
	return slices.Clone(f.patterns)
}

// ServeHTTP dispatches to the endpoint handlers.
func (f *FakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mux.ServeHTTP(w, r)
}

// Calls returns how many requests matched pattern, e.g. "GET /api/users/me".
func (f *FakeAPI) Calls(pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[pattern]
}

// TotalCalls returns the number of requests served across all endpoints.
func (f *FakeAPI) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// SetFailure makes pattern answer with status and message until [FakeAPI.ClearFailures].
func (f *FakeAPI) SetFailure(pattern string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[pattern] = failure{status: status, message: message}
}

// ClearFailures removes every injected failure.
func (f *FakeAPI) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.failures)
}

// SetDelay holds requests to pattern for d before answering.
func (f *FakeAPI) SetDelay(pattern string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[pattern] = d
}

// SetClock replaces the time source used for timestamps and token validation.
func (f *FakeAPI) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// SetTokenTTL sets the lifetime of issued credentials.
func (f *FakeAPI) SetTokenTTL(ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttl = ttl
}

// OmitExpiry drops expiresAt from auth responses, leaving only the token's exp claim.
func (f *FakeAPI) OmitExpiry(omit bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.omitExpiry = omit
}

// AddUser creates an account and returns its identity.
func (f *FakeAPI) AddUser(name, email, password string) models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUser(name, email, password).Identity
}

// IssueToken signs a fresh credential for userID.
func (f *FakeAPI) IssueToken(userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrNoFakeUser, userID)
	}
	token, _, err := f.issue(u)
	return token, err
}

// Revoke makes token fail authentication from now on.
func (f *FakeAPI) Revoke(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = true
}

// AddTrack adds a track to the catalog.
func (f *FakeAPI) AddTrack(t models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks[t.ID] = t
}

// AddArtist adds an artist to the catalog.
func (f *FakeAPI) AddArtist(a models.Artist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artists[a.ID] = a
}

// AddAlbum adds an album to the catalog. Its tracks are added too.
func (f *FakeAPI) AddAlbum(a models.Album) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albums[albumKey(a.ArtistID, a.ID)] = a
	for _, t := range a.Tracks {
		f.tracks[t.ID] = t
	}
}

// SeedDemo fills the catalog with a small demo library and creates demo@vorplay.dev with [DemoPassword].
func (f *FakeAPI) SeedDemo() models.Identity {
	artist := models.Artist{ID: "27", Name: "Daft Punk", Fans: 4_500_000}
	album := models.Album{
		ID: "302127", Title: "Discovery", ArtistID: "27", ArtistName: "Daft Punk", ReleaseDate: "2001-03-07",
		Tracks: []models.Track{
			{ID: "3135553", Title: "One More Time", ArtistID: "27", ArtistName: "Daft Punk", AlbumID: "302127", AlbumTitle: "Discovery", Duration: 320},
			{ID: "3135554", Title: "Aerodynamic", ArtistID: "27", ArtistName: "Daft Punk", AlbumID: "302127", AlbumTitle: "Discovery", Duration: 212},
			{ID: "3135556", Title: "Digital Love", ArtistID: "27", ArtistName: "Daft Punk", AlbumID: "302127", AlbumTitle: "Discovery", Duration: 301},
		},
	}
	other := models.Artist{ID: "4050205", Name: "Justice", Fans: 1_200_000}
	cross := models.Album{
		ID: "1215930", Title: "Cross", ArtistID: "4050205", ArtistName: "Justice", ReleaseDate: "2007-06-11",
		Tracks: []models.Track{
			{ID: "13791930", Title: "Genesis", ArtistID: "4050205", ArtistName: "Justice", AlbumID: "1215930", AlbumTitle: "Cross", Duration: 234},
			{ID: "13791932", Title: "D.A.N.C.E.", ArtistID: "4050205", ArtistName: "Justice", AlbumID: "1215930", AlbumTitle: "Cross", Duration: 242},
		},
	}

	f.AddArtist(artist)
	f.AddArtist(other)
	f.AddAlbum(album)
	f.AddAlbum(cross)
	return f.AddUser("Demo", "demo@vorplay.dev", DemoPassword)
}

func albumKey(artistID, albumID string) string { return artistID + "/" + albumID }

func (f *FakeAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *FakeAPI) addUser(name, email, password string) *fakeUser {
	created := f.now().UTC()
	u := &fakeUser{
		Identity: models.Identity{ID: f.id(), Name: name, Email: email, CreatedAt: &created},
		password: password,
	}
	f.users[u.ID] = u
	return u
}

func (f *FakeAPI) userByEmail(email string) *fakeUser {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (f *FakeAPI) issue(u *fakeUser) (string, time.Time, error) {
	now := f.now()
	exp := now.Add(f.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(u.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	return token, exp.UTC().Truncate(time.Second), err
}

// viewer resolves the bearer credential. ok is false when a credential was sent but is invalid.
func (f *FakeAPI) viewer(r *http.Request) (u *fakeUser, ok bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, true
	}
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || f.revoked[raw] {
		return nil, false
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return f.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(f.now))
	if err != nil {
		return nil, false
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, false
	}
	u, exists := f.users[id]
	return u, exists
}

func (f *FakeAPI) requireUser(w http.ResponseWriter, r *http.Request) (*fakeUser, bool) {
	u, ok := f.viewer(r)
	switch {
	case !ok:
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	case u == nil:
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return u, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

func (f *FakeAPI) authResponse(w http.ResponseWriter, status int, u *fakeUser) {
	token, exp, err := f.issue(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	result := models.AuthResult{Token: token, User: u.Identity}
	if !f.omitExpiry {
		result.ExpiresAt = &exp
	}
	writeJSON(w, status, result)
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	u := f.userByEmail(body.Email)
	if u == nil || u.password != body.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	f.authResponse(w, http.StatusOK, u)
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	switch {
	case strings.TrimSpace(body.Name) == "":
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	case !strings.Contains(body.Email, "@"):
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	case len(body.Password) < 6:
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	case f.userByEmail(body.Email) != nil:
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	f.authResponse(w, http.StatusCreated, f.addUser(body.Name, body.Email, body.Password))
}

func (f *FakeAPI) me(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u.Identity)
}

func (f *FakeAPI) updateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	var patch models.ProfilePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if patch.Email != nil {
		if other := f.userByEmail(*patch.Email); other != nil && other.ID != u.ID {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	writeJSON(w, http.StatusOK, u.Identity)
}

func (f *FakeAPI) deleteMe(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	delete(f.users, u.ID)
	delete(f.favorites, u.ID)
	delete(f.history, u.ID)
	delete(f.follows, u.ID)
	for _, followees := range f.follows {
		delete(followees, u.ID)
	}
	for id, review := range f.reviews {
		if review.UserID == u.ID {
			delete(f.reviews, id)
		}
	}
	for id, p := range f.playlists {
		if p.OwnerID == u.ID {
			delete(f.playlists, id)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) avatar(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Avatar file is required")
		return
	}
	file.Close()

	picture := fmt.Sprintf("/uploads/avatars/%d-%s", u.ID, path.Base(header.Filename))
	u.ProfilePicture = &picture
	writeJSON(w, http.StatusOK, u.Identity)
}

func (f *FakeAPI) user(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, exists := f.users[id]
	if !exists {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	profile := models.Profile{Identity: u.Identity, Following: len(f.follows[id])}
	for _, followees := range f.follows {
		if _, ok := followees[id]; ok {
			profile.Followers++
		}
	}
	if viewer, _ := f.viewer(r); viewer != nil {
		_, profile.IsFollowing = f.follows[viewer.ID][id]
	}
	writeJSON(w, http.StatusOK, profile)
}

func (f *FakeAPI) reviewsWhere(match func(*models.Review) bool) []models.Review {
	reviews := []models.Review{}
	for _, review := range f.reviews {
		if match(review) {
			reviews = append(reviews, *review)
		}
	}
	slices.SortFunc(reviews, func(a, b models.Review) int { return cmp.Compare(b.ID, a.ID) })
	return reviews
}

func (f *FakeAPI) userReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, exists := f.users[id]; !exists {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, f.reviewsWhere(func(rv *models.Review) bool { return rv.UserID == id }))
}

func (f *FakeAPI) myReviews(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f.reviewsWhere(func(rv *models.Review) bool { return rv.UserID == u.ID }))
}

func (f *FakeAPI) trackReviews(w http.ResponseWriter, r *http.Request) {
	trackID := r.PathValue("id")
	if _, exists := f.tracks[trackID]; !exists {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	writeJSON(w, http.StatusOK, f.reviewsWhere(func(rv *models.Review) bool { return rv.TrackID == trackID }))
}

func (f *FakeAPI) createReview(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	var input models.ReviewInput
	if !decodeBody(w, r, &input) {
		return
	}
	if err := input.Validate(true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	track, exists := f.tracks[input.TrackID]
	if !exists {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	for _, review := range f.reviews {
		if review.UserID == u.ID && review.TrackID == input.TrackID {
			writeError(w, http.StatusConflict, "You have already reviewed this track")
			return
		}
	}

	review := &models.Review{
		ID: f.id(), UserID: u.ID, UserName: u.DisplayName(),
		TrackID: track.ID, TrackTitle: track.Title, ArtistName: track.ArtistName,
		Rating: input.Rating, Content: input.Content, CreatedAt: f.now().UTC(),
	}
	f.reviews[review.ID] = review
	writeJSON(w, http.StatusCreated, review)
}

func (f *FakeAPI) ownedReview(w http.ResponseWriter, r *http.Request) (*models.Review, bool) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return nil, false
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	review, exists := f.reviews[id]
	if !exists {
		writeError(w, http.StatusNotFound, "Review not found")
		return nil, false
	}
	if review.UserID != u.ID {
		writeError(w, http.StatusForbidden, "You can only modify your own reviews")
		return nil, false
	}
	return review, true
}

func (f *FakeAPI) updateReview(w http.ResponseWriter, r *http.Request) {
	review, ok := f.ownedReview(w, r)
	if !ok {
		return
	}

	var input models.ReviewInput
	if !decodeBody(w, r, &input) {
		return
	}
	if err := input.Validate(false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated := f.now().UTC()
	review.Rating = input.Rating
	review.Content = input.Content
	review.UpdatedAt = &updated
	writeJSON(w, http.StatusOK, review)
}

func (f *FakeAPI) deleteReview(w http.ResponseWriter, r *http.Request) {
	review, ok := f.ownedReview(w, r)
	if !ok {
		return
	}
	delete(f.reviews, review.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) listFavorites(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}
	favorites := append([]models.Favorite{}, f.favorites[u.ID]...)
	writeJSON(w, http.StatusOK, favorites)
}

func (f *FakeAPI) addFavorite(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		TrackID string `json:"trackId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	track, exists := f.tracks[body.TrackID]
	if !exists {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	if slices.ContainsFunc(f.favorites[u.ID], func(fav models.Favorite) bool { return fav.TrackID == track.ID }) {
		writeError(w, http.StatusConflict, "Track is already a favorite")
		return
	}

	favorite := models.Favorite{TrackID: track.ID, TrackTitle: track.Title, ArtistName: track.ArtistName, CreatedAt: f.now().UTC()}
	f.favorites[u.ID] = append([]models.Favorite{favorite}, f.favorites[u.ID]...)
	writeJSON(w, http.StatusCreated, favorite)
}

func (f *FakeAPI) removeFavorite(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	trackID := r.PathValue("trackId")
	idx := slices.IndexFunc(f.favorites[u.ID], func(fav models.Favorite) bool { return fav.TrackID == trackID })
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Favorite not found")
		return
	}
	f.favorites[u.ID] = slices.Delete(f.favorites[u.ID], idx, idx+1)
	w.WriteHeader(http.StatusNoContent)
}

func (p *fakePlaylist) summary() models.Playlist {
	s := p.Playlist
	s.TrackCount = len(p.tracks)
	return s
}

func (f *FakeAPI) listPlaylists(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	playlists := []models.Playlist{}
	for _, p := range f.playlists {
		if p.OwnerID == u.ID {
			playlists = append(playlists, p.summary())
		}
	}
	slices.SortFunc(playlists, func(a, b models.Playlist) int { return cmp.Compare(a.ID, b.ID) })
	writeJSON(w, http.StatusOK, playlists)
}

func (f *FakeAPI) createPlaylist(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	var input models.PlaylistInput
	if !decodeBody(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &fakePlaylist{Playlist: models.Playlist{
		ID: f.id(), Name: input.Name, Description: input.Description, OwnerID: u.ID, CreatedAt: f.now().UTC(),
	}}
	f.playlists[p.ID] = p
	writeJSON(w, http.StatusCreated, p.summary())
}

func (f *FakeAPI) findPlaylist(w http.ResponseWriter, r *http.Request) (*fakePlaylist, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}
	p, exists := f.playlists[id]
	if !exists {
		writeError(w, http.StatusNotFound, "Playlist not found")
		return nil, false
	}
	return p, true
}

func (f *FakeAPI) ownedPlaylist(w http.ResponseWriter, r *http.Request) (*fakePlaylist, bool) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return nil, false
	}
	p, ok := f.findPlaylist(w, r)
	if !ok {
		return nil, false
	}
	if p.OwnerID != u.ID {
		writeError(w, http.StatusForbidden, "You can only modify your own playlists")
		return nil, false
	}
	return p, true
}

func (f *FakeAPI) playlist(w http.ResponseWriter, r *http.Request) {
	p, ok := f.findPlaylist(w, r)
	if !ok {
		return
	}

	detail := models.PlaylistDetail{Playlist: p.summary(), Tracks: []models.Track{}}
	for _, id := range p.tracks {
		if t, exists := f.tracks[id]; exists {
			detail.Tracks = append(detail.Tracks, t)
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

func (f *FakeAPI) updatePlaylist(w http.ResponseWriter, r *http.Request) {
	p, ok := f.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var input models.PlaylistInput
	if !decodeBody(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p.Name = input.Name
	p.Description = input.Description
	writeJSON(w, http.StatusOK, p.summary())
}

func (f *FakeAPI) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	p, ok := f.ownedPlaylist(w, r)
	if !ok {
		return
	}
	delete(f.playlists, p.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) addPlaylistTrack(w http.ResponseWriter, r *http.Request) {
	p, ok := f.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var body struct {
		TrackID string `json:"trackId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if _, exists := f.tracks[body.TrackID]; !exists {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	if slices.Contains(p.tracks, body.TrackID) {
		writeError(w, http.StatusConflict, "Track is already in this playlist")
		return
	}

	p.tracks = append(p.tracks, body.TrackID)
	writeJSON(w, http.StatusCreated, p.summary())
}

func (f *FakeAPI) removePlaylistTrack(w http.ResponseWriter, r *http.Request) {
	p, ok := f.ownedPlaylist(w, r)
	if !ok {
		return
	}

	idx := slices.Index(p.tracks, r.PathValue("trackId"))
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Track is not in this playlist")
		return
	}
	p.tracks = slices.Delete(p.tracks, idx, idx+1)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) followList(ids map[int64]time.Time) []models.Follow {
	follows := []models.Follow{}
	for id, since := range ids {
		if u, exists := f.users[id]; exists {
			follows = append(follows, models.Follow{UserID: id, Name: u.DisplayName(), ProfilePicture: u.ProfilePicture, Since: since})
		}
	}
	slices.SortFunc(follows, func(a, b models.Follow) int { return cmp.Compare(a.UserID, b.UserID) })
	return follows
}

func (f *FakeAPI) following(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f.followList(f.follows[u.ID]))
}

func (f *FakeAPI) followers(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	ids := map[int64]time.Time{}
	for follower, followees := range f.follows {
		if since, ok := followees[u.ID]; ok {
			ids[follower] = since
		}
	}
	writeJSON(w, http.StatusOK, f.followList(ids))
}

func (f *FakeAPI) follow(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}
	target, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	switch {
	case target == u.ID:
		writeError(w, http.StatusBadRequest, "You cannot follow yourself")
		return
	case f.users[target] == nil:
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if _, exists := f.follows[u.ID][target]; exists {
		writeError(w, http.StatusConflict, "Already following this user")
		return
	}

	if f.follows[u.ID] == nil {
		f.follows[u.ID] = map[int64]time.Time{}
	}
	f.follows[u.ID][target] = f.now().UTC()
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) unfollow(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}
	target, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	if _, exists := f.follows[u.ID][target]; !exists {
		writeError(w, http.StatusNotFound, "Not following this user")
		return
	}
	delete(f.follows[u.ID], target)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) listHistory(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, append([]models.SearchEntry{}, f.history[u.ID]...))
}

func (f *FakeAPI) addHistory(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}

	var body struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	entry := models.SearchEntry{ID: f.id(), Query: body.Query, CreatedAt: f.now().UTC()}
	f.history[u.ID] = append([]models.SearchEntry{entry}, f.history[u.ID]...)
	writeJSON(w, http.StatusCreated, entry)
}

func (f *FakeAPI) clearHistory(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}
	delete(f.history, u.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) deleteHistory(w http.ResponseWriter, r *http.Request) {
	u, ok := f.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	idx := slices.IndexFunc(f.history[u.ID], func(e models.SearchEntry) bool { return e.ID == id })
	if idx < 0 {
		writeError(w, http.StatusNotFound, "History entry not found")
		return
	}
	f.history[u.ID] = slices.Delete(f.history[u.ID], idx, idx+1)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if q == "" {
		writeError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	results := models.SearchResults{Query: q, Tracks: []models.Track{}, Artists: []models.Artist{}, Albums: []models.Album{}}
	for _, t := range f.tracks {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.ArtistName), q) {
			results.Tracks = append(results.Tracks, t)
		}
	}
	for _, a := range f.artists {
		if strings.Contains(strings.ToLower(a.Name), q) {
			results.Artists = append(results.Artists, a)
		}
	}
	for _, a := range f.albums {
		if strings.Contains(strings.ToLower(a.Title), q) {
			album := a
			album.Tracks = nil
			results.Albums = append(results.Albums, album)
		}
	}

	slices.SortFunc(results.Tracks, func(a, b models.Track) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(results.Artists, func(a, b models.Artist) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(results.Albums, func(a, b models.Album) int { return strings.Compare(a.ID, b.ID) })
	writeJSON(w, http.StatusOK, results)
}

func (f *FakeAPI) track(w http.ResponseWriter, r *http.Request) {
	t, exists := f.tracks[r.PathValue("id")]
	if !exists {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (f *FakeAPI) artist(w http.ResponseWriter, r *http.Request) {
	a, exists := f.artists[r.PathValue("id")]
	if !exists {
		writeError(w, http.StatusNotFound, "Artist not found")
		return
	}

	a.Albums = nil
	a.TopTracks = nil
	for _, album := range f.albums {
		if album.ArtistID == a.ID {
			summary := album
			summary.Tracks = nil
			a.Albums = append(a.Albums, summary)
		}
	}
	for _, t := range f.tracks {
		if t.ArtistID == a.ID {
			a.TopTracks = append(a.TopTracks, t)
		}
	}
	slices.SortFunc(a.Albums, func(x, y models.Album) int { return strings.Compare(x.ID, y.ID) })
	slices.SortFunc(a.TopTracks, func(x, y models.Track) int { return strings.Compare(x.ID, y.ID) })
	writeJSON(w, http.StatusOK, a)
}

func (f *FakeAPI) album(w http.ResponseWriter, r *http.Request) {
	a, exists := f.albums[albumKey(r.PathValue("artistId"), r.PathValue("albumId"))]
	if !exists {
		writeError(w, http.StatusNotFound, "Album not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
