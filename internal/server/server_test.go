package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/vorplay/internal/models"
	tu "github.com/desertthunder/vorplay/internal/testing"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Handle Matches Method", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle("get", "/ping", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected 200 pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mw("first"), mw("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			order = append(order, "handler")
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected middleware order %v", order)
		}
	})

	t.Run("Recover", func(t *testing.T) {
		logger, buf := tu.NewTestLogger(t)
		r := NewBasicRouter()
		r.Use(Recover(logger))
		r.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "handler panic") {
			t.Errorf("expected panic to be logged, got %q", buf.String())
		}
	})

	t.Run("Request Logger", func(t *testing.T) {
		logger, buf := tu.NewTestLogger(t)
		r := NewBasicRouter()
		r.Use(RequestLogger(logger))
		r.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		req := httptest.NewRequest(http.MethodGet, "/teapot", nil)
		req.Header.Set("X-Request-ID", "req-42")
		r.ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		for _, want := range []string{"/teapot", "418", "req-42"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected log to contain %q, got %q", want, out)
			}
		}
	})
}

type fakeClient struct {
	t     *testing.T
	url   string
	token string
}

func newFakeServer(t *testing.T) (*FakeAPI, *fakeClient) {
	t.Helper()
	logger, _ := tu.NewTestLogger(t)
	fake := NewFakeAPI()
	ts := httptest.NewServer(New(logger, fake))
	t.Cleanup(ts.Close)
	return fake, &fakeClient{t: t, url: ts.URL + APIPrefix}
}

func (c *fakeClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, c.url+path, reader)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestFakeAPI(t *testing.T) {
	t.Run("Auth", func(t *testing.T) {
		t.Run("Register Then Login", func(t *testing.T) {
			_, c := newFakeServer(t)

			var reg models.AuthResult
			if code := c.do(http.MethodPost, "/auth/register", map[string]string{"name": "Ana", "email": "ana@x.io", "password": "secret1"}, &reg); code != http.StatusCreated {
				t.Fatalf("expected 201, got %d", code)
			}
			if reg.Token == "" || reg.User.ID == 0 || reg.ExpiresAt == nil {
				t.Fatalf("unexpected register result %+v", reg)
			}

			var errBody map[string]string
			if code := c.do(http.MethodPost, "/auth/register", map[string]string{"name": "Ana", "email": "ana@x.io", "password": "secret1"}, &errBody); code != http.StatusConflict {
				t.Errorf("expected 409 for duplicate email, got %d", code)
			}
			if errBody["message"] != "Email already registered" {
				t.Errorf("unexpected message %q", errBody["message"])
			}

			var login models.AuthResult
			if code := c.do(http.MethodPost, "/auth/login", map[string]string{"email": "ana@x.io", "password": "secret1"}, &login); code != http.StatusOK {
				t.Fatalf("expected 200, got %d", code)
			}

			c.token = login.Token
			var me models.Identity
			if code := c.do(http.MethodGet, "/users/me", nil, &me); code != http.StatusOK || me.Email != "ana@x.io" {
				t.Errorf("expected own profile, got %d %+v", code, me)
			}
		})

		t.Run("Wrong Password", func(t *testing.T) {
			fake, c := newFakeServer(t)
			fake.AddUser("Ana", "ana@x.io", "secret1")

			var body map[string]string
			if code := c.do(http.MethodPost, "/auth/login", map[string]string{"email": "ana@x.io", "password": "nope"}, &body); code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", code)
			}
			if body["message"] != "Invalid email or password" {
				t.Errorf("unexpected message %q", body["message"])
			}
		})

		t.Run("Expired And Revoked Tokens", func(t *testing.T) {
			fake, c := newFakeServer(t)
			user := fake.AddUser("Ana", "ana@x.io", "secret1")
			token, err := fake.IssueToken(user.ID)
			if err != nil {
				t.Fatalf("issue token: %v", err)
			}

			c.token = token
			if code := c.do(http.MethodGet, "/users/me", nil, nil); code != http.StatusOK {
				t.Fatalf("expected 200, got %d", code)
			}

			fake.SetClock(func() time.Time { return time.Now().Add(48 * time.Hour) })
			if code := c.do(http.MethodGet, "/users/me", nil, nil); code != http.StatusUnauthorized {
				t.Errorf("expected 401 for expired token, got %d", code)
			}

			fake.SetClock(time.Now)
			fake.Revoke(token)
			if code := c.do(http.MethodGet, "/users/me", nil, nil); code != http.StatusUnauthorized {
				t.Errorf("expected 401 for revoked token, got %d", code)
			}
		})

		t.Run("Unknown User Token", func(t *testing.T) {
			fake := NewFakeAPI()
			if _, err := fake.IssueToken(99); err == nil {
				t.Error("expected error for unknown user")
			}
		})
	})

	t.Run("Content", func(t *testing.T) {
		fake, c := newFakeServer(t)
		fake.SeedDemo()
		other := fake.AddUser("Bo", "bo@x.io", "secret1")
		me := fake.AddUser("Ana", "ana@x.io", "secret1")
		c.token, _ = fake.IssueToken(me.ID)

		var review models.Review
		if code := c.do(http.MethodPost, "/reviews", models.ReviewInput{TrackID: "3135553", Rating: 5, Content: "classic"}, &review); code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", code)
		}
		if review.TrackTitle != "One More Time" || review.UserName != "Ana" {
			t.Errorf("unexpected review %+v", review)
		}
		if code := c.do(http.MethodPost, "/reviews", models.ReviewInput{TrackID: "3135553", Rating: 4}, nil); code != http.StatusConflict {
			t.Errorf("expected 409 for second review, got %d", code)
		}

		var trackReviews []models.Review
		c.do(http.MethodGet, "/tracks/3135553/reviews", nil, &trackReviews)
		if len(trackReviews) != 1 {
			t.Errorf("expected 1 track review, got %d", len(trackReviews))
		}

		if code := c.do(http.MethodPost, "/favorites", map[string]string{"trackId": "13791932"}, nil); code != http.StatusCreated {
			t.Errorf("expected 201 adding favorite, got %d", code)
		}
		var favorites []models.Favorite
		c.do(http.MethodGet, "/favorites", nil, &favorites)
		if len(favorites) != 1 || favorites[0].TrackTitle != "D.A.N.C.E." {
			t.Errorf("unexpected favorites %+v", favorites)
		}

		var playlist models.Playlist
		c.do(http.MethodPost, "/playlists", models.PlaylistInput{Name: "Road"}, &playlist)
		c.do(http.MethodPost, "/playlists/"+itoa(playlist.ID)+"/tracks", map[string]string{"trackId": "13791930"}, nil)
		var detail models.PlaylistDetail
		c.do(http.MethodGet, "/playlists/"+itoa(playlist.ID), nil, &detail)
		if detail.TrackCount != 1 || len(detail.Tracks) != 1 {
			t.Errorf("unexpected playlist detail %+v", detail)
		}

		if code := c.do(http.MethodPost, "/follows/"+itoa(other.ID), nil, nil); code != http.StatusNoContent {
			t.Errorf("expected 204 following, got %d", code)
		}
		if code := c.do(http.MethodPost, "/follows/"+itoa(me.ID), nil, nil); code != http.StatusBadRequest {
			t.Errorf("expected 400 following self, got %d", code)
		}
		var profile models.Profile
		c.do(http.MethodGet, "/users/"+itoa(other.ID), nil, &profile)
		if !profile.IsFollowing || profile.Followers != 1 {
			t.Errorf("unexpected profile %+v", profile)
		}

		c.do(http.MethodPost, "/history", map[string]string{"query": "daft"}, nil)
		c.do(http.MethodPost, "/history", map[string]string{"query": "justice"}, nil)
		var history []models.SearchEntry
		c.do(http.MethodGet, "/history", nil, &history)
		if len(history) != 2 || history[0].Query != "justice" {
			t.Errorf("expected newest first, got %+v", history)
		}
		if code := c.do(http.MethodDelete, "/history", nil, nil); code != http.StatusNoContent {
			t.Errorf("expected 204 clearing history, got %d", code)
		}

		var results models.SearchResults
		c.do(http.MethodGet, "/catalog/search?q=daft", nil, &results)
		if len(results.Artists) != 1 || len(results.Tracks) != 3 {
			t.Errorf("unexpected search results %+v", results)
		}

		var album models.Album
		if code := c.do(http.MethodGet, "/catalog/artists/27/albums/302127", nil, &album); code != http.StatusOK || len(album.Tracks) != 3 {
			t.Errorf("unexpected album %d %+v", code, album)
		}
	})

	t.Run("Protected Endpoint Without Credential", func(t *testing.T) {
		_, c := newFakeServer(t)

		var body map[string]string
		if code := c.do(http.MethodGet, "/favorites", nil, &body); code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", code)
		}
		if body["message"] != "Authentication required" {
			t.Errorf("unexpected message %q", body["message"])
		}
	})

	t.Run("Failure Injection And Call Counting", func(t *testing.T) {
		fake, c := newFakeServer(t)
		fake.SetFailure("GET /api/catalog/search", http.StatusServiceUnavailable, "maintenance")

		var body map[string]string
		if code := c.do(http.MethodGet, "/catalog/search?q=x", nil, &body); code != http.StatusServiceUnavailable {
			t.Errorf("expected injected 503, got %d", code)
		}
		if body["message"] != "maintenance" {
			t.Errorf("unexpected message %q", body["message"])
		}
		if fake.Calls("GET /api/catalog/search") != 1 || fake.TotalCalls() != 1 {
			t.Errorf("expected exactly one counted call, got %d", fake.TotalCalls())
		}

		fake.ClearFailures()
		if code := c.do(http.MethodGet, "/catalog/search?q=x", nil, nil); code != http.StatusOK {
			t.Errorf("expected 200 after clearing failures, got %d", code)
		}
	})

	t.Run("Routes Carry Prefix", func(t *testing.T) {
		for _, route := range NewFakeAPI().Routes() {
			_, p, _ := strings.Cut(route, " ")
			if !strings.HasPrefix(p, APIPrefix+"/") {
				t.Errorf("route %q is not under %s", route, APIPrefix)
			}
		}
	})
}

func itoa(n int64) string {
	data, _ := json.Marshal(n)
	return string(data)
}
