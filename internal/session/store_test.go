package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/vorplay/internal/models"
	"github.com/desertthunder/vorplay/internal/server"
	"github.com/desertthunder/vorplay/internal/services"
	"github.com/desertthunder/vorplay/internal/shared"
	tu "github.com/desertthunder/vorplay/internal/testing"
)

type stubAuth struct {
	login    func(email, password string) (*models.AuthResult, error)
	register func(name, email, password string) (*models.AuthResult, error)
	current  func(ctx context.Context, credential string) (*models.Identity, error)
	calls    atomic.Int32
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	s.calls.Add(1)
	return s.login(email, password)
}

func (s *stubAuth) Register(ctx context.Context, name, email, password string) (*models.AuthResult, error) {
	s.calls.Add(1)
	return s.register(name, email, password)
}

func (s *stubAuth) CurrentUser(ctx context.Context, credential string) (*models.Identity, error) {
	s.calls.Add(1)
	return s.current(ctx, credential)
}

func snapshot(t *testing.T, identity models.Identity) []byte {
	t.Helper()
	data, err := json.Marshal(identity)
	if err != nil {
		t.Fatalf("marshal identity: %v", err)
	}
	return data
}

func currentReturns(identity *models.Identity, err error) *stubAuth {
	return &stubAuth{current: func(context.Context, string) (*models.Identity, error) { return identity, err }}
}

func TestStoreRestore(t *testing.T) {
	ctx := context.Background()
	stored := models.Identity{ID: 7, Email: "ana@x.io", Name: "Ana (stale)"}
	fresh := &models.Identity{ID: 7, Email: "ana@x.io", Name: "Ana"}

	t.Run("Valid Session Is Replaced By Server Profile", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("tok", snapshot(t, stored))
		auth := currentReturns(fresh, nil)
		store := NewStore(auth, persist, logger)

		if !store.Initializing() {
			t.Fatal("expected store to start initializing")
		}
		if err := store.Restore(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if store.Initializing() {
			t.Error("expected initializing to be false after restore")
		}
		if got := store.Identity(); got == nil || got.Name != "Ana" {
			t.Errorf("expected authoritative identity, got %+v", got)
		}
		if store.Credential() != "tok" {
			t.Errorf("expected credential kept, got %q", store.Credential())
		}

		cred, raw := persist.Snapshot()
		if cred != "tok" || !strings.Contains(string(raw), `"name":"Ana"`) {
			t.Errorf("expected refreshed snapshot, got %q %s", cred, raw)
		}
	})

	t.Run("Missing Values Skip Remote Call", func(t *testing.T) {
		tests := []struct {
			name       string
			credential string
			identity   []byte
		}{
			{"Neither", "", nil},
			{"Only Credential", "tok", nil},
			{"Only Identity", "", snapshot(t, stored)},
			{"Corrupt Identity", "tok", []byte("{not json")},
			{"Invalid Identity", "tok", []byte(`{"id":0}`)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				logger, _ := tu.NewTestLogger(t)
				persist := NewMemoryPersistence(tt.credential, tt.identity)
				auth := currentReturns(fresh, nil)
				store := NewStore(auth, persist, logger)

				store.Restore(ctx)

				if auth.calls.Load() != 0 {
					t.Errorf("expected no remote call, got %d", auth.calls.Load())
				}
				if store.Identity() != nil || store.Authenticated() || store.Initializing() {
					t.Error("expected logged-out, initialized store")
				}
				if cred, raw := persist.Snapshot(); cred != "" || len(raw) != 0 {
					t.Errorf("expected leftovers erased, got %q %s", cred, raw)
				}
			})
		}
	})

	t.Run("Rejected Session Is Erased", func(t *testing.T) {
		failures := []error{
			&services.APIError{StatusCode: 401, Message: "Invalid token", Kind: shared.ErrNotAuthenticated},
			&services.APIError{StatusCode: 500, Kind: shared.ErrServiceUnavailable},
			shared.ErrServiceUnavailable,
			shared.ErrMalformedResponse,
		}

		for _, failure := range failures {
			t.Run(failure.Error(), func(t *testing.T) {
				logger, _ := tu.NewTestLogger(t)
				persist := NewMemoryPersistence("tok", snapshot(t, stored))
				store := NewStore(currentReturns(nil, failure), persist, logger)

				if err := store.Restore(ctx); err != nil {
					t.Fatalf("expected restore to swallow failure, got %v", err)
				}
				if store.Identity() != nil || store.Credential() != "" {
					t.Error("expected no session after rejected restore")
				}
				if cred, raw := persist.Snapshot(); cred != "" || raw != nil && len(raw) != 0 {
					t.Errorf("expected persistence erased, got %q %s", cred, raw)
				}
				if store.Initializing() {
					t.Error("expected initializing false")
				}
			})
		}
	})

	t.Run("Load Failure Ends Logged Out", func(t *testing.T) {
		logger, buf := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("tok", snapshot(t, stored))
		persist.LoadErr = errors.New("disk gone")
		auth := currentReturns(fresh, nil)
		store := NewStore(auth, persist, logger)

		store.Restore(ctx)

		if store.Authenticated() || auth.calls.Load() != 0 {
			t.Error("expected logged-out store without remote call")
		}
		if !strings.Contains(buf.String(), "could not read stored session") {
			t.Errorf("expected warning, got %q", buf.String())
		}
	})

	t.Run("Refresh Write Failure Ends Logged Out", func(t *testing.T) {
		logger, buf := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("tok", snapshot(t, stored))
		persist.SaveErr = errors.New("read-only")
		store := NewStore(currentReturns(fresh, nil), persist, logger)

		store.Restore(ctx)

		if store.Authenticated() || store.Identity() != nil {
			t.Error("expected no session when the refreshed profile cannot be stored")
		}
		if cred, raw := persist.Snapshot(); cred != "" || len(raw) != 0 {
			t.Errorf("expected stale snapshot erased, got %q %s", cred, raw)
		}
		if !strings.Contains(buf.String(), "could not refresh stored profile") {
			t.Errorf("expected warning, got %q", buf.String())
		}
	})

	t.Run("Interrupted Check Keeps Persistence", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("tok", snapshot(t, stored))
		auth := &stubAuth{current: func(ctx context.Context, _ string) (*models.Identity, error) {
			return nil, ctx.Err()
		}}
		store := NewStore(auth, persist, logger)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		store.Restore(cctx)

		if store.Authenticated() {
			t.Error("expected unauthenticated memory")
		}
		if cred, _ := persist.Snapshot(); cred != "tok" {
			t.Error("expected stored session kept for the next start")
		}
	})

	t.Run("Concurrent Restore Is Rejected", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		started := make(chan struct{})
		release := make(chan struct{})
		auth := &stubAuth{current: func(context.Context, string) (*models.Identity, error) {
			close(started)
			<-release
			return fresh, nil
		}}
		store := NewStore(auth, NewMemoryPersistence("tok", snapshot(t, stored)), logger)

		done := make(chan error, 1)
		go func() { done <- store.Restore(ctx) }()
		<-started

		if !store.Initializing() {
			t.Error("expected initializing while restore is in flight")
		}
		if store.Authenticated() {
			t.Error("expected no identity published before restore finishes")
		}
		if err := store.Restore(ctx); !errors.Is(err, shared.ErrRestoreInProgress) {
			t.Errorf("expected ErrRestoreInProgress, got %v", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !store.Authenticated() || store.Initializing() {
			t.Error("expected restored, initialized store")
		}
	})

	t.Run("Sequential Restore Reloads", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("tok", snapshot(t, stored))
		auth := currentReturns(fresh, nil)
		store := NewStore(auth, persist, logger)

		store.Restore(ctx)
		store.Restore(ctx)

		if auth.calls.Load() != 2 {
			t.Errorf("expected one remote call per restore, got %d", auth.calls.Load())
		}
		if !store.Authenticated() {
			t.Error("expected session to survive reload")
		}
	})
}

func TestStoreLogin(t *testing.T) {
	ctx := context.Background()
	identity := models.Identity{ID: 3, Email: "bo@x.io", Name: "Bo"}
	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	okAuth := func() *stubAuth {
		return &stubAuth{login: func(email, password string) (*models.AuthResult, error) {
			return &models.AuthResult{Token: "tok-bo", ExpiresAt: &expires, User: identity}, nil
		}}
	}

	t.Run("Success Publishes And Persists", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("", nil)
		store := NewStore(okAuth(), persist, logger)

		if err := store.Login(ctx, "bo@x.io", "pw"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !store.Authenticated() || store.Credential() != "tok-bo" || store.Identity().ID != 3 {
			t.Errorf("unexpected session %q %+v", store.Credential(), store.Identity())
		}
		if got, ok := store.ExpiresAt(); !ok || !got.Equal(expires) {
			t.Errorf("expected expiry %v, got %v", expires, got)
		}
		if cred, raw := persist.Snapshot(); cred != "tok-bo" || !strings.Contains(string(raw), "bo@x.io") {
			t.Errorf("expected persisted session, got %q %s", cred, raw)
		}
	})

	t.Run("Rejected Login Keeps Previous Session", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("", nil)
		auth := okAuth()
		store := NewStore(auth, persist, logger)
		store.Login(ctx, "bo@x.io", "pw")

		rejection := &services.APIError{StatusCode: 401, Message: "Invalid email or password", Kind: shared.ErrInvalidCredentials}
		auth.login = func(string, string) (*models.AuthResult, error) { return nil, rejection }

		err := store.Login(ctx, "bo@x.io", "bad")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if err.Error() != "Invalid email or password" {
			t.Errorf("expected verbatim message, got %q", err.Error())
		}
		if store.Credential() != "tok-bo" || store.Identity().Name != "Bo" {
			t.Error("expected previous session untouched")
		}
		if cred, _ := persist.Snapshot(); cred != "tok-bo" {
			t.Error("expected previous persisted session untouched")
		}
	})

	t.Run("Transport Failure Is Descriptive", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		auth := &stubAuth{login: func(string, string) (*models.AuthResult, error) {
			return nil, shared.ErrServiceUnavailable
		}}
		store := NewStore(auth, NewMemoryPersistence("", nil), logger)

		err := store.Login(ctx, "bo@x.io", "pw")
		if !errors.Is(err, shared.ErrAuthFailed) || !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected wrapped auth failure, got %v", err)
		}
		if store.Authenticated() {
			t.Error("expected no session")
		}
	})

	t.Run("Persistence Failure Publishes Nothing", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("", nil)
		persist.SaveErr = errors.New("disk full")
		store := NewStore(okAuth(), persist, logger)

		err := store.Login(ctx, "bo@x.io", "pw")
		if !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
		if store.Authenticated() {
			t.Error("expected memory untouched when persistence fails")
		}
	})

	t.Run("Register", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		auth := &stubAuth{register: func(name, email, password string) (*models.AuthResult, error) {
			return &models.AuthResult{Token: "tok-new", User: models.Identity{ID: 9, Email: email, Name: name}}, nil
		}}
		store := NewStore(auth, NewMemoryPersistence("", nil), logger)

		if err := store.Register(ctx, "Cy", "cy@x.io", "pw1234"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if store.Identity().Name != "Cy" || store.Credential() != "tok-new" {
			t.Error("expected new session")
		}
	})
}

func TestStoreLogout(t *testing.T) {
	ctx := context.Background()
	identity := models.Identity{ID: 3, Email: "bo@x.io"}
	auth := &stubAuth{login: func(string, string) (*models.AuthResult, error) {
		return &models.AuthResult{Token: "tok", User: identity}, nil
	}}

	t.Run("Clears Both Sides And Is Idempotent", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("", nil)
		store := NewStore(auth, persist, logger)
		store.Login(ctx, "bo@x.io", "pw")

		for range 2 {
			if err := store.Logout(ctx); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if store.Authenticated() || store.Identity() != nil || store.Credential() != "" {
			t.Error("expected logged out")
		}
		if cred, raw := persist.Snapshot(); cred != "" || len(raw) != 0 {
			t.Error("expected persistence erased")
		}
	})

	t.Run("Clear Failure Keeps Session", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("", nil)
		store := NewStore(auth, persist, logger)
		store.Login(ctx, "bo@x.io", "pw")
		persist.ClearErr = errors.New("locked")

		if err := store.Logout(ctx); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
		if !store.Authenticated() {
			t.Error("expected memory to match persistence after failed logout")
		}
	})

	t.Run("Restore After Logout Makes No Remote Call", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("", nil)
		store := NewStore(auth, persist, logger)
		store.Login(ctx, "bo@x.io", "pw")
		store.Logout(ctx)

		before := auth.calls.Load()
		if err := store.Restore(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := auth.calls.Load() - before; got != 0 {
			t.Errorf("expected no remote calls, got %d", got)
		}
		if store.Identity() != nil || store.Initializing() {
			t.Error("expected restored store logged out and initialized")
		}
	})
}

func TestStoreUpdateIdentity(t *testing.T) {
	ctx := context.Background()
	identity := models.Identity{ID: 3, Email: "bo@x.io", Name: "Bo"}
	auth := &stubAuth{login: func(string, string) (*models.AuthResult, error) {
		return &models.AuthResult{Token: "tok", User: identity}, nil
	}}

	t.Run("Requires Session", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		store := NewStore(auth, NewMemoryPersistence("", nil), logger)

		if err := store.UpdateIdentity(ctx, identity); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Rejects Other User", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		store := NewStore(auth, NewMemoryPersistence("", nil), logger)
		store.Login(ctx, "bo@x.io", "pw")

		other := models.Identity{ID: 4, Email: "x@x.io"}
		if err := store.UpdateIdentity(ctx, other); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Replaces Identity And Keeps Credential", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		persist := NewMemoryPersistence("", nil)
		store := NewStore(auth, persist, logger)
		store.Login(ctx, "bo@x.io", "pw")

		renamed := identity
		renamed.Name = "Bobby"
		if err := store.UpdateIdentity(ctx, renamed); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if store.Identity().Name != "Bobby" || store.Credential() != "tok" {
			t.Error("expected renamed identity with same credential")
		}
		if _, raw := persist.Snapshot(); !strings.Contains(string(raw), "Bobby") {
			t.Errorf("expected persisted snapshot updated, got %s", raw)
		}
	})

	t.Run("Restore Reloads Server Profile", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		server := &models.Identity{ID: 3, Email: "bo@x.io", Name: "Bo (server)"}
		auth := &stubAuth{
			login: func(string, string) (*models.AuthResult, error) {
				return &models.AuthResult{Token: "tok", User: identity}, nil
			},
			current: func(context.Context, string) (*models.Identity, error) { return server, nil },
		}
		persist := NewMemoryPersistence("", nil)
		store := NewStore(auth, persist, logger)
		store.Login(ctx, "bo@x.io", "pw")

		patched := identity
		patched.Name = "Bobby (local)"
		if err := store.UpdateIdentity(ctx, patched); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		before := auth.calls.Load()
		if err := store.Restore(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := auth.calls.Load() - before; got != 1 {
			t.Errorf("expected one profile fetch, got %d", got)
		}
		if got := store.Identity(); got == nil || got.Name != "Bo (server)" {
			t.Errorf("expected server profile after reload, got %+v", got)
		}
		if _, raw := persist.Snapshot(); !strings.Contains(string(raw), "Bo (server)") {
			t.Errorf("expected snapshot rewritten with server profile, got %s", raw)
		}
	})

	t.Run("Returned Identity Is A Copy", func(t *testing.T) {
		logger, _ := tu.NewTestLogger(t)
		picture := "https://cdn.example/bo.png"
		created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		withPicture := models.Identity{ID: 3, Email: "bo@x.io", Name: "Bo", ProfilePicture: &picture, CreatedAt: &created}
		result := &models.AuthResult{Token: "tok", User: withPicture}
		auth := &stubAuth{login: func(string, string) (*models.AuthResult, error) { return result, nil }}
		store := NewStore(auth, NewMemoryPersistence("", nil), logger)
		store.Login(ctx, "bo@x.io", "pw")

		got := store.Identity()
		got.Name = "mutated"
		*got.ProfilePicture = "mutated"
		*got.CreatedAt = time.Time{}
		picture = "changed by caller"

		after := store.Identity()
		if after.Name != "Bo" || *after.ProfilePicture != "https://cdn.example/bo.png" || !after.CreatedAt.Equal(created) {
			t.Errorf("expected store identity unaffected by caller mutation, got %+v", after)
		}

		updatedPicture := "https://cdn.example/new.png"
		update := withPicture
		update.ProfilePicture = &updatedPicture
		if err := store.UpdateIdentity(ctx, update); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		updatedPicture = "changed by caller"
		if *store.Identity().ProfilePicture != "https://cdn.example/new.png" {
			t.Error("expected UpdateIdentity to keep its own copy of the picture")
		}
	})
}

func TestStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	logger, _ := tu.NewTestLogger(t)
	auth := &stubAuth{login: func(string, string) (*models.AuthResult, error) {
		return &models.AuthResult{Token: "tok", User: models.Identity{ID: 1, Email: "a@x.io"}}, nil
	}}
	store := NewStore(auth, NewMemoryPersistence("", nil), logger)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				if i%2 == 0 {
					store.Login(ctx, "a@x.io", "pw")
					store.Logout(ctx)
				} else {
					identity, credential := store.Identity(), store.Credential()
					_ = identity
					_ = credential
					store.Authenticated()
				}
			}
		}()
	}
	wg.Wait()
}

func TestStoreWithFakeAPI(t *testing.T) {
	ctx := context.Background()
	logger, _ := tu.NewTestLogger(t)
	fake := server.NewFakeAPI()
	fake.AddUser("Ana", "ana@x.io", "secret1")
	ts := httptest.NewServer(server.New(logger, fake))
	defer ts.Close()

	api := services.NewVorplayService(services.NewAPIService(ts.URL+server.APIPrefix, ts.Client()))
	persist := NewMemoryPersistence("", nil)

	first := NewStore(api, persist, logger)
	first.Restore(ctx)
	if fake.TotalCalls() != 0 {
		t.Fatalf("expected no remote call with empty storage, got %d", fake.TotalCalls())
	}
	if err := first.Login(ctx, "ana@x.io", "secret1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	second := NewStore(api, persist, logger)
	second.Restore(ctx)
	if !second.Authenticated() || second.Identity().Email != "ana@x.io" {
		t.Fatal("expected session restored in a new store")
	}
	if fake.Calls("GET /api/users/me") != 1 {
		t.Errorf("expected exactly one profile fetch, got %d", fake.Calls("GET /api/users/me"))
	}

	fake.Revoke(second.Credential())
	third := NewStore(api, persist, logger)
	third.Restore(ctx)
	if third.Authenticated() {
		t.Error("expected revoked session to be discarded")
	}
	if cred, _ := persist.Snapshot(); cred != "" {
		t.Error("expected revoked credential erased")
	}

	if err := third.Register(ctx, "Ana", "ana@x.io", "secret1"); !errors.Is(err, shared.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}
