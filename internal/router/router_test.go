package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/vorplay/internal/shared"
)

func TestResolveSection(t *testing.T) {
	tests := []struct {
		section string
		want    SectionKind
	}{
		{"reviews", SectionReviews},
		{"FAVORITES", SectionFavorites},
		{"Playlists", SectionPlaylists},
		{"history", SectionHistory},
		{"follows", SectionFollows},
		{"account", SectionAccount},
		{"user", SectionUser},
		{"follower", SectionUser},
		{"Follower", SectionUser},
		{"results", SectionResults},
		{"track", SectionTrack},
		{"artist", SectionArtist},
		{"album", SectionAlbum},
		{"playlist", SectionPlaylist},
		{"welcome", SectionWelcome},
		{" track ", SectionTrack},
		{"", SectionWelcome},
		{"BOGUS", SectionWelcome},
	}

	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			if got := ResolveSection(State{Section: tt.section}); got != tt.want {
				t.Errorf("ResolveSection(%q) = %q, want %q", tt.section, got, tt.want)
			}
		})
	}
}

func TestSectionKind(t *testing.T) {
	t.Run("Auth Required", func(t *testing.T) {
		for _, kind := range []SectionKind{SectionReviews, SectionFavorites, SectionPlaylists, SectionHistory, SectionFollows, SectionAccount} {
			if !kind.RequiresAuth() {
				t.Errorf("expected %s to require auth", kind)
			}
		}
		for _, kind := range []SectionKind{SectionWelcome, SectionResults, SectionTrack, SectionArtist, SectionAlbum, SectionPlaylist, SectionUser} {
			if kind.RequiresAuth() {
				t.Errorf("expected %s to be public", kind)
			}
		}
	})

	t.Run("Labels", func(t *testing.T) {
		for _, kind := range Sidebar() {
			if kind.Label() == "" {
				t.Errorf("expected label for %s", kind)
			}
		}
		if SectionKind("bogus").Label() != "Home" {
			t.Error("expected unknown kind to use the welcome label")
		}
	})
}

func TestState(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		state, err := ParseState("?section=album&artistId=27&albumId=302127")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if state.Section != "album" || state.ArtistID != "27" || state.AlbumID != "302127" {
			t.Errorf("unexpected state %+v", state)
		}
	})

	t.Run("Parse Invalid", func(t *testing.T) {
		if _, err := ParseState("section=%zz"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Encode", func(t *testing.T) {
		got := ResultsState("daft punk").Encode()
		if got != "query=daft+punk&section=results" {
			t.Errorf("unexpected encoding %q", got)
		}

		back, _ := ParseState(got)
		if back != ResultsState("daft punk") {
			t.Errorf("expected round trip, got %+v", back)
		}
	})

	t.Run("Normalize Drops Unrelated Parameters", func(t *testing.T) {
		dirty := State{Section: "Album", Query: "q", TrackID: "1", ArtistID: "2", AlbumID: "3", PlaylistID: "4", UserID: "5"}

		tests := []struct {
			section string
			want    State
		}{
			{"results", State{Section: "results", Query: "q"}},
			{"track", State{Section: "track", TrackID: "1"}},
			{"artist", State{Section: "artist", ArtistID: "2"}},
			{"ALBUM", State{Section: "album", ArtistID: "2", AlbumID: "3"}},
			{"playlist", State{Section: "playlist", PlaylistID: "4"}},
			{"follower", State{Section: "user", UserID: "5"}},
			{"playlists", State{Section: "playlists"}},
			{"nowhere", State{Section: "welcome"}},
		}

		for _, tt := range tests {
			t.Run(tt.section, func(t *testing.T) {
				s := dirty
				s.Section = tt.section
				if got := Normalize(s); got != tt.want {
					t.Errorf("Normalize = %+v, want %+v", got, tt.want)
				}
			})
		}
	})

	t.Run("Deep Links", func(t *testing.T) {
		if PlaylistState(12).PlaylistID != "12" || UserState(7).UserID != "7" {
			t.Error("expected numeric ids formatted")
		}
		if AlbumState("1", "2").Kind() != SectionAlbum {
			t.Error("expected album kind")
		}
	})
}

func TestRouter(t *testing.T) {
	t.Run("Starts Normalized", func(t *testing.T) {
		r := New(State{Section: "TRACK", TrackID: "9", Query: "x"})
		if r.Current() != TrackState("9") {
			t.Errorf("unexpected initial state %+v", r.Current())
		}
	})

	t.Run("Search Clears Previous Identifiers", func(t *testing.T) {
		r := New(State{})
		r.Navigate(TrackState("42"))
		got := r.Search("daft punk")

		if r.Section() != SectionResults {
			t.Errorf("expected results section, got %s", r.Section())
		}
		if got.Query != "daft punk" || got.TrackID != "" {
			t.Errorf("unexpected state %+v", got)
		}
	})

	t.Run("Switching Sections Drops Track", func(t *testing.T) {
		r := New(TrackState("42"))
		r.Navigate(State{Section: "playlists", TrackID: "42"})

		if r.Current().TrackID != "" {
			t.Error("expected trackId cleared")
		}
	})

	t.Run("Unknown Section Falls Back", func(t *testing.T) {
		r := New(State{})
		r.Navigate(State{Section: "BOGUS"})
		if r.Section() != SectionWelcome {
			t.Errorf("expected welcome, got %s", r.Section())
		}
	})

	t.Run("Back And Forward", func(t *testing.T) {
		r := New(State{})
		r.Navigate(To(SectionReviews))
		r.Navigate(To(SectionFavorites))

		if _, ok := r.Forward(); ok {
			t.Error("expected no forward entry")
		}
		if s, ok := r.Back(); !ok || s.Kind() != SectionReviews {
			t.Errorf("expected back to reviews, got %+v", s)
		}
		if s, ok := r.Back(); !ok || s.Kind() != SectionWelcome {
			t.Errorf("expected back to welcome, got %+v", s)
		}
		if _, ok := r.Back(); ok {
			t.Error("expected no earlier entry")
		}
		if s, ok := r.Forward(); !ok || s.Kind() != SectionReviews {
			t.Errorf("expected forward to reviews, got %+v", s)
		}

		r.Navigate(To(SectionHistory))
		if _, ok := r.Forward(); ok {
			t.Error("expected navigate to drop forward history")
		}
	})

	t.Run("Repeated Navigation Adds No Entry", func(t *testing.T) {
		r := New(State{})
		r.Navigate(To(SectionAccount))
		r.Navigate(State{Section: "Account"})

		if s, _ := r.Back(); s.Kind() != SectionWelcome {
			t.Errorf("expected a single account entry, got %+v", s)
		}
	})
}

func TestSequencer(t *testing.T) {
	t.Run("Later Fetch Wins", func(t *testing.T) {
		var seq Sequencer
		ctxA, a := seq.Begin(context.Background())
		_, b := seq.Begin(context.Background())

		if seq.IsLatest(a) {
			t.Error("expected first ticket to be stale")
		}
		if !seq.IsLatest(b) {
			t.Error("expected second ticket to be latest")
		}
		if ctxA.Err() == nil {
			t.Error("expected first fetch to be canceled")
		}
	})

	t.Run("Out Of Order Responses", func(t *testing.T) {
		var seq Sequencer
		var mu sync.Mutex
		var applied []string

		fetch := func(query string, delay time.Duration, wg *sync.WaitGroup) {
			_, ticket := seq.Begin(context.Background())
			go func() {
				defer wg.Done()
				time.Sleep(delay)
				if seq.IsLatest(ticket) {
					mu.Lock()
					applied = append(applied, query)
					mu.Unlock()
				}
			}()
		}

		var wg sync.WaitGroup
		wg.Add(2)
		fetch("a", 40*time.Millisecond, &wg)
		fetch("ab", 0, &wg)
		wg.Wait()

		if len(applied) != 1 || applied[0] != "ab" {
			t.Errorf("expected only ab applied, got %v", applied)
		}
	})

	t.Run("Finish And Stop", func(t *testing.T) {
		var seq Sequencer
		ctx, ticket := seq.Begin(context.Background())
		seq.Finish(ticket)

		if ctx.Err() == nil {
			t.Error("expected finished fetch context released")
		}
		if !seq.IsLatest(ticket) {
			t.Error("expected finished ticket to stay latest")
		}

		seq.Stop()
		if seq.IsLatest(ticket) {
			t.Error("expected stop to invalidate outstanding tickets")
		}
	})
}
