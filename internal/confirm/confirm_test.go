package confirm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tu "github.com/desertthunder/vorplay/internal/testing"
)

func TestIntent(t *testing.T) {
	if got := (Intent{Action: "Delete playlist", Target: `"Road"`}).Prompt(); got != `Delete playlist "Road"?` {
		t.Errorf("unexpected prompt %q", got)
	}
	if got := (Intent{Action: "Clear search history"}).Prompt(); got != "Clear search history?" {
		t.Errorf("unexpected prompt %q", got)
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	intent := Intent{Action: "Delete review"}

	t.Run("Approved Executes", func(t *testing.T) {
		ran := false
		err := Run(ctx, Always(true), intent, func(context.Context) error { ran = true; return nil })
		if err != nil || !ran {
			t.Errorf("expected execution, got ran=%v err=%v", ran, err)
		}
	})

	t.Run("Declined Skips", func(t *testing.T) {
		ran := false
		err := Run(ctx, Always(false), intent, func(context.Context) error { ran = true; return nil })
		if !errors.Is(err, ErrDeclined) || ran {
			t.Errorf("expected ErrDeclined without execution, got ran=%v err=%v", ran, err)
		}
	})

	t.Run("Confirmer Error", func(t *testing.T) {
		boom := errors.New("tty closed")
		c := ConfirmerFunc(func(context.Context, Intent) (bool, error) { return false, boom })
		if err := Run(ctx, c, intent, func(context.Context) error { return nil }); !errors.Is(err, boom) {
			t.Errorf("expected confirmer error, got %v", err)
		}
	})

	t.Run("Action Error Propagates", func(t *testing.T) {
		boom := errors.New("404")
		if err := Run(ctx, Always(true), intent, func(context.Context) error { return boom }); !errors.Is(err, boom) {
			t.Errorf("expected action error, got %v", err)
		}
	})
}

func TestRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolves Once", func(t *testing.T) {
		calls := 0
		req := NewRequest(Intent{Action: "Unfollow"}, func(context.Context) error { calls++; return nil })

		if err := req.Resolve(ctx, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		req.Resolve(ctx, true)
		if calls != 1 {
			t.Errorf("expected a single execution, got %d", calls)
		}
	})

	t.Run("Declined", func(t *testing.T) {
		calls := 0
		req := NewRequest(Intent{Action: "Unfollow"}, func(context.Context) error { calls++; return nil })

		if err := req.Resolve(ctx, false); !errors.Is(err, ErrDeclined) {
			t.Errorf("expected ErrDeclined, got %v", err)
		}
		if err := req.Resolve(ctx, true); err != nil || calls != 0 {
			t.Errorf("expected later resolve to be ignored, got calls=%d err=%v", calls, err)
		}
	})
}

func TestPromptConfirmer(t *testing.T) {
	ctx := context.Background()
	intent := Intent{Action: "Delete account"}

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes ", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := PromptConfirmer{In: strings.NewReader(tt.input), Out: &out}.Confirm(ctx, intent)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("input %q: got %v, want %v", tt.input, got, tt.want)
			}
			if out.String() != "Delete account? [y/N]: " {
				t.Errorf("unexpected prompt %q", out.String())
			}
		})
	}

	t.Run("Read Failure", func(t *testing.T) {
		var out bytes.Buffer
		_, err := PromptConfirmer{In: &tu.FCloser{}, Out: &out}.Confirm(ctx, intent)
		if err == nil || !strings.Contains(err.Error(), "failed to read confirmation") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}
