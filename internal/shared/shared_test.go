package shared

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
)

type messageError struct{ msg string }

func (e *messageError) Error() string         { return "status 401: " + e.msg }
func (e *messageError) ServerMessage() string { return e.msg }

func TestFormatting(t *testing.T) {
	t.Run("FormatDuration", func(t *testing.T) {
		tt := []struct {
			seconds int
			want    string
		}{
			{0, "0:00"},
			{59, "0:59"},
			{61, "1:01"},
			{600, "10:00"},
			{-5, "0:00"},
		}
		for _, tc := range tt {
			if got := FormatDuration(tc.seconds); got != tc.want {
				t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
			}
		}
	})

	t.Run("Stars", func(t *testing.T) {
		if got := Stars(3); got != "★★★☆☆" {
			t.Errorf("Stars(3) = %q", got)
		}
		if got := Stars(9); got != "★★★★★" {
			t.Errorf("Stars(9) = %q", got)
		}
		if got := Stars(-1); got != "☆☆☆☆☆" {
			t.Errorf("Stars(-1) = %q", got)
		}
	})
}

func TestUserMessage(t *testing.T) {
	tt := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "server message verbatim", err: fmt.Errorf("login: %w", &messageError{msg: "Invalid credentials"}), want: "Invalid credentials"},
		{name: "missing credential", err: fmt.Errorf("%w: reviews", ErrNotAuthenticated), want: "Please log in to continue."},
		{name: "transport failure", err: fmt.Errorf("%w: request failed: dial tcp", ErrServiceUnavailable), want: "Could not reach Vorplay. Check your connection and try again."},
		{name: "malformed", err: fmt.Errorf("%w: eof", ErrMalformedResponse), want: "Vorplay sent an unexpected response. Please try again."},
		{name: "other", err: errors.New("boom"), want: "boom"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := UserMessage(tc.err); got != tc.want {
				t.Errorf("UserMessage() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	t.Run("JWT With Exp", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(exp),
		}).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		got, ok := TokenExpiry(token)
		if !ok {
			t.Fatal("expected expiry to be found")
		}
		if !got.Equal(exp) {
			t.Errorf("expected %v, got %v", exp, got)
		}
	})

	t.Run("JWT Without Exp", func(t *testing.T) {
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("secret"))
		if _, ok := TokenExpiry(token); ok {
			t.Error("expected no expiry")
		}
	})

	t.Run("Opaque Token", func(t *testing.T) {
		if _, ok := TokenExpiry("not-a-jwt"); ok {
			t.Error("expected no expiry for opaque token")
		}
	})
}

func TestDeepLink(t *testing.T) {
	got, err := DeepLink("https://vorplay.test/app/", "section=track&trackId=42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://vorplay.test/app/?section=track&trackId=42" {
		t.Errorf("DeepLink() = %s", got)
	}

	if _, err := DeepLink("not a url", ""); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBrowserCommand(t *testing.T) {
	original := getRuntime
	defer func() { getRuntime = original }()

	getRuntime = func() string { return "linux" }
	cmd, err := browserCommand("https://vorplay.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(cmd.Path, "xdg-open") && cmd.Args[0] != "xdg-open" {
		t.Errorf("expected xdg-open, got %v", cmd.Args)
	}

	getRuntime = func() string { return "plan9" }
	if _, err := browserCommand("https://vorplay.test"); err == nil {
		t.Error("expected unsupported platform error")
	}
}

func TestLoggers(t *testing.T) {
	t.Run("SetLogLevel", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		if err := SetLogLevel(logger, "warn"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", logger.GetLevel())
		}

		logger.Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("info should be filtered at warn level, got %q", buf.String())
		}

		if err := SetLogLevel(logger, "loud"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "tui.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("hello")
	})

	t.Run("GenerateID", func(t *testing.T) {
		if a, b := GenerateID(), GenerateID(); a == b || len(a) != 36 {
			t.Errorf("expected two distinct uuids, got %q and %q", a, b)
		}
	})
}
