package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/vorplay/internal/models"
	"github.com/urfave/cli/v3"
)

// AuthLogin logs in with email and password, prompting for whatever the flags leave out.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.boot(ctx); err != nil {
		return err
	}

	email, err := r.valueOrPrompt(cmd, "email", "Email")
	if err != nil {
		return err
	}
	password, err := r.valueOrPrompt(cmd, "password", "Password")
	if err != nil {
		return err
	}

	r.logger.Info("logging in", "email", email)
	if err := r.store.Login(ctx, email, password); err != nil {
		return err
	}

	return r.writePlain("✓ Logged in as %s\n", r.store.Identity().DisplayName())
}

// AuthRegister creates an account and starts a session for it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.boot(ctx); err != nil {
		return err
	}

	name, err := r.valueOrPrompt(cmd, "name", "Name")
	if err != nil {
		return err
	}
	email, err := r.valueOrPrompt(cmd, "email", "Email")
	if err != nil {
		return err
	}
	password, err := r.valueOrPrompt(cmd, "password", "Password")
	if err != nil {
		return err
	}

	r.logger.Info("registering", "email", email)
	if err := r.store.Register(ctx, name, email, password); err != nil {
		return err
	}

	return r.writePlain("✓ Welcome, %s! You are now logged in.\n", r.store.Identity().DisplayName())
}

// AuthLogout forgets the stored session. Logging out without a session succeeds.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(); err != nil {
		return err
	}
	if err := r.store.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

type authStatus struct {
	Authenticated bool             `json:"authenticated"`
	User          *models.Identity `json:"user,omitempty"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
}

// AuthStatus restores the stored session, which verifies it with the API, and reports the outcome.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.boot(ctx); err != nil {
		return err
	}

	status := authStatus{Authenticated: r.store.Authenticated(), User: r.store.Identity()}
	if exp, ok := r.store.ExpiresAt(); ok {
		status.ExpiresAt = &exp
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.Authenticated {
		return r.writePlain("Not logged in\n")
	}

	r.writePlain("✓ Logged in as %s <%s>\n", status.User.DisplayName(), status.User.Email)
	if status.ExpiresAt != nil {
		r.writePlain("Session expires: %s (%s)\n", status.ExpiresAt.Local().Format(time.RFC1123), describeExpiry(*status.ExpiresAt, time.Now()))
	}
	return nil
}

func describeExpiry(exp time.Time, now time.Time) string {
	if !exp.After(now) {
		return "expired"
	}
	return fmt.Sprintf("in %s", exp.Sub(now).Round(time.Minute))
}
