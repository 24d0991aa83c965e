package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/vorplay/internal/confirm"
	"github.com/desertthunder/vorplay/internal/models"
	"github.com/desertthunder/vorplay/internal/router"
	"github.com/desertthunder/vorplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// AccountShow prints the account section, or the raw profile with --json.
func (r *Runner) AccountShow(ctx context.Context, cmd *cli.Command) error {
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		identity, err := r.vorplay.CurrentUser(ctx, credential)
		if err != nil {
			return err
		}
		return r.writeJSON(identity, true)
	}
	return r.render(ctx, router.To(router.SectionAccount), false)
}

// AccountUpdate changes the display name and/or email, then refreshes the stored identity.
func (r *Runner) AccountUpdate(ctx context.Context, cmd *cli.Command) error {
	var patch models.ProfilePatch
	if cmd.IsSet("name") {
		name := cmd.String("name")
		patch.Name = &name
	}
	if cmd.IsSet("email") {
		email := cmd.String("email")
		patch.Email = &email
	}
	if patch.Name == nil && patch.Email == nil {
		return fmt.Errorf("%w: pass --name and/or --email", shared.ErrMissingArgument)
	}

	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}

	identity, err := r.vorplay.UpdateProfile(ctx, credential, patch)
	if err != nil {
		return err
	}
	if err := r.store.UpdateIdentity(ctx, *identity); err != nil {
		return err
	}
	return r.writePlain("✓ Profile updated: %s <%s>\n", identity.DisplayName(), identity.Email)
}

// AccountAvatar uploads the image at path as the profile picture.
func (r *Runner) AccountAvatar(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	defer f.Close()

	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}

	identity, err := r.vorplay.UploadAvatar(ctx, credential, filepath.Base(path), f)
	if err != nil {
		return err
	}
	if err := r.store.UpdateIdentity(ctx, *identity); err != nil {
		return err
	}
	return r.writePlain("✓ Profile picture updated\n")
}

// AccountDelete deletes the account after confirmation and ends the session.
func (r *Runner) AccountDelete(ctx context.Context, cmd *cli.Command) error {
	credential, err := r.credential(ctx)
	if err != nil {
		return err
	}

	intent := confirm.Intent{Action: "Permanently delete", Target: "your account"}
	err = confirm.Run(ctx, r.confirmer(cmd), intent, func(ctx context.Context) error {
		if err := r.vorplay.DeleteAccount(ctx, credential); err != nil {
			return err
		}
		return r.store.Logout(ctx)
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Account deleted\n")
}
