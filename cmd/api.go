package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/vorplay/internal/services"
	"github.com/desertthunder/vorplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request with the stored credential, if any.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	if err := r.boot(ctx); err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path, r.store.Credential())
	if err != nil {
		return err
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request with a JSON body and the stored credential, if any.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var body any
	if err := json.Unmarshal([]byte(data), &body); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}
	if err := r.boot(ctx); err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.api.Do(ctx, http.MethodPost, path, body, r.store.Credential())
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if !resp.OK() {
		return resp.Err()
	}
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if len(resp.Body) == 0 {
		return r.writePlain("%d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return r.writePlain("%s\n", resp.Body)
}
