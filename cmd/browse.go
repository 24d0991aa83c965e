package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/vorplay/internal/formatter"
	"github.com/desertthunder/vorplay/internal/router"
	"github.com/desertthunder/vorplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// parseNavigation accepts either a full query string or a bare section name.
func parseNavigation(raw string) (router.State, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.ContainsAny(raw, "=&") {
		return router.To(router.ParseSection(raw)), nil
	}
	return router.ParseState(raw)
}

// render loads state through the section loader and prints it.
func (r *Runner) render(ctx context.Context, state router.State, asJSON bool) error {
	if err := r.boot(ctx); err != nil {
		return err
	}

	content, err := r.loader.Load(ctx, state)
	if err != nil {
		return err
	}
	if asJSON {
		return r.writeJSON(content, true)
	}
	return formatter.RenderContent(r.output, content)
}

// Open renders the section a navigation state resolves to.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	state, err := parseNavigation(cmd.StringArg("state"))
	if err != nil {
		return err
	}
	return r.render(ctx, router.Normalize(state), cmd.Bool("json"))
}

// Search renders the results section for the query. Logged-in searches are recorded in the search history.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}
	return r.render(ctx, router.ResultsState(query), cmd.Bool("json"))
}

// Web opens the hosted web client at the given navigation state.
func (r *Runner) Web(ctx context.Context, cmd *cli.Command) error {
	state, err := parseNavigation(cmd.StringArg("state"))
	if err != nil {
		return err
	}

	link, err := shared.DeepLink(r.config.API.WebURL, router.Normalize(state).Encode())
	if err != nil {
		return err
	}

	if cmd.Bool("print") {
		return r.writePlain("%s\n", link)
	}

	r.logger.Info("opening web client", "url", link)
	if err := r.openURL(link); err != nil {
		r.logger.Warn("could not open browser", "err", err)
		return r.writePlain("Open this link in your browser:\n%s\n", link)
	}
	return r.writePlain("✓ Opened %s\n", link)
}

func itemCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
