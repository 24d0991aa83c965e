package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/vorplay/internal/server"
	"github.com/urfave/cli/v3"
)

// DevAPI serves the in-memory API until ctx is canceled.
func (r *Runner) DevAPI(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}

	fake := server.NewFakeAPI()
	if !cmd.Bool("empty") {
		demo := fake.SeedDemo()
		r.logger.Info("seeded demo data", "email", demo.Email, "password", server.DemoPassword)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           server.New(r.logger, fake),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		r.logger.Info("dev API listening", "url", fmt.Sprintf("http://%s%s", srv.Addr, server.APIPrefix))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dev API failed: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down dev API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
