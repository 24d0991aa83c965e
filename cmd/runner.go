package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vorplay/internal/confirm"
	"github.com/desertthunder/vorplay/internal/repositories"
	"github.com/desertthunder/vorplay/internal/sections"
	"github.com/desertthunder/vorplay/internal/services"
	"github.com/desertthunder/vorplay/internal/session"
	"github.com/desertthunder/vorplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	vorplay    *services.VorplayService
	persist    session.Persistence
	db         *sql.DB
	store      *session.Store
	loader     *sections.Loader
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	openURL    func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	API         *services.APIService
	Persistence session.Persistence // defaults to the SQLite local storage from Config.Database
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Input       io.Reader
	OpenURL     func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.RequestTimeout()}
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient).WithRateLimit(opts.Config.API.RateLimit, 1)
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		vorplay:    services.NewVorplayService(opts.API),
		persist:    opts.Persistence,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		openURL:    opts.OpenURL,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, accountCommand, openCommand, searchCommand, reviewCommand, favoriteCommand,
		playlistCommand, followCommand, historyCommand, webCommand, apiCommand, devCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and every component it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// prepare builds the session store and section loader on first use, opening local storage when no persistence
// was injected.
func (r *Runner) prepare() error {
	if r.store != nil {
		return nil
	}
	if r.persist == nil {
		db, err := shared.OpenStore(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open local storage: %w", err)
		}
		r.db = db
		r.persist = repositories.NewLocalStorage(db)
	}
	r.store = session.NewStore(r.vorplay, r.persist, r.logger)
	r.loader = sections.NewLoader(r.vorplay, r.store, r.logger)
	return nil
}

// boot prepares the session store and restores the stored session. Every command that talks to the API as the
// current user calls it first.
func (r *Runner) boot(ctx context.Context) error {
	if err := r.prepare(); err != nil {
		return err
	}
	return r.store.Restore(ctx)
}

// credential returns the restored session's credential or [shared.ErrNotAuthenticated].
func (r *Runner) credential(ctx context.Context) (string, error) {
	if err := r.boot(ctx); err != nil {
		return "", err
	}
	credential := r.store.Credential()
	if credential == "" {
		return "", fmt.Errorf("%w: run `vorplay auth login` first", shared.ErrNotAuthenticated)
	}
	return credential, nil
}

// Close releases local storage.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// confirmer returns the confirmer for cmd: --yes approves everything, otherwise the user is asked on the terminal.
func (r *Runner) confirmer(cmd *cli.Command) confirm.Confirmer {
	if cmd.Bool("yes") {
		return confirm.Always(true)
	}
	return confirm.PromptConfirmer{In: r.input, Out: r.output}
}

// resolve asks for confirmation of req and runs it when approved.
func (r *Runner) resolve(ctx context.Context, cmd *cli.Command, req *confirm.Request) error {
	approved, err := r.confirmer(cmd).Confirm(ctx, req.Intent)
	if err != nil {
		return err
	}
	return req.Resolve(ctx, approved)
}

// prompt reads a single line from the runner's input after writing label.
func (r *Runner) prompt(label string) (string, error) {
	if err := r.writePlain("%s: ", label); err != nil {
		return "", err
	}
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// valueOrPrompt returns the flag value, asking for it when empty.
func (r *Runner) valueOrPrompt(cmd *cli.Command, flag, label string) (string, error) {
	if v := cmd.String(flag); v != "" {
		return v, nil
	}
	return r.prompt(label)
}

func parseID(name, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q is not a valid id", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
