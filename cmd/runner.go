package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/repositories"
	"github.com/awesamdood/ptb/internal/services"
	"github.com/awesamdood/ptb/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	tools      *services.Tools
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = newHTTPClient(opts.Config.Backend)
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.Backend.BaseURL, opts.HTTPClient)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		tools:      services.NewTools(opts.API),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func newHTTPClient(cfg shared.BackendConfig) *http.Client {
	if cfg.TimeoutSeconds <= 0 {
		return http.DefaultClient
	}
	return &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, pdfCommand, imageCommand, passwordCommand, qrCommand, mockCommand,
		youtubeCommand, historyCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure runs before every command. It reloads configuration from --config,
// applies global flag overrides, and rebuilds the API client when the base URL changed.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" && path != r.configPath {
		config, err := shared.ResolveConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
		r.rebuildClient()
	}

	if url := strings.TrimSpace(cmd.String("api-url")); url != "" && url != r.config.Backend.BaseURL {
		r.config.Backend.BaseURL = url
		r.rebuildClient()
	}

	level := r.config.Log.Level
	if flag := cmd.String("log-level"); flag != "" {
		level = flag
	}
	shared.SetLogLevel(r.logger, shared.ParseLevel(level))

	return ctx, nil
}

func (r *Runner) rebuildClient() {
	r.httpClient = newHTTPClient(r.config.Backend)
	r.api = services.NewAPIService(r.config.Backend.BaseURL, r.httpClient)
	r.tools = services.NewTools(r.api)
	r.logger.Debug("backend configured", "base_url", r.api.BaseURL())
}

// SetLogger replaces the logger, for example to move output into a file while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// database opens the history database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// Close releases the history database when it was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// recordConversion stores a produced file in history. History is best effort and
// never fails the command that produced the file.
func (r *Runner) recordConversion(tool string, inputs int, path string, size int64) {
	db, err := r.database()
	if err != nil {
		r.logger.Warn("history unavailable", "error", err)
		return
	}
	c := models.NewConversion(0, tool, inputs, path, size)
	if err := repositories.NewConversionRepository(db).Create(c); err != nil {
		r.logger.Warn("failed to record conversion", "tool", tool, "error", err)
	}
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

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// saveFile writes f into dir and records it in history under tool.
func (r *Runner) saveFile(f *services.File, dir, tool string, inputs int) (string, error) {
	path, err := f.Save(dir)
	if err != nil {
		return "", err
	}
	r.logger.Info("file saved", "path", path, "bytes", f.Size())
	r.recordConversion(tool, inputs, path, f.Size())
	return path, nil
}
