package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/server"
	"github.com/awesamdood/ptb/internal/shared"
	"github.com/awesamdood/ptb/internal/staging"
	"github.com/awesamdood/ptb/internal/tasks"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
)

// passwordOptions reads generator flags on top of the backend defaults.
func passwordOptions(cmd *cli.Command) models.PasswordOptions {
	opts := models.DefaultPasswordOptions()
	opts.Length = int(cmd.Int("length"))
	opts.IncludeUppercase = !cmd.Bool("no-uppercase")
	opts.IncludeLowercase = !cmd.Bool("no-lowercase")
	opts.IncludeNumbers = !cmd.Bool("no-numbers")
	opts.IncludeSymbols = !cmd.Bool("no-symbols")
	opts.MinNumbers = int(cmd.Int("min-numbers"))
	opts.MinSymbols = int(cmd.Int("min-symbols"))
	if !opts.IncludeNumbers && !cmd.IsSet("min-numbers") {
		opts.MinNumbers = 0
	}
	if !opts.IncludeSymbols && !cmd.IsSet("min-symbols") {
		opts.MinSymbols = 0
	}
	return opts
}

// PasswordGenerate requests --count passwords, pacing requests through the batch runner.
func (r *Runner) PasswordGenerate(ctx context.Context, cmd *cli.Command) error {
	opts := passwordOptions(cmd)
	if err := opts.Validate(); err != nil {
		return err
	}

	count := max(int(cmd.Int("count")), 1)
	progress := make(chan tasks.ProgressUpdate, count)
	results := tasks.RunBatch(ctx, progress, count, tasks.BatchOpts{
		Workers:   int(cmd.Int("workers")),
		RateLimit: cmd.Float("rate"),
	}, func(ctx context.Context, _ int) (string, error) {
		return r.tools.GeneratePassword(ctx, opts)
	})

	close(progress)
	for u := range progress {
		r.logger.Debug(u.Message, "phase", u.Phase)
	}

	passwords := make([]string, 0, count)
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			r.logger.Warn("password request failed", "index", res.Index, "error", res.Err)
			errs = append(errs, res.Err)
			continue
		}
		passwords = append(passwords, res.Value)
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(map[string]any{"passwords": passwords}, true); err != nil {
			return err
		}
	} else {
		for _, p := range passwords {
			r.writePlain("%s\n", p)
		}
	}

	if len(passwords) == 0 && len(errs) > 0 {
		return errs[0]
	}
	if len(errs) > 0 {
		r.logger.Warn("some passwords failed", "failed", len(errs), "total", count)
	}
	return nil
}

// MockText alternates letter case of the argument or, when absent, standard input.
func (r *Runner) MockText(ctx context.Context, cmd *cli.Command) error {
	text := strings.Join(cmd.Args().Slice(), " ")
	if text == "" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, 1<<20))
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is required", shared.ErrMissingArgument)
	}

	result, err := r.tools.MockText(ctx, text, cmd.Bool("lower-first"))
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", result)
}

// loadQRConfig reads a TOML QR document. Keys missing from the file keep
// the defaults for its qr_type.
func loadQRConfig(path string) (models.QRConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.QRConfig{}, fmt.Errorf("failed to read QR config: %w", err)
	}

	var probe struct {
		Type models.QRType `toml:"qr_type"`
	}
	if err := toml.Unmarshal(data, &probe); err != nil {
		return models.QRConfig{}, fmt.Errorf("%w: failed to parse QR config: %v", shared.ErrInvalidConfig, err)
	}
	if probe.Type == "" {
		probe.Type = models.QRURL
	}

	cfg := models.NewQRConfig(probe.Type)
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return models.QRConfig{}, fmt.Errorf("%w: failed to parse QR config: %v", shared.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// qrConfigFromFlags builds a QR config from --config-file and command flags. Flags win.
func qrConfigFromFlags(cmd *cli.Command) (models.QRConfig, error) {
	cfg := models.NewQRConfig(models.QRType(cmd.String("type")))
	if path := cmd.String("config-file"); path != "" {
		loaded, err := loadQRConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		if cmd.IsSet("type") {
			cfg.Type = models.QRType(cmd.String("type"))
		}
	}

	for _, kv := range cmd.StringSlice("content") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return cfg, fmt.Errorf("%w: --content expects key=value, got %q", shared.ErrInvalidFlag, kv)
		}
		cfg.Content[strings.TrimSpace(k)] = contentValue(v)
	}
	if text := strings.Join(cmd.Args().Slice(), " "); text != "" {
		switch cfg.Type {
		case models.QRURL:
			cfg.Content["url"] = text
		case models.QRText:
			cfg.Content["text"] = text
		case models.QREmail:
			cfg.Content["email"] = text
		}
	}

	c := &cfg.Customization
	if cmd.IsSet("size") {
		c.Size = int(cmd.Int("size"))
	}
	if cmd.IsSet("fg") {
		c.ForegroundColor = cmd.String("fg")
	}
	if cmd.IsSet("bg") {
		c.BackgroundColor = cmd.String("bg")
	}
	if cmd.IsSet("error-correction") {
		c.ErrorCorrection = strings.ToUpper(cmd.String("error-correction"))
	}
	if cmd.IsSet("border") {
		c.BorderSize = int(cmd.Int("border"))
	}
	if cmd.IsSet("corner-style") {
		c.CornerStyle = cmd.String("corner-style")
	}

	if cmd.String("logo") != "" && !cmd.IsSet("error-correction") {
		cfg = cfg.WithLogo()
	}
	return cfg, nil
}

// contentValue keeps booleans typed so wifi "hidden" round-trips.
func contentValue(v string) any {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

func qrFormat(cmd *cli.Command) (models.QRFileFormat, error) {
	switch f := models.QRFileFormat(strings.ToLower(cmd.String("format"))); f {
	case "", models.QRPNG:
		return models.QRPNG, nil
	case models.QRSVG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: --format must be png or svg", shared.ErrInvalidFlag)
	}
}

// QRGenerate renders one QR code and saves it.
func (r *Runner) QRGenerate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := qrConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	format, err := qrFormat(cmd)
	if err != nil {
		return err
	}

	file, err := r.tools.GenerateQRCode(ctx, cfg, cmd.String("logo"), format)
	if err != nil {
		return err
	}

	path, err := r.saveFile(file, cmd.String("out-dir"), "qr", 1)
	if err != nil {
		return err
	}
	return r.writePlain("✓ QR code saved: %s\n", path)
}

// qrPreview regenerates a preview image whenever its TOML document changes.
// Each render replaces the previous preview file and releases the old handle.
type qrPreview struct {
	runner  *Runner
	store   *staging.Store
	logo    string
	format  models.QRFileFormat
	output  string
	served  *server.PreviewHandler
	updates chan<- tasks.ProgressUpdate

	renderMu sync.Mutex // one backend render at a time, in trigger order

	mu      sync.Mutex
	current string
	renders int
}

func (p *qrPreview) render(ctx context.Context, path string) {
	p.renderMu.Lock()
	defer p.renderMu.Unlock()

	cfg, err := loadQRConfig(path)
	if err != nil {
		p.runner.logger.Warn("invalid QR config", "path", path, "error", err)
		return
	}
	if p.logo != "" {
		cfg = cfg.WithLogo()
	}

	file, err := p.runner.tools.GenerateQRCode(ctx, cfg, p.logo, p.format)
	if err != nil {
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			p.runner.logger.Warn("QR config rejected", "error", verr)
		} else {
			p.runner.logger.Error("QR preview failed", "error", err)
		}
		return
	}

	handle, err := p.store.Put(file.Data, "."+string(p.format))
	if err != nil {
		p.runner.logger.Error("failed to stage preview", "error", err)
		return
	}
	preview, _ := p.store.Path(handle)

	p.mu.Lock()
	previous := p.current
	p.current = handle
	p.renders++
	n := p.renders
	p.mu.Unlock()

	if p.served != nil {
		p.served.SetCurrent(handle, n)
	}
	if previous != "" {
		if err := p.store.Release(previous); err != nil {
			p.runner.logger.Warn("failed to release preview", "handle", previous, "error", err)
		}
	}

	shown := preview
	if p.output != "" {
		if err := file.WriteFile(p.output); err != nil {
			p.runner.logger.Error("failed to write preview", "path", p.output, "error", err)
		} else {
			shown = p.output
		}
	}

	update := tasks.PreviewUpdate(n, shown)
	select {
	case p.updates <- update:
	default:
	}
	p.runner.logger.Debug("preview rendered", "handle", handle, "bytes", file.Size())
}

// QRWatch regenerates a QR preview every time the --config-file document is saved.
// Bursts of edits are collapsed by a debouncer.
func (r *Runner) QRWatch(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config-file")
	if path == "" {
		return fmt.Errorf("%w: --config-file is required", shared.ErrMissingArgument)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	format, err := qrFormat(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	store := staging.NewStore()
	defer store.Close()

	updates := make(chan tasks.ProgressUpdate, 8)
	preview := &qrPreview{
		runner:  r,
		store:   store,
		logo:    cmd.String("logo"),
		format:  format,
		output:  cmd.String("output"),
		updates: updates,
	}

	wait := time.Duration(r.config.Preview.DebounceMS) * time.Millisecond
	debouncer := tasks.NewDebouncer(wait, func(p string) { preview.render(ctx, p) }, nil)
	defer debouncer.Cancel()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	if addr := cmd.String("serve"); addr != "" {
		preview.served = server.NewPreviewHandler(store, filepath.Base(path))
		router := server.NewBasicRouter()
		router.Use(server.Logging(r.logger))
		router.Handler(preview.served)

		go func() {
			err := server.Serve(ctx, addr, router, r.logger, func(bound string) {
				r.logger.Info("open the preview in a browser", "url", "http://"+bound+"/")
			})
			if err != nil {
				r.logger.Error("preview server stopped", "error", err)
			}
		}()
	}

	r.writePlain("Watching %s (ctrl+c to stop)\n", path)
	debouncer.Trigger(abs)
	debouncer.Flush()

	for {
		select {
		case <-ctx.Done():
			r.writePlain("\nStopped watching.\n")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debouncer.Trigger(abs)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher error", "error", err)

		case u := <-updates:
			r.writePlain("[%d] %s\n", u.Step, u.Message)
		}
	}
}

// qrRenderFlags returns the flags shared by generate and watch.
func qrRenderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config-file", Aliases: []string{"f"}, Usage: "TOML file with qr_type, [content] and [customization]"},
		&cli.StringFlag{Name: "logo", Usage: "Logo image to embed (png output only)"},
		&cli.StringFlag{Name: "format", Usage: "Output format: png or svg", Value: "png"},
	}
}
