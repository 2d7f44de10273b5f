package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/awesamdood/ptb/internal/formatter"
	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/shared"
	"github.com/awesamdood/ptb/internal/staging"
	"github.com/urfave/cli/v3"
)

// stage queues paths through a staging list, applies --move reorders, and reports skipped files.
// The caller must Close the returned store.
func (r *Runner) stage(paths []string, accept func(string) bool, moves []string) (*staging.List, *staging.Store, error) {
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one file is required", shared.ErrMissingArgument)
	}

	store := staging.NewStore()
	list := staging.NewList(store, accept)

	_, skipped, err := list.Add(paths...)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	for _, s := range skipped {
		r.logger.Warn("skipping file", "path", s.Path, "reason", s.Reason)
		r.writePlain("! skipped %s: %s\n", s.Path, s.Reason)
	}

	for _, m := range moves {
		from, to, err := parseMove(m)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		if err := list.Move(from-1, to-1); err != nil {
			store.Close()
			return nil, nil, err
		}
	}

	if list.Len() == 0 {
		store.Close()
		return nil, nil, shared.Invalid("files", "Please select at least one image.")
	}

	for i, f := range list.Files() {
		r.logger.Debug("staged", "position", i+1, "name", f.Name, "preview", f.PreviewURL)
	}
	return list, store, nil
}

// parseMove reads a 1-based "from:to" reorder.
func parseMove(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: --move expects from:to, got %q", shared.ErrInvalidFlag, s)
	}
	from, err1 := strconv.Atoi(strings.TrimSpace(a))
	to, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("%w: --move expects numbers, got %q", shared.ErrInvalidFlag, s)
	}
	return from, to, nil
}

// PDFConvert combines images into one PDF in the order given.
func (r *Runner) PDFConvert(ctx context.Context, cmd *cli.Command) error {
	list, store, err := r.stage(cmd.Args().Slice(), staging.Extensions(models.PDFExtensions...), cmd.StringSlice("move"))
	if err != nil {
		return err
	}
	defer store.Close()
	defer list.Clear()

	r.logger.Info("converting to PDF", "files", list.Len(), "dpi", cmd.Int("dpi"))
	file, err := r.tools.ConvertToPDF(ctx, list.Paths(), int(cmd.Int("dpi")), cmd.String("name"))
	if err != nil {
		return err
	}

	path, err := r.saveFile(file, cmd.String("out-dir"), "pdf", list.Len())
	if err != nil {
		return err
	}
	return r.writePlain("✓ PDF generated: %s (%s)\n", path, formatter.HumanBytes(file.Size()))
}

// PDFInfo prints the converter's advertised limits.
func (r *Runner) PDFInfo(ctx context.Context, cmd *cli.Command) error {
	info, err := r.tools.PDFInfo(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}

	r.writePlainHeader(info.Service)
	r.writePlain("Formats:   %s\n", strings.Join(info.SupportedFormats, ", "))
	r.writePlain("Max files: %d\n", info.MaxFiles)
	r.writePlain("Max size:  %d MB\n", info.MaxFileSizeMB)
	r.writePlain("DPI:       %d-%d (default %d)\n", info.DPIRange.Min, info.DPIRange.Max, info.DPIRange.Default)
	return nil
}

// ImageConvert converts images to another format. Several inputs are returned as a zip.
func (r *Runner) ImageConvert(ctx context.Context, cmd *cli.Command) error {
	exts := make([]string, 0, len(models.ImageInputTypes))
	for ext := range models.ImageInputTypes {
		exts = append(exts, ext)
	}
	slices.Sort(exts)

	list, store, err := r.stage(cmd.Args().Slice(), staging.Extensions(exts...), cmd.StringSlice("move"))
	if err != nil {
		return err
	}
	defer store.Close()
	defer list.Clear()

	format := cmd.String("format")
	r.logger.Info("converting images", "files", list.Len(), "format", format)
	file, err := r.tools.ConvertImages(ctx, list.Paths(), format)
	if err != nil {
		return err
	}

	path, err := r.saveFile(file, cmd.String("out-dir"), "image", list.Len())
	if err != nil {
		return err
	}
	return r.writePlain("✓ Converted %s: %s (%s)\n", shared.Plural(list.Len(), "image"), path, formatter.HumanBytes(file.Size()))
}
