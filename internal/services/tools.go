package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/shared"
)

// Backend endpoint paths.
const (
	PathPDFConvert       = "/api/png-to-pdf/convert"
	PathPDFInfo          = "/api/png-to-pdf/info"
	PathImageConvert     = "/api/image-converter/convert-image"
	PathPassword         = "/api/password-generator/generate-password"
	PathQRGenerate       = "/api/qr-code-generator/generate"
	PathMockingText      = "/api/mocking-text"
	PathVideoInfo        = "/api/youtube/info"
	PathVideoDownload    = "/api/youtube/download/"
	PathPlaylistInfo     = "/api/youtube/playlist-info"
	PathPlaylistStart    = "/api/youtube/download-playlist"
	PathPlaylistProgress = "/api/youtube/playlist-download-progress/"
	PathDownloadZip      = "/api/youtube/download-zip/"
)

// MaxImageUpload is the per-file size limit of the image converter.
const MaxImageUpload = 5 * 1024 * 1024

// Tools exposes one typed method per backend endpoint.
//
// Inputs are validated before any request is sent; failures wrap [shared.ErrValidation].
type Tools struct {
	api *APIService
}

// NewTools wraps api.
func NewTools(api *APIService) *Tools {
	return &Tools{api: api}
}

// API returns the underlying raw client.
func (t *Tools) API() *APIService { return t.api }

// ConvertToPDF uploads images in order and returns the combined PDF.
// A zero dpi selects the backend default; an empty filename becomes "converted_document".
func (t *Tools) ConvertToPDF(ctx context.Context, paths []string, dpi int, filename string) (*File, error) {
	if len(paths) == 0 {
		return nil, shared.Invalid("files", "Please select at least one image.")
	}
	if len(paths) > models.MaxPDFFiles {
		return nil, shared.Invalid("files", fmt.Sprintf("Too many files (max %d)", models.MaxPDFFiles))
	}
	if dpi == 0 {
		dpi = models.DefaultDPI
	}
	if dpi < models.MinDPI || dpi > models.MaxDPI {
		return nil, shared.Invalid("dpi", fmt.Sprintf("DPI must be between %d and %d", models.MinDPI, models.MaxDPI))
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = models.DefaultPDFOut
	}

	form := NewForm()
	for _, p := range paths {
		ext := strings.ToLower(filepath.Ext(p))
		if !slices.Contains(models.PDFExtensions, ext) {
			return nil, shared.Invalid("files", fmt.Sprintf("%s is not a PNG or JPEG image", filepath.Base(p)))
		}
		form.File("files", p)
	}
	form.Field("dpi", strconv.Itoa(dpi)).Field("filename", filename)

	resp, err := t.api.PostForm(ctx, PathPDFConvert, form)
	if err != nil {
		return nil, err
	}

	fallback := filename
	if !strings.HasSuffix(strings.ToLower(fallback), ".pdf") {
		fallback += ".pdf"
	}
	return resp.File(fallback)
}

// PDFInfo returns the converter's advertised limits.
func (t *Tools) PDFInfo(ctx context.Context) (*models.PDFInfo, error) {
	resp, err := t.api.Get(ctx, PathPDFInfo)
	if err != nil {
		return nil, err
	}

	var info models.PDFInfo
	if err := resp.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ConvertImages converts every image to format. Several inputs come back as a zip.
func (t *Tools) ConvertImages(ctx context.Context, paths []string, format string) (*File, error) {
	if len(paths) == 0 {
		return nil, shared.Invalid("files", "Please select at least one image.")
	}
	format, ok := models.ParseImageFormat(format)
	if !ok {
		return nil, shared.Invalid("output_format", fmt.Sprintf("must be one of %s", strings.Join(models.ImageFormats, ", ")))
	}

	form := NewForm()
	for _, p := range paths {
		if _, ok := models.ImageInputTypes[strings.ToLower(filepath.Ext(p))]; !ok {
			return nil, shared.Invalid("files", fmt.Sprintf("unsupported input file format: %s", filepath.Base(p)))
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, shared.Invalid("files", err.Error())
		}
		if info.Size() > MaxImageUpload {
			return nil, shared.Invalid("files", fmt.Sprintf("File %s exceeds the maximum size of 5 MB.", filepath.Base(p)))
		}
		form.File("files", p)
	}
	form.Field("output_format", format)

	resp, err := t.api.PostForm(ctx, PathImageConvert, form)
	if err != nil {
		return nil, err
	}
	return resp.File(convertedName(paths, format))
}

// convertedName names the result when the backend omits Content-Disposition.
func convertedName(paths []string, format string) string {
	if len(paths) > 1 {
		return "images.zip"
	}
	base := filepath.Base(paths[0])
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
}

// GeneratePassword returns one password built to opts.
func (t *Tools) GeneratePassword(ctx context.Context, opts models.PasswordOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	resp, err := t.api.PostJSON(ctx, PathPassword, opts)
	if err != nil {
		return "", err
	}

	var out struct {
		Password string `json:"password"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	return out.Password, nil
}

// GenerateQRCode renders cfg as png or svg. logoPath is optional and only
// affects png output.
func (t *Tools) GenerateQRCode(ctx context.Context, cfg models.QRConfig, logoPath string, format models.QRFileFormat) (*File, error) {
	if format == "" {
		format = models.QRPNG
	}
	if format != models.QRPNG && format != models.QRSVG {
		return nil, shared.Invalid("file_format", "must be png or svg")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR config: %w", err)
	}

	form := NewForm().Field("request_data", string(data)).Field("file_format", string(format))
	if logoPath != "" {
		form.File("logo_file", logoPath)
	}

	resp, err := t.api.PostForm(ctx, PathQRGenerate, form)
	if err != nil {
		return nil, err
	}
	return resp.File("qr-code." + string(format))
}

// MockText alternates letter case, starting upper unless lowerFirst is set.
func (t *Tools) MockText(ctx context.Context, text string, lowerFirst bool) (string, error) {
	if text == "" {
		return "", shared.Invalid("text", "text is required")
	}

	resp, err := t.api.PostJSON(ctx, PathMockingText, map[string]any{
		"text":                 text,
		"start_with_lowercase": lowerFirst,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Result string `json:"result"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	return out.Result, nil
}
