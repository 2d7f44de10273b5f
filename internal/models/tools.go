package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/awesamdood/ptb/internal/shared"
)

// Password length bounds accepted by the generator endpoint.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

// PasswordOptions is the request body of the password generator.
type PasswordOptions struct {
	Length           int  `json:"length"`
	IncludeUppercase bool `json:"include_uppercase"`
	IncludeLowercase bool `json:"include_lowercase"`
	IncludeNumbers   bool `json:"include_numbers"`
	IncludeSymbols   bool `json:"include_symbols"`
	MinNumbers       int  `json:"min_numbers"`
	MinSymbols       int  `json:"min_symbols"`
}

// DefaultPasswordOptions returns a 12 character password using every class
// with at least one number and one symbol.
func DefaultPasswordOptions() PasswordOptions {
	return PasswordOptions{
		Length:           12,
		IncludeUppercase: true,
		IncludeLowercase: true,
		IncludeNumbers:   true,
		IncludeSymbols:   true,
		MinNumbers:       1,
		MinSymbols:       1,
	}
}

// Validate applies the same rules the backend enforces.
func (o PasswordOptions) Validate() error {
	if o.Length < MinPasswordLength || o.Length > MaxPasswordLength {
		return shared.Invalid("length", fmt.Sprintf("must be between %d and %d", MinPasswordLength, MaxPasswordLength))
	}
	if !o.IncludeUppercase && !o.IncludeLowercase && !o.IncludeNumbers && !o.IncludeSymbols {
		return shared.Invalid("", "At least one character type must be selected.")
	}
	if o.MinNumbers < 0 || o.MinSymbols < 0 {
		return shared.Invalid("", "Minimums cannot be negative.")
	}
	if o.MinNumbers+o.MinSymbols > o.Length {
		return shared.Invalid("", "Sum of minimums cannot exceed password length.")
	}
	if !o.IncludeNumbers && o.MinNumbers > 0 {
		return shared.Invalid("", "Cannot specify minimum numbers without including numbers.")
	}
	if !o.IncludeSymbols && o.MinSymbols > 0 {
		return shared.Invalid("", "Cannot specify minimum symbols without including symbols.")
	}
	return nil
}

// QRType selects how the backend encodes QR content.
type QRType string

const (
	QRURL     QRType = "url"
	QRText    QRType = "text"
	QRWiFi    QRType = "wifi"
	QRContact QRType = "contact"
	QREmail   QRType = "email"
)

var qrRequired = map[QRType][]string{
	QRURL:     {"url"},
	QRText:    {"text"},
	QRWiFi:    {"ssid", "password", "security", "hidden"},
	QRContact: {"first_name", "last_name", "phone", "email"},
	QREmail:   {"email"},
}

// QR size bounds accepted by the generator endpoint.
const (
	MinQRSize = 200
	MaxQRSize = 2000
)

// QRCustomization controls rendering of a generated code.
type QRCustomization struct {
	Size            int    `json:"size" toml:"size"`
	ForegroundColor string `json:"foreground_color" toml:"foreground_color"`
	BackgroundColor string `json:"background_color" toml:"background_color"`
	ErrorCorrection string `json:"error_correction" toml:"error_correction"`
	BorderSize      int    `json:"border_size" toml:"border_size"`
	CornerStyle     string `json:"corner_style,omitempty" toml:"corner_style"`
}

// DefaultQRCustomization mirrors the backend defaults.
func DefaultQRCustomization() QRCustomization {
	return QRCustomization{
		Size:            400,
		ForegroundColor: "#000000",
		BackgroundColor: "#FFFFFF",
		ErrorCorrection: "M",
		BorderSize:      4,
		CornerStyle:     "square",
	}
}

// QRConfig is the request_data payload of the QR generator. It doubles as the
// TOML document watched by `ptb qr watch`.
type QRConfig struct {
	Type          QRType          `json:"qr_type" toml:"qr_type"`
	Content       map[string]any  `json:"content" toml:"content"`
	Customization QRCustomization `json:"customization" toml:"customization"`
}

// NewQRConfig returns a config of type t with empty content fields and default customization.
func NewQRConfig(t QRType) QRConfig {
	var content map[string]any
	switch t {
	case QRWiFi:
		content = map[string]any{"ssid": "", "password": "", "security": "WPA", "hidden": false}
	case QRContact:
		content = map[string]any{"first_name": "", "last_name": "", "phone": "", "email": ""}
	case QREmail:
		content = map[string]any{"email": "", "subject": "", "body": ""}
	case QRText:
		content = map[string]any{"text": ""}
	default:
		content = map[string]any{"url": ""}
	}
	return QRConfig{Type: t, Content: content, Customization: DefaultQRCustomization()}
}

// WithLogo raises error correction to Q, which keeps a centered logo overlay scannable.
func (c QRConfig) WithLogo() QRConfig {
	c.Customization.ErrorCorrection = "Q"
	return c
}

// Validate checks the type, required content keys, and customization ranges.
func (c QRConfig) Validate() error {
	required, ok := qrRequired[c.Type]
	if !ok {
		return shared.Invalid("qr_type", fmt.Sprintf("unknown type %q", c.Type))
	}
	for _, key := range required {
		if _, ok := c.Content[key]; !ok {
			return shared.Invalid("content", fmt.Sprintf("%s requires %q", c.Type, key))
		}
	}

	cust := c.Customization
	if cust.Size < MinQRSize || cust.Size > MaxQRSize {
		return shared.Invalid("size", fmt.Sprintf("must be between %d and %d", MinQRSize, MaxQRSize))
	}
	if !slices.Contains([]string{"L", "M", "Q", "H"}, strings.ToUpper(cust.ErrorCorrection)) {
		return shared.Invalid("error_correction", "must be one of L, M, Q, H")
	}
	if cust.BorderSize < 0 {
		return shared.Invalid("border_size", "cannot be negative")
	}
	if cust.CornerStyle != "" && cust.CornerStyle != "square" && cust.CornerStyle != "rounded" {
		return shared.Invalid("corner_style", "must be square or rounded")
	}
	return nil
}

// QRFileFormat is the image encoding returned by the generator.
type QRFileFormat string

const (
	QRPNG QRFileFormat = "png"
	QRSVG QRFileFormat = "svg"
)

// ImageFormats lists the output formats accepted by the image converter.
var ImageFormats = []string{"png", "jpeg", "webp", "ico"}

// ImageInputTypes maps accepted upload extensions to the MIME type the converter checks.
var ImageInputTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
}

// ParseImageFormat normalizes an output format name, accepting jpg for jpeg.
func ParseImageFormat(s string) (string, bool) {
	f := strings.ToLower(strings.TrimSpace(s))
	if f == "jpg" {
		f = "jpeg"
	}
	return f, slices.Contains(ImageFormats, f)
}

// PDF conversion limits.
const (
	MinDPI        = 72
	MaxDPI        = 600
	DefaultDPI    = 300
	MaxPDFFiles   = 50
	DefaultPDFOut = "converted_document"
)

// PDFExtensions lists image extensions the PDF converter accepts.
var PDFExtensions = []string{".png", ".jpg", ".jpeg"}

// PDFInfo describes the limits advertised by the PDF converter.
type PDFInfo struct {
	Service          string   `json:"service"`
	SupportedFormats []string `json:"supported_formats"`
	MaxFileSizeMB    int      `json:"max_file_size_mb"`
	MaxFiles         int      `json:"max_files"`
	DPIRange         struct {
		Min     int `json:"min"`
		Max     int `json:"max"`
		Default int `json:"default"`
	} `json:"dpi_range"`
}
