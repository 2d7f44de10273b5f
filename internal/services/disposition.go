package services

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// File is a binary artifact returned by the backend.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the length of the payload in bytes.
func (f *File) Size() int64 { return int64(len(f.Data)) }

// Save writes the file into dir, creating dir when needed. An existing file
// with the same name is kept and the new one gets a numbered suffix.
func (f *File) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	target := availablePath(filepath.Join(dir, f.Name))
	if err := os.WriteFile(target, f.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return target, nil
}

// WriteFile writes the payload to path, replacing any existing file.
func (f *File) WriteFile(path string) error {
	if err := os.WriteFile(path, f.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func availablePath(p string) string {
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}

	ext := filepath.Ext(p)
	base := strings.TrimSuffix(p, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

var (
	extFilenameRe   = regexp.MustCompile(`(?i)filename\*\s*=\s*([^;]+)`)
	plainFilenameRe = regexp.MustCompile(`(?i)filename\s*=\s*("([^"]*)"|[^;]+)`)
)

// FilenameFromDisposition extracts a filename from a Content-Disposition header.
//
// An RFC 5987 filename* parameter wins over a plain filename. Directory
// components are stripped. It returns "" when no usable name is present.
func FilenameFromDisposition(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	// mime decodes filename* into "filename" for utf-8 and us-ascii charsets.
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := cleanFilename(params["filename"]); name != "" {
			return name
		}
	}

	if m := extFilenameRe.FindStringSubmatch(header); m != nil {
		if name := cleanFilename(decodeExtValue(strings.TrimSpace(m[1]))); name != "" {
			return name
		}
	}

	if m := plainFilenameRe.FindStringSubmatch(header); m != nil {
		value := m[2]
		if value == "" {
			value = strings.Trim(strings.TrimSpace(m[1]), `"`)
		}
		return cleanFilename(value)
	}

	return ""
}

// decodeExtValue decodes charset'lang'percent-encoded. Latin-1 bytes are widened to runes.
func decodeExtValue(v string) string {
	v = strings.Trim(v, `"`)
	parts := strings.SplitN(v, "'", 3)
	if len(parts) != 3 {
		return ""
	}

	decoded, err := url.PathUnescape(parts[2])
	if err != nil {
		return ""
	}

	if strings.EqualFold(parts[0], "iso-8859-1") {
		runes := make([]rune, 0, len(decoded))
		for i := 0; i < len(decoded); i++ {
			runes = append(runes, rune(decoded[i]))
		}
		return string(runes)
	}
	return decoded
}

func cleanFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
