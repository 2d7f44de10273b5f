package services

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// Form collects multipart fields and files for [APIService.PostForm].
//
// Files added by path are read when the form is encoded.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name, value string
}

type formFile struct {
	field    string
	filename string
	path     string
	data     []byte
}

// NewForm returns an empty form.
func NewForm() *Form { return &Form{} }

// Field appends a text field.
func (f *Form) Field(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// File appends the file at path under field, using its base name as the filename.
func (f *Form) File(field, path string) *Form {
	f.files = append(f.files, formFile{field: field, filename: filepath.Base(path), path: path})
	return f
}

// FileBytes appends in-memory content under field.
func (f *Form) FileBytes(field, filename string, data []byte) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, data: data})
	return f
}

// Len returns the number of files in the form.
func (f *Form) Len() int { return len(f.files) }

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", field.name, err)
		}
	}

	for _, file := range f.files {
		if err := writeFilePart(w, file); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, file formFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     file.field,
		"filename": file.filename,
	}))
	h.Set("Content-Type", ContentTypeFor(file.filename))

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", file.filename, err)
	}

	if file.path == "" {
		_, err = part.Write(file.data)
		return err
	}

	src, err := os.Open(file.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.path, err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to read %s: %w", file.path, err)
	}
	return nil
}

// ContentTypeFor guesses a MIME type from the filename extension.
// The backend checks upload types, so unknown extensions fall back to octet-stream.
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
