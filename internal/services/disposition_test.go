package services

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	tu "github.com/awesamdood/ptb/internal/testing"
)

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"Empty", "", ""},
		{"Quoted", `attachment; filename="plain.pdf"`, "plain.pdf"},
		{"Bare", `attachment; filename=converted_images.zip`, "converted_images.zip"},
		{"Bare With Spaces", `attachment; filename=My Playlist.zip`, "My Playlist.zip"},
		{"Extended UTF-8", `attachment; filename*=utf-8''caf%C3%A9.pdf`, "café.pdf"},
		{"Extended Wins", `attachment; filename="fallback.pdf"; filename*=UTF-8''r%C3%A9sum%C3%A9.pdf`, "résumé.pdf"},
		{"Extended Latin-1", `attachment; filename*=iso-8859-1''na%EFve.txt`, "naïve.txt"},
		{"No Filename", `attachment`, ""},
		{"Path Traversal", `attachment; filename="../../etc/passwd"`, "passwd"},
		{"Windows Path", `attachment; filename="C:\\temp\\song.mp3"`, "song.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilenameFromDisposition(tt.header); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAPIResponseFile(t *testing.T) {
	t.Run("Uses Header", func(t *testing.T) {
		resp := &APIResponse{
			StatusCode: 200,
			Headers: http.Header{
				"Content-Disposition": {`attachment; filename="doc.pdf"`},
				"Content-Type":        {"application/pdf"},
			},
			Body: []byte("%PDF"),
		}

		f, err := resp.File("fallback.pdf")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Name != "doc.pdf" || f.ContentType != "application/pdf" || f.Size() != 4 {
			t.Errorf("unexpected file %+v", f)
		}
	})

	t.Run("Uses Fallback", func(t *testing.T) {
		resp := &APIResponse{StatusCode: 200, Headers: http.Header{}, Body: []byte("x")}
		f, err := resp.File("images.zip")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Name != "images.zip" {
			t.Errorf("expected fallback name, got %s", f.Name)
		}
	})

	t.Run("Error Status", func(t *testing.T) {
		resp := &APIResponse{StatusCode: 404, Headers: http.Header{}, Body: []byte(`{"detail":"Zip file not found."}`)}
		if _, err := resp.File("x.zip"); err == nil || err.Error() != "Zip file not found." {
			t.Errorf("expected detail error, got %v", err)
		}
	})
}

func TestFileSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	f := &File{Name: "qr-code.png", Data: []byte("one")}

	first, err := f.Save(dir)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if first != filepath.Join(dir, "qr-code.png") {
		t.Errorf("unexpected path %s", first)
	}
	tu.AssertDirExists(t, dir)

	second, err := f.Save(dir)
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if second != filepath.Join(dir, "qr-code (1).png") {
		t.Errorf("expected numbered path, got %s", second)
	}

	target := filepath.Join(dir, "exact.png")
	if err := f.WriteFile(target); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if data, _ := os.ReadFile(target); string(data) != "one" {
		t.Errorf("unexpected contents %q", data)
	}
}
