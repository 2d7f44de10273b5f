package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/repositories"
	"github.com/awesamdood/ptb/internal/services"
	"github.com/awesamdood/ptb/internal/shared"
	tu "github.com/awesamdood/ptb/internal/testing"
)

// newTestRunner returns a runner writing to a buffer with history in a temp database.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "ptb.db")
	config.Playlist.DownloadDir = t.TempDir()

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: defaultConfigPath,
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
	})
	t.Cleanup(func() { runner.Close() })
	return runner, output
}

// run executes args against the full command tree pointed at backend.
func run(t *testing.T, r *Runner, backend string, args ...string) error {
	t.Helper()
	argv := append([]string{"ptb", "--api-url", backend}, args...)
	return newApp(r).Run(context.Background(), argv)
}

func writeJSONBody(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIService("http://backend.test", httpClient)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.tools.API() != api {
				t.Error("expected tools to wrap api")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses configured timeout", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Backend.TimeoutSeconds = 7
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.httpClient.Timeout != 7*time.Second {
				t.Errorf("expected 7s timeout, got %v", runner.httpClient.Timeout)
			}
		})

		t.Run("with zero timeout uses default client", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Backend.TimeoutSeconds = 0
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "pdf", "image", "password", "qr", "mock", "youtube", "history", "api", "tui"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})

	t.Run("recordConversion", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		runner.recordConversion("pdf", 2, "/tmp/out.pdf", 1024)

		db, err := runner.database()
		if err != nil {
			t.Fatalf("database: %v", err)
		}
		items, err := repositories.NewConversionRepository(db).List(nil)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(items) != 1 || items[0].Tool() != "pdf" || items[0].InputCount() != 2 {
			t.Errorf("unexpected conversions: %+v", items)
		}
	})
}

func TestParsers(t *testing.T) {
	t.Run("parseMove", func(t *testing.T) {
		from, to, err := parseMove("3:1")
		if err != nil || from != 3 || to != 1 {
			t.Errorf("parseMove(3:1) = %d, %d, %v", from, to, err)
		}

		for _, bad := range []string{"3", "a:1", "1:"} {
			if _, _, err := parseMove(bad); !errors.Is(err, shared.ErrInvalidFlag) {
				t.Errorf("parseMove(%q) error = %v, want ErrInvalidFlag", bad, err)
			}
		}
	})

	t.Run("parseRange", func(t *testing.T) {
		tests := []struct {
			in         string
			start, end int
		}{
			{"1-10", 1, 10},
			{" 4 - 6 ", 4, 6},
			{"7", 7, 7},
		}
		for _, tt := range tests {
			start, end, err := parseRange(tt.in)
			if err != nil || start != tt.start || end != tt.end {
				t.Errorf("parseRange(%q) = %d, %d, %v", tt.in, start, end, err)
			}
		}

		if _, _, err := parseRange("x-2"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("contentValue", func(t *testing.T) {
		if v := contentValue("TRUE"); v != true {
			t.Errorf("expected bool true, got %#v", v)
		}
		if v := contentValue("false"); v != false {
			t.Errorf("expected bool false, got %#v", v)
		}
		if v := contentValue("home"); v != "home" {
			t.Errorf("expected string, got %#v", v)
		}
	})

	t.Run("loadQRConfig", func(t *testing.T) {
		t.Run("fills defaults for the declared type", func(t *testing.T) {
			path := tu.WriteTempFile(t, t.TempDir(), "qr.toml", []byte(`
qr_type = "wifi"

[content]
ssid = "home"
password = "secret"

[customization]
size = 600
`))
			cfg, err := loadQRConfig(path)
			if err != nil {
				t.Fatalf("loadQRConfig: %v", err)
			}
			if cfg.Type != models.QRWiFi {
				t.Errorf("expected wifi, got %s", cfg.Type)
			}
			if cfg.Content["ssid"] != "home" || cfg.Content["security"] != "WPA" {
				t.Errorf("unexpected content: %v", cfg.Content)
			}
			if cfg.Customization.Size != 600 || cfg.Customization.ErrorCorrection != "M" {
				t.Errorf("unexpected customization: %+v", cfg.Customization)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("expected valid config, got %v", err)
			}
		})

		t.Run("rejects malformed TOML", func(t *testing.T) {
			path := tu.WriteTempFile(t, t.TempDir(), "qr.toml", []byte("qr_type = \n"))
			if _, err := loadQRConfig(path); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("missing file", func(t *testing.T) {
			if _, err := loadQRConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})
	})
}

func TestCommands(t *testing.T) {
	t.Run("password", func(t *testing.T) {
		t.Run("generates count passwords", func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != services.PathPassword {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				var opts models.PasswordOptions
				json.NewDecoder(r.Body).Decode(&opts)
				if opts.Length != 16 || opts.IncludeSymbols {
					t.Errorf("unexpected options: %+v", opts)
				}
				n := calls.Add(1)
				writeJSONBody(w, map[string]string{"password": fmt.Sprintf("pw-%d", n)})
			}))
			defer srv.Close()

			runner, output := newTestRunner(t)
			err := run(t, runner, srv.URL, "password", "--length", "16", "--no-symbols", "-n", "3", "--rate", "100", "--json")
			if err != nil {
				t.Fatalf("password: %v", err)
			}

			var out struct {
				Passwords []string `json:"passwords"`
			}
			if err := json.Unmarshal(output.Bytes(), &out); err != nil {
				t.Fatalf("invalid JSON output %q: %v", output.String(), err)
			}
			if len(out.Passwords) != 3 || calls.Load() != 3 {
				t.Errorf("expected 3 passwords from 3 calls, got %v (%d calls)", out.Passwords, calls.Load())
			}
		})

		t.Run("invalid options never reach the backend", func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
			}))
			defer srv.Close()

			runner, _ := newTestRunner(t)
			err := run(t, runner, srv.URL, "password", "--length", "3")

			var verr *shared.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if calls.Load() != 0 {
				t.Errorf("expected no requests, got %d", calls.Load())
			}
		})
	})

	t.Run("mock", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["text"] != "hello there" || body["start_with_lowercase"] != true {
				t.Errorf("unexpected body: %v", body)
			}
			writeJSONBody(w, map[string]string{"result": "hElLo tHeRe"})
		}))
		defer srv.Close()

		runner, output := newTestRunner(t)
		if err := run(t, runner, srv.URL, "mock", "--lower-first", "hello", "there"); err != nil {
			t.Fatalf("mock: %v", err)
		}
		if output.String() != "hElLo tHeRe\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("pdf convert uploads in moved order", func(t *testing.T) {
		var got []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm: %v", err)
				return
			}
			for _, fh := range r.MultipartForm.File["files"] {
				got = append(got, fh.Filename)
			}
			if r.FormValue("dpi") != "150" || r.FormValue("filename") != "scan" {
				t.Errorf("unexpected fields dpi=%q filename=%q", r.FormValue("dpi"), r.FormValue("filename"))
			}
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `attachment; filename="scan.pdf"`)
			w.Write([]byte("%PDF-1.4"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		a := tu.WriteTempFile(t, dir, "a.png", tu.PNGHeader)
		b := tu.WriteTempFile(t, dir, "b.png", tu.PNGHeader)
		skipped := tu.WriteTempFile(t, dir, "notes.txt", []byte("x"))
		outDir := t.TempDir()

		runner, output := newTestRunner(t)
		err := run(t, runner, srv.URL, "pdf", "convert", "--dpi", "150", "--name", "scan", "--out-dir", outDir, "--move", "2:1", a, b, skipped)
		if err != nil {
			t.Fatalf("pdf convert: %v", err)
		}

		if strings.Join(got, ",") != "b.png,a.png" {
			t.Errorf("expected b.png,a.png, got %v", got)
		}
		tu.AssertFileExists(t, filepath.Join(outDir, "scan.pdf"))
		if !strings.Contains(output.String(), "skipped") {
			t.Errorf("expected skipped notice, got %q", output.String())
		}
	})

	t.Run("youtube playlist download", func(t *testing.T) {
		var polls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc(services.PathPlaylistInfo, func(w http.ResponseWriter, r *http.Request) {
			writeJSONBody(w, models.PlaylistInfo{
				Title:  "Mix",
				Videos: []models.Video{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"}},
			})
		})
		mux.HandleFunc(services.PathPlaylistStart, func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				VideoIDs []string `json:"video_ids"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if strings.Join(body.VideoIDs, ",") != "a,c" {
				t.Errorf("expected a,c, got %v", body.VideoIDs)
			}
			writeJSONBody(w, map[string]string{"job_id": "job-1"})
		})
		mux.HandleFunc(services.PathPlaylistProgress, func(w http.ResponseWriter, r *http.Request) {
			if polls.Add(1) == 1 {
				writeJSONBody(w, models.JobProgress{Status: models.StatusProcessing, Current: 1, Total: 2})
				return
			}
			writeJSONBody(w, models.JobProgress{Status: models.StatusComplete, Total: 2, ZipName: "mix.zip"})
		})
		mux.HandleFunc(services.PathDownloadZip, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("filename") != "mix.zip" {
				t.Errorf("unexpected filename %q", r.URL.Query().Get("filename"))
			}
			w.Header().Set("Content-Type", "application/zip")
			w.Header().Set("Content-Disposition", `attachment; filename="mix.zip"`)
			w.Write([]byte("PK"))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		outDir := t.TempDir()
		runner, output := newTestRunner(t)
		err := run(t, runner, srv.URL, "youtube", "playlist", "download",
			"--range", "1-3", "--exclude", "b", "--interval", "5ms", "--out-dir", outDir, "https://youtube.test/playlist?list=1")
		if err != nil {
			t.Fatalf("playlist download: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(outDir, "mix.zip"))
		if !strings.Contains(output.String(), "2 videos selected") {
			t.Errorf("expected selection summary, got %q", output.String())
		}

		db, err := runner.database()
		if err != nil {
			t.Fatalf("database: %v", err)
		}
		jobs, err := repositories.NewJobRepository(db).List(nil)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(jobs) != 1 {
			t.Fatalf("expected one recorded job, got %d", len(jobs))
		}
		if jobs[0].State() != models.JobComplete || jobs[0].Artifact() != "mix.zip" || jobs[0].JobID() != "job-1" {
			t.Errorf("unexpected job: state=%s artifact=%s job_id=%s", jobs[0].State(), jobs[0].Artifact(), jobs[0].JobID())
		}

		output.Reset()
		if err := run(t, runner, srv.URL, "history", "list"); err != nil {
			t.Fatalf("history list: %v", err)
		}
		if !strings.Contains(output.String(), "complete") {
			t.Errorf("expected complete job in history, got %q", output.String())
		}
	})

	t.Run("youtube playlist info exports markdown", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSONBody(w, models.PlaylistInfo{Title: "Road Trip", Videos: []models.Video{{ID: "a", Title: "A"}}})
		}))
		defer srv.Close()

		dir := t.TempDir()
		tu.MustChdir(t, dir)

		runner, _ := newTestRunner(t)
		if err := run(t, runner, srv.URL, "youtube", "playlist", "info", "--format", "markdown", "--output", "", "https://youtube.test/p"); err != nil {
			t.Fatalf("playlist info: %v", err)
		}
		content := tu.MustReadFile(t, filepath.Join(dir, "road-trip.md"))
		if !strings.Contains(content, "Road Trip") {
			t.Errorf("unexpected export %q", content)
		}
	})

	t.Run("api get surfaces backend errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"bad things"}`))
		}))
		defer srv.Close()

		runner, _ := newTestRunner(t)
		err := run(t, runner, srv.URL, "api", "get", "/api/anything")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "bad things") {
			t.Errorf("expected backend detail in error, got %v", err)
		}
	})

	t.Run("history show and delete by sequence", func(t *testing.T) {
		runner, output := newTestRunner(t)
		db, err := runner.database()
		if err != nil {
			t.Fatalf("database: %v", err)
		}
		repo := repositories.NewJobRepository(db)
		job := models.NewPlaylistJob(0, "https://youtube.test/p", []string{"a"})
		if err := repo.Create(job); err != nil {
			t.Fatalf("Create: %v", err)
		}

		seq := fmt.Sprint(job.Sequence())
		if err := run(t, runner, "http://unused.test", "history", "show", seq); err != nil {
			t.Fatalf("history show: %v", err)
		}
		if !strings.Contains(output.String(), "https://youtube.test/p") {
			t.Errorf("expected source URL in detail, got %q", output.String())
		}

		if err := run(t, runner, "http://unused.test", "history", "delete", seq); err != nil {
			t.Fatalf("history delete: %v", err)
		}
		if _, err := repo.Get(job.ID()); !errors.Is(err, shared.ErrJobNotFound) {
			t.Errorf("expected ErrJobNotFound after delete, got %v", err)
		}
	})
}
