package server

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/awesamdood/ptb/internal/staging"
)

// PreviewHandler serves the most recent preview held in a [staging.Store].
//
// GET / returns a page that reloads the image whenever the generation changes.
// GET /preview streams the current file. GET /generation reports the counter as JSON.
type PreviewHandler struct {
	store *staging.Store
	title string

	mu         sync.RWMutex
	handle     string
	generation int
}

// NewPreviewHandler creates a handler with no preview yet.
func NewPreviewHandler(store *staging.Store, title string) *PreviewHandler {
	return &PreviewHandler{store: store, title: title}
}

// SetCurrent points the handler at handle. Call it before releasing the previous handle.
func (h *PreviewHandler) SetCurrent(handle string, generation int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handle = handle
	h.generation = generation
}

// Current returns the served handle and its generation.
func (h *PreviewHandler) Current() (string, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handle, h.generation
}

// Routes returns the HTTP routes this handler serves.
func (h *PreviewHandler) Routes() []string {
	return []string{"GET /{$}", "GET /preview", "GET /generation"}
}

func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/preview":
		h.servePreview(w, r)
	case "/generation":
		_, gen := h.Current()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"generation": gen})
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, previewPage, html.EscapeString(h.title))
	}
}

func (h *PreviewHandler) servePreview(w http.ResponseWriter, r *http.Request) {
	handle, _ := h.Current()
	if handle == "" {
		http.Error(w, "No preview yet", http.StatusNotFound)
		return
	}

	f, err := h.store.Open(handle)
	if err != nil {
		// Replaced between lookup and read; the next poll picks up the new one.
		http.Error(w, "Preview replaced", http.StatusServiceUnavailable)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "Preview unreadable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, filepath.Base(f.Name()), info.ModTime(), f)
}

const previewPage = `<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        img { max-width: 90vmin; max-height: 90vmin; background: white; padding: 1rem;
              border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
    </style>
</head>
<body>
    <img id="preview" src="/preview" alt="preview">
    <script>
        let seen = -1;
        setInterval(async () => {
            const res = await fetch("/generation");
            const { generation } = await res.json();
            if (generation !== seen) {
                seen = generation;
                document.getElementById("preview").src = "/preview?g=" + generation;
            }
        }, 1000);
    </script>
</body>
</html>
`
