package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newStaticRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"index.html":    "<html>app</html>",
		"assets/app.js": "console.log('app')",
		".env":          "SECRET=1",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestStaticHandler(t *testing.T) {
	t.Parallel()
	h := NewStaticHandler(newStaticRoot(t))

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"root serves index", http.MethodGet, "/", http.StatusOK, "<html>app</html>"},
		{"existing asset", http.MethodGet, "/assets/app.js", http.StatusOK, "console.log('app')"},
		{"client route falls back", http.MethodGet, "/groceries/list", http.StatusOK, "<html>app</html>"},
		{"hidden file falls back", http.MethodGet, "/.env", http.StatusOK, "<html>app</html>"},
		{"directory falls back", http.MethodGet, "/assets", http.StatusOK, "<html>app</html>"},
		{"post is not found", http.MethodPost, "/anything", http.StatusNotFound, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("body %q does not contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}
