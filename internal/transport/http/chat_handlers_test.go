package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chatboard/chatboard-server/internal/config"
	"github.com/chatboard/chatboard-server/internal/log"
	"github.com/chatboard/chatboard-server/internal/store/file"
)

func newTestServer(t *testing.T) *http.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := file.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	indexFile := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(indexFile, []byte("<!DOCTYPE html><title>chatboard</title>"), 0o644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.IndexFile = indexFile

	return NewServer(st, &cfg, log.Nop())
}

func TestGetHistoryEmptyRoom(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/general", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.Code)
	}
	if resp.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", resp.Body.String())
	}
}

func TestPostThenGet(t *testing.T) {
	server := newTestServer(t)

	form := url.Values{}
	form.Set("username", "alice")
	form.Set("msg", "hello world")

	req := httptest.NewRequest(http.MethodPost, "/api/chat/general", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Body.Len() != 0 {
		t.Errorf("expected empty post response, got %q", resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/chat/general", nil)
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "alice: hello world") {
		t.Errorf("body = %q, want it to contain %q", body, "alice: hello world")
	}
	if !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "\n") {
		t.Errorf("body not in line format: %q", body)
	}
}

func TestPostJSONBody(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/general", strings.NewReader(`{"username":"bob","msg":"from json"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/chat/general", nil)
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if !strings.Contains(resp.Body.String(), "bob: from json") {
		t.Errorf("body = %q, want it to contain %q", resp.Body.String(), "bob: from json")
	}
}

func TestPostWithoutUsernameDefaultsToAnonymous(t *testing.T) {
	server := newTestServer(t)

	form := url.Values{}
	form.Set("msg", "who am i")

	req := httptest.NewRequest(http.MethodPost, "/api/chat/general", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/chat/general", nil)
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if !strings.Contains(resp.Body.String(), "Anonymous: who am i") {
		t.Errorf("body = %q, want Anonymous attribution", resp.Body.String())
	}
}

func TestInvalidRoomRejected(t *testing.T) {
	server := newTestServer(t)

	// Traversal sequences must not reach the filesystem.
	req := httptest.NewRequest(http.MethodGet, "/api/chat/..", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/chat/bad.room", nil)
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.Code)
	}
}

func TestRoomsAreIndependent(t *testing.T) {
	server := newTestServer(t)

	form := url.Values{}
	form.Set("username", "alice")
	form.Set("msg", "only in alpha")

	req := httptest.NewRequest(http.MethodPost, "/api/chat/alpha", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/chat/beta", nil)
	resp = httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Body.Len() != 0 {
		t.Errorf("beta should be empty, got %q", resp.Body.String())
	}
}

func TestIndexServedForRoomPaths(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/", "/general", "/some-room"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		server.Handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Errorf("GET %s: expected status 200, got %d", path, resp.Code)
			continue
		}
		if !strings.Contains(resp.Body.String(), "chatboard") {
			t.Errorf("GET %s: did not serve index.html", path)
		}
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.Code)
	}
	if resp.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", resp.Body.String(), "ok")
	}
}
