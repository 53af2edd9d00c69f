package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/woosync/backend/config"
	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockSyncService is a mock implementation of SyncService
type mockSyncService struct {
	summary   *domain.RunSummary
	err       error
	last      *domain.RunSummary
	gotIDs    []int64
	gotImages bool
	runCalled bool
}

func (m *mockSyncService) RunManual(ctx context.Context, ids []int64, withImagesOnly bool) (*domain.RunSummary, error) {
	m.runCalled = true
	m.gotIDs = ids
	m.gotImages = withImagesOnly
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockSyncService) LastRun() *domain.RunSummary {
	return m.last
}

// mockPinger is a mock implementation of Pinger
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

func setupTestRouter(sync SyncService, catalog, content Pinger) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"*"},
		},
	}
	handler := NewHandler(sync, catalog, content, zap.NewNop().Sugar())
	return SetupRouter(cfg, handler)
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(&mockSyncService{}, nil, nil)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %s, want healthy", body["status"])
	}
}

func TestTriggerSyncEndpoint(t *testing.T) {
	t.Run("empty body syncs everything", func(t *testing.T) {
		service := &mockSyncService{summary: &domain.RunSummary{RunID: "r1", Attempted: 3, Succeeded: 3}}
		router := setupTestRouter(service, nil, nil)

		req, _ := http.NewRequest("POST", "/api/v1/sync", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
		}
		if !service.runCalled {
			t.Fatal("RunManual not called")
		}
		if len(service.gotIDs) != 0 || service.gotImages {
			t.Errorf("got ids=%v withImagesOnly=%v, want empty selection", service.gotIDs, service.gotImages)
		}

		var summary domain.RunSummary
		if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if summary.RunID != "r1" || summary.Succeeded != 3 {
			t.Errorf("summary = %+v, want the service result", summary)
		}
	})

	t.Run("body selects products and filters", func(t *testing.T) {
		service := &mockSyncService{summary: &domain.RunSummary{RunID: "r2"}}
		router := setupTestRouter(service, nil, nil)

		body := strings.NewReader(`{"productIds":[4,5],"withImagesOnly":true}`)
		req, _ := http.NewRequest("POST", "/api/v1/sync", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if len(service.gotIDs) != 2 || service.gotIDs[0] != 4 || service.gotIDs[1] != 5 {
			t.Errorf("gotIDs = %v, want [4 5]", service.gotIDs)
		}
		if !service.gotImages {
			t.Error("withImagesOnly not passed through")
		}
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		service := &mockSyncService{}
		router := setupTestRouter(service, nil, nil)

		req, _ := http.NewRequest("POST", "/api/v1/sync", strings.NewReader(`{"productIds":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if service.runCalled {
			t.Error("RunManual called despite a malformed body")
		}
	})

	t.Run("nothing to sync is a 422", func(t *testing.T) {
		service := &mockSyncService{err: domain.ErrNothingToSync}
		router := setupTestRouter(service, nil, nil)

		req, _ := http.NewRequest("POST", "/api/v1/sync", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", w.Code)
		}
	})

	t.Run("run failure is a 500", func(t *testing.T) {
		service := &mockSyncService{err: errors.New("store unavailable")}
		router := setupTestRouter(service, nil, nil)

		req, _ := http.NewRequest("POST", "/api/v1/sync", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})
}

func TestLastRunEndpoint(t *testing.T) {
	t.Run("404 before any run", func(t *testing.T) {
		router := setupTestRouter(&mockSyncService{}, nil, nil)

		req, _ := http.NewRequest("GET", "/api/v1/runs/last", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("returns the stored summary", func(t *testing.T) {
		service := &mockSyncService{last: &domain.RunSummary{RunID: "r9", Failed: 1}}
		router := setupTestRouter(service, nil, nil)

		req, _ := http.NewRequest("GET", "/api/v1/runs/last", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var summary domain.RunSummary
		if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if summary.RunID != "r9" || summary.Failed != 1 {
			t.Errorf("summary = %+v, want r9 with one failure", summary)
		}
	})
}

func TestConnectionTestEndpoint(t *testing.T) {
	router := setupTestRouter(
		&mockSyncService{},
		&mockPinger{},
		&mockPinger{err: &domain.UnauthenticatedError{Status: 401, Message: "bad password"}},
	)

	req, _ := http.NewRequest("GET", "/api/v1/connection/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["catalog"]["ok"] != true {
		t.Errorf("catalog = %v, want ok", body["catalog"])
	}
	if body["content"]["ok"] != false {
		t.Errorf("content = %v, want not ok", body["content"])
	}
	if body["content"]["error"] == "" {
		t.Error("content error message missing")
	}
}

func TestConnectionTestUnconfigured(t *testing.T) {
	router := setupTestRouter(&mockSyncService{}, nil, nil)

	req, _ := http.NewRequest("GET", "/api/v1/connection/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["catalog"]["configured"] != false {
		t.Errorf("catalog = %v, want configured=false", body["catalog"])
	}
}
