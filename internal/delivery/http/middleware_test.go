package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(origins []string) *gin.Engine {
	router := gin.New()
	router.Use(CORSMiddleware(origins))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return router
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("allows a listed origin", func(t *testing.T) {
		router := corsRouter([]string{"http://localhost:3000"})

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Allow-Origin = %s, want the request origin", got)
		}
	})

	t.Run("ignores an unlisted origin", func(t *testing.T) {
		router := corsRouter([]string{"http://localhost:3000"})

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "http://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %s, want empty", got)
		}
	})

	t.Run("wildcard allows everything", func(t *testing.T) {
		router := corsRouter([]string{"*"})

		req, _ := http.NewRequest("GET", "/ping", nil)
		req.Header.Set("Origin", "http://anywhere.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://anywhere.example.com" {
			t.Errorf("Allow-Origin = %s, want the request origin", got)
		}
	})

	t.Run("preflight is answered with 204", func(t *testing.T) {
		router := corsRouter([]string{"*"})

		req, _ := http.NewRequest("OPTIONS", "/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", w.Code)
		}
	})
}

func TestIsAllowedOrigin(t *testing.T) {
	origins := []string{"http://localhost:3000", "https://admin.example.com*"}

	if !isAllowedOrigin("http://localhost:3000", origins) {
		t.Error("exact origin rejected")
	}
	if !isAllowedOrigin("https://admin.example.com/app", origins) {
		t.Error("prefix wildcard rejected")
	}
	if isAllowedOrigin("http://other.example.com", origins) {
		t.Error("unlisted origin accepted")
	}
}
