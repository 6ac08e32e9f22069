package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSuccessEnvelope(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"classes": []string{"bard"}})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != StatusSuccess {
		t.Fatalf("status = %v", body["status"])
	}
	if _, ok := body["data"].(map[string]any)["classes"]; !ok {
		t.Fatalf("data = %v", body["data"])
	}
	if _, ok := body["message"]; ok {
		t.Fatal("success envelope carries a message")
	}
	if body["metadata"].(map[string]any)["request_id"] != "req-1" {
		t.Fatalf("metadata = %v", body["metadata"])
	}
	if w.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("X-Request-ID header = %q", w.Header().Get("X-Request-ID"))
	}
}

func TestFailWithMessageEnvelope(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		FailWithMessage(c, http.StatusInternalServerError, ErrUpstream, "Failed to retrieve classes: boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", w.Code)
	}
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != StatusError || body.Message != "Failed to retrieve classes: boom" {
		t.Fatalf("envelope = %+v", body)
	}
	if body.Error == nil || body.Error.Code != ErrUpstream {
		t.Fatalf("error body = %+v", body.Error)
	}
	if body.Data != nil {
		t.Fatalf("error envelope carries data %v", body.Data)
	}
	if body.Metadata.RequestID == "" {
		t.Fatal("missing fallback request id")
	}
}
