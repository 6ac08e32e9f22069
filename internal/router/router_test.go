package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/calabozos/calabozos-backend/internal/config"
	"github.com/calabozos/calabozos-backend/internal/database"
	"github.com/calabozos/calabozos-backend/internal/handler"
	"github.com/calabozos/calabozos-backend/internal/middleware"
	"github.com/calabozos/calabozos-backend/internal/repository"
	"github.com/calabozos/calabozos-backend/internal/service"
	"github.com/calabozos/calabozos-backend/internal/upstream"
	"github.com/calabozos/calabozos-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	testEmail    = "dm@calabozos.test"
	testPassword = "critical-hit"
)

type memorySessions struct {
	live map[string]bool
}

func (m *memorySessions) Save(_ context.Context, userID int64, tokenID string, _ time.Duration) error {
	m.live[config.CacheKey.TokenSessionKey(userID, tokenID)] = true
	return nil
}

func (m *memorySessions) Exists(_ context.Context, userID int64, tokenID string) (bool, error) {
	return m.live[config.CacheKey.TokenSessionKey(userID, tokenID)], nil
}

func (m *memorySessions) Delete(_ context.Context, userID int64, tokenID string) error {
	delete(m.live, config.CacheKey.TokenSessionKey(userID, tokenID))
	return nil
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// fakeDnDAPI mimics the reference API for a handful of paths.
func fakeDnDAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/classes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":3,"results":[` +
			`{"index":"wizard","name":"Wizard","url":"/api/classes/wizard"},` +
			`42,` +
			`{"index":"bard","name":"Bard","url":"/api/classes/bard"}]}`))
	})
	mux.HandleFunc("/classes/wizard", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"index":"wizard","name":"Wizard","hit_die":6}`))
	})
	mux.HandleFunc("/classes/wizard/spells", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":1,"results":[{"index":"fireball"}]}`))
	})
	mux.HandleFunc("/classes/wizard/multi-classing", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prerequisites":[{"minimum_score":13}]}`))
	})
	mux.HandleFunc("/classes/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	validator.Setup()

	cfg := &config.Config{
		GinMode:    gin.TestMode,
		DBDriver:   config.DriverSQLite,
		SQLitePath: database.MemoryPath,
		JWTSecret:  "router-test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4,
	}

	stores, err := repository.Open(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("repository.Open() error = %v", err)
	}
	t.Cleanup(stores.Close)

	client, err := upstream.NewClient(upstream.Config{BaseURL: fakeDnDAPI(t).URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	authService := service.NewAuthService(cfg, stores.Users, &memorySessions{live: map[string]bool{}})
	classService := service.NewClassService(client, stores.Classes, zerolog.Nop())

	if _, err := authService.CreateUser(ctx, "Dungeon Master", testEmail, testPassword); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	handlers := &Handlers{
		Auth:   handler.NewAuthHandler(authService, false, zerolog.Nop()),
		Class:  handler.NewClassHandler(classService, zerolog.Nop()),
		Web:    handler.NewWebHandler(classService, zerolog.Nop()),
		System: handler.NewSystemHandler(map[string]handler.HealthCheck{
			"database": stores.Ping,
		}, zerolog.Nop()),
	}
	return SetupRouter(ctx, authService, handlers, cfg, zerolog.Nop()), authService
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func login(t *testing.T, r http.Handler) (string, *http.Cookie) {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/login", "", gin.H{"email": testEmail, "password": testPassword})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login data = %s", w.Body.String())
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.TokenCookie {
			return data.Token, ck
		}
	}
	t.Fatal("login did not set the token cookie")
	return "", nil
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestClassRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/calabozos/classes", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Status != "error" || env.Error == nil || env.Error.Code != "TOKEN_REQUIRED" {
		t.Fatalf("unexpected envelope %s", w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/calabozos/classes", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/login", "", gin.H{"email": testEmail, "password": "wrong-password"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/login", "", gin.H{"email": "not-an-email"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid payload status = %d, want 400", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected envelope %s", w.Body.String())
	}
}

func TestSyncAndStoredClasses(t *testing.T) {
	r, _ := newTestRouter(t)
	token, _ := login(t, r)

	for _, path := range []string{"/api/calabozos/classes", "/api/calabozos/stored-classes"} {
		w := do(t, r, http.MethodGet, path, token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d, body %s", path, w.Code, w.Body.String())
		}
		if got := w.Header().Get("Cache-Control"); got != "no-store" {
			t.Fatalf("%s Cache-Control = %q", path, got)
		}

		env := decodeEnvelope(t, w)
		var data struct {
			Classes []struct {
				Index string `json:"index"`
				Name  string `json:"name"`
			} `json:"classes"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("%s data: %v", path, err)
		}
		if env.Status != "success" || len(data.Classes) != 2 ||
			data.Classes[0].Index != "wizard" || data.Classes[1].Index != "bard" {
			t.Fatalf("%s body = %s", path, w.Body.String())
		}
	}
}

func TestClassDetailRoutes(t *testing.T) {
	r, _ := newTestRouter(t)
	token, _ := login(t, r)

	cases := []struct {
		path string
		key  string
	}{
		{"/api/calabozos/classes/wizard", "class"},
		{"/api/calabozos/classes/wizard/spells", "spells"},
		{"/api/calabozos/classes/wizard/multiclassing", "multiclassing"},
	}
	for _, tc := range cases {
		w := do(t, r, http.MethodGet, tc.path, token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d, body %s", tc.path, w.Code, w.Body.String())
		}
		var data map[string]json.RawMessage
		if err := json.Unmarshal(decodeEnvelope(t, w).Data, &data); err != nil {
			t.Fatalf("%s data: %v", tc.path, err)
		}
		if _, ok := data[tc.key]; !ok {
			t.Fatalf("%s missing %q key: %s", tc.path, tc.key, w.Body.String())
		}
	}
}

func TestClassDetailErrors(t *testing.T) {
	r, _ := newTestRouter(t)
	token, _ := login(t, r)

	w := do(t, r, http.MethodGet, "/api/calabozos/classes/unknown", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown status = %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Status != "error" || env.Message != "Class not found" {
		t.Fatalf("unknown body = %s", w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/calabozos/classes/wizard/features", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing subresource status = %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/calabozos/classes/broken", token, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("broken status = %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if !strings.HasPrefix(env.Message, "Failed to retrieve class details: ") ||
		!strings.Contains(env.Message, "503 Service Unavailable") {
		t.Fatalf("broken message = %q", env.Message)
	}
	if env.Error == nil || env.Error.Code != "UPSTREAM_ERROR" {
		t.Fatalf("broken body = %s", w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/calabozos/classes/%20%20", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank index status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestClassesPageUsesCookie(t *testing.T) {
	r, _ := newTestRouter(t)
	_, cookie := login(t, r)

	req := httptest.NewRequest(http.MethodGet, "/calabozos/classes", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if got := w.Header().Get("Cache-Control"); got != "private, no-cache" {
		t.Fatalf("Cache-Control = %q", got)
	}
	if !strings.Contains(w.Body.String(), ">Wizard</a>") {
		t.Fatalf("page missing class: %s", w.Body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	r, _ := newTestRouter(t)
	token, _ := login(t, r)

	if w := do(t, r, http.MethodGet, "/api/user", token, nil); w.Code != http.StatusOK {
		t.Fatalf("user status = %d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/api/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	w := do(t, r, http.MethodGet, "/api/user", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status after logout = %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error == nil || env.Error.Code != "SESSION_INVALIDATED" {
		t.Fatalf("unexpected envelope %s", w.Body.String())
	}
}
