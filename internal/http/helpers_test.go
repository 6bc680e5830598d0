package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"auctions/internal/config"
	"auctions/internal/events"
	"auctions/internal/http/handlers"
	applog "auctions/internal/log"
	"auctions/internal/repos"
)

func testConfig() config.Config {
	return config.Config{
		DBDriver:  repos.DriverSQLite,
		DBDSN:     ":memory:",
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}
}

// Minimal app with the real routes and error handler
func newTestApp(t *testing.T, pub events.Publisher) (*fiber.App, *sqlx.DB, *handlers.Deps) {
	t.Helper()
	cfg := testConfig()
	db, err := repos.OpenDB(t.Context(), repos.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	deps := handlers.NewDeps(db, cfg, pub)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	deps.Mount(app)
	return app, db, deps
}

type result struct {
	Status int
	Body   map[string]any
	Resp   *http.Response
}

func call(t *testing.T, app *fiber.App, method, path string, body any, token string) result {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatal(err)
			}
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := result{Status: resp.StatusCode, Resp: resp}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out.Body)
	}
	return out
}

// signup registers and logs in, returning the bearer token.
func signup(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	r := call(t, app, "POST", "/api/v1/register", map[string]string{
		"username": username, "email": username + "@example.test",
		"password": "Passw0rd!", "confirmation": "Passw0rd!",
	}, "")
	if r.Status != http.StatusCreated {
		t.Fatalf("register %s: %d %v", username, r.Status, r.Body)
	}
	r = call(t, app, "POST", "/api/v1/login", map[string]string{"username": username, "password": "Passw0rd!"}, "")
	if r.Status != http.StatusOK {
		t.Fatalf("login %s: %d %v", username, r.Status, r.Body)
	}
	return r.Body["token"].(string)
}

func createListing(t *testing.T, app *fiber.App, token, price, category string) int64 {
	t.Helper()
	r := call(t, app, "POST", "/api/v1/listings", map[string]any{
		"title": "Camera", "description": "35mm film camera", "starting_price": price,
		"image_url": "https://img.example/camera.jpg", "category": category,
	}, token)
	if r.Status != http.StatusCreated {
		t.Fatalf("create listing: %d %v", r.Status, r.Body)
	}
	return int64(r.Body["id"].(float64))
}

type logEntry struct {
	Action string         `json:"action"`
	Level  string         `json:"level"`
	Kind   string         `json:"kind"`
	UserID string         `json:"user_id"`
	ReqID  string         `json:"req_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	old := applog.Writer()
	applog.SetOutput(buf)
	defer applog.SetOutput(old)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func hasAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
