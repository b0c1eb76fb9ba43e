package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/kangback324/board/internal/config"
	"github.com/kangback324/board/internal/database"
	"github.com/kangback324/board/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newSQLiteServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	cfg := &config.Config{
		Port:                     "3000",
		Env:                      "test",
		DBDriver:                 config.DriverSQLite,
		DBPath:                   filepath.Join(t.TempDir(), "board.db"),
		DBMaxOpenConns:           4,
		DBMaxIdleConns:           2,
		DBConnMaxLifetimeMinutes: 5,
		BcryptCost:               bcrypt.MinCost,
		AllowedOrigins:           "*",
	}
	require.NoError(t, database.RunMigrations(cfg))
	db, err := database.Connect(cfg)
	require.NoError(t, err)

	srv, err := NewServerWithDeps(cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, srv.App()
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, body
}

func TestBoardScenario(t *testing.T) {
	_, app := newSQLiteServer(t)

	resp, body := doRequest(t, app, jsonRequest(http.MethodPost, "/board/create", map[string]string{
		"title": "T1", "content": "C1", "password": "secret", "author": "alice",
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/board/view/all", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []models.PostView
	require.NoError(t, json.Unmarshal(body, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "T1", posts[0].Title)
	assert.Equal(t, "alice", posts[0].Author)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "secret")
	id := posts[0].PostID
	idPath := func(prefix string) string { return prefix + jsonNumber(id) }

	resp, body = doRequest(t, app, jsonRequest(http.MethodPut, idPath("/board/edit/"), map[string]string{
		"title": "T1", "content": "C2", "password": "wrong",
	}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), models.CodePasswordMismatch)

	resp, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, idPath("/board/view/"), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"content":"C1"`)

	resp, _ = doRequest(t, app, jsonRequest(http.MethodPut, idPath("/board/edit/"), map[string]string{
		"title": "T1", "content": "C2", "password": "secret",
	}))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, idPath("/board/view/"), nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"content":"C2"`)

	resp, _ = doRequest(t, app, jsonRequest(http.MethodDelete, idPath("/board/delete/"), map[string]string{
		"password": "secret",
	}))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, idPath("/board/view/"), nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), models.CodeNotFound)

	resp, _ = doRequest(t, app, jsonRequest(http.MethodPut, idPath("/board/edit/"), map[string]string{
		"password": "secret",
	}))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, app, jsonRequest(http.MethodDelete, idPath("/board/delete/"), map[string]string{
		"password": "secret",
	}))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestViewMissingPostIsNotEmptyList(t *testing.T) {
	_, app := newSQLiteServer(t)

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/board/view/9999", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Not found post","code":"NOT_FOUND"}`, string(body))

	resp, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/board/view/all", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestListAfterCreates(t *testing.T) {
	_, app := newSQLiteServer(t)

	const n = 3
	for i := 0; i < n; i++ {
		resp, _ := doRequest(t, app, jsonRequest(http.MethodPost, "/board/create", map[string]string{
			"title": "T", "content": "C", "password": "pw", "author": "a",
		}))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/board/view/all", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &posts))
	assert.Len(t, posts, n)
	for _, p := range posts {
		assert.ElementsMatch(t, []string{"post_id", "title", "content", "author"}, keys(p))
	}
}

func TestAmbientRoutes(t *testing.T) {
	_, app := newSQLiteServer(t)

	t.Run("root redirects to docs", func(t *testing.T) {
		resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/api-docs/", resp.Header.Get("Location"))
	})

	t.Run("swagger document", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api-docs/doc.json", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "/board/view/{post_id}")
	})

	t.Run("liveness", func(t *testing.T) {
		resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readiness", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"database":"healthy"`)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, _ := doRequest(t, app, jsonRequest(http.MethodPost, "/board/create", map[string]string{
			"title": "T", "content": "C", "password": "pw", "author": "a",
		}))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp, _ = doRequest(t, app, jsonRequest(http.MethodDelete, "/board/delete/1", map[string]string{
			"password": "wrong",
		}))
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		out := string(body)
		assert.Contains(t, out, "http_requests_total")
		assert.Contains(t, out, "board_database_query_latency_seconds")
		assert.Contains(t, out, `board_password_verifications_total{result="mismatch"}`)
		assert.Contains(t, out, `board_posts_mutated_total{operation="create"}`)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, string(body), models.CodeNotFound)
	})
}

func TestReadinessReportsClosedPool(t *testing.T) {
	srv, app := newSQLiteServer(t)
	require.NoError(t, database.Close(srv.db))

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), `"database":"unhealthy"`)
}

func TestRecoverReturnsInternalError(t *testing.T) {
	srv, _ := newSQLiteServer(t)
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	srv.SetupMiddleware(app)
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Internal server error","code":"INTERNAL_ERROR"}`, string(body))
}

func TestNewServerWithDeps_RequiresDB(t *testing.T) {
	_, err := NewServerWithDeps(&config.Config{}, nil)
	assert.Error(t, err)
}

func jsonNumber(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
