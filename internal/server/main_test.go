package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:              "5000",
		Env:               "test",
		JWTSecret:         "test-secret-that-is-long-enough-1234",
		AllowedOrigins:    "http://localhost:5000",
		SessionTTLMinutes: 60,
	}
}

func newTestServer(t *testing.T, rdb *redis.Client) (*Server, *fiber.App) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	srv, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)
	srv.credentials.SetHashCost(bcrypt.MinCost)
	return srv, srv.App()
}

// browser replays session cookies between requests like a real client.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newBrowser(t *testing.T, app *fiber.App) *browser {
	return &browser{t: t, app: app, cookies: map[string]string{}}
}

func (b *browser) do(method, path string, form url.Values) (*http.Response, string) {
	b.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	for _, ck := range resp.Cookies() {
		if ck.Value == "" || ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck.Value
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	_ = resp.Body.Close()
	return resp, string(raw)
}

func (b *browser) get(path string) (*http.Response, string) {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, path, form)
}

// signup registers username through the form and returns the new user.
func (b *browser) signup(srv *Server, username string) *models.User {
	b.t.Helper()
	resp, _ := b.post("/signup", url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"secret1"},
	})
	require.Equal(b.t, fiber.StatusFound, resp.StatusCode)
	require.Equal(b.t, "/", resp.Header.Get("Location"))

	var u models.User
	require.NoError(b.t, srv.db.Where("username = ?", username).First(&u).Error)
	return &u
}

func userPath(id uint, suffix string) string {
	return fmt.Sprintf("/users/%d%s", id, suffix)
}
