package server

import (
	"net/url"
	"testing"

	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome_Anonymous(t *testing.T) {
	_, app := newTestServer(t, nil)
	b := newBrowser(t, app)

	resp, body := b.get("/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>What's Happening?</h1>")
	assert.NotContains(t, body, `<p class="small">Messages</p>`)
}

func TestSignup_LogsInAndShowsTimeline(t *testing.T) {
	srv, app := newTestServer(t, nil)
	b := newBrowser(t, app)

	b.signup(srv, "alice")

	resp, body := b.get("/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<p class="small">Messages</p>`)
	assert.Contains(t, body, "@alice")
	assert.NotContains(t, body, "What's Happening?")
}

func TestSignup_DuplicateUsernameRerendersForm(t *testing.T) {
	srv, app := newTestServer(t, nil)
	newBrowser(t, app).signup(srv, "alice")

	b := newBrowser(t, app)
	resp, body := b.post("/signup", url.Values{
		"username": {"alice"},
		"email":    {"other@example.com"},
		"password": {"secret1"},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Username already taken")
	assert.Contains(t, body, `value="other@example.com"`)

	var count int64
	require.NoError(t, srv.db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Still anonymous.
	_, home := b.get("/")
	assert.Contains(t, home, "<h1>What's Happening?</h1>")
}

func TestSignup_RejectedFieldIsNamed(t *testing.T) {
	srv, app := newTestServer(t, nil)
	newBrowser(t, app).signup(srv, "alice")

	tests := []struct {
		name     string
		username string
		email    string
		flash    string
	}{
		{"duplicate email", "bob", "alice@example.com", "Email already taken"},
		{"empty username", "", "bob@example.com", "Username is required"},
		{"empty email", "bob", "", "Email is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := newBrowser(t, app).post("/signup", url.Values{
				"username": {tt.username},
				"email":    {tt.email},
				"password": {"secret1"},
			})
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.flash)
			assert.NotContains(t, body, "Username already taken")
		})
	}

	var count int64
	require.NoError(t, srv.db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSignup_ShortPassword(t *testing.T) {
	srv, app := newTestServer(t, nil)
	b := newBrowser(t, app)

	resp, body := b.post("/signup", url.Values{
		"username": {"alice"},
		"email":    {"alice@example.com"},
		"password": {"abc"},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Password must be at least 6 characters.")

	var count int64
	require.NoError(t, srv.db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLogin(t *testing.T) {
	srv, app := newTestServer(t, nil)
	newBrowser(t, app).signup(srv, "alice")

	t.Run("wrong password", func(t *testing.T) {
		b := newBrowser(t, app)
		resp, body := b.post("/login", url.Values{"username": {"alice"}, "password": {"nope123"}})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Invalid credentials.")
	})

	t.Run("unknown user gets the same answer", func(t *testing.T) {
		b := newBrowser(t, app)
		resp, body := b.post("/login", url.Values{"username": {"ghost"}, "password": {"secret1"}})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Invalid credentials.")
	})

	t.Run("valid credentials", func(t *testing.T) {
		b := newBrowser(t, app)
		resp, _ := b.post("/login", url.Values{"username": {"alice"}, "password": {"secret1"}})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		_, body := b.get("/")
		assert.Contains(t, body, "Hello, alice!")
		assert.Contains(t, body, `<p class="small">Messages</p>`)
	})
}

func TestLogout(t *testing.T) {
	srv, app := newTestServer(t, nil)
	b := newBrowser(t, app)
	b.signup(srv, "alice")

	resp, _ := b.get("/logout")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := b.get("/")
	assert.Contains(t, body, "<h1>What's Happening?</h1>")
	assert.Contains(t, body, "You have successfully logged out.")

	resp, _ = b.get("/users")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	// Logging out twice is harmless.
	resp, _ = b.get("/logout")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestProtectedRoutes_AnonymousIsTurnedAway(t *testing.T) {
	srv, app := newTestServer(t, nil)
	owner := newBrowser(t, app)
	alice := owner.signup(srv, "alice")
	resp, _ := owner.post("/messages/new", url.Values{"text": {"first post"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	cases := []struct {
		method string
		path   string
	}{
		{"GET", "/users"},
		{"GET", userPath(alice.ID, "")},
		{"GET", userPath(alice.ID, "/following")},
		{"GET", userPath(alice.ID, "/followers")},
		{"GET", userPath(alice.ID, "/likes")},
		{"GET", "/users/profile"},
		{"POST", "/users/profile"},
		{"POST", "/users/follow/1"},
		{"POST", "/users/stop-following/1"},
		{"POST", "/users/add_like/1"},
		{"POST", "/users/delete"},
		{"GET", "/messages/new"},
		{"POST", "/messages/new"},
		{"POST", "/messages/1/delete"},
		{"GET", "/ws/feed"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			b := newBrowser(t, app)
			var status int
			var location string
			if tc.method == "GET" {
				resp, _ := b.get(tc.path)
				status, location = resp.StatusCode, resp.Header.Get("Location")
			} else {
				resp, _ := b.post(tc.path, url.Values{"text": {"sneaky"}})
				status, location = resp.StatusCode, resp.Header.Get("Location")
			}
			assert.Equal(t, fiber.StatusFound, status)
			assert.Equal(t, "/", location)

			_, body := b.get("/")
			assert.Contains(t, body, "Access unauthorized.")
		})
	}

	var users, messages, follows, likes int64
	require.NoError(t, srv.db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, srv.db.Model(&models.Message{}).Count(&messages).Error)
	require.NoError(t, srv.db.Model(&models.Follow{}).Count(&follows).Error)
	require.NoError(t, srv.db.Model(&models.Like{}).Count(&likes).Error)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 1, messages)
	assert.Zero(t, follows)
	assert.Zero(t, likes)
}
