package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestIssueAndParseToken(t *testing.T) {
	signed, issued, err := IssueToken(testSecret, 42, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)

	claims, err := ParseToken(testSecret, signed)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, issued.JTI, claims.JTI)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, _, err := IssueToken(testSecret, 7, -time.Minute)
	require.NoError(t, err)

	otherSecret, _, err := IssueToken("another-secret-another-secret-123456", 7, time.Hour)
	require.NoError(t, err)

	noIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.Itoa(7),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noIssuerSigned, err := noIssuer.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", otherSecret},
		{"missing issuer", noIssuerSigned},
		{"garbage", "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(testSecret, tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/test", func(c *fiber.Ctx) error {
		tok, err := BearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		return c.SendString(tok)
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer abc.def.ghi", http.StatusOK},
		{"Lowercase Scheme", "bearer abc.def.ghi", http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Basic Scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Empty Token", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}
