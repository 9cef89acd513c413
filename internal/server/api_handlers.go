package server

import (
	"strings"
	"time"

	"warbler/internal/cache"
	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

const apiTokenTTL = 24 * time.Hour

// TokenRequest is the body of POST /api/token.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token for the JSON API.
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// MeResponse is the body of GET /api/me.
type MeResponse struct {
	User  *models.User      `json:"user"`
	Stats *models.UserStats `json:"stats"`
}

// IssueAPIToken godoc
// @Summary Issue an API token
// @Description Exchange a username and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /token [post]
func (s *Server) IssueAPIToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.credentials.Authenticate(c.UserContext(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return err
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials."))
	}

	token, claims, err := middleware.IssueToken(s.config.JWTSecret, user.ID, apiTokenTTL)
	if err != nil {
		return err
	}

	return c.JSON(TokenResponse{Token: token, ExpiresAt: claims.ExpiresAt, User: user})
}

// RevokeAPIToken godoc
// @Summary Revoke the presented token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /token/revoke [post]
func (s *Server) RevokeAPIToken(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Token revocation is unavailable",
		})
	}
	claims, _ := c.Locals(localClaims).(*middleware.TokenClaims)
	if claims == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
	if err := cache.RevokeToken(c.UserContext(), claims.JTI, claims.ExpiresAt); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// APIMe godoc
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /me [get]
func (s *Server) APIMe(c *fiber.Ctx) error {
	me := currentUser(c)
	stats, err := s.userService.Stats(c.UserContext(), me.ID)
	if err != nil {
		return err
	}
	return c.JSON(MeResponse{User: me, Stats: stats})
}

// APITimeline godoc
// @Summary Home timeline
// @Description Newest messages by the current user and the users they follow
// @Tags messages
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Message
// @Failure 401 {object} models.ErrorResponse
// @Router /timeline [get]
func (s *Server) APITimeline(c *fiber.Ctx) error {
	messages, err := s.messageService.Timeline(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(messages)
}

// APIUserMessages godoc
// @Summary Messages of a user
// @Tags messages
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Maximum number of messages"
// @Success 200 {array} models.Message
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/messages [get]
func (s *Server) APIUserMessages(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	if _, err := s.userService.GetUserByID(ctx, id); err != nil {
		return err
	}

	page := parsePagination(c, profileMessages)
	messages, err := s.messageService.ForUser(ctx, id, page.Limit)
	if err != nil {
		return err
	}
	return c.JSON(messages)
}
