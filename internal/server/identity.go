package server

import (
	"log/slog"

	"warbler/internal/cache"
	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Identity loads the browser session and resolves the logged-in user once
// per request. Handler errors are rendered here, while the session is still
// open, so error pages keep the navigation bar and pending flash; the session
// is saved afterwards.
func (s *Server) Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.sessions.Get(c)
		if err != nil {
			return err
		}
		c.Locals(localSession, sess)

		user, chainErr := s.identity.CurrentUser(c.UserContext(), sess)
		if chainErr == nil {
			if user != nil {
				c.Locals(localUser, user)
				c.Locals(localUserID, user.ID)
				c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
			}
			chainErr = c.Next()
		}

		if chainErr != nil {
			if err := s.handleError(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// Save releases the session back to its pool.
		c.Locals(localSession, nil)
		if err := sess.Save(); err != nil {
			middleware.Logger.ErrorContext(c.UserContext(), "session save failed",
				slog.String("error", err.Error()))
		}
		return nil
	}
}

// LoginRequired turns anonymous visitors away from protected pages with a
// flash message and a redirect home. Nothing downstream runs.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) != nil {
			return c.Next()
		}
		flash(c, "Access unauthorized.", "danger")
		return redirect(c, "/")
	}
}

// APIAuthRequired authenticates /api requests with a bearer token issued by
// POST /api/token. Revoked tokens and tokens of deleted users are rejected.
func (s *Server) APIAuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := middleware.BearerToken(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		ctx := c.UserContext()
		revoked, err := cache.IsTokenRevoked(ctx, claims.JTI)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		}
		if revoked {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		user, err := s.userRepo.GetByID(ctx, claims.UserID)
		if err != nil {
			if models.IsNotFound(err) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired token"))
			}
			return err
		}

		c.Locals(localUser, user)
		c.Locals(localUserID, user.ID)
		c.Locals(localClaims, claims)
		c.SetUserContext(middleware.WithUserID(ctx, user.ID))
		return c.Next()
	}
}
