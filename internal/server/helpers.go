package server

import (
	"errors"
	"strings"

	"warbler/internal/models"
	"warbler/internal/service"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
)

// Locals keys shared by the identity middlewares and the handlers.
const (
	localSession = "session"
	localUser    = "user"
	localUserID  = "userID"
	localClaims  = "tokenClaims"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
	profileMessages    = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID reads the :id route parameter. Routes constrain it to digits, so
// the only failure left is a zero or overflowing id, which is a 404.
func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// mapServiceError converts an AppError code to an HTTP status.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeConstraintViolation:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func respondAPIError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status == fiber.StatusInternalServerError {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
	}
	return models.RespondWithError(c, status, err)
}

func isAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api")
}

// appErrorMessage returns the user-facing message of an AppError.
func appErrorMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong."
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

func currentSession(c *fiber.Ctx) *fibersession.Session {
	sess, _ := c.Locals(localSession).(*fibersession.Session)
	return sess
}

// flash queues a message for the next rendered page.
func flash(c *fiber.Ctx, message, category string) {
	if sess := currentSession(c); sess != nil {
		session.SetFlash(sess, message, category)
	}
}

func redirect(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusFound)
}

// render executes a page with the bindings every template expects filled in.
// A "Flash" binding given by the caller wins over the session's pending one.
func (s *Server) render(c *fiber.Ctx, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	setDefault(data, "CurrentUser", currentUser(c))
	setDefault(data, "BodyClass", onboardingPages[name])
	if _, ok := data["Flash"]; !ok {
		var pending *session.Flash
		if sess := currentSession(c); sess != nil {
			pending = session.PopFlash(sess)
		}
		data["Flash"] = pending
	}
	setDefault(data, "Query", "")
	setDefault(data, "Liked", map[uint]bool{})
	setDefault(data, "FollowingSet", map[uint]bool{})
	setDefault(data, "Stats", &models.UserStats{})
	setDefault(data, "Form", service.ProfileInput{})
	setDefault(data, "IsFollowing", false)

	c.Type("html", "utf-8")
	return c.Render(name, data)
}

// onboardingPages get the full-screen onboarding background.
var onboardingPages = map[string]string{
	"home_anon": "onboarding",
	"login":     "onboarding",
	"signup":    "onboarding",
}

func setDefault(data fiber.Map, key string, value interface{}) {
	if _, ok := data[key]; !ok {
		data[key] = value
	}
}

func inlineFlash(message string) *session.Flash {
	return &session.Flash{Message: message, Category: "danger"}
}
