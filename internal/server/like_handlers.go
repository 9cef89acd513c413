package server

import (
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike likes the message, or unlikes it when already liked.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	me := currentUser(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if _, err := s.likeService.Toggle(c.UserContext(), me.ID, id); err != nil {
		if models.HasCode(err, models.CodeValidation) {
			flash(c, appErrorMessage(err), "danger")
			return redirect(c, "/")
		}
		return err
	}
	return redirect(c, "/")
}
