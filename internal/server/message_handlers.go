package server

import (
	"fmt"

	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// NewMessageForm renders the compose page.
func (s *Server) NewMessageForm(c *fiber.Ctx) error {
	return s.render(c, "messages/new", fiber.Map{"Text": ""})
}

// CreateMessage posts a message and shows it on the author's profile.
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	me := currentUser(c)
	text := c.FormValue("text")

	if _, err := s.messageService.Post(c.UserContext(), me.ID, text); err != nil {
		if models.HasCode(err, models.CodeValidation) {
			return s.render(c, "messages/new", fiber.Map{"Text": text, "Flash": inlineFlash(appErrorMessage(err))})
		}
		return err
	}
	return redirect(c, fmt.Sprintf("/users/%d", me.ID))
}

// ShowMessage renders a single message. Anyone may view it.
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	msg, err := s.messageService.GetMessage(c.UserContext(), id)
	if err != nil {
		return err
	}
	return s.render(c, "messages/show", fiber.Map{"Message": msg})
}

// DeleteMessage removes a message owned by the current user. Someone
// else's message is left untouched and the request is turned away like an
// anonymous one.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	me := currentUser(c)
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := s.messageService.Delete(c.UserContext(), me.ID, id); err != nil {
		if models.HasCode(err, models.CodeForbidden) {
			flash(c, "Access unauthorized.", "danger")
			return redirect(c, "/")
		}
		return err
	}
	return redirect(c, fmt.Sprintf("/users/%d", me.ID))
}
