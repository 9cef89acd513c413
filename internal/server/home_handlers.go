package server

import (
	"github.com/gofiber/fiber/v2"
)

// Home shows the landing page to anonymous visitors and the timeline of
// followed users to logged-in ones.
func (s *Server) Home(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return s.render(c, "home_anon", nil)
	}

	ctx := c.UserContext()
	messages, err := s.messageService.Timeline(ctx, user.ID)
	if err != nil {
		return err
	}
	stats, err := s.userService.Stats(ctx, user.ID)
	if err != nil {
		return err
	}
	liked, err := s.likeService.LikedSet(ctx, user.ID)
	if err != nil {
		return err
	}

	return s.render(c, "home", fiber.Map{
		"Messages": messages,
		"Stats":    stats,
		"Liked":    liked,
	})
}
