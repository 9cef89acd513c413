package server

import (
	"context"
	"fmt"

	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Follow adds the current user as a follower of :id.
func (s *Server) Follow(c *fiber.Ctx) error {
	return s.changeFollow(c, s.followService.Follow)
}

// StopFollowing removes the current user from the followers of :id.
func (s *Server) StopFollowing(c *fiber.Ctx) error {
	return s.changeFollow(c, s.followService.Unfollow)
}

func (s *Server) changeFollow(c *fiber.Ctx, change func(ctx context.Context, actorID, targetID uint) error) error {
	me := currentUser(c)
	targetID, err := parseID(c)
	if err != nil {
		return err
	}

	following := fmt.Sprintf("/users/%d/following", me.ID)
	if err := change(c.UserContext(), me.ID, targetID); err != nil {
		if models.HasCode(err, models.CodeValidation) {
			flash(c, appErrorMessage(err), "danger")
			return redirect(c, following)
		}
		return err
	}
	return redirect(c, following)
}
