package server

import (
	"fmt"
	"strings"

	"warbler/internal/models"
	"warbler/internal/service"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
)

// ListUsers shows every user, or those whose username contains ?q=.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	me := currentUser(c)
	ctx := c.UserContext()
	query := strings.TrimSpace(c.Query("q"))
	page := parsePagination(c, maxPaginationLimit)

	users, err := s.userService.ListUsers(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return err
	}
	following, err := s.followService.FollowingSet(ctx, me.ID)
	if err != nil {
		return err
	}

	return s.render(c, "users/index", fiber.Map{
		"Users":        users,
		"Query":        query,
		"FollowingSet": following,
	})
}

// profileData loads the header shared by every profile tab.
func (s *Server) profileData(c *fiber.Ctx) (fiber.Map, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	ctx := c.UserContext()
	me := currentUser(c)

	profile, err := s.userService.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.userService.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	following, err := s.followService.FollowingSet(ctx, me.ID)
	if err != nil {
		return nil, err
	}
	liked, err := s.likeService.LikedSet(ctx, me.ID)
	if err != nil {
		return nil, err
	}

	return fiber.Map{
		"Profile":      profile,
		"Stats":        stats,
		"IsFollowing":  following[profile.ID],
		"FollowingSet": following,
		"Liked":        liked,
	}, nil
}

// ShowUser renders a profile with the user's messages.
func (s *Server) ShowUser(c *fiber.Ctx) error {
	data, err := s.profileData(c)
	if err != nil {
		return err
	}
	profile := data["Profile"].(*models.User)

	messages, err := s.messageService.ForUser(c.UserContext(), profile.ID, profileMessages)
	if err != nil {
		return err
	}
	data["Messages"] = messages
	return s.render(c, "users/show", data)
}

// ShowFollowing lists the users a profile follows.
func (s *Server) ShowFollowing(c *fiber.Ctx) error {
	data, err := s.profileData(c)
	if err != nil {
		return err
	}
	profile := data["Profile"].(*models.User)

	users, err := s.followService.Following(c.UserContext(), profile.ID)
	if err != nil {
		return err
	}
	data["Users"] = users
	return s.render(c, "users/following", data)
}

// ShowFollowers lists the users following a profile.
func (s *Server) ShowFollowers(c *fiber.Ctx) error {
	data, err := s.profileData(c)
	if err != nil {
		return err
	}
	profile := data["Profile"].(*models.User)

	users, err := s.followService.Followers(c.UserContext(), profile.ID)
	if err != nil {
		return err
	}
	data["Users"] = users
	return s.render(c, "users/followers", data)
}

// ShowLikes lists the messages a profile liked.
func (s *Server) ShowLikes(c *fiber.Ctx) error {
	data, err := s.profileData(c)
	if err != nil {
		return err
	}
	profile := data["Profile"].(*models.User)

	messages, err := s.messageService.LikedBy(c.UserContext(), profile.ID, profileMessages)
	if err != nil {
		return err
	}
	data["Messages"] = messages
	return s.render(c, "users/likes", data)
}

func profileForm(u *models.User) service.ProfileInput {
	return service.ProfileInput{
		Username:       u.Username,
		Email:          u.Email,
		ImageURL:       u.ImageURL,
		HeaderImageURL: u.HeaderImageURL,
		Bio:            u.Bio,
		Location:       u.Location,
	}
}

// EditProfileForm renders the profile form prefilled with the current values.
func (s *Server) EditProfileForm(c *fiber.Ctx) error {
	return s.render(c, "users/edit", fiber.Map{"Form": profileForm(currentUser(c))})
}

// UpdateProfile applies the form after re-checking the password.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	me := currentUser(c)
	form := service.ProfileInput{
		Username:       strings.TrimSpace(c.FormValue("username")),
		Email:          strings.TrimSpace(c.FormValue("email")),
		ImageURL:       strings.TrimSpace(c.FormValue("image_url")),
		HeaderImageURL: strings.TrimSpace(c.FormValue("header_image_url")),
		Bio:            c.FormValue("bio"),
		Location:       strings.TrimSpace(c.FormValue("location")),
	}

	updated, err := s.userService.UpdateProfile(c.UserContext(), me.ID, c.FormValue("password"), form)
	if err != nil {
		switch {
		case models.HasCode(err, models.CodeUnauthorized):
			flash(c, "Wrong password, please try again.", "danger")
			return redirect(c, "/")
		case models.IsConstraintViolation(err):
			return s.render(c, "users/edit", fiber.Map{"Form": form, "Flash": inlineFlash("Username or email already taken")})
		case models.HasCode(err, models.CodeValidation):
			return s.render(c, "users/edit", fiber.Map{"Form": form, "Flash": inlineFlash(appErrorMessage(err))})
		default:
			return err
		}
	}

	c.Locals(localUser, updated)
	return redirect(c, fmt.Sprintf("/users/%d", updated.ID))
}

// DeleteAccount removes the current user with everything they own, then
// logs them out.
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	me := currentUser(c)
	if err := s.userService.DeleteAccount(c.UserContext(), me.ID); err != nil {
		return err
	}
	if sess := currentSession(c); sess != nil {
		session.Logout(sess)
	}
	c.Locals(localUser, nil)
	return redirect(c, "/signup")
}
