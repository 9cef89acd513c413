package server

import (
	"context"
	"log/slog"
	"strings"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/service"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
)

// SignupForm renders the registration page.
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, "signup", fiber.Map{"Form": service.ProfileInput{}})
}

// signupConflict names the field a rejected signup tripped over. The store
// has already refused the write; this only picks the message.
func (s *Server) signupConflict(ctx context.Context, form service.ProfileInput) string {
	switch {
	case form.Username == "":
		return "Username is required"
	case form.Email == "":
		return "Email is required"
	}
	if existing, err := s.userRepo.GetByUsername(ctx, form.Username); err == nil && existing != nil {
		return "Username already taken"
	}
	return "Email already taken"
}

// Signup creates an account, logs it in and redirects home. A rejected
// account re-renders the form with the submitted values.
func (s *Server) Signup(c *fiber.Ctx) error {
	form := service.ProfileInput{
		Username: strings.TrimSpace(c.FormValue("username")),
		Email:    strings.TrimSpace(c.FormValue("email")),
		ImageURL: strings.TrimSpace(c.FormValue("image_url")),
	}
	password := c.FormValue("password")

	if len(password) < service.MinPasswordLength {
		return s.render(c, "signup", fiber.Map{
			"Form":  form,
			"Flash": inlineFlash("Password must be at least 6 characters."),
		})
	}

	user, err := s.credentials.Signup(c.UserContext(), service.SignupInput{
		Username: form.Username,
		Email:    form.Email,
		Password: password,
		ImageURL: form.ImageURL,
	})
	if err != nil {
		switch {
		case models.IsConstraintViolation(err):
			msg := s.signupConflict(c.UserContext(), form)
			return s.render(c, "signup", fiber.Map{"Form": form, "Flash": inlineFlash(msg)})
		case models.HasCode(err, models.CodeValidation):
			return s.render(c, "signup", fiber.Map{"Form": form, "Flash": inlineFlash(appErrorMessage(err))})
		default:
			return err
		}
	}

	s.login(c, user)
	return redirect(c, "/")
}

// LoginForm renders the login page.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, "login", fiber.Map{"Username": ""})
}

// Login checks the submitted credentials. Unknown users and wrong passwords
// get the same answer.
func (s *Server) Login(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))

	user, err := s.credentials.Authenticate(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		return err
	}
	if user == nil {
		return s.render(c, "login", fiber.Map{
			"Username": username,
			"Flash":    inlineFlash("Invalid credentials."),
		})
	}

	s.login(c, user)
	flash(c, "Hello, "+user.Username+"!", "success")
	return redirect(c, "/")
}

// Logout forgets the session identity and redirects home.
func (s *Server) Logout(c *fiber.Ctx) error {
	if sess := currentSession(c); sess != nil {
		session.Logout(sess)
	}
	flash(c, "You have successfully logged out.", "success")
	return redirect(c, "/")
}

// login stores user in a fresh session id so an id issued before login
// cannot be reused afterwards.
func (s *Server) login(c *fiber.Ctx, user *models.User) {
	sess := currentSession(c)
	if sess == nil {
		return
	}
	if err := sess.Regenerate(); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "session regenerate failed", slog.String("error", err.Error()))
	}
	session.Login(sess, user)
	c.Locals(localUser, user)
	c.Locals(localUserID, user.ID)
}
