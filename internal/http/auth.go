package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func profile(u domain.User, role string) fiber.Map {
	return fiber.Map{
		"id":        u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"full_name": u.FullName,
		"role":      role,
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Username and password required"})
	}

	sess, err := s.auth.Login(c.UserContext(), strings.TrimSpace(req.Username), req.Password)
	var locked *service.LockedError
	switch {
	case errors.As(err, &locked):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"success": false, "message": locked.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		log.Info().Str("username", req.Username).Str("ip", c.IP()).Msg("login rejected")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid credentials"})
	case err != nil:
		return s.fail(c, err, "Login failed")
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"token":          sess.Token,
		"message":        "Login successful",
		"role":           sess.Claims.Role,
		"user":           profile(sess.User, sess.Claims.Role),
		"allowed_tables": nonNilStrings(sess.Scopes.Tables),
		"allowed_routes": nonNilStrings(sess.Scopes.Routes),
	})
}

func (s *Server) logout(c *fiber.Ctx) error {
	if err := s.auth.Logout(c.UserContext(), currentUser(c)); err != nil {
		return s.fail(c, err, "Logout failed")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Logged out"})
}

func (s *Server) me(c *fiber.Ctx) error {
	claims := currentUser(c)
	u, scopes, err := s.auth.Me(c.UserContext(), claims.Username())
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return s.fail(c, err, "Failed to load profile")
	}
	return c.JSON(fiber.Map{
		"user":           profile(u, claims.Role),
		"allowed_tables": nonNilStrings(scopes.Tables),
		"allowed_routes": nonNilStrings(scopes.Routes),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Current password and new password are required"})
	}

	err := s.auth.ChangePassword(c.UserContext(), currentUser(c).Username(), req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Current password is incorrect"})
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "User not found"})
	case err != nil:
		return s.fail(c, err, "Failed to change password")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Password changed successfully"})
}
