package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/auth"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
)

type userRequest struct {
	Username *string               `json:"username"`
	Email    *string               `json:"email"`
	FullName *string               `json:"fullName"`
	Role     *string               `json:"role"`
	Password *string               `json:"password"`
	SiteID   repository.NullableID `json:"site_id"`
	IsActive *bool                 `json:"is_active"`
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func randomPassword() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func userNotFound(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": what + " not found"})
}

func userConflict(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "Username or email already exists"})
}

// checkSite reports whether a requested site exists. A nil id always passes.
func (s *Server) checkSite(c *fiber.Ctx, id *int64) (bool, error) {
	if id == nil {
		return true, nil
	}
	_, err := s.store.GetLocation(c.UserContext(), *id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func markCurrent(c *fiber.Ctx, users []repository.UserSummary) {
	me := currentUser(c).Username()
	for i := range users {
		users[i].IsCurrentUser = users[i].Username == me
	}
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	siteID, err := optionalID(c, "site_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	f := repository.UserQuery{
		Search: strings.TrimSpace(c.Query("q")),
		SiteID: siteID,
		Page:   parsePagination(c),
	}
	if raw := strings.TrimSpace(c.Query("role")); raw != "" {
		role, err := s.store.ResolveRoleID(ctx, raw)
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(fiber.Map{"data": []repository.UserSummary{}, "meta": f.Page.Meta(0)})
		}
		if err != nil {
			return s.fail(c, err, "Failed to list users")
		}
		f.Role = role
	}
	rows, total, err := s.store.ListUsers(ctx, f)
	if err != nil {
		return s.fail(c, err, "Failed to list users")
	}
	markCurrent(c, rows)
	return c.JSON(fiber.Map{"data": rows, "meta": f.Page.Meta(total)})
}

func (s *Server) getUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	u, err := s.store.GetUser(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return userNotFound(c, "User")
	}
	if err != nil {
		return s.fail(c, err, "Failed to load user")
	}
	one := []repository.UserSummary{u}
	markCurrent(c, one)
	return c.JSON(fiber.Map{"success": true, "data": one[0]})
}

// createUser adds an active user. Without a password a random one is set
// and the user is expected to reset it.
func (s *Server) createUser(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	username, email := trimmed(req.Username), trimmed(req.Email)
	if username == "" || email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Username and email are required"})
	}
	if trimmed(req.Role) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Role is required"})
	}

	ctx := c.UserContext()
	role, err := s.store.ResolveRoleID(ctx, *req.Role)
	if errors.Is(err, repository.ErrNotFound) {
		return userNotFound(c, "Role")
	}
	if err != nil {
		return s.fail(c, err, "Failed to create user")
	}
	ok, err := s.checkSite(c, req.SiteID.Value)
	if err != nil {
		return s.fail(c, err, "Failed to create user")
	}
	if !ok {
		return userNotFound(c, "Site")
	}

	password := trimmed(req.Password)
	if password == "" {
		if password, err = randomPassword(); err != nil {
			return s.fail(c, err, "Failed to create user")
		}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return s.fail(c, err, "Failed to create user")
	}

	u := &domain.User{Username: username, Email: email, PasswordHash: hash, Role: &role, SiteID: req.SiteID.Value}
	if name := trimmed(req.FullName); name != "" {
		u.FullName = &name
	}
	err = s.store.CreateUser(ctx, u)
	if errors.Is(err, repository.ErrConflict) {
		return userConflict(c)
	}
	if err != nil {
		return s.fail(c, err, "Failed to create user")
	}
	created, err := s.store.GetUser(ctx, u.ID)
	if err != nil {
		return s.fail(c, err, "Failed to create user")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "User created successfully", "data": created})
}

func (s *Server) updateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.UserContext()
	patch := repository.UserPatch{FullName: req.FullName, IsActive: req.IsActive, SiteID: req.SiteID}
	if v := trimmed(req.Username); v != "" {
		patch.Username = &v
	}
	if v := trimmed(req.Email); v != "" {
		patch.Email = &v
	}
	if trimmed(req.Role) != "" {
		role, err := s.store.ResolveRoleID(ctx, *req.Role)
		if errors.Is(err, repository.ErrNotFound) {
			return userNotFound(c, "Role")
		}
		if err != nil {
			return s.fail(c, err, "Failed to update user")
		}
		patch.Role = &role
	}
	ok, err := s.checkSite(c, req.SiteID.Value)
	if err != nil {
		return s.fail(c, err, "Failed to update user")
	}
	if !ok {
		return userNotFound(c, "Site")
	}
	if p := trimmed(req.Password); p != "" {
		hash, err := auth.HashPassword(p)
		if err != nil {
			return s.fail(c, err, "Failed to update user")
		}
		patch.PasswordHash = &hash
	}

	u, err := s.store.UpdateUser(ctx, id, patch)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return userNotFound(c, "User")
	case errors.Is(err, repository.ErrConflict):
		return userConflict(c)
	case err != nil:
		return s.fail(c, err, "Failed to update user")
	}
	return c.JSON(fiber.Map{"success": true, "message": "User updated successfully", "data": u})
}

func (s *Server) deleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	err = s.store.DeleteUser(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return userNotFound(c, "User")
	}
	if err != nil {
		return s.fail(c, err, "Failed to delete user")
	}
	return c.JSON(fiber.Map{"success": true, "message": "User deleted successfully"})
}
