package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
)

func (s *Server) listRoles(c *fiber.Ctx) error {
	roles, err := s.store.ListRoles(c.UserContext())
	if err != nil {
		return s.fail(c, err, "Failed to list roles")
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	return c.JSON(roles)
}

func (s *Server) getRole(c *fiber.Ctx) error {
	role, err := s.store.GetRole(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, err, "Failed to load role")
	}
	return c.JSON(role)
}

func roleNameTaken(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Role name already exists"})
}

func (s *Server) createRole(c *fiber.Ctx) error {
	var role domain.Role
	if err := c.BodyParser(&role); err != nil {
		return badRequest(c, "Invalid request body")
	}
	role.ID = strings.TrimSpace(role.ID)
	role.Name = strings.TrimSpace(role.Name)
	if role.ID == "" || role.Name == "" {
		return badRequest(c, "id and name are required")
	}

	ctx := c.UserContext()
	_, err := s.store.GetRole(ctx, role.ID)
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Role id already exists"})
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return s.fail(c, err, "Failed to create role")
	}

	created, err := s.store.CreateRole(ctx, role)
	if errors.Is(err, repository.ErrConflict) {
		return roleNameTaken(c)
	}
	if err != nil {
		return s.fail(c, err, "Failed to create role")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (s *Server) updateRole(c *fiber.Ctx) error {
	var patch repository.RolePatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	role, err := s.store.UpdateRole(c.UserContext(), c.Params("id"), patch)
	if errors.Is(err, repository.ErrConflict) {
		return roleNameTaken(c)
	}
	if err != nil {
		return s.fail(c, err, "Failed to update role")
	}
	return c.JSON(role)
}

func (s *Server) deleteRole(c *fiber.Ctx) error {
	if err := s.store.DeleteRole(c.UserContext(), c.Params("id")); err != nil {
		return s.fail(c, err, "Failed to delete role")
	}
	return c.JSON(fiber.Map{"success": true})
}
