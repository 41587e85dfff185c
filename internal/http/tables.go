package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
)

const tableRowLimit = 500

type tableRequest struct {
	Data  map[string]any `json:"data"`
	Where map[string]any `json:"where"`
}

// listTables returns the proxied tables the caller's role may read.
func (s *Server) listTables(c *fiber.Ctx) error {
	claims := currentUser(c)
	scopes, err := s.auth.Scopes(c.UserContext(), claims.Username())
	if err != nil {
		return forbidden(c, "RBAC check failed")
	}
	existing, err := s.store.ListTables(c.UserContext())
	if err != nil {
		return s.fail(c, err, "Failed to list tables")
	}
	out := []string{}
	for _, t := range existing {
		if s.tableListed(t) && scopes.AllowsTable(t) {
			out = append(out, t)
		}
	}
	return c.JSON(out)
}

func (s *Server) tableError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Table not found"})
	case errors.Is(err, repository.ErrNoColumns):
		return badRequest(c, "No valid columns in data")
	case errors.Is(err, repository.ErrNoConditions):
		return badRequest(c, "No valid where conditions")
	}
	return s.fail(c, err, msg)
}

func (s *Server) getTable(c *fiber.Ctx) error {
	rows, err := s.store.SelectRows(c.UserContext(), c.Params("name"), tableRowLimit)
	if err != nil {
		return s.tableError(c, err, "Failed to read table")
	}
	return c.JSON(rows)
}

func (s *Server) insertRecord(c *fiber.Ctx) error {
	var req tableRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	record, err := s.store.InsertRow(c.UserContext(), c.Params("name"), req.Data)
	if err != nil {
		return s.tableError(c, err, "Failed to insert record")
	}
	return c.JSON(fiber.Map{"status": "success", "affected": 1, "record": record})
}

func (s *Server) updateRecord(c *fiber.Ctx) error {
	var req tableRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	records, err := s.store.UpdateRows(c.UserContext(), c.Params("name"), req.Data, req.Where)
	if err != nil {
		return s.tableError(c, err, "Failed to update records")
	}
	return c.JSON(fiber.Map{"status": "success", "affected": len(records), "records": records})
}

func (s *Server) deleteRecord(c *fiber.Ctx) error {
	var req tableRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	affected, err := s.store.DeleteRows(c.UserContext(), c.Params("name"), req.Where)
	if err != nil {
		return s.tableError(c, err, "Failed to delete records")
	}
	return c.JSON(fiber.Map{"status": "success", "affected": affected})
}
