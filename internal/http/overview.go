package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
)

func (s *Server) companyOverview(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	q, err := parseOverviewQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if q.LocationID, err = optionalID(c, "locationId"); err != nil {
		return badRequest(c, err.Error())
	}

	out, err := s.overview.CompanyOverview(c.UserContext(), companyID, q)
	if err != nil {
		return s.fail(c, err, "Failed to build company overview")
	}
	return c.JSON(out)
}

func (s *Server) locationOverview(c *fiber.Ctx) error {
	companyID, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	locationID, err := paramID(c, "locationId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	q, err := parseOverviewQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	out, err := s.overview.LocationOverview(c.UserContext(), companyID, locationID, q)
	if err != nil {
		return s.fail(c, err, "Failed to build location overview")
	}
	return c.JSON(out)
}

func (s *Server) deviceOverview(c *fiber.Ctx) error {
	days := 7
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, service.ErrInvalidDays.Error())
		}
		days = n
	}

	out, err := s.overview.DeviceOverview(c.UserContext(), c.Params("deviceSerial"), days)
	if err != nil {
		return s.fail(c, err, "Failed to build device overview")
	}
	return c.JSON(out)
}
