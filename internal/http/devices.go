package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
)

func (s *Server) listDevices(c *fiber.Ctx) error {
	companyID, err := optionalID(c, "company_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	locationID, err := optionalID(c, "location_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	f := repository.DeviceQuery{
		CompanyID:  companyID,
		LocationID: locationID,
		Search:     strings.TrimSpace(c.Query("q")),
		Sort:       c.Query("sort"),
		Desc:       truthy(c.Query("desc")),
		Page:       parsePagination(c),
	}
	rows, total, err := s.store.ListDevices(c.UserContext(), f)
	if err != nil {
		return s.fail(c, err, "Failed to list devices")
	}
	return c.JSON(fiber.Map{"data": rows, "meta": f.Page.Meta(total)})
}

func (s *Server) getDevice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	d, err := s.store.GetDevice(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err, "Failed to load device")
	}
	return c.JSON(d)
}

func (s *Server) createDevice(c *fiber.Ctx) error {
	var d domain.Device
	if err := c.BodyParser(&d); err != nil {
		return badRequest(c, "Invalid request body")
	}
	d.Serial = strings.TrimSpace(d.Serial)
	if d.Serial == "" {
		return badRequest(c, "device_serial is required")
	}
	err := s.store.CreateDevice(c.UserContext(), &d)
	if errors.Is(err, repository.ErrConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Device serial already exists"})
	}
	if err != nil {
		return s.fail(c, err, "Failed to create device")
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

func (s *Server) deleteDevice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := s.store.DeleteDevice(c.UserContext(), id); err != nil {
		return s.fail(c, err, "Failed to delete device")
	}
	return c.JSON(fiber.Map{"success": true})
}

func emptyRows(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"rows": []any{}, "total": 0})
}

func (s *Server) deviceHistory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.store.DeviceIDBySerial(ctx, c.Params("deviceSerial"), nil)
	if errors.Is(err, repository.ErrNotFound) {
		return emptyRows(c)
	}
	if err != nil {
		return s.fail(c, err, "Failed to get device history")
	}
	rows, total, err := s.store.History(ctx, id, historyFrom(c, time.Now()), parsePagination(c))
	if err != nil {
		return s.fail(c, err, "Failed to get device history")
	}
	return c.JSON(fiber.Map{"rows": rows, "total": total})
}

// siteScope returns the site a non-admin caller is confined to. ok is false
// when a non-admin has no site and so can see nothing.
func (s *Server) siteScope(c *fiber.Ctx) (site *int64, ok bool, err error) {
	claims := currentUser(c)
	if strings.EqualFold(claims.Role, domain.AdminRole) {
		return nil, true, nil
	}
	site, err = s.store.UserSiteID(c.UserContext(), claims.Username())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return site, site != nil, nil
}

func (s *Server) deviceSettings(c *fiber.Ctx) error {
	ctx := c.UserContext()
	site, ok, err := s.siteScope(c)
	if err != nil {
		return s.fail(c, err, "Failed to get device settings")
	}
	if !ok {
		return emptyRows(c)
	}
	id, err := s.store.DeviceIDBySerial(ctx, c.Params("deviceSerial"), site)
	if errors.Is(err, repository.ErrNotFound) {
		return emptyRows(c)
	}
	if err != nil {
		return s.fail(c, err, "Failed to get device settings")
	}
	rows, total, err := s.store.SettingsHistory(ctx, id, historyFrom(c, time.Now()), parsePagination(c))
	if err != nil {
		return s.fail(c, err, "Failed to get device settings")
	}
	return c.JSON(fiber.Map{"rows": rows, "total": total})
}

func (s *Server) updateDeviceSetting(c *fiber.Ctx) error {
	settingID, err := paramID(c, "settingId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var patch repository.SettingsPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.UserContext()
	site, ok, err := s.siteScope(c)
	if err != nil {
		return s.fail(c, err, "Failed to update setting")
	}
	if !ok {
		return notFound(c)
	}
	deviceID, err := s.store.DeviceIDBySerial(ctx, c.Params("deviceSerial"), site)
	if err != nil {
		return s.fail(c, err, "Failed to update setting")
	}

	// An unknown setting is reported before an empty patch.
	affected, err := s.store.UpdateSettings(ctx, deviceID, settingID, patch)
	if err != nil {
		return s.fail(c, err, "Failed to update setting")
	}
	if patch.Empty() {
		return badRequest(c, "No fields to update")
	}
	return c.JSON(fiber.Map{"success": true, "setting_id": settingID, "affected": affected})
}

func (s *Server) updateDevice(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var patch repository.DevicePatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if patch.Serial != nil {
		serial := strings.TrimSpace(*patch.Serial)
		if serial == "" {
			return badRequest(c, "device_serial cannot be empty")
		}
		patch.Serial = &serial
	}
	d, err := s.store.UpdateDevice(c.UserContext(), id, patch)
	if errors.Is(err, repository.ErrConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Device serial already exists"})
	}
	if err != nil {
		return s.fail(c, err, "Failed to update device")
	}
	return c.JSON(d)
}
