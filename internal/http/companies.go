package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
)

func (s *Server) listCompanies(c *fiber.Ctx) error {
	page := parsePagination(c)
	rows, total, err := s.store.ListCompanies(c.UserContext(), strings.TrimSpace(c.Query("q")), page)
	if err != nil {
		return s.fail(c, err, "Failed to list companies")
	}
	return c.JSON(fiber.Map{"data": rows, "meta": page.Meta(total)})
}

func (s *Server) createCompany(c *fiber.Ctx) error {
	var company domain.Company
	if err := c.BodyParser(&company); err != nil {
		return badRequest(c, "Invalid request body")
	}
	company.Name = strings.TrimSpace(company.Name)
	if company.Name == "" {
		return badRequest(c, "name is required")
	}
	company.Deleted = false
	if err := s.store.CreateCompany(c.UserContext(), &company); err != nil {
		return s.fail(c, err, "Failed to create company")
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

func (s *Server) getCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	company, err := s.store.GetCompany(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err, "Failed to load company")
	}
	return c.JSON(company)
}

func (s *Server) updateCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var patch repository.CompanyPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	company, err := s.store.UpdateCompany(c.UserContext(), id, patch)
	if err != nil {
		return s.fail(c, err, "Failed to update company")
	}
	return c.JSON(company)
}

func (s *Server) deleteCompany(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := s.store.SoftDeleteCompany(c.UserContext(), id); err != nil {
		return s.fail(c, err, "Failed to delete company")
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) listCompanyLocations(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	page := parsePagination(c)
	rows, total, err := s.store.ListCompanyLocations(c.UserContext(), id, page)
	if err != nil {
		return s.fail(c, err, "Failed to list locations")
	}
	return c.JSON(fiber.Map{"data": rows, "meta": page.Meta(total)})
}

// companySites returns every live site of a company with its devices nested.
func (s *Server) companySites(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx := c.UserContext()
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return s.fail(c, err, "Failed to load company")
	}
	sites, err := s.store.CompanySites(ctx, id)
	if err != nil {
		return s.fail(c, err, "Failed to load sites")
	}
	if sites == nil {
		sites = []repository.Site{}
	}
	return c.JSON(fiber.Map{"company_id": company.ID, "company_name": company.Name, "sites": sites})
}

func (s *Server) createLocation(c *fiber.Ctx) error {
	var loc domain.Location
	if err := c.BodyParser(&loc); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if loc.CompanyID == nil {
		return badRequest(c, "comp_id is required")
	}
	loc.Deleted = false
	err := s.store.CreateLocation(c.UserContext(), &loc)
	if errors.Is(err, repository.ErrCompanyNotFound) {
		return badRequest(c, "Company not found")
	}
	if err != nil {
		return s.fail(c, err, "Failed to create location")
	}
	return c.Status(fiber.StatusCreated).JSON(loc)
}

func (s *Server) getLocation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	loc, err := s.store.GetLocation(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err, "Failed to load location")
	}
	return c.JSON(loc)
}

func (s *Server) deleteLocation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := s.store.SoftDeleteLocation(c.UserContext(), id); err != nil {
		return s.fail(c, err, "Failed to delete location")
	}
	return c.JSON(fiber.Map{"success": true})
}

func locationQuery(c *fiber.Ctx) (repository.LocationQuery, error) {
	companyID, err := optionalID(c, "company_id")
	if err != nil {
		return repository.LocationQuery{}, err
	}
	return repository.LocationQuery{
		CompanyID: companyID,
		Search:    strings.TrimSpace(c.Query("q")),
		Sort:      c.Query("sort"),
		Desc:      strings.EqualFold(c.Query("order"), "desc"),
		Page:      parsePagination(c),
	}, nil
}

func (s *Server) listLocations(c *fiber.Ctx) error {
	f, err := locationQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	rows, total, err := s.store.ListLocations(c.UserContext(), f)
	if err != nil {
		return s.fail(c, err, "Failed to list locations")
	}
	return c.JSON(fiber.Map{"data": rows, "meta": f.Page.Meta(total)})
}

func (s *Server) listLocationsWithDevices(c *fiber.Ctx) error {
	f, err := locationQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	rows, total, err := s.store.ListLocationsWithDevices(c.UserContext(), f)
	if err != nil {
		return s.fail(c, err, "Failed to list locations")
	}
	return c.JSON(fiber.Map{"data": rows, "meta": f.Page.Meta(total)})
}

func (s *Server) locationWithDevices(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	loc, err := s.store.LocationWithDevices(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err, "Failed to load location")
	}
	return c.JSON(loc)
}

func (s *Server) updateLocation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var patch repository.LocationPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	loc, err := s.store.UpdateLocation(c.UserContext(), id, patch)
	if errors.Is(err, repository.ErrCompanyNotFound) {
		return badRequest(c, "Company not found")
	}
	if err != nil {
		return s.fail(c, err, "Failed to update location")
	}
	return c.JSON(loc)
}

func (s *Server) listSites(c *fiber.Ctx) error {
	companyID, err := optionalID(c, "company_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	sites, err := s.store.ListSites(c.UserContext(), companyID, strings.TrimSpace(c.Query("q")))
	if err != nil {
		return s.fail(c, err, "Failed to list sites")
	}
	if sites == nil {
		sites = []repository.SiteRef{}
	}
	return c.JSON(fiber.Map{"data": sites})
}

// siteDirectory lists every company with its sites, devices and last-24h
// metrics. Sites without pumps are dropped unless includeEmpty is set.
func (s *Server) siteDirectory(c *fiber.Ctx) error {
	site, ok, err := s.siteScope(c)
	if err != nil {
		return s.fail(c, err, "Failed to load sites")
	}
	if !ok {
		return c.JSON(fiber.Map{"data": []repository.CompanySiteStatus{}})
	}
	list, err := s.store.SiteDirectory(c.UserContext(), site, time.Now().Add(-24*time.Hour))
	if err != nil {
		return s.fail(c, err, "Failed to load sites")
	}
	return c.JSON(fiber.Map{"data": repository.FilterSiteDirectory(list, c.Query("q"), truthy(c.Query("includeEmpty")))})
}
