package http

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
)

func (f *fakeStore) ListLocations(_ context.Context, q repository.LocationQuery) ([]repository.LocationSummary, int, error) {
	f.locQuery = q
	out := []repository.LocationSummary{}
	for _, l := range f.locations {
		out = append(out, repository.LocationSummary{Location: l, TotalPumps: 1})
	}
	return out, len(out), nil
}

func (f *fakeStore) ListLocationsWithDevices(_ context.Context, q repository.LocationQuery) ([]repository.LocationDevices, int, error) {
	f.locQuery = q
	out := []repository.LocationDevices{}
	for _, l := range f.locations {
		out = append(out, repository.LocationDevices{
			LocationSummary: repository.LocationSummary{Location: l, TotalPumps: 1},
			CompanyName:     "Acme",
			Devices:         []domain.Device{{ID: 7, Serial: "SN-1", LocationID: &l.ID}},
		})
	}
	return out, len(out), nil
}

func (f *fakeStore) LocationWithDevices(_ context.Context, id int64) (repository.LocationDevices, error) {
	l, ok := f.locations[id]
	if !ok {
		return repository.LocationDevices{}, repository.ErrNotFound
	}
	return repository.LocationDevices{
		LocationSummary: repository.LocationSummary{Location: l},
		Devices:         []domain.Device{},
	}, nil
}

func (f *fakeStore) UpdateLocation(_ context.Context, id int64, p repository.LocationPatch) (domain.Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return domain.Location{}, repository.ErrNotFound
	}
	if p.CompanyID != nil {
		if _, ok := f.companies[*p.CompanyID]; !ok {
			return domain.Location{}, repository.ErrCompanyNotFound
		}
		l.CompanyID = p.CompanyID
	}
	if p.Name != nil {
		l.Name = p.Name
	}
	f.locations[id] = l
	return l, nil
}

func (f *fakeStore) ListSites(_ context.Context, companyID *int64, _ string) ([]repository.SiteRef, error) {
	if companyID != nil && *companyID != 1 {
		return nil, nil
	}
	return []repository.SiteRef{{ID: 5, CompanyID: i64p(1), SiteName: "North Well"}}, nil
}

func (f *fakeStore) UpdateDevice(_ context.Context, id int64, p repository.DevicePatch) (domain.Device, error) {
	if f.deviceErr != nil {
		return domain.Device{}, f.deviceErr
	}
	d := domain.Device{ID: id, Serial: "SN-1"}
	if p.Serial != nil {
		d.Serial = *p.Serial
	}
	return d, nil
}

func (f *fakeStore) SiteDirectory(_ context.Context, siteID *int64, since time.Time) ([]repository.CompanySiteStatus, error) {
	f.dirCalls++
	f.dirSite = siteID
	if time.Since(since) < 23*time.Hour {
		return nil, nil
	}
	return f.directory, nil
}

func TestListLocations(t *testing.T) {
	h := newHarness(t)
	seedUsers(h)
	admin := h.token(t, "root", "admin")

	resp, body := h.do(t, fiber.MethodGet, "/api/locations?company_id=1&q=+north+&sort=city&order=DESC&pageSize=5", admin, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("list: %d %v", resp.StatusCode, body)
	}
	q := h.store.locQuery
	if q.CompanyID == nil || *q.CompanyID != 1 || q.Search != "north" || q.Sort != "city" || !q.Desc || q.Page.PageSize != 5 {
		t.Fatalf("query = %+v", q)
	}
	if rows, _ := body["data"].([]any); len(rows) != 1 {
		t.Fatalf("data = %v", body["data"])
	}

	resp, _ = h.do(t, fiber.MethodGet, "/api/locations?company_id=abc", admin, "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bad company_id: %d", resp.StatusCode)
	}

	resp, _ = h.do(t, fiber.MethodGet, "/api/locations", h.token(t, "field", "operator"), "")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("operator without locations scope: %d", resp.StatusCode)
	}
}

func TestLocationsWithDevices(t *testing.T) {
	h := newHarness(t)
	seedUsers(h)
	admin := h.token(t, "root", "admin")

	resp, body := h.do(t, fiber.MethodGet, "/api/locations/with-devices", admin, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("list: %d %v", resp.StatusCode, body)
	}
	rows, _ := body["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("data = %v", body["data"])
	}
	row := rows[0].(map[string]any)
	devices, _ := row["devices"].([]any)
	if row["location"] != "North Well" || row["company_name"] != "Acme" || len(devices) != 1 {
		t.Fatalf("row = %v", row)
	}

	resp, body = h.do(t, fiber.MethodGet, "/api/locations/5/with-devices", admin, "")
	if devices, ok := body["devices"].([]any); resp.StatusCode != fiber.StatusOK || !ok || len(devices) != 0 {
		t.Fatalf("one location: %d %v", resp.StatusCode, body)
	}
	resp, _ = h.do(t, fiber.MethodGet, "/api/locations/6/with-devices", admin, "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown location: %d", resp.StatusCode)
	}
}

func TestUpdateLocation(t *testing.T) {
	h := newHarness(t)
	seedUsers(h)
	admin := h.token(t, "root", "admin")

	resp, body := h.do(t, fiber.MethodPatch, "/api/locations/5", admin, `{"comp_id":99}`)
	if resp.StatusCode != fiber.StatusBadRequest || body["error"] != "Company not found" {
		t.Fatalf("unknown company: %d %v", resp.StatusCode, body)
	}

	resp, body = h.do(t, fiber.MethodPatch, "/api/locations/5", admin, `{"location":"South Well"}`)
	if resp.StatusCode != fiber.StatusOK || body["location"] != "South Well" || body["comp_id"] != float64(1) {
		t.Fatalf("rename: %d %v", resp.StatusCode, body)
	}

	resp, _ = h.do(t, fiber.MethodPatch, "/api/locations/8", admin, `{"location":"x"}`)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown location: %d", resp.StatusCode)
	}
}

func TestListSites(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, "root", "admin")

	resp, body := h.do(t, fiber.MethodGet, "/api/sites?company_id=1", admin, "")
	rows, _ := body["data"].([]any)
	if resp.StatusCode != fiber.StatusOK || len(rows) != 1 {
		t.Fatalf("sites: %d %v", resp.StatusCode, body)
	}
	if site := rows[0].(map[string]any); site["site_name"] != "North Well" || site["company_id"] != float64(1) {
		t.Fatalf("site = %v", site)
	}

	resp, body = h.do(t, fiber.MethodGet, "/api/sites?company_id=2", admin, "")
	if rows, ok := body["data"].([]any); resp.StatusCode != fiber.StatusOK || !ok || len(rows) != 0 {
		t.Fatalf("empty company: %d %v", resp.StatusCode, body)
	}
}

func TestUpdateDevice(t *testing.T) {
	h := newHarness(t)
	admin := h.token(t, "root", "admin")

	resp, body := h.do(t, fiber.MethodPatch, "/api/devices/7", admin, `{"device_serial":" SN-9 "}`)
	if resp.StatusCode != fiber.StatusOK || body["device_serial"] != "SN-9" {
		t.Fatalf("update: %d %v", resp.StatusCode, body)
	}

	resp, _ = h.do(t, fiber.MethodPatch, "/api/devices/7", admin, `{"device_serial":"  "}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("blank serial: %d", resp.StatusCode)
	}

	h.store.deviceErr = repository.ErrConflict
	resp, body = h.do(t, fiber.MethodPatch, "/api/devices/7", admin, `{"device_serial":"SN-2"}`)
	if resp.StatusCode != fiber.StatusConflict || body["error"] != "Device serial already exists" {
		t.Fatalf("taken serial: %d %v", resp.StatusCode, body)
	}

	h.store.deviceErr = repository.ErrNotFound
	resp, _ = h.do(t, fiber.MethodPatch, "/api/devices/70", admin, `{"board":"rev-b"}`)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown device: %d", resp.StatusCode)
	}
}

func TestSiteDirectory(t *testing.T) {
	h := newHarness(t)
	h.users.users["tech"] = domain.User{ID: 3, Username: "tech", Role: strp("tech"), IsActive: true}
	h.users.scopes["tech"] = domain.RoleScopes{Routes: []string{"locations"}}
	tech := h.token(t, "tech", "tech")

	resp, body := h.do(t, fiber.MethodGet, "/api/companies/all/sites-with-devices", tech, "")
	if rows, ok := body["data"].([]any); resp.StatusCode != fiber.StatusOK || !ok || len(rows) != 0 {
		t.Fatalf("tech without site: %d %v", resp.StatusCode, body)
	}
	if h.store.dirCalls != 0 {
		t.Fatal("tech without site must not query the directory")
	}

	h.store.directory = []repository.CompanySiteStatus{
		{CompanyID: 1, CompanyName: "Acme", Sites: []repository.SiteStatus{
			{Site: repository.Site{LocationID: 5, SiteName: "North Well", TotalPumps: 2}},
			{Site: repository.Site{LocationID: 6, SiteName: "Spare Lot"}},
		}},
	}
	h.store.sites["tech"] = i64p(5)
	resp, body = h.do(t, fiber.MethodGet, "/api/companies/all/sites-with-devices", tech, "")
	if resp.StatusCode != fiber.StatusOK || h.store.dirSite == nil || *h.store.dirSite != 5 {
		t.Fatalf("scoped tech: %d %v site=%v", resp.StatusCode, body, h.store.dirSite)
	}
	rows, _ := body["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("data = %v", body["data"])
	}
	if sites, _ := rows[0].(map[string]any)["sites"].([]any); len(sites) != 1 {
		t.Fatalf("sites without pumps kept: %v", sites)
	}

	admin := h.token(t, "root", "admin")
	_, body = h.do(t, fiber.MethodGet, "/api/companies/all/sites-with-devices?includeEmpty=true", admin, "")
	if h.store.dirSite != nil {
		t.Fatalf("admin scoped to site %v", *h.store.dirSite)
	}
	rows, _ = body["data"].([]any)
	if sites, _ := rows[0].(map[string]any)["sites"].([]any); len(sites) != 2 {
		t.Fatalf("includeEmpty sites = %v", sites)
	}

	_, body = h.do(t, fiber.MethodGet, "/api/companies/all/sites-with-devices?q=nothing", admin, "")
	if rows, _ := body["data"].([]any); len(rows) != 0 {
		t.Fatalf("search miss = %v", rows)
	}
}
