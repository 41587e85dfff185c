package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/service"
)

// Store is the persistence the admin handlers use directly. *repository.Repos
// satisfies it.
type Store interface {
	ListCompanies(ctx context.Context, q string, p domain.Page) ([]domain.Company, int, error)
	GetCompany(ctx context.Context, id int64) (domain.Company, error)
	CreateCompany(ctx context.Context, c *domain.Company) error
	UpdateCompany(ctx context.Context, id int64, p repository.CompanyPatch) (domain.Company, error)
	SoftDeleteCompany(ctx context.Context, id int64) error
	ListCompanyLocations(ctx context.Context, companyID int64, p domain.Page) ([]repository.LocationSummary, int, error)
	CompanySites(ctx context.Context, companyID int64) ([]repository.Site, error)
	SiteDirectory(ctx context.Context, siteID *int64, since time.Time) ([]repository.CompanySiteStatus, error)

	ListLocations(ctx context.Context, f repository.LocationQuery) ([]repository.LocationSummary, int, error)
	ListLocationsWithDevices(ctx context.Context, f repository.LocationQuery) ([]repository.LocationDevices, int, error)
	GetLocation(ctx context.Context, id int64) (domain.Location, error)
	LocationWithDevices(ctx context.Context, id int64) (repository.LocationDevices, error)
	CreateLocation(ctx context.Context, l *domain.Location) error
	UpdateLocation(ctx context.Context, id int64, p repository.LocationPatch) (domain.Location, error)
	SoftDeleteLocation(ctx context.Context, id int64) error
	ListSites(ctx context.Context, companyID *int64, q string) ([]repository.SiteRef, error)

	ListDevices(ctx context.Context, f repository.DeviceQuery) ([]domain.Device, int, error)
	GetDevice(ctx context.Context, id int64) (domain.Device, error)
	CreateDevice(ctx context.Context, d *domain.Device) error
	UpdateDevice(ctx context.Context, id int64, p repository.DevicePatch) (domain.Device, error)
	DeleteDevice(ctx context.Context, id int64) error
	DeviceIDBySerial(ctx context.Context, serial string, siteID *int64) (int64, error)
	History(ctx context.Context, deviceID int64, from time.Time, p domain.Page) ([]repository.HistoryRow, int, error)
	SettingsHistory(ctx context.Context, deviceID int64, from time.Time, p domain.Page) ([]repository.SettingsRow, int, error)
	UpdateSettings(ctx context.Context, deviceID, settingID int64, p repository.SettingsPatch) (int64, error)
	UserSiteID(ctx context.Context, username string) (*int64, error)

	ListUsers(ctx context.Context, f repository.UserQuery) ([]repository.UserSummary, int, error)
	GetUser(ctx context.Context, id int64) (repository.UserSummary, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, id int64, p repository.UserPatch) (repository.UserSummary, error)
	DeleteUser(ctx context.Context, id int64) error
	ResolveRoleID(ctx context.Context, input string) (string, error)

	ListRoles(ctx context.Context) ([]domain.Role, error)
	GetRole(ctx context.Context, id string) (domain.Role, error)
	CreateRole(ctx context.Context, role domain.Role) (domain.Role, error)
	UpdateRole(ctx context.Context, id string, p repository.RolePatch) (domain.Role, error)
	DeleteRole(ctx context.Context, id string) error

	ListTables(ctx context.Context) ([]string, error)
	SelectRows(ctx context.Context, table string, limit int) ([]map[string]string, error)
	InsertRow(ctx context.Context, table string, data map[string]any) (map[string]string, error)
	UpdateRows(ctx context.Context, table string, set, where map[string]any) ([]map[string]string, error)
	DeleteRows(ctx context.Context, table string, where map[string]any) (int64, error)
}

type Options struct {
	// Development exposes internal error detail in 500 responses.
	Development bool
	// Tables is the allow-list of the generic table proxy.
	Tables []string
}

type Server struct {
	store    Store
	overview *service.OverviewService
	auth     *service.AuthService
	limiter  *RateLimiter
	opts     Options
}

func NewServer(store Store, overview *service.OverviewService, auth *service.AuthService, opts Options) *Server {
	return &Server{store: store, overview: overview, auth: auth, limiter: NewRateLimiter(), opts: opts}
}

// Register mounts every API route on app.
func Register(app *fiber.App, svcs *service.Services, opts Options) {
	NewServer(svcs.Repos, svcs.Overview, svcs.Auth, opts).Routes(app)
}

func (s *Server) Routes(app *fiber.App) {
	app.Use(RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	api := app.Group("/api")

	authG := api.Group("/auth")
	authG.Post("/login", s.limiter.Middleware(), s.login)
	authG.Post("/logout", s.requireAuth, s.logout)
	authG.Get("/me", s.requireAuth, s.me)
	authG.Post("/change-password", s.requireAuth, s.changePassword)

	users := api.Group("/users", s.requireAuth)
	users.Get("/", s.allowRoute("users:list"), s.listUsers)
	users.Get("/:id", s.allowRoute("users:list"), s.getUser)
	users.Post("/", s.allowRoute("users:create"), s.createUser)
	users.Patch("/:id", s.allowRoute("users:edit"), s.updateUser)
	users.Put("/:id", s.allowRoute("users:edit"), s.updateUser)
	users.Delete("/:id", s.allowRoute("users:edit"), s.deleteUser)

	api.Get("/sites", s.requireAuth, s.allowRoute("locations"), s.listSites)

	companies := api.Group("/companies", s.requireAuth)
	companies.Get("/", s.allowRoute("companies"), s.listCompanies)
	companies.Post("/", s.allowRoute("companies"), s.createCompany)
	companies.Get("/all/sites-with-devices", s.allowRoute("locations"), s.siteDirectory)
	companies.Get("/:id/overview", s.allowRoute("dashboard"), s.companyOverview)
	companies.Get("/:id/locations/:locationId/overview", s.allowRoute("dashboard"), s.locationOverview)
	companies.Get("/:id/locations", s.allowRoute("locations"), s.listCompanyLocations)
	companies.Get("/:id/sites-with-devices", s.allowRoute("locations"), s.companySites)
	companies.Get("/:id", s.allowRoute("companies"), s.getCompany)
	companies.Patch("/:id", s.allowRoute("companies"), s.updateCompany)
	companies.Delete("/:id", s.allowRoute("companies"), s.deleteCompany)

	locations := api.Group("/locations", s.requireAuth, s.allowRoute("locations"))
	locations.Get("/", s.listLocations)
	locations.Get("/with-devices", s.listLocationsWithDevices)
	locations.Post("/", s.createLocation)
	locations.Get("/:id", s.getLocation)
	locations.Get("/:id/with-devices", s.locationWithDevices)
	locations.Patch("/:id", s.updateLocation)
	locations.Delete("/:id", s.deleteLocation)

	devices := api.Group("/devices", s.requireAuth)
	devices.Get("/", s.allowRoute("devices"), s.listDevices)
	devices.Post("/", s.allowRoute("devices"), s.createDevice)
	devices.Get("/:deviceSerial/overview", s.allowRoute("dashboard"), s.deviceOverview)
	devices.Get("/:deviceSerial/history", s.allowRoute("dashboard"), s.deviceHistory)
	devices.Get("/:deviceSerial/settings", s.allowRoute("dashboard"), s.deviceSettings)
	devices.Patch("/:deviceSerial/settings/:settingId", s.allowRoute("dashboard"), s.updateDeviceSetting)
	devices.Get("/:id", s.allowRoute("devices"), s.getDevice)
	devices.Patch("/:id", s.allowRoute("devices"), s.updateDevice)
	devices.Delete("/:id", s.allowRoute("devices"), s.deleteDevice)

	roles := api.Group("/roles", s.requireAuth, s.allowRoute("roles:manage"))
	roles.Get("/", s.listRoles)
	roles.Post("/", s.createRole)
	roles.Get("/:id", s.getRole)
	roles.Patch("/:id", s.updateRole)
	roles.Put("/:id", s.updateRole)
	roles.Delete("/:id", s.deleteRole)

	api.Get("/tables", s.requireAuth, s.listTables)
	api.Get("/table/:name", s.requireAuth, s.checkTable, s.allowTable, s.getTable)
	api.Post("/table/:name/insert", s.requireAuth, s.checkTable, s.allowTable, s.insertRecord)
	api.Post("/table/:name/update", s.requireAuth, s.checkTable, s.allowTable, s.updateRecord)
	api.Post("/table/:name/delete", s.requireAuth, s.checkTable, s.allowTable, s.deleteRecord)
}
