package domain

import "time"

const (
	AdminRole = "admin"
	RoleGuest = "guest"
)

type User struct {
	ID                  int64      `db:"id" json:"id"`
	Username            string     `db:"username" json:"username"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	FullName            *string    `db:"full_name" json:"full_name"`
	Role                *string    `db:"role" json:"role"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	LastLogin           *time.Time `db:"last_login" json:"last_login"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	SiteID              *int64     `db:"site_id" json:"site_id"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

type Role struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	AllowedTables []string   `json:"allowed_tables"`
	AllowedRoutes []string   `json:"allowed_routes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// RoleScopes is what a request is allowed to touch. Admin bypasses both
// lists.
type RoleScopes struct {
	Role   string
	Tables []string
	Routes []string
}

func (s RoleScopes) IsAdmin() bool { return s.Role == AdminRole }

func (s RoleScopes) AllowsRoute(scope string) bool {
	if s.IsAdmin() {
		return true
	}
	for _, r := range s.Routes {
		if r == scope {
			return true
		}
	}
	return false
}

func (s RoleScopes) AllowsTable(table string) bool {
	if s.IsAdmin() {
		return true
	}
	for _, t := range s.Tables {
		if t == table {
			return true
		}
	}
	return false
}
