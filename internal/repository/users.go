package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
)

const userColumns = `id, username, email, password_hash, full_name, role, COALESCE(is_active, TRUE) AS is_active,
	last_login, COALESCE(failed_login_attempts, 0) AS failed_login_attempts, locked_until, site_id,
	COALESCE(created_at, NOW()) AS created_at, COALESCE(updated_at, NOW()) AS updated_at`

func (r *Repos) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM auth_users WHERE username = $1`, username)
	return u, notFound(err)
}

// RecordLogin clears the lockout counters after a good password.
func (r *Repos) RecordLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_users
		SET last_login = $2, failed_login_attempts = 0, locked_until = NULL, updated_at = $2
		WHERE id = $1`, userID, at)
	return err
}

// RecordFailedLogin stores the new attempt count and, when set, the lockout
// deadline.
func (r *Repos) RecordFailedLogin(ctx context.Context, userID int64, attempts int, lockedUntil *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE auth_users SET failed_login_attempts = $2, locked_until = $3, updated_at = NOW()
		WHERE id = $1`, userID, attempts, lockedUntil)
	return err
}

// UserSiteID returns the site a non-admin user is bound to, if any.
func (r *Repos) UserSiteID(ctx context.Context, username string) (*int64, error) {
	var site *int64
	err := r.db.GetContext(ctx, &site, `SELECT site_id FROM auth_users WHERE username = $1`, username)
	if err != nil {
		return nil, notFound(err)
	}
	return site, nil
}

// UpsertUser creates or refreshes a user keyed by username.
func (r *Repos) UpsertUser(ctx context.Context, u *domain.User) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO auth_users (username, email, password_hash, full_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (username) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			is_active = TRUE,
			failed_login_attempts = 0,
			locked_until = NULL,
			updated_at = NOW()
		RETURNING id`, u.Username, u.Email, u.PasswordHash, u.FullName, u.Role).Scan(&u.ID)
}

// UpsertRole creates or replaces a role, keeping its creation time.
func (r *Repos) UpsertRole(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (id, name, description, allowed_tables, allowed_routes, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			allowed_tables = EXCLUDED.allowed_tables,
			allowed_routes = EXCLUDED.allowed_routes,
			updated_at = NOW()`,
		role.ID, role.Name, role.Description, nonNil(role.AllowedTables), nonNil(role.AllowedRoutes))
	return err
}

// SetPassword replaces a user's password hash.
func (r *Repos) SetPassword(ctx context.Context, userID int64, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth_users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, hash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UserSummary is a user as the admin screens list it, joined with the site
// and company it is bound to.
type UserSummary struct {
	ID            int64     `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	FullName      *string   `db:"full_name" json:"full_name"`
	Role          *string   `db:"role" json:"role"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CompanyID     *int64    `db:"company_id" json:"company_id"`
	CompanyName   string    `db:"company_name" json:"company_name"`
	SiteID        *int64    `db:"site_id" json:"site_id"`
	SiteName      string    `db:"site_name" json:"site_name"`
	IsCurrentUser bool      `db:"-" json:"is_current_user"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

const userSummaryColumns = `u.id, u.username, u.email, u.full_name, u.role, COALESCE(u.is_active, TRUE) AS is_active,
	c.id AS company_id, COALESCE(c.name, '') AS company_name, u.site_id, COALESCE(l.location, '') AS site_name,
	COALESCE(u.created_at, NOW()) AS created_at, COALESCE(u.updated_at, NOW()) AS updated_at`

const userJoins = `FROM auth_users u
	LEFT JOIN locations l ON l.id = u.site_id
	LEFT JOIN company c ON c.id = l.comp_id`

// UserQuery filters the admin user listing. Role must already be a role id.
type UserQuery struct {
	Search string
	Role   string
	SiteID *int64
	Page   domain.Page
}

func (r *Repos) ListUsers(ctx context.Context, f UserQuery) ([]UserSummary, int, error) {
	where := []string{"TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.SiteID != nil {
		where = append(where, "u.site_id = "+arg(*f.SiteID))
	}
	if f.Role != "" {
		where = append(where, "u.role = "+arg(f.Role))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf(`(u.username ILIKE %[1]s OR u.email ILIKE %[1]s OR u.full_name ILIKE %[1]s
			OR u.role ILIKE %[1]s OR l.location ILIKE %[1]s OR c.name ILIKE %[1]s)`, p))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(DISTINCT u.id) `+userJoins+` WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	out := []UserSummary{}
	q := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY u.id DESC LIMIT %s OFFSET %s`,
		userSummaryColumns, userJoins, cond, arg(f.Page.PageSize), arg(f.Page.Offset()))
	err := r.db.SelectContext(ctx, &out, q, args...)
	return out, total, err
}

func (r *Repos) GetUser(ctx context.Context, id int64) (UserSummary, error) {
	var u UserSummary
	err := r.db.GetContext(ctx, &u, `SELECT `+userSummaryColumns+` `+userJoins+` WHERE u.id = $1`, id)
	return u, notFound(err)
}

// CreateUser inserts an active user. A taken username or email is
// ErrConflict.
func (r *Repos) CreateUser(ctx context.Context, u *domain.User) error {
	return conflict(r.db.QueryRowxContext(ctx, `
		INSERT INTO auth_users (username, email, password_hash, full_name, role, site_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id`, u.Username, u.Email, u.PasswordHash, u.FullName, u.Role, u.SiteID).Scan(&u.ID))
}

// NullableID is an id field of a partial update that tells an absent key
// apart from an explicit null.
type NullableID struct {
	Set   bool
	Value *int64
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// UserPatch is a partial user update. Nil pointers keep the stored value.
// Role must already be a role id and PasswordHash a bcrypt hash.
type UserPatch struct {
	Username     *string
	Email        *string
	FullName     *string
	Role         *string
	SiteID       NullableID
	IsActive     *bool
	PasswordHash *string
}

func (r *Repos) UpdateUser(ctx context.Context, id int64, p UserPatch) (UserSummary, error) {
	var updated int64
	err := r.db.GetContext(ctx, &updated, `
		UPDATE auth_users SET
			username      = COALESCE($2, username),
			email         = COALESCE($3, email),
			full_name     = COALESCE($4, full_name),
			role          = COALESCE($5, role),
			site_id       = CASE WHEN $6::boolean THEN $7::int ELSE site_id END,
			is_active     = COALESCE($8, is_active),
			password_hash = COALESCE($9, password_hash),
			updated_at    = NOW()
		WHERE id = $1
		RETURNING id`,
		id, p.Username, p.Email, p.FullName, p.Role, p.SiteID.Set, p.SiteID.Value, p.IsActive, p.PasswordHash)
	if err != nil {
		return UserSummary{}, conflict(notFound(err))
	}
	return r.GetUser(ctx, updated)
}

func (r *Repos) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveRoleID accepts a role id or a role name in any case and returns the
// id.
func (r *Repos) ResolveRoleID(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrNotFound
	}
	var id string
	err := r.db.GetContext(ctx, &id, `
		SELECT id FROM roles
		WHERE id = $1 OR lower(name) = lower($1)
		ORDER BY (id = $1) DESC
		LIMIT 1`, input)
	return id, notFound(err)
}
