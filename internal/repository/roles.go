package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
)

// ErrConflict reports a unique key violation.
var ErrConflict = errors.New("already exists")

const roleColumns = `id, name, description, allowed_tables, allowed_routes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRole reads text[] columns through pgtype since database/sql has no
// native slice support.
func scanRole(row rowScanner) (domain.Role, error) {
	var r domain.Role
	m := pgtype.NewMap()
	err := row.Scan(&r.ID, &r.Name, &r.Description,
		m.SQLScanner(&r.AllowedTables), m.SQLScanner(&r.AllowedRoutes),
		&r.CreatedAt, &r.UpdatedAt)
	if r.AllowedTables == nil {
		r.AllowedTables = []string{}
	}
	if r.AllowedRoutes == nil {
		r.AllowedRoutes = []string{}
	}
	return r, err
}

func conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *Repos) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *Repos) GetRole(ctx context.Context, id string) (domain.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	return role, notFound(err)
}

func (r *Repos) CreateRole(ctx context.Context, role domain.Role) (domain.Role, error) {
	created, err := scanRole(r.db.QueryRowContext(ctx, `
		INSERT INTO roles (id, name, description, allowed_tables, allowed_routes, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING `+roleColumns,
		role.ID, role.Name, role.Description, nonNil(role.AllowedTables), nonNil(role.AllowedRoutes)))
	return created, conflict(err)
}

// RolePatch is a partial role update. Nil means keep.
type RolePatch struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	AllowedTables *[]string `json:"allowed_tables"`
	AllowedRoutes *[]string `json:"allowed_routes"`
}

func (r *Repos) UpdateRole(ctx context.Context, id string, p RolePatch) (domain.Role, error) {
	var tables, routes any
	if p.AllowedTables != nil {
		tables = nonNil(*p.AllowedTables)
	}
	if p.AllowedRoutes != nil {
		routes = nonNil(*p.AllowedRoutes)
	}
	updated, err := scanRole(r.db.QueryRowContext(ctx, `
		UPDATE roles SET
			name           = COALESCE($2, name),
			description    = COALESCE($3, description),
			allowed_tables = COALESCE($4::text[], allowed_tables),
			allowed_routes = COALESCE($5::text[], allowed_routes),
			updated_at     = NOW()
		WHERE id = $1
		RETURNING `+roleColumns,
		id, p.Name, p.Description, tables, routes))
	if err != nil {
		return updated, conflict(notFound(err))
	}
	return updated, nil
}

func (r *Repos) DeleteRole(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RoleScopes loads the tables and routes granted to a user's role. Users
// without a role are treated as "guest".
func (r *Repos) RoleScopes(ctx context.Context, username string) (domain.RoleScopes, error) {
	var roleID *string
	err := r.db.GetContext(ctx, &roleID, `SELECT role FROM auth_users WHERE username = $1`, username)
	if err != nil {
		err = notFound(err)
		if !errors.Is(err, ErrNotFound) {
			return domain.RoleScopes{}, err
		}
	}

	scopes := domain.RoleScopes{Role: domain.RoleGuest, Tables: []string{}, Routes: []string{}}
	if roleID != nil && *roleID != "" {
		scopes.Role = *roleID
	}

	role, err := r.GetRole(ctx, scopes.Role)
	switch {
	case errors.Is(err, ErrNotFound):
		return scopes, nil
	case err != nil:
		return domain.RoleScopes{}, err
	}
	scopes.Tables = role.AllowedTables
	scopes.Routes = role.AllowedRoutes
	return scopes, nil
}
