package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup by key matches no live row.
var ErrNotFound = errors.New("not found")

// ErrCompanyNotFound is returned when a site would be attached to a company
// that does not exist or was deleted.
var ErrCompanyNotFound = errors.New("company not found")

type Repos struct {
	db *sqlx.DB
	// columns is the table proxy's per-table column allow-list. Nil means
	// every column of a table is exposed.
	columns map[string][]string
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

// RestrictColumns limits the table proxy to the listed columns of each
// table. Tables absent from cols become unreachable through the proxy.
func (r *Repos) RestrictColumns(cols map[string][]string) {
	r.columns = cols
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// in expands a query holding "IN (?)" placeholders and rebinds it for pgx.
func (r *Repos) in(query string, args ...any) (string, []any, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return r.db.Rebind(q), a, nil
}
