package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNoColumns         = errors.New("no valid columns")
	ErrNoConditions      = errors.New("no valid where conditions")
)

// IsSafeIdentifier reports whether s may be used as a table or column name.
func IsSafeIdentifier(s string) bool { return identRe.MatchString(s) }

func quote(ident string) string { return pgx.Identifier{ident}.Sanitize() }

func (r *Repos) ListTables(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = 'public' ORDER BY tablename`)
	return out, err
}

// TableColumns lists the columns of a public table that the proxy may
// touch, or ErrNotFound when the table does not exist or exposes none.
func (r *Repos) TableColumns(ctx context.Context, table string) ([]string, error) {
	if !IsSafeIdentifier(table) {
		return nil, ErrInvalidIdentifier
	}
	var cols []string
	err := r.db.SelectContext(ctx, &cols, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	if r.columns != nil {
		cols = allowedColumns(cols, r.columns[table])
	}
	if len(cols) == 0 {
		return nil, ErrNotFound
	}
	return cols, nil
}

// allowedColumns keeps the existing columns that are also allowed, in table
// order.
func allowedColumns(existing, allowed []string) []string {
	out := make([]string, 0, len(existing))
	for _, c := range existing {
		if slices.Contains(allowed, c) {
			out = append(out, c)
		}
	}
	return out
}

func selectList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

// filterColumns keeps the entries whose key is a real column, in key order
// so generated SQL is stable.
func filterColumns(data map[string]any, allowed []string) ([]string, []any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		if IsSafeIdentifier(k) && slices.Contains(allowed, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	vals := make([]any, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, data[k])
	}
	return keys, vals
}

func (r *Repos) SelectRows(ctx context.Context, table string, limit int) ([]map[string]string, error) {
	cols, err := r.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	return r.queryMaps(ctx, fmt.Sprintf(`SELECT %s FROM %s LIMIT %d`, selectList(cols), quote(table), limit))
}

func (r *Repos) InsertRow(ctx context.Context, table string, data map[string]any) (map[string]string, error) {
	allowed, err := r.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	cols, vals := filterColumns(data, allowed)
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	quoted := make([]string, len(cols))
	ph := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	rows, err := r.queryMaps(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		quote(table), strings.Join(quoted, ", "), strings.Join(ph, ", "), selectList(allowed)), vals...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *Repos) UpdateRows(ctx context.Context, table string, set, where map[string]any) ([]map[string]string, error) {
	allowed, err := r.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	setCols, setVals := filterColumns(set, allowed)
	if len(setCols) == 0 {
		return nil, ErrNoColumns
	}
	whereCols, whereVals := filterColumns(where, allowed)
	if len(whereCols) == 0 {
		return nil, ErrNoConditions
	}

	args := append(setVals, whereVals...)
	sets := make([]string, len(setCols))
	for i, c := range setCols {
		sets[i] = fmt.Sprintf("%s = $%d", quote(c), i+1)
	}
	return r.queryMaps(ctx, fmt.Sprintf(`UPDATE %s SET %s WHERE %s RETURNING %s`,
		quote(table), strings.Join(sets, ", "), conditions(whereCols, len(setCols)), selectList(allowed)), args...)
}

func (r *Repos) DeleteRows(ctx context.Context, table string, where map[string]any) (int64, error) {
	allowed, err := r.TableColumns(ctx, table)
	if err != nil {
		return 0, err
	}
	whereCols, whereVals := filterColumns(where, allowed)
	if len(whereCols) == 0 {
		return 0, ErrNoConditions
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s`,
		quote(table), conditions(whereCols, 0)), whereVals...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func conditions(cols []string, offset int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s = $%d", quote(c), offset+i+1)
	}
	return strings.Join(parts, " AND ")
}

// queryMaps runs q and renders every value as a string, with NULL as "".
func (r *Repos) queryMaps(ctx context.Context, q string, args ...any) ([]map[string]string, error) {
	rows, err := r.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []map[string]string{}
	for rows.Next() {
		raw := map[string]any{}
		if err := rows.MapScan(raw); err != nil {
			return nil, err
		}
		row := make(map[string]string, len(raw))
		for k, v := range raw {
			row[k] = stringify(v)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
