package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shibukawa/dynquery/query"
	"github.com/shibukawa/dynquery/typesys"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// NormalizeDriverName maps driver aliases to the registered database/sql driver names
func NormalizeDriverName(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pgx":
		return "pgx"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return strings.ToLower(strings.TrimSpace(driver))
	}
}

// Open opens a database with a normalized driver name
func Open(driver, dsn string) (*sql.DB, error) {
	name := NormalizeDriverName(driver)

	switch name {
	case "pgx", "mysql", "sqlite3":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// FromTable loads a database table with the default loader
func FromTable(ctx context.Context, db *sql.DB, table string) (query.Queryable, error) {
	return Default.FromTable(ctx, db, table)
}

// FromTable reads every row of table into records. Declared column types take
// precedence over the values; DECIMAL and NUMERIC columns become Decimal.
func (l *Loader) FromTable(ctx context.Context, db *sql.DB, table string) (query.Queryable, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteTable(db, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	t := &Table{Name: table}
	hints := make(map[string]*typesys.Type)

	for _, c := range columns {
		t.Columns = append(t.Columns, c.Name())

		if typ := declaredType(c.DatabaseTypeName()); typ != nil {
			if nullable, ok := c.Nullable(); !ok || nullable {
				typ = typesys.NullableOf(typ)
			}

			hints[c.Name()] = typ
		}
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))

	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, c := range t.Columns {
			row[c] = normalizeColumnValue(values[i])
		}

		t.Rows = append(t.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	elem, items, err := l.records(t, hints)
	if err != nil {
		return nil, err
	}

	return l.engine.FromItems(table, elem, items), nil
}

func quoteTable(db *sql.DB, table string) string {
	q := `"`
	if _, ok := db.Driver().(*mysql.MySQLDriver); ok {
		q = "`"
	}

	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = q + p + q
	}

	return strings.Join(parts, ".")
}

// declaredType maps a database column type name to an expression type. It
// returns nil for names whose values decide the type.
func declaredType(name string) *typesys.Type {
	name = strings.ToUpper(name)

	switch {
	case name == "":
		return nil
	case strings.Contains(name, "DECIMAL"), strings.Contains(name, "NUMERIC"):
		return typesys.Decimal
	case strings.HasPrefix(name, "BOOL"):
		return typesys.Boolean
	case strings.Contains(name, "INT"):
		return typesys.Int64
	case strings.Contains(name, "REAL"), strings.Contains(name, "FLOAT"), strings.Contains(name, "DOUBLE"):
		return typesys.Double
	case strings.Contains(name, "CHAR"), strings.Contains(name, "TEXT"), strings.Contains(name, "CLOB"), name == "UUID":
		return typesys.String
	case strings.HasPrefix(name, "TIMESTAMP"), name == "DATETIME", name == "DATE":
		return typesys.DateTime
	}

	return nil
}

// normalizeColumnValue converts driver values to the representations used by records
func normalizeColumnValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case float32:
		return float64(x)
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])
	case time.Time:
		return x
	}

	return v
}
