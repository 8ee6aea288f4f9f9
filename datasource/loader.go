// Package datasource turns data files and database tables into queryable
// sequences of records. Column types are inferred from the values and the
// record types are synthesized by the parser's record factory, so expressions
// address columns as properties.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shibukawa/dynquery/query"
	"github.com/shibukawa/dynquery/record"
	"github.com/shibukawa/dynquery/typesys"
)

// Loader creates queryables for an engine
type Loader struct {
	engine *query.Engine
}

// NewLoader creates a loader whose queryables are executed by engine
func NewLoader(engine *query.Engine) *Loader {
	return &Loader{engine: engine}
}

// Default is the loader of the default engine
var Default = NewLoader(query.Default)

// FromFile loads a data file with the default loader
func FromFile(path string) (query.Queryable, error) {
	return Default.FromFile(path)
}

// FromFile loads a YAML, JSON, CSV or DBUnit XML file. A "#name" suffix selects
// a table of a file holding several tables; the first table is used otherwise.
func (l *Loader) FromFile(path string) (query.Queryable, error) {
	path, name, _ := strings.Cut(path, "#")

	tables, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	t := tables[0]

	if name != "" {
		t = nil

		for _, candidate := range tables {
			if strings.EqualFold(candidate.Name, name) {
				t = candidate
				break
			}
		}

		if t == nil {
			return nil, fmt.Errorf("%w: %s in %s", ErrTableNotFound, name, path)
		}
	}

	return l.FromTableData(t)
}

// ReadFile reads the tables of a data file. The format follows the extension.
func ReadFile(path string) ([]*Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml", ".json":
		return parseYAMLData(content, name)
	case ".csv":
		t, err := parseCSVData(content, name)
		if err != nil {
			return nil, err
		}

		return []*Table{t}, nil
	case ".xml":
		return parseDBUnitXML(content)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// FromTableData builds records from t and wraps them in a queryable
func (l *Loader) FromTableData(t *Table) (query.Queryable, error) {
	elem, items, err := l.records(t, nil)
	if err != nil {
		return nil, err
	}

	return l.engine.FromItems(t.Name, elem, items), nil
}

// records infers the column types of t, synthesizes the record type and fills
// one instance per row. hints fixes the type of a column regardless of its values.
func (l *Loader) records(t *Table, hints map[string]*typesys.Type) (*typesys.Type, []any, error) {
	props := make([]record.Property, len(t.Columns))

	for i, c := range t.Columns {
		typ := hints[c]
		if typ != nil && !fitsColumn(t.Rows, c, typ) {
			typ = nil
		}

		if typ == nil {
			var kind columnKind
			for _, row := range t.Rows {
				kind.observe(row[c])
			}

			typ = kind.result()
		}

		props[i] = record.Property{Name: propertyName(c), Type: typ}
	}

	elem, err := l.engine.Parser().Records().Get(props)
	if err != nil {
		return nil, nil, fmt.Errorf("table %s: %w", t.Name, err)
	}

	items := make([]any, len(t.Rows))

	for i, row := range t.Rows {
		inst, ok := elem.NewInstance()
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s can not be instantiated", typesys.ErrInvalidOperation, elem.Name())
		}

		for j, c := range t.Columns {
			if err := inst.SetField(props[j].Name, convertCell(row[c], props[j].Type)); err != nil {
				return nil, nil, err
			}
		}

		items[i] = inst
	}

	return elem, items, nil
}

// fitsColumn reports whether every cell of column converts to typ
func fitsColumn(rows []map[string]any, column string, typ *typesys.Type) bool {
	for _, row := range rows {
		v := row[column]
		if v == nil {
			continue
		}

		if valueType(convertCell(v, typ)) != typ.NonNullable() {
			return false
		}
	}

	return true
}
