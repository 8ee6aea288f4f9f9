package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/dynquery/query"
	"github.com/shibukawa/dynquery/record"
	"github.com/shibukawa/dynquery/testhelper"
	"github.com/shibukawa/dynquery/typesys"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func fieldTypes(elem *typesys.Type) map[string]*typesys.Type {
	result := make(map[string]*typesys.Type)
	for _, f := range elem.Fields() {
		result[f.Name] = f.Type
	}

	return result
}

func field(t *testing.T, item any, name string) any {
	t.Helper()

	inst, ok := item.(*record.Instance)
	require.True(t, ok)

	v, ok := inst.Field(name)
	require.True(t, ok)

	return v
}

func TestFromYAMLFile(t *testing.T) {
	path := writeFile(t, "products.yaml", testhelper.TrimIndent(t, `
		- name: pen
		  price: 2.5
		  qty: 10
		- name: desk
		  price: 120
		  qty: 2
		  note: heavy
	`))

	q, err := FromFile(path)
	require.NoError(t, err)

	types := fieldTypes(q.ElementType())
	assert.Equal(t, typesys.String, types["name"])
	assert.Equal(t, typesys.Double, types["price"])
	assert.Equal(t, typesys.Int64, types["qty"])
	assert.Equal(t, typesys.String, types["note"])

	var columns []string
	for _, f := range q.ElementType().Fields() {
		columns = append(columns, f.Name)
	}

	assert.Equal(t, []string{"name", "price", "qty", "note"}, columns)

	expensive, err := query.Where(q, "price > 100 and note != null")
	require.NoError(t, err)

	items, err := query.Collect(context.Background(), expensive)
	require.NoError(t, err)
	require.Equal(t, 1, len(items))
	assert.Equal(t, any(120.0), field(t, items[0], "price"))
	assert.Equal(t, any("desk"), field(t, items[0], "Name"))
}

func TestFromYAMLTables(t *testing.T) {
	path := writeFile(t, "shop.yaml", testhelper.TrimIndent(t, `
		products:
		  - name: pen
		categories:
		  - id: 1
		    title: stationery
		  - id: 2
		    title: furniture
	`))

	tables, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, len(tables))
	assert.Equal(t, "products", tables[0].Name)
	assert.Equal(t, "categories", tables[1].Name)

	q, err := FromFile(path + "#categories")
	require.NoError(t, err)

	n, err := query.Count(context.Background(), q)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = FromFile(path + "#orders")
	assert.IsError(t, err, ErrTableNotFound)
}

func TestFromJSONFile(t *testing.T) {
	path := writeFile(t, "users.json", `[{"id": 1, "name": "alice", "admin": true}, {"id": 2, "name": "bob", "admin": false}]`)

	q, err := FromFile(path)
	require.NoError(t, err)

	admins, err := query.Where(q, "admin")
	require.NoError(t, err)

	selected, err := query.Select(admins, "name")
	require.NoError(t, err)

	items, err := query.Collect(context.Background(), selected)
	assert.NoError(t, err)
	assert.Equal(t, []any{"alice"}, items)
}

func TestFromCSVFile(t *testing.T) {
	path := writeFile(t, "flags.csv", testhelper.TrimIndent(t, `
		# feature flags
		id,unit price,active
		1,10,true
		2,12.5,
		3,7,false
	`))

	q, err := FromFile(path)
	require.NoError(t, err)

	types := fieldTypes(q.ElementType())
	assert.Equal(t, typesys.Int64, types["id"])
	assert.Equal(t, typesys.Double, types["unit_price"])
	assert.Equal(t, typesys.NullableOf(typesys.Boolean), types["active"])

	active, err := query.Where(q, "active == true")
	require.NoError(t, err)

	items, err := query.Collect(context.Background(), active)
	require.NoError(t, err)
	require.Equal(t, 1, len(items))
	assert.Equal(t, any(int64(1)), field(t, items[0], "id"))
	assert.Equal(t, any(10.0), field(t, items[0], "unit_price"))

	unknown, err := query.Where(q, "!active.HasValue")
	require.NoError(t, err)

	n, err := query.Count(context.Background(), unknown)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFromDBUnitXML(t *testing.T) {
	path := writeFile(t, "dataset.xml", testhelper.TrimIndent(t, `
		<?xml version="1.0" encoding="UTF-8"?>
		<dataset>
		  <users id="1" name="alice"/>
		  <orders id="10" user_id="1" amount="12.5"/>
		  <users id="2" name="bob"/>
		</dataset>
	`))

	tables, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, len(tables))
	assert.Equal(t, "users", tables[0].Name)
	assert.Equal(t, 2, len(tables[0].Rows))

	q, err := FromFile(path + "#orders")
	require.NoError(t, err)

	items, err := query.Collect(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 1, len(items))
	assert.Equal(t, any(12.5), field(t, items[0], "amount"))
}

func TestReadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"unsupported extension", "data.txt", "a", ErrUnsupportedFormat},
		{"empty yaml", "empty.yaml", "  \n", ErrEmptyContent},
		{"scalar yaml", "scalar.yaml", "42", ErrFailedToParse},
		{"csv without rows", "header.csv", "a,b\n", ErrInvalidCSVFormat},
		{"xml without dataset", "other.xml", "<root/>", ErrNoDatasetElement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFile(writeFile(t, tt.file, tt.content))
			assert.IsError(t, err, tt.wantErr)
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"NULL", nil},
		{"True", true},
		{"42", int64(42)},
		{"-1.5", -1.5},
		{`"7"`, "7"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.in))
		})
	}
}

func TestPropertyName(t *testing.T) {
	assert.Equal(t, "unit_price", propertyName("unit price"))
	assert.Equal(t, "_1st", propertyName("1st"))
	assert.Equal(t, "名前", propertyName("名前"))
	assert.Equal(t, "_", propertyName(" "))
}

func TestColumnInference(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   *typesys.Type
	}{
		{"integers", []any{int64(1), int64(2)}, typesys.Int64},
		{"mixed numbers", []any{int64(1), 2.5}, typesys.Double},
		{"nullable", []any{true, nil}, typesys.NullableOf(typesys.Boolean)},
		{"nullable string", []any{"a", nil}, typesys.String},
		{"conflict", []any{"a", int64(1)}, typesys.Object},
		{"only nulls", []any{nil}, typesys.Object},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var kind columnKind
			for _, v := range tt.values {
				kind.observe(v)
			}

			assert.Equal(t, tt.want, kind.result())
		})
	}
}
