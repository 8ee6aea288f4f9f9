package datasource

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/goccy/go-yaml"
)

// Table is a named list of rows read from a data file. Columns keep the order
// of first appearance.
type Table struct {
	Name    string
	Columns []string
	Rows    []map[string]any
}

func (t *Table) addRow(row map[string]any, order []string) {
	for _, c := range order {
		if !t.hasColumn(c) {
			t.Columns = append(t.Columns, c)
		}
	}

	t.Rows = append(t.Rows, row)
}

func (t *Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}

	return false
}

// parseYAMLData parses a YAML or JSON document. A top-level sequence is a single
// table named defaultName; a top-level mapping holds one table per key.
func parseYAMLData(content []byte, defaultName string) ([]*Table, error) {
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}

	var doc any
	if err := yaml.UnmarshalWithOptions(content, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("failed to parse YAML data: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		t, err := tableFromSequence(defaultName, v)
		if err != nil {
			return nil, err
		}

		return []*Table{t}, nil
	case yaml.MapSlice:
		var tables []*Table

		for _, item := range v {
			rows, ok := item.Value.([]any)
			if !ok {
				continue
			}

			t, err := tableFromSequence(fmt.Sprint(item.Key), rows)
			if err != nil {
				return nil, err
			}

			tables = append(tables, t)
		}

		if len(tables) > 0 {
			return tables, nil
		}
	}

	return nil, fmt.Errorf("%w: expected a list of rows or a mapping of tables", ErrFailedToParse)
}

func tableFromSequence(name string, rows []any) (*Table, error) {
	t := &Table{Name: name}

	for i, r := range rows {
		m, ok := r.(yaml.MapSlice)
		if !ok {
			return nil, fmt.Errorf("%w: row %d of %s is not a mapping", ErrFailedToParse, i, name)
		}

		row := make(map[string]any, len(m))
		order := make([]string, 0, len(m))

		for _, item := range m {
			key := fmt.Sprint(item.Key)
			row[key] = normalizeValue(item.Value)
			order = append(order, key)
		}

		t.addRow(row, order)
	}

	return t, nil
}

// parseCSVData parses CSV content with a header line into a table
func parseCSVData(content []byte, name string) (*Table, error) {
	records, err := parseCSV(string(content))
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, ErrInvalidCSVFormat
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	t := &Table{Name: name}

	for _, record := range records[1:] {
		if isEmptyRow(record) {
			continue
		}

		row := make(map[string]any)
		order := make([]string, 0, len(headers))

		for j, value := range record {
			if j >= len(headers) || headers[j] == "" {
				continue
			}

			row[headers[j]] = parseValue(value)
			order = append(order, headers[j])
		}

		if len(row) > 0 {
			t.addRow(row, order)
		}
	}

	return t, nil
}

// parseCSV parses CSV content into records
func parseCSV(content string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.TrimLeadingSpace = true
	r.Comment = '#'
	r.FieldsPerRecord = -1

	return r.ReadAll()
}

// isEmptyRow checks if a CSV row is empty or contains only whitespace
func isEmptyRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}

	return true
}

// parseDBUnitXML parses a DBUnit flat XML dataset. Each child element of
// dataset is a row of the table named by its tag.
func parseDBUnitXML(content []byte) ([]*Table, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToParse, err)
	}

	dataset := doc.SelectElement("dataset")
	if dataset == nil {
		return nil, ErrNoDatasetElement
	}

	var tables []*Table

	byName := make(map[string]*Table)

	for _, elem := range dataset.ChildElements() {
		t, ok := byName[elem.Tag]
		if !ok {
			t = &Table{Name: elem.Tag}
			byName[elem.Tag] = t
			tables = append(tables, t)
		}

		row := make(map[string]any, len(elem.Attr))
		order := make([]string, 0, len(elem.Attr))

		for _, attr := range elem.Attr {
			row[attr.Key] = parseValue(attr.Value)
			order = append(order, attr.Key)
		}

		t.addRow(row, order)
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: dataset has no rows", ErrEmptyContent)
	}

	return tables, nil
}

// parseValue converts a textual cell to a typed value. NULL and empty cells are nil.
func parseValue(value string) any {
	value = strings.TrimSpace(value)

	switch strings.ToLower(value) {
	case "", "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
		(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
		return strings.Trim(value, "\"'")
	}

	return value
}

// normalizeValue ensures consistent types for decoded values
func normalizeValue(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return float64(val)
		}

		return int64(val)
	case float32:
		return float64(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = normalizeValue(item)
		}

		return result
	case yaml.MapSlice:
		result := make(map[string]any, len(val))
		for _, item := range val {
			result[fmt.Sprint(item.Key)] = normalizeValue(item.Value)
		}

		return result
	default:
		return v
	}
}
