package query

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/beevik/etree"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shibukawa/dynquery/typesys"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	FormatTable    OutputFormat = "table"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatYAML     OutputFormat = "yaml"
	FormatMarkdown OutputFormat = "markdown"
	FormatXML      OutputFormat = "xml"
)

// Formatter formats query results
type Formatter struct {
	format OutputFormat
	// Element is the element name of rows in XML output
	Element string
}

// NewFormatter creates a new result formatter
func NewFormatter(format OutputFormat) *Formatter {
	return &Formatter{
		format:  OutputFormat(strings.ToLower(string(format))),
		Element: "row",
	}
}

// Format formats query results according to the specified format
func (f *Formatter) Format(result *Result, output io.Writer) error {
	switch f.format {
	case FormatTable:
		return f.formatAsTable(result, output)
	case FormatJSON:
		return f.formatAsJSON(result, output)
	case FormatCSV:
		return f.formatAsCSV(result, output)
	case FormatYAML:
		return f.formatAsYAML(result, output)
	case FormatMarkdown:
		return f.formatAsMarkdown(result, output)
	case FormatXML:
		return f.formatAsXML(result, output)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, f.format)
	}
}

// formatAsTable formats results as an aligned text table
func (f *Formatter) formatAsTable(result *Result, output io.Writer) error {
	if len(result.Rows) == 0 {
		_, err := fmt.Fprintln(output, "No results")
		return err
	}

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(result.Columns, "\t"))

	rules := make([]string, len(result.Columns))
	for i, c := range result.Columns {
		rules[i] = strings.Repeat("-", max(len(c), 3))
	}

	fmt.Fprintln(w, strings.Join(rules, "\t"))

	for _, row := range result.Rows {
		fmt.Fprintln(w, strings.Join(formatRow(row), "\t"))
	}

	if err := w.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(output, "%d rows, Time: %v\n", result.Count, result.Duration)

	return err
}

// formatAsMarkdown formats results as a Markdown table
func (f *Formatter) formatAsMarkdown(result *Result, output io.Writer) error {
	if len(result.Rows) == 0 {
		_, err := fmt.Fprintln(output, "No results")
		return err
	}

	var b strings.Builder

	writeMarkdownRow(&b, result.Columns)

	rules := make([]string, len(result.Columns))
	for i := range rules {
		rules[i] = "---"
	}

	writeMarkdownRow(&b, rules)

	for _, row := range result.Rows {
		writeMarkdownRow(&b, formatRow(row))
	}

	fmt.Fprintf(&b, "\n<!-- %d rows, Time: %v -->\n", result.Count, result.Duration)

	_, err := io.WriteString(output, b.String())

	return err
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")

	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(c, "|", `\|`))
		b.WriteString(" |")
	}

	b.WriteString("\n")
}

// formatAsJSON formats results as JSON
func (f *Formatter) formatAsJSON(result *Result, output io.Writer) error {
	jsonResult := map[string]any{
		"data":     rowsToMaps(result.Columns, result.Rows),
		"count":    result.Count,
		"duration": result.Duration.String(),
	}

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")

	return encoder.Encode(jsonResult)
}

// formatAsCSV formats results as CSV
func (f *Formatter) formatAsCSV(result *Result, output io.Writer) error {
	writer := csv.NewWriter(output)

	if err := writer.Write(result.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range result.Rows {
		if err := writer.Write(formatRow(row)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()

	return writer.Error()
}

// formatAsYAML formats results as YAML. Rows keep their column order.
func (f *Formatter) formatAsYAML(result *Result, output io.Writer) error {
	rows := make([]yaml.MapSlice, len(result.Rows))

	for i, row := range result.Rows {
		item := make(yaml.MapSlice, len(result.Columns))
		for j, col := range result.Columns {
			item[j] = yaml.MapItem{Key: col, Value: plainValue(row[j])}
		}

		rows[i] = item
	}

	yamlResult := yaml.MapSlice{
		{Key: "data", Value: rows},
		{Key: "count", Value: result.Count},
		{Key: "duration", Value: result.Duration.String()},
	}

	data, err := yaml.Marshal(yamlResult)
	if err != nil {
		return fmt.Errorf("failed to marshal results to YAML: %w", err)
	}

	_, err = output.Write(data)

	return err
}

// formatAsXML formats results as a DBUnit flat XML dataset. Null values are
// omitted from the row element.
func (f *Formatter) formatAsXML(result *Result, output io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	dataset := doc.CreateElement("dataset")

	for _, row := range result.Rows {
		el := dataset.CreateElement(f.Element)

		for i, col := range result.Columns {
			if row[i] == nil {
				continue
			}

			el.CreateAttr(col, formatValue(row[i]))
		}
	}

	doc.Indent(2)

	_, err := doc.WriteTo(output)

	return err
}

// rowsToMaps converts rows to maps
func rowsToMaps(columns []string, rows [][]any) []map[string]any {
	result := make([]map[string]any, 0, len(rows))

	for _, row := range rows {
		rowMap := make(map[string]any, len(columns))

		for i, col := range columns {
			if i < len(row) {
				rowMap[col] = plainValue(row[i])
			}
		}

		result = append(result, rowMap)
	}

	return result
}

// plainValue converts a value to one that encoders render without further help
func plainValue(val any) any {
	switch v := val.(type) {
	case nil, bool, string, int8, uint8, int16, uint16, int32, uint32, int64, uint64, float32, float64:
		return v
	case decimal.Decimal:
		f, _ := v.Float64()
		return f
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case uuid.UUID:
		return v.String()
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = plainValue(item)
		}

		return items
	default:
		return formatValue(v)
	}
}

func formatRow(row []any) []string {
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = formatValue(v)
	}

	return cells
}

// formatValue formats a value as a string
func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return "NULL"
	case []any:
		data, err := json.Marshal(plainValue(v))
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(data)
	default:
		return typesys.Format(v)
	}
}

// IsValidOutputFormat checks if the output format is valid
func IsValidOutputFormat(format string) bool {
	switch OutputFormat(strings.ToLower(format)) {
	case FormatTable, FormatJSON, FormatCSV, FormatYAML, FormatMarkdown, FormatXML:
		return true
	}

	return false
}
