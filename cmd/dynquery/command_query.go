package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/shibukawa/dynquery"
	"github.com/shibukawa/dynquery/datasource"
	"github.com/shibukawa/dynquery/query"
)

// QueryCmd represents the query command. Stages run in the order where,
// group-by, order-by, skip, take, select.
type QueryCmd struct {
	Source       string   `arg:"" help:"Source name from config, data file (yaml, json, csv, xml; file#table selects a table) or db:[database:]table"`
	Where        string   `long:"where" short:"w" help:"Predicate over the elements"`
	GroupBy      string   `long:"group-by" help:"Grouping key"`
	GroupElement string   `long:"group-element" help:"Element selector of groups" default:"it"`
	OrderBy      string   `long:"order-by" help:"Comma-separated ordering keys with optional asc/desc"`
	Skip         int      `long:"skip" help:"Number of elements to skip"`
	Take         int      `long:"take" help:"Number of elements to take" default:"-1"`
	Select       string   `long:"select" help:"Projection such as new(Name, Price * 2 as Total)"`
	Count        bool     `long:"count" help:"Print the number of elements only"`
	Values       []string `long:"value" help:"Values bound to @0, @1, ..."`
	Param        []string `long:"param" short:"p" help:"Named value (key=value format)"`
	Format       string   `long:"format" short:"f" help:"Output format (table, json, csv, yaml, markdown, xml)"`
	OutputFile   string   `short:"o" long:"output" help:"Output file (defaults to stdout)" type:"path"`
	MaxRows      int      `long:"max-rows" help:"Maximum number of rows to print (0 uses the configured value)"`
	Timeout      string   `long:"timeout" help:"Query timeout (e.g. 10s)"`
}

// Run executes the query command
func (q *QueryCmd) Run(ctx *Context) error {
	config, err := dynquery.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	format := q.Format
	if format == "" {
		format = config.DefaultFormat
	}

	if !query.IsValidOutputFormat(format) {
		return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, format)
	}

	values, err := buildValues(q.Values, q.Param)
	if err != nil {
		return err
	}

	timeout := config.Query.Timeout
	if q.Timeout != "" {
		if timeout, err = time.ParseDuration(q.Timeout); err != nil {
			return fmt.Errorf("invalid timeout duration: %w", err)
		}
	}

	runCtx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}

	if ctx.Verbose {
		runCtx = query.WithLogger(runCtx, logEntry, query.LoggerOpt{SlowQueryThreshold: config.Query.SlowQueryThreshold})
	}

	source, closer, err := openSource(runCtx, ctx, config, q.Source)
	if err != nil {
		return err
	}
	defer closer()

	result, err := q.compose(source, values)
	if err != nil {
		return err
	}

	output := ctx.Out

	if q.OutputFile != "" {
		file, err := os.Create(q.OutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		output = file
	}

	if q.Count {
		n, err := query.Count(runCtx, result)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(output, n)

		return err
	}

	maxRows := q.MaxRows
	if maxRows == 0 {
		maxRows = config.Query.MaxRows
	}

	rows, err := query.Materialize(runCtx, result, maxRows)
	if err != nil {
		return err
	}

	formatter := query.NewFormatter(query.OutputFormat(format))
	formatter.Element = elementName(q.Source)

	if err := formatter.Format(rows, output); err != nil {
		return err
	}

	if q.OutputFile != "" && !ctx.Quiet {
		color.Green("Results written to %s", q.OutputFile)
	}

	return nil
}

// compose applies the requested stages to source
func (q *QueryCmd) compose(source query.Queryable, values []any) (query.Queryable, error) {
	var err error

	if q.Where != "" {
		if source, err = query.Where(source, q.Where, values...); err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
	}

	if q.GroupBy != "" {
		if source, err = query.GroupBy(source, q.GroupBy, q.GroupElement, values...); err != nil {
			return nil, fmt.Errorf("group-by: %w", err)
		}
	}

	if q.OrderBy != "" {
		if source, err = query.OrderBy(source, q.OrderBy, values...); err != nil {
			return nil, fmt.Errorf("order-by: %w", err)
		}
	}

	if q.Skip > 0 {
		if source, err = query.Skip(source, q.Skip); err != nil {
			return nil, err
		}
	}

	if q.Take >= 0 {
		if source, err = query.Take(source, q.Take); err != nil {
			return nil, err
		}
	}

	if q.Select != "" {
		if source, err = query.Select(source, q.Select, values...); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
	}

	return source, nil
}

// openSource resolves a source argument. Configured source names map to
// files; db:[database:]table reads a table of a configured database.
func openSource(runCtx context.Context, ctx *Context, config *dynquery.Config, name string) (query.Queryable, func(), error) {
	noop := func() {}

	if path, ok := config.Sources[name]; ok {
		name = path
	}

	spec, isDB := strings.CutPrefix(name, "db:")
	if !isDB {
		source, err := datasource.FromFile(name)
		if err != nil {
			return nil, noop, err
		}

		return source, noop, nil
	}

	database, table, ok := strings.Cut(spec, ":")
	if !ok {
		database, table = "", spec
	}

	if table == "" {
		return nil, noop, fmt.Errorf("%w: %s", ErrInvalidSource, name)
	}

	if len(config.Databases) == 0 {
		return nil, noop, ErrNoDatabase
	}

	dbConfig, err := config.Database(database)
	if err != nil {
		return nil, noop, err
	}

	if ctx.Verbose {
		color.Blue("Using database driver: %s", dbConfig.Driver)
	}

	db, err := datasource.Open(dbConfig.Driver, dbConfig.Connection)
	if err != nil {
		return nil, noop, err
	}

	source, err := datasource.FromTable(runCtx, db, table)
	if err != nil {
		closeDB(db)
		return nil, noop, err
	}

	return source, func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		color.Yellow("failed to close database: %v", err)
	}
}

// elementName returns the XML row element name for a source argument
func elementName(source string) string {
	if table, ok := strings.CutPrefix(source, "db:"); ok {
		source = table[strings.LastIndexAny(table, ":.")+1:]
	} else if _, table, ok := strings.Cut(source, "#"); ok {
		source = table
	} else {
		source = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}

	if source == "" {
		return "row"
	}

	return source
}

func logEntry(_ context.Context, e query.QueryLogEntry) {
	logTo(os.Stderr, e)
}

func logTo(w io.Writer, e query.QueryLogEntry) {
	c := color.New(color.FgCyan)
	if e.Error != "" {
		c = color.New(color.FgRed)
	}

	c.Fprintf(w, "[%s] %s -> %s", e.Duration, e.Expression, e.ResultType)

	if e.Rows >= 0 {
		c.Fprintf(w, " (%d rows)", e.Rows)
	}

	if e.Error != "" {
		c.Fprintf(w, ": %s", e.Error)
	}

	fmt.Fprintln(w)
}
