package datasource

import "errors"

// Error definitions
var (
	ErrEmptyContent      = errors.New("content is empty")
	ErrInvalidCSVFormat  = errors.New("invalid CSV format: header and at least one row required")
	ErrNoDatasetElement  = errors.New("no dataset element found in XML")
	ErrUnsupportedFormat = errors.New("unsupported data file format")
	ErrFailedToParse     = errors.New("failed to parse data")
	ErrTableNotFound     = errors.New("table not found")
	ErrInvalidTableName  = errors.New("invalid table name")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
