package query

import (
	"errors"

	"github.com/shibukawa/dynquery"
)

// Error definitions
var (
	ErrNotSequence         = errors.New("value is not a sequence")
	ErrInvalidOutputFormat = errors.New("invalid output format")
)

func argumentNull(name string) error {
	return &dynquery.ArgumentNullError{Name: name}
}
