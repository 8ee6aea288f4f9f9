package expr

import "github.com/shibukawa/dynquery/typesys"

// Evaluation errors. They are shared with the member implementations in typesys.
var (
	ErrNullReference    = typesys.ErrNullReference
	ErrDivideByZero     = typesys.ErrDivideByZero
	ErrOverflow         = typesys.ErrOverflow
	ErrInvalidOperation = typesys.ErrInvalidOperation
	ErrInvalidCast      = typesys.ErrInvalidCast
	ErrOutOfRange       = typesys.ErrOutOfRange
)
