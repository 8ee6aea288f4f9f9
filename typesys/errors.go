package typesys

import "errors"

// Runtime errors raised while evaluating expressions
var (
	ErrNullReference    = errors.New("null reference")
	ErrDivideByZero     = errors.New("attempted to divide by zero")
	ErrOverflow         = errors.New("arithmetic operation resulted in an overflow")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidCast      = errors.New("invalid cast")
	ErrFormat           = errors.New("input string was not in a correct format")
	ErrOutOfRange       = errors.New("index was out of range")
	ErrKeyNotFound      = errors.New("the given key was not present in the dictionary")
)

// Registration errors
var (
	ErrUnsupportedType = errors.New("unsupported host type")
	ErrNotEnum         = errors.New("enum type must be a named integer type")
)
