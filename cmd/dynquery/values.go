package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shibukawa/dynquery/typesys"
)

// Sentinel errors for command operations
var (
	ErrInvalidParams       = errors.New("invalid parameters")
	ErrUnknownType         = errors.New("unknown type")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrNoDatabase          = errors.New("no database configured")
	ErrInvalidSource       = errors.New("invalid source")
)

// parseArgValue converts a command-line value to the value bound to @N or a
// named parameter. Integers that fit are Int32 like integer literals.
func parseArgValue(value string) any {
	if (strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}")) ||
		(strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]")) {
		var jsonValue any
		if err := json.Unmarshal([]byte(value), &jsonValue); err == nil {
			return jsonValue
		}
	}

	switch value {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}

	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i)
		}

		return i
	}

	if strings.Contains(value, ".") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}

	return value
}

// buildValues returns positional values followed by the named parameters as
// the trailing externals map
func buildValues(positional []string, params []string) ([]any, error) {
	values := make([]any, 0, len(positional)+1)
	for _, v := range positional {
		values = append(values, parseArgValue(v))
	}

	if len(params) == 0 {
		return values, nil
	}

	named := make(map[string]any, len(params))

	for _, param := range params {
		key, value, ok := strings.Cut(param, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: parameter must be in key=value format: %s", ErrInvalidParams, param)
		}

		named[key] = parseArgValue(value)
	}

	return append(values, named), nil
}

// typeByName resolves a predefined type keyword such as Int32 or DateTime?.
// Names are case-insensitive.
func typeByName(name string) (*typesys.Type, error) {
	base, nullable := strings.CutSuffix(strings.TrimSpace(name), "?")

	for _, t := range typesys.PredefinedTypes() {
		if strings.EqualFold(t.Name(), base) && t.Kind() != typesys.KindStatic {
			if nullable {
				return typesys.NullableOf(t), nil
			}

			return t, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
}
