package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/record"
	"github.com/shibukawa/dynquery/tokenizer"
	"github.com/shibukawa/dynquery/typesys"
)

type keyword int

const (
	keywordIt keyword = iota
	keywordIif
	keywordNew
)

var (
	trueLiteral  = &expr.Constant{Value: true, T: typesys.Boolean}
	falseLiteral = &expr.Constant{Value: false, T: typesys.Boolean}
)

// keywords maps folded keyword names to constants, types or keyword markers
var keywords = func() map[string]any {
	m := map[string]any{
		"true":  trueLiteral,
		"false": falseLiteral,
		"null":  nullLiteral,
		"it":    keywordIt,
		"iif":   keywordIif,
		"new":   keywordNew,
	}

	for _, t := range typesys.PredefinedTypes() {
		m[typesys.Fold(t.Name())] = t
	}

	return m
}()

// parsePrimary parses a primary expression followed by member and element accesses
func (s *state) parsePrimary() (expr.Node, error) {
	e, err := s.parsePrimaryStart()
	if err != nil {
		return nil, err
	}

	for {
		switch s.token.Type {
		case tokenizer.DOT:
			if err := s.next(); err != nil {
				return nil, err
			}

			if e, err = s.parseMemberAccess(nil, e); err != nil {
				return nil, err
			}
		case tokenizer.OPENED_BRACKET:
			if e, err = s.parseElementAccess(e); err != nil {
				return nil, err
			}
		default:
			return e, nil
		}
	}
}

func (s *state) parsePrimaryStart() (expr.Node, error) {
	switch s.token.Type {
	case tokenizer.IDENTIFIER:
		return s.parseIdentifier()
	case tokenizer.STRING:
		return s.parseStringLiteral()
	case tokenizer.INTEGER:
		return s.parseIntegerLiteral()
	case tokenizer.REAL:
		return s.parseRealLiteral()
	case tokenizer.OPENED_PARENS:
		return s.parseParenExpression()
	}

	return nil, s.errorf(errSyntax, "Expression expected")
}

func (s *state) parseStringLiteral() (expr.Node, error) {
	text := []rune(s.token.Value)
	quote := string(text[0])
	value := strings.ReplaceAll(string(text[1:len(text)-1]), quote+quote, quote)

	if quote == "'" {
		r := []rune(value)
		if len(r) != 1 {
			return nil, s.errorf(errLiteral, "Character literal must contain exactly one character")
		}

		if err := s.next(); err != nil {
			return nil, err
		}

		return s.literal(r[0], typesys.Char, value), nil
	}

	if err := s.next(); err != nil {
		return nil, err
	}

	return s.literal(value, typesys.String, value), nil
}

// parseIntegerLiteral types a literal as the first of Int32, UInt32, Int64 and UInt64 that holds it.
// Negative literals are Int32 or Int64.
func (s *state) parseIntegerLiteral() (expr.Node, error) {
	text := s.token.Value

	if !strings.HasPrefix(text, "-") {
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, s.errorf(errLiteral, "Invalid integer literal '%s'", text)
		}

		if err := s.next(); err != nil {
			return nil, err
		}

		switch {
		case u <= 1<<31-1:
			return s.literal(int32(u), typesys.Int32, text), nil
		case u <= 1<<32-1:
			return s.literal(uint32(u), typesys.UInt32, text), nil
		case u <= 1<<63-1:
			return s.literal(int64(u), typesys.Int64, text), nil
		}

		return s.literal(u, typesys.UInt64, text), nil
	}

	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, s.errorf(errLiteral, "Invalid integer literal '%s'", text)
	}

	if err := s.next(); err != nil {
		return nil, err
	}

	if i >= -1<<31 && i <= 1<<31-1 {
		return s.literal(int32(i), typesys.Int32, text), nil
	}

	return s.literal(i, typesys.Int64, text), nil
}

// parseRealLiteral types a literal as Double, or Single with an f suffix
func (s *state) parseRealLiteral() (expr.Node, error) {
	text := s.token.Value

	var c *expr.Constant

	if last := text[len(text)-1]; last == 'f' || last == 'F' {
		f, err := strconv.ParseFloat(text[:len(text)-1], 32)
		if err != nil {
			return nil, s.errorf(errLiteral, "Invalid real literal '%s'", text)
		}

		c = s.literal(float32(f), typesys.Single, text)
	} else {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, s.errorf(errLiteral, "Invalid real literal '%s'", text)
		}

		c = s.literal(f, typesys.Double, text)
	}

	if err := s.next(); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *state) parseParenExpression() (expr.Node, error) {
	if err := s.skip(tokenizer.OPENED_PARENS, "'(' expected"); err != nil {
		return nil, err
	}

	e, err := s.parseExpression()
	if err != nil {
		return nil, err
	}

	if err := s.skip(tokenizer.CLOSED_PARENS, "')' or operator expected"); err != nil {
		return nil, err
	}

	return e, nil
}

// parseIdentifier resolves keywords, then symbols and external values, then members of it
func (s *state) parseIdentifier() (expr.Node, error) {
	if value, ok := keywords[typesys.Fold(s.token.Value)]; ok {
		switch v := value.(type) {
		case *typesys.Type:
			return s.parseTypeAccess(v)
		case keyword:
			switch v {
			case keywordIt:
				return s.parseIt()
			case keywordIif:
				return s.parseIif()
			default:
				return s.parseNew()
			}
		case *expr.Constant:
			if err := s.next(); err != nil {
				return nil, err
			}

			return v, nil
		}
	}

	if value, ok := s.lookup(s.token.Value); ok {
		return s.parseSymbol(value)
	}

	if s.it != nil {
		return s.parseMemberAccess(nil, s.it)
	}

	return nil, s.errorf(errUnknownIdentifier, "Unknown identifier '%s'", s.token.Value)
}

func (s *state) parseSymbol(value any) (expr.Node, error) {
	if lambda, ok := value.(*expr.Lambda); ok {
		return s.parseLambdaInvocation(lambda)
	}

	e, ok := value.(expr.Node)
	if !ok {
		t, err := s.catalog.TypeOfValue(value)
		if err != nil {
			return nil, s.errorf(errType, "Value of identifier '%s' has an unsupported type: %v", s.token.Value, err)
		}

		e = &expr.Constant{Value: typesys.Normalize(value), T: t}
	}

	if err := s.next(); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *state) parseIt() (expr.Node, error) {
	if s.it == nil {
		return nil, s.errorf(errUnknownIdentifier, "No 'it' is in scope")
	}

	if err := s.next(); err != nil {
		return nil, err
	}

	return s.it, nil
}

func (s *state) parseIif() (expr.Node, error) {
	pos := s.token.Position

	if err := s.next(); err != nil {
		return nil, err
	}

	args, err := s.parseArgumentList()
	if err != nil {
		return nil, err
	}

	if len(args) != 3 {
		return nil, s.errorAt(errSyntax, pos, "The 'iif' function requires three arguments")
	}

	return s.conditional(args[0], args[1], args[2], pos)
}

// parseNew parses new(expr [as name], ...) into the initialization of a synthesized record type
func (s *state) parseNew() (expr.Node, error) {
	pos := s.token.Position

	if err := s.next(); err != nil {
		return nil, err
	}

	if err := s.skip(tokenizer.OPENED_PARENS, "'(' expected"); err != nil {
		return nil, err
	}

	var (
		props  []record.Property
		values []expr.Node
	)

	for {
		exprPos := s.token.Position

		e, err := s.parseExpression()
		if err != nil {
			return nil, err
		}

		var name string

		if s.token.Is("as") {
			if err := s.next(); err != nil {
				return nil, err
			}

			if name, err = s.identifier(); err != nil {
				return nil, err
			}

			if err := s.next(); err != nil {
				return nil, err
			}
		} else {
			m, ok := e.(*expr.MemberAccess)
			if !ok {
				return nil, s.errorAt(errMissingAs, exprPos, "Expression is missing an 'as' clause")
			}

			name = m.Member.Name
		}

		props = append(props, record.Property{Name: name, Type: e.Type()})
		values = append(values, e)

		if s.token.Type != tokenizer.COMMA {
			break
		}

		if err := s.next(); err != nil {
			return nil, err
		}
	}

	if err := s.skip(tokenizer.CLOSED_PARENS, "')' or ',' expected"); err != nil {
		return nil, err
	}

	t, err := s.records.Get(props)
	if err != nil {
		if errors.Is(err, record.ErrDuplicateProperty) {
			return nil, s.errorAt(errDuplicate, pos, "%v", err)
		}

		return nil, s.errorAt(errType, pos, "%v", err)
	}

	fields := t.Fields()
	n := &expr.New{T: t, Bindings: make([]expr.Binding, len(values))}

	for i, v := range values {
		n.Bindings[i] = expr.Binding{Member: fields[i], Value: v}
	}

	return n, nil
}

func (s *state) parseLambdaInvocation(lambda *expr.Lambda) (expr.Node, error) {
	pos := s.token.Position

	if err := s.next(); err != nil {
		return nil, err
	}

	args, err := s.parseArgumentList()
	if err != nil {
		return nil, err
	}

	params := make([]*typesys.Type, len(lambda.Params))
	for i, p := range lambda.Params {
		params[i] = p.T
	}

	if n, _ := s.findBest([][]*typesys.Type{params}, args); n != 1 {
		return nil, s.errorAt(errNoApplicable, pos, "Argument list incompatible with lambda expression")
	}

	return &expr.Invoke{Lambda: lambda, Args: args, T: lambda.Body.Type()}, nil
}

// parseTypeAccess parses T.Member, T(args) and T?(args) for a keyword type
func (s *state) parseTypeAccess(t *typesys.Type) (expr.Node, error) {
	pos := s.token.Position

	if err := s.next(); err != nil {
		return nil, err
	}

	if s.token.Type == tokenizer.QUESTION {
		if !t.IsValueType() || t.IsNullable() || t.Kind() == typesys.KindStatic {
			return nil, s.errorAt(errType, pos, "Type '%s' has no nullable form", t.Name())
		}

		t = typesys.NullableOf(t)

		if err := s.next(); err != nil {
			return nil, err
		}
	}

	if s.token.Type == tokenizer.OPENED_PARENS {
		args, err := s.parseArgumentList()
		if err != nil {
			return nil, err
		}

		switch n, ctor := s.findBestMethod(t.Constructors(), args); n {
		case 0:
			if len(args) == 1 {
				return s.conversion(args[0], t, pos)
			}

			return nil, s.errorAt(errNoApplicable, pos, "No matching constructor in type '%s'", t.Name())
		case 1:
			return expr.Reduce(&expr.New{T: t, Constructor: ctor, Args: args}), nil
		default:
			return nil, s.errorAt(errAmbiguous, pos, "Ambiguous invocation of '%s' constructor", t.Name())
		}
	}

	if err := s.skip(tokenizer.DOT, "'.' or '(' expected"); err != nil {
		return nil, err
	}

	return s.parseMemberAccess(t, nil)
}

// parseMemberAccess parses a property, field, method or aggregate of instance,
// or a static member of t when instance is nil
func (s *state) parseMemberAccess(t *typesys.Type, instance expr.Node) (expr.Node, error) {
	if instance != nil {
		t = instance.Type()
	}

	pos := s.token.Position

	id, err := s.identifier()
	if err != nil {
		return nil, err
	}

	if err := s.next(); err != nil {
		return nil, err
	}

	if s.token.Type != tokenizer.OPENED_PARENS {
		m, ok := s.catalog.FindPropertyOrField(t, id, instance == nil)
		if !ok {
			return nil, s.errorAt(errUnknownIdentifier, pos, "No property or field '%s' exists in type '%s'", id, t.Name())
		}

		return &expr.MemberAccess{Target: instance, Member: m}, nil
	}

	if instance != nil && t != typesys.String {
		if elem, ok := t.ElementType(); ok {
			return s.parseAggregate(instance, elem, id, pos)
		}
	}

	args, err := s.parseArgumentList()
	if err != nil {
		return nil, err
	}

	switch n, m := s.findMethod(t, id, instance == nil, args); n {
	case 0:
		return nil, s.errorAt(errNoApplicable, pos, "No applicable method '%s' exists in type '%s'", id, t.Name())
	case 1:
		if !typesys.IsAccessible(m.Declaring) {
			return nil, s.errorAt(errNoApplicable, pos, "Methods on type '%s' are not accessible", m.Declaring.Name())
		}

		if m.Result == nil {
			return nil, s.errorAt(errType, pos, "Method '%s' in type '%s' does not return a value", id, m.Declaring.Name())
		}

		return expr.Reduce(&expr.Call{Target: instance, Method: m, Args: args}), nil
	default:
		return nil, s.errorAt(errAmbiguous, pos, "Ambiguous invocation of method '%s' in type '%s'", id, t.Name())
	}
}

// parseAggregate parses a sequence operator. Inside its argument list it denotes the element.
func (s *state) parseAggregate(instance expr.Node, elem *typesys.Type, name string, pos int) (expr.Node, error) {
	outer := s.it
	inner := expr.NewParameter("", elem)
	s.it = inner

	args, err := s.parseArgumentList()

	s.it = outer

	if err != nil {
		return nil, err
	}

	n, sig := s.findSignature(typesys.EnumerableFamily, name, args)
	if n != 1 {
		return nil, s.errorAt(errNoApplicable, pos, "No applicable aggregate method '%s' exists", name)
	}

	var arg *typesys.Type
	if len(args) == 1 {
		arg = args[0].Type()
	}

	m, err := typesys.Aggregate(sig.Name, elem, arg)
	if err != nil {
		return nil, s.errorAt(errNoApplicable, pos, "%v", err)
	}

	callArgs := []expr.Node{instance}
	if len(args) == 1 {
		callArgs = append(callArgs, expr.NewLambda(args[0], inner))
	}

	return &expr.Call{Method: m, Args: callArgs}, nil
}

// parseElementAccess parses e[args]
func (s *state) parseElementAccess(e expr.Node) (expr.Node, error) {
	pos := s.token.Position

	if err := s.skip(tokenizer.OPENED_BRACKET, "'(' expected"); err != nil {
		return nil, err
	}

	args, err := s.parseArguments()
	if err != nil {
		return nil, err
	}

	if err := s.skip(tokenizer.CLOSED_BRACKET, "']' or ',' expected"); err != nil {
		return nil, err
	}

	t := e.Type()

	if t.Kind() == typesys.KindArray {
		if len(args) != 1 {
			return nil, s.errorAt(errType, pos, "Indexing of multi-dimensional arrays is not supported")
		}

		index := s.promote(args[0], typesys.Int32, true)
		if index == nil {
			return nil, s.errorAt(errType, pos, "Array index must be an integer expression")
		}

		return &expr.Binary{Op: expr.ArrayIndex, Left: e, Right: index, T: t.Elem()}, nil
	}

	switch n, m := s.findIndexer(t, args); n {
	case 0:
		return nil, s.errorAt(errNoApplicable, pos, "No applicable indexer exists in type '%s'", t.Name())
	case 1:
		return &expr.Call{Target: e, Method: m, Args: args}, nil
	default:
		return nil, s.errorAt(errAmbiguous, pos, "Ambiguous invocation of indexer in type '%s'", t.Name())
	}
}

// parseArgumentList parses (args)
func (s *state) parseArgumentList() ([]expr.Node, error) {
	if err := s.skip(tokenizer.OPENED_PARENS, "'(' expected"); err != nil {
		return nil, err
	}

	var args []expr.Node

	if s.token.Type != tokenizer.CLOSED_PARENS {
		var err error
		if args, err = s.parseArguments(); err != nil {
			return nil, err
		}
	}

	if err := s.skip(tokenizer.CLOSED_PARENS, "')' or ',' expected"); err != nil {
		return nil, err
	}

	return args, nil
}

func (s *state) parseArguments() ([]expr.Node, error) {
	var args []expr.Node

	for {
		e, err := s.parseExpression()
		if err != nil {
			return nil, err
		}

		args = append(args, e)

		if s.token.Type != tokenizer.COMMA {
			return args, nil
		}

		if err := s.next(); err != nil {
			return nil, err
		}
	}
}
