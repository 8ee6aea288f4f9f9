package parser

import (
	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/typesys"
)

// methodData is a candidate during overload resolution together with the
// arguments promoted to its parameter types
type methodData struct {
	index  int
	params []*typesys.Type
	args   []expr.Node
}

// findBest selects the best candidate for args among the given parameter lists.
// It returns the number of best candidates; when exactly one remains its index is
// returned and args is rewritten in place with the promoted arguments.
func (s *state) findBest(candidates [][]*typesys.Type, args []expr.Node) (int, int) {
	var applicable []*methodData

	for i, params := range candidates {
		if md, ok := s.applicable(i, params, args); ok {
			applicable = append(applicable, md)
		}
	}

	if len(applicable) > 1 {
		var best []*methodData

		for _, m := range applicable {
			if betterThanAll(args, m, applicable) {
				best = append(best, m)
			}
		}

		applicable = best
	}

	if len(applicable) != 1 {
		return len(applicable), -1
	}

	copy(args, applicable[0].args)

	return 1, applicable[0].index
}

func (s *state) applicable(index int, params []*typesys.Type, args []expr.Node) (*methodData, bool) {
	if len(params) != len(args) {
		return nil, false
	}

	promoted := make([]expr.Node, len(args))

	for i, arg := range args {
		p := s.promote(arg, params[i], false)
		if p == nil {
			return nil, false
		}

		promoted[i] = p
	}

	return &methodData{index: index, params: params, args: promoted}, true
}

func betterThanAll(args []expr.Node, m *methodData, all []*methodData) bool {
	for _, n := range all {
		if n != m && !isBetterThan(args, m, n) {
			return false
		}
	}

	return true
}

// isBetterThan reports whether m1 is at least as good as m2 for every argument and better for one
func isBetterThan(args []expr.Node, m1, m2 *methodData) bool {
	better := false

	for i, arg := range args {
		switch typesys.CompareConversions(arg.Type(), m1.params[i], m2.params[i]) {
		case -1:
			return false
		case 1:
			better = true
		}
	}

	return better
}

// findSignature resolves an operator or aggregate against a signature family
func (s *state) findSignature(family typesys.Family, name string, args []expr.Node) (int, *typesys.Signature) {
	signatures := typesys.SignaturesNamed(family, name)

	candidates := make([][]*typesys.Type, len(signatures))
	for i, sig := range signatures {
		candidates[i] = sig.Params
	}

	n, best := s.findBest(candidates, args)
	if n != 1 {
		return n, nil
	}

	return 1, &signatures[best]
}

// findBestMethod resolves a call among methods, constructors or indexers
func (s *state) findBestMethod(methods []*typesys.Method, args []expr.Node) (int, *typesys.Method) {
	candidates := make([][]*typesys.Type, len(methods))
	for i, m := range methods {
		candidates[i] = m.Params
	}

	n, best := s.findBest(candidates, args)
	if n != 1 {
		return n, nil
	}

	return 1, methods[best]
}

// findMethod searches the member groups of t from the most derived type outwards
// and resolves within the first group that has an applicable method
func (s *state) findMethod(t *typesys.Type, name string, static bool, args []expr.Node) (int, *typesys.Method) {
	for _, group := range s.catalog.FindMethods(t, name, static) {
		if n, m := s.findBestMethod(group, args); n != 0 {
			return n, m
		}
	}

	return 0, nil
}

// findIndexer resolves an indexer the way findMethod resolves methods
func (s *state) findIndexer(t *typesys.Type, args []expr.Node) (int, *typesys.Method) {
	for _, group := range s.catalog.FindIndexers(t) {
		if n, m := s.findBestMethod(group, args); n != 0 {
			return n, m
		}
	}

	return 0, nil
}
