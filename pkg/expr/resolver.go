package expr

import (
	"fmt"
	"regexp"
	"strings"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/flowcore/engine/pkg/models"
)

// referencePattern matches a $input/$nodes/$vars reference anywhere it
// occurs, including inside a {{ ... }} expression. Node and variable
// names may contain hyphens (workflow IDs commonly do), so the segment
// class is wider than a bare Go identifier.
var referencePattern = regexp.MustCompile(`\$(input|nodes|vars)((?:\.[A-Za-z0-9_-]+|\[\d+\])*)`)

var wholeReferencePattern = regexp.MustCompile(`^` + referencePattern.String() + `$`)

// templatePattern finds {{ ... }} occurrences; expressions never contain
// a literal "}}" themselves so the non-greedy match is safe.
var templatePattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)

var wholeTemplatePattern = regexp.MustCompile(`(?s)^\{\{(.*)\}\}$`)

// Resolver renders template strings and typed references against a Scope.
// It is safe for concurrent use: the only mutable state is the compiled
// program cache, which is internally synchronized.
type Resolver struct {
	cache *programCache
}

// NewResolver returns a Resolver with a default-sized compiled-program cache.
func NewResolver() *Resolver {
	return &Resolver{cache: newProgramCache(512)}
}

// Resolve walks a parameter tree (maps, slices, scalars) and replaces
// every template/reference string leaf with its resolved value. The
// shape of the tree is preserved.
func (r *Resolver) Resolve(value interface{}, scope Scope) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, child := range v {
			resolved, err := r.Resolve(child, scope)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, child := range v {
			resolved, err := r.Resolve(child, scope)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		return r.resolveString(v, scope)
	default:
		return value, nil
	}
}

func (r *Resolver) resolveString(s string, scope Scope) (interface{}, error) {
	trimmed := strings.TrimSpace(s)

	if m := wholeTemplatePattern.FindStringSubmatch(trimmed); m != nil {
		return r.evalExpr(m[1], scope)
	}

	if matches := templatePattern.FindAllStringSubmatchIndex(s, -1); len(matches) > 0 {
		var sb strings.Builder
		last := 0
		for _, m := range matches {
			sb.WriteString(s[last:m[0]])
			exprText := s[m[2]:m[3]]
			val, err := r.evalExpr(exprText, scope)
			if err != nil {
				return nil, err
			}
			sb.WriteString(stringify(val))
			last = m[1]
		}
		sb.WriteString(s[last:])
		return sb.String(), nil
	}

	if wholeReferencePattern.MatchString(trimmed) {
		val, _ := r.resolveReference(trimmed, scope)
		return val, nil
	}

	return s, nil
}

// EvaluateCondition evaluates a bare expression string (no surrounding
// {{ }} required, though tolerated) and coerces the result to bool. An
// empty string is falsy by definition; missing
// data never produces an error, only a genuine parse/type failure does.
func (r *Resolver) EvaluateCondition(exprText string, scope Scope) (bool, error) {
	trimmed := strings.TrimSpace(exprText)
	if trimmed == "" {
		return false, nil
	}
	if m := wholeTemplatePattern.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}

	val, err := r.evalExpr(trimmed, scope)
	if err != nil {
		return false, err
	}
	return truthy(val), nil
}

// evalExpr compiles (or fetches from cache) exprText and runs it against
// a freshly bound env. The cache key is the original, pre-rewrite text;
// placeholder names are regenerated deterministically from that same
// text on every call, so a cache hit and a cache miss produce identical
// env shapes.
func (r *Resolver) evalExpr(exprText string, scope Scope) (interface{}, error) {
	exprText = strings.TrimSpace(exprText)

	rewritten, placeholders := rewriteReferences(exprText)

	program, ok := r.cache.get(exprText)
	if !ok {
		env := make(map[string]interface{}, len(placeholders))
		for name := range placeholders {
			env[name] = nil
		}

		compiled, err := exprlang.Compile(rewritten, exprlang.Env(env), exprlang.AllowUndefinedVariables())
		if err != nil {
			return nil, &models.ExpressionError{Expression: exprText, Err: err}
		}
		r.cache.put(exprText, compiled)
		program = compiled
	}

	env := make(map[string]interface{}, len(placeholders))
	for name, ref := range placeholders {
		val, _ := r.resolveReference(ref, scope)
		env[name] = val
	}

	out, err := vm.Run(program, env)
	if err != nil {
		return nil, &models.ExpressionError{Expression: exprText, Err: err}
	}
	return out, nil
}

// rewriteReferences replaces every $input/$nodes/$vars occurrence in
// exprText with a synthetic identifier expr-lang can parse, returning the
// rewritten text and a map from identifier back to the original
// reference string.
func rewriteReferences(exprText string) (string, map[string]string) {
	placeholders := make(map[string]string)
	count := 0

	rewritten := referencePattern.ReplaceAllStringFunc(exprText, func(ref string) string {
		name := fmt.Sprintf("__ref%d", count)
		count++
		placeholders[name] = ref
		return name
	})

	return rewritten, placeholders
}

func (r *Resolver) resolveReference(ref string, scope Scope) (interface{}, bool) {
	m := referencePattern.FindStringSubmatch(ref)
	if m == nil {
		return nil, false
	}
	scheme, rest := m[1], m[2]
	segments := splitPath(rest)

	switch scheme {
	case "input":
		return traversePath(toInterfaceMap(scope.Input()), segments)
	case "vars":
		if len(segments) == 0 {
			return nil, false
		}
		val, ok := scope.Variable(segments[0])
		if !ok {
			return nil, false
		}
		return traversePath(val, segments[1:])
	case "nodes":
		if len(segments) == 0 {
			return nil, false
		}
		output, ok := scope.NodeOutput(segments[0])
		if !ok {
			return nil, false
		}
		return traversePath(toInterfaceMap(output), segments[1:])
	default:
		return nil, false
	}
}

func toInterfaceMap(m map[string]interface{}) interface{} {
	if m == nil {
		return nil
	}
	return m
}
