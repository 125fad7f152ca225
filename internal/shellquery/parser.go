package shellquery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/askmongo/askmongo/internal/errors"
)

// Method identifies a supported MongoDB shell method.
type Method string

const (
	MethodFind           Method = "find"
	MethodAggregate      Method = "aggregate"
	MethodCount          Method = "count"
	MethodCountDocuments Method = "countDocuments"
)

// SortField is a single field/direction pair in a sort specification.
// Order matters, which is why sorts are not plain maps.
type SortField struct {
	Field     string `json:"field"`
	Direction int    `json:"direction"`
}

// Operation is a fully parsed MongoDB shell statement. Filter and
// Projection are set for find/count methods, Pipeline for aggregate.
type Operation struct {
	Collection string         `json:"collection"`
	Method     Method         `json:"method"`
	Filter     map[string]any `json:"filter,omitempty"`
	Projection map[string]any `json:"projection,omitempty"`
	Sort       []SortField    `json:"sort,omitempty"`
	Limit      *int64         `json:"limit,omitempty"`
	Pipeline   []any          `json:"pipeline,omitempty"`
}

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse converts a MongoDB shell statement of the form
// db.<collection>.<method>(<args>), with optional .sort({...}) and
// .limit(N) chains, into an Operation. It either returns a complete
// operation or a typed error, never a partial result.
func Parse(text string) (*Operation, error) {
	stmt := strings.TrimSpace(text)
	stmt = strings.TrimSuffix(stmt, ";")
	stmt = strings.TrimSpace(stmt)

	if stmt == "" {
		return nil, errors.New(errors.ErrTypeParse, "query is empty")
	}

	if !strings.HasPrefix(stmt, "db.") {
		return nil, errors.Newf(errors.ErrTypeParse, "query must start with db.: %s", snippet(stmt))
	}

	rest := stmt[len("db."):]

	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return nil, errors.New(errors.ErrTypeParse, "query is missing a method call")
	}

	collection := rest[:dot]
	if !collectionNamePattern.MatchString(collection) {
		return nil, errors.Newf(errors.ErrTypeParse, "invalid collection name %q", collection)
	}

	rest = rest[dot+1:]

	paren := strings.IndexByte(rest, '(')
	if paren < 0 {
		return nil, errors.New(errors.ErrTypeParse, "query is missing a method call")
	}

	methodName := strings.TrimSpace(rest[:paren])
	if methodName == "" {
		return nil, errors.New(errors.ErrTypeParse, "query is missing a method name")
	}

	body, next, err := scanBalanced(rest, paren)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeParse, "malformed method arguments")
	}

	op := &Operation{Collection: collection, Method: Method(methodName)}

	switch op.Method {
	case MethodFind:
		err = parseFindArgs(op, body)
	case MethodAggregate:
		err = parseAggregateArgs(op, body)
	case MethodCount, MethodCountDocuments:
		err = parseCountArgs(op, body)
	default:
		return nil, errors.Newf(errors.ErrTypeUnsupportedMethod, "unsupported method: %s", methodName)
	}

	if err != nil {
		return nil, err
	}

	if err := parseChains(op, rest[next:]); err != nil {
		return nil, err
	}

	return op, nil
}

func parseFindArgs(op *Operation, body string) error {
	if strings.TrimSpace(body) == "" {
		op.Filter = map[string]any{}
		return nil
	}

	parts, err := splitTopLevel(body)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeParse, "malformed find arguments")
	}

	if len(parts) > 2 {
		return errors.Newf(
			errors.ErrTypeParse,
			"find accepts a filter and an optional projection, got %d arguments",
			len(parts),
		)
	}

	filter, err := evalDocument(parts[0])
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeParse, "invalid find filter")
	}

	op.Filter = filter

	if len(parts) == 2 {
		projection, err := evalDocument(parts[1])
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeParse, "invalid find projection")
		}

		op.Projection = projection
	}

	return nil
}

func parseAggregateArgs(op *Operation, body string) error {
	if strings.TrimSpace(body) == "" {
		return errors.New(errors.ErrTypeParse, "aggregate requires a pipeline")
	}

	val, err := evalLiteral(body)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeParse, "invalid aggregation pipeline")
	}

	switch v := val.(type) {
	case []any:
		op.Pipeline = v
	case map[string]any:
		// A bare stage document is normalized to a one-stage pipeline.
		op.Pipeline = []any{v}
	default:
		return errors.Newf(errors.ErrTypeParse, "aggregation pipeline must be an array of stages, got %T", val)
	}

	return nil
}

func parseCountArgs(op *Operation, body string) error {
	if strings.TrimSpace(body) == "" {
		op.Filter = map[string]any{}
		return nil
	}

	filter, err := evalDocument(body)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeParse, "invalid count filter")
	}

	op.Filter = filter

	return nil
}

// parseChains consumes the .sort({...}) and .limit(N) calls that may
// follow the method body, in either order. Anything else trailing the
// statement is an error.
func parseChains(op *Operation, rest string) error {
	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return nil
		}

		if rest[0] != '.' {
			return errors.Newf(errors.ErrTypeParse, "unexpected trailing input: %s", snippet(rest))
		}

		rest = rest[1:]

		paren := strings.IndexByte(rest, '(')
		if paren < 0 {
			return errors.Newf(errors.ErrTypeParse, "malformed chained call: %s", snippet(rest))
		}

		name := strings.TrimSpace(rest[:paren])

		body, next, err := scanBalanced(rest, paren)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeParse, "malformed %s arguments", name)
		}

		switch name {
		case "sort":
			fields, err := parseSortFields(body)
			if err != nil {
				return err
			}

			op.Sort = fields
		case "limit":
			limit, err := parseLimit(body)
			if err != nil {
				return err
			}

			op.Limit = &limit
		default:
			return errors.Newf(errors.ErrTypeParse, "unsupported chained method: %s", name)
		}

		rest = rest[next:]
	}
}

func parseSortFields(body string) ([]SortField, error) {
	members, err := evalOrderedDocument(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeParse, "invalid sort specification")
	}

	fields := make([]SortField, 0, len(members))

	for _, m := range members {
		dir, ok := sortDirection(m.value)
		if !ok {
			return nil, errors.Newf(errors.ErrTypeParse, "sort direction for %q must be 1 or -1", m.key)
		}

		fields = append(fields, SortField{Field: m.key, Direction: dir})
	}

	return fields, nil
}

func sortDirection(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		if n == 1 || n == -1 {
			return int(n), true
		}
	case float64:
		if n == 1 || n == -1 {
			return int(n), true
		}
	}

	return 0, false
}

func parseLimit(body string) (int64, error) {
	text := strings.TrimSpace(body)

	limit, err := strconv.ParseInt(text, 10, 64)
	if err != nil || limit < 0 {
		return 0, errors.Newf(errors.ErrTypeParse, "limit must be a non-negative integer, got %q", text)
	}

	return limit, nil
}

// scanBalanced extracts the argument body of a call, starting at the
// opening parenthesis. It returns the text between the outer
// parentheses and the index just past the closing one. Brackets inside
// string literals do not affect nesting depth.
func scanBalanced(s string, open int) (string, int, error) {
	depth := 0

	i := open
	for i < len(s) {
		switch s[i] {
		case '\'', '"':
			end, err := skipString(s, i)
			if err != nil {
				return "", 0, err
			}

			i = end

			continue
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return s[open+1 : i], i + 1, nil
			}

			if depth < 0 {
				return "", 0, fmt.Errorf("unbalanced brackets at position %d", i)
			}
		}

		i++
	}

	return "", 0, fmt.Errorf("unterminated method arguments")
}

// skipString advances past a quoted string literal, honoring backslash
// escapes, and returns the index just past the closing quote.
func skipString(s string, start int) (int, error) {
	quote := s[start]

	i := start + 1
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1, nil
		}

		i++
	}

	return 0, fmt.Errorf("unterminated string starting at position %d", start)
}

// splitTopLevel splits s on commas that sit outside all brackets and
// string literals.
func splitTopLevel(s string) ([]string, error) {
	var parts []string

	depth := 0
	start := 0

	i := 0
	for i < len(s) {
		switch s[i] {
		case '\'', '"':
			end, err := skipString(s, i)
			if err != nil {
				return nil, err
			}

			i = end

			continue
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}

		i++
	}

	return append(parts, s[start:]), nil
}

func snippet(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}

	return s
}
