package shellquery

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var bareKeyPattern = regexp.MustCompile(`^[$A-Za-z_][$A-Za-z0-9_.]*$`)

// Render produces the canonical shell form of an operation. Object keys
// are emitted in sorted order so equal operations render identically,
// and the output parses back to an equivalent operation.
func Render(op *Operation) string {
	var b strings.Builder

	b.WriteString("db.")
	b.WriteString(op.Collection)
	b.WriteByte('.')
	b.WriteString(string(op.Method))
	b.WriteByte('(')

	if op.Method == MethodAggregate {
		writeValue(&b, pipelineValue(op.Pipeline))
	} else {
		writeValue(&b, op.Filter)

		if op.Projection != nil {
			b.WriteString(", ")
			writeValue(&b, op.Projection)
		}
	}

	b.WriteByte(')')

	if len(op.Sort) > 0 {
		b.WriteString(".sort({")

		for i, f := range op.Sort {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(renderKey(f.Field))
			b.WriteString(": ")
			b.WriteString(strconv.Itoa(f.Direction))
		}

		b.WriteString("})")
	}

	if op.Limit != nil {
		fmt.Fprintf(&b, ".limit(%d)", *op.Limit)
	}

	return b.String()
}

func pipelineValue(pipeline []any) []any {
	if pipeline == nil {
		return []any{}
	}

	return pipeline
}

func writeValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case string:
		b.WriteString(strconv.Quote(val))
	case int:
		b.WriteString(strconv.Itoa(val))
	case int32:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case float64:
		s := strconv.FormatFloat(val, 'g', -1, 64)
		// Keep a decimal point so the value re-parses as a float.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}

		b.WriteString(s)
	case primitive.ObjectID:
		fmt.Fprintf(b, "ObjectId(%q)", val.Hex())
	case time.Time:
		fmt.Fprintf(b, "ISODate(%q)", val.UTC().Format(time.RFC3339Nano))
	case []any:
		b.WriteByte('[')

		for i, item := range val {
			if i > 0 {
				b.WriteString(", ")
			}

			writeValue(b, item)
		}

		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		b.WriteByte('{')

		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(renderKey(k))
			b.WriteString(": ")
			writeValue(b, val[k])
		}

		b.WriteByte('}')
	default:
		fmt.Fprintf(b, "%v", val)
	}
}

func renderKey(k string) string {
	if bareKeyPattern.MatchString(k) {
		return k
	}

	return strconv.Quote(k)
}

// Clean extracts a MongoDB shell statement from raw model output. It
// strips markdown fences, finds the first line starting with db., and
// scans through the end of the chained statement, discarding any
// surrounding prose. When no statement is found, the stripped text is
// returned for the parser to reject.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.Contains(text, "```") {
		text = stripFences(text)
	}

	start := statementStart(text)
	if start < 0 {
		return strings.TrimSpace(text)
	}

	stmt := text[start:]

	return strings.TrimSpace(stmt[:statementEnd(stmt)])
}

// stripFences returns the body of the first fenced code block. Fence
// language tags (```javascript, ```mongodb, ...) sit on the fence line
// and are discarded with it. When the fences carry no content, only the
// fence markers are removed.
func stripFences(text string) string {
	lines := strings.Split(text, "\n")

	var inner []string

	inFence := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inFence {
				break
			}

			inFence = true

			continue
		}

		if inFence {
			inner = append(inner, line)
		}
	}

	if len(inner) > 0 {
		return strings.Join(inner, "\n")
	}

	var kept []string

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}

		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

func statementStart(text string) int {
	offset := 0

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "db.") {
			return offset + len(line) - len(trimmed)
		}

		offset += len(line) + 1
	}

	return -1
}

// statementEnd finds the index just past the end of the shell statement
// at the start of stmt: the method call body plus any .sort/.limit
// chains, which may span multiple lines.
func statementEnd(stmt string) int {
	paren := strings.IndexByte(stmt, '(')
	if paren < 0 {
		if nl := strings.IndexByte(stmt, '\n'); nl >= 0 {
			return nl
		}

		return len(stmt)
	}

	_, end, err := scanBalanced(stmt, paren)
	if err != nil {
		return len(stmt)
	}

	for {
		rest := stmt[end:]

		i := end + len(rest) - len(strings.TrimLeft(rest, " \t\r\n"))
		if i >= len(stmt) || stmt[i] != '.' {
			return end
		}

		p := strings.IndexByte(stmt[i:], '(')
		if p < 0 {
			return end
		}

		name := strings.TrimSpace(stmt[i+1 : i+p])
		if name != "sort" && name != "limit" {
			return end
		}

		_, chainEnd, err := scanBalanced(stmt[i:], p)
		if err != nil {
			return end
		}

		end = i + chainEnd
	}
}
