package shellquery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The literal evaluator accepts the JSON superset that appears in shell
// statements: single- or double-quoted strings, bare object keys
// (including operator keys like $gt and dotted paths), and the
// whitelisted ObjectId / ISODate constructor forms. It never executes
// anything.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLeftBrace
	tokRightBrace
	tokLeftBracket
	tokRightBracket
	tokLeftParen
	tokRightParen
	tokColon
	tokComma
	tokString
	tokNumber
	tokIdent
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var newDatePattern = regexp.MustCompile(`new\s+Date\s*\(`)

// normalizeLiteral rewrites constructor aliases to their canonical form
// before lexing.
func normalizeLiteral(src string) string {
	return newDatePattern.ReplaceAllString(src, "ISODate(")
}

func evalLiteral(src string) (any, error) {
	p, err := newLiteralParser(src)
	if err != nil {
		return nil, err
	}

	val, err := p.value()
	if err != nil {
		return nil, err
	}

	return val, p.expectEOF()
}

func evalDocument(src string) (map[string]any, error) {
	val, err := evalLiteral(src)
	if err != nil {
		return nil, err
	}

	doc, ok := val.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a document, got %T", val)
	}

	return doc, nil
}

// evalOrderedDocument parses an object while preserving member order.
// Sort specifications need this because {year: -1, title: 1} is not the
// same sort as {title: 1, year: -1}.
func evalOrderedDocument(src string) ([]objectMember, error) {
	p, err := newLiteralParser(src)
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.kind != tokLeftBrace {
		return nil, fmt.Errorf("expected a document at position %d", t.pos)
	}

	members, err := p.members()
	if err != nil {
		return nil, err
	}

	return members, p.expectEOF()
}

type objectMember struct {
	key   string
	value any
}

type literalParser struct {
	toks []token
	pos  int
}

func newLiteralParser(src string) (*literalParser, error) {
	toks, err := lexLiteral(normalizeLiteral(src))
	if err != nil {
		return nil, err
	}

	return &literalParser{toks: toks}, nil
}

func (p *literalParser) peek() token {
	return p.toks[p.pos]
}

func (p *literalParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}

	return t
}

func (p *literalParser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return token{}, fmt.Errorf("expected %s at position %d", what, t.pos)
	}

	return t, nil
}

func (p *literalParser) expectEOF() error {
	if t := p.peek(); t.kind != tokEOF {
		return fmt.Errorf("unexpected trailing input at position %d", t.pos)
	}

	return nil
}

func (p *literalParser) value() (any, error) {
	t := p.peek()

	switch t.kind {
	case tokLeftBrace:
		members, err := p.members()
		if err != nil {
			return nil, err
		}

		doc := make(map[string]any, len(members))
		for _, m := range members {
			doc[m.key] = m.value
		}

		return doc, nil
	case tokLeftBracket:
		return p.array()
	case tokString:
		p.next()
		return t.text, nil
	case tokNumber:
		p.next()
		return parseNumber(t.text)
	case tokIdent:
		return p.identValue()
	default:
		return nil, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
}

func (p *literalParser) identValue() (any, error) {
	t := p.next()

	switch t.text {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	case "null", "None":
		return nil, nil
	case "ObjectId", "ISODate":
		return p.constructor(t.text)
	default:
		return nil, fmt.Errorf("unexpected identifier %q at position %d", t.text, t.pos)
	}
}

// constructor parses the whitelisted forms ObjectId("...") and
// ISODate("..."). Every other call-like form is rejected, which is what
// keeps $where-style payloads out of parsed operations.
func (p *literalParser) constructor(name string) (any, error) {
	if _, err := p.expect(tokLeftParen, fmt.Sprintf("'(' after %s", name)); err != nil {
		return nil, err
	}

	arg, err := p.expect(tokString, fmt.Sprintf("string argument to %s", name))
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokRightParen, fmt.Sprintf("')' after %s argument", name)); err != nil {
		return nil, err
	}

	if name == "ObjectId" {
		id, err := primitive.ObjectIDFromHex(arg.text)
		if err != nil {
			return nil, fmt.Errorf("invalid ObjectId %q: expected a 24 character hex string", arg.text)
		}

		return id, nil
	}

	return parseISODate(arg.text)
}

func (p *literalParser) members() ([]objectMember, error) {
	if _, err := p.expect(tokLeftBrace, "'{'"); err != nil {
		return nil, err
	}

	var members []objectMember

	if p.peek().kind == tokRightBrace {
		p.next()
		return members, nil
	}

	for {
		keyTok := p.next()
		if keyTok.kind != tokString && keyTok.kind != tokIdent {
			return nil, fmt.Errorf("expected object key at position %d", keyTok.pos)
		}

		if _, err := p.expect(tokColon, "':' after object key"); err != nil {
			return nil, err
		}

		val, err := p.value()
		if err != nil {
			return nil, err
		}

		members = append(members, objectMember{key: keyTok.text, value: val})

		sep := p.next()
		if sep.kind == tokComma {
			// Tolerate a trailing comma before the closing brace.
			if p.peek().kind == tokRightBrace {
				p.next()
				return members, nil
			}

			continue
		}

		if sep.kind == tokRightBrace {
			return members, nil
		}

		return nil, fmt.Errorf("expected ',' or '}' at position %d", sep.pos)
	}
}

func (p *literalParser) array() ([]any, error) {
	if _, err := p.expect(tokLeftBracket, "'['"); err != nil {
		return nil, err
	}

	items := []any{}

	if p.peek().kind == tokRightBracket {
		p.next()
		return items, nil
	}

	for {
		val, err := p.value()
		if err != nil {
			return nil, err
		}

		items = append(items, val)

		sep := p.next()
		if sep.kind == tokComma {
			if p.peek().kind == tokRightBracket {
				p.next()
				return items, nil
			}

			continue
		}

		if sep.kind == tokRightBracket {
			return items, nil
		}

		return nil, fmt.Errorf("expected ',' or ']' at position %d", sep.pos)
	}
}

func lexLiteral(src string) ([]token, error) {
	var toks []token

	i := 0
	for i < len(src) {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '{':
			toks = append(toks, token{tokLeftBrace, "{", i})
			i++
		case c == '}':
			toks = append(toks, token{tokRightBrace, "}", i})
			i++
		case c == '[':
			toks = append(toks, token{tokLeftBracket, "[", i})
			i++
		case c == ']':
			toks = append(toks, token{tokRightBracket, "]", i})
			i++
		case c == '(':
			toks = append(toks, token{tokLeftParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRightParen, ")", i})
			i++
		case c == ':':
			toks = append(toks, token{tokColon, ":", i})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case c == '\'' || c == '"':
			text, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}

			toks = append(toks, token{tokString, text, i})
			i = next
		case c == '-' || isDigit(c):
			text, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}

			toks = append(toks, token{tokNumber, text, i})
			i = next
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}

			toks = append(toks, token{tokIdent, src[start:i], start})
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", c, i)
		}
	}

	toks = append(toks, token{tokEOF, "", len(src)})

	return toks, nil
}

// lexString decodes a single- or double-quoted string literal. Unknown
// escapes keep the escaped character, matching shell behavior rather
// than strict JSON.
func lexString(src string, start int) (string, int, error) {
	quote := src[start]

	var b strings.Builder

	i := start + 1
	for i < len(src) {
		c := src[i]

		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\':
			if i+1 >= len(src) {
				return "", 0, fmt.Errorf("unterminated escape at position %d", i)
			}

			switch esc := src[i+1]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if i+6 > len(src) {
					return "", 0, fmt.Errorf("invalid unicode escape at position %d", i)
				}

				code, err := strconv.ParseUint(src[i+2:i+6], 16, 32)
				if err != nil {
					return "", 0, fmt.Errorf("invalid unicode escape at position %d", i)
				}

				b.WriteRune(rune(code))
				i += 6

				continue
			default:
				b.WriteByte(esc)
			}

			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}

	return "", 0, fmt.Errorf("unterminated string starting at position %d", start)
}

func lexNumber(src string, start int) (string, int, error) {
	i := start
	if src[i] == '-' {
		i++
	}

	digits := 0
	for i < len(src) && isDigit(src[i]) {
		i++
		digits++
	}

	if digits == 0 {
		return "", 0, fmt.Errorf("invalid number at position %d", start)
	}

	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}

	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		i++
		if i < len(src) && (src[i] == '+' || src[i] == '-') {
			i++
		}

		expDigits := 0
		for i < len(src) && isDigit(src[i]) {
			i++
			expDigits++
		}

		if expDigits == 0 {
			return "", 0, fmt.Errorf("invalid exponent at position %d", start)
		}
	}

	return src[start:i], i, nil
}

func parseNumber(text string) (any, error) {
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}

	return f, nil
}

var isoDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseISODate accepts RFC 3339 timestamps, offset-free timestamps, and
// bare dates. Offset-free values are taken as UTC.
func parseISODate(value string) (time.Time, error) {
	for _, layout := range isoDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid ISODate %q", value)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '$' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.'
}
