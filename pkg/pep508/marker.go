// Package pep508 implements PEP 508 dependency specification parsing:
// requirement lines ("requests[socks]>=2.0; python_version < '3.8'") and
// the environment marker expression language used to gate requirements on
// platform and interpreter properties.
package pep508

import (
	"fmt"
	"strings"

	"github.com/umarmnaq/pipenv/pkg/pep440"
)

// Marker is a parsed environment marker expression.
type Marker struct {
	root markerNode
	text string
}

// ParseMarker parses a marker expression. The empty string is rejected;
// callers representing "no marker" should use a nil *Marker.
func ParseMarker(s string) (*Marker, error) {
	p := &markerParser{tokens: lexMarker(s)}
	root, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("invalid marker %q: %w", s, err)
	}
	if !p.eof() {
		return nil, fmt.Errorf("invalid marker %q: trailing input at %q", s, p.peek().text)
	}
	return &Marker{root: root, text: strings.TrimSpace(s)}, nil
}

// String returns the marker in canonical single-spaced form.
func (m *Marker) String() string { return m.root.render() }

// Evaluate reports whether the marker holds in the given environment.
// Unknown variables evaluate as empty strings, matching pip's behavior of
// treating missing marker variables permissively in string comparisons.
func (m *Marker) Evaluate(env Environment) bool { return m.root.eval(env) }

// markerNode is a node of the boolean expression tree.
type markerNode interface {
	eval(env Environment) bool
	render() string
}

type orNode struct{ left, right markerNode }

func (n orNode) eval(env Environment) bool { return n.left.eval(env) || n.right.eval(env) }
func (n orNode) render() string            { return n.left.render() + " or " + n.right.render() }

type andNode struct{ left, right markerNode }

func (n andNode) eval(env Environment) bool { return n.left.eval(env) && n.right.eval(env) }

func (n andNode) render() string {
	return parenthesize(n.left) + " and " + parenthesize(n.right)
}

// parenthesize wraps or-expressions appearing under an and-node so the
// canonical form round-trips with the same precedence.
func parenthesize(n markerNode) string {
	if _, ok := n.(orNode); ok {
		return "(" + n.render() + ")"
	}
	return n.render()
}

// groupNode preserves explicit parentheses from the source expression.
type groupNode struct{ inner markerNode }

func (n groupNode) eval(env Environment) bool { return n.inner.eval(env) }
func (n groupNode) render() string            { return "(" + n.inner.render() + ")" }

// cmpNode is a single comparison: variable-or-literal op variable-or-literal.
type cmpNode struct {
	left  markerValue
	op    string
	right markerValue
}

func (n cmpNode) render() string {
	return n.left.render() + " " + n.op + " " + n.right.render()
}

func (n cmpNode) eval(env Environment) bool {
	lhs := n.left.resolve(env)
	rhs := n.right.resolve(env)

	switch n.op {
	case "in":
		return strings.Contains(rhs, lhs)
	case "not in":
		return !strings.Contains(rhs, lhs)
	case "===":
		return lhs == rhs
	}

	// Version-valued variables compare under PEP 440 when both sides parse.
	if n.left.versionVar() || n.right.versionVar() {
		lv, lerr := pep440.Parse(lhs)
		rv, rerr := pep440.Parse(rhs)
		if lerr == nil && rerr == nil {
			return compareInts(lv.Compare(rv), n.op)
		}
	}

	return compareStrings(lhs, rhs, n.op)
}

func compareInts(c int, op string) bool {
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	case "~=":
		return c >= 0 // approximated; full semantics live in pep440.Specifier
	}
	return false
}

func compareStrings(lhs, rhs, op string) bool {
	switch op {
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	case "<":
		return lhs < rhs
	case "<=":
		return lhs <= rhs
	case ">":
		return lhs > rhs
	case ">=":
		return lhs >= rhs
	}
	return false
}

// markerValue is one side of a comparison: a marker variable or a quoted
// string literal.
type markerValue struct {
	text    string
	literal bool
}

func (v markerValue) resolve(env Environment) string {
	if v.literal {
		return v.text
	}
	return env.Lookup(v.text)
}

func (v markerValue) render() string {
	if v.literal {
		return "'" + v.text + "'"
	}
	return v.text
}

// versionVariables are the marker variables whose comparisons use the
// PEP 440 ordering rather than plain string ordering.
var versionVariables = map[string]bool{
	"python_version":         true,
	"python_full_version":    true,
	"implementation_version": true,
	"platform_version":       false, // free-form text on most platforms
}

func (v markerValue) versionVar() bool {
	return !v.literal && versionVariables[v.text]
}

// knownVariables lists every variable name admitted by the PEP 508 marker
// grammar (the deprecated dotted spellings are normalized by the lexer).
var knownVariables = map[string]bool{
	"os_name":                        true,
	"sys_platform":                   true,
	"platform_machine":               true,
	"platform_python_implementation": true,
	"platform_release":               true,
	"platform_system":                true,
	"platform_version":               true,
	"python_version":                 true,
	"python_full_version":            true,
	"implementation_name":            true,
	"implementation_version":         true,
	"extra":                          true,
}

// markerParser is a recursive-descent parser over the token stream.
type markerParser struct {
	tokens []markerToken
	pos    int
}

func (p *markerParser) peek() markerToken {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return markerToken{kind: tokenEOF}
}

func (p *markerParser) next() markerToken {
	t := p.peek()
	p.pos++
	return t
}

func (p *markerParser) eof() bool { return p.peek().kind == tokenEOF }

func (p *markerParser) parseOr() (markerNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenWord && p.peek().text == "or" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *markerParser) parseAnd() (markerNode, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenWord && p.peek().text == "and" {
		p.next()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *markerParser) parseAtom() (markerNode, error) {
	if p.peek().kind == tokenLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenRParen {
			return nil, fmt.Errorf("expected closing parenthesis")
		}
		p.next()
		return groupNode{inner: inner}, nil
	}
	return p.parseComparison()
}

func (p *markerParser) parseComparison() (markerNode, error) {
	left, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	op, err := p.parseOp()
	if err != nil {
		return nil, err
	}

	right, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	return cmpNode{left: left, op: op, right: right}, nil
}

func (p *markerParser) parseValue() (markerValue, error) {
	t := p.next()
	switch t.kind {
	case tokenString:
		return markerValue{text: t.text, literal: true}, nil
	case tokenWord:
		if !knownVariables[t.text] {
			return markerValue{}, fmt.Errorf("unknown marker variable %q", t.text)
		}
		return markerValue{text: t.text}, nil
	default:
		return markerValue{}, fmt.Errorf("expected variable or string, got %q", t.text)
	}
}

// validOps are the comparison operators admitted by the marker grammar.
var validOps = map[string]bool{
	"==": true, "!=": true, "<=": true, ">=": true,
	"<": true, ">": true, "~=": true, "===": true,
}

func (p *markerParser) parseOp() (string, error) {
	t := p.next()
	switch t.kind {
	case tokenOp:
		if !validOps[t.text] {
			return "", fmt.Errorf("invalid operator %q", t.text)
		}
		return t.text, nil
	case tokenWord:
		switch t.text {
		case "in":
			return "in", nil
		case "not":
			if n := p.next(); n.kind == tokenWord && n.text == "in" {
				return "not in", nil
			}
			return "", fmt.Errorf(`expected "in" after "not"`)
		}
	}
	return "", fmt.Errorf("expected comparison operator, got %q", t.text)
}

// Token kinds produced by the marker lexer.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenWord
	tokenString
	tokenOp
	tokenLParen
	tokenRParen
	tokenInvalid
)

type markerToken struct {
	kind tokenKind
	text string
}

// dottedAliases normalizes the deprecated dotted variable spellings that
// PEP 508 still requires tools to accept.
var dottedAliases = map[string]string{
	"os.name":                 "os_name",
	"sys.platform":            "sys_platform",
	"platform.machine":        "platform_machine",
	"platform.version":        "platform_version",
	"platform.python_version": "python_version",
}

func lexMarker(s string) []markerToken {
	var tokens []markerToken
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, markerToken{tokenLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, markerToken{tokenRParen, ")"})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				tokens = append(tokens, markerToken{tokenInvalid, s[i:]})
				return tokens
			}
			tokens = append(tokens, markerToken{tokenString, s[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			j := i
			for j < len(s) && strings.ContainsRune("<>=!~", rune(s[j])) {
				j++
			}
			tokens = append(tokens, markerToken{tokenOp, s[i:j]})
			i = j
		case isWordByte(c):
			j := i
			for j < len(s) && (isWordByte(s[j]) || s[j] == '.') {
				j++
			}
			word := s[i:j]
			if alias, ok := dottedAliases[word]; ok {
				word = alias
			}
			tokens = append(tokens, markerToken{tokenWord, word})
			i = j
		default:
			tokens = append(tokens, markerToken{tokenInvalid, string(c)})
			i++
		}
	}
	return tokens
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
