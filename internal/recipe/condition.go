package recipe

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The condition DSL: a three-token tokenizer (literal, identifier,
// operator) feeding a precedence-climbing parser, with precedence
// || < && < ! < comparisons < property/index/call. Equality is
// deliberately coercive (both sides compared by string form) to match
// the source ecosystem; relational operators require both sides
// numeric.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func tokenize(input string) ([]token, error) {
	var toks []token
	i, n := 0, len(input)
	for i < n {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			var b strings.Builder
			for j < n && input[j] != quote {
				if input[j] == '\\' && j+1 < n {
					j++
				}
				b.WriteByte(input[j])
				j++
			}
			if j >= n {
				return nil, fmt.Errorf("condition: unterminated string at offset %d", i)
			}
			toks = append(toks, token{kind: tokString, text: b.String()})
			i = j + 1
		case c >= '0' && c <= '9' || (c == '-' && i+1 < n && input[i+1] >= '0' && input[i+1] <= '9' && expectsOperand(toks)):
			j := i + 1
			for j < n && (input[j] >= '0' && input[j] <= '9' || input[j] == '.') {
				j++
			}
			f, err := strconv.ParseFloat(input[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("condition: bad number %q", input[i:j])
			}
			toks = append(toks, token{kind: tokNumber, text: input[i:j], num: f})
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < n && isIdentPart(input[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: input[i:j]})
			i = j
		default:
			op, ok := matchOperator(input[i:])
			if !ok {
				return nil, fmt.Errorf("condition: unexpected character %q at offset %d", c, i)
			}
			toks = append(toks, token{kind: tokOp, text: op})
			i += len(op)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

var operators = []string{"||", "&&", "<=", ">=", "==", "!=", "!", "<", ">", "(", ")", "[", "]", ".", ","}

func matchOperator(rest string) (string, bool) {
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			return op, true
		}
	}
	return "", false
}

// expectsOperand reports whether a '-' at the current position starts a
// negative literal (rather than being part of an identifier value the
// tokenizer never produces: there is no binary minus in this DSL).
func expectsOperand(toks []token) bool {
	if len(toks) == 0 {
		return true
	}
	last := toks[len(toks)-1]
	return last.kind == tokOp && last.text != ")" && last.text != "]"
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) next() token  { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) acceptOp(op string) bool {
	if t := p.peek(); t.kind == tokOp && t.text == op {
		p.pos++
		return true
	}
	return false
}

// node is a parsed condition expression, evaluated against the
// variable environment.
type node interface {
	eval(env map[string]interface{}) (interface{}, error)
}

type literalNode struct{ value interface{} }

func (l literalNode) eval(map[string]interface{}) (interface{}, error) { return l.value, nil }

type identNode struct{ name string }

func (id identNode) eval(env map[string]interface{}) (interface{}, error) {
	switch id.name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	v, ok := env[id.name]
	if !ok {
		return nil, fmt.Errorf("condition: unknown identifier %q", id.name)
	}
	return v, nil
}

type notNode struct{ operand node }

func (u notNode) eval(env map[string]interface{}) (interface{}, error) {
	v, err := u.operand.eval(env)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

type logicalNode struct {
	op          string // "||" | "&&"
	left, right node
}

func (l logicalNode) eval(env map[string]interface{}) (interface{}, error) {
	lv, err := l.left.eval(env)
	if err != nil {
		return nil, err
	}
	// Short-circuit.
	if l.op == "||" && truthy(lv) {
		return true, nil
	}
	if l.op == "&&" && !truthy(lv) {
		return false, nil
	}
	rv, err := l.right.eval(env)
	if err != nil {
		return nil, err
	}
	return truthy(rv), nil
}

type compareNode struct {
	op          string
	left, right node
}

func (c compareNode) eval(env map[string]interface{}) (interface{}, error) {
	lv, err := c.left.eval(env)
	if err != nil {
		return nil, err
	}
	rv, err := c.right.eval(env)
	if err != nil {
		return nil, err
	}
	switch c.op {
	case "==":
		return stringForm(lv) == stringForm(rv), nil
	case "!=":
		return stringForm(lv) != stringForm(rv), nil
	}
	ln, lok := toNumber(lv)
	rn, rok := toNumber(rv)
	if !lok || !rok {
		return nil, fmt.Errorf("condition: %s requires numeric operands, got %v and %v", c.op, lv, rv)
	}
	switch c.op {
	case "<":
		return ln < rn, nil
	case ">":
		return ln > rn, nil
	case "<=":
		return ln <= rn, nil
	case ">=":
		return ln >= rn, nil
	}
	return nil, fmt.Errorf("condition: unknown operator %q", c.op)
}

type propertyNode struct {
	object node
	name   string
}

func (p propertyNode) eval(env map[string]interface{}) (interface{}, error) {
	v, err := p.object.eval(env)
	if err != nil {
		return nil, err
	}
	if p.name == "length" || p.name == "count" {
		switch t := v.(type) {
		case string:
			return float64(len(t)), nil
		case []interface{}:
			return float64(len(t)), nil
		case map[string]interface{}:
			return float64(len(t)), nil
		}
	}
	if m, ok := v.(map[string]interface{}); ok {
		fv, ok := m[p.name]
		if !ok {
			return nil, fmt.Errorf("condition: no property %q", p.name)
		}
		return fv, nil
	}
	return nil, fmt.Errorf("condition: cannot read property %q of %v", p.name, v)
}

type indexNode struct {
	object node
	index  node
}

func (ix indexNode) eval(env map[string]interface{}) (interface{}, error) {
	v, err := ix.object.eval(env)
	if err != nil {
		return nil, err
	}
	idx, err := ix.index.eval(env)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []interface{}:
		n, ok := toNumber(idx)
		if !ok {
			return nil, fmt.Errorf("condition: array subscript must be numeric, got %v", idx)
		}
		i := int(n)
		if i < 0 || i >= len(t) {
			return nil, fmt.Errorf("condition: index %d out of range (%d elements)", i, len(t))
		}
		return t[i], nil
	case map[string]interface{}:
		fv, ok := t[stringForm(idx)]
		if !ok {
			return nil, fmt.Errorf("condition: no key %q", stringForm(idx))
		}
		return fv, nil
	}
	return nil, fmt.Errorf("condition: cannot index %v", v)
}

type callNode struct {
	object node
	method string
	args   []node
}

func (c callNode) eval(env map[string]interface{}) (interface{}, error) {
	v, err := c.object.eval(env)
	if err != nil {
		return nil, err
	}
	if c.method != "includes" {
		return nil, fmt.Errorf("condition: unsupported method %q", c.method)
	}
	if len(c.args) != 1 {
		return nil, fmt.Errorf("condition: includes takes one argument")
	}
	arg, err := c.args[0].eval(env)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case string:
		return strings.Contains(t, stringForm(arg)), nil
	case []interface{}:
		needle := stringForm(arg)
		for _, e := range t {
			if stringForm(e) == needle {
				return true, nil
			}
		}
		return false, nil
	}
	return nil, fmt.Errorf("condition: includes not supported on %v", v)
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptOp("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = logicalNode{op: "||", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptOp("&&") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = logicalNode{op: "&&", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.acceptOp("!") {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notNode{operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokOp {
		switch t.text {
		case "<", ">", "<=", ">=", "==", "!=":
			p.next()
			right, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}
			return compareNode{op: t.text, left: left, right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parsePostfix() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.acceptOp("."):
			t := p.next()
			if t.kind != tokIdent {
				return nil, fmt.Errorf("condition: expected property name, got %q", t.text)
			}
			if p.acceptOp("(") {
				var args []node
				if !p.acceptOp(")") {
					for {
						arg, err := p.parseOr()
						if err != nil {
							return nil, err
						}
						args = append(args, arg)
						if p.acceptOp(",") {
							continue
						}
						if p.acceptOp(")") {
							break
						}
						return nil, fmt.Errorf("condition: expected , or ) in argument list")
					}
				}
				base = callNode{object: base, method: t.text, args: args}
			} else {
				base = propertyNode{object: base, name: t.text}
			}
		case p.acceptOp("["):
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if !p.acceptOp("]") {
				return nil, fmt.Errorf("condition: expected ]")
			}
			base = indexNode{object: base, index: idx}
		default:
			return base, nil
		}
	}
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return literalNode{value: t.num}, nil
	case tokString:
		return literalNode{value: t.text}, nil
	case tokIdent:
		return identNode{name: t.text}, nil
	case tokOp:
		if t.text == "(" {
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if !p.acceptOp(")") {
				return nil, fmt.Errorf("condition: expected )")
			}
			return inner, nil
		}
	}
	return nil, fmt.Errorf("condition: unexpected token %q", t.text)
}

var substPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// EvalCondition substitutes ${expr} references (inlining their
// JSON-encoded form), parses, and evaluates expr against env, reducing
// the result to a boolean.
func EvalCondition(expr string, env map[string]interface{}) (bool, error) {
	substituted, err := substituteJSON(expr, env)
	if err != nil {
		return false, err
	}
	toks, err := tokenize(substituted)
	if err != nil {
		return false, err
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return false, fmt.Errorf("condition: trailing input at %q", t.text)
	}
	v, err := root.eval(env)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// evalPath evaluates a bare reference expression (identifier with
// optional dotted/indexed traversal) against env. Used by ${var}
// substitution and output binding.
func evalPath(expr string, env map[string]interface{}) (interface{}, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("condition: trailing input at %q", t.text)
	}
	return root.eval(env)
}

// substituteJSON replaces each ${expr} with the JSON encoding of its
// resolved value, for use inside condition expressions.
func substituteJSON(s string, env map[string]interface{}) (string, error) {
	var firstErr error
	out := substPattern.ReplaceAllStringFunc(s, func(m string) string {
		inner := m[2 : len(m)-1]
		v, err := evalPath(inner, env)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		data, err := json.Marshal(v)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		// JSON strings arrive double-quoted; the DSL accepts both quote
		// styles so the encoded form drops straight in.
		return string(data)
	})
	return out, firstErr
}

// Substitute replaces each ${expr} in an argument string with the plain
// string form of its resolved value (strings unquoted, everything else
// JSON-encoded).
func Substitute(s string, env map[string]interface{}) (string, error) {
	var firstErr error
	out := substPattern.ReplaceAllStringFunc(s, func(m string) string {
		inner := m[2 : len(m)-1]
		v, err := evalPath(inner, env)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return stringForm(v)
	})
	return out, firstErr
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	return true
}

// stringForm renders a value the way the coercive equality rule
// compares it: strings verbatim, numbers without a trailing ".0",
// everything else JSON-encoded.
func stringForm(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func toNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
