// Package selector implements the selector engine: parsing the small
// "base@filter=value" query language and resolving it against a
// collected record pool.
package selector

import (
	"fmt"
	"strconv"
	"strings"

	"jsedit/internal/collector"
	"jsedit/internal/digest"
)

// Type restricts resolution to one symbol kind, or TypeAny for both.
type Type string

const (
	TypeAny      Type = ""
	TypeFunction Type = "function"
	TypeVariable Type = "variable"
)

// wildcardBase is the Base value used by "hash:"/"path:" selector forms
// (and by callers resolving purely by filter, e.g. ExtractByHashes):
// it opts out of name-based candidate matching so the filters decide
// membership on their own.
const wildcardBase = "*"

// WildcardBase lets callers outside this package (ExtractByHashes and
// similar filter-only lookups) build an Expression that matches every
// candidate before filters narrow it down.
const WildcardBase = wildcardBase

// Filters holds the parsed "@key=value" clauses of an Expression.
// List-valued filters accept "|" or "," separated values (OR semantics).
type Filters struct {
	Range       string // bare "N" or "N-M" range= clause, char offsets
	Bytes       string // bytes= clause, byte offsets
	Kind        []string
	Export      []string
	Hash        []string
	Path        []string
	Replaceable *bool
}

// Expression is a parsed selector string.
type Expression struct {
	Type    Type
	Base    string
	Filters Filters
	Raw     string
}

// Parse parses a selector expression: "[type:]base(@filter)*".
func Parse(expr string) (*Expression, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("selector: empty expression")
	}

	parts := strings.Split(expr, "@")
	head := parts[0]

	typ := TypeAny
	base := head
	if idx := strings.Index(head, ":"); idx >= 0 {
		prefix := head[:idx]
		switch prefix {
		case "function", "variable":
			typ = Type(prefix)
			base = head[idx+1:]
		}
	}
	e := &Expression{Type: typ, Raw: expr}
	switch {
	case strings.HasPrefix(base, "hash:"):
		e.Filters.Hash = append(e.Filters.Hash, strings.TrimPrefix(base, "hash:"))
		base = wildcardBase
	case strings.HasPrefix(base, "path:"):
		e.Filters.Path = append(e.Filters.Path, strings.TrimPrefix(base, "path:"))
		base = wildcardBase
	}
	e.Base = base
	for _, clause := range parts[1:] {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		if eq := strings.Index(clause, "="); eq >= 0 {
			key := strings.TrimSpace(clause[:eq])
			value := strings.TrimSpace(clause[eq+1:])
			values := splitList(value)
			switch key {
			case "range":
				e.Filters.Range = value
			case "bytes":
				e.Filters.Bytes = value
			case "kind":
				e.Filters.Kind = values
			case "export":
				e.Filters.Export = values
			case "hash":
				e.Filters.Hash = values
			case "path":
				e.Filters.Path = values
			case "replaceable":
				b := value == "true" || value == "1"
				e.Filters.Replaceable = &b
			default:
				return nil, fmt.Errorf("selector: unknown filter key %q", key)
			}
			continue
		}
		// Bare filter: a range shorthand ("N" or "N-M").
		e.Filters.Range = clause
	}
	return e, nil
}

func splitList(v string) []string {
	v = strings.ReplaceAll(v, "|", ",")
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Match is one resolved record, tagged by kind.
type Match struct {
	Type     Type
	Function *collector.FunctionRecord
	Variable *collector.VariableRecord
}

// CanonicalName returns the match's display name.
func (m Match) CanonicalName() string {
	if m.Function != nil {
		return m.Function.CanonicalName
	}
	if m.Variable != nil {
		return m.Variable.Name
	}
	return ""
}

// Kind returns the match's record kind string.
func (m Match) Kind() string {
	if m.Function != nil {
		return m.Function.Kind
	}
	if m.Variable != nil {
		return m.Variable.Kind
	}
	return ""
}

// ExportKind returns the match's export-kind.
func (m Match) ExportKind() string {
	if m.Function != nil {
		return m.Function.ExportKind
	}
	if m.Variable != nil {
		return m.Variable.ExportKind
	}
	return ""
}

// Replaceable reports whether the match is editable. Variable records
// have no non-replaceable shape (classes are the only non-replaceable
// function-kind records), so variables are always replaceable.
func (m Match) Replaceable() bool {
	if m.Function != nil {
		return m.Function.Replaceable
	}
	return m.Variable != nil
}

// PrimarySpan returns the record's outermost span, used for range/bytes
// filters and aggregate span-range computation.
func (m Match) PrimarySpan() (start, end, byteStart, byteEnd int) {
	if m.Function != nil {
		s := m.Function.Span
		return s.Start, s.End, s.ByteStart, s.ByteEnd
	}
	if m.Variable != nil {
		s := m.Variable.DeclarationSpan
		return s.Start, s.End, s.ByteStart, s.ByteEnd
	}
	return 0, 0, 0, 0
}

func (m Match) tokens() map[string]struct{} {
	if m.Function != nil {
		return m.Function.SelectorTokens()
	}
	if m.Variable != nil {
		return m.Variable.SelectorTokens()
	}
	return nil
}

func (m Match) hashes() []string {
	if m.Function != nil {
		return []string{m.Function.Digest}
	}
	if m.Variable != nil {
		return []string{m.Variable.BindingDigest, m.Variable.DeclaratorDigest, m.Variable.DeclarationDigest}
	}
	return nil
}

// Errors raised during resolution.
var (
	ErrNoMatch   = fmt.Errorf("selector: no matching record")
	ErrAmbiguous = fmt.Errorf("selector: ambiguous selector")
	ErrSelect    = fmt.Errorf("selector: --select out of range")
)

// ResolveOptions configures disambiguation behavior.
type ResolveOptions struct {
	AllowMultiple bool
	SelectHash    string
	SelectPath    string
	SelectIndex   int // 1-based; 0 = unset
}

// Resolve parses expr and resolves it against pool.
func Resolve(pool *collector.Pool, expr string, opts ResolveOptions) ([]Match, error) {
	e, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return ResolveExpr(pool, e, opts)
}

// ResolveExpr resolves an already-parsed Expression.
func ResolveExpr(pool *collector.Pool, e *Expression, opts ResolveOptions) ([]Match, error) {
	candidates := candidatePool(pool, e.Type)

	var matches []Match
	if e.Base == wildcardBase {
		matches = candidates
	} else {
		tokenSet := candidateTokens(e.Base)

		var exact []Match
		var loose []Match
		for _, m := range candidates {
			if m.CanonicalName() == e.Base {
				exact = append(exact, m)
				continue
			}
			for t := range tokenSet {
				if _, ok := m.tokens()[t]; ok {
					loose = append(loose, m)
					break
				}
			}
		}

		matches = exact
		if len(matches) == 0 {
			matches = loose
		}
	}

	matches = applyFilters(matches, e.Filters)

	if opts.SelectHash != "" {
		matches = filterByHash(matches, []string{opts.SelectHash})
	}
	if opts.SelectPath != "" {
		matches = filterByPath(matches, []string{opts.SelectPath})
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, e.Raw)
	}

	if opts.SelectIndex > 0 {
		if opts.SelectIndex > len(matches) {
			return nil, fmt.Errorf("%w: index %d, %d matches", ErrSelect, opts.SelectIndex, len(matches))
		}
		return []Match{matches[opts.SelectIndex-1]}, nil
	}

	if len(matches) > 1 && !opts.AllowMultiple {
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, listNames(matches))
	}
	return matches, nil
}

func listNames(matches []Match) string {
	n := len(matches)
	if n > 5 {
		n = 5
	}
	names := make([]string, 0, n)
	for _, m := range matches[:n] {
		names = append(names, m.CanonicalName())
	}
	suffix := ""
	if len(matches) > 5 {
		suffix = fmt.Sprintf(" (+%d more)", len(matches)-5)
	}
	return strings.Join(names, ", ") + suffix
}

func candidatePool(pool *collector.Pool, typ Type) []Match {
	var out []Match
	if typ == TypeAny || typ == TypeFunction {
		for _, f := range pool.Functions {
			out = append(out, Match{Type: TypeFunction, Function: f})
		}
	}
	if typ == TypeAny || typ == TypeVariable {
		for _, v := range pool.Variables {
			out = append(out, Match{Type: TypeVariable, Variable: v})
		}
	}
	return out
}

// candidateTokens expands base into the token set checked against each
// record's pre-computed selector tokens: lowercased and verbatim, plus
// A.B <-> A#B <-> A::B <-> A > B variants.
func candidateTokens(base string) map[string]struct{} {
	set := map[string]struct{}{base: {}, strings.ToLower(base): {}}

	for _, sep := range []string{".", "#", "::", " > "} {
		if idx := strings.Index(base, sep); idx >= 0 {
			owner := base[:idx]
			member := base[idx+len(sep):]
			for _, variant := range []string{
				owner + "." + member,
				owner + "#" + member,
				owner + "::" + member,
				owner + " > " + member,
			} {
				set[variant] = struct{}{}
				set[strings.ToLower(variant)] = struct{}{}
			}
			break
		}
	}
	return set
}

func applyFilters(matches []Match, f Filters) []Match {
	if f.Replaceable != nil {
		matches = filterFunc(matches, func(m Match) bool { return m.Replaceable() == *f.Replaceable })
	}
	if len(f.Kind) > 0 {
		matches = filterFunc(matches, func(m Match) bool { return containsFold(f.Kind, m.Kind()) })
	}
	if len(f.Export) > 0 {
		matches = filterFunc(matches, func(m Match) bool { return containsFold(f.Export, m.ExportKind()) })
	}
	if len(f.Hash) > 0 {
		matches = filterByHash(matches, f.Hash)
	}
	if len(f.Path) > 0 {
		matches = filterByPath(matches, f.Path)
	}
	if f.Range != "" {
		matches = filterByRange(matches, f.Range, false)
	}
	if f.Bytes != "" {
		matches = filterByRange(matches, f.Bytes, true)
	}
	return matches
}

func filterFunc(matches []Match, pred func(Match) bool) []Match {
	var out []Match
	for _, m := range matches {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}

func containsFold(values []string, actual string) bool {
	for _, v := range values {
		if strings.EqualFold(v, actual) {
			return true
		}
	}
	return false
}

func filterByHash(matches []Match, values []string) []Match {
	normalized := digest.NormalizeCandidates(values)
	return filterFunc(matches, func(m Match) bool {
		for _, h := range m.hashes() {
			if h == "" {
				continue
			}
			if _, ok := normalized[h]; ok {
				return true
			}
			for _, v := range values {
				if strings.HasPrefix(h, v) || strings.HasPrefix(v, h) {
					return true
				}
			}
		}
		return false
	})
}

func filterByPath(matches []Match, values []string) []Match {
	return filterFunc(matches, func(m Match) bool {
		tokens := m.tokens()
		for _, v := range values {
			v = strings.TrimPrefix(v, "path:")
			if _, ok := tokens[v]; ok {
				return true
			}
		}
		return false
	})
}

// filterByRange parses "N" or "N-M" and keeps matches whose primary
// span contains the described point or interval.
func filterByRange(matches []Match, value string, bytes bool) []Match {
	start, end, ok := parseRange(value)
	if !ok {
		return matches
	}
	return filterFunc(matches, func(m Match) bool {
		cs, ce, bs, be := m.PrimarySpan()
		if bytes {
			return bs <= start && end <= be
		}
		return cs <= start && end <= ce
	})
}

func parseRange(value string) (start, end int, ok bool) {
	if idx := strings.Index(value, "-"); idx > 0 {
		s, err1 := strconv.Atoi(value[:idx])
		e, err2 := strconv.Atoi(value[idx+1:])
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return s, e, true
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, 0, false
	}
	return n, n, true
}
