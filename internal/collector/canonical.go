package collector

import (
	"fmt"
	"strings"
)

// CanonicalName composes a human-readable identifier from a scope
// chain and export-kind.
func CanonicalName(name string, scope []ScopeEntry, exportKind string) string {
	if len(scope) > 0 {
		composed := composeScopeChain(scope)
		last := scope[len(scope)-1]
		if last.Role == "" && (last.Owner == "exports" || last.Owner == "module.exports") && name != "" && name != "(anonymous)" {
			return composed + "." + name
		}
		return composed
	}

	switch exportKind {
	case ExportDefault:
		return "exports.default"
	case ExportCommonJSDefault:
		return "module.exports"
	case ExportNamed, ExportCommonJSNamed:
		if name != "" {
			return "exports." + name
		}
		return "exports.default"
	default:
		return name
	}
}

// composeScopeChain renders a scope chain via role markers: an
// "exports" prefix yields "exports.foo", "module.exports" stays
// verbatim, class role markers expand to "Class#method" /
// "Class.static method" / "Class::name", any other role (a plain
// method name) yields "Class.method", and call-site wrappers yield
// `describe callback "label"`.
func composeScopeChain(scope []ScopeEntry) string {
	var parts []string
	for _, entry := range scope {
		switch {
		case entry.Owner == "module.exports" && entry.Role == "":
			parts = []string{"module.exports"}
		case entry.Owner == "exports" && entry.Role == "":
			// handled by caller attaching the name separately; a bare
			// "exports" entry without a role is a namespace prefix.
			parts = append(parts, "exports")
		case strings.HasPrefix(entry.Role, "#"):
			parts = append(parts, entry.Owner+entry.Role)
		case strings.HasPrefix(entry.Role, "static "):
			parts = append(parts, entry.Owner+"."+entry.Role)
		case strings.HasPrefix(entry.Role, "get ") || strings.HasPrefix(entry.Role, "set "):
			name := strings.SplitN(entry.Role, " ", 2)[1]
			parts = append(parts, entry.Owner+"::"+name)
		case strings.HasPrefix(entry.Role, "call:"):
			// call:callee:label -> `callee callback "label"`
			fields := strings.SplitN(entry.Role, ":", 3)
			callee := entry.Owner
			label := ""
			if len(fields) == 3 {
				label = fields[2]
			}
			if label != "" {
				parts = append(parts, fmt.Sprintf(`%s callback "%s"`, callee, label))
			} else {
				parts = append(parts, callee+" callback")
			}
		case entry.Role != "":
			parts = append(parts, entry.Owner+"."+entry.Role)
		default:
			parts = append(parts, entry.Owner)
		}
	}
	return strings.Join(parts, ".")
}

// ExpandOwnerVariants returns the canonical dotted form of "Class.method"
// plus the "#"/"::"/">"-joined alternate spellings the selector engine
// treats as equivalent.
func ExpandOwnerVariants(owner, member string) []string {
	if owner == "" {
		return []string{member}
	}
	return []string{
		owner + "." + member,
		owner + "#" + member,
		owner + "::" + member,
		owner + " > " + member,
	}
}

// PathSegment is one labeled step of an AST path signature.
type PathSegment struct {
	Label string // e.g. "body[3]", "declaration", "init"
}

// BuildPathSignature dot-joins path segments, terminated by nodeType.
func BuildPathSignature(segments []string, nodeType string) string {
	if len(segments) == 0 {
		return nodeType
	}
	return strings.Join(segments, ".") + "." + nodeType
}

// pathSuffixVariants returns a path signature along with tolerant
// variants stripping the suffixes that shift with parse shape
// (.ArrowFunctionExpression, .FunctionExpression, .init, .right), so
// a path filter survives minor re-parse differences.
func pathSuffixVariants(path string) []string {
	variants := []string{path}
	for _, suffix := range []string{".ArrowFunctionExpression", ".FunctionExpression", ".init", ".right"} {
		if strings.HasSuffix(path, suffix) {
			variants = append(variants, strings.TrimSuffix(path, suffix))
		}
	}
	return variants
}
