// Package collector implements the symbol collector: a single
// tree-sitter AST traversal over a JS/TS source file that produces
// richly annotated function and variable records.
package collector

import "jsedit/internal/bytemap"

// Kind values for FunctionRecord.Kind.
const (
	KindFunctionDeclaration = "function-declaration"
	KindFunctionExpression  = "function-expression"
	KindArrowFunction       = "arrow-function"
	KindClass               = "class"
	KindClassMethod         = "class-method"
)

// ExportKind values shared by function and variable records.
const (
	ExportNone           = "none"
	ExportNamed          = "named"
	ExportDefault        = "default"
	ExportCommonJSDefault = "commonjs-default"
	ExportCommonJSNamed   = "commonjs-named"
)

// Variable kinds.
const (
	VarKindVar        = "var"
	VarKindLet        = "let"
	VarKindConst      = "const"
	VarKindClassField = "class-field"
	VarKindAssignment = "assignment"
)

// Variable target modes.
const (
	TargetBinding     = "binding"
	TargetDeclarator  = "declarator"
	TargetDeclaration = "declaration"
)

// ScopeEntry is one link in a record's scope chain: an owner name plus
// an optional role marker (e.g. "#method", "static name", "get name",
// "set name", "call:callee:label").
type ScopeEntry struct {
	Owner string `json:"owner"`
	Role  string `json:"role,omitempty"`
}

// EnclosingContext is one frame of the enclosing-context stack, stored
// innermost-first.
type EnclosingContext struct {
	Kind string       `json:"kind"`
	Name string       `json:"name,omitempty"`
	Span bytemap.Span `json:"span"`
}

// ParamProperty describes a TypeScript constructor parameter property
// (e.g. `constructor(private readonly x: number)`).
type ParamProperty struct {
	Name      string `json:"name"`
	Modifiers []string `json:"modifiers,omitempty"`
	TypeAnnotation string `json:"typeAnnotation,omitempty"`
}

// TSPayload carries optional TypeScript-specific metadata.
type TSPayload struct {
	ClassModifiers   []string        `json:"classModifiers,omitempty"`
	MemberModifiers  []string        `json:"memberModifiers,omitempty"`
	ParamProperties  []ParamProperty `json:"paramProperties,omitempty"`
	TypeAnnotation   string          `json:"typeAnnotation,omitempty"`
}

// FunctionRecord is a collected function/method/class record.
type FunctionRecord struct {
	Span             bytemap.Span       `json:"span"`
	OriginalName     string             `json:"originalName"`
	CanonicalName    string             `json:"canonicalName"`
	Kind             string             `json:"kind"`
	ExportKind       string             `json:"exportKind"`
	Replaceable      bool               `json:"replaceable"`
	ScopeChain       []ScopeEntry       `json:"scopeChain"`
	PathSignature    string             `json:"pathSignature"`
	IdentifierSpan   bytemap.Span       `json:"identifierSpan"`
	Digest           string             `json:"digest"`
	EnclosingContext []EnclosingContext `json:"enclosingContext"`
	Line             int                `json:"line"`
	Column           int                `json:"column"`
	ByteLength       int                `json:"byteLength"`
	TS               *TSPayload         `json:"ts,omitempty"`

	// selectorTokens caches the pre-computed selector token set for
	// this record; not serialized.
	selectorTokens map[string]struct{} `json:"-"`
}

// SelectorTokens returns (lazily computing) the selector token set.
func (f *FunctionRecord) SelectorTokens() map[string]struct{} {
	if f.selectorTokens == nil {
		f.selectorTokens = buildFunctionSelectorTokens(f)
	}
	return f.selectorTokens
}

// VariableRecord is a collected variable/declarator/declaration
// record, keyed by three nested spans.
type VariableRecord struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	ExportKind string `json:"exportKind"`

	BindingSpan     bytemap.Span `json:"bindingSpan"`
	DeclaratorSpan  bytemap.Span `json:"declaratorSpan"`
	DeclarationSpan bytemap.Span `json:"declarationSpan"`

	BindingDigest     string `json:"bindingDigest"`
	DeclaratorDigest  string `json:"declaratorDigest"`
	DeclarationDigest string `json:"declarationDigest"`

	BindingPath     string `json:"bindingPath"`
	DeclaratorPath  string `json:"declaratorPath"`
	DeclarationPath string `json:"declarationPath"`

	InitializerType  string             `json:"initializerType,omitempty"`
	ScopeChain       []ScopeEntry       `json:"scopeChain"`
	EnclosingContext []EnclosingContext `json:"enclosingContext"`

	selectorTokens map[string]struct{} `json:"-"`
}

// SelectorTokens returns (lazily computing) the selector token set.
func (v *VariableRecord) SelectorTokens() map[string]struct{} {
	if v.selectorTokens == nil {
		v.selectorTokens = buildVariableSelectorTokens(v)
	}
	return v.selectorTokens
}

// TargetSpan returns the span for the requested target mode, falling
// back through a preference order (mode first, then binding,
// declarator, declaration) until a non-empty-digest span is found.
func (v *VariableRecord) TargetSpan(mode string) (span bytemap.Span, resolvedMode string) {
	order := []string{mode, TargetBinding, TargetDeclarator, TargetDeclaration}
	seen := map[string]bool{}
	for _, m := range order {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		switch m {
		case TargetBinding:
			if v.BindingDigest != "" {
				return v.BindingSpan, TargetBinding
			}
		case TargetDeclarator:
			if v.DeclaratorDigest != "" {
				return v.DeclaratorSpan, TargetDeclarator
			}
		case TargetDeclaration:
			if v.DeclarationDigest != "" {
				return v.DeclarationSpan, TargetDeclaration
			}
		}
	}
	return v.DeclarationSpan, TargetDeclaration
}

// ClassMeta captures per-class metadata gathered alongside function
// records for a class declaration/expression.
type ClassMeta struct {
	Name              string                     `json:"name"`
	Superclass        string                     `json:"superclass,omitempty"`
	Implements        []string                   `json:"implements,omitempty"`
	ConstructorParams map[string][]ParamProperty `json:"constructorParams,omitempty"`
}

// Pool is the in-memory record pool produced by one Collect call.
type Pool struct {
	Functions []*FunctionRecord
	Variables []*VariableRecord
	Classes   map[string]*ClassMeta
}
