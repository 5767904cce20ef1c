package ops

import (
	"sort"
	"strings"

	"jsedit/internal/collector"
	"jsedit/internal/config"
)

// FunctionEntry is one row of a list-functions/outline payload.
type FunctionEntry struct {
	CanonicalName string `json:"canonicalName"`
	Kind          string `json:"kind"`
	ExportKind    string `json:"exportKind"`
	Replaceable   bool   `json:"replaceable"`
	Hash          string `json:"hash"`
	Path          string `json:"path,omitempty"`
	Line          int    `json:"line"`
	Column        int    `json:"column"`
	ByteLength    int    `json:"byteLength"`
}

// VariableEntry is one row of a list-variables payload.
type VariableEntry struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	ExportKind string `json:"exportKind"`
	Hash       string `json:"hash"`
	Path       string `json:"path,omitempty"`
}

// ListResult is the JSON payload for list-functions/list-variables/
// list-constructors.
type ListResult struct {
	Operation string          `json:"operation"`
	File      string          `json:"file"`
	Functions []FunctionEntry `json:"functions,omitempty"`
	Variables []VariableEntry `json:"variables,omitempty"`
}

func functionFilter(opts Options, f *collector.FunctionRecord) bool {
	if !opts.IncludeInternals && !f.Replaceable && f.Kind != collector.KindClass {
		return false
	}
	if opts.FilterText != "" && !strings.Contains(strings.ToLower(f.CanonicalName), strings.ToLower(opts.FilterText)) {
		return false
	}
	if !matchesAny(opts.Match, f.CanonicalName) {
		return false
	}
	if !matchesNone(opts.Exclude, f.CanonicalName) {
		return false
	}
	return true
}

func variableFilter(opts Options, v *collector.VariableRecord) bool {
	if opts.FilterText != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(opts.FilterText)) {
		return false
	}
	if !matchesAny(opts.Match, v.Name) {
		return false
	}
	if !matchesNone(opts.Exclude, v.Name) {
		return false
	}
	return true
}

func toFunctionEntry(f *collector.FunctionRecord, includePath bool) FunctionEntry {
	e := FunctionEntry{
		CanonicalName: f.CanonicalName,
		Kind:          f.Kind,
		ExportKind:    f.ExportKind,
		Replaceable:   f.Replaceable,
		Hash:          f.Digest,
		Line:          f.Line,
		Column:        f.Column,
		ByteLength:    f.ByteLength,
	}
	if includePath {
		e.Path = f.PathSignature
	}
	return e
}

func toVariableEntry(v *collector.VariableRecord, includePath bool) VariableEntry {
	e := VariableEntry{
		Name:       v.Name,
		Kind:       v.Kind,
		ExportKind: v.ExportKind,
		Hash:       v.DeclarationDigest,
	}
	if includePath {
		e.Path = v.DeclarationPath
	}
	return e
}

// ListFunctions implements --list-functions.
func ListFunctions(ctx *Context, opts Options, r Renderer) ListResult {
	var entries []FunctionEntry
	for _, f := range ctx.Pool.Functions {
		if !functionFilter(opts, f) {
			continue
		}
		entries = append(entries, toFunctionEntry(f, opts.IncludePaths))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CanonicalName < entries[j].CanonicalName })

	result := ListResult{Operation: "list-functions", File: ctx.Source.Path, Functions: entries}
	renderFunctionList(ctx.Config.ListOutput, entries, r)
	r.result(result)
	return result
}

// ListVariables implements --list-variables.
func ListVariables(ctx *Context, opts Options, r Renderer) ListResult {
	var entries []VariableEntry
	for _, v := range ctx.Pool.Variables {
		if !variableFilter(opts, v) {
			continue
		}
		entries = append(entries, toVariableEntry(v, opts.IncludePaths))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	result := ListResult{Operation: "list-variables", File: ctx.Source.Path, Variables: entries}
	renderVariableList(ctx.Config.ListOutput, entries, r)
	r.result(result)
	return result
}

// ListConstructors implements --list-constructors: functions whose
// canonical name ends in ".constructor".
func ListConstructors(ctx *Context, opts Options, r Renderer) ListResult {
	var entries []FunctionEntry
	for _, f := range ctx.Pool.Functions {
		if !strings.HasSuffix(f.CanonicalName, ".constructor") {
			continue
		}
		if !functionFilter(opts, f) {
			continue
		}
		entries = append(entries, toFunctionEntry(f, opts.IncludePaths))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CanonicalName < entries[j].CanonicalName })

	result := ListResult{Operation: "list-constructors", File: ctx.Source.Path, Functions: entries}
	renderFunctionList(ctx.Config.ListOutput, entries, r)
	r.result(result)
	return result
}

func renderFunctionList(style config.ListOutput, entries []FunctionEntry, r Renderer) {
	for _, e := range entries {
		if style == config.ListOutputVerbose {
			r.line("%-40s kind=%-20s export=%-16s replaceable=%-5t hash=%-12s line=%d col=%d bytes=%d",
				e.CanonicalName, e.Kind, e.ExportKind, e.Replaceable, e.Hash, e.Line, e.Column, e.ByteLength)
		} else {
			r.line("%s kind=%s export=%s replaceable=%t hash=%s", e.CanonicalName, e.Kind, e.ExportKind, e.Replaceable, e.Hash)
		}
	}
}

func renderVariableList(style config.ListOutput, entries []VariableEntry, r Renderer) {
	for _, e := range entries {
		if style == config.ListOutputVerbose {
			r.line("%-40s kind=%-14s export=%-16s hash=%-12s", e.Name, e.Kind, e.ExportKind, e.Hash)
		} else {
			r.line("%s kind=%s export=%s hash=%s", e.Name, e.Kind, e.ExportKind, e.Hash)
		}
	}
}

// OutlineNode is one node of the nested outline tree: classes own
// their methods. Function records have no children: the collector
// does not descend into function bodies and pushes no function frames.
type OutlineNode struct {
	CanonicalName string        `json:"canonicalName"`
	Kind          string        `json:"kind"`
	Children      []OutlineNode `json:"children,omitempty"`
}

// OutlineResult is the JSON payload for --outline.
type OutlineResult struct {
	Operation string        `json:"operation"`
	File      string        `json:"file"`
	Nodes     []OutlineNode `json:"nodes"`
}

// Outline groups function records into a parent/child tree using each
// record's enclosing-context stack: a record nests under the record
// whose canonical name ends with the name of its nearest enclosing
// frame. The collector pushes only class and call frames, so no record
// nests under a function.
func Outline(ctx *Context, opts Options, r Renderer) OutlineResult {
	byName := map[string]*collector.FunctionRecord{}
	for _, f := range ctx.Pool.Functions {
		byName[f.CanonicalName] = f
	}

	childrenOf := map[string][]OutlineNode{}
	var roots []string
	var order []string

	for _, f := range ctx.Pool.Functions {
		order = append(order, f.CanonicalName)
		parent := nearestEnclosingRecordName(f, byName)
		node := OutlineNode{CanonicalName: f.CanonicalName, Kind: f.Kind}
		if parent == "" {
			roots = append(roots, f.CanonicalName)
		} else {
			childrenOf[parent] = append(childrenOf[parent], node)
		}
	}

	var build func(name string) OutlineNode
	built := map[string]bool{}
	build = func(name string) OutlineNode {
		f := byName[name]
		node := OutlineNode{CanonicalName: name, Kind: f.Kind}
		for _, child := range childrenOf[name] {
			if built[child.CanonicalName] {
				continue
			}
			built[child.CanonicalName] = true
			node.Children = append(node.Children, build(child.CanonicalName))
		}
		return node
	}

	var nodes []OutlineNode
	for _, name := range roots {
		if built[name] {
			continue
		}
		built[name] = true
		nodes = append(nodes, build(name))
	}

	result := OutlineResult{Operation: "outline", File: ctx.Source.Path, Nodes: nodes}
	renderOutline(nodes, 0, r)
	r.result(result)
	return result
}

func renderOutline(nodes []OutlineNode, depth int, r Renderer) {
	for _, n := range nodes {
		r.line("%s%s (%s)", strings.Repeat("  ", depth), n.CanonicalName, n.Kind)
		renderOutline(n.Children, depth+1, r)
	}
}

// nearestEnclosingRecordName walks f's enclosing-context stack
// innermost-first and returns the name of the nearest frame that has
// its own function record, or "" if none.
func nearestEnclosingRecordName(f *collector.FunctionRecord, byName map[string]*collector.FunctionRecord) string {
	for _, ctx := range f.EnclosingContext {
		if ctx.Name == "" || ctx.Name == f.OriginalName {
			continue
		}
		for name := range byName {
			if strings.HasSuffix(name, ctx.Name) && name != f.CanonicalName {
				return name
			}
		}
	}
	return ""
}

// FunctionSummary is the aggregate payload for --function-summary,
// a pure aggregation over the collected record pool.
type FunctionSummary struct {
	Operation         string `json:"operation"`
	File              string `json:"file"`
	TotalFunctions    int    `json:"totalFunctions"`
	TotalMethods      int    `json:"totalMethods"`
	TotalClasses      int    `json:"totalClasses"`
	Exported          int    `json:"exported"`
	Private           int    `json:"private"`
	Replaceable       int    `json:"replaceable"`
	NotReplaceable    int    `json:"notReplaceable"`
	TotalVariables    int    `json:"totalVariables"`
}

// FunctionSummaryOf computes --function-summary over ctx.Pool.
func FunctionSummaryOf(ctx *Context, r Renderer) FunctionSummary {
	s := FunctionSummary{Operation: "function-summary", File: ctx.Source.Path}
	for _, f := range ctx.Pool.Functions {
		switch f.Kind {
		case collector.KindClass:
			s.TotalClasses++
		case collector.KindClassMethod:
			s.TotalMethods++
			s.TotalFunctions++
		default:
			s.TotalFunctions++
		}
		if f.ExportKind != collector.ExportNone {
			s.Exported++
		} else {
			s.Private++
		}
		if f.Replaceable {
			s.Replaceable++
		} else {
			s.NotReplaceable++
		}
	}
	s.TotalVariables = len(ctx.Pool.Variables)

	r.line("functions=%d methods=%d classes=%d exported=%d private=%d replaceable=%d notReplaceable=%d variables=%d",
		s.TotalFunctions, s.TotalMethods, s.TotalClasses, s.Exported, s.Private, s.Replaceable, s.NotReplaceable, s.TotalVariables)
	r.result(s)
	return s
}
