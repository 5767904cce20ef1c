package main

import (
	"github.com/spf13/cobra"
)

// cliFlags carries every flag on the one jsedit command. Exactly one
// operation flag must be set per invocation; the rest are modifiers.
type cliFlags struct {
	// Operation flags (mutually exclusive).
	listFunctions    bool
	listVariables    bool
	listConstructors bool
	outline          bool
	functionSummary  bool
	scanTargets      bool
	extractHashes    []string
	locate           string
	locateVariable   string
	preview          string
	previewVariable  string
	contextFunction  string
	contextVariable  string
	snipe            string
	searchText       string
	extract          string
	extractVariable  string
	replace          string
	replaceVariable  string
	recipe           string

	// Target and replacement sources.
	file     string
	with     string
	withFile string
	withCode string
	output   string
	rename   string

	// Guards and disambiguation.
	replaceRange  string
	expectHash    string
	expectSpan    string
	sel           string
	selectHash    string
	selectPath    string
	allowMultiple bool
	force         bool

	// Mutation control and artifacts.
	fix                   bool
	previewEdit           bool
	emitDiff              bool
	emitPlan              string
	emitDigests           bool
	emitDigestDir         string
	digestIncludeSnippets bool

	// Output modes.
	jsonOut bool
	quiet   bool

	// Operation modifiers.
	variableTarget   string
	contextBefore    int
	contextAfter     int
	contextEnclosing string
	searchLimit      int
	searchContext    int
	previewChars     int
	scanTargetKind   string
	listOutput       string
	filterText       string
	match            []string
	exclude          []string
	includePaths     bool
	includeInternals bool
	params           []string
}

func bindFlags(cmd *cobra.Command, f *cliFlags) {
	fl := cmd.Flags()

	fl.BoolVar(&f.listFunctions, "list-functions", false, "list collected function records")
	fl.BoolVar(&f.listVariables, "list-variables", false, "list collected variable records")
	fl.BoolVar(&f.listConstructors, "list-constructors", false, "list class constructors")
	fl.BoolVar(&f.outline, "outline", false, "render the nested function/class outline")
	fl.BoolVar(&f.functionSummary, "function-summary", false, "print per-file aggregate counts")
	fl.BoolVar(&f.scanTargets, "scan-targets", false, "enumerate replaceable records")
	fl.StringSliceVar(&f.extractHashes, "extract-hashes", nil, "extract records by content hash (repeatable/comma-separated)")
	fl.StringVar(&f.locate, "locate", "", "locate a function by selector")
	fl.StringVar(&f.locateVariable, "locate-variable", "", "locate a variable by selector")
	fl.StringVar(&f.preview, "preview", "", "preview a function's source by selector")
	fl.StringVar(&f.previewVariable, "preview-variable", "", "preview a variable's source by selector")
	fl.StringVar(&f.contextFunction, "context-function", "", "show padded context around a function")
	fl.StringVar(&f.contextVariable, "context-variable", "", "show padded context around a variable")
	fl.StringVar(&f.snipe, "snipe", "", "resolve exactly one record and emit its code plus guard inputs")
	fl.StringVar(&f.searchText, "search-text", "", "search the source text for a pattern")
	fl.StringVar(&f.extract, "extract", "", "extract a function's source by selector")
	fl.StringVar(&f.extractVariable, "extract-variable", "", "extract a variable's source by selector")
	fl.StringVar(&f.replace, "replace", "", "replace a function by selector")
	fl.StringVar(&f.replaceVariable, "replace-variable", "", "replace a variable by selector")
	fl.StringVar(&f.recipe, "recipe", "", "run a recipe manifest")

	fl.StringVar(&f.file, "file", "", "source file under edit")
	fl.StringVar(&f.with, "with", "", "replacement: inline code, or a file path if one exists")
	fl.StringVar(&f.withFile, "with-file", "", "replacement read from a file")
	fl.StringVar(&f.withCode, "with-code", "", "replacement as inline code")
	fl.StringVar(&f.output, "output", "", "write extracted code to this path")
	fl.StringVar(&f.rename, "rename", "", "rename the target identifier instead of replacing the body")

	fl.StringVar(&f.replaceRange, "replace-range", "", "sub-range within the target span (start:end, char offsets)")
	fl.StringVar(&f.expectHash, "expect-hash", "", "abort unless the target's current hash matches")
	fl.StringVar(&f.expectSpan, "expect-span", "", "abort unless the target's span matches (start:end)")
	fl.StringVar(&f.sel, "select", "", "pick one match: a 1-based index or hash:<value>")
	fl.StringVar(&f.selectHash, "select-hash", "", "disambiguate matches by hash")
	fl.StringVar(&f.selectPath, "select-path", "", "disambiguate matches by path signature")
	fl.BoolVar(&f.allowMultiple, "allow-multiple", false, "permit an operation to touch more than one record")
	fl.BoolVar(&f.force, "force", false, "downgrade hash/span/path guard mismatches to bypass")

	fl.BoolVar(&f.fix, "fix", false, "write the edited file back to disk")
	fl.BoolVar(&f.previewEdit, "preview-edit", false, "show a unified diff of the pending edit")
	fl.BoolVar(&f.emitDiff, "emit-diff", false, "include a unified diff in the payload")
	fl.StringVar(&f.emitPlan, "emit-plan", "", "write a plan JSON artifact to this path")
	fl.BoolVar(&f.emitDigests, "emit-digests", false, "write before/after digest snapshots")
	fl.StringVar(&f.emitDigestDir, "emit-digest-dir", "", "directory for digest snapshots")
	fl.BoolVar(&f.digestIncludeSnippets, "digest-include-snippets", false, "include raw snippet text in digest snapshots")

	fl.BoolVar(&f.jsonOut, "json", false, "emit the machine-readable JSON payload")
	fl.BoolVar(&f.quiet, "quiet", false, "suppress prose output (implies --json)")

	fl.StringVar(&f.variableTarget, "variable-target", "", "variable span to operate on: binding|declarator|declaration")
	fl.IntVar(&f.contextBefore, "context-before", 0, "characters of context before the span")
	fl.IntVar(&f.contextAfter, "context-after", 0, "characters of context after the span")
	fl.StringVar(&f.contextEnclosing, "context-enclosing", "exact", "context mode: exact|class|function")
	fl.IntVar(&f.searchLimit, "search-limit", 0, "maximum search hits (0 = unlimited)")
	fl.IntVar(&f.searchContext, "search-context", 0, "lines of context around each search hit")
	fl.IntVar(&f.previewChars, "preview-chars", 0, "truncate previewed code to this many characters")
	fl.StringVar(&f.scanTargetKind, "scan-target-kind", "", "restrict scan-targets: function|variable")
	fl.StringVar(&f.listOutput, "list-output", "", "listing style: dense|verbose")
	fl.StringVar(&f.filterText, "filter-text", "", "case-insensitive substring filter for listings")
	fl.StringSliceVar(&f.match, "match", nil, "glob include patterns for listings/scans")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "glob exclude patterns for listings/scans")
	fl.BoolVar(&f.includePaths, "include-paths", false, "include path signatures in listings")
	fl.BoolVar(&f.includeInternals, "include-internals", false, "include non-replaceable records in listings")
	fl.StringSliceVar(&f.params, "param", nil, "recipe parameter override key=value (repeatable)")
}
