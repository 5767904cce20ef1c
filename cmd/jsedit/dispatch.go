package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jsedit/internal/bytemap"
	"jsedit/internal/config"
	"jsedit/internal/logging"
	"jsedit/internal/ops"
	"jsedit/internal/recipe"
)

// operation pairs an op name with the selector-ish operand its flag
// carried; used to enforce the one-operation-per-invocation rule.
type operation struct {
	name    string
	operand string
}

func selectedOperations(f *cliFlags) []operation {
	var out []operation
	add := func(set bool, name, operand string) {
		if set {
			out = append(out, operation{name: name, operand: operand})
		}
	}
	add(f.listFunctions, "list-functions", "")
	add(f.listVariables, "list-variables", "")
	add(f.listConstructors, "list-constructors", "")
	add(f.outline, "outline", "")
	add(f.functionSummary, "function-summary", "")
	add(f.scanTargets, "scan-targets", "")
	add(len(f.extractHashes) > 0, "extract-hashes", "")
	add(f.locate != "", "locate", f.locate)
	add(f.locateVariable != "", "locate-variable", f.locateVariable)
	add(f.preview != "", "preview", f.preview)
	add(f.previewVariable != "", "preview-variable", f.previewVariable)
	add(f.contextFunction != "", "context-function", f.contextFunction)
	add(f.contextVariable != "", "context-variable", f.contextVariable)
	add(f.snipe != "", "snipe", f.snipe)
	add(f.searchText != "", "search-text", f.searchText)
	add(f.extract != "", "extract", f.extract)
	add(f.extractVariable != "", "extract-variable", f.extractVariable)
	add(f.replace != "", "replace", f.replace)
	add(f.replaceVariable != "", "replace-variable", f.replaceVariable)
	add(f.recipe != "", "recipe", f.recipe)
	return out
}

func run(cmd *cobra.Command, f *cliFlags) error {
	selected := selectedOperations(f)
	if len(selected) == 0 {
		return fmt.Errorf("no operation flag given (one of --list-functions, --locate, --replace, --recipe, ...)")
	}
	if len(selected) > 1 {
		names := make([]string, len(selected))
		for i, op := range selected {
			names[i] = "--" + op.name
		}
		return fmt.Errorf("operation flags are mutually exclusive: %s", strings.Join(names, ", "))
	}
	op := selected[0]

	cfg := config.Default()
	cfg.ApplyEnv()
	if f.listOutput != "" {
		cfg.ListOutput = config.ListOutput(f.listOutput)
	}

	renderer, flush := newRenderer(f.jsonOut, f.quiet, cmd.OutOrStdout())
	logging.CLI("operation=%s file=%s", op.name, f.file)

	if op.name == "recipe" {
		if err := runRecipe(f, op.operand, cfg, renderer); err != nil {
			return err
		}
		return flush()
	}

	opts, err := optionsFromFlags(f)
	if err != nil {
		return err
	}

	req := ops.Request{
		File:     f.file,
		Selector: op.operand,
		Opts:     opts,
		Config:   cfg,
		Renderer: renderer,
	}
	switch op.name {
	case "search-text":
		req.Query = op.operand
		req.Selector = ""
	case "extract-hashes":
		req.Hashes = f.extractHashes
	case "extract", "extract-variable":
		req.Output = f.output
	}

	if _, err := ops.Dispatch(op.name, req); err != nil {
		return err
	}
	return flush()
}

func runRecipe(f *cliFlags, manifestPath string, cfg *config.Config, renderer ops.Renderer) error {
	m, err := recipe.Load(manifestPath)
	if err != nil {
		return err
	}
	overrides, err := recipe.ParseOverrides(f.params)
	if err != nil {
		return err
	}
	engine := &recipe.Engine{Config: cfg, Renderer: renderer, Fix: f.fix}
	result, err := engine.Run(m, f.file, overrides)
	renderer.EmitResult(result)
	if err != nil {
		return err
	}
	renderer.Line("recipe %s: %s (%d steps)", result.Recipe, result.Status, len(result.Steps))
	return nil
}

func optionsFromFlags(f *cliFlags) (ops.Options, error) {
	opts := ops.Options{
		AllowMultiple:         f.allowMultiple,
		SelectHash:            f.selectHash,
		SelectPath:            f.selectPath,
		ExpectHash:            f.expectHash,
		Force:                 f.force,
		Fix:                   f.fix,
		WithCode:              f.withCode,
		Rename:                f.rename,
		VariableTarget:        f.variableTarget,
		ContextBefore:         f.contextBefore,
		ContextAfter:          f.contextAfter,
		ContextEnclosing:      f.contextEnclosing,
		FilterText:            f.filterText,
		Match:                 f.match,
		Exclude:               f.exclude,
		IncludePaths:          f.includePaths,
		IncludeInternals:      f.includeInternals,
		ScanTargetKind:        f.scanTargetKind,
		SearchLimit:           f.searchLimit,
		SearchContext:         f.searchContext,
		PreviewChars:          f.previewChars,
		PreviewEdit:           f.previewEdit,
		EmitDiff:              f.emitDiff,
		EmitPlan:              f.emitPlan,
		EmitDigests:           f.emitDigests,
		EmitDigestDir:         f.emitDigestDir,
		DigestIncludeSnippets: f.digestIncludeSnippets,
		Timestamp:             time.Now().UTC().Format("20060102T150405Z"),
	}

	// --select accepts a 1-based index or a hash:<value> disambiguator.
	if f.sel != "" {
		if strings.HasPrefix(f.sel, "hash:") {
			opts.SelectHash = strings.TrimPrefix(f.sel, "hash:")
		} else {
			n, err := strconv.Atoi(f.sel)
			if err != nil || n < 1 {
				return opts, fmt.Errorf("--select wants a 1-based index or hash:<value>, got %q", f.sel)
			}
			opts.SelectIndex = n
		}
	}

	// Replacement source precedence: --with-code, --with-file, then
	// --with (treated as a file path when one exists, inline otherwise).
	if opts.WithCode == "" && f.withFile != "" {
		data, err := os.ReadFile(f.withFile)
		if err != nil {
			return opts, fmt.Errorf("read replacement %s: %w", f.withFile, err)
		}
		opts.WithCode = string(data)
	}
	if opts.WithCode == "" && f.with != "" {
		if data, err := os.ReadFile(f.with); err == nil {
			opts.WithCode = string(data)
		} else {
			opts.WithCode = f.with
		}
	}

	if f.expectSpan != "" {
		start, end, err := parseSpanFlag(f.expectSpan)
		if err != nil {
			return opts, fmt.Errorf("--expect-span: %w", err)
		}
		opts.ExpectSpan = &bytemap.Span{Start: start, End: end}
	}
	if f.replaceRange != "" {
		start, end, err := parseSpanFlag(f.replaceRange)
		if err != nil {
			return opts, fmt.Errorf("--replace-range: %w", err)
		}
		opts.ReplaceRange = &[2]int{start, end}
	}
	return opts, nil
}

func parseSpanFlag(v string) (int, int, error) {
	idx := strings.Index(v, ":")
	if idx <= 0 {
		return 0, 0, fmt.Errorf("want start:end, got %q", v)
	}
	start, err1 := strconv.Atoi(v[:idx])
	end, err2 := strconv.Atoi(v[idx+1:])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("want start:end, got %q", v)
	}
	return start, end, nil
}
