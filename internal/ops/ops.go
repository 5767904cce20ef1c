package ops

import (
	"fmt"

	"jsedit/internal/bytemap"
	"jsedit/internal/collector"
	"jsedit/internal/config"
	"jsedit/internal/selector"
	"jsedit/internal/source"
)

// Renderer decouples human-facing rendering from core logic: a pair
// of callbacks, one for the structured (JSON-able) result and one for
// prose lines, so the core stays format neutral. A nil field in
// Renderer is a no-op.
type Renderer struct {
	EmitResult func(result interface{})
	EmitLine   func(line string)
}

func (r Renderer) result(v interface{}) {
	if r.EmitResult != nil {
		r.EmitResult(v)
	}
}

func (r Renderer) line(format string, args ...interface{}) {
	if r.EmitLine != nil {
		r.EmitLine(fmt.Sprintf(format, args...))
	}
}

// Line is the exported prose-emit entry for callers layered above this
// package (the recipe engine, the CLI shell).
func (r Renderer) Line(format string, args ...interface{}) {
	r.line(format, args...)
}

// Context bundles everything a handler needs: the parsed source, its
// collected record pool, and resolved configuration.
type Context struct {
	Source *source.Source
	Pool   *collector.Pool
	Config *config.Config
}

// Collect builds a Context for path/text.
func Collect(path, text string, cfg *config.Config) (*Context, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	src := source.New(path, text, cfg.Hash)
	pool, err := collector.Collect(src)
	if err != nil {
		return nil, err
	}
	return &Context{Source: src, Pool: pool, Config: cfg}, nil
}

// Options carries every CLI modifier flag relevant to operation
// execution. Not every field applies to every operation; handlers
// read only the fields they need.
type Options struct {
	// Selector disambiguation.
	AllowMultiple bool
	SelectIndex   int
	SelectHash    string
	SelectPath    string

	// Guard inputs.
	ExpectHash string
	ExpectSpan *bytemap.Span
	Force      bool

	// Mutation control. Replacement text arrives pre-loaded in WithCode;
	// the CLI and recipe layers resolve --with/--with-file into it.
	Fix          bool
	WithCode     string
	Rename       string
	ReplaceRange *[2]int // char offsets, relative to the record's own span

	// Variable operations.
	VariableTarget string // binding | declarator | declaration

	// Context operation.
	ContextBefore    int
	ContextAfter     int
	ContextEnclosing string // exact | class | function

	// Listing / scanning.
	ListOutput      config.ListOutput
	FilterText      string
	Match           []string
	Exclude         []string
	IncludePaths    bool
	IncludeInternals bool
	ScanTargetKind  string // function | variable | "" (both)

	// Search.
	SearchLimit   int
	SearchContext int

	// Preview.
	PreviewChars int
	PreviewEdit  bool
	EmitDiff     bool

	// Artifact emission.
	EmitPlan              string
	EmitDigests           bool
	EmitDigestDir         string
	DigestIncludeSnippets bool

	// Timestamp is supplied by the caller (cmd/recipe layer) rather
	// than computed with time.Now, keeping this package deterministic
	// and test-friendly; plans/snapshots stamp with it verbatim.
	Timestamp string
}

func (o Options) resolveOptions() selector.ResolveOptions {
	return selector.ResolveOptions{
		AllowMultiple: o.AllowMultiple,
		SelectHash:    o.SelectHash,
		SelectPath:    o.SelectPath,
		SelectIndex:   o.SelectIndex,
	}
}
