package ops

import (
	"fmt"

	"jsedit/internal/config"
	"jsedit/internal/logging"
	"jsedit/internal/selector"
)

// Request is the operation-neutral input to Dispatch: the file under
// edit plus whichever operands the named operation reads.
type Request struct {
	File     string
	Selector string
	Query    string   // search-text
	Hashes   []string // extract-hashes
	Output   string   // extract output path
	Opts     Options
	Config   *config.Config
	Renderer Renderer
}

// Dispatch maps an operation name to its handler and runs it against
// req, re-reading req.File from disk so sequential callers (recipe
// steps) observe prior writebacks.
func Dispatch(name string, req Request) (interface{}, error) {
	if req.File == "" {
		return nil, fmt.Errorf("%w: file", ErrMissingArgument)
	}
	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}
	ctx, err := CollectFile(req.File, cfg)
	if err != nil {
		return nil, err
	}
	logging.Ops("dispatch %s file=%s selector=%q", name, req.File, req.Selector)

	r := req.Renderer
	switch name {
	case "list-functions":
		return ListFunctions(ctx, req.Opts, r), nil
	case "list-variables":
		return ListVariables(ctx, req.Opts, r), nil
	case "list-constructors":
		return ListConstructors(ctx, req.Opts, r), nil
	case "outline":
		return Outline(ctx, req.Opts, r), nil
	case "function-summary":
		return FunctionSummaryOf(ctx, r), nil
	case "scan-targets":
		return ScanTargets(ctx, req.Opts, r), nil
	case "search-text":
		return SearchText(ctx, req.Query, req.Opts, r)
	case "extract-hashes":
		return ExtractByHashes(ctx, req.Hashes, r)
	case "locate":
		return Locate(ctx, selector.TypeFunction, req.Selector, req.Opts, r)
	case "locate-variable":
		return Locate(ctx, selector.TypeVariable, req.Selector, req.Opts, r)
	case "preview":
		return Preview(ctx, selector.TypeFunction, req.Selector, req.Opts, r)
	case "preview-variable":
		return Preview(ctx, selector.TypeVariable, req.Selector, req.Opts, r)
	case "context-function":
		return ContextOp(ctx, selector.TypeFunction, req.Selector, req.Opts, r)
	case "context-variable":
		return ContextOp(ctx, selector.TypeVariable, req.Selector, req.Opts, r)
	case "snipe":
		return Snipe(ctx, req.Selector, req.Opts, r)
	case "extract":
		return Extract(ctx, selector.TypeFunction, req.Selector, req.Opts, req.Output, r)
	case "extract-variable":
		return Extract(ctx, selector.TypeVariable, req.Selector, req.Opts, req.Output, r)
	case "replace":
		return ReplaceFunction(ctx, req.Selector, req.Opts, r)
	case "replace-variable":
		return ReplaceVariable(ctx, req.Selector, req.Opts, r)
	}
	return nil, fmt.Errorf("ops: unknown operation %q", name)
}
