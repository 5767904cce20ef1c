package main

import (
	"encoding/json"
	"fmt"
	"io"

	"jsedit/internal/ops"
)

// newRenderer builds the renderer pair for one invocation. Prose lines
// stream to out unless JSON mode is on; the structured payload is held
// until flush, which prints it as indented JSON when JSON mode is on.
// --quiet implies --json.
func newRenderer(jsonMode, quiet bool, out io.Writer) (ops.Renderer, func() error) {
	jsonMode = jsonMode || quiet
	var last interface{}
	r := ops.Renderer{
		EmitResult: func(result interface{}) {
			last = result
		},
	}
	if !jsonMode {
		r.EmitLine = func(line string) {
			fmt.Fprintln(out, line)
		}
	}
	flush := func() error {
		if !jsonMode || last == nil {
			return nil
		}
		data, err := json.MarshalIndent(last, "", "  ")
		if err != nil {
			return fmt.Errorf("render: marshal payload: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	return r, flush
}
