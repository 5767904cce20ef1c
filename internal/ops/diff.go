package ops

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffEngine is shared across calls; diffmatchpatch instances are
// stateless after configuration.
var diffEngine = func() *diffmatchpatch.DiffMatchPatch {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return dmp
}()

// UnifiedDiff renders a line-based unified diff between old and new
// whole-file content, for --emit-diff / --preview-edit output.
func UnifiedDiff(file, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}

	oldChars, newChars, lines := diffEngine.DiffLinesToChars(oldContent, newContent)
	diffs := diffEngine.DiffCharsToLines(diffEngine.DiffMain(oldChars, newChars, false), lines)

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", file)
	fmt.Fprintf(&b, "+++ b/%s\n", file)

	oldLine, newLine := 1, 1
	for _, d := range diffs {
		segLines := splitKeepingLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, l := range segLines {
				fmt.Fprintf(&b, "-%d: %s\n", oldLine, l)
				oldLine++
			}
		case diffmatchpatch.DiffInsert:
			for _, l := range segLines {
				fmt.Fprintf(&b, "+%d: %s\n", newLine, l)
				newLine++
			}
		default:
			// Context runs collapse to their boundary lines so a large
			// file does not drown the hunk.
			for i, l := range segLines {
				if i < 2 || i >= len(segLines)-2 {
					fmt.Fprintf(&b, " %d: %s\n", oldLine, l)
				} else if i == 2 && len(segLines) > 4 {
					b.WriteString(" ...\n")
				}
				oldLine++
				newLine++
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func splitKeepingLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
