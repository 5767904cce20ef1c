package ops

import (
	"regexp"
	"strings"
)

// SearchHit is one matching line from --search-text.
type SearchHit struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// SearchResult is the JSON payload for --search-text. Search operates
// over the one in-memory source string; there is no directory walking
// here.
type SearchResult struct {
	Operation string      `json:"operation"`
	File      string      `json:"file"`
	Query     string      `json:"query"`
	Hits      []SearchHit `json:"hits"`
	Truncated bool        `json:"truncated"`
}

// SearchText scans ctx.Source.Text for query, treated as a regular
// expression, returning up to opts.SearchLimit hits (0 = unlimited)
// with opts.SearchContext lines of surrounding context each.
func SearchText(ctx *Context, query string, opts Options, r Renderer) (SearchResult, error) {
	re, err := regexp.Compile(query)
	if err != nil {
		// Fall back to a literal substring search if query is not a
		// valid regexp, so a plain string still works as a query.
		re = regexp.MustCompile(regexp.QuoteMeta(query))
	}

	lines := strings.Split(ctx.Source.Text, "\n")
	result := SearchResult{Operation: "search-text", File: ctx.Source.Path, Query: query}

	limit := opts.SearchLimit
	for i, line := range lines {
		loc := re.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if limit > 0 && len(result.Hits) >= limit {
			result.Truncated = true
			break
		}
		hit := SearchHit{Line: i + 1, Column: loc[0] + 1, Text: line}
		if opts.SearchContext > 0 {
			hit.Context = contextLines(lines, i, opts.SearchContext)
		}
		result.Hits = append(result.Hits, hit)
		r.line("%d:%d: %s", hit.Line, hit.Column, hit.Text)
	}
	r.result(result)
	return result, nil
}

func contextLines(lines []string, idx, pad int) string {
	start := idx - pad
	if start < 0 {
		start = 0
	}
	end := idx + pad + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}
