package ai

import (
	"encoding/json"
	"strings"
)

const snippetContextLines = 5
const snippetLineCap = 200
const snippetsTotalCap = 10 * 1024
const maxSnippetFrames = 3

// SnippetLine is one line of an extracted snippet.
type SnippetLine struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	IsError bool   `json:"isError"`
}

// Snippet is the ±5-line window around an error location.
type Snippet struct {
	Filename string        `json:"filename"`
	Line     int           `json:"line"`
	Lines    []SnippetLine `json:"lines"`
}

// ExtractSnippet returns up to 5 lines before and after the 1-based error
// line, each capped to 200 chars, with the error line flagged.
func ExtractSnippet(filename, source string, line int) Snippet {
	lines := strings.Split(source, "\n")
	start := line - 1 - snippetContextLines
	if start < 0 {
		start = 0
	}
	end := line - 1 + snippetContextLines
	if end > len(lines)-1 {
		end = len(lines) - 1
	}
	var out []SnippetLine
	for i := start; i <= end && i >= 0 && i < len(lines); i++ {
		out = append(out, SnippetLine{
			Line:    i + 1,
			Text:    truncate(lines[i], snippetLineCap),
			IsError: i+1 == line,
		})
	}
	return Snippet{Filename: filename, Line: line, Lines: out}
}

// ExtractSourceSnippets considers at most the top 3 frames, looks up each
// frame's precomputed source map in cache, extracts a snippet from
// sourcesContent[0], and accumulates snippets until their JSON-serialized
// total would exceed 10 KiB.
func ExtractSourceSnippets(frames []Frame, maps map[string]*SourceMap) []Snippet {
	var snippets []Snippet
	total := 0
	limit := maxSnippetFrames
	if len(frames) < limit {
		limit = len(frames)
	}
	for i := 0; i < limit; i++ {
		f := frames[i]
		sm, ok := maps[f.Filename]
		if !ok || len(sm.SourcesContent) == 0 {
			continue
		}
		snip := ExtractSnippet(f.Filename, sm.SourcesContent[0], f.Line)
		encoded, err := json.Marshal(snip)
		if err != nil {
			continue
		}
		if total+len(encoded) > snippetsTotalCap {
			break
		}
		total += len(encoded)
		snippets = append(snippets, snip)
	}
	return snippets
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
