// Package domain holds the coverage value objects shared by the parser and
// the report writers.
package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Block is one contiguous statement range from a coverage profile.
type Block struct {
	StartLine  int
	EndLine    int
	Statements int
	Count      int64
}

// LineRange is a span of uncovered source lines.
type LineRange struct {
	Start int
	End   int
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// FileCoverage aggregates the profile blocks recorded for one source file.
type FileCoverage struct {
	File   string
	Blocks []Block
}

// Statements returns the total number of instrumented statements.
func (f FileCoverage) Statements() int {
	total := 0
	for _, b := range f.Blocks {
		total += b.Statements
	}
	return total
}

// Missed returns the number of statements never executed.
func (f FileCoverage) Missed() int {
	missed := 0
	for _, b := range f.Blocks {
		if b.Count == 0 {
			missed += b.Statements
		}
	}
	return missed
}

// Percent returns statement coverage as 0-100. A file with no instrumented
// statements counts as fully covered.
func (f FileCoverage) Percent() float64 {
	total := f.Statements()
	if total == 0 {
		return 100
	}
	return float64(total-f.Missed()) / float64(total) * 100
}

// MissingRanges merges the uncovered blocks into ordered line spans.
// Overlapping and adjacent spans collapse, so consecutive uncovered blocks
// report as a single range.
func (f FileCoverage) MissingRanges() []LineRange {
	var spans []LineRange
	for _, b := range f.Blocks {
		if b.Count > 0 {
			continue
		}
		spans = append(spans, LineRange{Start: b.StartLine, End: b.EndLine})
	}
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})

	merged := spans[:1]
	for _, span := range spans[1:] {
		last := &merged[len(merged)-1]
		if span.Start <= last.End+1 {
			if span.End > last.End {
				last.End = span.End
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}

// FormatRanges renders ranges in the terminal report's form, e.g. "12-18, 24".
func FormatRanges(ranges []LineRange) string {
	if len(ranges) == 0 {
		return ""
	}
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// Summary is the parsed result of one coverage run, ordered by file name.
type Summary struct {
	Files []FileCoverage
}

// NewSummary builds a Summary from per-file blocks.
func NewSummary(files map[string][]Block) Summary {
	s := Summary{Files: make([]FileCoverage, 0, len(files))}
	for file, blocks := range files {
		s.Files = append(s.Files, FileCoverage{File: file, Blocks: blocks})
	}
	sort.Slice(s.Files, func(i, j int) bool { return s.Files[i].File < s.Files[j].File })
	return s
}

// Statements returns the instrumented statement count across all files.
func (s Summary) Statements() int {
	total := 0
	for _, f := range s.Files {
		total += f.Statements()
	}
	return total
}

// Missed returns the uncovered statement count across all files.
func (s Summary) Missed() int {
	missed := 0
	for _, f := range s.Files {
		missed += f.Missed()
	}
	return missed
}

// Percent returns overall statement coverage as 0-100.
func (s Summary) Percent() float64 {
	total := s.Statements()
	if total == 0 {
		return 100
	}
	return float64(total-s.Missed()) / float64(total) * 100
}
