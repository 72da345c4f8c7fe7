// Package normalizer converts the output of individual analysis tools into
// the shared report schema.
package normalizer

import (
	"sort"

	"judgegate/internal/report"
)

// Result is a normalized document and the grade derived from it.
type Result struct {
	Document any
	Grade    int
}

// Func normalizes one tool output. files is the caller-supplied number of
// analyzed source files.
type Func func(data []byte, files int) (*Result, error)

var graded = map[string]Func{
	"hlint":      Hlint,
	"checkstyle": Checkstyle,
	"pylint":     Pylint,
	"oclint":     Oclint,
}

// Lookup returns the normalizer registered for tool.
func Lookup(tool string) (Func, bool) {
	fn, ok := graded[tool]
	return fn, ok
}

// Tools lists the graded tools in name order.
func Tools() []string {
	names := make([]string, 0, len(graded))
	for name := range graded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func gradedResult(r *report.Report) *Result {
	return &Result{Document: r, Grade: report.Grade(r.Summary.Counts())}
}
