// Package report defines the normalized static analysis report shared by all
// tool adapters, the grading formula and the exit-code contract.
package report

import appErr "judgegate/pkg/errors"

// Priority ranks a violation from 0 (most severe) to 3 (least severe).
type Priority int

const (
	PriorityBlocker Priority = 0
	PriorityMajor   Priority = 1
	PriorityMinor   Priority = 2
	PriorityInfo    Priority = 3

	// NumPriorities is the number of priority buckets in a summary.
	NumPriorities = 4
)

// Valid reports whether p is inside 0..3.
func (p Priority) Valid() bool {
	return p >= PriorityBlocker && p <= PriorityInfo
}

// Violation is one finding in the normalized schema.
type Violation struct {
	Path        string   `json:"path"`
	StartLine   int      `json:"startLine"`
	StartColumn int      `json:"startColumn"`
	EndLine     int      `json:"endLine"`
	EndColumn   int      `json:"endColumn"`
	Rule        string   `json:"rule"`
	Category    string   `json:"category,omitempty"`
	Priority    Priority `json:"priority"`
	Message     string   `json:"message"`
}

// PriorityCount is the number of violations with one priority.
type PriorityCount struct {
	Priority Priority `json:"priority"`
	Number   int      `json:"number"`
}

// Summary aggregates a report.
type Summary struct {
	NumberOfFiles                  int             `json:"numberOfFiles"`
	NumberOfFilesWithViolations    int             `json:"numberOfFilesWithViolations"`
	NumberOfViolationsWithPriority []PriorityCount `json:"numberOfViolationsWithPriority"`
}

// Report is the normalized document written next to the grade file.
type Report struct {
	Summary   Summary     `json:"summary"`
	Violation []Violation `json:"violation"`
	Type      string      `json:"type"`
}

// Build assembles a report for tool. identity maps a violation path to the
// unit counted in numberOfFilesWithViolations; nil counts distinct paths.
// A violation with a priority outside 0..3 is rejected.
func Build(tool string, files int, violations []Violation, identity func(path string) string) (*Report, error) {
	if violations == nil {
		violations = []Violation{}
	}
	if identity == nil {
		identity = func(path string) string { return path }
	}

	seen := make(map[string]struct{}, len(violations))
	var counts [NumPriorities]int
	for i, v := range violations {
		if !v.Priority.Valid() {
			return nil, appErr.Newf(appErr.ReportMalformed, "violation %d has priority %d out of range", i, v.Priority).
				WithDetail("tool", tool)
		}
		seen[identity(v.Path)] = struct{}{}
		counts[v.Priority]++
	}

	return &Report{
		Summary: Summary{
			NumberOfFiles:                  files,
			NumberOfFilesWithViolations:    len(seen),
			NumberOfViolationsWithPriority: priorityCounts(counts),
		},
		Violation: violations,
		Type:      tool,
	}, nil
}

// Counts returns the per-priority totals of the summary.
func (s Summary) Counts() [NumPriorities]int {
	var counts [NumPriorities]int
	for _, pc := range s.NumberOfViolationsWithPriority {
		if pc.Priority.Valid() {
			counts[pc.Priority] += pc.Number
		}
	}
	return counts
}

func priorityCounts(counts [NumPriorities]int) []PriorityCount {
	out := make([]PriorityCount, 0, NumPriorities)
	for p, n := range counts {
		out = append(out, PriorityCount{Priority: Priority(p), Number: n})
	}
	return out
}
