package report

import (
	appErr "judgegate/pkg/errors"
)

// SeverityTable maps one tool's severity names to priorities.
type SeverityTable struct {
	tool       string
	priorities map[string]Priority
}

// NewSeverityTable creates a table for tool.
func NewSeverityTable(tool string, priorities map[string]Priority) SeverityTable {
	return SeverityTable{tool: tool, priorities: priorities}
}

// Priority looks up severity. Unknown names are an error, never a default.
func (t SeverityTable) Priority(severity string) (Priority, error) {
	p, ok := t.priorities[severity]
	if !ok {
		return 0, appErr.UnmappedSeverity(t.tool, severity)
	}
	return p, nil
}

var (
	HlintSeverities = NewSeverityTable("hlint", map[string]Priority{
		"Error":      PriorityBlocker,
		"Warning":    PriorityMajor,
		"Suggestion": PriorityInfo,
	})

	CheckstyleSeverities = NewSeverityTable("checkstyle", map[string]Priority{
		"ignore":  PriorityInfo,
		"info":    PriorityMinor,
		"warning": PriorityMajor,
		"error":   PriorityBlocker,
	})

	PylintSeverities = NewSeverityTable("pylint", map[string]Priority{
		"fatal":      PriorityBlocker,
		"error":      PriorityBlocker,
		"warning":    PriorityMajor,
		"convention": PriorityInfo,
		"refactor":   PriorityMinor,
	})
)
