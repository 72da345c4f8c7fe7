package normalizer

import (
	"fmt"

	"judgegate/internal/report"
)

// Hlint normalizes `hlint --json` output.
func Hlint(data []byte, files int) (*Result, error) {
	items, err := decodeObjects(data)
	if err != nil {
		return nil, err
	}

	violations := make([]report.Violation, 0, len(items))
	for _, item := range items {
		v, err := hlintViolation(item)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	r, err := report.Build("hlint", files, violations, nil)
	if err != nil {
		return nil, err
	}
	return gradedResult(r), nil
}

func hlintViolation(item object) (report.Violation, error) {
	var (
		v   report.Violation
		err error
	)
	if v.Path, err = item.str("file"); err != nil {
		return v, err
	}
	if v.StartLine, err = item.integer("startLine"); err != nil {
		return v, err
	}
	if v.StartColumn, err = item.integer("startColumn"); err != nil {
		return v, err
	}
	if v.EndLine, err = item.integer("endLine"); err != nil {
		return v, err
	}
	if v.EndColumn, err = item.integer("endColumn"); err != nil {
		return v, err
	}
	if v.Rule, err = item.str("hint"); err != nil {
		return v, err
	}
	if v.Category, err = item.str("severity"); err != nil {
		return v, err
	}
	if v.Priority, err = report.HlintSeverities.Priority(v.Category); err != nil {
		return v, err
	}
	from, err := item.str("from")
	if err != nil {
		return v, err
	}
	to, err := item.str("to")
	if err != nil {
		return v, err
	}
	v.Message = fmt.Sprintf("你可以将 '%s' 修改为 '%s'", from, to)
	return v, nil
}
