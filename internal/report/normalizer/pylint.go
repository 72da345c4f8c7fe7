package normalizer

import (
	"strings"

	"judgegate/internal/report"
)

// Pylint normalizes `pylint --output-format=json` output.
func Pylint(data []byte, files int) (*Result, error) {
	items, err := decodeObjects(data)
	if err != nil {
		return nil, err
	}

	violations := make([]report.Violation, 0, len(items))
	for _, item := range items {
		v, err := pylintViolation(item)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	r, err := report.Build("pylint", files, violations, moduleRoot)
	if err != nil {
		return nil, err
	}
	return gradedResult(r), nil
}

func pylintViolation(item object) (report.Violation, error) {
	var v report.Violation

	path, err := item.str("path")
	if err != nil {
		return v, err
	}
	obj, err := item.str("obj")
	if err != nil {
		return v, err
	}
	v.Path = modulePath(path, obj)

	if v.StartLine, err = item.integer("line"); err != nil {
		return v, err
	}
	if v.StartColumn, err = item.integer("column"); err != nil {
		return v, err
	}
	v.EndLine, v.EndColumn = v.StartLine, v.StartColumn

	if v.Rule, err = item.str("symbol"); err != nil {
		return v, err
	}
	if v.Category, err = item.str("type"); err != nil {
		return v, err
	}
	if v.Priority, err = report.PylintSeverities.Priority(v.Category); err != nil {
		return v, err
	}
	if v.Message, err = item.str("message"); err != nil {
		return v, err
	}
	return v, nil
}

// modulePath drops the file extension and appends the reported object, so
// pkg/mod.py with obj Cls.fn becomes pkg/mod.Cls.fn.
func modulePath(path, obj string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		path = path[:i]
	}
	if obj == "" {
		return path
	}
	return path + "." + obj
}

// moduleRoot is the violated-file identity: the path up to the first dot.
func moduleRoot(path string) string {
	if i := strings.Index(path, "."); i >= 0 {
		return path[:i]
	}
	return path
}
