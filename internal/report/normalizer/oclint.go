package normalizer

import (
	"judgegate/internal/report"
	appErr "judgegate/pkg/errors"
)

// Oclint passes an oclint JSON report through. Only the priority summary is
// read; every other key is kept as is and the type tag is set.
func Oclint(data []byte, _ int) (*Result, error) {
	var doc map[string]any
	if err := decodeJSON(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, appErr.Newf(appErr.ReportMalformed, "report is not an object")
	}

	v, err := object(doc).value("summary")
	if err != nil {
		return nil, err
	}
	summary, ok := v.(map[string]any)
	if !ok {
		return nil, appErr.Newf(appErr.ReportMalformed, "summary is not an object")
	}
	v, err = object(summary).value("numberOfViolationsWithPriority")
	if err != nil {
		return nil, err
	}
	entries, ok := v.([]any)
	if !ok {
		return nil, appErr.Newf(appErr.ReportMalformed, "numberOfViolationsWithPriority is not a list")
	}

	var counts [report.NumPriorities]int
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			return nil, appErr.Newf(appErr.ReportMalformed, "priority entry is not an object")
		}
		p, err := object(entry).integer("priority")
		if err != nil {
			return nil, err
		}
		n, err := object(entry).integer("number")
		if err != nil {
			return nil, err
		}
		if !report.Priority(p).Valid() {
			return nil, appErr.Newf(appErr.ReportMalformed, "priority %d out of range", p)
		}
		if n < 0 {
			return nil, appErr.Newf(appErr.ReportMalformed, "priority %d has negative count %d", p, n)
		}
		counts[p] += n
	}

	doc["type"] = "oclint"
	return &Result{Document: doc, Grade: report.Grade(counts)}, nil
}
