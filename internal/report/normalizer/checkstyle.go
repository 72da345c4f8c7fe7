package normalizer

import (
	"judgegate/internal/report"
	appErr "judgegate/pkg/errors"

	"github.com/clbanning/mxj/v2"
)

// mxj keys attributes with this prefix.
const attr = "-"

// Checkstyle normalizes checkstyle XML output. A file element without
// error children is a clean file.
func Checkstyle(data []byte, files int) (*Result, error) {
	root, err := xmlRoot(data, "checkstyle", appErr.ReportMalformed)
	if err != nil {
		return nil, err
	}

	var violations []report.Violation
	for _, f := range asList(root["file"]) {
		file, err := asObject(f, "file")
		if err != nil {
			return nil, err
		}
		name, err := file.str(attr + "name")
		if err != nil {
			return nil, err
		}
		for _, e := range asList(file["error"]) {
			el, err := asObject(e, "error")
			if err != nil {
				return nil, err
			}
			v, err := checkstyleViolation(name, el)
			if err != nil {
				return nil, err
			}
			violations = append(violations, v)
		}
	}
	r, err := report.Build("checkstyle", files, violations, nil)
	if err != nil {
		return nil, err
	}
	return gradedResult(r), nil
}

func checkstyleViolation(path string, el object) (report.Violation, error) {
	v := report.Violation{Path: path}
	line, err := el.integer(attr + "line")
	if err != nil {
		return v, err
	}
	v.StartLine, v.EndLine = line, line

	if v.Rule, err = el.str(attr + "source"); err != nil {
		return v, err
	}
	severity, err := el.str(attr + "severity")
	if err != nil {
		return v, err
	}
	if v.Priority, err = report.CheckstyleSeverities.Priority(severity); err != nil {
		return v, err
	}
	if v.Message, err = el.str(attr + "message"); err != nil {
		return v, err
	}
	return v, nil
}

// xmlRoot parses data and returns the named root element. A missing root is
// reported as a missing field; undecodable input is classified with code.
func xmlRoot(data []byte, name string, code appErr.ErrorCode) (object, error) {
	doc, err := mxj.NewMapXml(data)
	if err != nil {
		return nil, appErr.Wrapf(err, code, "decode xml failed")
	}
	v, ok := doc[name]
	if !ok {
		return nil, appErr.MissingField(name)
	}
	return asObject(v, name)
}
