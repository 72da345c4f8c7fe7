package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	appErr "judgegate/pkg/errors"
)

// Encode renders v as JSON without HTML escaping. indent may be empty.
func Encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, appErr.Wrapf(err, appErr.ReportWriteFailed, "encode report failed")
	}
	return buf.Bytes(), nil
}

// WriteReport writes the encoded document to path.
func WriteReport(path string, v any) error {
	data, err := Encode(v, "")
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// WriteGrade writes "<grade> 10" to path.
func WriteGrade(path string, grade int) error {
	return writeFile(path, []byte(fmt.Sprintf("%d %d", grade, MaxGrade)))
}

// WriteArtifacts writes the report and the grade file.
func WriteArtifacts(v any, grade int, reportPath, gradePath string) error {
	if err := WriteReport(reportPath, v); err != nil {
		return err
	}
	return WriteGrade(gradePath, grade)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return appErr.Wrapf(err, appErr.ReportWriteFailed, "write %s failed", path)
	}
	return nil
}
