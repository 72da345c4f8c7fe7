package normalizer

import (
	"io"
	"os"
	"strconv"
	"strings"

	"judgegate/internal/report"
	appErr "judgegate/pkg/errors"
)

// Run normalizes a graded tool output. args are <tool output> <file count>
// <report path> <grade path>. It returns the process exit code; err explains
// any code outside the verdict range.
func Run(tool string, args []string) (int, error) {
	fn, ok := Lookup(tool)
	if !ok {
		return report.ExitBadInvocation, appErr.Invocation("unknown tool %q", tool)
	}
	if len(args) != 4 {
		return report.ExitBadInvocation, appErr.Invocation("%s: 4 arguments needed, %d given", tool, len(args))
	}
	files, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return report.ExitBadInvocation, appErr.Invocation("%s: file number %q is not an integer", tool, args[1])
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return report.ExitBadInvocation, appErr.Wrapf(err, appErr.InvalidInvocation, "read %s failed", args[0])
	}

	res, err := fn(data, files)
	if err != nil {
		return report.ExitCodeFor(err), err
	}
	if err := report.WriteArtifacts(res.Document, res.Grade, args[2], args[3]); err != nil {
		return report.ExitCodeFor(err), err
	}
	return report.ExitForGrade(res.Grade), nil
}

// RunMemcheck normalizes valgrind XML. args are <xml> <report path>. When
// errors are found the cleaned list goes to the report path and to stderr.
func RunMemcheck(args []string, stderr io.Writer) (int, error) {
	if len(args) != 2 {
		return report.ExitBadInvocation, appErr.Invocation("memcheck: 2 arguments needed, %d given", len(args))
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return report.ExitBadInvocation, appErr.Wrapf(err, appErr.InvalidInvocation, "read %s failed", args[0])
	}

	errs, err := Memcheck(data)
	if err != nil {
		return report.ExitCodeFor(err), err
	}
	if errs == nil {
		return report.ExitMemoryClean, nil
	}

	out, err := report.Encode(errs, "    ")
	if err != nil {
		return report.ExitCodeFor(err), err
	}
	if err := os.WriteFile(args[1], out, 0o644); err != nil {
		return report.ExitBadInvocation, appErr.Wrapf(err, appErr.ReportWriteFailed, "write %s failed", args[1])
	}
	if stderr != nil {
		_, _ = stderr.Write(out)
	}
	return report.ExitMemoryErrors, nil
}
