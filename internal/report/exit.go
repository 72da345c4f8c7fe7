package report

import (
	appErr "judgegate/pkg/errors"
)

// Process exit codes read by the judging worker.
const (
	ExitAccepted       = 42
	ExitWrongAnswer    = 43
	ExitPartialCorrect = 54
	ExitInternalError  = 1
	ExitBadInvocation  = 2

	// memcheck does not grade; it only reports whether errors were found.
	ExitMemoryClean  = 0
	ExitMemoryErrors = 1
)

// ExitForGrade maps a grade to the verdict exit code.
func ExitForGrade(grade int) int {
	switch {
	case grade >= MaxGrade:
		return ExitAccepted
	case grade <= 0:
		return ExitWrongAnswer
	default:
		return ExitPartialCorrect
	}
}

// ExitCodeFor maps a normalizer failure to its exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch appErr.GetCode(err) {
	case appErr.ReportFieldMissing, appErr.SeverityUnmapped, appErr.ReportMalformed:
		return ExitInternalError
	default:
		return ExitBadInvocation
	}
}
