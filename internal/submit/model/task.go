package model

import (
	"encoding/json"
	"strconv"
)

// UpdatedAtLayout is the wire format of Task.UpdatedAt.
const UpdatedAtLayout = "2006-01-02 15:04:05"

// ProblemType identifies how a worker judges a submission.
type ProblemType int

const (
	ProblemProgramming  ProblemType = 0
	ProblemChoice       ProblemType = 1
	ProblemOutput       ProblemType = 4
	ProblemBlankFilling ProblemType = 5
)

func (p ProblemType) String() string {
	switch p {
	case ProblemProgramming:
		return "programming"
	case ProblemChoice:
		return "choice"
	case ProblemOutput:
		return "output"
	case ProblemBlankFilling:
		return "program blank filling"
	default:
		return "type " + strconv.Itoa(int(p))
	}
}

// Submission types carried in Task.SubmissionType.
const (
	SubmissionStudent  = "0"
	SubmissionStandard = "1"
)

// SubmissionRequest is the validated intake body. Every value has been
// coerced to a string and unknown keys are dropped.
type SubmissionRequest struct {
	Token          string
	SubmissionType string
	SubmissionID   string
	StandardID     string
	ProblemType    string
}

// Task is the message published for the judging workers.
// Config and Detail hold a JSON document or null.
type Task struct {
	SubmissionID   string          `json:"submissionId"`
	StandardID     string          `json:"standardId"`
	ProblemType    ProblemType     `json:"problemType"`
	SubmissionType string          `json:"submissionType"`
	Config         json.RawMessage `json:"config"`
	Detail         json.RawMessage `json:"detail"`
	UpdatedAt      string          `json:"updated_at"`
}

// SubmissionRecord is a joined submission/problem row. Config and Detail
// are nil for SQL NULL; IsStandard is only set by the rejudge lookup.
type SubmissionRecord struct {
	SubID      string
	ProbID     string
	Config     *string
	Detail     *string
	UpdatedAt  string
	PTypeID    string
	IsStandard string
}
