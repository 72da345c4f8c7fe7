package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Auth errors
// 13000-13999: Submission & Dispatch errors
// 17000-17999: Report normalization errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError  ErrorCode = 10100
	RecordNotFound ErrorCode = 10101

	// Broker errors (10400-10499)
	BrokerUnavailable ErrorCode = 10400
	PublishFailed     ErrorCode = 10401

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Auth Errors (11000-11999) ==========

	TokenInvalid ErrorCode = 11004

	// ========== Submission & Dispatch Errors (13000-13999) ==========

	SubmissionNotFound   ErrorCode = 13000
	FileStructureInvalid ErrorCode = 13006

	// ========== Report Normalization Errors (17000-17999) ==========

	ReportFieldMissing   ErrorCode = 17000
	SeverityUnmapped     ErrorCode = 17001
	InvalidInvocation    ErrorCode = 17002
	ReportWriteFailed    ErrorCode = 17003
	ReportMalformed      ErrorCode = 17004
	MemoryCheckMalformed ErrorCode = 17005
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Database
	DatabaseError:  "Database operation failed",
	RecordNotFound: "Record not found in database",

	// Broker
	BrokerUnavailable: "Message broker unavailable",
	PublishFailed:     "Failed to publish message",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "data format is error",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Auth
	TokenInvalid: "token invalid",

	// Submission
	SubmissionNotFound:   "query file_structure failed",
	FileStructureInvalid: "get file structure failed",

	// Report
	ReportFieldMissing:   "Required field is missing in tool output",
	SeverityUnmapped:     "Tool severity has no priority mapping",
	InvalidInvocation:    "Invalid invocation",
	ReportWriteFailed:    "Failed to write report",
	ReportMalformed:      "Tool output is malformed",
	MemoryCheckMalformed: "Memory check output is malformed",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == TokenInvalid:
		return 401
	case c == NotFound, c == SubmissionNotFound, c == RecordNotFound:
		return 404
	case c == ServiceUnavailable, c == BrokerUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams:
		return 400
	default:
		return 500
	}
}
