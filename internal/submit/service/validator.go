package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"judgegate/internal/submit/model"
	appErr "judgegate/pkg/errors"
)

// requiredBodyKeys must all be present in an intake body.
var requiredBodyKeys = []string{"token", "submissionType", "submissionId", "standardId", "problemType"}

// ParseSubmissionBody decodes a JSON object, checks that every required key is
// present and coerces each value to its string form. Other keys are dropped.
func ParseSubmissionBody(body []byte) (model.SubmissionRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return model.SubmissionRequest{}, appErr.Wrapf(err, appErr.InvalidFormat, "decode body failed: %v", err)
	}
	if raw == nil {
		return model.SubmissionRequest{}, appErr.Newf(appErr.InvalidFormat, "body is not an object")
	}

	values := make(map[string]string, len(requiredBodyKeys))
	for _, key := range requiredBodyKeys {
		v, ok := raw[key]
		if !ok {
			return model.SubmissionRequest{}, appErr.Newf(appErr.InvalidFormat, "%s is required", key).
				WithDetail("field", key)
		}
		s, err := coerceString(v)
		if err != nil {
			return model.SubmissionRequest{}, appErr.Wrapf(err, appErr.InvalidFormat, "%s: %v", key, err)
		}
		values[key] = s
	}

	return model.SubmissionRequest{
		Token:          values["token"],
		SubmissionType: values["submissionType"],
		SubmissionID:   values["submissionId"],
		StandardID:     values["standardId"],
		ProblemType:    values["problemType"],
	}, nil
}

// coerceString renders a decoded JSON value as text: strings as-is, numbers
// as their literal, booleans as true/false, null as empty and containers as
// compact JSON.
func coerceString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
