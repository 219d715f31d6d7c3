package schema

import (
	"encoding/json"

	apperrors "resumelens/internal/errors"
	"resumelens/internal/types"
)

// NormalizeJobRecord decodes a job payload that may use the legacy
// "company_name" field in place of "company". Older clients still send the
// legacy name; both spell the same field and "company" wins when both appear.
func NormalizeJobRecord(raw []byte) (*types.SimplifiedJob, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, apperrors.NewSchemaViolation("job: body is not a JSON object", err)
	}

	if _, ok := generic["company"]; !ok {
		if legacy, ok := generic["company_name"]; ok {
			generic["company"] = legacy
		}
	}
	delete(generic, "company_name")

	merged, err := json.Marshal(generic)
	if err != nil {
		return nil, apperrors.NewSchemaViolation("job: could not normalize body", err)
	}

	var job types.SimplifiedJob
	if err := json.Unmarshal(merged, &job); err != nil {
		return nil, apperrors.NewSchemaViolation("job: body does not match the job contract", err)
	}
	return &job, nil
}
