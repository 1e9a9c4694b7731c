package orglookup

import (
	"encoding/json"
	"fmt"
)

var (
	ErrNotAnObject = fmt.Errorf("response body is not a JSON object")
	ErrNoOrgID     = fmt.Errorf("no organization ID field in response")
)

// ExtractOrgID finds the organization ID in an organization API response.
// Fields are checked in order: `id`, `guid`, then `res.guid`. The first field that is
// present wins, even if its value turns out to be unusable.
func ExtractOrgID(body []byte) (string, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}
	if data == nil {
		return "", ErrNotAnObject
	}

	if raw, ok := data["id"]; ok {
		return asID("id", raw)
	}

	if raw, ok := data["guid"]; ok {
		return asID("guid", raw)
	}

	if raw, ok := data["res"]; ok {
		var res map[string]json.RawMessage
		if err := json.Unmarshal(raw, &res); err == nil {
			if guid, ok := res["guid"]; ok {
				return asID("res.guid", guid)
			}
		}
	}

	return "", ErrNoOrgID
}

func asID(field string, raw json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", fmt.Errorf("%w: field %q is not a string", ErrNoOrgID, field)
	}

	if id == "" {
		return "", fmt.Errorf("%w: field %q is empty", ErrNoOrgID, field)
	}

	return id, nil
}
