package auth

import (
	"encoding/json"
	"strings"

	"github.com/goliatone/go-errors"
)

// UAVTypes accepts either a JSON array of tags or a single string.
type UAVTypes []string

func (u *UAVTypes) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*u = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "uavTypes must be a list of strings")
		}
		*u = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "uavTypes must be a string or a list of strings")
	}
	*u = UAVTypes{single}
	return nil
}

// Join flattens the tags into the stored ", " separated form
func (u UAVTypes) Join() string {
	return strings.Join(u, ", ")
}
