package filter

import "encoding/json"

// ToJSON encodes a global filter the way the dashboard consumes it.
func ToJSON(d Defaults) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// FromJSON decodes a global filter payload.
func FromJSON(data []byte) (Defaults, error) {
	var d Defaults
	if err := json.Unmarshal(data, &d); err != nil {
		return Defaults{}, err
	}
	return d, nil
}
