package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/namedtensor/internal/dimname"
)

// marshalJSON converts v to compact JSON TEXT for storage.
func marshalJSON(field string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", field, err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	out := []string{}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal inputs: %w", err)
	}
	return out, nil
}

// unmarshalShape keeps null (failed op) and [] (rank 0) apart.
func unmarshalShape(data string) ([]int64, error) {
	var out []int64
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal shape: %w", err)
	}
	return out, nil
}

func unmarshalNames(data string) (dimname.Optional, error) {
	var out dimname.Optional
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return dimname.None(), fmt.Errorf("unmarshal names: %w", err)
	}
	return out, nil
}
