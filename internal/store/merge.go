package store

import (
	"encoding/json"
	"fmt"
)

// mergeJSON overlays update onto an existing JSON object. Keys absent from
// update are left untouched; keys present overwrite, including explicit
// nulls. A nil existing document yields the update alone.
func mergeJSON(existing []byte, update map[string]any) ([]byte, error) {
	doc := make(map[string]any, len(update))
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("decode existing document: %w", err)
		}
	}
	for k, v := range update {
		doc[k] = v
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode merged document: %w", err)
	}
	return out, nil
}

// asFields converts any JSON-marshalable value into a field map for merging.
func asFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}
