package nuclia

import (
	"encoding/json"
	"strings"

	"github.com/nadinev6/RAGgle/internal/log"
)

// FormatMetadata converts a flat metadata map into Nuclia's nested
// usermetadata structure. Empty keys and values are skipped.
// Returns nil when nothing remains.
func FormatMetadata(metadata map[string]string) *UserMetadata {
	if len(metadata) == 0 {
		return nil
	}

	fields := make(map[string]FieldValue, len(metadata))
	for key, value := range metadata {
		if key == "" || value == "" {
			continue
		}
		fields[key] = FieldValue{Value: value}
	}

	if len(fields) == 0 {
		return nil
	}
	return &UserMetadata{Fields: fields}
}

// FlattenMetadata is the inverse of FormatMetadata.
func FlattenMetadata(um *UserMetadata) map[string]string {
	flattened := make(map[string]string)
	if um == nil {
		return flattened
	}
	for key, field := range um.Fields {
		flattened[key] = field.Value
	}
	return flattened
}

// parseAnswerStream recovers structured product data from an answer body.
//
// The provider returns the model answer as concatenated JSON objects
// (JSON-lines style), sometimes followed by trailing prose. Objects are
// decoded one at a time until decoding fails; each object contributes either
// a "products" array, a bare product object (has both name and price), or a
// summary. Summaries are joined with " | ".
//
// Returns nil when no products could be recovered.
func parseAnswerStream(answer string, logger log.Logger) *StructuredData {
	answer = strings.TrimLeft(answer, " \t\r\n")
	if answer == "" {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(answer))

	var objects []map[string]json.RawMessage
	for {
		var obj map[string]json.RawMessage
		if err := dec.Decode(&obj); err != nil {
			// Trailing prose or a truncated object: stop parsing, keep what we have.
			if len(objects) == 0 {
				logger.Debug("answer is not a JSON stream", "error", err)
			}
			break
		}
		objects = append(objects, obj)
	}

	result := &StructuredData{}
	var summaries []string

	for _, obj := range objects {
		if raw, ok := obj["products"]; ok {
			var products []Product
			if err := json.Unmarshal(raw, &products); err != nil {
				logger.Warn("skipping malformed products array", "error", err)
			} else {
				result.Products = append(result.Products, products...)
			}
		} else if hasKeys(obj, "name", "price") {
			// The object itself is a product.
			var p Product
			if err := unmarshalObject(obj, &p); err != nil {
				logger.Warn("skipping malformed product object", "error", err)
			} else {
				result.Products = append(result.Products, p)
			}
		}

		if raw, ok := obj["summary"]; ok {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s != "" {
				summaries = append(summaries, s)
			}
		}
	}

	result.Summary = strings.Join(summaries, " | ")

	if len(result.Products) == 0 {
		return nil
	}
	return result
}

// hasKeys reports whether every named key is present in the object.
func hasKeys(obj map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

// unmarshalObject re-marshals a decoded object into a typed value.
func unmarshalObject(obj map[string]json.RawMessage, v any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
