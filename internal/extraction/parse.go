package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrInvalidEnvelope = errors.New("response is not a lines envelope")
	ErrNoValidLines    = errors.New("response contained no valid observations")
)

var codeFence = regexp.MustCompile("(?i)```json\\n?|\\n?```")

// EnvelopeSchema constrains the outer response object.
func EnvelopeSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"lines"},
		"properties": map[string]any{
			"lines": map[string]any{"type": "array"},
		},
	}
}

// ObservationSchema constrains a single entry of the lines array.
func ObservationSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"key", "value", "confidence"},
		"properties": map[string]any{
			"key":        map[string]any{"type": "string"},
			"value":      map[string]any{"type": "string"},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
	}
}

var (
	envelopeSchema    = mustCompile("envelope.json", EnvelopeSchema())
	observationSchema = mustCompile("observation.json", ObservationSchema())
)

func mustCompile(name string, schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// StripCodeFences removes markdown json fences the model sometimes wraps
// its answer in.
func StripCodeFences(text string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
}

// ParseResponse turns the model's text answer into observations. Entries
// that do not match ObservationSchema are dropped. On any error the
// returned slice is empty (never nil) so callers can degrade to an empty
// result.
func ParseResponse(text string) ([]Observation, error) {
	empty := []Observation{}

	var doc any
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &doc); err != nil {
		return empty, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := envelopeSchema.Validate(doc); err != nil {
		return empty, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	lines := doc.(map[string]any)["lines"].([]any)
	out := make([]Observation, 0, len(lines))
	for _, raw := range lines {
		if observationSchema.Validate(raw) != nil {
			continue
		}
		entry := raw.(map[string]any)
		out = append(out, Observation{
			Key:        entry["key"].(string),
			Value:      entry["value"].(string),
			Confidence: entry["confidence"].(float64),
		})
	}
	if len(out) == 0 {
		return empty, ErrNoValidLines
	}
	return out, nil
}
