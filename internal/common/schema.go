package common

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildConfigJSONSchema returns the JSON-Schema for config files as a generic map.
// Unknown keys are tolerated so older files keep loading.
func BuildConfigJSONSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }
	props := map[string]any{
		"watch_folder": map[string]any{"type": "string", "minLength": 1},
		"output_csv":   map[string]any{"type": "string", "minLength": 1},
		"file_extensions": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string", "minLength": 1},
		},
		"watch_mode":         map[string]any{"type": "boolean"},
		"log_level":          str(),
		"log_format":         map[string]any{"type": "string", "enum": []string{"text", "json"}},
		"readiness_max_wait": durationProp(),
		"readiness_interval": durationProp(),
		"min_text_length":    map[string]any{"type": "integer", "minimum": 0},
		"text_engine":        map[string]any{"type": "string", "enum": []string{EngineNative, EnginePdftotext}},
		"pdftotext_path":     map[string]any{"type": "string", "minLength": 1},
		"workers":            map[string]any{"type": "integer", "minimum": 1},
		"process_timeout":    durationProp(),
		"shutdown_grace":     durationProp(),
		"debounce":           durationProp(),
		"journal_dsn":        str(),
		"rescan_schedule":    str(),
		"health_addr":        str(),
		"metrics_addr":       str(),
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func durationProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$|^0$`,
	}
}

// ValidateAgainstSchema validates a decoded document against schemaMap.
func ValidateAgainstSchema(schemaMap map[string]any, doc any) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}
