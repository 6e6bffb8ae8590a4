package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BerylCAtieno/persona-schedule-generator/internal/models"
	"github.com/xeipuuv/gojsonschema"
)

var promptSetSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"prompt":   map[string]interface{}{"type": "string"},
		"prefix":   map[string]interface{}{"type": "string"},
		"suffix":   map[string]interface{}{"type": "string"},
		"template": map[string]interface{}{"type": "string"},
	},
	"required": []interface{}{"prompt"},
}

var promptTableSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		models.PromptProfile:  promptSetSchema,
		models.PromptEvent:    promptSetSchema,
		models.PromptSchedule: promptSetSchema,
	},
	"required": []interface{}{models.PromptProfile, models.PromptEvent, models.PromptSchedule},
}

var exampleTableSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		models.PromptProfile: map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "string"},
			},
		},
		models.PromptSchedule: map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"persona":          map[string]interface{}{"type": "string"},
					"event_example":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"schedule_example": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "object"}},
				},
				"required": []interface{}{"persona", "event_example", "schedule_example"},
			},
		},
	},
	"required": []interface{}{models.PromptProfile, models.PromptSchedule},
}

// LoadTables reads the prompt and example documents. Both must exist and
// match their expected shape.
func LoadTables(promptsPath, examplesPath string) (models.Tables, error) {
	var tables models.Tables

	if err := readDocument(promptsPath, promptTableSchema, &tables.Prompts); err != nil {
		return models.Tables{}, fmt.Errorf("prompts: %w", err)
	}
	if err := readDocument(examplesPath, exampleTableSchema, &tables.Examples); err != nil {
		return models.Tables{}, fmt.Errorf("examples: %w", err)
	}
	return tables, nil
}

func readDocument(path string, schema map[string]interface{}, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		return fmt.Errorf("%s: invalid document: %s", path, strings.Join(problems, "; "))
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
