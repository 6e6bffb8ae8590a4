package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/persona-schedule-generator/internal/models"
	"github.com/xeipuuv/gojsonschema"
)

// Violation describes one field that did not match the schema.
type Violation struct {
	Field       string
	Description string
}

// ValidationError is returned when model output does not conform to a schema.
type ValidationError struct {
	Schema     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Description))
	}
	return fmt.Sprintf("output does not match %s schema: %s", e.Schema, strings.Join(parts, "; "))
}

// Validate checks doc against s. A nil error means doc conforms.
func Validate(s Schema, doc []byte) error {
	name, _ := s["title"].(string)

	if !json.Valid(doc) {
		return &ValidationError{
			Schema:     name,
			Violations: []Violation{{Field: "(root)", Description: "invalid JSON"}},
		}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(map[string]interface{}(s)), gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Schema: name}
	for _, re := range result.Errors() {
		verr.Violations = append(verr.Violations, Violation{
			Field:       fieldOf(re),
			Description: re.Description(),
		})
	}
	return verr
}

// fieldOf names the missing property for "required" errors, which gojsonschema
// reports against the parent object.
func fieldOf(re gojsonschema.ResultError) string {
	field := re.Field()
	if re.Type() != "required" {
		return field
	}
	prop, ok := re.Details()["property"].(string)
	if !ok {
		return field
	}
	if field == "(root)" {
		return prop
	}
	return field + "." + prop
}

func decode[T any](s Schema, text string) (T, error) {
	var out T
	doc := []byte(Extract(text))
	if err := Validate(s, doc); err != nil {
		return out, err
	}
	if err := json.Unmarshal(doc, &out); err != nil {
		return out, fmt.Errorf("decode %v: %w", s["title"], err)
	}
	return out, nil
}

// DecodeEventSet parses a model answer into an EventSet.
func DecodeEventSet(text string) (models.EventSet, error) {
	return decode[models.EventSet](EventSet, text)
}

// DecodeScheduleEntry validates a single entry document.
func DecodeScheduleEntry(raw []byte) (models.ScheduleEntry, error) {
	return decode[models.ScheduleEntry](ScheduleEntry, string(raw))
}

// DecodeSchedule parses a model answer into a Schedule. A bare JSON array of
// entries is accepted as well as the wrapped {"schedule": [...]} form.
func DecodeSchedule(text string) (models.Schedule, error) {
	payload := Extract(text)
	if strings.HasPrefix(payload, "[") {
		payload = `{"schedule":` + payload + `}`
	}
	return decode[models.Schedule](Schedule, payload)
}
