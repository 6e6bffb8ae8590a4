// Package schema declares the structured-output shapes the model is asked to
// emit and decodes model text against them.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Schema map[string]interface{}

var EventSet = Schema{
	"title": "EventSet",
	"type":  "object",
	"properties": map[string]interface{}{
		"event": map[string]interface{}{
			"title":       "Event",
			"description": "A list of calendar event content",
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
		},
	},
	"required": []interface{}{"event"},
}

var ScheduleEntry = Schema{
	"title": "ScheduleEntry",
	"type":  "object",
	"properties": map[string]interface{}{
		"start_time": map[string]interface{}{
			"title":       "Start Time",
			"description": "The start time of a schedule event in the format of YYYY-MM-DD hh:mm:ss",
			"type":        "string",
		},
		"end_time": map[string]interface{}{
			"title":       "End Time",
			"description": "The end time of a schedule event in the format of YYYY-MM-DD hh:mm:ss",
			"type":        "string",
		},
		"event": map[string]interface{}{
			"title":       "Event",
			"description": "A schedule event in the calendar",
			"type":        "string",
		},
		"address": map[string]interface{}{
			"title":       "Address",
			"description": "The place where the event happen, must including four parts: street, city, state, and zipcode",
			"type":        "string",
		},
		"latitude": map[string]interface{}{
			"title":       "Latitude",
			"description": "The corresponding latitude of the address",
			"type":        "number",
		},
		"longitude": map[string]interface{}{
			"title":       "Longitude",
			"description": "The corresponding longitude of the address",
			"type":        "number",
		},
	},
	"required": []interface{}{"start_time", "end_time", "event", "address", "latitude", "longitude"},
}

var Schedule = Schema{
	"title": "Schedule",
	"type":  "object",
	"properties": map[string]interface{}{
		"schedule": map[string]interface{}{
			"title": "Schedule",
			"type":  "array",
			"items": map[string]interface{}(ScheduleEntry),
		},
	},
	"required": []interface{}{"schedule"},
}

// JSON returns the compact JSON form of the schema.
func (s Schema) JSON() string {
	b, err := json.Marshal(s)
	if err != nil {
		// Schemas are built from plain maps and always marshal.
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	return string(b)
}

const formatInstructionsTemplate = `The output should be formatted as a JSON instance that conforms to the JSON schema below.

As an example, for the schema {"properties": {"foo": {"title": "Foo", "description": "a list of strings", "type": "array", "items": {"type": "string"}}}, "required": ["foo"]}
the object {"foo": ["bar", "baz"]} is a well-formatted instance of the schema. The object {"properties": {"foo": ["bar", "baz"]}} is not well-formatted.

Here is the output schema:
` + "```" + `
%s
` + "```"

// FormatInstructions tells the model how to shape its answer for s.
func FormatInstructions(s Schema) string {
	return fmt.Sprintf(formatInstructionsTemplate, s.JSON())
}

// Extract returns the JSON payload of a model answer. Code fences are removed
// and surrounding prose is dropped when an object or array can be located.
func Extract(text string) string {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```"); start >= 0 {
		body := text[start+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		text = strings.TrimSpace(body)
	}

	first := strings.IndexAny(text, "{[")
	if first < 0 {
		return text
	}
	// Brackets in leading prose are skipped: the first span that parses wins.
	for open := first; open < len(text); open++ {
		if text[open] != '{' && text[open] != '[' {
			continue
		}
		if span := bracketSpan(text, open); json.Valid([]byte(span)) {
			return span
		}
	}
	return bracketSpan(text, first)
}

// bracketSpan returns text from open to the last matching closer.
func bracketSpan(text string, open int) string {
	closer := byte('}')
	if text[open] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end < open {
		return text[open:]
	}
	return text[open : end+1]
}
