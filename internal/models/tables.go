package models

import "encoding/json"

// Prompt names used as keys in the prompt and example documents.
const (
	PromptProfile  = "profile"
	PromptEvent    = "event"
	PromptSchedule = "schedule"
)

// PromptSet holds the sub-templates of one logical prompt.
type PromptSet struct {
	Prompt   string `json:"prompt"`
	Prefix   string `json:"prefix,omitempty"`
	Suffix   string `json:"suffix,omitempty"`
	Template string `json:"template,omitempty"`
}

type PromptTable map[string]PromptSet

// ScheduleExample is one curated few-shot example for the schedule prompt.
// Entries stay raw until they are validated and re-serialized.
type ScheduleExample struct {
	Persona         string            `json:"persona"`
	EventExample    []string          `json:"event_example"`
	ScheduleExample []json.RawMessage `json:"schedule_example"`
}

type ExampleTable struct {
	Profile  []map[string]string `json:"profile"`
	Schedule []ScheduleExample   `json:"schedule"`
}

// Tables is loaded once at startup and never mutated afterwards, so it is
// safe to share across goroutines.
type Tables struct {
	Prompts  PromptTable
	Examples ExampleTable
}
