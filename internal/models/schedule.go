package models

// EventSet is the list of recurring activity types proposed for a persona.
type EventSet struct {
	Event []string `json:"event"`
}

// ScheduleEntry field order is the canonical serialization order used in prompts.
type ScheduleEntry struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Event     string  `json:"event"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Schedule struct {
	Schedule []ScheduleEntry `json:"schedule"`
}

// TimeLayout is the textual format of start_time and end_time.
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout is the format of the schedule window bounds.
const DateLayout = "2006-01-02"
