package models

import "time"

// Step is one recorded shell invocation. The recorder stores the raw
// command text and its captured side effects verbatim; it never interprets
// or validates what it captures.
type Step struct {
	Command    string    `json:"command"`
	Output     string    `json:"output,omitempty"`
	ExitStatus int       `json:"exit_status"`
	Timestamp  time.Time `json:"timestamp"`
}

// Journey is a named, ordered recording of shell commands and their
// captured results. Steps preserve strict temporal order; once a recording
// ends the journey is immutable.
type Journey struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Steps     []Step    `json:"steps"`
}
