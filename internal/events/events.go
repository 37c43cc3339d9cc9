// Package events defines the typed run-progress events published by batch
// scoring and validation, and a small in-process bus for subscribers
// (the websocket stream, tests).
package events

import "time"

// EventType identifies a run-progress event
type EventType string

const (
	RunStarted          EventType = "run_started"
	FundScored          EventType = "fund_scored"
	FundSkipped         EventType = "fund_skipped"
	FundFailed          EventType = "fund_failed"
	RunCompleted        EventType = "run_completed"
	BaselineCreated     EventType = "baseline_created"
	ValidationCompleted EventType = "validation_completed"
)

// Event is a single run-progress notification
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	FundID    string    `json:"fund_id,omitempty"`
	AsOfDate  string    `json:"as_of_date,omitempty"`
	Message   string    `json:"message,omitempty"`
	Processed int       `json:"processed,omitempty"`
	Skipped   int       `json:"skipped,omitempty"`
	Failed    int       `json:"failed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
