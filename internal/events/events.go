// Package events defines the NATS message contracts between the upload
// front end and the conversion worker.
package events

import "time"

// Header carries correlation metadata on every event.
type Header struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// JobSubmittedEvent asks the worker to run the conversion pipeline for an
// already-persisted job.
type JobSubmittedEvent struct {
	Header         Header `json:"header"`
	JobID          string `json:"job_id"          validate:"required,uuid4"`
	UserID         string `json:"user_id"         validate:"required"`
	TargetLanguage string `json:"target_language" validate:"required,bcp47_language_tag"`
	VoiceType      string `json:"voice_type"      validate:"omitempty,oneof=Male Female"`
}

// JobCompletedEvent reports a successful pipeline run.
type JobCompletedEvent struct {
	Header Header `json:"header"`
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobFailedEvent reports a terminal failure with its diagnostic reason.
type JobFailedEvent struct {
	Header Header `json:"header"`
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}
