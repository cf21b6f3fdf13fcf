// Package domain defines the entities the conversion pipeline operates on.
package domain

import "time"

// JobStatus is the lifecycle state of a conversion job.
type JobStatus string

// Job lifecycle states. Transitions are forward-only within a run:
// Pending -> Processing -> Completed | Failed. A retry re-enters at Pending.
const (
	JobStatusPending    JobStatus = "Pending"
	JobStatusProcessing JobStatus = "Processing"
	JobStatusCompleted  JobStatus = "Completed"
	JobStatusFailed     JobStatus = "Failed"
)

// ValidTransition reports whether a job may move from one status to another.
// Re-entering Pending from a terminal state models an explicit retry.
func ValidTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusPending:
		return to == JobStatusProcessing
	case JobStatusProcessing:
		return to == JobStatusCompleted || to == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return to == JobStatusPending
	default:
		return false
	}
}

// Job is one user-submitted audio-to-translated-audio conversion request.
// Mutated only by the orchestrator; never deleted by the pipeline.
type Job struct {
	ID              string
	OwnerID         string
	SourceRef       string
	SizeBytes       int64
	DurationSeconds float64
	Status          JobStatus
	FailureReason   string
	CreatedAt       time.Time
}

// Transcript is the speech-recognition artifact of a job run. One per
// successful transcription stage; immutable once written.
type Transcript struct {
	ID               string
	JobID            string
	Text             string
	DetectedLanguage string
	Confidence       float64 // 0..100
	ProcessedAt      time.Time
}

// Translation is the translated text artifact. Many may exist per transcript
// (one per target language per run).
type Translation struct {
	ID             string
	TranscriptID   string
	TargetLanguage string
	Text           string
	EngineName     string
	UserRating     int // 0 when unrated, else 1..5
	CreatedAt      time.Time
}

// Output is the synthesized audio artifact for a translation.
// DownloadCount is incremented externally and never decreases.
type Output struct {
	ID            string
	TranslationID string
	AudioRef      string
	VoiceType     VoiceType
	VoiceModel    string
	GeneratedAt   time.Time
	ExpiryAt      time.Time
	DownloadCount int64
}

// VoiceType selects the synthesized voice gender.
type VoiceType string

// Supported voice types.
const (
	VoiceMale   VoiceType = "Male"
	VoiceFemale VoiceType = "Female"
)

// UserAccount carries the subscription state the meter operates on.
// ExpiryAt is nil for trial users and for paid plans without a recorded expiry.
type UserAccount struct {
	ID       string
	PlanID   string
	ExpiryAt *time.Time
}

// AuditEntry records a user-attributed action for later review.
type AuditEntry struct {
	ID        string
	UserID    string
	Action    string
	Details   string
	Timestamp time.Time
}
