// Package store defines the persistence boundary the pipeline and the
// subscription meter share. Implementations serialize conflicting writes to
// the same row; the callers do not lock.
package store

import (
	"context"
	"time"

	"github.com/voicebridge/voicebridge/internal/domain"
)

// JobStore persists conversion jobs and their status transitions.
type JobStore interface {
	CreateJob(ctx context.Context, job domain.Job) error
	GetJob(ctx context.Context, id string) (domain.Job, error)
	// UpdateJobStatus records a transition and, for failures, the reason.
	UpdateJobStatus(ctx context.Context, id string, status domain.JobStatus, reason string) error
	// CountJobsByOwner counts every job a user owns regardless of status.
	CountJobsByOwner(ctx context.Context, ownerID string) (int, error)
}

// TranscriptStore persists transcription artifacts.
type TranscriptStore interface {
	CreateTranscript(ctx context.Context, transcript domain.Transcript) error
	DeleteTranscript(ctx context.Context, id string) error
}

// TranslationStore persists translation artifacts.
type TranslationStore interface {
	CreateTranslation(ctx context.Context, translation domain.Translation) error
}

// OutputStore persists synthesized audio artifacts.
type OutputStore interface {
	CreateOutput(ctx context.Context, output domain.Output) error
}

// UserStore reads and mutates subscription state.
type UserStore interface {
	GetUser(ctx context.Context, id string) (domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	// UpdateSubscription sets the plan and expiry; a nil expiry clears it.
	UpdateSubscription(ctx context.Context, userID, planID string, expiryAt *time.Time) error
}

// AuditStore appends audit entries.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry domain.AuditEntry) error
}

// Store aggregates every persistence concern the service touches.
type Store interface {
	JobStore
	TranscriptStore
	TranslationStore
	OutputStore
	UserStore
	AuditStore
}
