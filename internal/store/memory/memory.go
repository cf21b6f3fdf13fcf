// Package memory provides a mutex-guarded in-memory implementation of the
// store interfaces, used by tests and single-node deployments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
)

// Store holds every entity in process memory. All methods are safe for
// concurrent use.
type Store struct {
	mu           sync.RWMutex
	jobs         map[string]domain.Job
	transcripts  map[string]domain.Transcript
	translations map[string]domain.Translation
	outputs      map[string]domain.Output
	users        map[string]domain.UserAccount
	audits       []domain.AuditEntry
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		jobs:         make(map[string]domain.Job),
		transcripts:  make(map[string]domain.Transcript),
		translations: make(map[string]domain.Translation),
		outputs:      make(map[string]domain.Output),
		users:        make(map[string]domain.UserAccount),
		audits:       nil,
	}
}

// CreateJob inserts a job row.
func (s *Store) CreateJob(_ context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job

	return nil
}

// GetJob loads a job by id.
func (s *Store) GetJob(_ context.Context, id string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, fmt.Errorf("job '%s': %w", id, core.ErrNotFound)
	}

	return job, nil
}

// UpdateJobStatus records a status transition and the failure reason, if any.
func (s *Store) UpdateJobStatus(_ context.Context, id string, status domain.JobStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job '%s': %w", id, core.ErrNotFound)
	}

	job.Status = status
	job.FailureReason = reason
	s.jobs[id] = job

	return nil
}

// CountJobsByOwner counts every job owned by a user, all statuses included.
func (s *Store) CountJobsByOwner(_ context.Context, ownerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, job := range s.jobs {
		if job.OwnerID == ownerID {
			count++
		}
	}

	return count, nil
}

// CreateTranscript inserts a transcript row.
func (s *Store) CreateTranscript(_ context.Context, transcript domain.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcripts[transcript.ID] = transcript

	return nil
}

// DeleteTranscript removes a transcript row. Deleting an absent row is an
// error so compensation bugs surface in tests.
func (s *Store) DeleteTranscript(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transcripts[id]; !ok {
		return fmt.Errorf("transcript '%s': %w", id, core.ErrNotFound)
	}

	delete(s.transcripts, id)

	return nil
}

// CreateTranslation inserts a translation row.
func (s *Store) CreateTranslation(_ context.Context, translation domain.Translation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.translations[translation.ID] = translation

	return nil
}

// CreateOutput inserts an output row.
func (s *Store) CreateOutput(_ context.Context, output domain.Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outputs[output.ID] = output

	return nil
}

// GetUser loads subscription state for a user.
func (s *Store) GetUser(_ context.Context, id string) (domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return domain.UserAccount{}, fmt.Errorf("user '%s': %w", id, core.ErrNotFound)
	}

	return user, nil
}

// ListUsers returns every known user account.
func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}

	return users, nil
}

// PutUser inserts or replaces a user account. Test and bootstrap helper.
func (s *Store) PutUser(user domain.UserAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = user
}

// UpdateSubscription sets a user's plan and expiry.
func (s *Store) UpdateSubscription(_ context.Context, userID, planID string, expiryAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user '%s': %w", userID, core.ErrNotFound)
	}

	user.PlanID = planID
	user.ExpiryAt = expiryAt
	s.users[userID] = user

	return nil
}

// AppendAudit appends an audit entry.
func (s *Store) AppendAudit(_ context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audits = append(s.audits, entry)

	return nil
}

// Snapshot helpers used by tests to assert persisted state.

// Transcripts returns the stored transcripts.
func (s *Store) Transcripts() []domain.Transcript {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.Transcript, 0, len(s.transcripts))
	for _, row := range s.transcripts {
		rows = append(rows, row)
	}

	return rows
}

// Translations returns the stored translations.
func (s *Store) Translations() []domain.Translation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.Translation, 0, len(s.translations))
	for _, row := range s.translations {
		rows = append(rows, row)
	}

	return rows
}

// Outputs returns the stored outputs.
func (s *Store) Outputs() []domain.Output {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.Output, 0, len(s.outputs))
	for _, row := range s.outputs {
		rows = append(rows, row)
	}

	return rows
}

// Audits returns the recorded audit entries in append order.
func (s *Store) Audits() []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.AuditEntry, len(s.audits))
	copy(rows, s.audits)

	return rows
}
