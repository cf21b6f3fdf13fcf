// Package postgrest implements the store interfaces against a PostgREST
// endpoint (Supabase-style Postgres access).
package postgrest

import (
	"context"
	"fmt"
	"time"

	postgrest "github.com/supabase-community/postgrest-go"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
)

// Table names.
const (
	jobsTable         = "jobs"
	transcriptsTable  = "transcripts"
	translationsTable = "translations"
	outputsTable      = "outputs"
	usersTable        = "users"
	auditTable        = "audit_log"
)

const returnRepresentation = "representation"

// Store talks to Postgres through PostgREST. Conflicting writes to one row
// are serialized by the database.
type Store struct {
	client *postgrest.Client
}

// New creates a store over an initialized PostgREST client.
func New(client *postgrest.Client) (*Store, error) {
	if client.ClientError != nil {
		return nil, fmt.Errorf("postgrest client unusable: %w", client.ClientError)
	}

	return &Store{client: client}, nil
}

// NewClient builds a PostgREST client for a Supabase-style endpoint.
func NewClient(baseURL, serviceKey string) *postgrest.Client {
	return postgrest.NewClient(baseURL+"/rest/v1", "", map[string]string{
		"apikey":        serviceKey,
		"Authorization": "Bearer " + serviceKey,
	})
}

type jobRow struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	SourceRef       string    `json:"source_ref"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	Status          string    `json:"status"`
	FailureReason   *string   `json:"failure_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

type transcriptRow struct {
	ID               string    `json:"id"`
	JobID            string    `json:"job_id"`
	Text             string    `json:"text"`
	DetectedLanguage string    `json:"detected_language"`
	Confidence       float64   `json:"confidence"`
	ProcessedAt      time.Time `json:"processed_at"`
}

type translationRow struct {
	ID             string    `json:"id"`
	TranscriptID   string    `json:"transcript_id"`
	TargetLanguage string    `json:"target_language"`
	Text           string    `json:"text"`
	EngineName     string    `json:"engine_name"`
	UserRating     *int      `json:"user_rating,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type outputRow struct {
	ID            string    `json:"id"`
	TranslationID string    `json:"translation_id"`
	AudioRef      string    `json:"audio_ref"`
	VoiceType     string    `json:"voice_type"`
	VoiceModel    string    `json:"voice_model"`
	GeneratedAt   time.Time `json:"generated_at"`
	ExpiryAt      time.Time `json:"expiry_at"`
	DownloadCount int64     `json:"download_count"`
}

type userRow struct {
	ID       string     `json:"id"`
	PlanID   string     `json:"plan_id"`
	ExpiryAt *time.Time `json:"subscription_expiry_at"`
}

type auditRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateJob inserts a job row.
func (s *Store) CreateJob(_ context.Context, job domain.Job) error {
	row := jobRow{
		ID:              job.ID,
		OwnerID:         job.OwnerID,
		SourceRef:       job.SourceRef,
		SizeBytes:       job.SizeBytes,
		DurationSeconds: job.DurationSeconds,
		Status:          string(job.Status),
		FailureReason:   nil,
		CreatedAt:       job.CreatedAt,
	}

	var inserted []jobRow

	_, err := s.client.From(jobsTable).Insert(row, false, "", returnRepresentation, "").ExecuteTo(&inserted)
	if err != nil {
		return fmt.Errorf("failed to insert job '%s': %w", job.ID, err)
	}

	return nil
}

// GetJob loads a job by id.
func (s *Store) GetJob(_ context.Context, id string) (domain.Job, error) {
	var rows []jobRow

	_, err := s.client.From(jobsTable).Select("*", "", false).Eq("id", id).ExecuteTo(&rows)
	if err != nil {
		return domain.Job{}, fmt.Errorf("failed to query job '%s': %w", id, err)
	}

	if len(rows) == 0 {
		return domain.Job{}, fmt.Errorf("job '%s': %w", id, core.ErrNotFound)
	}

	row := rows[0]
	job := domain.Job{
		ID:              row.ID,
		OwnerID:         row.OwnerID,
		SourceRef:       row.SourceRef,
		SizeBytes:       row.SizeBytes,
		DurationSeconds: row.DurationSeconds,
		Status:          domain.JobStatus(row.Status),
		FailureReason:   "",
		CreatedAt:       row.CreatedAt,
	}
	if row.FailureReason != nil {
		job.FailureReason = *row.FailureReason
	}

	return job, nil
}

// UpdateJobStatus records a status transition and the failure reason, if any.
func (s *Store) UpdateJobStatus(_ context.Context, id string, status domain.JobStatus, reason string) error {
	update := map[string]any{
		"status": string(status),
	}
	if reason != "" {
		update["failure_reason"] = reason
	}

	var rows []jobRow

	_, err := s.client.From(jobsTable).Update(update, returnRepresentation, "").Eq("id", id).ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to update job '%s' to %s: %w", id, status, err)
	}

	if len(rows) == 0 {
		return fmt.Errorf("job '%s': %w", id, core.ErrNotFound)
	}

	return nil
}

// CountJobsByOwner counts every job owned by a user regardless of status.
func (s *Store) CountJobsByOwner(_ context.Context, ownerID string) (int, error) {
	var rows []jobRow

	count, err := s.client.From(jobsTable).Select("id", "exact", false).Eq("owner_id", ownerID).ExecuteTo(&rows)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs for owner '%s': %w", ownerID, err)
	}

	return int(count), nil
}

// CreateTranscript inserts a transcript row.
func (s *Store) CreateTranscript(_ context.Context, transcript domain.Transcript) error {
	row := transcriptRow{
		ID:               transcript.ID,
		JobID:            transcript.JobID,
		Text:             transcript.Text,
		DetectedLanguage: transcript.DetectedLanguage,
		Confidence:       transcript.Confidence,
		ProcessedAt:      transcript.ProcessedAt,
	}

	var inserted []transcriptRow

	_, err := s.client.From(transcriptsTable).Insert(row, false, "", returnRepresentation, "").ExecuteTo(&inserted)
	if err != nil {
		return fmt.Errorf("failed to insert transcript '%s': %w", transcript.ID, err)
	}

	return nil
}

// DeleteTranscript removes a transcript row.
func (s *Store) DeleteTranscript(_ context.Context, id string) error {
	_, _, err := s.client.From(transcriptsTable).Delete("", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("failed to delete transcript '%s': %w", id, err)
	}

	return nil
}

// CreateTranslation inserts a translation row.
func (s *Store) CreateTranslation(_ context.Context, translation domain.Translation) error {
	row := translationRow{
		ID:             translation.ID,
		TranscriptID:   translation.TranscriptID,
		TargetLanguage: translation.TargetLanguage,
		Text:           translation.Text,
		EngineName:     translation.EngineName,
		UserRating:     nil,
		CreatedAt:      translation.CreatedAt,
	}
	if translation.UserRating != 0 {
		row.UserRating = &translation.UserRating
	}

	var inserted []translationRow

	_, err := s.client.From(translationsTable).Insert(row, false, "", returnRepresentation, "").ExecuteTo(&inserted)
	if err != nil {
		return fmt.Errorf("failed to insert translation '%s': %w", translation.ID, err)
	}

	return nil
}

// CreateOutput inserts an output row.
func (s *Store) CreateOutput(_ context.Context, output domain.Output) error {
	row := outputRow{
		ID:            output.ID,
		TranslationID: output.TranslationID,
		AudioRef:      output.AudioRef,
		VoiceType:     string(output.VoiceType),
		VoiceModel:    output.VoiceModel,
		GeneratedAt:   output.GeneratedAt,
		ExpiryAt:      output.ExpiryAt,
		DownloadCount: output.DownloadCount,
	}

	var inserted []outputRow

	_, err := s.client.From(outputsTable).Insert(row, false, "", returnRepresentation, "").ExecuteTo(&inserted)
	if err != nil {
		return fmt.Errorf("failed to insert output '%s': %w", output.ID, err)
	}

	return nil
}

// GetUser loads subscription state for a user.
func (s *Store) GetUser(_ context.Context, id string) (domain.UserAccount, error) {
	var rows []userRow

	_, err := s.client.From(usersTable).Select("id,plan_id,subscription_expiry_at", "", false).Eq("id", id).ExecuteTo(&rows)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("failed to query user '%s': %w", id, err)
	}

	if len(rows) == 0 {
		return domain.UserAccount{}, fmt.Errorf("user '%s': %w", id, core.ErrNotFound)
	}

	return domain.UserAccount{
		ID:       rows[0].ID,
		PlanID:   rows[0].PlanID,
		ExpiryAt: rows[0].ExpiryAt,
	}, nil
}

// ListUsers returns every user account.
func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	var rows []userRow

	_, err := s.client.From(usersTable).Select("id,plan_id,subscription_expiry_at", "", false).ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.UserAccount, 0, len(rows))
	for _, row := range rows {
		users = append(users, domain.UserAccount{
			ID:       row.ID,
			PlanID:   row.PlanID,
			ExpiryAt: row.ExpiryAt,
		})
	}

	return users, nil
}

// UpdateSubscription sets a user's plan and expiry; a nil expiry clears it.
func (s *Store) UpdateSubscription(_ context.Context, userID, planID string, expiryAt *time.Time) error {
	update := map[string]any{
		"plan_id":                planID,
		"subscription_expiry_at": expiryAt,
	}

	var rows []userRow

	_, err := s.client.From(usersTable).Update(update, returnRepresentation, "").Eq("id", userID).ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to update subscription for user '%s': %w", userID, err)
	}

	if len(rows) == 0 {
		return fmt.Errorf("user '%s': %w", userID, core.ErrNotFound)
	}

	return nil
}

// AppendAudit appends an audit entry.
func (s *Store) AppendAudit(_ context.Context, entry domain.AuditEntry) error {
	row := auditRow{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Details:   entry.Details,
		Timestamp: entry.Timestamp,
	}

	var inserted []auditRow

	_, err := s.client.From(auditTable).Insert(row, false, "", returnRepresentation, "").ExecuteTo(&inserted)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry for user '%s': %w", entry.UserID, err)
	}

	return nil
}
