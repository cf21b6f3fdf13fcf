// Package pipeline implements the three-stage conversion pipeline
// (transcription, translation, synthesis) and the orchestrator that drives a
// job through it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/store"
)

// DefaultCallTimeout bounds one external provider call. Deadline expiry is
// treated identically to a provider failure.
const DefaultCallTimeout = 2 * time.Minute

// TranscriptionStage invokes the speech-recognition capability and records
// the transcript. It performs no recognition itself and never retries; a
// retry is a whole-pipeline re-enqueue.
type TranscriptionStage struct {
	recognizer  core.SpeechRecognizer
	transcripts store.TranscriptStore
	clock       core.Clock
	callTimeout time.Duration
	log         *logger.Logger
}

// NewTranscriptionStage creates a transcription stage.
func NewTranscriptionStage(
	recognizer core.SpeechRecognizer,
	transcripts store.TranscriptStore,
	clock core.Clock,
	callTimeout time.Duration,
	log *logger.Logger,
) *TranscriptionStage {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	return &TranscriptionStage{
		recognizer:  recognizer,
		transcripts: transcripts,
		clock:       clock,
		callTimeout: callTimeout,
		log:         log,
	}
}

// Run transcribes the job's source audio and persists one Transcript row.
// On failure nothing is persisted.
func (s *TranscriptionStage) Run(ctx context.Context, job domain.Job) (domain.Transcript, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	result, err := s.recognizer.Transcribe(callCtx, job.SourceRef)
	if err != nil {
		return domain.Transcript{}, classifyProviderError("speech recognition", err)
	}

	if strings.TrimSpace(result.Text) == "" {
		return domain.Transcript{}, fmt.Errorf("speech recognition returned no text: %w", core.ErrProviderFailure)
	}

	transcript := domain.Transcript{
		ID:               uuid.NewString(),
		JobID:            job.ID,
		Text:             result.Text,
		DetectedLanguage: result.Language,
		Confidence:       result.Confidence,
		ProcessedAt:      s.clock.Now(),
	}

	err = s.transcripts.CreateTranscript(ctx, transcript)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("failed to persist transcript for job '%s': %w", job.ID, err)
	}

	s.log.Info("Transcribed job %s: %d characters, language %s", job.ID, len(result.Text), result.Language)

	return transcript, nil
}

// classifyProviderError maps a raw provider error onto the shared error
// kinds, preserving the original message for diagnostics.
func classifyProviderError(stage string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s exceeded its time budget: %w", stage, core.ErrTimeout)
	case errors.Is(err, core.ErrNotConfigured):
		return fmt.Errorf("%s: %w", stage, err)
	case core.IsQuotaSignal(err):
		return fmt.Errorf("%s: %v: %w", stage, err, core.ErrQuotaExhausted)
	default:
		return fmt.Errorf("%s: %v: %w", stage, err, core.ErrProviderFailure)
	}
}
