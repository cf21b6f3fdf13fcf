package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/book-expert/logger"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/store"
)

// ErrJobAlreadyRunning is returned when a job id is re-triggered while a run
// for it is still in flight.
var ErrJobAlreadyRunning = errors.New("job already running")

// Orchestrator drives one job through transcription, translation and
// synthesis in document order, managing the status transitions
// Pending -> Processing -> Completed | Failed. A run is always terminal for
// the job: stage failures and panics are converted to a Failed status and
// never crash the caller.
type Orchestrator struct {
	jobs          store.JobStore
	transcription *TranscriptionStage
	translation   *TranslationStage
	synthesis     *SynthesisStage
	transcripts   store.TranscriptStore
	log           *logger.Logger

	// inflight guards against concurrent re-runs of the same job id.
	inflight sync.Map
}

// NewOrchestrator wires the three stages against the job store.
func NewOrchestrator(
	jobs store.JobStore,
	transcripts store.TranscriptStore,
	transcription *TranscriptionStage,
	translation *TranslationStage,
	synthesis *SynthesisStage,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		jobs:          jobs,
		transcription: transcription,
		translation:   translation,
		synthesis:     synthesis,
		transcripts:   transcripts,
		log:           log,
		inflight:      sync.Map{},
	}
}

// Run executes the full pipeline for one job. The returned error describes
// why the run failed; by the time Run returns the job row already carries its
// terminal status, so callers only log it.
func (o *Orchestrator) Run(ctx context.Context, jobID, targetLanguage string, voice domain.VoiceType) (runErr error) {
	if _, loaded := o.inflight.LoadOrStore(jobID, struct{}{}); loaded {
		return fmt.Errorf("job '%s': %w", jobID, ErrJobAlreadyRunning)
	}
	defer o.inflight.Delete(jobID)

	job, err := o.jobs.GetJob(ctx, jobID)
	if err != nil {
		// Job absent: nothing to transition, logged and dropped.
		o.log.Error("Job %s not loadable: %v", jobID, err)

		return fmt.Errorf("failed to load job '%s': %w", jobID, err)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			o.log.Error("Panic while processing job %s: %v", jobID, recovered)
			runErr = fmt.Errorf("panic while processing job '%s': %v", jobID, recovered)
			o.markFailed(ctx, jobID, runErr)
		}
	}()

	if voice == "" {
		voice = domain.VoiceFemale
	}

	err = o.jobs.UpdateJobStatus(ctx, jobID, domain.JobStatusProcessing, "")
	if err != nil {
		return fmt.Errorf("failed to mark job '%s' processing: %w", jobID, err)
	}

	o.log.Info("Processing job %s -> %s", jobID, targetLanguage)

	transcript, err := o.transcription.Run(ctx, job)
	if err != nil {
		o.markFailed(ctx, jobID, err)

		return fmt.Errorf("transcription stage for job '%s': %w", jobID, err)
	}

	translation, err := o.translation.Run(ctx, transcript, targetLanguage)
	if err != nil {
		// Compensating action: a failed run must not leave an orphaned
		// transcript behind.
		deleteErr := o.transcripts.DeleteTranscript(ctx, transcript.ID)
		if deleteErr != nil {
			o.log.Warn("Failed to remove transcript %s after translation failure: %v", transcript.ID, deleteErr)
		}

		o.markFailed(ctx, jobID, err)

		return fmt.Errorf("translation stage for job '%s': %w", jobID, err)
	}

	_, err = o.synthesis.Run(ctx, translation, voice)
	if err != nil {
		// Transcript and translation remain valid artifacts; only
		// synthesis failed.
		o.markFailed(ctx, jobID, err)

		return fmt.Errorf("synthesis stage for job '%s': %w", jobID, err)
	}

	err = o.jobs.UpdateJobStatus(ctx, jobID, domain.JobStatusCompleted, "")
	if err != nil {
		return fmt.Errorf("failed to mark job '%s' completed: %w", jobID, err)
	}

	o.log.Info("Job %s completed", jobID)

	return nil
}

// markFailed records the terminal Failed status with a diagnostic reason.
// Quota signals are surfaced distinctly so callers do not re-enqueue into an
// exhausted quota.
func (o *Orchestrator) markFailed(ctx context.Context, jobID string, cause error) {
	err := o.jobs.UpdateJobStatus(ctx, jobID, domain.JobStatusFailed, cause.Error())
	if err != nil {
		o.log.Error("Failed to mark job %s failed: %v", jobID, err)
	}

	if core.IsQuotaSignal(cause) {
		o.log.Warn("Job %s failed on a provider quota signal; retrying immediately is wasted work", jobID)
	}
}
