// Package pipeline_test tests the conversion pipeline and its orchestrator.
package pipeline_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicebridge/voicebridge/internal/cache"
	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/pipeline"
	"github.com/voicebridge/voicebridge/internal/store/memory"
)

var (
	errMockRecognize  = errors.New("mock recognition error")
	errMockTranslate  = errors.New("mock translation error")
	errMockSynthesize = errors.New("mock synthesis error")
)

// mockRecognizer is a mock implementation of core.SpeechRecognizer.
type mockRecognizer struct {
	shouldFail bool
	text       string
	gate       chan struct{}
	calls      atomic.Int64
}

func (m *mockRecognizer) Transcribe(_ context.Context, _ string) (core.RecognitionResult, error) {
	m.calls.Add(1)

	if m.gate != nil {
		<-m.gate
	}

	if m.shouldFail {
		return core.RecognitionResult{}, errMockRecognize
	}

	return core.RecognitionResult{
		Text:       m.text,
		Language:   "en",
		Confidence: 90,
	}, nil
}

// mockTranslator is a mock implementation of core.Translator.
type mockTranslator struct {
	shouldFail  bool
	shouldPanic bool
	calls       atomic.Int64
}

func (m *mockTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	m.calls.Add(1)

	if m.shouldPanic {
		panic("translator blew up")
	}

	if m.shouldFail {
		return "", errMockTranslate
	}

	return "übersetzt:" + text, nil
}

func (m *mockTranslator) EngineName() string {
	return "mock-translate"
}

// mockSynthesizer is a mock implementation of core.SpeechSynthesizer.
type mockSynthesizer struct {
	shouldFail bool
	calls      atomic.Int64
}

func (m *mockSynthesizer) Synthesize(_ context.Context, _, _, _ string) ([]byte, error) {
	m.calls.Add(1)

	if m.shouldFail {
		return nil, errMockSynthesize
	}

	return []byte("sample audio"), nil
}

func (m *mockSynthesizer) VoiceModel() string {
	return "mock-voice"
}

// mockBlobStore is a mock implementation of core.BlobStore.
type mockBlobStore struct {
	uploadShouldFail bool
	uploadedKey      string
	uploadedData     []byte
}

func (m *mockBlobStore) Download(_ context.Context, _ string) ([]byte, error) {
	return []byte("source audio"), nil
}

func (m *mockBlobStore) Upload(_ context.Context, key string, data []byte) error {
	if m.uploadShouldFail {
		return errors.New("mock upload error")
	}

	m.uploadedKey = key
	m.uploadedData = data

	return nil
}

func (m *mockBlobStore) Delete(_ context.Context, _ string) error {
	return nil
}

type testRig struct {
	store       *memory.Store
	recognizer  *mockRecognizer
	translator  *mockTranslator
	synthesizer *mockSynthesizer
	blobs       *mockBlobStore
	orch        *pipeline.Orchestrator
	now         time.Time
}

func setupRig(t *testing.T) *testRig {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "pipeline-test.log")
	require.NoError(t, err)

	storeInstance := memory.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := core.ClockFunc(func() time.Time { return now })

	rig := &testRig{
		store:       storeInstance,
		recognizer:  &mockRecognizer{text: "hello world"},
		translator:  &mockTranslator{},
		synthesizer: &mockSynthesizer{},
		blobs:       &mockBlobStore{},
		orch:        nil,
		now:         now,
	}

	transcription := pipeline.NewTranscriptionStage(rig.recognizer, storeInstance, clock, time.Minute, testLogger)
	translation := pipeline.NewTranslationStage(
		rig.translator, storeInstance, cache.NewMemory(time.Hour), clock, 1200, time.Minute, testLogger,
	)
	synthesis := pipeline.NewSynthesisStage(rig.synthesizer, rig.blobs, storeInstance, clock, time.Minute, testLogger)

	rig.orch = pipeline.NewOrchestrator(storeInstance, storeInstance, transcription, translation, synthesis, testLogger)

	require.NoError(t, storeInstance.CreateJob(context.Background(), domain.Job{
		ID:        "job-1",
		OwnerID:   "user-1",
		SourceRef: "uploads/sample.wav",
		Status:    domain.JobStatusPending,
		CreatedAt: now,
	}))

	return rig
}

func (r *testRig) jobStatus(t *testing.T) domain.JobStatus {
	t.Helper()

	job, err := r.store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)

	return job.Status
}

func TestOrchestrator_AllStagesSucceed(t *testing.T) {
	t.Parallel()

	rig := setupRig(t)

	err := rig.orch.Run(context.Background(), "job-1", "de", domain.VoiceFemale)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusCompleted, rig.jobStatus(t))
	require.Len(t, rig.store.Transcripts(), 1)
	require.Len(t, rig.store.Translations(), 1)
	require.Len(t, rig.store.Outputs(), 1)

	transcript := rig.store.Transcripts()[0]
	assert.Equal(t, "job-1", transcript.JobID)
	assert.Equal(t, "hello world", transcript.Text)

	translation := rig.store.Translations()[0]
	assert.Equal(t, transcript.ID, translation.TranscriptID)
	assert.Equal(t, "de", translation.TargetLanguage)
	assert.Equal(t, "mock-translate", translation.EngineName)

	output := rig.store.Outputs()[0]
	assert.Equal(t, translation.ID, output.TranslationID)
	assert.Equal(t, domain.VoiceFemale, output.VoiceType)
	assert.Equal(t, rig.now.Add(pipeline.OutputRetention), output.ExpiryAt)
	assert.Equal(t, rig.blobs.uploadedKey, output.AudioRef)
	assert.Equal(t, []byte("sample audio"), rig.blobs.uploadedData)
}

func TestOrchestrator_TranscriptionFailureLeavesNoArtifacts(t *testing.T) {
	t.Parallel()

	rig := setupRig(t)
	rig.recognizer.shouldFail = true

	err := rig.orch.Run(context.Background(), "job-1", "de", domain.VoiceFemale)
	require.Error(t, err)

	assert.Equal(t, domain.JobStatusFailed, rig.jobStatus(t))
	assert.Empty(t, rig.store.Transcripts())
	assert.Empty(t, rig.store.Translations())
	assert.Empty(t, rig.store.Outputs())
}

func TestOrchestrator_TranslationFailureRemovesTranscript(t *testing.T) {
	t.Parallel()

	rig := setupRig(t)
	rig.translator.shouldFail = true

	err := rig.orch.Run(context.Background(), "job-1", "de", domain.VoiceFemale)
	require.Error(t, err)

	assert.Equal(t, domain.JobStatusFailed, rig.jobStatus(t))
	// The transcript created during this run is compensated away.
	assert.Empty(t, rig.store.Transcripts())
	assert.Empty(t, rig.store.Translations())
	assert.Empty(t, rig.store.Outputs())

	job, err := rig.store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Contains(t, job.FailureReason, "translation")
}

func TestOrchestrator_SynthesisFailureKeepsEarlierArtifacts(t *testing.T) {
	t.Parallel()

	rig := setupRig(t)
	rig.synthesizer.shouldFail = true

	err := rig.orch.Run(context.Background(), "job-1", "de", domain.VoiceFemale)
	require.Error(t, err)

	assert.Equal(t, domain.JobStatusFailed, rig.jobStatus(t))
	assert.Len(t, rig.store.Transcripts(), 1)
	assert.Len(t, rig.store.Translations(), 1)
	assert.Empty(t, rig.store.Outputs())
}

func TestOrchestrator_MissingJobAborts(t *testing.T) {
	t.Parallel()

	rig := setupRig(t)

	err := rig.orch.Run(context.Background(), "ghost", "de", domain.VoiceFemale)
	require.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t, int64(0), rig.recognizer.calls.Load())
}

func TestOrchestrator_PanicIsTerminal(t *testing.T) {
	t.Parallel()

	rig := setupRig(t)
	rig.translator.shouldPanic = true

	err := rig.orch.Run(context.Background(), "job-1", "de", domain.VoiceFemale)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	assert.Equal(t, domain.JobStatusFailed, rig.jobStatus(t))
}

func TestOrchestrator_ConcurrentRerunIsRejected(t *testing.T) {
	t.Parallel()

	rig := setupRig(t)
	rig.recognizer.gate = make(chan struct{})

	firstDone := make(chan error, 1)

	go func() {
		firstDone <- rig.orch.Run(context.Background(), "job-1", "de", domain.VoiceFemale)
	}()

	// Wait for the first run to be inside the recognizer call.
	require.Eventually(t, func() bool {
		return rig.recognizer.calls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	err := rig.orch.Run(context.Background(), "job-1", "de", domain.VoiceFemale)
	require.ErrorIs(t, err, pipeline.ErrJobAlreadyRunning)

	close(rig.recognizer.gate)
	require.NoError(t, <-firstDone)
	assert.Equal(t, domain.JobStatusCompleted, rig.jobStatus(t))
}

func TestOrchestrator_DefaultsToFemaleVoice(t *testing.T) {
	t.Parallel()

	rig := setupRig(t)

	err := rig.orch.Run(context.Background(), "job-1", "de", "")
	require.NoError(t, err)

	require.Len(t, rig.store.Outputs(), 1)
	assert.Equal(t, domain.VoiceFemale, rig.store.Outputs()[0].VoiceType)
}
