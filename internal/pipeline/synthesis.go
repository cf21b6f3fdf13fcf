package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/store"
)

// OutputRetention is how long a synthesized artifact remains downloadable.
const OutputRetention = 30 * 24 * time.Hour

const outputFolder = "outputs"

// SynthesisStage renders the translated text to audio through the external
// synthesizer and stores the artifact in the blob store.
type SynthesisStage struct {
	synthesizer core.SpeechSynthesizer
	blobs       core.BlobStore
	outputs     store.OutputStore
	clock       core.Clock
	callTimeout time.Duration
	log         *logger.Logger
}

// NewSynthesisStage creates a synthesis stage.
func NewSynthesisStage(
	synthesizer core.SpeechSynthesizer,
	blobs core.BlobStore,
	outputs store.OutputStore,
	clock core.Clock,
	callTimeout time.Duration,
	log *logger.Logger,
) *SynthesisStage {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	return &SynthesisStage{
		synthesizer: synthesizer,
		blobs:       blobs,
		outputs:     outputs,
		clock:       clock,
		callTimeout: callTimeout,
		log:         log,
	}
}

// Run synthesizes speech for the translation, uploads the audio artifact and
// persists one Output row with a 30-day expiry. On failure nothing is
// persisted.
func (s *SynthesisStage) Run(
	ctx context.Context,
	translation domain.Translation,
	voice domain.VoiceType,
) (domain.Output, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	audioData, err := s.synthesizer.Synthesize(callCtx, translation.Text, translation.TargetLanguage, string(voice))
	if err != nil {
		return domain.Output{}, classifyProviderError("speech synthesis", err)
	}

	if len(audioData) == 0 {
		return domain.Output{}, fmt.Errorf("speech synthesis returned no audio: %w", core.ErrProviderFailure)
	}

	audioRef := fmt.Sprintf("%s/%s.mp3", outputFolder, uuid.NewString())

	err = s.blobs.Upload(ctx, audioRef, audioData)
	if err != nil {
		return domain.Output{}, fmt.Errorf("failed to upload synthesized audio '%s': %w", audioRef, err)
	}

	now := s.clock.Now()
	output := domain.Output{
		ID:            uuid.NewString(),
		TranslationID: translation.ID,
		AudioRef:      audioRef,
		VoiceType:     voice,
		VoiceModel:    s.synthesizer.VoiceModel(),
		GeneratedAt:   now,
		ExpiryAt:      now.Add(OutputRetention),
		DownloadCount: 0,
	}

	err = s.outputs.CreateOutput(ctx, output)
	if err != nil {
		return domain.Output{}, fmt.Errorf("failed to persist output for translation '%s': %w", translation.ID, err)
	}

	s.log.Info("Synthesized %d bytes for translation %s as %s", len(audioData), translation.ID, audioRef)

	return output, nil
}
