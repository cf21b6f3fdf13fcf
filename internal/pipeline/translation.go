package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/store"
	"github.com/voicebridge/voicebridge/internal/textchunk"
)

// TranslationCacheTTL is how long a translated document stays cached.
const TranslationCacheTTL = 24 * time.Hour

const cacheKeyPrefix = "translation_"

// TranslationStage translates the transcript text chunk by chunk through the
// external translator, reassembling the full document in order. A cache in
// front of the provider makes repeat requests for the same text free.
type TranslationStage struct {
	translator   core.Translator
	translations store.TranslationStore
	cache        core.Cache
	clock        core.Clock
	chunkSize    int
	callTimeout  time.Duration
	log          *logger.Logger
}

// NewTranslationStage creates a translation stage. A non-positive chunkSize
// falls back to textchunk.DefaultChunkSize.
func NewTranslationStage(
	translator core.Translator,
	translations store.TranslationStore,
	translationCache core.Cache,
	clock core.Clock,
	chunkSize int,
	callTimeout time.Duration,
	log *logger.Logger,
) *TranslationStage {
	if chunkSize <= 0 {
		chunkSize = textchunk.DefaultChunkSize
	}

	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	return &TranslationStage{
		translator:   translator,
		translations: translations,
		cache:        translationCache,
		clock:        clock,
		chunkSize:    chunkSize,
		callTimeout:  callTimeout,
		log:          log,
	}
}

// Run translates the transcript into targetLanguage and persists one
// Translation row. On failure nothing is persisted and partial results are
// discarded: a half-translated document is never returned.
func (s *TranslationStage) Run(
	ctx context.Context,
	transcript domain.Transcript,
	targetLanguage string,
) (domain.Translation, error) {
	if strings.TrimSpace(transcript.Text) == "" {
		return domain.Translation{}, fmt.Errorf("transcript '%s' has no text: %w", transcript.ID, core.ErrProviderFailure)
	}

	translated, err := s.translateDocument(ctx, transcript.Text, transcript.DetectedLanguage, targetLanguage)
	if err != nil {
		return domain.Translation{}, err
	}

	translation := domain.Translation{
		ID:             uuid.NewString(),
		TranscriptID:   transcript.ID,
		TargetLanguage: targetLanguage,
		Text:           translated,
		EngineName:     s.translator.EngineName(),
		UserRating:     0,
		CreatedAt:      s.clock.Now(),
	}

	err = s.translations.CreateTranslation(ctx, translation)
	if err != nil {
		return domain.Translation{}, fmt.Errorf("failed to persist translation for transcript '%s': %w", transcript.ID, err)
	}

	return translation, nil
}

// translateDocument returns the full translated text, consulting the cache
// before splitting the document and calling the provider per chunk.
func (s *TranslationStage) translateDocument(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	key := cacheKey(text, sourceLang, targetLang)

	if cached, hit := s.cache.Get(key); hit {
		s.log.Info("Translation cache hit for %s -> %s", sourceLang, targetLang)

		return cached, nil
	}

	chunks := textchunk.Split(text, s.chunkSize)
	translated := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		piece, err := s.translateChunk(ctx, chunk, sourceLang, targetLang)
		if err != nil {
			// Abort the whole stage on the first chunk failure.
			return "", fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}

		translated = append(translated, piece)
	}

	joined := strings.Join(translated, " ")
	s.cache.Set(key, joined, TranslationCacheTTL)

	return joined, nil
}

func (s *TranslationStage) translateChunk(ctx context.Context, chunk, sourceLang, targetLang string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	piece, err := s.translator.Translate(callCtx, chunk, sourceLang, targetLang)
	if err != nil {
		return "", classifyProviderError("translation", err)
	}

	if strings.TrimSpace(piece) == "" {
		return "", fmt.Errorf("translation returned no text: %w", core.ErrProviderFailure)
	}

	return piece, nil
}

// cacheKey derives a stable key from the text and language pair.
func cacheKey(text, sourceLang, targetLang string) string {
	sum := sha256.Sum256([]byte(text + "|" + sourceLang + "|" + targetLang))

	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
