// Package core defines the capability interfaces the conversion pipeline
// consumes and the result types the stages exchange.
package core

import (
	"context"
	"time"
)

// RecognitionResult is the outcome of a successful speech-recognition call.
type RecognitionResult struct {
	Text       string
	Language   string
	Confidence float64 // 0..100
}

// SpeechRecognizer transcribes a stored audio blob. Implementations wrap a
// single external provider; selection happens at construction time.
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, audioRef string) (RecognitionResult, error)
}

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	// EngineName identifies the backing provider for the Translation record.
	EngineName() string
}

// SpeechSynthesizer renders text to audio bytes for a language and voice.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language, voice string) ([]byte, error)
	// VoiceModel identifies the backing provider for the Output record.
	VoiceModel() string
}

// BlobStore is the storage collaborator for audio artifacts.
type BlobStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Cache is a shared, thread-safe key/value store with per-entry TTL,
// fronting the translation stage to avoid repeat provider calls.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
}

// AuditSink records user-attributed actions. Implementations must be
// fire-and-forget: a recording failure never aborts the caller.
type AuditSink interface {
	Record(userID, action, details string)
}

// Clock abstracts wall-clock time so expiry logic is testable.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the function's current time.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}
