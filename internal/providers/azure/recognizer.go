package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/voicebridge/voicebridge/internal/core"
)

const (
	sttEndpointFormat = "https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1"

	contentTypeWAV = "audio/wav; codecs=audio/pcm; samplerate=16000"

	// DefaultRecognitionLanguage is assumed for uploads that carry no
	// language hint.
	DefaultRecognitionLanguage = "en-US"

	recognitionStatusSuccess = "Success"
)

// SpeechConfig carries the credentials for the speech service. Endpoint
// overrides the region-derived URL and exists mainly for tests.
type SpeechConfig struct {
	Key      string
	Region   string
	Endpoint string
	Language string
	Timeout  time.Duration
}

// Recognizer transcribes stored audio through the Azure speech-to-text
// short-audio REST API.
type Recognizer struct {
	httpClient *http.Client
	blobs      core.BlobStore
	endpoint   string
	key        string
	language   string
}

type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Confidence float64 `json:"Confidence"`
	} `json:"NBest"`
}

// NewRecognizer creates a speech-to-text client that reads its input audio
// from the blob store.
func NewRecognizer(cfg SpeechConfig, blobs core.BlobStore) *Recognizer {
	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.Region != "" {
		endpoint = fmt.Sprintf(sttEndpointFormat, cfg.Region)
	}

	language := cfg.Language
	if language == "" {
		language = DefaultRecognitionLanguage
	}

	return &Recognizer{
		httpClient: newHTTPClient(cfg.Timeout),
		blobs:      blobs,
		endpoint:   endpoint,
		key:        cfg.Key,
		language:   language,
	}
}

// Transcribe downloads the referenced audio and submits it for recognition.
func (r *Recognizer) Transcribe(ctx context.Context, audioRef string) (core.RecognitionResult, error) {
	if r.key == "" || r.endpoint == "" {
		return core.RecognitionResult{}, fmt.Errorf(
			"speech service key or endpoint missing: %w", core.ErrNotConfigured,
		)
	}

	audioData, err := r.blobs.Download(ctx, audioRef)
	if err != nil {
		return core.RecognitionResult{}, fmt.Errorf("failed to fetch audio '%s': %w", audioRef, err)
	}

	query := url.Values{}
	query.Set("language", r.language)
	query.Set("format", "detailed")

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.endpoint+"?"+query.Encode(),
		bytes.NewReader(audioData),
	)
	if err != nil {
		return core.RecognitionResult{}, fmt.Errorf("failed to create recognition request: %w", err)
	}

	httpReq.Header.Set(headerSubscriptionKey, r.key)
	httpReq.Header.Set(headerContentType, contentTypeWAV)
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return core.RecognitionResult{}, fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.RecognitionResult{}, statusError("speech service", resp)
	}

	var parsed recognitionResponse

	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return core.RecognitionResult{}, fmt.Errorf("failed to decode recognition response: %w", err)
	}

	if parsed.RecognitionStatus != recognitionStatusSuccess {
		return core.RecognitionResult{}, fmt.Errorf(
			"recognition finished with status %q: %w",
			parsed.RecognitionStatus,
			core.ErrProviderFailure,
		)
	}

	// The service reports confidence on a 0..1 scale; records use 0..100.
	confidence := 0.0
	if len(parsed.NBest) > 0 {
		confidence = parsed.NBest[0].Confidence * 100
	}

	return core.RecognitionResult{
		Text:       parsed.DisplayText,
		Language:   r.language,
		Confidence: confidence,
	}, nil
}
