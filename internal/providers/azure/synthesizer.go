package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
)

const (
	ttsEndpointFormat = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"

	headerOutputFormat = "X-Microsoft-OutputFormat"

	contentTypeSSML = "application/ssml+xml"

	// outputFormatMP3 keeps artifacts small enough for direct download.
	outputFormatMP3 = "audio-24khz-48kbitrate-mono-mp3"
)

// Synthesizer renders text to speech through the Azure neural TTS REST API.
type Synthesizer struct {
	httpClient *http.Client
	endpoint   string
	key        string
}

// NewSynthesizer creates a text-to-speech client. The Language field of the
// config is ignored here; the voice is chosen per call from the target
// language of the translation.
func NewSynthesizer(cfg SpeechConfig) *Synthesizer {
	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.Region != "" {
		endpoint = fmt.Sprintf(ttsEndpointFormat, cfg.Region)
	}

	return &Synthesizer{
		httpClient: newHTTPClient(cfg.Timeout),
		endpoint:   endpoint,
		key:        cfg.Key,
	}
}

// VoiceModel identifies this provider on persisted output records.
func (s *Synthesizer) VoiceModel() string {
	return "azure-neural"
}

// Synthesize renders text in the given language with the requested voice
// type and returns the MP3 audio bytes.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	text string,
	language string,
	voice string,
) ([]byte, error) {
	if s.key == "" || s.endpoint == "" {
		return nil, fmt.Errorf("speech service key or endpoint missing: %w", core.ErrNotConfigured)
	}

	ssml, err := buildSSML(text, language, domain.VoiceType(voice))
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.endpoint,
		bytes.NewReader(ssml),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}

	httpReq.Header.Set(headerSubscriptionKey, s.key)
	httpReq.Header.Set(headerContentType, contentTypeSSML)
	httpReq.Header.Set(headerOutputFormat, outputFormatMP3)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("speech synthesis service", resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	return audioData, nil
}

// buildSSML assembles the synthesis document, escaping the text so user
// content cannot break out of the markup.
func buildSSML(text, language string, voice domain.VoiceType) ([]byte, error) {
	voiceName, locale := resolveVoice(language, voice)

	var escaped bytes.Buffer

	err := xml.EscapeText(&escaped, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to escape synthesis text: %w", err)
	}

	document := fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		locale,
		voiceName,
		escaped.String(),
	)

	return []byte(document), nil
}
