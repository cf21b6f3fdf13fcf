package azure_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/providers/azure"
)

type fixedBlobStore struct {
	data map[string][]byte
}

func (f *fixedBlobStore) Download(_ context.Context, key string) ([]byte, error) {
	blob, ok := f.data[key]
	if !ok {
		return nil, core.ErrNotFound
	}

	return blob, nil
}

func (f *fixedBlobStore) Upload(_ context.Context, _ string, _ []byte) error { return nil }

func (f *fixedBlobStore) Delete(_ context.Context, _ string) error { return nil }

func TestVoiceName_CatalogLookups(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		language string
		voice    domain.VoiceType
		want     string
	}{
		{"vietnamese male", "vi", domain.VoiceMale, "vi-VN-NamMinhNeural"},
		{"vietnamese female", "vi", domain.VoiceFemale, "vi-VN-HoaiMyNeural"},
		{"region subtag ignored", "vi-VN", domain.VoiceFemale, "vi-VN-HoaiMyNeural"},
		{"english male", "en", domain.VoiceMale, "en-US-GuyNeural"},
		{"japanese female", "ja-JP", domain.VoiceFemale, "ja-JP-NanamiNeural"},
		{"unknown language falls back", "sw", domain.VoiceMale, azure.DefaultVoiceName},
		{"case insensitive", "EN", domain.VoiceMale, "en-US-GuyNeural"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, azure.VoiceName(testCase.language, testCase.voice))
		})
	}
}

func TestRecognizer_Transcribe_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "wav-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"RecognitionStatus": "Success",
			"DisplayText": "hello world",
			"NBest": [{"Confidence": 0.93}]
		}`))
	}))
	defer server.Close()

	blobs := &fixedBlobStore{data: map[string][]byte{"uploads/a.wav": []byte("wav-bytes")}}
	recognizer := azure.NewRecognizer(
		azure.SpeechConfig{Key: "secret", Endpoint: server.URL}, blobs,
	)

	result, err := recognizer.Transcribe(context.Background(), "uploads/a.wav")
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, "en-US", result.Language)
	assert.InDelta(t, 93.0, result.Confidence, 0.0001)
}

func TestRecognizer_Transcribe_MissingKeyIsNotConfigured(t *testing.T) {
	t.Parallel()

	recognizer := azure.NewRecognizer(azure.SpeechConfig{Region: "eastus"}, &fixedBlobStore{})

	_, err := recognizer.Transcribe(context.Background(), "uploads/a.wav")
	require.ErrorIs(t, err, core.ErrNotConfigured)
}

func TestRecognizer_Transcribe_NonSuccessStatusFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"RecognitionStatus": "InitialSilenceTimeout"}`))
	}))
	defer server.Close()

	blobs := &fixedBlobStore{data: map[string][]byte{"uploads/a.wav": []byte("x")}}
	recognizer := azure.NewRecognizer(azure.SpeechConfig{Key: "k", Endpoint: server.URL}, blobs)

	_, err := recognizer.Transcribe(context.Background(), "uploads/a.wav")
	require.ErrorIs(t, err, core.ErrProviderFailure)
	assert.Contains(t, err.Error(), "InitialSilenceTimeout")
}

func TestTranslator_Translate_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, "3.0", r.URL.Query().Get("api-version"))
		assert.Equal(t, "vi", r.URL.Query().Get("to"))
		assert.Equal(t, "en", r.URL.Query().Get("from"))
		assert.Equal(t, "westus", r.Header.Get("Ocp-Apim-Subscription-Region"))

		var items []map[string]string

		require.NoError(t, json.NewDecoder(r.Body).Decode(&items))
		require.Len(t, items, 1)
		assert.Equal(t, "good morning", items[0]["Text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"translations":[{"text":"chào buổi sáng","to":"vi"}]}]`))
	}))
	defer server.Close()

	translator := azure.NewTranslator(azure.TranslatorConfig{
		Key:      "secret",
		Region:   "westus",
		Endpoint: server.URL,
	})

	translated, err := translator.Translate(context.Background(), "good morning", "en", "vi")
	require.NoError(t, err)
	assert.Equal(t, "chào buổi sáng", translated)
}

func TestTranslator_Translate_ThrottledResponseCarriesMarker(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429001,"message":"rate limit exceeded"}}`))
	}))
	defer server.Close()

	translator := azure.NewTranslator(azure.TranslatorConfig{Key: "k", Endpoint: server.URL})

	_, err := translator.Translate(context.Background(), "text", "en", "vi")
	require.Error(t, err)
	assert.True(t, core.IsQuotaSignal(err), "throttled responses must be recognizable as quota signals")
}

func TestTranslator_Translate_MissingKeyIsNotConfigured(t *testing.T) {
	t.Parallel()

	translator := azure.NewTranslator(azure.TranslatorConfig{})

	_, err := translator.Translate(context.Background(), "text", "en", "vi")
	require.ErrorIs(t, err, core.ErrNotConfigured)
}

func TestSynthesizer_Synthesize_BuildsEscapedSSML(t *testing.T) {
	t.Parallel()

	var captured string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/ssml+xml", r.Header.Get("Content-Type"))
		assert.Equal(t, "audio-24khz-48kbitrate-mono-mp3", r.Header.Get("X-Microsoft-OutputFormat"))

		body, _ := io.ReadAll(r.Body)
		captured = string(body)

		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	synthesizer := azure.NewSynthesizer(azure.SpeechConfig{Key: "secret", Endpoint: server.URL})

	audio, err := synthesizer.Synthesize(
		context.Background(), "a < b & c", "vi", string(domain.VoiceMale),
	)
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(audio))
	assert.Contains(t, captured, "vi-VN-NamMinhNeural")
	assert.Contains(t, captured, "xml:lang='vi-VN'")
	assert.Contains(t, captured, "a &lt; b &amp; c")
	assert.False(t, strings.Contains(captured, "a < b"), "text must be XML-escaped")
}

func TestSynthesizer_Synthesize_MissingKeyIsNotConfigured(t *testing.T) {
	t.Parallel()

	synthesizer := azure.NewSynthesizer(azure.SpeechConfig{Region: "eastus"})

	_, err := synthesizer.Synthesize(context.Background(), "text", "en", string(domain.VoiceFemale))
	require.ErrorIs(t, err, core.ErrNotConfigured)
}
