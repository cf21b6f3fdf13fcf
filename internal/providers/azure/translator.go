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

// DefaultTranslatorEndpoint is the global Azure translator endpoint.
const DefaultTranslatorEndpoint = "https://api.cognitive.microsofttranslator.com"

const translatorAPIVersion = "3.0"

// TranslatorConfig carries the credentials for the translator service.
type TranslatorConfig struct {
	Key      string
	Region   string
	Endpoint string
	Timeout  time.Duration
}

// Translator translates text through the Azure translator v3 REST API.
type Translator struct {
	httpClient *http.Client
	endpoint   string
	key        string
	region     string
}

type translateRequestItem struct {
	Text string `json:"Text"`
}

type translateResponseItem struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// NewTranslator creates a translator client.
func NewTranslator(cfg TranslatorConfig) *Translator {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultTranslatorEndpoint
	}

	return &Translator{
		httpClient: newHTTPClient(cfg.Timeout),
		endpoint:   endpoint,
		key:        cfg.Key,
		region:     cfg.Region,
	}
}

// EngineName identifies this provider on persisted translation records.
func (t *Translator) EngineName() string {
	return "azure-translator-v3"
}

// Translate converts text from sourceLanguage to targetLanguage. An empty
// sourceLanguage lets the service detect it.
func (t *Translator) Translate(
	ctx context.Context,
	text string,
	sourceLanguage string,
	targetLanguage string,
) (string, error) {
	if t.key == "" {
		return "", fmt.Errorf("translator key missing: %w", core.ErrNotConfigured)
	}

	query := url.Values{}
	query.Set("api-version", translatorAPIVersion)
	query.Set("to", targetLanguage)

	if sourceLanguage != "" {
		query.Set("from", sourceLanguage)
	}

	requestBody, err := json.Marshal([]translateRequestItem{{Text: text}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal translation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		t.endpoint+"/translate?"+query.Encode(),
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create translation request: %w", err)
	}

	httpReq.Header.Set(headerSubscriptionKey, t.key)
	httpReq.Header.Set(headerContentType, contentTypeJSON)

	if t.region != "" {
		httpReq.Header.Set(headerSubscriptionRegion, t.region)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("translator service", resp)
	}

	var parsed []translateResponseItem

	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}

	if len(parsed) == 0 || len(parsed[0].Translations) == 0 {
		return "", fmt.Errorf("translator returned no result: %w", core.ErrProviderFailure)
	}

	return parsed[0].Translations[0].Text, nil
}
