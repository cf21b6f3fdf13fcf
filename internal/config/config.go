// Package config provides the configuration structure for the voicebridge
// worker.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	JobSubmittedSubject    string `toml:"job_submitted_subject"`
	JobFailedSubject       string `toml:"job_failed_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
}

// PipelineConfig bounds the conversion pipeline stages.
type PipelineConfig struct {
	ChunkSize               int `toml:"chunk_size"`
	CallTimeoutSeconds      int `toml:"call_timeout_seconds"`
	TranslationCacheTTLHour int `toml:"translation_cache_ttl_hours"`
}

// SpeechConfig holds the credentials for the speech recognition and
// synthesis services. Endpoint overrides the region-derived URL.
type SpeechConfig struct {
	Key         string `toml:"key"`
	Region      string `toml:"region"`
	STTEndpoint string `toml:"stt_endpoint"`
	TTSEndpoint string `toml:"tts_endpoint"`
	Language    string `toml:"language"`
}

// TranslatorConfig holds the credentials for the translation service.
type TranslatorConfig struct {
	Key      string `toml:"key"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

// StorageConfig selects the persistence backend. An empty PostgrestURL
// keeps everything in memory, which is only suitable for development.
type StorageConfig struct {
	PostgrestURL string `toml:"postgrest_url"`
	ServiceKey   string `toml:"service_key"`
}

// PaymentConfig holds the MoMo merchant credentials.
type PaymentConfig struct {
	PartnerCode string `toml:"partner_code"`
	AccessKey   string `toml:"access_key"`
	SecretKey   string `toml:"secret_key"`
	Endpoint    string `toml:"endpoint"`
	ReturnURL   string `toml:"return_url"`
	NotifyURL   string `toml:"notify_url"`
}

// SubscriptionConfig controls the expiry sweeper cadence.
type SubscriptionConfig struct {
	SweepIntervalHours int `toml:"sweep_interval_hours"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS         NATSConfig         `toml:"nats"`
	Pipeline     PipelineConfig     `toml:"pipeline"`
	Speech       SpeechConfig       `toml:"speech"`
	Translator   TranslatorConfig   `toml:"translator"`
	Storage      StorageConfig      `toml:"storage"`
	Payment      PaymentConfig      `toml:"payment"`
	Subscription SubscriptionConfig `toml:"subscription"`
	Paths        PathsConfig        `toml:"paths"`
}

// Load loads the configuration for the voicebridge worker.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
