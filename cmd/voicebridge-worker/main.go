// main package for the voicebridge worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/voicebridge/voicebridge/internal/audit"
	"github.com/voicebridge/voicebridge/internal/cache"
	"github.com/voicebridge/voicebridge/internal/config"
	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/objectstore"
	"github.com/voicebridge/voicebridge/internal/pipeline"
	"github.com/voicebridge/voicebridge/internal/providers/azure"
	"github.com/voicebridge/voicebridge/internal/store"
	"github.com/voicebridge/voicebridge/internal/store/memory"
	postgreststore "github.com/voicebridge/voicebridge/internal/store/postgrest"
	"github.com/voicebridge/voicebridge/internal/subscription"
	"github.com/voicebridge/voicebridge/internal/worker"
)

const natsConnectTimeout = 2 * time.Minute

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voicebridge-worker.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

// connectNATS retries with exponential backoff so the worker survives a
// broker that comes up after it does.
func connectNATS(url string, log *logger.Logger) (*nats.Conn, error) {
	var natsConnection *nats.Conn

	operation := func() error {
		conn, err := nats.Connect(url)
		if err != nil {
			log.Warn("NATS connection to %s failed, retrying: %v", url, err)

			return fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
		}

		natsConnection = conn

		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = natsConnectTimeout

	err := backoff.Retry(operation, expBackoff)
	if err != nil {
		return nil, fmt.Errorf("gave up connecting to NATS: %w", err)
	}

	return natsConnection, nil
}

func buildStore(cfg *config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.Storage.PostgrestURL == "" {
		log.Warn("No postgrest_url configured, falling back to the in-memory store")

		return memory.New(), nil
	}

	client := postgreststore.NewClient(cfg.Storage.PostgrestURL, cfg.Storage.ServiceKey)

	persistentStore, err := postgreststore.New(client)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgrest store: %w", err)
	}

	return persistentStore, nil
}

func run() error {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	natsConnection, err := connectNATS(cfg.NATS.URL, finalLog)
	if err != nil {
		finalLog.Error("NATS connection failed: %v", err)

		return err
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	blobs, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	persistentStore, err := buildStore(cfg, finalLog)
	if err != nil {
		return err
	}

	clock := core.SystemClock()
	callTimeout := time.Duration(cfg.Pipeline.CallTimeoutSeconds) * time.Second
	cacheTTL := time.Duration(cfg.Pipeline.TranslationCacheTTLHour) * time.Hour

	if cacheTTL <= 0 {
		cacheTTL = pipeline.TranslationCacheTTL
	}

	recognizer := azure.NewRecognizer(azure.SpeechConfig{
		Key:      cfg.Speech.Key,
		Region:   cfg.Speech.Region,
		Endpoint: cfg.Speech.STTEndpoint,
		Language: cfg.Speech.Language,
	}, blobs)
	translator := azure.NewTranslator(azure.TranslatorConfig{
		Key:      cfg.Translator.Key,
		Region:   cfg.Translator.Region,
		Endpoint: cfg.Translator.Endpoint,
	})
	synthesizer := azure.NewSynthesizer(azure.SpeechConfig{
		Key:      cfg.Speech.Key,
		Region:   cfg.Speech.Region,
		Endpoint: cfg.Speech.TTSEndpoint,
	})

	transcription := pipeline.NewTranscriptionStage(recognizer, persistentStore, clock, callTimeout, finalLog)
	translation := pipeline.NewTranslationStage(
		translator,
		persistentStore,
		cache.NewMemory(cacheTTL),
		clock,
		cfg.Pipeline.ChunkSize,
		callTimeout,
		finalLog,
	)
	synthesis := pipeline.NewSynthesisStage(synthesizer, blobs, persistentStore, clock, callTimeout, finalLog)
	orchestrator := pipeline.NewOrchestrator(
		persistentStore, persistentStore, transcription, translation, synthesis, finalLog,
	)

	auditSink := audit.NewStoreSink(persistentStore, clock, finalLog)
	meter := subscription.NewMeter(persistentStore, persistentStore, auditSink, clock, finalLog)

	sweepInterval := time.Duration(cfg.Subscription.SweepIntervalHours) * time.Hour
	sweeper := subscription.NewSweeper(meter, sweepInterval, finalLog)

	go sweeper.Run(ctx)

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.JobSubmittedSubject,
		cfg.NATS.JobFailedSubject,
		orchestrator,
		meter,
		finalLog,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	finalLog.System(
		"Voicebridge worker initialized. Listening for jobs on subject: %s",
		cfg.NATS.JobSubmittedSubject,
	)

	err = natsWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker terminated: %w", err)
	}

	finalLog.System("Voicebridge worker shut down cleanly.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
