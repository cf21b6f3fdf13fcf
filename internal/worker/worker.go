// Package worker provides the NATS worker that runs conversion jobs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/events"
	"github.com/voicebridge/voicebridge/internal/pipeline"
	"github.com/voicebridge/voicebridge/internal/subscription"
)

const handleMessageTimeout = 15 * time.Minute

// NatsWorker listens for submitted jobs on a NATS subject, gates them
// through the subscription meter and drives the pipeline orchestrator.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	failedSubject  string
	orchestrator   *pipeline.Orchestrator
	meter          *subscription.Meter
	validate       *validator.Validate
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. failedSubject
// receives failure events for messages that carry no reply inbox.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	failedSubject string,
	orchestrator *pipeline.Orchestrator,
	meter *subscription.Meter,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		failedSubject:  failedSubject,
		orchestrator:   orchestrator,
		meter:          meter,
		validate:       validator.New(),
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	allowed, denial, err := w.meter.CanStartConversion(ctx, event.UserID)
	if err != nil {
		w.log.Error("Quota check failed for job %s: %v", event.JobID, err)
		w.publishFailure(msg, event.JobID, err.Error())

		return
	}

	if !allowed {
		w.log.Warn("Job %s denied for user %s: %s", event.JobID, event.UserID, denial)
		w.publishFailure(msg, event.JobID, denial)

		return
	}

	runErr := w.orchestrator.Run(ctx, event.JobID, event.TargetLanguage, domain.VoiceType(event.VoiceType))
	if runErr != nil {
		w.log.Error("Pipeline run for job %s failed: %v", event.JobID, runErr)
		w.publishFailure(msg, event.JobID, runErr.Error())

		return
	}

	w.publishCompletion(msg, event.JobID)
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*events.JobSubmittedEvent, error) {
	var event events.JobSubmittedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	err = w.validate.Struct(&event)
	if err != nil {
		return nil, fmt.Errorf("invalid job event: %w", err)
	}

	return &event, nil
}

func (w *NatsWorker) publishCompletion(msg *nats.Msg, jobID string) {
	reply := events.JobCompletedEvent{
		Header: newHeader(),
		JobID:  jobID,
		Status: string(domain.JobStatusCompleted),
	}

	w.respond(msg, "", reply)
}

func (w *NatsWorker) publishFailure(msg *nats.Msg, jobID, reason string) {
	reply := events.JobFailedEvent{
		Header: newHeader(),
		JobID:  jobID,
		Status: string(domain.JobStatusFailed),
		Reason: reason,
	}

	w.respond(msg, w.failedSubject, reply)
}

// respond answers on the message reply inbox when one exists, otherwise on
// the fallback subject when configured.
func (w *NatsWorker) respond(msg *nats.Msg, fallbackSubject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		w.log.Error("Failed to marshal reply event: %v", err)

		return
	}

	if msg.Reply != "" {
		err = msg.Respond(data)
	} else if fallbackSubject != "" {
		err = w.natsConnection.Publish(fallbackSubject, data)
	}

	if err != nil {
		w.log.Error("Failed to publish reply event: %v", err)
	}
}

func newHeader() events.Header {
	return events.Header{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}
