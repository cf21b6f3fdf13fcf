// Package audit records user-attributed actions without ever failing the
// caller.
package audit

import (
	"context"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/store"
)

const recordTimeout = 5 * time.Second

// StoreSink writes audit entries to the persistence layer. Recording is
// fire-and-forget: failures are logged and swallowed so auditing never
// breaks the main flow.
type StoreSink struct {
	audits store.AuditStore
	clock  core.Clock
	log    *logger.Logger
}

// NewStoreSink creates a store-backed audit sink.
func NewStoreSink(audits store.AuditStore, clock core.Clock, log *logger.Logger) *StoreSink {
	return &StoreSink{
		audits: audits,
		clock:  clock,
		log:    log,
	}
}

// Record appends one audit entry.
func (s *StoreSink) Record(userID, action, details string) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	entry := domain.AuditEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		Timestamp: s.clock.Now(),
	}

	err := s.audits.AppendAudit(ctx, entry)
	if err != nil {
		s.log.Error("Failed to record audit entry (user=%s action=%s): %v", userID, action, err)
	}
}
