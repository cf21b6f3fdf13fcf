// Package subscription implements plan metering: quota gating before a
// conversion may start, plan purchase, and the periodic downgrade of expired
// paid plans.
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/book-expert/logger"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/store"
)

// paidPlanDuration is how long a purchased plan lasts.
const paidPlanDuration = 30 * 24 * time.Hour

// Audit action names.
const (
	actionPurchasePlan       = "PurchasePlan"
	actionSubscriptionExpiry = "SubscriptionExpired"
)

// Meter tracks per-user plan, usage and expiry, and gates whether a new
// pipeline run may start.
type Meter struct {
	users store.UserStore
	jobs  store.JobStore
	audit core.AuditSink
	clock core.Clock
	log   *logger.Logger
}

// NewMeter creates a subscription meter.
func NewMeter(
	users store.UserStore,
	jobs store.JobStore,
	audit core.AuditSink,
	clock core.Clock,
	log *logger.Logger,
) *Meter {
	return &Meter{
		users: users,
		jobs:  jobs,
		audit: audit,
		clock: clock,
		log:   log,
	}
}

// CurrentPlan returns the user's catalog plan, falling back to Trial when
// the user is unknown or the recorded tier is unrecognized.
func (m *Meter) CurrentPlan(ctx context.Context, userID string) domain.Plan {
	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		return domain.PlanByID(domain.PlanTrial)
	}

	return domain.PlanByID(user.PlanID)
}

// UsedConversions counts every job the user owns. All statuses count, not
// just completed ones; a failed run still consumes quota.
func (m *Meter) UsedConversions(ctx context.Context, userID string) (int, error) {
	used, err := m.jobs.CountJobsByOwner(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count conversions for user '%s': %w", userID, err)
	}

	return used, nil
}

// CanStartConversion reports whether the user may trigger a new pipeline run
// and, when denied, an explanation suitable for display.
func (m *Meter) CanStartConversion(ctx context.Context, userID string) (bool, string, error) {
	plan := m.CurrentPlan(ctx, userID)

	used, err := m.UsedConversions(ctx, userID)
	if err != nil {
		return false, "", err
	}

	if used < plan.ConversionLimit {
		return true, "", nil
	}

	message := fmt.Sprintf(
		"You have used all %d conversions of the %s plan. Please upgrade to continue.",
		plan.ConversionLimit, plan.Name,
	)

	return false, message, nil
}

// Purchase switches the user onto a plan. Trial clears the expiry; paid
// plans expire one month after purchase. An audit event is recorded.
func (m *Meter) Purchase(ctx context.Context, userID, planID string) (string, error) {
	plan := domain.PlanByID(planID)

	var expiry *time.Time
	if !plan.IsTrial {
		at := m.clock.Now().Add(paidPlanDuration)
		expiry = &at
	}

	err := m.users.UpdateSubscription(ctx, userID, plan.ID, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to purchase plan '%s' for user '%s': %w", plan.ID, userID, err)
	}

	m.audit.Record(userID, actionPurchasePlan, fmt.Sprintf("User purchased plan: %s", plan.Name))

	message := fmt.Sprintf(
		"Payment accepted. You are now on the %s plan with %d conversions.",
		plan.Name, plan.ConversionLimit,
	)

	return message, nil
}

// IsExpired reports whether the user's paid subscription has lapsed. Trial
// plans and paid plans without a recorded expiry never expire.
func (m *Meter) IsExpired(ctx context.Context, userID string) (bool, error) {
	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load user '%s': %w", userID, err)
	}

	return m.expired(user), nil
}

func (m *Meter) expired(user domain.UserAccount) bool {
	plan := domain.PlanByID(user.PlanID)
	if plan.IsTrial || user.ExpiryAt == nil {
		return false
	}

	return !user.ExpiryAt.After(m.clock.Now())
}

// SweepExpired downgrades every user whose paid plan has lapsed back to
// Trial with no expiry, recording an audit event per downgraded user.
// Re-running the sweep is a no-op for users already on Trial. Returns the
// number of users downgraded.
func (m *Meter) SweepExpired(ctx context.Context) (int, error) {
	users, err := m.users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users for expiry sweep: %w", err)
	}

	downgraded := 0

	for _, user := range users {
		if !m.expired(user) {
			continue
		}

		err = m.users.UpdateSubscription(ctx, user.ID, domain.PlanTrial, nil)
		if err != nil {
			// Keep sweeping; one failed row must not stall the batch.
			m.log.Error("Failed to downgrade expired user %s: %v", user.ID, err)

			continue
		}

		m.audit.Record(user.ID, actionSubscriptionExpiry, "Subscription expired, downgraded to Trial")
		downgraded++
	}

	if downgraded > 0 {
		m.log.Info("Expiry sweep downgraded %d users", downgraded)
	}

	return downgraded, nil
}
