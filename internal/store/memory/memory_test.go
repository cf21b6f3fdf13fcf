package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/domain"
	"github.com/voicebridge/voicebridge/internal/store/memory"
)

func TestStore_JobLifecycle(t *testing.T) {
	t.Parallel()

	storeInstance := memory.New()
	ctx := context.Background()

	job := domain.Job{
		ID:        "job-1",
		OwnerID:   "user-1",
		SourceRef: "uploads/a.wav",
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now(),
	}

	require.NoError(t, storeInstance.CreateJob(ctx, job))

	loaded, err := storeInstance.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, loaded.Status)

	require.NoError(t, storeInstance.UpdateJobStatus(ctx, "job-1", domain.JobStatusFailed, "translation failed"))

	loaded, err = storeInstance.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, loaded.Status)
	assert.Equal(t, "translation failed", loaded.FailureReason)
}

func TestStore_GetJobNotFound(t *testing.T) {
	t.Parallel()

	storeInstance := memory.New()

	_, err := storeInstance.GetJob(context.Background(), "absent")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_CountJobsByOwnerCountsAllStatuses(t *testing.T) {
	t.Parallel()

	storeInstance := memory.New()
	ctx := context.Background()

	statuses := []domain.JobStatus{
		domain.JobStatusPending,
		domain.JobStatusProcessing,
		domain.JobStatusCompleted,
		domain.JobStatusFailed,
	}
	for i, status := range statuses {
		require.NoError(t, storeInstance.CreateJob(ctx, domain.Job{
			ID:      string(rune('a' + i)),
			OwnerID: "user-1",
			Status:  status,
		}))
	}

	require.NoError(t, storeInstance.CreateJob(ctx, domain.Job{ID: "other", OwnerID: "user-2"}))

	count, err := storeInstance.CountJobsByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestStore_TranscriptDelete(t *testing.T) {
	t.Parallel()

	storeInstance := memory.New()
	ctx := context.Background()

	require.NoError(t, storeInstance.CreateTranscript(ctx, domain.Transcript{ID: "tr-1", JobID: "job-1"}))
	require.NoError(t, storeInstance.DeleteTranscript(ctx, "tr-1"))
	assert.Empty(t, storeInstance.Transcripts())

	err := storeInstance.DeleteTranscript(ctx, "tr-1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_UpdateSubscription(t *testing.T) {
	t.Parallel()

	storeInstance := memory.New()
	ctx := context.Background()

	expiry := time.Now().Add(24 * time.Hour)
	storeInstance.PutUser(domain.UserAccount{ID: "user-1", PlanID: domain.PlanBasic, ExpiryAt: &expiry})

	require.NoError(t, storeInstance.UpdateSubscription(ctx, "user-1", domain.PlanTrial, nil))

	user, err := storeInstance.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanTrial, user.PlanID)
	assert.Nil(t, user.ExpiryAt)

	err = storeInstance.UpdateSubscription(ctx, "ghost", domain.PlanTrial, nil)
	require.ErrorIs(t, err, core.ErrNotFound)
}
