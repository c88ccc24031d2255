package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	reachmock "github.com/module/reachability/internal/mock"
	"github.com/module/reachability/internal/repository"
)

func TestDatabaseSource_PollEmitsLockedRuns(t *testing.T) {
	runRepo := new(reachmock.MockRunRepository)
	pending := []*repository.Run{
		{ID: 1, RunUUID: "run-1", NetworkHash: "hash-1", Evaluator: "enumeration"},
		{ID: 2, RunUUID: "run-2", NetworkHash: "hash-2", Evaluator: "sdp"},
	}
	runRepo.ExpectGetPendingRuns(10, pending, nil)
	runRepo.ExpectLockRunForProcessing(int64(1), true, nil)
	runRepo.ExpectLockRunForProcessing(int64(2), false, nil)

	src := NewDatabaseSourceWithDeps("db-1", DefaultDatabaseOptions(), runRepo, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, src.Start(ctx))
	defer src.Stop()

	select {
	case event := <-src.Tasks():
		assert.Equal(t, int64(1), event.Job.RunID)
		assert.Equal(t, "run-1", event.Job.RunUUID)
		assert.Equal(t, SourceTypeDB, event.SourceType)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected a task event for the locked run")
	}

	runRepo.AssertExpectations(t)
}

func TestDatabaseSource_AckMarksRunCompleted(t *testing.T) {
	runRepo := new(reachmock.MockRunRepository)
	runRepo.ExpectUpdateStatus(int64(7), repository.RunStatusCompleted, nil)

	src := NewDatabaseSourceWithDeps("db-1", nil, runRepo, nil)
	event := NewTaskEvent(&Job{RunID: 7}, SourceTypeDB, "db-1")

	require.NoError(t, src.Ack(context.Background(), event))
	runRepo.AssertExpectations(t)
}

func TestDatabaseSource_NackMarksRunFailed(t *testing.T) {
	runRepo := new(reachmock.MockRunRepository)
	runRepo.On("UpdateStatusWithInfo", mock.Anything, int64(7), repository.RunStatusFailed, "boom").Return(nil)

	src := NewDatabaseSourceWithDeps("db-1", nil, runRepo, nil)
	event := NewTaskEvent(&Job{RunID: 7}, SourceTypeDB, "db-1")

	require.NoError(t, src.Nack(context.Background(), event, "boom"))
	runRepo.AssertExpectations(t)
}

func TestDatabaseSource_HealthCheckNoRepositoryIsHealthy(t *testing.T) {
	src := NewDatabaseSourceWithDeps("db-1", nil, nil, nil)
	assert.NoError(t, src.HealthCheck(context.Background()))
}
