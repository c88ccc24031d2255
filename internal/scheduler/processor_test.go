package scheduler

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	reachmock "github.com/module/reachability/internal/mock"
	"github.com/module/reachability/internal/networkio"
	"github.com/module/reachability/internal/repository"
	"github.com/module/reachability/pkg/config"
	"github.com/module/reachability/pkg/value"
)

func chainDocument() *networkio.Document {
	belief := func(p float64) []byte { b, _ := value.Marshal(value.Scalar(p)); return b }
	return &networkio.Document{
		Kind: "scalar",
		Edges: []networkio.EdgeDoc{
			{Src: 1, Dst: 2},
			{Src: 2, Dst: 3},
		},
		NodePriors: []networkio.NodePriorDoc{
			{Node: 1, Belief: belief(1)},
			{Node: 2, Belief: belief(1)},
			{Node: 3, Belief: belief(1)},
		},
		EdgeProbabilities: []networkio.EdgeProbabilityDoc{
			{Src: 1, Dst: 2, Belief: belief(0.5)},
			{Src: 2, Dst: 3, Belief: belief(0.5)},
		},
	}
}

func TestDefaultTaskProcessor_Process(t *testing.T) {
	archive, err := networkio.CompressArchive(chainDocument())
	require.NoError(t, err)

	storageMock := new(reachmock.MockStorage)
	storageMock.On("DownloadFile", mock.Anything, "network-key", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			localPath := args.String(2)
			require.NoError(t, os.WriteFile(localPath, archive, 0644))
		}).
		Return(nil)

	runRepo := new(reachmock.MockRunRepository)
	runRepo.ExpectUpdateStatus(int64(1), repository.RunStatusCompleted, nil)

	resultRepo := new(reachmock.MockResultRepository)
	resultRepo.ExpectSaveResult(nil)

	suggestionRepo := new(reachmock.MockSuggestionRepository)
	suggestionRepo.On("SaveSuggestions", mock.Anything, mock.Anything).Return(nil).Maybe()

	cfg := &config.Config{Engine: config.EngineConfig{
		Version:          "test",
		DataDir:          t.TempDir(),
		EnumerationLimit: 20,
	}}

	processor := NewDefaultTaskProcessor(&ProcessorConfig{
		Config:  cfg,
		Storage: storageMock,
		Repos: &repository.Repositories{
			Run:        runRepo,
			Result:     resultRepo,
			Suggestion: suggestionRepo,
		},
	})

	task := &Task{ID: 1, UUID: "run-1", NetworkHash: "hash-1", NetworkKey: "network-key", Evaluator: "enumeration"}
	err = processor.Process(context.Background(), task)
	require.NoError(t, err)

	storageMock.AssertExpectations(t)
	runRepo.AssertExpectations(t)
	resultRepo.AssertExpectations(t)
}

func TestDefaultTaskProcessor_Process_DownloadFailurePropagates(t *testing.T) {
	storageMock := new(reachmock.MockStorage)
	storageMock.ExpectDownloadFile("network-key", mock.Anything, assert.AnError)

	cfg := &config.Config{Engine: config.EngineConfig{DataDir: t.TempDir()}}
	processor := NewDefaultTaskProcessor(&ProcessorConfig{
		Config:  cfg,
		Storage: storageMock,
		Repos:   &repository.Repositories{},
	})

	task := &Task{ID: 1, UUID: "run-2", NetworkKey: "network-key"}
	err := processor.Process(context.Background(), task)
	assert.Error(t, err)
}
