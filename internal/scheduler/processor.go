package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/module/reachability/internal/advisor"
	"github.com/module/reachability/internal/networkio"
	"github.com/module/reachability/internal/repository"
	"github.com/module/reachability/internal/statistics"
	"github.com/module/reachability/internal/storage"
	"github.com/module/reachability/pkg/config"
	"github.com/module/reachability/pkg/engine"
	"github.com/module/reachability/pkg/model"
	"github.com/module/reachability/pkg/utils"
	"github.com/module/reachability/pkg/value"
)

// DefaultTaskProcessor implements TaskProcessor using the engine, the
// network archive in object storage, and the repository layer.
type DefaultTaskProcessor struct {
	config  *config.Config
	storage storage.Storage
	repos   *repository.Repositories
	logger  utils.Logger
}

// ProcessorConfig holds processor configuration.
type ProcessorConfig struct {
	Config  *config.Config
	Storage storage.Storage
	Repos   *repository.Repositories
	Logger  utils.Logger
}

// NewDefaultTaskProcessor creates a new DefaultTaskProcessor.
func NewDefaultTaskProcessor(cfg *ProcessorConfig) *DefaultTaskProcessor {
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &DefaultTaskProcessor{
		config:  cfg.Config,
		storage: cfg.Storage,
		repos:   cfg.Repos,
		logger:  cfg.Logger,
	}
}

// Process runs a single queued run to completion: downloads the
// archived network, resolves beliefs, persists the result, and
// generates tuning suggestions.
func (p *DefaultTaskProcessor) Process(ctx context.Context, task *Task) error {
	p.logger.Info("Starting run %s (network %s, evaluator %s)", task.UUID, task.NetworkHash, task.Evaluator)

	runDir := p.config.GetRunDir(task.UUID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(runDir); err != nil {
			p.logger.Warn("Failed to clean up run directory %s: %v", runDir, err)
		}
	}()

	doc, err := p.downloadNetwork(ctx, task, runDir)
	if err != nil {
		return fmt.Errorf("failed to load network: %w", err)
	}

	network, err := doc.Network()
	if err != nil {
		return fmt.Errorf("failed to build network: %w", err)
	}

	diamondsAtNode, err := doc.ToDiamondsAtNode(network)
	if err != nil {
		return fmt.Errorf("failed to load diamond decomposition: %w", err)
	}

	opts := p.engineOptions(task)

	beliefs, err := engine.UpdateBeliefs(network, diamondsAtNode, opts...)
	if err != nil {
		return fmt.Errorf("engine failed: %w", err)
	}

	if err := p.saveResult(ctx, task, beliefs); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	if err := p.generateSuggestions(ctx, task, network, diamondsAtNode, beliefs); err != nil {
		p.logger.Warn("Failed to generate suggestions for run %s: %v", task.UUID, err)
	}

	if err := p.repos.Run.UpdateStatus(ctx, task.ID, repository.RunStatusCompleted); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	p.logger.Info("Run %s completed, %d nodes resolved", task.UUID, len(beliefs))
	return nil
}

// downloadNetwork fetches and decompresses the archived network document
// for the task's network hash.
func (p *DefaultTaskProcessor) downloadNetwork(ctx context.Context, task *Task, runDir string) (*networkio.Document, error) {
	localFile := filepath.Join(runDir, "network.zst")
	if err := p.storage.DownloadFile(ctx, task.NetworkKey, localFile); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(localFile)
	if err != nil {
		return nil, err
	}

	return networkio.DecompressArchive(data)
}

// engineOptions translates a task's evaluator preference into engine
// options.
func (p *DefaultTaskProcessor) engineOptions(task *Task) []engine.Option {
	var opts []engine.Option

	switch task.Evaluator {
	case "sdp":
		opts = append(opts, engine.WithEvaluator(engine.EvaluatorSDP))
	default:
		opts = append(opts, engine.WithEvaluator(engine.EvaluatorEnumeration))
	}

	if task.Parallel {
		opts = append(opts, engine.WithParallel())
	}

	return opts
}

// saveResult encodes and persists a run's resolved belief map.
func (p *DefaultTaskProcessor) saveResult(ctx context.Context, task *Task, beliefs map[model.Node]value.Belief) error {
	encoded, err := networkio.EncodeBeliefs(beliefs)
	if err != nil {
		return fmt.Errorf("failed to encode beliefs: %w", err)
	}

	result := &repository.BeliefResult{
		RunUUID: task.UUID,
		Beliefs: encoded,
		Version: p.config.Engine.Version,
	}

	return p.repos.Result.SaveResult(ctx, result)
}

// generateSuggestions computes diamond and node statistics for the
// completed run and runs the advisor over them.
func (p *DefaultTaskProcessor) generateSuggestions(ctx context.Context, task *Task, network *model.Network, diamondsAtNode map[model.Node]*model.DiamondsAtNode, beliefs map[model.Node]value.Belief) error {
	diamondStats := statistics.NewDiamondStatsCalculator().Calculate(diamondsAtNode)
	nodeStats := statistics.NewNodeStatsCalculator().Calculate(beliefs)

	ruleCtx := &advisor.RuleContext{
		Network:          network,
		DiamondsAtNode:   diamondsAtNode,
		DiamondStats:     diamondStats,
		NodeStats:        nodeStats,
		EnumerationLimit: p.config.Engine.EnumerationLimit,
	}

	suggestions := advisor.NewAdvisor().Advise(ruleCtx)
	if len(suggestions) == 0 {
		return nil
	}

	persisted := make([]repository.Suggestion, len(suggestions))
	for i, s := range suggestions {
		persisted[i] = repository.Suggestion{
			RunUUID:    task.UUID,
			Type:       s.Type,
			Severity:   s.Severity,
			Suggestion: s.Suggestion,
			JoinNode:   uint64(s.JoinNode),
		}
	}

	return p.repos.Suggestion.SaveSuggestions(ctx, persisted)
}
