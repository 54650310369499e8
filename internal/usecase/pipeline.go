package usecase

import (
	"context"
	"fmt"
)

const (
	StageIngest   = "ingest"
	StageTrain    = "train"
	StagePredict  = "predict"
	StageEvaluate = "evaluate"
	StageRun      = "run"
)

// Pipeline maps batch stages onto use cases.
type Pipeline struct {
	ingest   *IngestUseCase
	train    *TrainUseCase
	predict  *PredictUseCase
	evaluate *EvaluateUseCase
	runner   *BatchRunner
}

func NewPipeline(ingest *IngestUseCase, train *TrainUseCase, predict *PredictUseCase, evaluate *EvaluateUseCase, runner *BatchRunner) *Pipeline {
	return &Pipeline{ingest: ingest, train: train, predict: predict, evaluate: evaluate, runner: runner}
}

// Run executes stage for every symbol. StageRun chains all stages per symbol and stops a symbol at its first failure.
func (p *Pipeline) Run(ctx context.Context, stage string, symbols []string) (*BatchResult, error) {
	fn, err := p.stage(stage)
	if err != nil {
		return nil, err
	}
	return p.runner.Run(ctx, stage, symbols, fn), nil
}

func (p *Pipeline) stage(name string) (SymbolFunc, error) {
	switch name {
	case StageIngest:
		return p.ingestSymbol, nil
	case StageTrain:
		return p.trainSymbol, nil
	case StagePredict:
		return p.predictSymbol, nil
	case StageEvaluate:
		return p.evaluateSymbol, nil
	case StageRun:
		return func(ctx context.Context, symbol, runID string) error {
			for _, fn := range []SymbolFunc{p.ingestSymbol, p.trainSymbol, p.predictSymbol, p.evaluateSymbol} {
				if err := fn(ctx, symbol, runID); err != nil {
					return err
				}
			}
			return nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown stage %q", name)
	}
}

func (p *Pipeline) ingestSymbol(ctx context.Context, symbol, _ string) error {
	if _, err := p.ingest.Ingest(ctx, symbol); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	return nil
}

func (p *Pipeline) trainSymbol(ctx context.Context, symbol, runID string) error {
	if _, err := p.train.Train(ctx, symbol, runID); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	return nil
}

func (p *Pipeline) predictSymbol(ctx context.Context, symbol, runID string) error {
	if _, err := p.predict.Predict(ctx, symbol, runID); err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	return nil
}

func (p *Pipeline) evaluateSymbol(ctx context.Context, symbol, runID string) error {
	if _, err := p.evaluate.Evaluate(ctx, symbol, runID); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}
