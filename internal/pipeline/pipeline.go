// Package pipeline runs the extraction stages in order. The context is
// checked before every stage, so a cancelled or timed-out job stops at the
// next stage boundary; long stages also check it internally.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StageType identifies a processing stage.
type StageType int

const (
	// StageDecode parses the container and produces mono samples.
	StageDecode StageType = iota

	// StageChroma computes the chroma sequence.
	StageChroma

	// StageSimilarity builds the self-similarity matrix.
	StageSimilarity

	// StageRepeat scans the matrix diagonals for repeats.
	StageRepeat

	// StageCluster groups and scores repeats.
	StageCluster

	// StageSelect picks the chorus window.
	StageSelect

	// StageEncode slices and encodes the clip.
	StageEncode
)

var stageNames = [...]string{
	StageDecode:     "decode",
	StageChroma:     "chroma",
	StageSimilarity: "similarity",
	StageRepeat:     "repeat",
	StageCluster:    "cluster",
	StageSelect:     "select",
	StageEncode:     "encode",
}

func (t StageType) String() string {
	if t >= 0 && int(t) < len(stageNames) {
		return stageNames[t]
	}
	return fmt.Sprintf("stage(%d)", int(t))
}

// StageFunc performs one stage.
type StageFunc func(ctx context.Context) error

// Stage is a named step.
type Stage struct {
	Type StageType
	Run  StageFunc
}

// Timing records how long a completed stage took.
type Timing struct {
	Stage   StageType
	Elapsed time.Duration
}

// Pipeline is an ordered list of stages. It is not safe for concurrent use;
// build one per job.
type Pipeline struct {
	stages  []Stage
	timings []Timing
	logger  *slog.Logger
}

// New returns an empty pipeline logging through logger (slog.Default when
// nil).
func New(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		stages: make([]Stage, 0, defaultStageCapacity),
		logger: logger,
	}
}

// Add appends a stage and returns p for chaining.
func (p *Pipeline) Add(t StageType, fn StageFunc) *Pipeline {
	p.stages = append(p.stages, Stage{Type: t, Run: fn})
	return p
}

// Run executes the stages in order and stops at the first error. Errors
// are wrapped with the stage name and keep their identity for errors.Is.
func (p *Pipeline) Run(ctx context.Context) error {
	p.timings = p.timings[:0]
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before %s: %w", s.Type, err)
		}

		start := time.Now()
		err := s.Run(ctx)
		elapsed := time.Since(start)
		p.timings = append(p.timings, Timing{Stage: s.Type, Elapsed: elapsed})

		if err != nil {
			p.logger.Debug("stage failed",
				slog.String("stage", s.Type.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()))
			return fmt.Errorf("%s: %w", s.Type, err)
		}
		p.logger.Debug("stage complete",
			slog.String("stage", s.Type.String()),
			slog.Duration("elapsed", elapsed))
	}
	return nil
}

// Stages returns the stage types in execution order.
func (p *Pipeline) Stages() []StageType {
	out := make([]StageType, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.Type
	}
	return out
}

// Timings returns the timings of the stages run by the last Run.
func (p *Pipeline) Timings() []Timing { return p.timings }

// Total returns the summed elapsed time of the last Run.
func (p *Pipeline) Total() time.Duration {
	var total time.Duration
	for _, t := range p.timings {
		total += t.Elapsed
	}
	return total
}
