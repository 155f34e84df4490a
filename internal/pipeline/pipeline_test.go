package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStage = errors.New("stage broke")

func TestPipeline_RunsInOrder(t *testing.T) {
	var order []StageType
	record := func(st StageType) StageFunc {
		return func(context.Context) error {
			order = append(order, st)
			return nil
		}
	}

	p := New(nil).
		Add(StageDecode, record(StageDecode)).
		Add(StageChroma, record(StageChroma)).
		Add(StageEncode, record(StageEncode))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []StageType{StageDecode, StageChroma, StageEncode}, order)
	assert.Equal(t, order, p.Stages())
	require.Len(t, p.Timings(), 3)
	assert.GreaterOrEqual(t, p.Total(), p.Timings()[0].Elapsed)
}

func TestPipeline_StopsAtFirstError(t *testing.T) {
	ran := false
	p := New(nil).
		Add(StageDecode, func(context.Context) error { return errStage }).
		Add(StageChroma, func(context.Context) error { ran = true; return nil })

	err := p.Run(context.Background())
	require.ErrorIs(t, err, errStage)
	assert.Contains(t, err.Error(), "decode")
	assert.False(t, ran)
	assert.Len(t, p.Timings(), 1)
}

func TestPipeline_ChecksContextBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := false

	p := New(nil).
		Add(StageSimilarity, func(context.Context) error { cancel(); return nil }).
		Add(StageRepeat, func(context.Context) error { ran = true; return nil })

	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "before repeat")
	assert.False(t, ran)
}

func TestPipeline_LogsStages(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := New(logger).Add(StageCluster, func(context.Context) error { return nil })
	require.NoError(t, p.Run(context.Background()))

	assert.Contains(t, buf.String(), "stage complete")
	assert.Contains(t, buf.String(), "stage=cluster")
}

func TestStageType_String(t *testing.T) {
	assert.Equal(t, "decode", StageDecode.String())
	assert.Equal(t, "encode", StageEncode.String())
	assert.Equal(t, "stage(42)", StageType(42).String())
}
