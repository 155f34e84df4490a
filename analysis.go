package chorus

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/tphakala/go-chorus/internal/chroma"
	"github.com/tphakala/go-chorus/internal/cluster"
	"github.com/tphakala/go-chorus/internal/decode"
	"github.com/tphakala/go-chorus/internal/encode"
	"github.com/tphakala/go-chorus/internal/pipeline"
	"github.com/tphakala/go-chorus/internal/repeat"
	"github.com/tphakala/go-chorus/internal/similarity"
)

// job carries the intermediate values of one extraction.
type job struct {
	cfg  *Config
	spec TierSpec
	req  Request
	log  *slog.Logger

	track    *decode.Track
	analysis *decode.Track
	seq      *chroma.Sequence
	matrix   *similarity.Matrix
	segments []repeat.Segment
	sections []cluster.Section
	chosen   Candidate
	clip     *encode.Result
}

func (e *Extractor) run(ctx context.Context, req Request, spec TierSpec) (*Result, error) {
	j := &job{cfg: &e.cfg, spec: spec, req: req, log: e.logger}

	p := pipeline.New(e.logger).
		Add(pipeline.StageDecode, j.decode).
		Add(pipeline.StageChroma, j.chroma).
		Add(pipeline.StageSimilarity, j.similarity).
		Add(pipeline.StageRepeat, j.repeats).
		Add(pipeline.StageCluster, j.cluster).
		Add(pipeline.StageSelect, j.selectWindow).
		Add(pipeline.StageEncode, j.encode)

	if err := p.Run(ctx); err != nil {
		return nil, err
	}

	return &Result{
		ChorusStartSeconds: j.clip.StartSeconds,
		DurationSeconds:    j.clip.DurationSeconds,
		Score:              j.chosen.Score,
		Audio:              j.clip.Audio,
		SampleRate:         j.clip.SampleRate,
		BitDepth:           j.clip.BitDepth,
	}, nil
}

func (j *job) decode(context.Context) error {
	track, err := decode.Decode(j.req.Audio, j.req.FormatHint)
	if err != nil {
		return err
	}
	if limit := j.cfg.MaxTrackMinutes * secondsPerMinute; track.Seconds() > limit {
		return fmt.Errorf("%w: %.1fs exceeds %.0fs", ErrTrackTooLong, track.Seconds(), limit)
	}

	// Only the analysed prefix is resampled; the clip is cut from the
	// full-rate source.
	analysis, err := track.Truncate(j.cfg.AnalysisCapMinutes * secondsPerMinute).Resample(j.cfg.AnalysisSampleRate)
	if err != nil {
		return fmt.Errorf("%w: analysis resample: %v", ErrProcessing, err)
	}

	j.track, j.analysis = track, analysis
	j.log.Debug("decoded",
		slog.String("format", track.Format.String()),
		slog.Int("sample_rate", track.SampleRate),
		slog.Int("channels", track.SourceChannels),
		slog.Float64("seconds", track.Seconds()),
		slog.Float64("analysed_seconds", analysis.Seconds()))
	return nil
}

func (j *job) chroma(ctx context.Context) error {
	seq, err := chroma.Extract(ctx, j.analysis.Samples, chroma.Config{
		SampleRate:  j.analysis.SampleRate,
		WindowSize:  j.spec.AnalysisWindow,
		HopSize:     j.spec.AnalysisHop,
		Parallelism: j.cfg.Parallelism,
	})
	if err != nil {
		return err
	}
	j.seq = seq
	return nil
}

func (j *job) similarity(ctx context.Context) error {
	j.log.Debug("building similarity matrix",
		slog.Int("frames", j.seq.Len()),
		slog.Int64("bytes", similarity.Bytes(j.seq.Len())))

	m, err := similarity.Build(ctx, j.seq, similarity.Options{
		SmoothingFrames: j.cfg.SmoothingFrames,
		MinTonality:     j.cfg.MinTonality,
		Parallelism:     j.cfg.Parallelism,
	})
	if err != nil {
		return err
	}
	j.matrix = m
	return nil
}

func (j *job) repeats(ctx context.Context) error {
	segs, err := repeat.Detect(ctx, j.matrix, repeat.Options{
		Threshold: j.cfg.SimilarityThreshold,
		MinLength: j.minRepeatFrames(),
		MaxGap:    j.cfg.MaxGapFrames,
	})
	if err != nil {
		return err
	}
	j.segments = segs
	// The matrix is the job's largest allocation; drop it early.
	j.matrix = nil
	return nil
}

func (j *job) cluster(context.Context) error {
	j.sections = cluster.Score(j.segments, j.seq.Energy, cluster.Options{
		Tolerance: j.cfg.ClusterToleranceFrames,
		Weights:   j.cfg.Weights.internal(),
	})
	j.log.Debug("clustered repeats",
		slog.Int("segments", len(j.segments)),
		slog.Int("sections", len(j.sections)))
	return nil
}

func (j *job) selectWindow(context.Context) error {
	c, err := selectChorus(j.sections, j.seq.HopSeconds, j.track.Seconds(),
		j.req.DurationSeconds, j.cfg.MinDurationSeconds)
	if err != nil {
		return err
	}
	j.chosen = c
	return nil
}

func (j *job) encode(context.Context) error {
	clip, err := encode.Clip(j.track, j.chosen.StartSeconds, j.chosen.DurationSeconds, encode.Options{
		SampleRate: j.spec.SampleRate,
		BitDepth:   j.spec.BitDepth,
		// Rounding both window edges to samples may lose one sample.
		MinSeconds: j.cfg.MinDurationSeconds - 1/float64(j.track.SampleRate),
	})
	if err != nil {
		return err
	}
	j.clip = clip
	return nil
}

// minRepeatFrames converts MinRepeatSeconds to whole frames, at least one.
func (j *job) minRepeatFrames() int {
	return max(1, int(math.Ceil(j.cfg.MinRepeatSeconds/j.seq.HopSeconds)))
}
