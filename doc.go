// Package chorus finds the chorus of a music recording and returns it as a
// trimmed WAV clip.
//
// Detection is structural: the track is reduced to a sequence of 12-bin
// chroma vectors, every frame is compared with every other frame, and
// passages that recur along the diagonals of the resulting self-similarity
// matrix are grouped into sections. Sections are ranked by how often they
// recur, how closely the repeats match, how long they last and how loud
// they are; the best one becomes the chorus. No lyric, vocal or learned
// model is involved.
//
// # Quick Start
//
//	data, _ := os.ReadFile("song.mp3")
//	res, err := chorus.ExtractChorus(ctx, data, "mp3", 30, chorus.QualityHigh)
//	if errors.Is(err, chorus.ErrNoChorusDetected) {
//	    // nothing repeats strongly enough
//	}
//	os.WriteFile("chorus.wav", res.Audio, 0o644)
//
// For control over thresholds, worker count and timeouts, build an
// [Extractor]:
//
//	cfg := chorus.DefaultConfig()
//	cfg.Workers = 2
//	cfg.JobTimeout = 30 * time.Second
//	ex, err := chorus.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ex.Close()
//
//	res, err := ex.Extract(ctx, chorus.Request{
//	    Audio:           data,
//	    FormatHint:      "flac",
//	    DurationSeconds: 20,
//	    Quality:         chorus.QualityMedium,
//	})
//
// # Quality Tiers
//
//   - [QualityLow]: 22.05 kHz, 16-bit output; non-overlapping analysis windows.
//   - [QualityMedium]: 44.1 kHz, 16-bit output.
//   - [QualityHigh]: 44.1 kHz, 24-bit output.
//
// # Pipeline
//
//	decode → chroma → similarity → repeat → cluster → select → encode
//
// Decoding accepts WAV (PCM), MP3 and FLAC and downmixes to mono. Analysis
// runs at 22.05 kHz on at most [Config.AnalysisCapMinutes] of audio; the
// clip is cut from the full-rate source.
//
// # Errors
//
// Every failure matches one sentinel with errors.Is: [ErrUnsupportedFormat],
// [ErrCorruptAudio], [ErrTrackTooLong], [ErrNoChorusDetected],
// [ErrOutOfBounds], [ErrProcessing], [ErrProcessingTimeout],
// [ErrInvalidDuration], [ErrInvalidQuality], [ErrPoolSaturated] and
// [ErrClosed]. Only [ErrPoolSaturated] is worth retrying.
//
// # Concurrency
//
// An [Extractor] runs at most [Config.Workers] jobs at once; further calls
// block until a slot frees. Each job is bounded by [Config.JobTimeout].
// Jobs share no mutable state, and the output for a given input is
// identical across runs and across [Config.Parallelism] settings.
package chorus
