package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ChangeSpeed writes input to outputDir under the same name with its tempo
// scaled by speed and its pitch moved by the given semitones.
func (r *Runner) ChangeSpeed(ctx context.Context, input, outputDir string, speed, semitones float64) (string, error) {
	if _, err := os.Stat(input); err != nil {
		return "", err
	}
	filters, err := SpeedFilters(speed)
	if err != nil {
		return "", err
	}
	if semitones != 0 {
		rate, err := r.SampleRate(ctx, input)
		if err != nil {
			return "", err
		}
		filters = append(filters, PitchFilters(semitones, rate)...)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(outputDir, filepath.Base(input))
	if _, err := r.FFmpeg(ctx, "-i", input, "-filter:a", strings.Join(filters, ","), out); err != nil {
		return "", err
	}
	return out, nil
}

// Trim cuts head from the start and tail from the end of input.
func (r *Runner) Trim(ctx context.Context, input, output string, head, tail time.Duration) error {
	if head < 0 || tail < 0 {
		return errors.New("trim offsets must be non-negative")
	}
	args := []string{"-i", input}
	if head > 0 {
		args = append(args, "-ss", seconds(head.Seconds()))
	}
	if tail > 0 {
		total, err := r.Duration(ctx, input)
		if err != nil {
			return err
		}
		end := total - tail
		if end <= head {
			return fmt.Errorf("trimming %s and %s leaves nothing of %s", head, tail, input)
		}
		args = append(args, "-to", seconds(end.Seconds()))
	}
	args = append(args, mp3Args()...)
	_, err := r.FFmpeg(ctx, append(args, output)...)
	return err
}

// TrimSilence removes silences of at least minSilence seconds below
// thresholdDB.
func (r *Runner) TrimSilence(ctx context.Context, input, output string, minSilence, thresholdDB float64) error {
	before, err := r.Duration(ctx, input)
	if err != nil {
		return err
	}
	started := time.Now()
	if _, err := r.FFmpeg(ctx, "-i", input, "-af", SilenceRemoveFilter(minSilence, thresholdDB), output); err != nil {
		return err
	}
	after, err := r.Duration(ctx, output)
	if err != nil {
		return err
	}
	ev := r.logger.Info().Dur("original", before).Dur("processed", after).Dur("took", time.Since(started))
	if before > 0 {
		ev = ev.Float64("reduced_pct", float64(before-after)/float64(before)*100)
	}
	ev.Msg("trimmed silence")
	return nil
}

type BeepInput struct {
	Output    string
	Frequency float64
	Duration  time.Duration
	Gain      float64
}

func BeepArgs(in BeepInput) []string {
	if in.Frequency <= 0 {
		in.Frequency = 880
	}
	if in.Duration <= 0 {
		in.Duration = 250 * time.Millisecond
	}
	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=%s:sample_rate=%d:duration=%s", trimFloat(in.Frequency), LessonSampleRate, seconds(in.Duration.Seconds())),
	}
	if in.Gain != 0 {
		args = append(args, "-af", GainFilter(in.Gain))
	}
	args = append(args, mp3Args()...)
	return append(args, in.Output)
}

func (r *Runner) Beep(ctx context.Context, in BeepInput) error {
	if in.Output == "" {
		return errors.New("output path is required")
	}
	_, err := r.FFmpeg(ctx, BeepArgs(in)...)
	return err
}

// Retag re-encodes input as MP3 at output carrying only the given tags.
func (r *Runner) Retag(ctx context.Context, input, output string, tags Tags) error {
	args := []string{"-i", input, "-map", "0:a", "-map_metadata", "-1"}
	args = append(args, mp3Args()...)
	args = append(args, tags.Args()...)
	_, err := r.FFmpeg(ctx, append(args, output)...)
	return err
}
