package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Span is a half-open time range within a file.
type Span struct {
	Start time.Duration
	End   time.Duration
}

// DurationSpans cuts total into segments of length segment, each starting
// overlap before the previous one ended.
func DurationSpans(total, segment, overlap time.Duration) ([]Span, error) {
	if segment <= 0 {
		return nil, errors.New("segment length must be greater than zero")
	}
	if overlap < 0 {
		return nil, errors.New("overlap must be non-negative")
	}
	if overlap >= segment {
		return nil, errors.New("overlap must be shorter than the segment length")
	}
	var spans []Span
	for start := time.Duration(0); start < total; start += segment - overlap {
		spans = append(spans, Span{Start: start, End: min(start+segment, total)})
	}
	return spans, nil
}

// ParseSilences reads silencedetect reports from ffmpeg stderr.
func ParseSilences(stderr []byte) []Span {
	var (
		spans   []Span
		start   time.Duration
		started bool
	)
	sc := bufio.NewScanner(bytes.NewReader(stderr))
	for sc.Scan() {
		line := sc.Text()
		if v, ok := reportValue(line, "silence_start:"); ok {
			start, started = v, true
			continue
		}
		if v, ok := reportValue(line, "silence_end:"); ok && started {
			spans = append(spans, Span{Start: start, End: v})
			started = false
		}
	}
	return spans
}

func reportValue(line, key string) (time.Duration, bool) {
	_, rest, ok := strings.Cut(line, key)
	if !ok {
		return 0, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// SilenceSpans splits total at the midpoint of every silence that lies
// between two sounding parts, so each chunk keeps the silence around it.
func SilenceSpans(silences []Span, total time.Duration) []Span {
	if total <= 0 {
		return nil
	}
	var cuts []time.Duration
	for _, s := range silences {
		if s.Start <= 0 || s.End >= total {
			continue
		}
		cuts = append(cuts, s.Start+(s.End-s.Start)/2)
	}
	spans := make([]Span, 0, len(cuts)+1)
	var prev time.Duration
	for _, c := range cuts {
		if c <= prev {
			continue
		}
		spans = append(spans, Span{Start: prev, End: c})
		prev = c
	}
	return append(spans, Span{Start: prev, End: total})
}

// SegmentTitles numbers titles from 1 with zero padding wide enough for n.
func SegmentTitles(stem string, n int) []string {
	width := len(strconv.Itoa(n))
	titles := make([]string, n)
	for i := range titles {
		titles[i] = fmt.Sprintf("%s-%0*d", stem, width, i+1)
	}
	return titles
}

type SplitInput struct {
	Input       string
	OutputDir   string
	Album       string
	TitlePrefix string
}

func (in SplitInput) stem() string {
	if in.TitlePrefix != "" {
		return in.TitlePrefix
	}
	base := filepath.Base(in.Input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (r *Runner) SplitByDuration(ctx context.Context, in SplitInput, segment, overlap time.Duration) ([]string, error) {
	total, err := r.Duration(ctx, in.Input)
	if err != nil {
		return nil, err
	}
	spans, err := DurationSpans(total, segment, overlap)
	if err != nil {
		return nil, err
	}
	return r.exportSpans(ctx, in, spans)
}

// SplitBySilence cuts a file wherever ffmpeg reports at least minSilence
// of audio quieter than thresholdDB.
func (r *Runner) SplitBySilence(ctx context.Context, in SplitInput, minSilence time.Duration, thresholdDB float64) ([]string, error) {
	total, err := r.Duration(ctx, in.Input)
	if err != nil {
		return nil, err
	}
	report, err := r.FFmpeg(ctx,
		"-i", in.Input,
		"-af", fmt.Sprintf("silencedetect=noise=%sdB:d=%s", trimFloat(thresholdDB), seconds(minSilence.Seconds())),
		"-f", "null", "-",
	)
	if err != nil {
		return nil, err
	}
	return r.exportSpans(ctx, in, SilenceSpans(ParseSilences(report), total))
}

func (r *Runner) exportSpans(ctx context.Context, in SplitInput, spans []Span) ([]string, error) {
	if err := os.MkdirAll(in.OutputDir, 0o755); err != nil {
		return nil, err
	}
	titles := SegmentTitles(in.stem(), len(spans))
	outputs := make([]string, 0, len(spans))
	for i, span := range spans {
		out := filepath.Join(in.OutputDir, titles[i]+".mp3")
		args := []string{
			"-i", in.Input,
			"-ss", seconds(span.Start.Seconds()),
			"-to", seconds(span.End.Seconds()),
		}
		args = append(args, mp3Args()...)
		args = append(args, Tags{Title: titles[i], Album: in.Album, Artist: DefaultArtist}.Args()...)
		if _, err := r.FFmpeg(ctx, append(args, out)...); err != nil {
			return outputs, err
		}
		r.logger.Info().Str("file", out).Dur("start", span.Start).Dur("end", span.End).Msg("created segment")
		outputs = append(outputs, out)
	}
	return outputs, nil
}
