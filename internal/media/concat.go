package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Clip is one piece of a concatenation: an audio file with optional
// filters, or a stretch of silence when Path is empty.
type Clip struct {
	Path    string
	Silence time.Duration
	Filters []string
}

func File(path string, filters ...string) Clip {
	return Clip{Path: path, Filters: filters}
}

func Silence(d time.Duration) Clip {
	return Clip{Silence: d}
}

type ConcatInput struct {
	Clips  []Clip
	Output string
	// Gain in dB applied to the whole result.
	Gain float64
	Tags Tags
}

// ConcatArgs builds the ffmpeg arguments that normalise every clip to
// LessonSampleRate stereo and concatenate them into one MP3.
func ConcatArgs(in ConcatInput) ([]string, error) {
	if len(in.Clips) == 0 {
		return nil, errors.New("nothing to concatenate")
	}
	if in.Output == "" {
		return nil, errors.New("output path is required")
	}

	var args, chains, labels []string
	for i, c := range in.Clips {
		if c.Path == "" {
			if c.Silence <= 0 {
				return nil, fmt.Errorf("clip %d has neither a file nor a silence duration", i)
			}
			args = append(args,
				"-f", "lavfi",
				"-t", seconds(c.Silence.Seconds()),
				"-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo", LessonSampleRate),
			)
		} else {
			args = append(args, "-i", c.Path)
		}
		filters := append([]string{fmt.Sprintf("aformat=sample_rates=%d:channel_layouts=stereo", LessonSampleRate)}, c.Filters...)
		label := fmt.Sprintf("[c%d]", i)
		chains = append(chains, fmt.Sprintf("[%d:a]%s%s", i, strings.Join(filters, ","), label))
		labels = append(labels, label)
	}

	graph := strings.Join(chains, ";") + ";" + strings.Join(labels, "") +
		fmt.Sprintf("concat=n=%d:v=0:a=1", len(in.Clips))
	if in.Gain != 0 {
		graph += "," + GainFilter(in.Gain)
	}
	graph += "[out]"

	args = append(args, "-filter_complex", graph, "-map", "[out]")
	args = append(args, mp3Args()...)
	args = append(args, in.Tags.Args()...)
	return append(args, in.Output), nil
}

func (r *Runner) Concat(ctx context.Context, in ConcatInput) error {
	args, err := ConcatArgs(in)
	if err != nil {
		return err
	}
	_, err = r.FFmpeg(ctx, args...)
	return err
}

// JoinClips lays files out back to back with silence after each one,
// except after files whose name (without extension) ends in "+".
func JoinClips(files []string, silence time.Duration) []Clip {
	clips := make([]Clip, 0, 2*len(files))
	for _, f := range files {
		clips = append(clips, File(f))
		if strings.HasSuffix(strings.TrimSuffix(f, filepath.Ext(f)), "+") {
			continue
		}
		if silence > 0 {
			clips = append(clips, Silence(silence))
		}
	}
	return clips
}

func (r *Runner) Join(ctx context.Context, files []string, output string, tags Tags, silence time.Duration) error {
	return r.Concat(ctx, ConcatInput{
		Clips:  JoinClips(files, silence),
		Output: output,
		Tags:   tags,
	})
}
