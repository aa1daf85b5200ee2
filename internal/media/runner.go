// Package media drives ffmpeg and ffprobe for every audio edit the toolkit
// performs: speed and pitch changes, trimming, joining, splitting, tone
// generation and tagging.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultArtist is written to the artist tag when none is given.
const DefaultArtist = "Homebrew"

type execFunc func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

type Runner struct {
	ffmpeg  string
	ffprobe string
	logger  zerolog.Logger
	exec    execFunc
}

func NewRunner(ffmpeg, ffprobe string, logger zerolog.Logger) *Runner {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	return &Runner{ffmpeg: ffmpeg, ffprobe: ffprobe, logger: logger, exec: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Available reports whether the ffmpeg binary can be found.
func (r *Runner) Available() error {
	if _, err := exec.LookPath(r.ffmpeg); err != nil {
		return fmt.Errorf("ffmpeg binary %q was not found: %w", r.ffmpeg, err)
	}
	return nil
}

// FFmpeg runs ffmpeg with args and returns its stderr, where ffmpeg
// writes filter reports.
func (r *Runner) FFmpeg(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{"-hide_banner", "-nostdin", "-y"}, args...)
	started := time.Now()
	_, stderr, err := r.exec(ctx, r.ffmpeg, full...)
	r.logger.Debug().Strs("args", full).Dur("took", time.Since(started)).Msg("ffmpeg")
	if err != nil {
		return stderr, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr))
	}
	return stderr, nil
}

func (r *Runner) probe(ctx context.Context, path string, entries string) (string, error) {
	stdout, stderr, err := r.exec(ctx, r.ffprobe,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", entries,
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return "", fmt.Errorf("ffprobe %s: %w: %s", path, err, lastLine(stderr))
	}
	return strings.TrimSpace(string(stdout)), nil
}

func (r *Runner) SampleRate(ctx context.Context, path string) (int, error) {
	out, err := r.probe(ctx, path, "stream=sample_rate")
	if err != nil {
		return 0, err
	}
	rate, err := strconv.Atoi(firstLine(out))
	if err != nil {
		return 0, fmt.Errorf("could not determine sample rate for %s", path)
	}
	return rate, nil
}

func (r *Runner) Duration(ctx context.Context, path string) (time.Duration, error) {
	out, err := r.probe(ctx, path, "format=duration")
	if err != nil {
		return 0, err
	}
	secs, err := strconv.ParseFloat(firstLine(out), 64)
	if err != nil {
		return 0, fmt.Errorf("could not determine duration for %s", path)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// ReadTags returns the title, album and artist tags of a file.
func (r *Runner) ReadTags(ctx context.Context, path string) (Tags, error) {
	stdout, stderr, err := r.exec(ctx, r.ffprobe,
		"-v", "error",
		"-show_entries", "format_tags=title,album,artist",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	if err != nil {
		return Tags{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, lastLine(stderr))
	}
	return parseTags(string(stdout)), nil
}

func parseTags(out string) Tags {
	var t Tags
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimPrefix(key, "TAG:")) {
		case "title":
			t.Title = value
		case "album":
			t.Album = value
		case "artist":
			t.Artist = value
		}
	}
	return t
}

// Tags are the ID3 fields the toolkit writes.
type Tags struct {
	Title  string
	Album  string
	Artist string
}

// Args renders the tags as ffmpeg output options using ID3v2.3.
func (t Tags) Args() []string {
	var args []string
	for _, kv := range [][2]string{{"title", t.Title}, {"album", t.Album}, {"artist", t.Artist}} {
		if kv[1] != "" {
			args = append(args, "-metadata", kv[0]+"="+kv[1])
		}
	}
	if len(args) == 0 {
		return nil
	}
	return append(args, "-id3v2_version", "3")
}

func mp3Args() []string {
	return []string{"-codec:a", "libmp3lame", "-q:a", "2"}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
