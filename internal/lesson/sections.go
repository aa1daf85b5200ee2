// Package lesson assembles question/answer recordings into numbered
// section files for listening practice.
package lesson

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"speechaudio/internal/media"
)

const (
	DefaultSectionUnit = 10
	DefaultPause       = 500 * time.Millisecond
	sectionTail        = 2 * time.Second
	numberPause        = 500 * time.Millisecond
)

var questionFile = regexp.MustCompile(`^(\d+)-Q-(.+)\.mp3$`)

// Audio is the subset of media.Runner used to build lesson files.
type Audio interface {
	Concat(ctx context.Context, in media.ConcatInput) error
	ReadTags(ctx context.Context, path string) (media.Tags, error)
	Retag(ctx context.Context, input, output string, tags media.Tags) error
}

type Builder struct {
	audio   Audio
	numbers *NumberAudio
	logger  zerolog.Logger
}

// NewBuilder returns a Builder. numbers may be nil when number
// announcements are never requested.
func NewBuilder(audio Audio, numbers *NumberAudio, logger zerolog.Logger) *Builder {
	return &Builder{audio: audio, numbers: numbers, logger: logger}
}

type SectionOptions struct {
	InputDir       string
	OutputDir      string
	QuestionSpeed  float64
	AnswerSpeed    float64
	Gain           float64
	RepeatQuestion bool
	Pause          time.Duration
	AddNumberAudio bool
	SectionUnit    int
	Artist         string
}

func (o *SectionOptions) defaults() {
	if o.QuestionSpeed == 0 {
		o.QuestionSpeed = 1
	}
	if o.AnswerSpeed == 0 {
		o.AnswerSpeed = 1
	}
	if o.Pause == 0 {
		o.Pause = DefaultPause
	}
	if o.SectionUnit <= 0 {
		o.SectionUnit = DefaultSectionUnit
	}
	if o.Artist == "" {
		o.Artist = media.DefaultArtist
	}
}

// ParseSpeedPair reads "Q:A" or a single value used for both.
func ParseSpeedPair(s string) (q, a float64, err error) {
	left, right, found := strings.Cut(s, ":")
	if q, err = strconv.ParseFloat(strings.TrimSpace(left), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid speed %q", s)
	}
	if !found {
		return q, q, nil
	}
	if a, err = strconv.ParseFloat(strings.TrimSpace(right), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid speed %q", s)
	}
	return q, a, nil
}

// CollectNumbers returns the ordinals of every "<n>-Q-<voice>.mp3" file
// in dir, in numeric order.
func CollectNumbers(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var numbers []string
	for _, e := range entries {
		m := questionFile.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		numbers = append(numbers, m[1])
	}
	slices.SortFunc(numbers, func(a, b string) int {
		x, _ := strconv.Atoi(a)
		y, _ := strconv.Atoi(b)
		if x != y {
			return x - y
		}
		return strings.Compare(a, b)
	})
	return numbers, nil
}

func findRecording(dir, number, kind string) string {
	matches, _ := filepath.Glob(filepath.Join(dir, number+"-"+kind+"-*.mp3"))
	if len(matches) == 0 {
		return ""
	}
	slices.Sort(matches)
	return matches[0]
}

// AlbumName derives an album title from a directory name: separators
// become spaces and every word is capitalised.
func AlbumName(dir string) string {
	name := strings.NewReplacer("_", " ", "-", " ").Replace(filepath.Base(dir))
	var b strings.Builder
	prevLetter := false
	for _, r := range name {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

type pair struct{ question, answer string }

// BuildSections writes one "<start>-<end>.mp3" file per SectionUnit
// ordinals. Sections whose sources have not changed since the last run are
// left alone. It returns the files written.
func (b *Builder) BuildSections(ctx context.Context, opts SectionOptions) ([]string, error) {
	opts.defaults()
	if opts.AddNumberAudio && b.numbers == nil {
		return nil, errors.New("number audio requested but not configured")
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, err
	}
	sigs, err := LoadSignatures(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	numbers, err := CollectNumbers(opts.InputDir)
	if err != nil {
		return nil, err
	}

	album := AlbumName(opts.OutputDir)
	var created []string
	for i := 0; i < len(numbers); i += opts.SectionUnit {
		group := numbers[i:min(i+opts.SectionUnit, len(numbers))]
		start, end := group[0], group[len(group)-1]
		section := filepath.Join(opts.OutputDir, start+"-"+end+".mp3")

		var pairs []pair
		var sources []string
		for _, n := range group {
			q, a := findRecording(opts.InputDir, n, "Q"), findRecording(opts.InputDir, n, "A")
			if q == "" || a == "" {
				b.logger.Warn().Str("number", n).Msg("question or answer file not found")
				continue
			}
			pairs = append(pairs, pair{q, a})
			sources = append(sources, q, a)
		}

		updated, err := sigs.Updated(section, sources)
		if err != nil {
			return created, err
		}
		if _, err := os.Stat(section); err == nil {
			if !updated {
				continue
			}
			b.logger.Info().Str("file", section).Msg("removing outdated file")
			if err := os.Remove(section); err != nil {
				return created, err
			}
		}
		if len(pairs) == 0 {
			continue
		}

		clips, err := b.sectionClips(ctx, start, pairs, opts)
		if err != nil {
			return created, err
		}
		err = b.audio.Concat(ctx, media.ConcatInput{
			Clips:  clips,
			Output: section,
			Gain:   opts.Gain,
			Tags:   media.Tags{Title: start + "-" + end + " " + album, Album: album, Artist: opts.Artist},
		})
		if err != nil {
			return created, err
		}
		b.logger.Info().Str("file", section).Msg("created section")
		created = append(created, section)

		if err := removeStale(opts.OutputDir, start, section); err != nil {
			return created, err
		}
	}
	return created, sigs.Save()
}

func (b *Builder) sectionClips(ctx context.Context, start string, pairs []pair, opts SectionOptions) ([]media.Clip, error) {
	var clips []media.Clip
	if opts.AddNumberAudio {
		n, _ := strconv.Atoi(start)
		file, err := b.numbers.Path(ctx, n)
		if err != nil {
			return nil, err
		}
		clips = append(clips, media.File(file), media.Silence(numberPause))
	}
	qFilters := media.ResampleSpeedFilters(opts.QuestionSpeed)
	aFilters := media.ResampleSpeedFilters(opts.AnswerSpeed)
	for _, p := range pairs {
		clips = append(clips, media.File(p.question, qFilters...))
		if opts.RepeatQuestion {
			clips = append(clips, media.Silence(opts.Pause), media.File(p.question, qFilters...))
		}
		clips = append(clips,
			media.Silence(opts.Pause),
			media.File(p.answer, aFilters...),
			media.Silence(sectionTail),
		)
	}
	return clips, nil
}

// removeStale deletes older section files that start at the same ordinal,
// left behind when a section's range changed.
func removeStale(dir, start, keep string) error {
	matches, err := filepath.Glob(filepath.Join(dir, start+"-*.mp3"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m == keep {
			continue
		}
		if err := os.Remove(m); err != nil {
			return err
		}
	}
	return nil
}
