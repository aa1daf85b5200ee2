package lesson

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"speechaudio/internal/media"
)

// Speaker synthesizes text into an audio file.
type Speaker interface {
	MakeAudioFile(ctx context.Context, text, output, speed string, gain float64) error
}

// NumberAudio keeps spoken ordinals as "<dir>/<n>.mp3", synthesizing any
// that are missing.
type NumberAudio struct {
	dir     string
	speaker Speaker
}

func NewNumberAudio(dir string, speaker Speaker) *NumberAudio {
	return &NumberAudio{dir: dir, speaker: speaker}
}

func (n *NumberAudio) Path(ctx context.Context, number int) (string, error) {
	if number < 1 {
		return "", fmt.Errorf("number audio is defined for positive integers, got %d", number)
	}
	if err := os.MkdirAll(n.dir, 0o755); err != nil {
		return "", err
	}
	file := filepath.Join(n.dir, strconv.Itoa(number)+".mp3")
	if info, err := os.Stat(file); err == nil && info.Size() > 0 {
		return file, nil
	} else if err == nil {
		// an empty leftover would be skipped by the speaker
		if err := os.Remove(file); err != nil {
			return "", err
		}
	}
	if n.speaker == nil {
		return "", fmt.Errorf("number audio %s is missing", file)
	}
	if err := n.speaker.MakeAudioFile(ctx, strconv.Itoa(number), file, "", 0); err != nil {
		return "", err
	}
	return file, nil
}

// AddNumbers prefixes every MP3 in inputDir, in name order, with its
// spoken ordinal and writes the result under the same name in outputDir.
// Titles become "NN <title>".
func (b *Builder) AddNumbers(ctx context.Context, inputDir, outputDir string) ([]string, error) {
	if b.numbers == nil {
		return nil, fmt.Errorf("number audio not configured")
	}
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".mp3") {
			files = append(files, e.Name())
		}
	}
	slices.Sort(files)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	var created []string
	for i, name := range files {
		number := i + 1
		src := filepath.Join(inputDir, name)
		spoken, err := b.numbers.Path(ctx, number)
		if err != nil {
			return created, err
		}
		tags, err := b.audio.ReadTags(ctx, src)
		if err != nil {
			return created, err
		}
		tags.Title = NumberedTitle(number, tags.Title)

		out := filepath.Join(outputDir, name)
		err = b.audio.Concat(ctx, media.ConcatInput{
			Clips:  []media.Clip{media.File(spoken), media.Silence(numberPause), media.File(src)},
			Output: out,
			Tags:   tags,
		})
		if err != nil {
			return created, err
		}
		b.logger.Info().Str("file", out).Msg("created numbered file")
		created = append(created, out)
	}
	return created, nil
}

func NumberedTitle(number int, title string) string {
	if title == "" {
		title = "Unknown Title"
	}
	return fmt.Sprintf("%02d %s", number, title)
}
