package tts

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"speechaudio/internal/media"
)

// MaxChunkChars is the longest text sent in one synthesis request.
const MaxChunkChars = 1000

type Concatenator interface {
	Concat(ctx context.Context, in media.ConcatInput) error
}

type Synthesizer struct {
	engine Engine
	lang   string
	voice  string
	media  Concatenator
	logger zerolog.Logger
}

// NewSynthesizer binds an engine to a language. An empty voice selects the
// first voice the engine offers.
func NewSynthesizer(ctx context.Context, engine Engine, lang, voice string, concat Concatenator, logger zerolog.Logger) (*Synthesizer, error) {
	if voice == "" {
		voices, err := engine.Voices(ctx, lang)
		if err != nil {
			return nil, err
		}
		if len(voices) == 0 {
			return nil, fmt.Errorf("no voices available for %s", lang)
		}
		voice = voices[0]
	}
	return &Synthesizer{engine: engine, lang: lang, voice: voice, media: concat, logger: logger}, nil
}

func (s *Synthesizer) Voice() string { return s.voice }

// MakeAudioFile synthesizes text into output. An existing output is left
// untouched.
func (s *Synthesizer) MakeAudioFile(ctx context.Context, text, output, speed string, gain float64) error {
	if _, err := os.Stat(output); err == nil {
		s.logger.Info().Str("file", output).Msg("skip existing file")
		return nil
	}
	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	chunks := SplitText(text, MaxChunkChars)
	if len(chunks) == 0 {
		return errors.New("no text to synthesize")
	}

	parts := make([][]byte, 0, len(chunks))
	for i, chunk := range chunks {
		s.logger.Info().Int("chunk", i+1).Int("of", len(chunks)).Str("file", filepath.Base(output)).Msg("synthesizing")
		audio, err := s.engine.Synthesize(ctx, chunk, s.lang, s.voice, speed)
		if err != nil {
			return fmt.Errorf("synthesize chunk %d: %w", i+1, err)
		}
		parts = append(parts, audio)
	}
	if len(parts) == 1 && gain == 0 {
		return os.WriteFile(output, parts[0], 0o644)
	}

	tmp, err := os.MkdirTemp("", "sat-tts-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	clips := make([]media.Clip, 0, len(parts))
	for i, audio := range parts {
		part := filepath.Join(tmp, fmt.Sprintf("%04d.mp3", i))
		if err := os.WriteFile(part, audio, 0o644); err != nil {
			return err
		}
		clips = append(clips, media.File(part))
	}
	return s.media.Concat(ctx, media.ConcatInput{Clips: clips, Output: output, Gain: gain})
}

// SplitText breaks text into chunks of at most maxChars characters at
// sentence ends. Full-width "！" and "？" are normalised first; a sentence
// longer than maxChars is hard split.
func SplitText(text string, maxChars int) []string {
	text = strings.NewReplacer("！", "!", "？", "?").Replace(text)

	var chunks []string
	var current []rune
	for _, sentence := range strings.Split(text, ".") {
		if sentence == "" {
			continue
		}
		s := []rune(strings.TrimSpace(sentence))
		if len(current)+len(s)+1 <= maxChars {
			current = append(append(current, s...), '.')
			continue
		}
		if len(current) > 0 {
			chunks = append(chunks, strings.TrimSpace(string(current)))
		}
		current = append(s, '.')
		for len(current) > maxChars {
			chunks = append(chunks, string(current[:maxChars]))
			current = current[maxChars:]
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.TrimSpace(string(current)))
	}
	return slices.DeleteFunc(chunks, func(c string) bool { return c == "" })
}

// ReadScript returns the text of a script file without comment lines,
// which start with "#".
func ReadScript(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" && !strings.HasPrefix(strings.TrimSpace(line), "#") {
			b.WriteString(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return b.String(), nil
			}
			return "", err
		}
	}
}
