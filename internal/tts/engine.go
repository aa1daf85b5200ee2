package tts

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strconv"
	"strings"

	"speechaudio/internal/upstream/amazon"
	"speechaudio/internal/upstream/openai"
)

var ErrInvalidEngine = errors.New("invalid engine")

// Engine synthesizes MP3 audio for one chunk of text.
type Engine interface {
	Synthesize(ctx context.Context, text, lang, voice, speed string) ([]byte, error)
	Voices(ctx context.Context, lang string) ([]string, error)
}

var pollyEngines = []string{"standard", "neural", "long-form", "generative"}

var openAIModels = []string{"tts-1", "tts-1-hd", "gpt-4o-mini-tts"}

var openAIVoices = []string{"alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"}

// excludedPollyVoices are never offered as defaults.
var excludedPollyVoices = []string{"Ivy", "Justin", "Kevin", "Matthew"}

type PollyClient interface {
	Voices(ctx context.Context, engine, language string) ([]string, error)
	Synthesize(ctx context.Context, in amazon.SpeechInput) ([]byte, error)
}

type SpeechClient interface {
	Speech(ctx context.Context, in openai.SpeechRequest) ([]byte, error)
}

// Backends holds the clients engines are built on. Either may be nil when
// the corresponding engines are not used.
type Backends struct {
	Polly  PollyClient
	OpenAI SpeechClient
}

// NewEngine resolves an engine name: Polly engine types by name, OpenAI
// models with an "openai-" prefix.
func NewEngine(name string, b Backends) (Engine, error) {
	if slices.Contains(pollyEngines, name) {
		if b.Polly == nil {
			return nil, fmt.Errorf("engine %q needs an AWS Polly client", name)
		}
		return &PollyEngine{client: b.Polly, engine: name, shuffle: shuffle}, nil
	}
	if model, ok := strings.CutPrefix(name, "openai-"); ok && slices.Contains(openAIModels, model) {
		if b.OpenAI == nil {
			return nil, fmt.Errorf("engine %q needs an OpenAI client", name)
		}
		return &OpenAIEngine{client: b.OpenAI, model: model}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidEngine, name)
}

type PollyEngine struct {
	client  PollyClient
	engine  string
	shuffle func([]string)
}

func (e *PollyEngine) Synthesize(ctx context.Context, text, lang, voice, speed string) ([]byte, error) {
	in := amazon.SpeechInput{Engine: e.engine, Language: lang, Voice: voice, Text: text}
	if speed != "" {
		in.Text = `<speak><prosody rate="` + ProsodyRate(speed) + `">` + text + `</prosody></speak>`
		in.SSML = true
	}
	return e.client.Synthesize(ctx, in)
}

// Voices lists usable voices in random order.
func (e *PollyEngine) Voices(ctx context.Context, lang string) ([]string, error) {
	names, err := e.client.Voices(ctx, e.engine, lang)
	if err != nil {
		return nil, err
	}
	voices := slices.DeleteFunc(names, func(v string) bool {
		return slices.Contains(excludedPollyVoices, v)
	})
	e.shuffle(voices)
	return voices, nil
}

// ProsodyRate turns a fraction between 0 and 1 into an SSML percentage.
// Other values are used as given.
func ProsodyRate(speed string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(speed), 64)
	if err != nil || v < 0 || v > 1 {
		return speed
	}
	return strconv.Itoa(int(v*100)) + "%"
}

type OpenAIEngine struct {
	client SpeechClient
	model  string
}

func (e *OpenAIEngine) Synthesize(ctx context.Context, text, _, voice, speed string) ([]byte, error) {
	rate := 1.0
	if v, err := strconv.ParseFloat(strings.TrimSpace(speed), 64); err == nil && v != 0 {
		rate = v
	}
	return e.client.Speech(ctx, openai.SpeechRequest{
		Model:          e.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: "mp3",
		Speed:          rate,
	})
}

func (e *OpenAIEngine) Voices(context.Context, string) ([]string, error) {
	return slices.Clone(openAIVoices), nil
}

func shuffle(s []string) {
	rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
