// Package cli builds the sat command tree.
package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"speechaudio/internal/config"
	"speechaudio/internal/lesson"
	"speechaudio/internal/logging"
	"speechaudio/internal/media"
	"speechaudio/internal/observability"
	"speechaudio/internal/tts"
	"speechaudio/internal/upstream/amazon"
	"speechaudio/internal/upstream/openai"
)

// numberAudioLang and numberAudioEngine voice the spoken ordinals.
const (
	numberAudioLang   = "en-US"
	numberAudioEngine = "neural"
)

// app carries what every subcommand needs once flags and the environment
// have been read.
type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewRootCommand() *cobra.Command {
	a := &app{}
	var envFile string

	root := &cobra.Command{
		Use:           "sat",
		Short:         "Speech and audio tools for language lessons",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadEnvFile(envFile); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			a.cfg = cfg
			a.logger = logging.New(logging.Config{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Out:    cmd.ErrOrStderr(),
			})
			a.metrics = observability.NewMetrics()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load")

	root.AddCommand(
		newTTSCommand(a),
		newTranscribeCommand(a),
		newAudioCommand(a),
		newServeCommand(a),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) httpClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func (a *app) openAI() *openai.Client {
	return openai.New(a.cfg.OpenAIBaseURL, a.cfg.OpenAIAPIKey, a.httpClient(a.cfg.TranscriptionTimeout),
		openai.WithObserver(a.metrics.ObserveUpstream))
}

func (a *app) awsOptions() []amazon.Option {
	return []amazon.Option{
		amazon.WithObserver(a.metrics.ObserveUpstream),
		amazon.WithWaitObserver(a.metrics.ObserveJobWait),
	}
}

func (a *app) aws(ctx context.Context, region string) (amazon.Clients, error) {
	if region == "" {
		region = a.cfg.AWSRegion
	}
	clients, err := amazon.LoadClients(ctx, region)
	if err != nil {
		return amazon.Clients{}, fmt.Errorf("load aws config: %w", err)
	}
	return clients, nil
}

func (a *app) runner(ffmpeg string) *media.Runner {
	if ffmpeg == "" {
		ffmpeg = a.cfg.FFmpegPath
	}
	return media.NewRunner(ffmpeg, a.cfg.FFprobePath, logging.WithComponent("media"))
}

// engine builds a TTS engine, loading AWS clients only for Polly engines.
func (a *app) engine(ctx context.Context, name string) (tts.Engine, error) {
	var backends tts.Backends
	if strings.HasPrefix(name, "openai-") {
		backends.OpenAI = a.openAI()
	} else {
		clients, err := a.aws(ctx, "")
		if err != nil {
			return nil, err
		}
		backends.Polly = amazon.NewSpeech(clients.Polly, a.awsOptions()...)
	}
	return tts.NewEngine(name, backends)
}

func (a *app) synthesizer(ctx context.Context, engineName, lang, voice string) (*tts.Synthesizer, error) {
	engine, err := a.engine(ctx, engineName)
	if err != nil {
		return nil, err
	}
	return tts.NewSynthesizer(ctx, engine, lang, voice, a.runner(""), logging.WithComponent("tts"))
}

func (a *app) lessonBuilder() *lesson.Builder {
	numbers := lesson.NewNumberAudio(a.cfg.NumberAudioDir, &numberSpeaker{app: a})
	return lesson.NewBuilder(a.runner(""), numbers, logging.WithComponent("lesson"))
}

// numberSpeaker defers building the synthesizer until an ordinal is
// actually missing from the number audio directory.
type numberSpeaker struct {
	app   *app
	synth *tts.Synthesizer
}

func (s *numberSpeaker) MakeAudioFile(ctx context.Context, text, output, speed string, gain float64) error {
	if s.synth == nil {
		synth, err := s.app.synthesizer(ctx, numberAudioEngine, numberAudioLang, "")
		if err != nil {
			return err
		}
		s.synth = synth
	}
	return s.synth.MakeAudioFile(ctx, text, output, speed, gain)
}

// replaceExt swaps the last extension of path, like pathlib's with_suffix.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// splitList parses a comma separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
