package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel             string
	LogFormat            string
	ListenAddr           string
	OpenAIBaseURL        string
	OpenAIAPIKey         string
	TranscriptionModel   string
	RequestTimeout       time.Duration
	TranscriptionTimeout time.Duration
	AWSRegion            string
	PollInterval         time.Duration
	FFmpegPath           string
	FFprobePath          string
	MaxUploadBytes       int64
	NumberAudioDir       string
}

type envConfig struct {
	LogLevel                    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat                   string `env:"LOG_FORMAT" envDefault:"console"`
	ListenAddr                  string `env:"LISTEN_ADDR" envDefault:":8080"`
	OpenAIBaseURL               string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey                string `env:"OPENAI_API_KEY"`
	TranscriptionModel          string `env:"OPENAI_TRANSCRIPTION_MODEL" envDefault:"gpt-4o-mini-transcribe"`
	RequestTimeoutSeconds       int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"120"`
	TranscriptionTimeoutSeconds int    `env:"TRANSCRIPTION_TIMEOUT_SECONDS" envDefault:"600"`
	AWSRegion                   string `env:"AWS_REGION" envDefault:"ap-northeast-1"`
	PollSeconds                 int    `env:"TRANSCRIBE_POLL_SECONDS" envDefault:"5"`
	FFmpegPath                  string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath                 string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
	MaxUploadBytes              int64  `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	NumberAudioDir              string `env:"NUMBER_AUDIO_DIR" envDefault:"number_audio"`
}

// LoadEnvFile overlays variables from a dotenv file onto the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogLevel:             strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		LogFormat:            strings.ToLower(strings.TrimSpace(raw.LogFormat)),
		ListenAddr:           strings.TrimSpace(raw.ListenAddr),
		OpenAIBaseURL:        strings.TrimRight(strings.TrimSpace(raw.OpenAIBaseURL), "/"),
		OpenAIAPIKey:         strings.TrimSpace(raw.OpenAIAPIKey),
		TranscriptionModel:   strings.TrimSpace(raw.TranscriptionModel),
		RequestTimeout:       time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		TranscriptionTimeout: time.Duration(raw.TranscriptionTimeoutSeconds) * time.Second,
		AWSRegion:            strings.TrimSpace(raw.AWSRegion),
		PollInterval:         time.Duration(raw.PollSeconds) * time.Second,
		FFmpegPath:           strings.TrimSpace(raw.FFmpegPath),
		FFprobePath:          strings.TrimSpace(raw.FFprobePath),
		MaxUploadBytes:       raw.MaxUploadBytes,
		NumberAudioDir:       strings.TrimSpace(raw.NumberAudioDir),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LogFormat {
	case "console", "json":
	default:
		return errors.New("LOG_FORMAT must be console or json")
	}
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.OpenAIBaseURL == "" {
		return errors.New("OPENAI_BASE_URL must not be empty")
	}
	if c.TranscriptionModel == "" {
		return errors.New("OPENAI_TRANSCRIPTION_MODEL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.TranscriptionTimeout <= 0 {
		return errors.New("TRANSCRIPTION_TIMEOUT_SECONDS must be > 0")
	}
	if c.AWSRegion == "" {
		return errors.New("AWS_REGION must not be empty")
	}
	if c.PollInterval <= 0 {
		return errors.New("TRANSCRIBE_POLL_SECONDS must be > 0")
	}
	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return errors.New("FFMPEG_PATH and FFPROBE_PATH must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	return nil
}
