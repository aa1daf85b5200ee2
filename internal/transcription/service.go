package transcription

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"speechaudio/internal/upstream/openai"
)

const (
	DefaultModel          = "gpt-4o-mini-transcribe"
	DefaultResponseFormat = "text"
)

type Client interface {
	Transcribe(ctx context.Context, file io.Reader, fileName string, in openai.TranscriptionRequest) (string, error)
}

type Service struct {
	client       Client
	defaultModel string
	timeout      time.Duration
}

type Options struct {
	Language       string
	Model          string
	ResponseFormat string
	// Output defaults to the input path with its extension replaced by .txt.
	Output string
}

func New(client Client, defaultModel string, timeout time.Duration) *Service {
	defaultModel = strings.TrimSpace(defaultModel)
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Service{
		client:       client,
		defaultModel: defaultModel,
		timeout:      timeout,
	}
}

func (s *Service) Transcribe(ctx context.Context, file io.Reader, fileName string, opts Options) (string, error) {
	req := openai.TranscriptionRequest{
		Model:          strings.TrimSpace(opts.Model),
		Language:       strings.TrimSpace(opts.Language),
		ResponseFormat: strings.TrimSpace(opts.ResponseFormat),
	}
	if req.Model == "" {
		req.Model = s.defaultModel
	}
	if fileName == "" {
		fileName = "audio.wav"
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.client.Transcribe(ctx, file, fileName, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// TranscribeFile transcribes a local audio file and writes the text next to
// it. It returns the path written.
func (s *Service) TranscribeFile(ctx context.Context, path string, opts Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if strings.TrimSpace(opts.ResponseFormat) == "" {
		opts.ResponseFormat = DefaultResponseFormat
	}
	text, err := s.Transcribe(ctx, f, filepath.Base(path), opts)
	if err != nil {
		return "", err
	}

	out := opts.Output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return "", err
	}
	return out, nil
}
