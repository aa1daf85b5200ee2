package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"speechaudio/internal/observability"
	"speechaudio/internal/transcript"
	"speechaudio/internal/upstream/amazon"
)

type Jobs interface {
	Start(ctx context.Context, req amazon.JobRequest) error
	Wait(ctx context.Context, name string, interval time.Duration) (string, error)
}

type Transcripts interface {
	FetchTranscript(ctx context.Context, uri string) (transcript.Payload, error)
}

type Service struct {
	jobs         Jobs
	transcripts  Transcripts
	pollInterval time.Duration
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

type ProcessInput struct {
	Bucket      string
	Prefix      string
	ObjectName  string
	Languages   []string
	MediaFormat string
	Dialogue    bool
}

type Timings struct {
	Job    time.Duration
	Render time.Duration
	Total  time.Duration
}

type ProcessResult struct {
	JobName    string
	Transcript string
	Mode       transcript.Mode
	Timings    Timings
}

func New(jobs Jobs, transcripts Transcripts, pollInterval time.Duration, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Service{
		jobs:         jobs,
		transcripts:  transcripts,
		pollInterval: pollInterval,
		metrics:      metrics,
		logger:       logger,
	}
}

// Process transcribes an object already stored in S3 and renders the
// result. Output lands under "<prefix>-transcript/" in the same bucket.
func (s *Service) Process(ctx context.Context, in ProcessInput) (ProcessResult, error) {
	started := time.Now()

	languages := make([]string, 0, len(in.Languages))
	for _, lang := range in.Languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			languages = append(languages, lang)
		}
	}
	if in.Bucket == "" || in.ObjectName == "" {
		return ProcessResult{}, errors.New("bucket and object name are required")
	}

	jobName := amazon.JobName(in.ObjectName)
	req := amazon.JobRequest{
		Name:         jobName,
		MediaURI:     "s3://" + in.Bucket + "/" + in.Prefix + "/" + in.ObjectName,
		MediaFormat:  in.MediaFormat,
		Languages:    languages,
		OutputBucket: in.Bucket,
		OutputKey:    strings.TrimRight(in.Prefix, "/") + "-transcript/",
	}
	log := s.logger.With().Str("job", jobName).Strs("languages", languages).Logger()
	log.Info().Str("media", req.MediaURI).Msg("starting transcription job")

	if err := s.jobs.Start(ctx, req); err != nil {
		return ProcessResult{}, err
	}
	uri, err := s.jobs.Wait(ctx, jobName, s.pollInterval)
	if err != nil {
		log.Error().Err(err).Msg("transcription job did not complete")
		return ProcessResult{}, err
	}
	jobDuration := time.Since(started)

	payload, err := s.transcripts.FetchTranscript(ctx, uri)
	if err != nil {
		return ProcessResult{}, err
	}

	renderStarted := time.Now()
	mode := transcript.ModeFor(len(languages), in.Dialogue)
	text, err := transcript.Text(payload, mode)
	s.metrics.ObserveRender(string(mode), err)
	if err != nil {
		return ProcessResult{}, err
	}

	result := ProcessResult{
		JobName:    jobName,
		Transcript: text,
		Mode:       mode,
		Timings: Timings{
			Job:    jobDuration,
			Render: time.Since(renderStarted),
			Total:  time.Since(started),
		},
	}
	log.Info().Str("mode", string(mode)).Dur("total", result.Timings.Total).Msg("transcription job rendered")
	return result, nil
}
