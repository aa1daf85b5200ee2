package amazon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

const jobNamePrefix = "transcribe-job-"

type TranscribeAPI interface {
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
	DeleteTranscriptionJob(ctx context.Context, in *transcribe.DeleteTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.DeleteTranscriptionJobOutput, error)
}

// JobFailedError reports a transcription job that finished in FAILED state.
type JobFailedError struct {
	Job    string
	Reason string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("transcription job %s failed: %s", e.Job, e.Reason)
}

type JobRequest struct {
	Name         string
	MediaURI     string
	MediaFormat  string
	Languages    []string
	OutputBucket string
	OutputKey    string
}

type JobClient struct {
	api  TranscribeAPI
	opts options
}

func NewJobClient(api TranscribeAPI, opts ...Option) *JobClient {
	return &JobClient{api: api, opts: newOptions(opts)}
}

// JobName derives a job name from a media file name. Spaces become
// underscores and any character outside [0-9A-Za-z._-] is replaced by its
// code point in hex.
func JobName(fileName string) string {
	name := strings.ReplaceAll(fileName, " ", "_")
	var b strings.Builder
	b.WriteString(jobNamePrefix)
	for _, c := range name {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '.', c == '_', c == '-':
			b.WriteRune(c)
		default:
			fmt.Fprintf(&b, "%x", c)
		}
	}
	return b.String()
}

// Start submits a diarized job for up to two speakers. A single language
// pins the job to it, several enable multi-language identification.
func (c *JobClient) Start(ctx context.Context, req JobRequest) error {
	in := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(req.Name),
		Media:                &types.Media{MediaFileUri: aws.String(req.MediaURI)},
		MediaFormat:          types.MediaFormat(req.MediaFormat),
		OutputBucketName:     aws.String(req.OutputBucket),
		OutputKey:            aws.String(req.OutputKey),
		Settings: &types.Settings{
			ShowSpeakerLabels: aws.Bool(true),
			MaxSpeakerLabels:  aws.Int32(2),
		},
	}
	switch len(req.Languages) {
	case 0:
	case 1:
		in.LanguageCode = types.LanguageCode(req.Languages[0])
	default:
		in.IdentifyMultipleLanguages = aws.Bool(true)
		for _, lang := range req.Languages {
			in.LanguageOptions = append(in.LanguageOptions, types.LanguageCode(lang))
		}
	}

	started := time.Now()
	_, err := c.api.StartTranscriptionJob(ctx, in)
	c.opts.observe("transcribe.start_job", started, err)
	if err != nil {
		return fmt.Errorf("start transcription job %s: %w", req.Name, err)
	}
	return nil
}

// Wait polls the job every interval until it completes, deletes the
// finished job and returns the transcript file URI.
func (c *JobClient) Wait(ctx context.Context, name string, interval time.Duration) (string, error) {
	waitStarted := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		started := time.Now()
		out, err := c.api.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(name),
		})
		c.opts.observe("transcribe.get_job", started, err)
		if err != nil {
			return "", fmt.Errorf("get transcription job %s: %w", name, err)
		}

		job := out.TranscriptionJob
		if job == nil {
			return "", fmt.Errorf("transcription job %s not found", name)
		}
		switch job.TranscriptionJobStatus {
		case types.TranscriptionJobStatusCompleted:
			c.observeWait(string(job.TranscriptionJobStatus), waitStarted)
			var uri string
			if job.Transcript != nil {
				uri = aws.ToString(job.Transcript.TranscriptFileUri)
			}
			if err := c.delete(ctx, name); err != nil {
				return "", err
			}
			return uri, nil
		case types.TranscriptionJobStatusFailed:
			c.observeWait(string(job.TranscriptionJobStatus), waitStarted)
			return "", &JobFailedError{Job: name, Reason: aws.ToString(job.FailureReason)}
		}

		select {
		case <-ctx.Done():
			c.observeWait("CANCELED", waitStarted)
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *JobClient) delete(ctx context.Context, name string) error {
	started := time.Now()
	_, err := c.api.DeleteTranscriptionJob(ctx, &transcribe.DeleteTranscriptionJobInput{
		TranscriptionJobName: aws.String(name),
	})
	c.opts.observe("transcribe.delete_job", started, err)
	if err != nil {
		return fmt.Errorf("delete transcription job %s: %w", name, err)
	}
	return nil
}

func (c *JobClient) observeWait(status string, started time.Time) {
	if c.opts.waitObserver != nil {
		c.opts.waitObserver(status, time.Since(started))
	}
}
