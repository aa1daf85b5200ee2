package amazon

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	ptypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	ttypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

type fakeS3 struct {
	keys    []string
	put     *s3.PutObjectInput
	putBody string
	deleted string
	got     [2]string
	body    string
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for _, k := range f.keys {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	data, _ := io.ReadAll(in.Body)
	f.putBody = string(data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = aws.ToString(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.got = [2]string{aws.ToString(in.Bucket), aws.ToString(in.Key)}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestListSkipsPrefixKey(t *testing.T) {
	store := NewObjectStore(&fakeS3{keys: []string{"lessons/", "lessons/a.mp3", "lessons/b.mp3", "other/c.mp3"}})
	uris, err := store.List(context.Background(), "bucket", "lessons/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"s3://bucket/lessons/a.mp3", "s3://bucket/lessons/b.mp3"}
	if !reflect.DeepEqual(uris, want) {
		t.Fatalf("List() = %v, want %v", uris, want)
	}
}

func TestUploadUsesBaseNameUnderPrefix(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lesson 1.mp3")
	if err := os.WriteFile(file, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	fake := &fakeS3{}
	var endpoints []string
	store := NewObjectStore(fake, WithObserver(func(endpoint string, status int, _ time.Duration) {
		endpoints = append(endpoints, endpoint)
		if status != 200 {
			t.Fatalf("unexpected status %d", status)
		}
	}))
	key, err := store.Upload(context.Background(), "bucket", "lessons", file)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if key != "lessons/lesson 1.mp3" || aws.ToString(fake.put.Key) != key {
		t.Fatalf("unexpected key %q", key)
	}
	if fake.putBody != "audio" {
		t.Fatalf("unexpected body %q", fake.putBody)
	}
	if len(endpoints) != 1 || endpoints[0] != "s3.put_object" {
		t.Fatalf("unexpected observations %v", endpoints)
	}
}

func TestUploadMissingFile(t *testing.T) {
	store := NewObjectStore(&fakeS3{})
	_, err := store.Upload(context.Background(), "bucket", "p", filepath.Join(t.TempDir(), "nope.mp3"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestFetchTranscriptFromHTTPSURI(t *testing.T) {
	fake := &fakeS3{body: `{"jobName":"j","results":{"transcripts":[{"transcript":"hi"}],"items":[]}}`}
	store := NewObjectStore(fake)
	p, err := store.FetchTranscript(context.Background(), "https://s3.ap-northeast-1.amazonaws.com/bucket/lessons-transcript/j.json")
	if err != nil {
		t.Fatalf("FetchTranscript() error = %v", err)
	}
	if fake.got != [2]string{"bucket", "lessons-transcript/j.json"} {
		t.Fatalf("unexpected object %v", fake.got)
	}
	if p.JobName != "j" || len(p.Results.Transcripts) != 1 {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestParseObjectURI(t *testing.T) {
	cases := []struct {
		uri, bucket, key string
		ok               bool
	}{
		{"s3://b/k/x.json", "b", "k/x.json", true},
		{"https://s3.amazonaws.com/b/x.json", "b", "x.json", true},
		{"https://s3.amazonaws.com/b", "", "", false},
		{"s3://b/", "", "", false},
	}
	for _, tc := range cases {
		bucket, key, err := ParseObjectURI(tc.uri)
		if (err == nil) != tc.ok {
			t.Fatalf("ParseObjectURI(%q) error = %v", tc.uri, err)
		}
		if bucket != tc.bucket || key != tc.key {
			t.Fatalf("ParseObjectURI(%q) = %q, %q", tc.uri, bucket, key)
		}
	}
}

func TestJobNameEncodesUnsafeCharacters(t *testing.T) {
	if got := JobName("lesson 1.mp3"); got != "transcribe-job-lesson_1.mp3" {
		t.Fatalf("JobName() = %q", got)
	}
	if got := JobName("a+b"); got != "transcribe-job-a2bb" {
		t.Fatalf("JobName() = %q", got)
	}
	if got := JobName("é"); got != "transcribe-job-e9" {
		t.Fatalf("JobName() = %q", got)
	}
}

type fakeTranscribe struct {
	started  *transcribe.StartTranscriptionJobInput
	statuses []ttypes.TranscriptionJobStatus
	reason   string
	polls    int
	deleted  string
}

func (f *fakeTranscribe) StartTranscriptionJob(_ context.Context, in *transcribe.StartTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error) {
	f.started = in
	return &transcribe.StartTranscriptionJobOutput{}, nil
}

func (f *fakeTranscribe) GetTranscriptionJob(_ context.Context, in *transcribe.GetTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error) {
	status := f.statuses[len(f.statuses)-1]
	if f.polls < len(f.statuses) {
		status = f.statuses[f.polls]
	}
	f.polls++
	return &transcribe.GetTranscriptionJobOutput{TranscriptionJob: &ttypes.TranscriptionJob{
		TranscriptionJobName:   in.TranscriptionJobName,
		TranscriptionJobStatus: status,
		FailureReason:          aws.String(f.reason),
		Transcript:             &ttypes.Transcript{TranscriptFileUri: aws.String("s3://b/out.json")},
	}}, nil
}

func (f *fakeTranscribe) DeleteTranscriptionJob(_ context.Context, in *transcribe.DeleteTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.DeleteTranscriptionJobOutput, error) {
	f.deleted = aws.ToString(in.TranscriptionJobName)
	return &transcribe.DeleteTranscriptionJobOutput{}, nil
}

func TestStartSetsLanguageOptions(t *testing.T) {
	fake := &fakeTranscribe{}
	c := NewJobClient(fake)

	if err := c.Start(context.Background(), JobRequest{Name: "j", Languages: []string{"en-US"}, MediaFormat: "mp3"}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if fake.started.LanguageCode != ttypes.LanguageCodeEnUs || fake.started.IdentifyMultipleLanguages != nil {
		t.Fatalf("unexpected single-language input: %+v", fake.started)
	}
	if !aws.ToBool(fake.started.Settings.ShowSpeakerLabels) || aws.ToInt32(fake.started.Settings.MaxSpeakerLabels) != 2 {
		t.Fatalf("speaker labels not requested: %+v", fake.started.Settings)
	}

	if err := c.Start(context.Background(), JobRequest{Name: "j", Languages: []string{"en-US", "ja-JP"}}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !aws.ToBool(fake.started.IdentifyMultipleLanguages) || len(fake.started.LanguageOptions) != 2 || fake.started.LanguageCode != "" {
		t.Fatalf("unexpected multi-language input: %+v", fake.started)
	}
}

func TestWaitDeletesCompletedJob(t *testing.T) {
	fake := &fakeTranscribe{statuses: []ttypes.TranscriptionJobStatus{
		ttypes.TranscriptionJobStatusInProgress,
		ttypes.TranscriptionJobStatusCompleted,
	}}
	var waited string
	c := NewJobClient(fake, WithWaitObserver(func(status string, _ time.Duration) { waited = status }))

	uri, err := c.Wait(context.Background(), "j", time.Millisecond)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if uri != "s3://b/out.json" || fake.deleted != "j" || fake.polls != 2 {
		t.Fatalf("uri=%q deleted=%q polls=%d", uri, fake.deleted, fake.polls)
	}
	if waited != "COMPLETED" {
		t.Fatalf("unexpected wait status %q", waited)
	}
}

func TestWaitReturnsJobFailedError(t *testing.T) {
	fake := &fakeTranscribe{statuses: []ttypes.TranscriptionJobStatus{ttypes.TranscriptionJobStatusFailed}, reason: "bad media"}
	_, err := NewJobClient(fake).Wait(context.Background(), "j", time.Millisecond)
	var failed *JobFailedError
	if !errors.As(err, &failed) || failed.Reason != "bad media" {
		t.Fatalf("expected JobFailedError, got %v", err)
	}
	if fake.deleted != "" {
		t.Fatal("failed job should not be deleted")
	}
}

func TestWaitStopsOnContextCancel(t *testing.T) {
	fake := &fakeTranscribe{statuses: []ttypes.TranscriptionJobStatus{ttypes.TranscriptionJobStatusInProgress}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewJobClient(fake).Wait(ctx, "j", 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type fakePolly struct {
	pages [][]string
	calls int
	in    *polly.SynthesizeSpeechInput
}

func (f *fakePolly) DescribeVoices(_ context.Context, _ *polly.DescribeVoicesInput, _ ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error) {
	out := &polly.DescribeVoicesOutput{}
	for _, name := range f.pages[f.calls] {
		out.Voices = append(out.Voices, ptypes.Voice{Name: aws.String(name)})
	}
	f.calls++
	if f.calls < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func (f *fakePolly) SynthesizeSpeech(_ context.Context, in *polly.SynthesizeSpeechInput, _ ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	f.in = in
	return &polly.SynthesizeSpeechOutput{AudioStream: io.NopCloser(strings.NewReader("mp3"))}, nil
}

func TestVoicesFollowsPages(t *testing.T) {
	fake := &fakePolly{pages: [][]string{{"Joanna", "Ivy"}, {"Ruth"}}}
	names, err := NewSpeech(fake).Voices(context.Background(), "neural", "en-US")
	if err != nil {
		t.Fatalf("Voices() error = %v", err)
	}
	if !reflect.DeepEqual(names, []string{"Joanna", "Ivy", "Ruth"}) {
		t.Fatalf("Voices() = %v", names)
	}
}

func TestSynthesizeSSML(t *testing.T) {
	fake := &fakePolly{}
	audio, err := NewSpeech(fake).Synthesize(context.Background(), SpeechInput{
		Engine: "neural", Language: "en-US", Voice: "Joanna", Text: "<speak>hi</speak>", SSML: true,
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "mp3" {
		t.Fatalf("unexpected audio %q", audio)
	}
	if fake.in.TextType != ptypes.TextTypeSsml || fake.in.OutputFormat != ptypes.OutputFormatMp3 {
		t.Fatalf("unexpected input %+v", fake.in)
	}
}
