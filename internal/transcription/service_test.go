package transcription

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"speechaudio/internal/upstream/openai"
)

type fakeClient struct {
	text     string
	err      error
	fileName string
	req      openai.TranscriptionRequest
	body     string
	deadline bool
}

func (f *fakeClient) Transcribe(ctx context.Context, file io.Reader, fileName string, in openai.TranscriptionRequest) (string, error) {
	data, _ := io.ReadAll(file)
	f.body = string(data)
	f.fileName = fileName
	f.req = in
	_, f.deadline = ctx.Deadline()
	return f.text, f.err
}

func TestTranscribeFileWritesTextNextToInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "lesson.mp3")
	if err := os.WriteFile(in, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	client := &fakeClient{text: "  hello there \n"}
	svc := New(client, "", time.Minute)

	out, err := svc.TranscribeFile(context.Background(), in, Options{Language: "en"})
	if err != nil {
		t.Fatalf("TranscribeFile() error = %v", err)
	}
	if out != filepath.Join(dir, "lesson.txt") {
		t.Fatalf("unexpected output path %q", out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello there" {
		t.Fatalf("unexpected transcript %q", data)
	}
	if client.req.Model != DefaultModel || client.req.ResponseFormat != "text" || client.req.Language != "en" {
		t.Fatalf("unexpected request %+v", client.req)
	}
	if client.fileName != "lesson.mp3" || client.body != "audio" || !client.deadline {
		t.Fatalf("unexpected call name=%q body=%q deadline=%v", client.fileName, client.body, client.deadline)
	}
}

func TestTranscribeFileHonoursOutputAndModel(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.wav")
	if err := os.WriteFile(in, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	client := &fakeClient{text: "ok"}
	out := filepath.Join(dir, "custom.txt")
	got, err := New(client, "whisper-1", 0).TranscribeFile(context.Background(), in, Options{Model: "gpt-4o-transcribe", Output: out})
	if err != nil {
		t.Fatalf("TranscribeFile() error = %v", err)
	}
	if got != out || client.req.Model != "gpt-4o-transcribe" {
		t.Fatalf("got %q model %q", got, client.req.Model)
	}
}

func TestTranscribeFileMissingInput(t *testing.T) {
	_, err := New(&fakeClient{}, "", 0).TranscribeFile(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestTranscribePropagatesClientError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(&fakeClient{err: boom}, "", 0).Transcribe(context.Background(), strings.NewReader("audio"), "", Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected client error, got %v", err)
	}
}
