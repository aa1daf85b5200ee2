package lesson

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"speechaudio/internal/media"
)

type fakeAudio struct {
	concats []media.ConcatInput
	retags  map[string]media.Tags
	tags    media.Tags
}

func (f *fakeAudio) Concat(_ context.Context, in media.ConcatInput) error {
	f.concats = append(f.concats, in)
	return os.WriteFile(in.Output, []byte("section"), 0o644)
}

func (f *fakeAudio) ReadTags(context.Context, string) (media.Tags, error) {
	return f.tags, nil
}

func (f *fakeAudio) Retag(_ context.Context, input, output string, tags media.Tags) error {
	if f.retags == nil {
		f.retags = map[string]media.Tags{}
	}
	f.retags[input] = tags
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	return os.WriteFile(output, data, 0o644)
}

type fakeSpeaker struct{ texts []string }

func (f *fakeSpeaker) MakeAudioFile(_ context.Context, text, output, _ string, _ float64) error {
	f.texts = append(f.texts, text)
	return os.WriteFile(output, []byte("number"), 0o644)
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollectNumbersSortsNumerically(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "10-Q-Joanna.mp3", "2-Q-Joanna.mp3", "2-Q-Ruth.mp3", "1-Q-x.mp3", "3-A-x.mp3", "notes.txt", "x-Q-y.mp3")
	got, err := CollectNumbers(dir)
	if err != nil {
		t.Fatalf("CollectNumbers() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"1", "2", "10"}) {
		t.Fatalf("CollectNumbers() = %v", got)
	}
}

func TestParseSpeedPair(t *testing.T) {
	q, a, err := ParseSpeedPair("0.9:1.2")
	if err != nil || q != 0.9 || a != 1.2 {
		t.Fatalf("ParseSpeedPair() = %v, %v, %v", q, a, err)
	}
	q, a, err = ParseSpeedPair("1.1")
	if err != nil || q != 1.1 || a != 1.1 {
		t.Fatalf("ParseSpeedPair() = %v, %v, %v", q, a, err)
	}
	if _, _, err := ParseSpeedPair("fast"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAlbumName(t *testing.T) {
	cases := map[string]string{
		"/x/basic_english-lessons": "Basic English Lessons",
		"UNIT_2nd":                 "Unit 2Nd",
	}
	for in, want := range cases {
		if got := AlbumName(in); got != want {
			t.Fatalf("AlbumName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildSectionsGroupsAndTags(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "daily_talk")
	touch(t, in, "1-Q-a.mp3", "1-A-b.mp3", "2-Q-a.mp3", "2-A-b.mp3", "3-Q-a.mp3", "3-A-b.mp3")
	audio := &fakeAudio{}
	b := NewBuilder(audio, nil, zerolog.Nop())

	created, err := b.BuildSections(context.Background(), SectionOptions{
		InputDir: in, OutputDir: out, SectionUnit: 2, RepeatQuestion: true, QuestionSpeed: 1.2,
	})
	if err != nil {
		t.Fatalf("BuildSections() error = %v", err)
	}
	want := []string{filepath.Join(out, "1-2.mp3"), filepath.Join(out, "3-3.mp3")}
	if !reflect.DeepEqual(created, want) {
		t.Fatalf("created = %v", created)
	}

	first := audio.concats[0]
	if first.Tags != (media.Tags{Title: "1-2 Daily Talk", Album: "Daily Talk", Artist: "Homebrew"}) {
		t.Fatalf("unexpected tags %+v", first.Tags)
	}
	// per pair: Q, pause, Q, pause, A, tail
	if len(first.Clips) != 12 {
		t.Fatalf("expected 12 clips, got %d", len(first.Clips))
	}
	if first.Clips[0].Path != filepath.Join(in, "1-Q-a.mp3") || len(first.Clips[0].Filters) != 2 {
		t.Fatalf("unexpected question clip %+v", first.Clips[0])
	}
	if first.Clips[1].Silence != DefaultPause || first.Clips[5].Silence != 2*time.Second {
		t.Fatalf("unexpected silences %+v", first.Clips)
	}
	if first.Clips[4].Filters != nil {
		t.Fatalf("answer at unit speed should be unfiltered, got %v", first.Clips[4].Filters)
	}
	if _, err := os.Stat(filepath.Join(out, signaturesFile)); err != nil {
		t.Fatalf("signatures not saved: %v", err)
	}
}

func TestBuildSectionsSkipsUnchangedAndRebuildsChanged(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	touch(t, in, "1-Q-a.mp3", "1-A-b.mp3")
	audio := &fakeAudio{}
	b := NewBuilder(audio, nil, zerolog.Nop())
	opts := SectionOptions{InputDir: in, OutputDir: out}

	if _, err := b.BuildSections(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	created, err := b.BuildSections(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 0 || len(audio.concats) != 1 {
		t.Fatalf("unchanged section rebuilt: %v", created)
	}

	touch(t, in, "2-Q-a.mp3", "2-A-b.mp3")
	created, err = b.BuildSections(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(created, []string{filepath.Join(out, "1-2.mp3")}) {
		t.Fatalf("created = %v", created)
	}
	if _, err := os.Stat(filepath.Join(out, "1-1.mp3")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("stale section 1-1.mp3 should be removed")
	}
}

func TestBuildSectionsWithNumberAudio(t *testing.T) {
	in, out, numbersDir := t.TempDir(), t.TempDir(), t.TempDir()
	touch(t, in, "11-Q-a.mp3", "11-A-b.mp3")
	speaker := &fakeSpeaker{}
	audio := &fakeAudio{}
	b := NewBuilder(audio, NewNumberAudio(numbersDir, speaker), zerolog.Nop())

	if _, err := b.BuildSections(context.Background(), SectionOptions{InputDir: in, OutputDir: out, AddNumberAudio: true}); err != nil {
		t.Fatalf("BuildSections() error = %v", err)
	}
	clips := audio.concats[0].Clips
	if clips[0].Path != filepath.Join(numbersDir, "11.mp3") || clips[1].Silence != 500*time.Millisecond {
		t.Fatalf("unexpected leading clips %+v", clips[:2])
	}
	if !reflect.DeepEqual(speaker.texts, []string{"11"}) {
		t.Fatalf("speaker texts = %v", speaker.texts)
	}
}

func TestNumberAudioReusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "3.mp3")
	speaker := &fakeSpeaker{}
	n := NewNumberAudio(dir, speaker)
	if _, err := n.Path(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if len(speaker.texts) != 0 {
		t.Fatal("existing number audio should be reused")
	}
	if _, err := n.Path(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero")
	}
}

func TestAddNumbersPrefixesTitles(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "numbered")
	touch(t, in, "b.mp3", "a.mp3", "skip.wav")
	audio := &fakeAudio{tags: media.Tags{Title: "Greetings", Album: "Book"}}
	b := NewBuilder(audio, NewNumberAudio(t.TempDir(), &fakeSpeaker{}), zerolog.Nop())

	created, err := b.AddNumbers(context.Background(), in, out)
	if err != nil {
		t.Fatalf("AddNumbers() error = %v", err)
	}
	if !reflect.DeepEqual(created, []string{filepath.Join(out, "a.mp3"), filepath.Join(out, "b.mp3")}) {
		t.Fatalf("created = %v", created)
	}
	if audio.concats[1].Tags.Title != "02 Greetings" || audio.concats[1].Tags.Album != "Book" {
		t.Fatalf("unexpected tags %+v", audio.concats[1].Tags)
	}
	if got := NumberedTitle(7, ""); got != "07 Unknown Title" {
		t.Fatalf("NumberedTitle() = %q", got)
	}
}

func TestTagAlbumDirectoryInPlace(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp3", "b.mp3", "notes.txt")
	audio := &fakeAudio{}
	written, err := NewBuilder(audio, nil, zerolog.Nop()).TagAlbum(context.Background(), TagOptions{Path: dir, Album: "Dir Album"})
	if err != nil {
		t.Fatalf("TagAlbum() error = %v", err)
	}
	if len(written) != 2 || written[0] != filepath.Join(dir, "a.mp3") {
		t.Fatalf("written = %v", written)
	}
	got := audio.retags[filepath.Join(dir, "b.mp3")]
	if got != (media.Tags{Title: "b", Album: "Dir Album", Artist: "Homebrew"}) {
		t.Fatalf("unexpected tags %+v", got)
	}
}

func TestTagAlbumSingleFileCopy(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "tone.mp3")
	outDir := filepath.Join(t.TempDir(), "out")
	audio := &fakeAudio{}
	written, err := NewBuilder(audio, nil, zerolog.Nop()).TagAlbum(context.Background(), TagOptions{
		Path: filepath.Join(dir, "tone.mp3"), Album: "Copied", Title: "Custom", Artist: "Tester", OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("TagAlbum() error = %v", err)
	}
	if written[0] != filepath.Join(outDir, "tone.mp3") {
		t.Fatalf("written = %v", written)
	}
	if _, err := os.Stat(filepath.Join(dir, "tone.mp3")); err != nil {
		t.Fatal("source should remain")
	}
	if got := audio.retags[filepath.Join(dir, "tone.mp3")]; got.Title != "Custom" || got.Artist != "Tester" {
		t.Fatalf("unexpected tags %+v", got)
	}
}

func TestTagAlbumDirectoryRejectsTitle(t *testing.T) {
	_, err := NewBuilder(&fakeAudio{}, nil, zerolog.Nop()).TagAlbum(context.Background(), TagOptions{Path: t.TempDir(), Album: "X", Title: "Nope"})
	if !errors.Is(err, ErrTitleNeedsFile) {
		t.Fatalf("expected ErrTitleNeedsFile, got %v", err)
	}
}

func TestSignaturesDetectChanges(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "q.mp3")
	sources := []string{filepath.Join(dir, "q.mp3")}
	s, err := LoadSignatures(dir)
	if err != nil {
		t.Fatal(err)
	}
	if up, _ := s.Updated("1-1.mp3", sources); !up {
		t.Fatal("first signature should be an update")
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	s, _ = LoadSignatures(dir)
	if up, _ := s.Updated(filepath.Join("any", "1-1.mp3"), sources); up {
		t.Fatal("same content should not be an update")
	}
	if err := os.WriteFile(sources[0], []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if up, _ := s.Updated("1-1.mp3", sources); !up {
		t.Fatal("changed content should be an update")
	}
}
