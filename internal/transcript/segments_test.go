package transcript

import (
	"errors"
	"testing"
)

func refs(keys ...string) []ItemRef {
	out := make([]ItemRef, 0, len(keys))
	for _, k := range keys {
		out = append(out, ItemRef{StartTime: k})
	}
	return out
}

func TestBuildSegmentsCanonicalizesFirstSeenLabelAsTeacher(t *testing.T) {
	tokens := NormalizeTokens([]Item{word("0", "a"), word("1", "b"), word("2", "c")})
	segments, err := BuildSegments(tokens, []SpeakerSegment{
		{SpeakerLabel: "spk_1", Items: refs("0")},
		{SpeakerLabel: "spk_0", Items: refs("1")},
		{SpeakerLabel: "spk_1", Items: refs("2")},
	})
	if err != nil {
		t.Fatalf("BuildSegments() error = %v", err)
	}

	want := []Role{RoleTeacher, RoleStudent, RoleTeacher}
	for i, seg := range segments {
		if seg.Speaker != want[i] {
			t.Fatalf("segment %d: got role %q want %q", i, seg.Speaker, want[i])
		}
	}
	if segments[1].Label != "spk_0" {
		t.Fatalf("expected raw label to be kept, got %q", segments[1].Label)
	}
}

func TestBuildSegmentsSingleSpeakerIsAllTeacher(t *testing.T) {
	tokens := NormalizeTokens([]Item{word("0", "a"), word("1", "b")})
	segments, err := BuildSegments(tokens, []SpeakerSegment{
		{SpeakerLabel: "spk_0", Items: refs("0")},
		{SpeakerLabel: "spk_0", Items: refs("1")},
	})
	if err != nil {
		t.Fatalf("BuildSegments() error = %v", err)
	}
	for i, seg := range segments {
		if seg.Speaker != RoleTeacher {
			t.Fatalf("segment %d: expected teacher, got %q", i, seg.Speaker)
		}
	}
}

func TestBuildSegmentsJoinsAndNormalizesWording(t *testing.T) {
	tokens := NormalizeTokens([]Item{
		word("0", "Less"), word("1", "than"), word("2", "one"), punct(","),
		word("3", "pens"), word("4", "et"), word("5", "cetera"), punct("."),
	})
	segments, err := BuildSegments(tokens, []SpeakerSegment{
		{SpeakerLabel: "spk_0", Items: refs("0", "1", "2", "3", "4", "5")},
	})
	if err != nil {
		t.Fatalf("BuildSegments() error = %v", err)
	}
	if got := segments[0].Content; got != "Lesson one, pens etc." {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestNormalizeWording(t *testing.T) {
	cases := map[string]string{
		"Less than ten":          "Lesson ten",
		"the less than sign":     "the Lesson sign",
		"apples, etcetera":       "apples, etc",
		"nothing to change here": "nothing to change here",
	}
	for in, want := range cases {
		if got := normalizeWording(in); got != want {
			t.Fatalf("normalizeWording(%q): got %q want %q", in, got, want)
		}
	}
}

func TestBuildSegmentsEmptyDiarization(t *testing.T) {
	segments, err := BuildSegments(NormalizeTokens(nil), nil)
	if err != nil {
		t.Fatalf("BuildSegments() error = %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
}

func TestBuildSegmentsUnknownItem(t *testing.T) {
	tokens := NormalizeTokens([]Item{word("0", "a")})
	_, err := BuildSegments(tokens, []SpeakerSegment{{SpeakerLabel: "spk_0", Items: refs("9.9")}})
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestSpeakerLabelsInOrder(t *testing.T) {
	labels := SpeakerLabelsInOrder([]SpeakerSegment{
		{SpeakerLabel: "b"}, {SpeakerLabel: "a"}, {SpeakerLabel: "b"}, {SpeakerLabel: "c"},
	})
	if len(labels) != 3 || labels[0] != "b" || labels[1] != "a" || labels[2] != "c" {
		t.Fatalf("unexpected labels: %v", labels)
	}
}
