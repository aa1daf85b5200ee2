package transcript

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModePlain    Mode = "plain"
	ModeDialogue Mode = "dialogue"
	ModeStitch   Mode = "stitch"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePlain, ModeDialogue, ModeStitch:
		return m, nil
	default:
		return "", fmt.Errorf("unknown transcript mode %q", s)
	}
}

// ModeFor picks the rendering for a job that requested the given number of
// languages. Multi-language jobs are always stitched.
func ModeFor(languages int, dialogue bool) Mode {
	if languages >= 2 {
		return ModeStitch
	}
	if dialogue {
		return ModeDialogue
	}
	return ModePlain
}

// ReconstructDialogue turns a diarized payload into a teacher/student
// script. A payload without speaker segments renders as "".
func ReconstructDialogue(p Payload) (string, error) {
	segments, err := Segments(p)
	if err != nil {
		return "", err
	}
	return Render(segments), nil
}

// Segments returns the folded dialogue segments for a payload.
func Segments(p Payload) ([]Segment, error) {
	tokens := NormalizeTokens(p.Results.Items)
	segments, err := BuildSegments(tokens, p.DiarizationSegments())
	if err != nil {
		return nil, err
	}
	return Fold(segments), nil
}

func Text(p Payload, mode Mode) (string, error) {
	switch mode {
	case ModePlain:
		return PlainText(p), nil
	case ModeDialogue:
		return ReconstructDialogue(p)
	case ModeStitch:
		return StitchMultiLanguage(p.Results.Items), nil
	default:
		return "", fmt.Errorf("unknown transcript mode %q", mode)
	}
}
