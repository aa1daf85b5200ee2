package transcript

import (
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var ErrUnknownToken = errors.New("diarization references unknown item")

// replacement is applied as a plain substring swap. Order matters: later
// rules see the output of earlier ones.
type replacement struct {
	from, to string
}

var replacements = []replacement{
	{"Less than", "Lesson"},
	{"less than", "Lesson"},
	{"et cetera", "etc"},
	{"etcetera", "etc"},
}

// Segment is one speaker turn with its canonical role.
type Segment struct {
	Speaker   Role
	Label     string
	StartTime string
	EndTime   string
	Content   string
	QnA       string
}

func (s Segment) HasQnA() bool { return s.QnA != "" }

func (s Segment) WordCount() int { return len(strings.Fields(s.Content)) }

// BuildSegments resolves each diarization segment into text and relabels
// speakers: the first label seen is the teacher, every other label is the
// student.
func BuildSegments(tokens *Tokens, diarization []SpeakerSegment) ([]Segment, error) {
	labels := SpeakerLabelsInOrder(diarization)
	if len(labels) == 0 {
		return []Segment{}, nil
	}
	teacher := labels[0]

	out := make([]Segment, 0, len(diarization))
	for _, d := range diarization {
		content, err := segmentContent(tokens, d.Items)
		if err != nil {
			return nil, err
		}
		role := RoleStudent
		if d.SpeakerLabel == teacher {
			role = RoleTeacher
		}
		out = append(out, Segment{
			Speaker:   role,
			Label:     d.SpeakerLabel,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
			Content:   content,
		})
	}
	return out, nil
}

func segmentContent(tokens *Tokens, refs []ItemRef) (string, error) {
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		tok, ok := tokens.Get(ref.StartTime)
		if !ok {
			return "", fmt.Errorf("%w: start_time %q", ErrUnknownToken, ref.StartTime)
		}
		parts = append(parts, tok.Content)
	}
	return normalizeWording(strings.Join(parts, " ")), nil
}

func normalizeWording(s string) string {
	for _, r := range replacements {
		s = strings.ReplaceAll(s, r.from, r.to)
	}
	return s
}

// SpeakerLabelsInOrder lists distinct raw labels by first appearance.
func SpeakerLabelsInOrder(diarization []SpeakerSegment) []string {
	seen := make(map[string]struct{}, 2)
	var labels []string
	for _, d := range diarization {
		if _, ok := seen[d.SpeakerLabel]; ok {
			continue
		}
		seen[d.SpeakerLabel] = struct{}{}
		labels = append(labels, d.SpeakerLabel)
	}
	return labels
}
