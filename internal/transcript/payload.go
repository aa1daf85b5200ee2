package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type ItemType string

const (
	Pronunciation ItemType = "pronunciation"
	Punctuation   ItemType = "punctuation"
)

// Payload is the parsed result document written by a transcription job.
type Payload struct {
	JobName string  `json:"jobName,omitempty"`
	Status  string  `json:"status,omitempty"`
	Results Results `json:"results"`
}

type Results struct {
	Transcripts   []Transcript   `json:"transcripts,omitempty"`
	SpeakerLabels *SpeakerLabels `json:"speaker_labels,omitempty"`
	Items         []Item         `json:"items,omitempty"`
}

type Transcript struct {
	Transcript string `json:"transcript"`
}

type Item struct {
	StartTime    string        `json:"start_time,omitempty"`
	EndTime      string        `json:"end_time,omitempty"`
	Type         ItemType      `json:"type"`
	Alternatives []Alternative `json:"alternatives"`
	LanguageCode string        `json:"language_code,omitempty"`
}

type Alternative struct {
	Confidence string `json:"confidence,omitempty"`
	Content    string `json:"content"`
}

type SpeakerLabels struct {
	Speakers int              `json:"speakers,omitempty"`
	Segments []SpeakerSegment `json:"segments"`
}

// SpeakerSegment is one diarization boundary: a speaker label and the
// start-time keys of the items spoken inside it.
type SpeakerSegment struct {
	StartTime    string    `json:"start_time,omitempty"`
	EndTime      string    `json:"end_time,omitempty"`
	SpeakerLabel string    `json:"speaker_label"`
	Items        []ItemRef `json:"items"`
}

type ItemRef struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
}

func Decode(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode transcript payload: %w", err)
	}
	return p, nil
}

// DiarizationSegments returns the speaker segments, or nil when the job ran
// without speaker labels.
func (p Payload) DiarizationSegments() []SpeakerSegment {
	if p.Results.SpeakerLabels == nil {
		return nil
	}
	return p.Results.SpeakerLabels.Segments
}

// PlainText joins the job-level transcripts, one per line.
func PlainText(p Payload) string {
	parts := make([]string, 0, len(p.Results.Transcripts))
	for _, t := range p.Results.Transcripts {
		parts = append(parts, t.Transcript)
	}
	return strings.Join(parts, "\n")
}

func (it Item) contents() []string {
	out := make([]string, 0, len(it.Alternatives))
	for _, alt := range it.Alternatives {
		out = append(out, alt.Content)
	}
	return out
}
