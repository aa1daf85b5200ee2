package transcript

import "strings"

// MinAnswerWords is the shortest student turn that pairs with a teacher
// prompt as an answer.
const MinAnswerWords = 3

const qnaSeparator = " := "

// qnaFolder threads the "last teacher turn" through a segment walk.
type qnaFolder struct {
	segments    []Segment
	lastTeacher int
}

func (f *qnaFolder) visit(i int) {
	seg := f.segments[i]
	if seg.Speaker == RoleTeacher {
		f.lastTeacher = i
		return
	}
	if seg.WordCount() < MinAnswerWords || f.lastTeacher < 0 {
		return
	}
	teacher := &f.segments[f.lastTeacher]
	if !teacher.HasQnA() {
		teacher.QnA = teacher.Content + qnaSeparator + seg.Content
		return
	}
	// Later answers are appended without a separator.
	teacher.QnA += seg.Content
}

// Fold pairs student answers of at least MinAnswerWords words with the
// nearest preceding teacher turn. The slice is updated in place and
// returned.
func Fold(segments []Segment) []Segment {
	f := &qnaFolder{segments: segments, lastTeacher: -1}
	for i := range segments {
		f.visit(i)
	}
	return segments
}

// Render produces the script text. The first segment always becomes the
// opening heading; teacher prompts and short replies are grouped into
// heading lines between question/answer pairs.
func Render(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}
	lines := []string{"# " + segments[0].Content}
	var queue []string
	flush := func() {
		if len(queue) == 0 {
			return
		}
		lines = append(lines, "# "+strings.Join(queue, ", "))
		queue = queue[:0]
	}

	if segments[0].HasQnA() {
		lines = append(lines, segments[0].QnA)
	}
	for _, seg := range segments[1:] {
		switch {
		case seg.HasQnA():
			flush()
			lines = append(lines, seg.QnA)
		case seg.Speaker == RoleTeacher || seg.WordCount() < MinAnswerWords:
			queue = append(queue, strings.TrimRight(seg.Content, ".,?"))
		}
	}
	flush()
	return strings.Join(lines, "\n")
}
