package transcript

import "testing"

func teacher(content string) Segment { return Segment{Speaker: RoleTeacher, Content: content} }
func student(content string) Segment { return Segment{Speaker: RoleStudent, Content: content} }

func TestFoldTwoWordAnswerIsNotPaired(t *testing.T) {
	segments := Fold([]Segment{teacher("How are you"), student("Fine thanks")})
	if segments[0].HasQnA() {
		t.Fatalf("expected no QnA, got %q", segments[0].QnA)
	}
}

func TestFoldThreeWordAnswerIsPaired(t *testing.T) {
	segments := Fold([]Segment{teacher("How are you"), student("Fine thank you")})
	if got := segments[0].QnA; got != "How are you := Fine thank you" {
		t.Fatalf("unexpected QnA: %q", got)
	}
	if segments[1].HasQnA() {
		t.Fatal("student segment should not carry a QnA")
	}
}

func TestFoldAppendsLaterAnswersWithoutSeparator(t *testing.T) {
	segments := Fold([]Segment{
		teacher("What is it"),
		student("It is a pen"),
		student("It is red"),
	})
	if got := segments[0].QnA; got != "What is it := It is a penIt is red" {
		t.Fatalf("unexpected QnA: %q", got)
	}
}

func TestFoldUsesNearestPrecedingTeacher(t *testing.T) {
	segments := Fold([]Segment{
		teacher("First prompt"),
		teacher("Second prompt"),
		student("This is mine"),
	})
	if segments[0].HasQnA() {
		t.Fatalf("first teacher should not be paired, got %q", segments[0].QnA)
	}
	if got := segments[1].QnA; got != "Second prompt := This is mine" {
		t.Fatalf("unexpected QnA: %q", got)
	}
}

func TestFoldStudentBeforeAnyTeacher(t *testing.T) {
	segments := Fold([]Segment{student("I speak first here"), teacher("Okay")})
	for i, seg := range segments {
		if seg.HasQnA() {
			t.Fatalf("segment %d: unexpected QnA %q", i, seg.QnA)
		}
	}
}

func TestRenderQuestionAndAnswer(t *testing.T) {
	got := Render(Fold([]Segment{teacher("Hi there"), student("I am fine thanks")}))
	want := "# Hi there\nHi there := I am fine thanks"
	if got != want {
		t.Fatalf("unexpected render:\n got %q\nwant %q", got, want)
	}
}

func TestRenderSingleHeading(t *testing.T) {
	if got := Render([]Segment{teacher("Hi")}); got != "# Hi" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := Render(nil); got != "" {
		t.Fatalf("expected empty render, got %q", got)
	}
}

func TestRenderQueuesPromptsAndShortReplies(t *testing.T) {
	segments := Fold([]Segment{
		teacher("Lesson one."),
		teacher("Question one?"),
		student("Yes."),
		teacher("Do you like it?"),
		student("Yes I like it"),
		teacher("Good."),
	})
	got := Render(segments)
	want := "# Lesson one.\n" +
		"# Question one, Yes\n" +
		"Do you like it? := Yes I like it\n" +
		"# Good"
	if got != want {
		t.Fatalf("unexpected render:\n got %q\nwant %q", got, want)
	}
}

func TestRenderDropsUnpairedLongStudentTurns(t *testing.T) {
	got := Render([]Segment{teacher("Intro"), student("nobody asked me this")})
	if got != "# Intro" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRenderFirstLineIgnoresRole(t *testing.T) {
	got := Render([]Segment{student("ok"), teacher("Next?")})
	if got != "# ok\n# Next" {
		t.Fatalf("unexpected render: %q", got)
	}
}
