package observability

import "testing"

func TestNormalizedPath(t *testing.T) {
	got := normalizedPath("/quizzes/0c7f2ab0-4f4d-4f4a-9f3e-0f1a2b3c4d5e/questions/3/image/")
	want := "/quizzes/{id}/questions/{index}/image/"
	if got != want {
		t.Fatalf("normalizedPath mismatch got=%s want=%s", got, want)
	}
}

func TestExtractQuizID(t *testing.T) {
	if id := extractQuizID("/quizzes/0c7f2ab0-4f4d-4f4a-9f3e-0f1a2b3c4d5e/"); id != "0c7f2ab0-4f4d-4f4a-9f3e-0f1a2b3c4d5e" {
		t.Fatalf("expected quiz id, got %q", id)
	}
	if id := extractQuizID("/artikels/0c7f2ab0-4f4d-4f4a-9f3e-0f1a2b3c4d5e/"); id != "" {
		t.Fatalf("expected empty for non-quiz path, got %q", id)
	}
	if id := extractQuizID("/quizzes/not-a-uuid/"); id != "" {
		t.Fatalf("expected empty for malformed id, got %q", id)
	}
}
