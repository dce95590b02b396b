package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sankofa-learn/sankofa/internal/curriculum"
	"github.com/sankofa-learn/sankofa/internal/llm"
	"github.com/sankofa-learn/sankofa/internal/question"
)

var testNode = curriculum.Node{Code: "B3.1.3.1", Name: "Multi-digit addition", Grade: "B3", Severity: 4}

func numericQuestion(expected string) question.Question {
	return question.Question{
		NodeCode:       testNode.Code,
		Text:           "What is 47 + 25?",
		Kind:           question.KindNumeric,
		ExpectedAnswer: expected,
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	cases := []string{"", "  72 ", "SEVENTY  two", "a\tb\nc", "already normal"}
	for _, s := range cases {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent on %q: %q != %q", s, once, twice)
		}
	}
}

func TestExactMatch(t *testing.T) {
	q := numericQuestion("72")

	res := ExactMatch(q, "  72 ")
	if !res.IsCorrect || res.Source != SourceExact || res.Confidence != ExactMatchConfidence {
		t.Errorf("got %+v, want correct exact-match", res)
	}

	res = ExactMatch(q, "71")
	if res.IsCorrect {
		t.Error("wrong answer graded correct")
	}
}

func TestExactMatchCaseAndSpacing(t *testing.T) {
	q := numericQuestion("Seventy Two")
	if res := ExactMatch(q, "seventy   TWO"); !res.IsCorrect {
		t.Error("normalized comparison should accept case/spacing variants")
	}
}

func TestExactMatchNoExpectedAnswer(t *testing.T) {
	q := question.Question{NodeCode: testNode.Code, Text: "Show me", Kind: question.KindOpen}

	res := ExactMatch(q, "anything")
	if res.Source != SourceUngraded || res.Confidence != UngradedConfidence || res.IsCorrect {
		t.Errorf("got %+v, want ungraded", res)
	}
}

func TestAnalyzeModelPath(t *testing.T) {
	reply, _ := json.Marshal(map[string]any{
		"is_correct":    false,
		"confidence":    0.9,
		"error_pattern": "forgot to carry",
		"misconception": "treats columns independently",
		"next_action":   "probe_deeper",
	})
	client := llm.NewMockClient(llm.MockReply{Content: reply})

	res := New(client).Analyze(context.Background(), testNode, numericQuestion("72"), "62")
	if res.Source != SourceModel {
		t.Fatalf("source = %s, want model", res.Source)
	}
	if res.IsCorrect || res.ErrorPattern != "forgot to carry" || res.NextAction != ActionProbeDeeper {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAnalyzeFallsBackOnModelFailure(t *testing.T) {
	// Empty mock queue yields ErrUnavailable on every call.
	client := llm.NewMockClient()

	res := New(client).Analyze(context.Background(), testNode, numericQuestion("72"), "72")
	if res.Source != SourceExact {
		t.Fatalf("source = %s, want exact-match fallback", res.Source)
	}
	if !res.IsCorrect {
		t.Error("fallback should grade the exact answer correct")
	}
}

func TestAnalyzeFallsBackOnMalformedJSON(t *testing.T) {
	client := llm.NewMockClient(llm.MockReply{Content: json.RawMessage(`{"is_correct": "notabool"`)})

	res := New(client).Analyze(context.Background(), testNode, numericQuestion("72"), "72")
	if res.Source != SourceExact {
		t.Errorf("source = %s, want exact-match fallback", res.Source)
	}
}

func TestAnalyzeWithoutClient(t *testing.T) {
	res := New(nil).Analyze(context.Background(), testNode, numericQuestion("72"), "72")
	if res.Source != SourceExact || !res.IsCorrect {
		t.Errorf("got %+v, want exact-match", res)
	}
}
