// Package analysis classifies a student's answer to a diagnostic
// question. The primary path asks the completion service for a
// structured judgement; any failure there resolves to exact-match
// comparison. The fallback is expressed in the result itself rather
// than hidden behind a blanket recover.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sankofa-learn/sankofa/internal/curriculum"
	"github.com/sankofa-learn/sankofa/internal/llm"
	"github.com/sankofa-learn/sankofa/internal/question"
)

// Source says which path produced a result.
type Source string

const (
	SourceModel    Source = "model"
	SourceExact    Source = "exact-match"
	SourceUngraded Source = "ungraded"
)

// Fixed confidence constants. These are placeholders pending a real
// scoring model; they live here so there is exactly one place to
// replace when that lands.
const (
	ExactMatchConfidence = 0.9
	UngradedConfidence   = 0.3
)

// NextAction is the model's suggestion for what to probe next.
type NextAction string

const (
	ActionContinue    NextAction = "continue"
	ActionProbeDeeper NextAction = "probe_deeper"
	ActionMoveOn      NextAction = "move_on"
)

// Result is the classification of one answer.
type Result struct {
	IsCorrect     bool
	Confidence    float64
	ErrorPattern  string
	Misconception string
	NextAction    NextAction

	// Source tags which path produced this result, so callers can see
	// a fallback happened instead of inferring it from absent fields.
	Source Source
}

// Analyzer grades answers. A nil client disables the model path.
type Analyzer struct {
	client llm.Client
}

// New creates an Analyzer. client may be nil for fallback-only grading.
func New(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

var analysisSchema = &llm.Schema{
	Name:        "answer-analysis",
	Description: "Judgement of a student's answer to a numeracy question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_correct":    map[string]any{"type": "boolean"},
			"confidence":    map[string]any{"type": "number"},
			"error_pattern": map[string]any{"type": "string"},
			"misconception": map[string]any{"type": "string"},
			"next_action": map[string]any{
				"type": "string",
				"enum": []any{"continue", "probe_deeper", "move_on"},
			},
		},
		"required":             []any{"is_correct", "confidence", "next_action"},
		"additionalProperties": false,
	},
}

const analysisSystem = `You grade a primary-school student's answer to a numeracy question. Judge correctness generously with respect to formatting (extra words, units, case) but strictly on the mathematics. Identify the error pattern and likely misconception when wrong. Keep strings short.`

type analysisOutput struct {
	IsCorrect     bool    `json:"is_correct"`
	Confidence    float64 `json:"confidence"`
	ErrorPattern  string  `json:"error_pattern"`
	Misconception string  `json:"misconception"`
	NextAction    string  `json:"next_action"`
}

// Analyze grades the response to q for the given node. The context
// deadline bounds the model call; on expiry the exact-match path runs.
func (a *Analyzer) Analyze(ctx context.Context, node curriculum.Node, q question.Question, response string) Result {
	if a.client != nil {
		if res, err := a.analyzeWithModel(ctx, node, q, response); err == nil {
			return res
		} else {
			slog.Debug("answer analysis fell back to exact match", "node", node.Code, "error", err)
		}
	}
	return ExactMatch(q, response)
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, node curriculum.Node, q question.Question, response string) (Result, error) {
	ctx = llm.WithPurpose(ctx, "answer-analysis")

	user := fmt.Sprintf("Objective: %s\nQuestion: %s\n", node.Name, q.Text)
	if q.ExpectedAnswer != "" {
		user += fmt.Sprintf("Expected answer: %s\n", q.ExpectedAnswer)
	}
	user += fmt.Sprintf("Student's answer: %s", response)

	comp, err := a.client.Complete(ctx, llm.Prompt{
		System:    analysisSystem,
		User:      user,
		Schema:    analysisSchema,
		MaxTokens: 256,
	})
	if err != nil {
		return Result{}, err
	}

	var out analysisOutput
	if err := json.Unmarshal(comp.Content, &out); err != nil {
		return Result{}, fmt.Errorf("parse analysis response: %w", err)
	}

	action := NextAction(out.NextAction)
	switch action {
	case ActionContinue, ActionProbeDeeper, ActionMoveOn:
	default:
		action = ActionContinue
	}

	return Result{
		IsCorrect:     out.IsCorrect,
		Confidence:    out.Confidence,
		ErrorPattern:  out.ErrorPattern,
		Misconception: out.Misconception,
		NextAction:    action,
		Source:        SourceModel,
	}, nil
}

// ExactMatch is the deterministic grading path: normalized string
// equality against the expected answer. A question with no expected
// answer cannot be graded automatically and comes back ungraded.
func ExactMatch(q question.Question, response string) Result {
	if q.ExpectedAnswer == "" {
		return Result{
			IsCorrect:  false,
			Confidence: UngradedConfidence,
			NextAction: ActionContinue,
			Source:     SourceUngraded,
		}
	}

	correct := Normalize(response) == Normalize(q.ExpectedAnswer)
	return Result{
		IsCorrect:  correct,
		Confidence: ExactMatchConfidence,
		NextAction: ActionContinue,
		Source:     SourceExact,
	}
}

// Normalize lowercases, trims, and collapses internal whitespace.
// Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
