package question

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sankofa-learn/sankofa/internal/curriculum"
	"github.com/sankofa-learn/sankofa/internal/llm"
)

// TemplateGenerator serves questions from the built-in template table.
// Variants are selected cyclically by sequence number, so consecutive
// questions on the same node differ until the bank wraps around.
type TemplateGenerator struct{}

// NewTemplateGenerator creates the deterministic generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Generate(node curriculum.Node, sequence int) Question {
	tmpls := templatesFor(node.Code)
	if len(tmpls) == 0 {
		return placeholder(node, sequence)
	}

	t := tmpls[sequence%len(tmpls)]
	return Question{
		NodeCode:       node.Code,
		Text:           t.Text,
		Kind:           t.Kind,
		ExpectedAnswer: t.Answer,
		Choices:        t.Choices,
		Sequence:       sequence,
	}
}

// placeholder is the generic question for nodes without templates.
// It carries no expected answer, which forces a manual-grading outcome
// downstream.
func placeholder(node curriculum.Node, sequence int) Question {
	return Question{
		NodeCode: node.Code,
		Text:     fmt.Sprintf("Ask your child to show you: %s. Did they manage it? Reply YES or NO.", node.Name),
		Kind:     KindOpen,
		Sequence: sequence,
	}
}

// LLMGenerator asks the completion service for a fresh question and
// falls back to the template generator on any failure. The fallback is
// the contract: a dead completion service must never block a turn.
type LLMGenerator struct {
	client   llm.Client
	fallback *TemplateGenerator
}

// NewLLMGenerator creates a completion-backed generator.
func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client, fallback: NewTemplateGenerator()}
}

var questionSchema = &llm.Schema{
	Name:        "diagnostic-question",
	Description: "A single short numeracy question with its answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":   map[string]any{"type": "string"},
			"answer": map[string]any{"type": "string"},
		},
		"required":             []any{"text", "answer"},
		"additionalProperties": false,
	},
}

const questionSystem = `You write one short numeracy question for a primary-school child, answerable in a chat message. Plain ASCII. The answer must be a single number or short phrase.`

type questionOutput struct {
	Text   string `json:"text"`
	Answer string `json:"answer"`
}

func (g *LLMGenerator) Generate(node curriculum.Node, sequence int) Question {
	return g.GenerateContext(context.Background(), node, sequence)
}

// GenerateContext is Generate with a caller-supplied deadline.
func (g *LLMGenerator) GenerateContext(ctx context.Context, node curriculum.Node, sequence int) Question {
	ctx = llm.WithPurpose(ctx, "question-generation")

	comp, err := g.client.Complete(ctx, llm.Prompt{
		System:      questionSystem,
		User:        fmt.Sprintf("Objective: %s (%s). Write question number %d for this objective.", node.Name, node.Code, sequence+1),
		Schema:      questionSchema,
		MaxTokens:   128,
		Temperature: 0.7,
	})
	if err != nil {
		slog.Debug("question generation fell back to templates", "node", node.Code, "error", err)
		return g.fallback.Generate(node, sequence)
	}

	var out questionOutput
	if err := json.Unmarshal(comp.Content, &out); err != nil || out.Text == "" {
		return g.fallback.Generate(node, sequence)
	}

	return Question{
		NodeCode:       node.Code,
		Text:           out.Text,
		Kind:           KindNumeric,
		ExpectedAnswer: out.Answer,
		Sequence:       sequence,
	}
}
