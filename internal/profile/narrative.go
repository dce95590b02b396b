package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sankofa-learn/sankofa/internal/curriculum"
	"github.com/sankofa-learn/sankofa/internal/engine"
	"github.com/sankofa-learn/sankofa/internal/llm"
)

// Narrative is the model-written enrichment of a profile.
type Narrative struct {
	Summary        string `json:"summary"`
	Recommendation string `json:"recommendation"`
}

var narrativeSchema = &llm.Schema{
	Name:        "gap-narrative",
	Description: "Plain-language diagnostic summary for a guardian",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":        map[string]any{"type": "string"},
			"recommendation": map[string]any{"type": "string"},
		},
		"required":             []any{"summary", "recommendation"},
		"additionalProperties": false,
	},
}

const narrativeSystem = `You summarize a child's numeracy diagnostic for their parent in warm, plain language. Two or three sentences of summary, one concrete recommendation. No jargon, no curriculum codes.`

// Enricher produces narratives. A nil client makes Enrich always
// return (nil, error), which callers resolve to the rule-based text.
type Enricher struct {
	client llm.Client
}

// NewEnricher creates a narrative enricher.
func NewEnricher(client llm.Client) *Enricher {
	return &Enricher{client: client}
}

// Enrich asks the completion service for a narrative. Every failure
// mode — no client, transport error, timeout, malformed JSON — returns
// a nil Narrative; the caller substitutes the deterministic summary.
func (e *Enricher) Enrich(ctx context.Context, g *curriculum.Graph, s *engine.Session, p *GapProfile, history []QARecord) (*Narrative, error) {
	if e.client == nil {
		return nil, fmt.Errorf("no completion client configured")
	}

	ctx = llm.WithPurpose(ctx, "profile-narrative")

	comp, err := e.client.Complete(ctx, llm.Prompt{
		System:    narrativeSystem,
		User:      narrativePrompt(g, s, p, history),
		Schema:    narrativeSchema,
		MaxTokens: 512,
	})
	if err != nil {
		slog.Debug("profile narrative fell back to rule-based summary", "session", s.ID, "error", err)
		return nil, err
	}

	var n Narrative
	if err := json.Unmarshal(comp.Content, &n); err != nil {
		return nil, fmt.Errorf("parse narrative response: %w", err)
	}
	if n.Summary == "" || n.Recommendation == "" {
		return nil, fmt.Errorf("narrative response missing fields")
	}
	return &n, nil
}

// narrativePrompt assembles student context, the full answer history,
// and the relevant graph excerpt.
func narrativePrompt(g *curriculum.Graph, s *engine.Session, p *GapProfile, history []QARecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Child's grade: %s. Estimated working level: %s (%d grade(s) behind).\n",
		s.EntryGrade, p.EstimatedGradeLevel, p.GradeGap)

	if p.PrimaryGapNode != "" {
		if n, err := g.Node(p.PrimaryGapNode); err == nil {
			fmt.Fprintf(&b, "Main gap: %s.\n", n.Name)
		}
	}
	if p.PrimaryCascade != "" {
		fmt.Fprintf(&b, "Matches known pattern: %s.\n", p.PrimaryCascade)
	}

	b.WriteString("\nQuestions and answers:\n")
	for _, qa := range history {
		mark := "wrong"
		if qa.IsCorrect {
			mark = "right"
		}
		name := qa.NodeCode
		if n, err := g.Node(qa.NodeCode); err == nil {
			name = n.Name
		}
		fmt.Fprintf(&b, "- [%s] %s -> %q (%s)\n", name, qa.Question, qa.Answer, mark)
	}

	if p.PrimaryGapNode != "" {
		prereqs := g.PrerequisiteNodes(p.PrimaryGapNode)
		if len(prereqs) > 0 {
			b.WriteString("\nSkills the main gap depends on:\n")
			for _, n := range prereqs {
				fmt.Fprintf(&b, "- %s\n", n.Name)
			}
		}
	}

	return b.String()
}

// FallbackRecommendation is the deterministic second level of the
// narrative fallback: a generic next step derived from the profile
// alone.
func FallbackRecommendation(g *curriculum.Graph, p *GapProfile) string {
	if p.PrimaryGapNode != "" {
		if n, err := g.Node(p.PrimaryGapNode); err == nil {
			return fmt.Sprintf(
				"Focus practice on %s. Ten minutes a day of short exercises on this skill will unblock the work that builds on it.",
				n.Name)
		}
	}
	if len(p.NodesGap) == 0 {
		return "No foundational gaps were found. Keep practising at the current grade level to build fluency."
	}
	return "Revisit the basics a grade below the child's current level, starting with counting and place value."
}
