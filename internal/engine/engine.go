// Package engine owns the per-session diagnostic decision logic: which
// node to probe next, how an answer changes the session's mastery and
// gap sets, and when the session is done.
package engine

import (
	"github.com/sankofa-learn/sankofa/internal/curriculum"
)

const (
	// MinQuestionsPerNode is the per-node probe count before a
	// mastery/gap call is made.
	MinQuestionsPerNode = 2

	// CompleteConfidence ends the session once the root gap is known
	// at least this confidently.
	CompleteConfidence = 0.80

	// MaxQuestions caps a session. Children answering over a messaging
	// channel fatigue quickly; past this point answers stop being signal.
	MaxQuestions = 15

	// ClassifiedConfidence is assigned when a node is settled as
	// mastered or gap. Fixed rather than derived from response history.
	ClassifiedConfidence = 0.85

	// UncertainConfidence is reported while a node is under-probed.
	UncertainConfidence = 0.5
)

// Engine drives diagnostic sessions against a curriculum graph.
type Engine struct {
	graph     *curriculum.Graph
	screening []string
}

// New creates an Engine. screening is the ordered list of node codes
// probed first in every session.
func New(graph *curriculum.Graph, screening []string) *Engine {
	return &Engine{graph: graph, screening: screening}
}

// screeningBudget is the number of questions the screening phase spans.
func (e *Engine) screeningBudget() int {
	return len(e.screening) * MinQuestionsPerNode
}

// screeningCovered reports whether every screening node has been probed
// the minimum number of times.
func (e *Engine) screeningCovered(s *Session) bool {
	for _, code := range e.screening {
		if s.TestedCount(code) < MinQuestionsPerNode {
			return false
		}
	}
	return true
}

// NextNode selects the next node to probe, or ok=false when the session
// is ready to complete.
//
// Selection runs in phases: the question cap, then screening in fixed
// order, then backward tracing from the worst gap, then a cascade
// cross-check.
func (e *Engine) NextNode(s *Session) (curriculum.Node, bool) {
	if s.TotalQuestions >= MaxQuestions {
		return curriculum.Node{}, false
	}

	// Screening: probe the fixed list in order until each node has its
	// minimum questions.
	if s.TotalQuestions < e.screeningBudget() {
		for _, code := range e.screening {
			if s.TestedCount(code) < MinQuestionsPerNode {
				if n, err := e.graph.Node(code); err == nil {
					return n, true
				}
			}
		}
	}

	// Backward trace: from the highest-severity gap, probe its most
	// foundational untested prerequisite.
	if node, ok := e.traceBackward(s); ok {
		return node, true
	}

	// Cross-check: with a severity-5 root gap and enough signal, probe
	// the entry of a different cascade to rule out a broader pattern.
	if node, ok := e.crossCheck(s); ok {
		return node, true
	}

	return curriculum.Node{}, false
}

func (e *Engine) traceBackward(s *Session) (curriculum.Node, bool) {
	if len(s.NodesGap) == 0 {
		return curriculum.Node{}, false
	}

	// Highest severity wins; insertion order breaks ties.
	var worst curriculum.Node
	found := false
	for _, code := range s.NodesGap {
		n, err := e.graph.Node(code)
		if err != nil {
			continue
		}
		if !found || n.Severity > worst.Severity {
			worst = n
			found = true
		}
	}
	if !found {
		return curriculum.Node{}, false
	}

	for _, prereq := range e.graph.PrerequisiteNodes(worst.Code) {
		if !s.Tested(prereq.Code) {
			return prereq, true
		}
	}
	return curriculum.Node{}, false
}

func (e *Engine) crossCheck(s *Session) (curriculum.Node, bool) {
	if s.RootGapNode == "" || s.CascadeName != "" || s.TotalQuestions < 8 {
		return curriculum.Node{}, false
	}
	root, err := e.graph.Node(s.RootGapNode)
	if err != nil || root.Severity != 5 {
		return curriculum.Node{}, false
	}

	cascades := e.graph.Cascades()
	if len(cascades) < 2 {
		return curriculum.Node{}, false
	}

	own, haveOwn := e.graph.CascadeContaining(s.RootGapNode)
	for _, c := range cascades {
		if haveOwn && c.Name == own.Name {
			continue
		}
		entry := c.EntryNode
		if entry == "" && len(c.Nodes) > 0 {
			entry = c.Nodes[0]
		}
		if entry == "" || s.Tested(entry) {
			continue
		}
		if n, err := e.graph.Node(entry); err == nil {
			return n, true
		}
	}
	return curriculum.Node{}, false
}

// ShouldComplete reports whether the session has enough signal to end:
// the question cap is hit, the root gap is settled confidently, or
// screening finished clean with no gaps at all.
func (e *Engine) ShouldComplete(s *Session) bool {
	if s.TotalQuestions >= MaxQuestions {
		return true
	}
	if s.RootGapConfidence >= CompleteConfidence {
		return true
	}
	return e.screeningCovered(s) && len(s.NodesGap) == 0
}

// IdentifyCascade returns the name of the first cascade whose sequence
// contains the node, or "" if none does.
func (e *Engine) IdentifyCascade(code string) string {
	if c, ok := e.graph.CascadeContaining(code); ok {
		return c.Name
	}
	return ""
}

// Graph exposes the engine's curriculum graph to collaborators that
// need node lookups (question generation, profile synthesis).
func (e *Engine) Graph() *curriculum.Graph {
	return e.graph
}
