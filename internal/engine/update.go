package engine

// NodeStatus is the engine's call on a node after an answer.
type NodeStatus string

const (
	NodeUncertain NodeStatus = "uncertain"
	NodeMastered  NodeStatus = "mastered"
	NodeGap       NodeStatus = "gap"
)

// Update is the outcome of recording one answer.
type Update struct {
	Status     NodeStatus
	Confidence float64

	// RootGapPromoted is set when this answer made the node the
	// session's root gap.
	RootGapPromoted bool
}

// UpdateState records an answer on a node and reclassifies it once it
// has been probed MinQuestionsPerNode times. The question total is
// monotonic and capped: past MaxQuestions the call is a no-op.
func (e *Engine) UpdateState(s *Session, code string, isCorrect bool) Update {
	if s.TotalQuestions >= MaxQuestions {
		return Update{Status: NodeUncertain, Confidence: UncertainConfidence}
	}

	s.NodesTested = append(s.NodesTested, code)
	s.TotalQuestions++
	if s.Status == StatusPending {
		s.Status = StatusInProgress
	}
	if isCorrect {
		s.CorrectAnswers++
	}

	// Under-probed nodes stay unclassified.
	if s.TestedCount(code) < MinQuestionsPerNode {
		return Update{Status: NodeUncertain, Confidence: UncertainConfidence}
	}

	if isCorrect {
		s.addMastered(code)
		return Update{Status: NodeMastered, Confidence: ClassifiedConfidence}
	}

	s.addGap(code)

	promoted := false
	node, err := e.graph.Node(code)
	if err == nil {
		current := -1
		if s.RootGapNode != "" {
			if rn, rerr := e.graph.Node(s.RootGapNode); rerr == nil {
				current = rn.Severity
			}
		}
		// Equal severity promotes: a fresher gap at the same depth is
		// the better trace head.
		if s.RootGapNode == "" || node.Severity >= current {
			s.RootGapNode = code
			s.RootGapConfidence = ClassifiedConfidence
			promoted = true
		}
	}

	return Update{Status: NodeGap, Confidence: ClassifiedConfidence, RootGapPromoted: promoted}
}

// Complete marks the session terminal with the given status. Terminal
// sessions are never reopened.
func (s *Session) Complete(status Status) {
	if s.Status.Terminal() {
		return
	}
	s.Status = status
}
