package curriculum

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is an atomic learning objective in the curriculum graph.
// Immutable reference data.
type Node struct {
	// Code identifies the node as grade.strand.substrand.standard,
	// e.g. "B2.1.2.3".
	Code string

	Name string

	// Grade is the grade code the objective belongs to, e.g. "B2".
	Grade string

	// Severity ranks how foundational the objective is (1-5).
	// 5 means a gap here undermines most later work.
	Severity int

	// QuestionsRequired is the minimum questions before classification.
	QuestionsRequired int

	// ConfidenceThreshold is the per-node confidence needed to settle
	// a mastery/gap call.
	ConfidenceThreshold float64
}

// GradeFromCode extracts the grade prefix of a node code ("B2.1.2.3" → "B2").
func GradeFromCode(code string) string {
	if i := strings.IndexByte(code, '.'); i > 0 {
		return code[:i]
	}
	return code
}

// ParseCode splits a node code into its four numeric components after
// the grade prefix. Returns an error for malformed codes.
func ParseCode(code string) (grade string, parts [3]int, err error) {
	segs := strings.Split(code, ".")
	if len(segs) != 4 {
		return "", parts, fmt.Errorf("node code %q: want grade.strand.substrand.standard", code)
	}
	for i, s := range segs[1:] {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return "", parts, fmt.Errorf("node code %q: segment %q is not numeric", code, s)
		}
		parts[i] = n
	}
	return segs[0], parts, nil
}

// EdgeKind is the relation a prerequisite edge expresses.
type EdgeKind string

const (
	EdgeRequires    EdgeKind = "requires"
	EdgeStrengthens EdgeKind = "strengthens"
	EdgeEnables     EdgeKind = "enables"
)

// Edge is a directed source→target prerequisite relation.
// Source depends on target: to master Source, Target is needed first.
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
}

// CascadePath is a known failure pattern: an ordered sequence of node
// codes along which gaps tend to propagate. EntryNode, when set, is the
// recommended node to probe first when cross-checking this cascade.
type CascadePath struct {
	Name      string
	Nodes     []string
	EntryNode string
}

// Contains reports whether the cascade's sequence includes the node.
func (c CascadePath) Contains(code string) bool {
	for _, n := range c.Nodes {
		if n == code {
			return true
		}
	}
	return false
}
