// Package question turns a curriculum node into a concrete question to
// send over the messaging channel.
package question

import "github.com/sankofa-learn/sankofa/internal/curriculum"

// Kind describes how a question is answered and graded.
type Kind string

const (
	// KindNumeric expects a numeric text answer graded automatically.
	KindNumeric Kind = "numeric"

	// KindMultipleChoice expects one of the listed choices.
	KindMultipleChoice Kind = "multiple_choice"

	// KindOpen has no expected answer; grading needs a human or the
	// completion service. Produced for nodes without templates.
	KindOpen Kind = "open"
)

// Question is ready to deliver to a student.
type Question struct {
	// NodeCode is the curriculum node this question probes.
	NodeCode string

	Text string
	Kind Kind

	// ExpectedAnswer is the canonical correct answer. Empty for
	// KindOpen, which forces manual grading.
	ExpectedAnswer string

	// Choices is populated only for KindMultipleChoice.
	Choices []string

	// Sequence is the per-node sequence number the question was
	// generated for (first question on the node is 0).
	Sequence int
}

// Generator produces a question for a node. Implementations must be
// deterministic for a given (node, sequence) pair or fall back to one
// that is.
type Generator interface {
	Generate(node curriculum.Node, sequence int) Question
}
