package curriculum

import "sync"

// Seed reference data for the Basic 1-6 numeracy curriculum. Node codes
// follow grade.strand.substrand.standard; strand 1 is number, 3 is
// measurement and geometry, 4 is data.

var seedOnce sync.Once
var seedGraph *Graph

// Default returns the process-wide curriculum graph built from the seed
// data. The graph is built once and never mutated afterwards.
func Default() *Graph {
	seedOnce.Do(func() {
		g, err := NewGraph(seedNodes(), seedEdges(), seedCascades())
		if err != nil {
			// Seed data is compiled in; failing validation is a
			// programming error, not a runtime condition.
			panic(err)
		}
		seedGraph = g
	})
	return seedGraph
}

// ScreeningNodes is the fixed, ordered list of node codes every
// diagnostic session probes first to localize the general gap area.
func ScreeningNodes() []string {
	return []string{
		"B3.1.3.1", // multi-digit addition
		"B3.1.4.1", // multiplication facts
		"B3.1.5.1", // unit fractions
		"B3.4.1.1", // reading tables and charts
	}
}

func node(code, name string, severity int) Node {
	return Node{
		Code:                code,
		Name:                name,
		Grade:               GradeFromCode(code),
		Severity:            severity,
		QuestionsRequired:   2,
		ConfidenceThreshold: 0.8,
	}
}

func seedNodes() []Node {
	return []Node{
		node("B1.1.1.1", "Count and write numbers to 100", 5),
		node("B1.1.2.1", "Compare and order numbers to 100", 4),
		node("B1.1.3.1", "Add within 20", 5),
		node("B1.1.3.2", "Subtract within 20", 5),

		node("B2.1.1.1", "Place value to 1000", 5),
		node("B2.1.3.1", "Add within 100 with regrouping", 4),
		node("B2.1.3.2", "Subtract within 100 with regrouping", 4),
		node("B2.1.4.1", "Equal groups and repeated addition", 3),
		node("B2.3.1.1", "Measure and compare lengths", 2),

		node("B3.1.1.1", "Place value to 10000", 4),
		node("B3.1.3.1", "Multi-digit addition", 4),
		node("B3.1.3.2", "Multi-digit subtraction", 4),
		node("B3.1.4.1", "Multiplication facts to 10x10", 4),
		node("B3.1.4.2", "Division as equal sharing", 3),
		node("B3.1.5.1", "Unit fractions", 3),
		node("B3.3.1.1", "Perimeter of simple shapes", 2),
		node("B3.4.1.1", "Read tables and charts", 2),

		node("B4.1.4.1", "Multi-digit multiplication", 3),
		node("B4.1.4.2", "Long division", 3),
		node("B4.1.5.1", "Equivalent fractions", 3),
		node("B4.3.1.1", "Area of rectangles", 2),

		node("B5.1.5.1", "Add and subtract fractions", 2),
		node("B5.1.6.1", "Decimal notation", 2),

		node("B6.1.6.1", "Ratio and proportion", 2),
	}
}

func seedEdges() []Edge {
	return []Edge{
		{Source: "B2.1.1.1", Target: "B1.1.1.1", Kind: EdgeRequires},
		{Source: "B2.1.1.1", Target: "B1.1.2.1", Kind: EdgeStrengthens},
		{Source: "B2.1.3.1", Target: "B1.1.3.1", Kind: EdgeRequires},
		{Source: "B2.1.3.1", Target: "B2.1.1.1", Kind: EdgeRequires},
		{Source: "B2.1.3.2", Target: "B1.1.3.2", Kind: EdgeRequires},
		{Source: "B2.1.3.2", Target: "B2.1.1.1", Kind: EdgeRequires},
		{Source: "B2.1.4.1", Target: "B1.1.3.1", Kind: EdgeRequires},

		{Source: "B3.1.1.1", Target: "B2.1.1.1", Kind: EdgeRequires},
		{Source: "B3.1.3.1", Target: "B2.1.3.1", Kind: EdgeRequires},
		{Source: "B3.1.3.1", Target: "B3.1.1.1", Kind: EdgeStrengthens},
		{Source: "B3.1.3.2", Target: "B2.1.3.2", Kind: EdgeRequires},
		{Source: "B3.1.3.2", Target: "B3.1.1.1", Kind: EdgeStrengthens},
		{Source: "B3.1.4.1", Target: "B2.1.4.1", Kind: EdgeRequires},
		{Source: "B3.1.4.1", Target: "B2.1.3.1", Kind: EdgeStrengthens},
		{Source: "B3.1.4.2", Target: "B3.1.4.1", Kind: EdgeRequires},
		{Source: "B3.1.5.1", Target: "B2.1.4.1", Kind: EdgeRequires},
		{Source: "B3.1.5.1", Target: "B1.1.2.1", Kind: EdgeStrengthens},
		{Source: "B3.3.1.1", Target: "B3.1.3.1", Kind: EdgeRequires},
		{Source: "B3.3.1.1", Target: "B2.3.1.1", Kind: EdgeRequires},
		{Source: "B3.4.1.1", Target: "B1.1.2.1", Kind: EdgeRequires},

		{Source: "B4.1.4.1", Target: "B3.1.4.1", Kind: EdgeRequires},
		{Source: "B4.1.4.1", Target: "B3.1.1.1", Kind: EdgeRequires},
		{Source: "B4.1.4.2", Target: "B3.1.4.2", Kind: EdgeRequires},
		{Source: "B4.1.4.2", Target: "B3.1.3.2", Kind: EdgeStrengthens},
		{Source: "B4.1.5.1", Target: "B3.1.5.1", Kind: EdgeRequires},
		{Source: "B4.1.5.1", Target: "B3.1.4.2", Kind: EdgeEnables},
		{Source: "B4.3.1.1", Target: "B4.1.4.1", Kind: EdgeRequires},
		{Source: "B4.3.1.1", Target: "B3.3.1.1", Kind: EdgeRequires},

		{Source: "B5.1.5.1", Target: "B4.1.5.1", Kind: EdgeRequires},
		{Source: "B5.1.5.1", Target: "B3.1.4.1", Kind: EdgeStrengthens},
		{Source: "B5.1.6.1", Target: "B3.1.1.1", Kind: EdgeRequires},
		{Source: "B5.1.6.1", Target: "B4.1.5.1", Kind: EdgeRequires},

		{Source: "B6.1.6.1", Target: "B4.1.4.2", Kind: EdgeRequires},
		{Source: "B6.1.6.1", Target: "B5.1.6.1", Kind: EdgeRequires},
	}
}

func seedCascades() []CascadePath {
	return []CascadePath{
		{
			Name: "place-value-collapse",
			Nodes: []string{
				"B1.1.1.1", "B2.1.1.1", "B3.1.1.1",
				"B3.1.3.1", "B4.1.4.1", "B5.1.6.1",
			},
			EntryNode: "B2.1.1.1",
		},
		{
			Name: "multiplicative-reasoning",
			Nodes: []string{
				"B2.1.4.1", "B3.1.4.1", "B3.1.4.2",
				"B4.1.4.1", "B4.1.4.2", "B6.1.6.1",
			},
			EntryNode: "B3.1.4.1",
		},
		{
			Name: "fraction-understanding",
			Nodes: []string{
				"B3.1.5.1", "B4.1.5.1", "B5.1.5.1",
			},
			EntryNode: "B3.1.5.1",
		},
	}
}
