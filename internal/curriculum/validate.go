package curriculum

import (
	"fmt"
	"strings"
)

// validate performs all structural checks on the curriculum inputs.
// Returns a combined error describing every problem found, or nil.
func validate(nodes []Node, edges []Edge, cascades []CascadePath) error {
	var errs []string

	codeSet := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if codeSet[n.Code] {
			errs = append(errs, fmt.Sprintf("duplicate node code: %q", n.Code))
		}
		codeSet[n.Code] = true

		if _, _, err := ParseCode(n.Code); err != nil {
			errs = append(errs, err.Error())
		}
		if n.Severity < 1 || n.Severity > 5 {
			errs = append(errs, fmt.Sprintf("node %q: severity must be 1-5, got %d", n.Code, n.Severity))
		}
		if n.QuestionsRequired <= 0 {
			errs = append(errs, fmt.Sprintf("node %q: QuestionsRequired must be > 0, got %d", n.Code, n.QuestionsRequired))
		}
		if n.ConfidenceThreshold <= 0 || n.ConfidenceThreshold > 1.0 {
			errs = append(errs, fmt.Sprintf("node %q: ConfidenceThreshold must be in (0, 1.0], got %f", n.Code, n.ConfidenceThreshold))
		}
		if grade := GradeFromCode(n.Code); grade != n.Grade {
			errs = append(errs, fmt.Sprintf("node %q: grade field %q does not match code prefix %q", n.Code, n.Grade, grade))
		}
	}

	// Edge checks: no self-loops, no dangling references, at most one
	// edge per ordered pair.
	pairSet := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if e.Source == e.Target {
			errs = append(errs, fmt.Sprintf("self-loop edge on %q", e.Source))
			continue
		}
		if !codeSet[e.Source] {
			errs = append(errs, fmt.Sprintf("edge references nonexistent source %q", e.Source))
		}
		if !codeSet[e.Target] {
			errs = append(errs, fmt.Sprintf("edge references nonexistent target %q", e.Target))
		}
		pair := [2]string{e.Source, e.Target}
		if pairSet[pair] {
			errs = append(errs, fmt.Sprintf("duplicate edge %q -> %q", e.Source, e.Target))
		}
		pairSet[pair] = true
	}

	// Cycle check via Kahn's algorithm. Backward tracing walks
	// source→target, so a cycle would make it non-terminating.
	inDegree := make(map[string]int, len(nodes))
	adj := make(map[string][]string)
	for _, n := range nodes {
		inDegree[n.Code] = 0
	}
	for _, e := range edges {
		if e.Source == e.Target || !codeSet[e.Source] || !codeSet[e.Target] {
			continue
		}
		inDegree[e.Target]++
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	var queue []string
	for _, n := range nodes {
		if inDegree[n.Code] == 0 {
			queue = append(queue, n.Code)
		}
	}
	visited := 0
	for len(queue) > 0 {
		code := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adj[code] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited < len(nodes) {
		var cycleNodes []string
		for _, n := range nodes {
			if inDegree[n.Code] > 0 {
				cycleNodes = append(cycleNodes, n.Code)
			}
		}
		errs = append(errs, fmt.Sprintf("cycle detected involving nodes: %s", strings.Join(cycleNodes, ", ")))
	}

	// Cascade checks: every referenced node exists; entry node, when
	// set, is part of the sequence.
	for _, c := range cascades {
		if len(c.Nodes) == 0 {
			errs = append(errs, fmt.Sprintf("cascade %q has no nodes", c.Name))
		}
		for _, code := range c.Nodes {
			if !codeSet[code] {
				errs = append(errs, fmt.Sprintf("cascade %q references nonexistent node %q", c.Name, code))
			}
		}
		if c.EntryNode != "" && !c.Contains(c.EntryNode) {
			errs = append(errs, fmt.Sprintf("cascade %q entry node %q is not in its sequence", c.Name, c.EntryNode))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("curriculum graph validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
