package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/sankofa-learn/sankofa/internal/curriculum"
	"github.com/sankofa-learn/sankofa/internal/domain"
	"github.com/sankofa-learn/sankofa/internal/engine"
	"github.com/sankofa-learn/sankofa/internal/llm"
	"github.com/sankofa-learn/sankofa/internal/profile"
	"github.com/sankofa-learn/sankofa/internal/question"
)

// startDiagnostic opens a session for the guardian's latest child and
// sends the first question.
func (e *Executor) startDiagnostic(ctx context.Context, a *actor) error {
	student, err := e.latestStudent(ctx, a)
	if err != nil {
		return err
	}
	return e.startDiagnosticFor(ctx, a, student)
}

func (e *Executor) startDiagnosticFor(ctx context.Context, a *actor, student *domain.Student) error {
	sess := engine.NewSession(student.ID, student.EntryGrade, e.now().UTC())
	sess.Status = engine.StatusInProgress

	node, ok := e.engine.NextNode(sess)
	if !ok {
		// Empty screening list; nothing to ask.
		return stateError(FlowDiagnostic, StepAwaitAnswer, "no first node")
	}
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	q := e.gen.Generate(node, sess.TestedCount(node.Code))
	st := &State{Flow: FlowDiagnostic, Step: StepAwaitAnswer, Diagnostic: diagData(sess, student, q)}
	if err := e.saveState(ctx, a, st); err != nil {
		return err
	}

	e.log.Info("diagnostic started", "session", sess.ID, "student", student.ID, "grade", student.EntryGrade)
	intro := msg(a.language(), "question_intro", student.Name)
	return e.send(ctx, a, intro+"\n\n"+q.Text)
}

func diagData(sess *engine.Session, student *domain.Student, q question.Question) *DiagnosticData {
	return &DiagnosticData{
		SessionID:      sess.ID,
		StudentID:      student.ID,
		NodeCode:       q.NodeCode,
		QuestionText:   q.Text,
		ExpectedAnswer: q.ExpectedAnswer,
		QuestionKind:   string(q.Kind),
		Sequence:       q.Sequence,
	}
}

// diagnosticStep grades one answer, advances the engine, and either
// asks the next question or completes the session.
func (e *Executor) diagnosticStep(ctx context.Context, a *actor, st *State, text string) error {
	data := st.Diagnostic

	if st.Step == StepPickStudent {
		return e.pickStudentStep(ctx, a, text)
	}

	sess, err := e.store.Session(ctx, data.SessionID)
	if err != nil {
		// Missing session is terminal for the turn; state stays as-is.
		return err
	}
	if sess.Status.Terminal() {
		if cerr := e.store.ClearConversation(ctx, a.kind, a.chatID); cerr != nil {
			return cerr
		}
		return e.send(ctx, a, "That check-up already finished. Send STATUS for the results.")
	}

	node, err := e.engine.Graph().Node(data.NodeCode)
	if err != nil {
		return err
	}
	q := question.Question{
		NodeCode:       data.NodeCode,
		Text:           data.QuestionText,
		Kind:           question.Kind(data.QuestionKind),
		ExpectedAnswer: data.ExpectedAnswer,
		Sequence:       data.Sequence,
	}

	actx, cancel := context.WithTimeout(llm.WithPurpose(ctx, "answer-analysis"), completionBudget)
	res := e.analyzer.Analyze(actx, node, q, text)
	cancel()

	now := e.now().UTC()
	sess.LastActivityAt = now
	if err := e.store.AppendAnswer(ctx, sess.ID, node.Code, q.Text, text, &res, now); err != nil {
		e.log.Warn("answer event append failed", "session", sess.ID, "error", err)
	}

	upd := e.engine.UpdateState(sess, node.Code, res.IsCorrect)
	e.log.Info("answer recorded",
		"session", sess.ID, "node", node.Code, "correct", res.IsCorrect,
		"status", upd.Status, "source", res.Source, "questions", sess.TotalQuestions)

	ack := msg(a.language(), "answer_incorrect")
	if res.IsCorrect {
		ack = msg(a.language(), "answer_correct")
	}

	next, ok := e.engine.NextNode(sess)
	if !ok {
		if err := e.store.SaveSession(ctx, sess); err != nil {
			return err
		}
		return e.completeDiagnostic(ctx, a, sess, ack)
	}

	if err := e.store.SaveSession(ctx, sess); err != nil {
		return err
	}
	nq := e.gen.Generate(next, sess.TestedCount(next.Code))
	st.Diagnostic = diagData(sess, &domain.Student{ID: data.StudentID}, nq)
	if err := e.saveState(ctx, a, st); err != nil {
		return err
	}
	return e.send(ctx, a, ack+"\n\n"+nq.Text)
}

// completeDiagnostic closes the session, synthesizes the profile, and
// delivers the summary. Narrative enrichment is time-bounded; any
// failure falls back to the rule-based recommendation.
func (e *Executor) completeDiagnostic(ctx context.Context, a *actor, sess *engine.Session, ack string) error {
	// Narrative enrichment can take seconds; tell the guardian the
	// questions are over before the quiet stretch.
	if err := e.send(ctx, a, ack+"\n\n"+msg(a.language(), "diag_wrapping_up")); err != nil {
		e.log.Warn("wrap-up notice failed", "session", sess.ID, "error", err)
	}

	if sess.RootGapNode != "" {
		sess.CascadeName = e.engine.IdentifyCascade(sess.RootGapNode)
	}
	sess.Complete(engine.StatusCompleted)
	sess.CompletedAt = e.now().UTC()
	if err := e.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	p := profile.Synthesize(e.engine.Graph(), sess, e.now().UTC())

	history := e.loadHistory(ctx, sess.ID)
	if e.enricher != nil {
		nctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, "profile-narrative"), completionBudget)
		n, err := e.enricher.Enrich(nctx, e.engine.Graph(), sess, p, history)
		cancel()
		if err == nil && n != nil {
			p.Narrative = n.Summary
			p.Recommendation = n.Recommendation
		} else if err != nil {
			e.log.Warn("narrative enrichment failed", "session", sess.ID, "error", err)
		}
	}
	if p.Recommendation == "" {
		p.Recommendation = profile.FallbackRecommendation(e.engine.Graph(), p)
	}

	if err := e.store.SaveCurrentProfile(ctx, p); err != nil {
		return err
	}
	if err := e.store.ClearConversation(ctx, a.kind, a.chatID); err != nil {
		return err
	}

	student, err := e.store.Student(ctx, p.StudentID)
	name := "your child"
	if err == nil {
		name = student.Name
	}
	e.log.Info("diagnostic completed",
		"session", sess.ID, "student", p.StudentID,
		"questions", sess.TotalQuestions, "correct", sess.CorrectAnswers,
		"root_gap", sess.RootGapNode, "cascade", sess.CascadeName)

	return e.send(ctx, a, renderProfile(e.engine.Graph(), p, name))
}

func (e *Executor) loadHistory(ctx context.Context, sessionID string) []profile.QARecord {
	records, err := e.store.AnswersBySession(ctx, sessionID)
	if err != nil {
		e.log.Warn("answer history load failed", "session", sessionID, "error", err)
		return nil
	}
	out := make([]profile.QARecord, 0, len(records))
	for _, r := range records {
		out = append(out, profile.QARecord{
			NodeCode:  r.NodeCode,
			Question:  r.Question,
			Answer:    r.Answer,
			IsCorrect: r.IsCorrect,
		})
	}
	return out
}

// renderProfile is the parent-facing summary message.
func renderProfile(g *curriculum.Graph, p *profile.GapProfile, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is what I found about %s:\n\n", name)
	fmt.Fprintf(&b, "Working comfortably at about %s level.\n", p.EstimatedGradeLevel)
	if p.GradeGap > 0 {
		fmt.Fprintf(&b, "That is about %d class level(s) behind.\n", p.GradeGap)
	}
	if p.PrimaryGapNode != "" {
		label := p.PrimaryGapNode
		if n, err := g.Node(p.PrimaryGapNode); err == nil {
			label = n.Name
		}
		fmt.Fprintf(&b, "The biggest thing to work on: %s.\n", label)
	}
	if p.Narrative != "" {
		fmt.Fprintf(&b, "\n%s\n", p.Narrative)
	}
	fmt.Fprintf(&b, "\nWhat to do next: %s", p.Recommendation)
	return b.String()
}
