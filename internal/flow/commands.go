package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sankofa-learn/sankofa/internal/domain"
)

// handleCommand runs the reserved-command table. RESTART and CANCEL
// clear state; HELP and STATUS answer without touching the flow; START
// is the explicit re-opt-in and flow entry point; STOP mirrors opt-out
// for button payloads that bypass the keyword set.
func (e *Executor) handleCommand(ctx context.Context, a *actor, st *State, cmd Command) Result {
	res := Result{Intercepted: true}
	if a.optedOut() && cmd != CmdStart {
		// Silence until the explicit re-opt-in.
		return res
	}
	switch cmd {
	case CmdRestart:
		res.Err = e.clearAndConfirm(ctx, a, "restart_confirm")
	case CmdCancel:
		res.Err = e.clearAndConfirm(ctx, a, "cancel_confirm")
	case CmdHelp:
		res.Err = e.send(ctx, a, helpText)
	case CmdStatus:
		res.Err = e.sendStatus(ctx, a, st)
	case CmdStart:
		res.Err = e.handleStart(ctx, a, st)
	case CmdStop:
		return e.handleOptOut(ctx, a)
	default:
		res.Err = fmt.Errorf("unhandled command %q", cmd)
	}
	if res.Err != nil {
		e.log.Error("command failed", "chat", a.chatID, "command", cmd, "error", res.Err)
	}
	return res
}

func (e *Executor) clearAndConfirm(ctx context.Context, a *actor, key string) error {
	if err := e.store.ClearConversation(ctx, a.kind, a.chatID); err != nil {
		return err
	}
	return e.send(ctx, a, msg(a.language(), key))
}

// handleStart re-opts the actor in when needed, then enters the
// appropriate flow. With a flow already active it resumes by
// re-prompting the current step.
func (e *Executor) handleStart(ctx context.Context, a *actor, st *State) error {
	if a.optedOut() {
		a.setOptOut(false)
		if err := e.saveActor(ctx, a); err != nil {
			return err
		}
		e.log.Info("actor re-opted in", "chat", a.chatID, "kind", a.kind)
	}
	if st != nil {
		return e.resume(ctx, a, st)
	}
	return e.beginFlow(ctx, a).Err
}

// resume re-prompts the pending step so an interrupted conversation
// picks up where it stood.
func (e *Executor) resume(ctx context.Context, a *actor, st *State) error {
	if st.Flow == FlowDiagnostic {
		return e.send(ctx, a, st.Diagnostic.QuestionText)
	}
	return e.send(ctx, a, e.describeStep(a, st))
}

func (e *Executor) sendStatus(ctx context.Context, a *actor, st *State) error {
	if st != nil {
		return e.send(ctx, a, "You are mid-conversation. "+e.describeStep(a, st))
	}
	if a.kind == domain.ActorEducator {
		ed := a.educator
		if ed.SchoolName == "" {
			return e.send(ctx, a, "You are not enrolled yet. Send START to begin.")
		}
		return e.send(ctx, a, fmt.Sprintf("Enrolled: %s, class %s. Send START to run a check-up.", ed.SchoolName, ed.ClassName))
	}

	students, err := e.store.StudentsByGuardian(ctx, a.guardian.ID)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		return e.send(ctx, a, "No check-up yet. Send START to begin.")
	}
	var b strings.Builder
	for _, s := range students {
		p, err := e.store.CurrentProfile(ctx, s.ID)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				fmt.Fprintf(&b, "%s: no completed check-up yet.\n", s.Name)
				continue
			}
			return err
		}
		fmt.Fprintf(&b, "%s: working at about %s level (%s expected). %s\n",
			s.Name, p.EstimatedGradeLevel, s.EntryGrade, p.Recommendation)
	}
	return e.send(ctx, a, strings.TrimSpace(b.String()))
}

// describeStep names the pending step in user terms for STATUS and
// resume messages.
func (e *Executor) describeStep(a *actor, st *State) string {
	switch st.Step {
	case StepConsent:
		return msg(a.language(), "welcome")
	case StepGuardianName:
		return msg(a.language(), "ask_guardian_name")
	case StepLanguage:
		return "Which language do you prefer? Reply en, tw or ee."
	case StepChildName:
		return msg(a.language(), "ask_child_name")
	case StepChildGrade:
		return msg(a.language(), "ask_child_grade", st.Onboarding.ChildName)
	case StepDiagnosticConsent:
		return msg(a.language(), "ask_diag_consent", st.Onboarding.ChildName)
	case StepSchool:
		return "Which school are you at? Reply with your invitation code or the school name."
	case StepClass:
		return "Which class do you teach?"
	case StepRoster:
		return "Send your class list, one child per line as: Name, Grade (e.g. Ama Mensah, B3)."
	case StepRosterConfirm:
		return "Reply YES to save the class list, or NO to send it again."
	case StepAwaitAnswer:
		return "A question is waiting: " + st.Diagnostic.QuestionText
	}
	return "Send START to continue."
}
