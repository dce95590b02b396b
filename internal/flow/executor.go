package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sankofa-learn/sankofa/internal/analysis"
	"github.com/sankofa-learn/sankofa/internal/channel"
	"github.com/sankofa-learn/sankofa/internal/domain"
	"github.com/sankofa-learn/sankofa/internal/engine"
	"github.com/sankofa-learn/sankofa/internal/profile"
	"github.com/sankofa-learn/sankofa/internal/question"
	"github.com/sankofa-learn/sankofa/internal/store"
)

// completionBudget bounds every model call made during a turn, so the
// deterministic fallback resolves the turn instead of a hanging request.
const completionBudget = 15 * time.Second

// Result is the contained outcome of one inbound turn. Errors are
// reported here, never returned, so one malformed message cannot abort
// a batch of independent actors.
type Result struct {
	// Duplicate is set when the message ID was already processed; the
	// turn was acknowledged without side effects.
	Duplicate bool

	// Intercepted is set when opt-out or a command handled the turn
	// instead of a step handler.
	Intercepted bool

	// Err carries any contained failure, such as a messaging send
	// error. The platform is still acknowledged upstream.
	Err error
}

// Executor runs the conversation state machines over a store, a
// messenger, and the diagnostic engine.
type Executor struct {
	store    *store.Store
	msgr     channel.Messenger
	engine   *engine.Engine
	gen      question.Generator
	analyzer *analysis.Analyzer
	enricher *profile.Enricher
	log      *slog.Logger
	now      func() time.Time
}

// New assembles an executor. enricher may be nil; the profile then
// carries only the rule-based recommendation.
func New(st *store.Store, msgr channel.Messenger, eng *engine.Engine, gen question.Generator, analyzer *analysis.Analyzer, enricher *profile.Enricher, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		store:    st,
		msgr:     msgr,
		engine:   eng,
		gen:      gen,
		analyzer: analyzer,
		enricher: enricher,
		log:      log,
		now:      time.Now,
	}
}

// actor unifies the guardian and educator records so the interception
// policy and commands run identically for both variants.
type actor struct {
	kind     domain.ActorKind
	chatID   int64
	guardian *domain.Guardian
	educator *domain.Educator
}

func (a *actor) optedOut() bool {
	if a.guardian != nil {
		return a.guardian.OptedOut
	}
	return a.educator.OptedOut
}

func (a *actor) setOptOut(out bool) {
	if a.guardian != nil {
		a.guardian.OptedOut = out
		if out {
			a.guardian.OptedIn = false
		}
		return
	}
	a.educator.OptedOut = out
	if out {
		a.educator.OptedIn = false
	}
}

func (a *actor) language() string {
	if a.guardian != nil && a.guardian.Language != "" {
		return a.guardian.Language
	}
	return "en"
}

func (e *Executor) saveActor(ctx context.Context, a *actor) error {
	if a.guardian != nil {
		return e.store.SaveGuardian(ctx, a.guardian)
	}
	return e.store.SaveEducator(ctx, a.educator)
}

// Handle processes one inbound message end to end. It never panics and
// never returns an error; see Result.
func (e *Executor) Handle(ctx context.Context, in channel.Inbound) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("turn panicked", "chat", in.ChatID, "panic", r)
			res.Err = fmt.Errorf("turn panic: %v", r)
		}
	}()

	kind, err := e.routeKind(ctx, in)
	if err != nil {
		e.log.Error("actor routing failed", "chat", in.ChatID, "error", err)
		return Result{Err: err}
	}

	fresh, err := e.store.MarkSeen(ctx, kind, in.ChatID, in.MessageID, e.now().UTC())
	if err != nil {
		e.log.Error("dedup check failed", "chat", in.ChatID, "error", err)
		return Result{Err: err}
	}
	if !fresh {
		e.log.Info("duplicate delivery ignored", "chat", in.ChatID, "message", in.MessageID)
		return Result{Duplicate: true}
	}

	a, err := e.loadActor(ctx, kind, in)
	if err != nil {
		e.log.Error("actor load failed", "chat", in.ChatID, "error", err)
		return Result{Err: err}
	}

	st := e.loadState(ctx, a)

	// Silent expiry: the stale flow is gone before anything else looks
	// at the message.
	if Expired(st, e.now()) {
		if err := e.store.ClearConversation(ctx, a.kind, a.chatID); err != nil {
			e.log.Warn("expiry clear failed", "chat", a.chatID, "error", err)
		}
		st = nil
	}

	if in.Kind == channel.InboundOther {
		return e.handleNonText(ctx, a, st)
	}

	switch verdict, cmd := Intercept(in.Text); verdict {
	case InterceptOptOut:
		return e.handleOptOut(ctx, a)
	case InterceptCommand:
		return e.handleCommand(ctx, a, st, cmd)
	}

	if a.optedOut() {
		// Opted-out actors get nothing until an explicit START.
		return Result{}
	}

	return e.dispatch(ctx, a, st, in.Text)
}

// routeKind decides which state machine a chat belongs to. Known
// educator chats stay educator; the keyword "teacher" enrolls a new
// one; everyone else is a guardian.
func (e *Executor) routeKind(ctx context.Context, in channel.Inbound) (domain.ActorKind, error) {
	known, err := e.store.HasEducator(ctx, in.ChatID)
	if err != nil {
		return "", err
	}
	if known || strings.EqualFold(strings.TrimSpace(in.Text), "teacher") {
		return domain.ActorEducator, nil
	}
	return domain.ActorGuardian, nil
}

func (e *Executor) loadActor(ctx context.Context, kind domain.ActorKind, in channel.Inbound) (*actor, error) {
	a := &actor{kind: kind, chatID: in.ChatID}
	switch kind {
	case domain.ActorEducator:
		ed, err := e.store.EducatorByChat(ctx, in.ChatID)
		if err != nil {
			return nil, err
		}
		if ed.Name == "" && in.SenderName != "" {
			ed.Name = in.SenderName
		}
		a.educator = ed
	default:
		g, err := e.store.GuardianByChat(ctx, in.ChatID)
		if err != nil {
			return nil, err
		}
		if g.Name == "" && in.SenderName != "" {
			g.Name = in.SenderName
		}
		a.guardian = g
	}
	return a, nil
}

// loadState returns the current typed state, or nil when absent. A
// corrupt record is cleared and treated as absent rather than crashing
// the turn.
func (e *Executor) loadState(ctx context.Context, a *actor) *State {
	rec, err := e.store.Conversation(ctx, a.kind, a.chatID)
	if err != nil {
		var nf *domain.NotFoundError
		if !errors.As(err, &nf) {
			e.log.Warn("conversation load failed", "chat", a.chatID, "error", err)
		}
		return nil
	}
	st, err := decodeState(rec)
	if err != nil {
		var se *domain.StateError
		if errors.As(err, &se) {
			e.log.Warn("clearing unreadable conversation state", "chat", a.chatID, "error", err)
			if cerr := e.store.ClearConversation(ctx, a.kind, a.chatID); cerr != nil {
				e.log.Warn("state clear failed", "chat", a.chatID, "error", cerr)
			}
		}
		return nil
	}
	return st
}

// saveState persists a state transition, stamping activity time.
func (e *Executor) saveState(ctx context.Context, a *actor, st *State) error {
	st.UpdatedAt = e.now().UTC()
	rec, err := encodeState(a.kind, a.chatID, st)
	if err != nil {
		return err
	}
	return e.store.PutConversation(ctx, rec)
}

// send wraps Messenger errors into the turn result contract: the error
// is reported but the turn is still acknowledged upstream.
func (e *Executor) send(ctx context.Context, a *actor, text string) error {
	if _, err := e.msgr.SendText(ctx, a.chatID, text); err != nil {
		e.log.Error("outbound send failed", "chat", a.chatID, "error", err)
		return err
	}
	return nil
}

// handleNonText re-prompts the current step when a flow is active; a
// sticker from an idle chat is ignored.
func (e *Executor) handleNonText(ctx context.Context, a *actor, st *State) Result {
	if st == nil || a.optedOut() {
		return Result{}
	}
	return Result{Err: e.send(ctx, a, msg(a.language(), "reprompt_text"))}
}

// handleOptOut terminates any active flow unconditionally. Actor flags
// flip and state clears before the confirmation goes out, so the
// update holds even when the send fails.
func (e *Executor) handleOptOut(ctx context.Context, a *actor) Result {
	a.setOptOut(true)
	if err := e.saveActor(ctx, a); err != nil {
		e.log.Error("opt-out save failed", "chat", a.chatID, "error", err)
		return Result{Intercepted: true, Err: err}
	}
	if err := e.store.ClearConversation(ctx, a.kind, a.chatID); err != nil {
		e.log.Error("opt-out clear failed", "chat", a.chatID, "error", err)
		return Result{Intercepted: true, Err: err}
	}
	e.log.Info("actor opted out", "chat", a.chatID, "kind", a.kind)
	return Result{Intercepted: true, Err: e.send(ctx, a, msg(a.language(), "optout_confirm"))}
}

// dispatch routes a plain text message to the step handler for the
// current {flow, step}. With no active flow the message starts one.
func (e *Executor) dispatch(ctx context.Context, a *actor, st *State, text string) Result {
	if st == nil {
		return e.beginFlow(ctx, a)
	}

	var err error
	switch st.Flow {
	case FlowOnboarding:
		err = e.onboardingStep(ctx, a, st, text)
	case FlowEnrollment:
		err = e.enrollmentStep(ctx, a, st, text)
	case FlowDiagnostic:
		err = e.diagnosticStep(ctx, a, st, text)
	default:
		err = stateError(st.Flow, st.Step, "no dispatch entry")
	}
	if err != nil {
		e.log.Error("step handler failed", "chat", a.chatID, "flow", st.Flow, "step", st.Step, "error", err)
	}
	return Result{Err: err}
}

// beginFlow starts the right flow for an idle chat: onboarding or
// enrollment until complete, then the diagnostic. A guardian who
// consented but never registered a child resumes at that step instead
// of entering a diagnostic with no student.
func (e *Executor) beginFlow(ctx context.Context, a *actor) Result {
	if a.kind == domain.ActorEducator {
		return Result{Err: e.startEnrollment(ctx, a)}
	}
	if !a.guardian.OptedIn || a.guardian.Language == "" {
		return Result{Err: e.startOnboarding(ctx, a)}
	}
	students, err := e.store.StudentsByGuardian(ctx, a.guardian.ID)
	if err != nil {
		return Result{Err: err}
	}
	if len(students) == 0 {
		return Result{Err: e.resumeChildRegistration(ctx, a)}
	}
	return Result{Err: e.startDiagnostic(ctx, a)}
}
