package flow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sankofa-learn/sankofa/internal/analysis"
	"github.com/sankofa-learn/sankofa/internal/channel"
	"github.com/sankofa-learn/sankofa/internal/curriculum"
	"github.com/sankofa-learn/sankofa/internal/domain"
	"github.com/sankofa-learn/sankofa/internal/engine"
	"github.com/sankofa-learn/sankofa/internal/question"
	"github.com/sankofa-learn/sankofa/internal/store"
)

// harness wires an executor over an in-memory store and a recording
// messenger. Every turn gets a fresh message ID so dedup stays out of
// the way unless a test wants it.
type harness struct {
	t    *testing.T
	exec *Executor
	rec  *channel.Recorder
	st   *store.Store
	seq  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	rec := channel.NewRecorder()
	eng := engine.New(curriculum.Default(), curriculum.ScreeningNodes())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := New(s, rec, eng, question.NewTemplateGenerator(), analysis.New(nil), nil, log)
	return &harness{t: t, exec: exec, rec: rec, st: s}
}

func (h *harness) send(chatID int64, text string) Result {
	h.seq++
	return h.exec.Handle(context.Background(), channel.Inbound{
		MessageID: fmt.Sprintf("m-%d", h.seq),
		ChatID:    chatID,
		Kind:      channel.InboundText,
		Text:      text,
	})
}

func (h *harness) lastText() string {
	sent, ok := h.rec.Last()
	require.True(h.t, ok, "expected at least one outbound message")
	return sent.Text
}

func (h *harness) guardian(chatID int64) *domain.Guardian {
	g, err := h.st.GuardianByChat(context.Background(), chatID)
	require.NoError(h.t, err)
	return g
}

func (h *harness) conversationGone(kind domain.ActorKind, chatID int64) bool {
	_, err := h.st.Conversation(context.Background(), kind, chatID)
	var nf *domain.NotFoundError
	return err != nil && assert.ErrorAs(h.t, err, &nf)
}

// advance runs a guardian through onboarding up to the diagnostic
// consent prompt.
func (h *harness) advanceToDiagConsent(chatID int64) {
	h.send(chatID, "hi")
	h.send(chatID, "yes")
	h.send(chatID, "Abena")
	h.send(chatID, "English")
	h.send(chatID, "Kojo")
	res := h.send(chatID, "B3")
	require.NoError(h.t, res.Err)
}

func TestOnboardingAsksEachStepOnce(t *testing.T) {
	h := newHarness(t)

	h.send(1, "hello")
	assert.Contains(t, h.lastText(), "Reply YES to continue")

	// A non-answer re-prompts consent without advancing.
	h.send(1, "maybe")
	assert.Contains(t, h.lastText(), "reply YES")

	h.send(1, "yes")
	assert.Contains(t, h.lastText(), "What is your name?")

	h.send(1, "Abena")
	last, ok := h.rec.Last()
	require.True(t, ok)
	assert.Equal(t, channel.SentButtons, last.Kind, "language step offers buttons")
	assert.Len(t, last.Buttons, 3)

	h.send(1, "Twi")
	h.send(1, "Kojo")
	assert.Contains(t, h.lastText(), "Kojo")

	g := h.guardian(1)
	assert.True(t, g.OptedIn)
	assert.Equal(t, "Abena", g.Name)
	assert.Equal(t, "tw", g.Language)
}

func TestOnboardingDeclineDiagnosticEndsQuietly(t *testing.T) {
	h := newHarness(t)
	h.advanceToDiagConsent(1)

	res := h.send(1, "later")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "Send START")
	assert.True(t, h.conversationGone(domain.ActorGuardian, 1))

	// The child was already registered during onboarding.
	g := h.guardian(1)
	students, err := h.st.StudentsByGuardian(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Kojo", students[0].Name)
	assert.Equal(t, "B3", students[0].EntryGrade)
}

func TestDiagnosticRunsToCompletion(t *testing.T) {
	h := newHarness(t)
	h.advanceToDiagConsent(1)

	res := h.send(1, "yes")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "Here we go")

	// Answer everything wrong; the question cap guarantees termination.
	var completed bool
	for i := 0; i < engine.MaxQuestions+2; i++ {
		res = h.send(1, "I don't know")
		require.NoError(t, res.Err)
		if h.conversationGone(domain.ActorGuardian, 1) {
			completed = true
			break
		}
	}
	require.True(t, completed, "diagnostic must terminate within the question cap")

	final := h.lastText()
	assert.Contains(t, final, "Here is what I found about Kojo")
	assert.Contains(t, final, "What to do next:")

	g := h.guardian(1)
	students, err := h.st.StudentsByGuardian(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)

	n, err := h.st.CurrentProfileCount(context.Background(), students[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := h.st.CurrentProfile(context.Background(), students[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Recommendation)
	assert.NotEmpty(t, p.NodesGap, "all-wrong answers must surface gaps")

	sess, err := h.st.Session(context.Background(), p.SessionID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCompleted, sess.Status)
	assert.LessOrEqual(t, sess.TotalQuestions, engine.MaxQuestions)
}

func TestRestartMidFlowClearsState(t *testing.T) {
	h := newHarness(t)
	h.send(1, "hi")
	h.send(1, "yes")
	h.send(1, "Abena")

	res := h.send(1, "RESTART")
	require.NoError(t, res.Err)
	assert.True(t, res.Intercepted)
	assert.Contains(t, h.lastText(), "started over")
	assert.True(t, h.conversationGone(domain.ActorGuardian, 1))

	// The slash form works too, at any step.
	h.send(1, "hello")
	res = h.send(1, "/restart")
	require.NoError(t, res.Err)
	assert.True(t, res.Intercepted)
	assert.True(t, h.conversationGone(domain.ActorGuardian, 1))
}

func TestOptOutMidFlowIsAtomic(t *testing.T) {
	h := newHarness(t)
	h.send(1, "hi")
	h.send(1, "yes")
	h.send(1, "Abena")

	before := len(h.rec.Messages())
	res := h.send(1, "STOP")
	require.NoError(t, res.Err)
	assert.True(t, res.Intercepted)

	g := h.guardian(1)
	assert.True(t, g.OptedOut)
	assert.False(t, g.OptedIn, "opt-out revokes consent")
	assert.True(t, h.conversationGone(domain.ActorGuardian, 1))

	after := h.rec.Messages()
	require.Len(t, after, before+1, "exactly one confirmation, no step-handler message")
	assert.Contains(t, after[len(after)-1].Text, "no more messages")
}

func TestOptedOutSilenceUntilStart(t *testing.T) {
	h := newHarness(t)
	h.send(1, "hi")
	h.send(1, "gyae")
	require.True(t, h.guardian(1).OptedOut)

	before := len(h.rec.Messages())
	h.send(1, "hello?")
	h.send(1, "HELP")
	h.send(1, "STATUS")
	assert.Len(t, h.rec.Messages(), before, "opted-out chats get nothing")

	res := h.send(1, "START")
	require.NoError(t, res.Err)
	g := h.guardian(1)
	assert.False(t, g.OptedOut)
	assert.Contains(t, h.lastText(), "Reply YES to continue", "re-opt-in restarts onboarding")
}

func TestOptOutKeywordBeatsStopCommand(t *testing.T) {
	cases := []struct {
		text    string
		verdict Interception
		cmd     Command
	}{
		{"stop", InterceptOptOut, ""},
		{"STOP", InterceptOptOut, ""},
		{" unsubscribe ", InterceptOptOut, ""},
		{"Gyae", InterceptOptOut, ""},
		{"opt out", InterceptOptOut, ""},
		{"/start", InterceptCommand, CmdStart},
		{"restart", InterceptCommand, CmdRestart},
		{"Status", InterceptCommand, CmdStatus},
		{"yes", InterceptNone, ""},
		{"stop it now", InterceptNone, ""},
	}
	for _, c := range cases {
		verdict, cmd := Intercept(c.text)
		assert.Equal(t, c.verdict, verdict, "text %q", c.text)
		assert.Equal(t, c.cmd, cmd, "text %q", c.text)
	}
}

func TestDuplicateDeliveryIgnored(t *testing.T) {
	h := newHarness(t)

	in := channel.Inbound{MessageID: "dup-1", ChatID: 1, Kind: channel.InboundText, Text: "hi"}
	res := h.exec.Handle(context.Background(), in)
	require.NoError(t, res.Err)
	assert.False(t, res.Duplicate)
	before := len(h.rec.Messages())

	res = h.exec.Handle(context.Background(), in)
	require.NoError(t, res.Err)
	assert.True(t, res.Duplicate)
	assert.Len(t, h.rec.Messages(), before, "redelivery produces no sends")
}

func TestExpiredStateClearsSilently(t *testing.T) {
	h := newHarness(t)

	now := time.Now().UTC()
	h.exec.now = func() time.Time { return now }

	h.send(1, "hi")
	h.send(1, "yes")
	assert.Contains(t, h.lastText(), "What is your name?")

	now = now.Add(ExpiryWindow + time.Minute)

	// The name answer lands on a dead flow: no error message, the
	// conversation simply starts over.
	res := h.send(1, "Abena")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "Reply YES to continue")

	rec, err := h.st.Conversation(context.Background(), domain.ActorGuardian, 1)
	require.NoError(t, err)
	assert.Equal(t, string(StepConsent), rec.Step)
}

func TestReturningGuardianWithoutChildResumes(t *testing.T) {
	h := newHarness(t)
	now := time.Now().UTC()
	h.exec.now = func() time.Time { return now }

	// Consent only, abandoned before picking a language: onboarding
	// restarts from the top.
	h.send(1, "hi")
	h.send(1, "yes")
	now = now.Add(ExpiryWindow + time.Hour)

	res := h.send(1, "hello again")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "Reply YES to continue")

	// Onboarding abandoned after the language, before a child was
	// registered: the return resumes at child registration, never a
	// diagnostic with no student.
	h.send(2, "hi")
	h.send(2, "yes")
	h.send(2, "Abena")
	h.send(2, "English")
	now = now.Add(ExpiryWindow + time.Hour)

	before := len(h.rec.Messages())
	res = h.send(2, "hello again")
	require.NoError(t, res.Err)
	require.Greater(t, len(h.rec.Messages()), before, "returning guardian must receive a message")
	assert.Contains(t, h.lastText(), "What is your child's name?")

	rec, err := h.st.Conversation(context.Background(), domain.ActorGuardian, 2)
	require.NoError(t, err)
	assert.Equal(t, string(StepChildName), rec.Step)

	// The resumed flow carries through to the diagnostic offer.
	h.send(2, "Kojo")
	assert.Contains(t, h.lastText(), "Which class is Kojo")
	res = h.send(2, "B3")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "Shall we begin?")
}

func TestNonTextRepromptsActiveStep(t *testing.T) {
	h := newHarness(t)
	h.send(1, "hi")

	h.seq++
	res := h.exec.Handle(context.Background(), channel.Inbound{
		MessageID: fmt.Sprintf("m-%d", h.seq),
		ChatID:    1,
		Kind:      channel.InboundOther,
	})
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "text answer")

	rec, err := h.st.Conversation(context.Background(), domain.ActorGuardian, 1)
	require.NoError(t, err)
	assert.Equal(t, string(StepConsent), rec.Step, "non-text never advances the flow")
}

func TestNonTextIdleChatStaysSilent(t *testing.T) {
	h := newHarness(t)

	before := len(h.rec.Messages())
	res := h.exec.Handle(context.Background(), channel.Inbound{
		MessageID: "sticker-1", ChatID: 1, Kind: channel.InboundOther,
	})
	require.NoError(t, res.Err)
	assert.Len(t, h.rec.Messages(), before)
}

func TestEducatorEnrollmentAndStudentPick(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.st.CreateSchool(ctx, &domain.School{
		ID: "sch-1", Name: "Osu Presby Primary", InvitationCode: "OSU123",
	}))

	res := h.send(9, "teacher")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "Which school")

	// Unknown code re-prompts without advancing.
	h.send(9, "ZZZ999")
	assert.Contains(t, h.lastText(), "couldn't find that school")

	h.send(9, "osu123")
	assert.Contains(t, h.lastText(), "Osu Presby Primary")

	h.send(9, "B3 Blue")
	assert.Contains(t, h.lastText(), "class list")

	h.send(9, "Ama Mensah, B3\nKojo Asante, B2")
	last, ok := h.rec.Last()
	require.True(t, ok)
	assert.Equal(t, channel.SentButtons, last.Kind)
	assert.Contains(t, last.Text, "2 children")

	res = h.send(9, "yes")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "Saved 2 children")
	assert.True(t, h.conversationGone(domain.ActorEducator, 9))

	ed, err := h.st.EducatorByChat(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "Osu Presby Primary", ed.SchoolName)
	assert.Equal(t, "B3 Blue", ed.ClassName)
	assert.True(t, ed.OptedIn)

	roster, err := h.st.StudentsByEducator(ctx, ed.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	// The next contact offers the roster as a pick list.
	res = h.send(9, "hi")
	require.NoError(t, res.Err)
	last, ok = h.rec.Last()
	require.True(t, ok)
	assert.Equal(t, channel.SentList, last.Kind)
	require.Len(t, last.Sections, 1)
	assert.Len(t, last.Sections[0].Rows, 2)

	// Picking by name starts the check-up for that child.
	res = h.send(9, "Ama Mensah")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "Here we go")

	rec, err := h.st.Conversation(ctx, domain.ActorEducator, 9)
	require.NoError(t, err)
	assert.Equal(t, string(StepAwaitAnswer), rec.Step)
}

func TestEducatorRosterRejectsBadLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.st.CreateSchool(ctx, &domain.School{
		ID: "sch-1", Name: "Osu Presby Primary", InvitationCode: "OSU123",
	}))

	h.send(9, "teacher")
	h.send(9, "OSU123")
	h.send(9, "B3 Blue")

	res := h.send(9, "Ama Mensah B3\nKojo Asante, B9")
	require.NoError(t, res.Err)
	text := h.lastText()
	assert.Contains(t, text, "line 1: missing comma")
	assert.Contains(t, text, "line 2: grade must be B1-B6")

	rec, err := h.st.Conversation(ctx, domain.ActorEducator, 9)
	require.NoError(t, err)
	assert.Equal(t, string(StepRoster), rec.Step, "bad roster never advances")
}

func TestStatusAnswersWithoutTouchingFlow(t *testing.T) {
	h := newHarness(t)

	res := h.send(1, "STATUS")
	require.NoError(t, res.Err)
	assert.True(t, res.Intercepted)
	assert.Contains(t, h.lastText(), "Send START to begin")

	h.send(1, "hi")
	res = h.send(1, "STATUS")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "mid-conversation")

	rec, err := h.st.Conversation(context.Background(), domain.ActorGuardian, 1)
	require.NoError(t, err)
	assert.Equal(t, string(StepConsent), rec.Step)
}

func TestStartResumesActiveFlow(t *testing.T) {
	h := newHarness(t)
	h.send(1, "hi")
	h.send(1, "yes")
	assert.Contains(t, h.lastText(), "What is your name?")

	res := h.send(1, "START")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "What is your name?", "START re-prompts the pending step")

	rec, err := h.st.Conversation(context.Background(), domain.ActorGuardian, 1)
	require.NoError(t, err)
	assert.Equal(t, string(StepGuardianName), rec.Step)
}

func TestCorruptStateClearedAndTurnSurvives(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.send(1, "hi")

	// Sabotage the stored record with a step the flow doesn't own.
	require.NoError(t, h.st.PutConversation(ctx, &store.ConversationRecord{
		ActorKind: domain.ActorGuardian, ChatID: 1,
		Flow: "onboarding", Step: "await_answer", Data: "{}",
		UpdatedAt: time.Now().UTC(),
	}))

	res := h.send(1, "yes")
	require.NoError(t, res.Err)
	assert.Contains(t, h.lastText(), "Reply YES to continue", "corrupt state restarts the flow")
}

func TestSendFailureReportedNotFatal(t *testing.T) {
	h := newHarness(t)
	h.rec.FailWith = fmt.Errorf("gateway down")

	res := h.send(1, "hi")
	assert.Error(t, res.Err)
	assert.False(t, res.Duplicate)

	// Opt-out still sticks when the confirmation cannot be delivered.
	res = h.send(1, "stop")
	assert.True(t, res.Intercepted)
	assert.Error(t, res.Err)
	assert.True(t, h.guardian(1).OptedOut)
}
