package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sankofa-learn/sankofa/internal/analysis"
	"github.com/sankofa-learn/sankofa/internal/domain"
	"github.com/sankofa-learn/sankofa/internal/engine"
	"github.com/sankofa-learn/sankofa/internal/llm"
	"github.com/sankofa-learn/sankofa/internal/profile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGuardianSelectOrCreate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g1, err := s.GuardianByChat(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, g1.ID)
	assert.Empty(t, g1.Language, "language is unset until the guardian picks one")

	g2, err := s.GuardianByChat(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, g1.ID, g2.ID, "second contact must reuse the record")

	g1.Name = "Abena"
	g1.OptedIn = true
	require.NoError(t, s.SaveGuardian(ctx, g1))

	g3, err := s.GuardianByChat(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Abena", g3.Name)
	assert.True(t, g3.OptedIn)
}

func TestSaveGuardianUnknownID(t *testing.T) {
	s := openTestStore(t)

	err := s.SaveGuardian(context.Background(), &domain.Guardian{ID: "missing"})
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestHasEducatorDoesNotCreate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	known, err := s.HasEducator(ctx, 7)
	require.NoError(t, err)
	assert.False(t, known)

	_, err = s.EducatorByChat(ctx, 7)
	require.NoError(t, err)

	known, err = s.HasEducator(ctx, 7)
	require.NoError(t, err)
	assert.True(t, known)
}

func TestSessionRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := engine.NewSession("student-1", "B3", time.Now().UTC().Truncate(time.Second))
	sess.Status = engine.StatusInProgress
	sess.NodesTested = []string{"B3.1.3.1", "B3.1.3.1", "B3.1.4.1"}
	sess.NodesMastered = []string{"B3.1.4.1"}
	sess.NodesGap = []string{"B3.1.3.1"}
	sess.RootGapNode = "B3.1.3.1"
	sess.RootGapConfidence = 0.85
	sess.TotalQuestions = 3
	sess.CorrectAnswers = 1
	require.NoError(t, s.SaveSession(ctx, sess))

	got, err := s.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.NodesTested, got.NodesTested)
	assert.Equal(t, sess.NodesGap, got.NodesGap)
	assert.Equal(t, sess.RootGapNode, got.RootGapNode)
	assert.Equal(t, engine.StatusInProgress, got.Status)
	assert.Equal(t, sess.LastActivityAt, got.LastActivityAt)
	assert.True(t, got.CompletedAt.IsZero())

	// Upsert on the same ID, now terminal.
	sess.Complete(engine.StatusCompleted)
	sess.CompletedAt = time.Now().UTC()
	require.NoError(t, s.SaveSession(ctx, sess))

	got, err = s.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusCompleted, got.Status)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestSessionNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Session(context.Background(), "nope")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestAbandonStale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g, err := s.GuardianByChat(ctx, 42)
	require.NoError(t, err)
	g.Name = "Abena"
	require.NoError(t, s.SaveGuardian(ctx, g))
	require.NoError(t, s.CreateStudent(ctx, &domain.Student{
		ID: "st-1", GuardianID: g.ID, Name: "Kojo", EntryGrade: "B2",
	}))

	silent := engine.NewSession("st-1", "B2", time.Now().Add(-48*time.Hour))
	silent.Status = engine.StatusInProgress
	require.NoError(t, s.SaveSession(ctx, silent))

	// Started long ago but still answering.
	slow := engine.NewSession("st-1", "B2", time.Now().Add(-48*time.Hour))
	slow.Status = engine.StatusInProgress
	slow.LastActivityAt = time.Now().UTC()
	require.NoError(t, s.SaveSession(ctx, slow))

	fresh := engine.NewSession("st-1", "B2", time.Now())
	fresh.Status = engine.StatusInProgress
	require.NoError(t, s.SaveSession(ctx, fresh))

	stale, err := s.AbandonStale(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, silent.ID, stale[0].SessionID)
	assert.Equal(t, "Kojo", stale[0].StudentName)
	assert.Equal(t, "Abena", stale[0].ActorName)
	assert.EqualValues(t, 42, stale[0].ChatID)
	assert.Equal(t, domain.ActorGuardian, stale[0].Kind)
	assert.False(t, stale[0].OptedOut)

	got, err := s.Session(ctx, silent.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusTimedOut, got.Status)

	got, err = s.Session(ctx, slow.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusInProgress, got.Status, "activity, not age, decides staleness")
}

func TestAbandonStaleFlagsOptedOut(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g, err := s.GuardianByChat(ctx, 42)
	require.NoError(t, err)
	g.OptedOut = true
	require.NoError(t, s.SaveGuardian(ctx, g))
	require.NoError(t, s.CreateStudent(ctx, &domain.Student{
		ID: "st-1", GuardianID: g.ID, Name: "Kojo", EntryGrade: "B2",
	}))

	sess := engine.NewSession("st-1", "B2", time.Now().Add(-48*time.Hour))
	sess.Status = engine.StatusInProgress
	require.NoError(t, s.SaveSession(ctx, sess))

	stale, err := s.AbandonStale(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.True(t, stale[0].OptedOut, "opted-out chats still time out but must not be nudged")

	got, err := s.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusTimedOut, got.Status)
}

func testProfile(studentID string) *profile.GapProfile {
	return &profile.GapProfile{
		ID:                  studentID + "-" + time.Now().Format("150405.000000000"),
		StudentID:           studentID,
		SessionID:           "sess-1",
		NodesMastered:       []string{"B3.1.4.1"},
		NodesGap:            []string{"B3.1.3.1"},
		PrimaryGapNode:      "B3.1.3.1",
		EstimatedGradeLevel: "B2",
		GradeGap:            1,
		OverallConfidence:   0.7,
		Recommendation:      "practise addition",
		CreatedAt:           time.Now().UTC(),
	}
}

func TestExactlyOneCurrentProfile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := testProfile("student-1")
	require.NoError(t, s.SaveCurrentProfile(ctx, first))

	second := testProfile("student-1")
	second.ID = "profile-2"
	require.NoError(t, s.SaveCurrentProfile(ctx, second))

	n, err := s.CurrentProfileCount(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "exactly one current profile per student")

	got, err := s.CurrentProfile(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID, "latest profile supersedes")
	assert.Equal(t, first.NodesGap, got.NodesGap)
}

func TestCurrentProfileNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CurrentProfile(context.Background(), "student-x")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestConversationRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &ConversationRecord{
		ActorKind: domain.ActorGuardian,
		ChatID:    42,
		Flow:      "onboarding",
		Step:      "consent",
		Data:      `{"guardian_name":"Abena"}`,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.PutConversation(ctx, rec))

	got, err := s.Conversation(ctx, domain.ActorGuardian, 42)
	require.NoError(t, err)
	assert.Equal(t, rec.Flow, got.Flow)
	assert.Equal(t, rec.Step, got.Step)
	assert.Equal(t, rec.Data, got.Data)

	// Same chat, other actor kind, is a separate conversation.
	_, err = s.Conversation(ctx, domain.ActorEducator, 42)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	rec.Step = "guardian_name"
	require.NoError(t, s.PutConversation(ctx, rec))
	got, err = s.Conversation(ctx, domain.ActorGuardian, 42)
	require.NoError(t, err)
	assert.Equal(t, "guardian_name", got.Step)

	require.NoError(t, s.ClearConversation(ctx, domain.ActorGuardian, 42))
	_, err = s.Conversation(ctx, domain.ActorGuardian, 42)
	assert.ErrorAs(t, err, &nf)

	// Clearing an absent conversation is fine.
	require.NoError(t, s.ClearConversation(ctx, domain.ActorGuardian, 42))
}

func TestMarkSeenDedup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	fresh, err := s.MarkSeen(ctx, domain.ActorGuardian, 42, "m-1", now)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.MarkSeen(ctx, domain.ActorGuardian, 42, "m-1", now)
	require.NoError(t, err)
	assert.False(t, fresh, "redelivery must be detected")

	// Other chat, same message ID: independent.
	fresh, err = s.MarkSeen(ctx, domain.ActorGuardian, 43, "m-1", now)
	require.NoError(t, err)
	assert.True(t, fresh)

	n, err := s.PruneSeen(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestAnswerEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res := &analysis.Result{IsCorrect: true, Source: analysis.SourceExact}
	require.NoError(t, s.AppendAnswer(ctx, "sess-1", "B3.1.3.1", "What is 38+25?", "63", res, time.Now().UTC()))
	res2 := &analysis.Result{IsCorrect: false, Source: analysis.SourceModel}
	require.NoError(t, s.AppendAnswer(ctx, "sess-1", "B3.1.3.1", "What is 47+25?", "62", res2, time.Now().UTC()))

	answers, err := s.AnswersBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.True(t, answers[0].IsCorrect)
	assert.Equal(t, "62", answers[1].Answer)
}

func TestLLMUsageAggregation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendLLMRequest(ctx, llm.RequestEvent{
		Provider: "mock", Model: "mock", Purpose: "answer-analysis",
		InputTokens: 100, OutputTokens: 20, Success: true,
	}))
	require.NoError(t, s.AppendLLMRequest(ctx, llm.RequestEvent{
		Provider: "mock", Model: "mock", Purpose: "profile-narrative",
		ErrorMessage: "timeout",
	}))

	usage, err := s.LLMUsage(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, usage.Requests)
	assert.Equal(t, 1, usage.Failures)
	assert.Equal(t, 100, usage.InputTokens)
	assert.Equal(t, 20, usage.OutputTokens)
}

func TestStudentsAndSchools(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ed, err := s.EducatorByChat(ctx, 9)
	require.NoError(t, err)

	require.NoError(t, s.CreateStudent(ctx, &domain.Student{ID: "st-1", EducatorID: ed.ID, Name: "Kojo", EntryGrade: "B2"}))
	require.NoError(t, s.CreateStudent(ctx, &domain.Student{ID: "st-2", EducatorID: ed.ID, Name: "Ama", EntryGrade: "B3"}))

	roster, err := s.StudentsByEducator(ctx, ed.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	names := []string{roster[0].Name, roster[1].Name}
	assert.ElementsMatch(t, []string{"Kojo", "Ama"}, names)

	require.NoError(t, s.CreateSchool(ctx, &domain.School{ID: "sch-1", Name: "Osu Presby Primary", InvitationCode: "OSU123"}))

	school, err := s.SchoolByCode(ctx, "OSU123")
	require.NoError(t, err)
	assert.Equal(t, "Osu Presby Primary", school.Name)

	_, err = s.SchoolByCode(ctx, "NOPE")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
