package flow

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/sankofa-learn/sankofa/internal/channel"
	"github.com/sankofa-learn/sankofa/internal/domain"
)

// affirmatives covers the yes-shapes guardians actually type,
// including Twi and Ga.
var affirmatives = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true,
	"ok": true, "okay": true, "sure": true,
	"aane": true, // Twi
	"ee":   true, // Ga
}

func isAffirmative(text string) bool {
	return affirmatives[strings.ToLower(strings.TrimSpace(text))]
}

func isNegative(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "no", "n", "nope", "later", "not now", "daabi": // daabi: Twi
		return true
	}
	return false
}

// startOnboarding opens the guardian flow at the consent step.
func (e *Executor) startOnboarding(ctx context.Context, a *actor) error {
	st := &State{Flow: FlowOnboarding, Step: StepConsent, Onboarding: &OnboardingData{}}
	if err := e.saveState(ctx, a, st); err != nil {
		return err
	}
	return e.send(ctx, a, msg(a.language(), "welcome"))
}

// resumeChildRegistration re-enters onboarding at the child-name step
// for a guardian whose earlier run ended before a child was registered.
func (e *Executor) resumeChildRegistration(ctx context.Context, a *actor) error {
	st := &State{Flow: FlowOnboarding, Step: StepChildName, Onboarding: &OnboardingData{
		GuardianName: a.guardian.Name,
		Language:     a.guardian.Language,
	}}
	if err := e.saveState(ctx, a, st); err != nil {
		return err
	}
	return e.send(ctx, a, msg(a.language(), "ask_child_name"))
}

// onboardingStep advances the guardian flow by one answer. Invalid
// input re-prompts the same step; the flow never advances on it.
func (e *Executor) onboardingStep(ctx context.Context, a *actor, st *State, text string) error {
	data := st.Onboarding
	lang := a.language()

	switch st.Step {
	case StepConsent:
		if !isAffirmative(text) {
			return e.send(ctx, a, msg(lang, "consent_reprompt"))
		}
		a.guardian.OptedIn = true
		a.guardian.OptedOut = false
		if err := e.saveActor(ctx, a); err != nil {
			return err
		}
		st.Step = StepGuardianName
		if err := e.saveState(ctx, a, st); err != nil {
			return err
		}
		return e.send(ctx, a, msg(lang, "ask_guardian_name"))

	case StepGuardianName:
		name := strings.TrimSpace(text)
		if name == "" {
			return e.send(ctx, a, msg(lang, "ask_guardian_name"))
		}
		data.GuardianName = name
		a.guardian.Name = name
		if err := e.saveActor(ctx, a); err != nil {
			return err
		}
		st.Step = StepLanguage
		if err := e.saveState(ctx, a, st); err != nil {
			return err
		}
		buttons := make([]channel.Button, 0, len(languageChoices))
		for _, c := range languageChoices {
			buttons = append(buttons, channel.Button{ID: c.ID, Label: c.Label})
		}
		_, err := e.msgr.SendButtons(ctx, a.chatID, msg(lang, "ask_language", name), buttons)
		return err

	case StepLanguage:
		code := parseLanguage(text)
		if code == "" {
			return e.send(ctx, a, "Please pick a language: English, Twi or Ewe.")
		}
		data.Language = code
		a.guardian.Language = code
		if err := e.saveActor(ctx, a); err != nil {
			return err
		}
		st.Step = StepChildName
		if err := e.saveState(ctx, a, st); err != nil {
			return err
		}
		return e.send(ctx, a, msg(code, "ask_child_name"))

	case StepChildName:
		name := strings.TrimSpace(text)
		if name == "" {
			return e.send(ctx, a, msg(lang, "ask_child_name"))
		}
		data.ChildName = name
		st.Step = StepChildGrade
		if err := e.saveState(ctx, a, st); err != nil {
			return err
		}
		return e.send(ctx, a, msg(lang, "ask_child_grade", name))

	case StepChildGrade:
		grade, ok := parseGrade(text)
		if !ok {
			return e.send(ctx, a, msg(lang, "grade_reprompt"))
		}
		data.ChildGrade = grade
		student := &domain.Student{
			ID:         uuid.NewString(),
			GuardianID: a.guardian.ID,
			Name:       data.ChildName,
			EntryGrade: grade,
		}
		if err := e.store.CreateStudent(ctx, student); err != nil {
			return err
		}
		st.Step = StepDiagnosticConsent
		if err := e.saveState(ctx, a, st); err != nil {
			return err
		}
		return e.send(ctx, a, msg(lang, "ask_diag_consent", data.ChildName))

	case StepDiagnosticConsent:
		if isAffirmative(text) {
			if err := e.store.ClearConversation(ctx, a.kind, a.chatID); err != nil {
				return err
			}
			return e.startDiagnostic(ctx, a)
		}
		if isNegative(text) {
			if err := e.store.ClearConversation(ctx, a.kind, a.chatID); err != nil {
				return err
			}
			return e.send(ctx, a, msg(lang, "onboarding_done"))
		}
		return e.send(ctx, a, msg(lang, "ask_diag_consent", data.ChildName))
	}

	return stateError(st.Flow, st.Step, "no handler")
}

func parseLanguage(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, c := range languageChoices {
		if t == c.ID || t == strings.ToLower(c.Label) {
			return c.ID
		}
	}
	return ""
}

// parseGrade accepts "B3", "b3", "3" or "basic 3".
func parseGrade(text string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(text))
	t = strings.TrimPrefix(t, "BASIC ")
	t = strings.TrimPrefix(t, "B")
	t = strings.TrimSpace(t)
	if len(t) == 1 && t >= "1" && t <= "6" {
		return "B" + t, true
	}
	return "", false
}

// latestStudent is the guardian's most recently added child, the one a
// fresh diagnostic belongs to.
func (e *Executor) latestStudent(ctx context.Context, a *actor) (*domain.Student, error) {
	students, err := e.store.StudentsByGuardian(ctx, a.guardian.ID)
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, &domain.NotFoundError{Kind: "student", ID: a.guardian.ID}
	}
	return students[len(students)-1], nil
}
