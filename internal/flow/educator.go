package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sankofa-learn/sankofa/internal/channel"
	"github.com/sankofa-learn/sankofa/internal/domain"
)

// maxRosterSize keeps one roster inside a single list message when
// picking a child for a check-up.
const maxRosterSize = channel.MaxListRows

// startEnrollment opens the educator flow. Enrolled educators go
// straight to picking a child for a check-up.
func (e *Executor) startEnrollment(ctx context.Context, a *actor) error {
	if a.educator.SchoolID != "" && a.educator.ClassName != "" {
		return e.startStudentPick(ctx, a)
	}
	st := &State{Flow: FlowEnrollment, Step: StepSchool, Enrollment: &EnrollmentData{}}
	if err := e.saveState(ctx, a, st); err != nil {
		return err
	}
	return e.send(ctx, a, "Welcome, teacher! Which school are you at? Reply with your invitation code or the school name.")
}

// enrollmentStep advances educator enrollment by one answer.
func (e *Executor) enrollmentStep(ctx context.Context, a *actor, st *State, text string) error {
	data := st.Enrollment

	switch st.Step {
	case StepSchool:
		school, err := e.findSchool(ctx, text)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				return e.send(ctx, a, "I couldn't find that school. Check the invitation code on your letter, or type the school's full name.")
			}
			return err
		}
		data.SchoolID = school.ID
		data.SchoolName = school.Name
		st.Step = StepClass
		if err := e.saveState(ctx, a, st); err != nil {
			return err
		}
		return e.send(ctx, a, fmt.Sprintf("Found it: %s. Which class do you teach? (e.g. B3 Blue)", school.Name))

	case StepClass:
		class := strings.TrimSpace(text)
		if class == "" {
			return e.send(ctx, a, "Which class do you teach?")
		}
		data.ClassName = class
		st.Step = StepRoster
		if err := e.saveState(ctx, a, st); err != nil {
			return err
		}
		return e.send(ctx, a, "Send your class list, one child per line as: Name, Grade (e.g. Ama Mensah, B3).")

	case StepRoster:
		roster, problems := parseRoster(text)
		if len(problems) > 0 {
			return e.send(ctx, a, "I couldn't read these lines:\n"+strings.Join(problems, "\n")+"\nPlease send the list again.")
		}
		if len(roster) == 0 {
			return e.send(ctx, a, "The list looked empty. Send one child per line as: Name, Grade.")
		}
		if len(roster) > maxRosterSize {
			return e.send(ctx, a, fmt.Sprintf("That's more than %d children. Please send at most %d per list.", maxRosterSize, maxRosterSize))
		}
		data.Roster = roster
		st.Step = StepRosterConfirm
		if err := e.saveState(ctx, a, st); err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "I read %d children for %s:\n", len(roster), data.ClassName)
		for _, r := range roster {
			fmt.Fprintf(&b, "- %s (%s)\n", r.Name, r.Grade)
		}
		b.WriteString("Save this list?")
		_, err := e.msgr.SendButtons(ctx, a.chatID, b.String(), []channel.Button{
			{ID: "yes", Label: "Yes, save"},
			{ID: "no", Label: "No, redo"},
		})
		return err

	case StepRosterConfirm:
		if isNegative(text) {
			data.Roster = nil
			st.Step = StepRoster
			if err := e.saveState(ctx, a, st); err != nil {
				return err
			}
			return e.send(ctx, a, "Okay, send the class list again.")
		}
		if !isAffirmative(text) {
			return e.send(ctx, a, "Reply YES to save the class list, or NO to send it again.")
		}
		for _, r := range data.Roster {
			student := &domain.Student{
				ID:         uuid.NewString(),
				EducatorID: a.educator.ID,
				Name:       r.Name,
				EntryGrade: r.Grade,
			}
			if err := e.store.CreateStudent(ctx, student); err != nil {
				return err
			}
		}
		a.educator.SchoolID = data.SchoolID
		a.educator.SchoolName = data.SchoolName
		a.educator.ClassName = data.ClassName
		a.educator.OptedIn = true
		if err := e.saveActor(ctx, a); err != nil {
			return err
		}
		if err := e.store.ClearConversation(ctx, a.kind, a.chatID); err != nil {
			return err
		}
		e.log.Info("educator enrolled",
			"educator", a.educator.ID, "school", data.SchoolName,
			"class", data.ClassName, "students", len(data.Roster))
		return e.send(ctx, a, fmt.Sprintf("Saved %d children for %s. Send START to run a check-up with one of them.", len(data.Roster), data.ClassName))
	}

	return stateError(st.Flow, st.Step, "no handler")
}

// findSchool resolves an invitation code first, then falls back to a
// normalized name match over all schools.
func (e *Executor) findSchool(ctx context.Context, text string) (*domain.School, error) {
	code := strings.ToUpper(strings.TrimSpace(text))
	school, err := e.store.SchoolByCode(ctx, code)
	if err == nil {
		return school, nil
	}
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}

	schools, err := e.store.Schools(ctx)
	if err != nil {
		return nil, err
	}
	needle := normalizeName(text)
	var match *domain.School
	for _, s := range schools {
		name := normalizeName(s.Name)
		if name == needle || strings.Contains(name, needle) && len(needle) >= 5 {
			if match != nil {
				// Ambiguous; make the educator pick a code.
				return nil, &domain.NotFoundError{Kind: "school", ID: text}
			}
			match = s
		}
	}
	if match == nil {
		return nil, &domain.NotFoundError{Kind: "school", ID: text}
	}
	return match, nil
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// parseRoster reads "Name, Grade" lines. Unreadable lines come back as
// problem descriptions instead of silently dropping children.
func parseRoster(text string) ([]RosterEntry, []string) {
	var roster []RosterEntry
	var problems []string
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, gradeText, found := strings.Cut(line, ",")
		if !found {
			problems = append(problems, fmt.Sprintf("line %d: missing comma", i+1))
			continue
		}
		grade, ok := parseGrade(gradeText)
		if !ok {
			problems = append(problems, fmt.Sprintf("line %d: grade must be B1-B6", i+1))
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("line %d: missing name", i+1))
			continue
		}
		roster = append(roster, RosterEntry{Name: name, Grade: grade})
	}
	return roster, problems
}

// startStudentPick sends the roster as an interactive list and waits
// for a selection.
func (e *Executor) startStudentPick(ctx context.Context, a *actor) error {
	students, err := e.store.StudentsByEducator(ctx, a.educator.ID)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		return e.send(ctx, a, "Your class list is empty. Send RESTART to enroll again.")
	}
	if len(students) > maxRosterSize {
		students = students[:maxRosterSize]
	}

	rows := make([]channel.ListRow, 0, len(students))
	for _, s := range students {
		rows = append(rows, channel.ListRow{ID: s.ID, Title: s.Name, Description: s.EntryGrade})
	}
	st := &State{Flow: FlowDiagnostic, Step: StepPickStudent, Diagnostic: &DiagnosticData{}}
	if err := e.saveState(ctx, a, st); err != nil {
		return err
	}
	_, err = e.msgr.SendList(ctx, a.chatID, "Which child shall we check on?", "Choose", []channel.ListSection{
		{Title: a.educator.ClassName, Rows: rows},
	})
	return err
}

// pickStudentStep resolves a roster selection by ID or name and starts
// the diagnostic.
func (e *Executor) pickStudentStep(ctx context.Context, a *actor, text string) error {
	if a.educator == nil {
		return stateError(FlowDiagnostic, StepPickStudent, "guardian chat in educator step")
	}
	students, err := e.store.StudentsByEducator(ctx, a.educator.ID)
	if err != nil {
		return err
	}
	choice := strings.TrimSpace(text)
	for _, s := range students {
		if s.ID == choice || strings.EqualFold(s.Name, choice) {
			if err := e.store.ClearConversation(ctx, a.kind, a.chatID); err != nil {
				return err
			}
			return e.startDiagnosticFor(ctx, a, s)
		}
	}
	return e.send(ctx, a, "I didn't recognize that child. Pick one from the list, or send their exact name.")
}
