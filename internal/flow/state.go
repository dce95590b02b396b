// Package flow drives the turn-by-turn conversations: guardian
// onboarding, educator enrollment, and the diagnostic itself. Each
// inbound message runs through one interception policy, then a per-flow
// step handler. Errors never escape a turn.
package flow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sankofa-learn/sankofa/internal/domain"
	"github.com/sankofa-learn/sankofa/internal/store"
)

// Flow names the three conversation state machines.
type Flow string

const (
	FlowOnboarding Flow = "onboarding"
	FlowEnrollment Flow = "enrollment"
	FlowDiagnostic Flow = "diagnostic"
)

// Step identifies a position within a flow. Steps are scoped to one
// flow; decode rejects pairs that do not belong together.
type Step string

const (
	// Guardian onboarding.
	StepConsent           Step = "consent"
	StepGuardianName      Step = "guardian_name"
	StepLanguage          Step = "language"
	StepChildName         Step = "child_name"
	StepChildGrade        Step = "child_grade"
	StepDiagnosticConsent Step = "diagnostic_consent"

	// Educator enrollment.
	StepSchool        Step = "school"
	StepClass         Step = "class"
	StepRoster        Step = "roster"
	StepRosterConfirm Step = "roster_confirm"

	// Diagnostic.
	StepPickStudent Step = "pick_student"
	StepAwaitAnswer Step = "await_answer"
)

// OnboardingData accumulates guardian answers across onboarding steps.
type OnboardingData struct {
	GuardianName string `json:"guardian_name,omitempty"`
	Language     string `json:"language,omitempty"`
	ChildName    string `json:"child_name,omitempty"`
	ChildGrade   string `json:"child_grade,omitempty"`
}

// RosterEntry is one child parsed from an educator's roster message.
type RosterEntry struct {
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

// EnrollmentData accumulates educator answers across enrollment steps.
type EnrollmentData struct {
	SchoolID   string        `json:"school_id,omitempty"`
	SchoolName string        `json:"school_name,omitempty"`
	ClassName  string        `json:"class_name,omitempty"`
	Roster     []RosterEntry `json:"roster,omitempty"`
}

// DiagnosticData is the pending-question context between turns.
type DiagnosticData struct {
	SessionID string `json:"session_id"`
	StudentID string `json:"student_id"`

	NodeCode       string `json:"node_code"`
	QuestionText   string `json:"question_text"`
	ExpectedAnswer string `json:"expected_answer,omitempty"`
	QuestionKind   string `json:"question_kind"`
	Sequence       int    `json:"sequence"`
}

// State is the typed conversation state. Exactly one data pointer is
// set, matching Flow; absent state is represented by a nil *State.
type State struct {
	Flow Flow
	Step Step

	Onboarding *OnboardingData
	Enrollment *EnrollmentData
	Diagnostic *DiagnosticData

	UpdatedAt time.Time
}

var stepFlows = map[Step]Flow{
	StepConsent:           FlowOnboarding,
	StepGuardianName:      FlowOnboarding,
	StepLanguage:          FlowOnboarding,
	StepChildName:         FlowOnboarding,
	StepChildGrade:        FlowOnboarding,
	StepDiagnosticConsent: FlowOnboarding,
	StepSchool:            FlowEnrollment,
	StepClass:             FlowEnrollment,
	StepRoster:            FlowEnrollment,
	StepRosterConfirm:     FlowEnrollment,
	StepPickStudent:       FlowDiagnostic,
	StepAwaitAnswer:       FlowDiagnostic,
}

func stateError(flow Flow, step Step, format string, args ...any) error {
	return &domain.StateError{Flow: string(flow), Step: string(step), Err: fmt.Errorf(format, args...)}
}

// encodeState packs a State into the store's record shape.
func encodeState(kind domain.ActorKind, chatID int64, st *State) (*store.ConversationRecord, error) {
	var payload any
	switch st.Flow {
	case FlowOnboarding:
		payload = st.Onboarding
	case FlowEnrollment:
		payload = st.Enrollment
	case FlowDiagnostic:
		payload = st.Diagnostic
	default:
		return nil, stateError(st.Flow, st.Step, "unknown flow")
	}
	if payload == nil || stepFlows[st.Step] != st.Flow {
		return nil, stateError(st.Flow, st.Step, "step/data mismatch")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, stateError(st.Flow, st.Step, "encode data: %v", err)
	}
	return &store.ConversationRecord{
		ActorKind: kind,
		ChatID:    chatID,
		Flow:      string(st.Flow),
		Step:      string(st.Step),
		Data:      string(data),
		UpdatedAt: st.UpdatedAt,
	}, nil
}

// decodeState unpacks a record back into a typed State. A record whose
// step does not belong to its flow, or whose payload does not parse, is
// a StateError; the executor recovers by clearing it.
func decodeState(rec *store.ConversationRecord) (*State, error) {
	st := &State{
		Flow:      Flow(rec.Flow),
		Step:      Step(rec.Step),
		UpdatedAt: rec.UpdatedAt,
	}
	if stepFlows[st.Step] != st.Flow {
		return nil, stateError(st.Flow, st.Step, "step does not belong to flow")
	}
	var target any
	switch st.Flow {
	case FlowOnboarding:
		st.Onboarding = &OnboardingData{}
		target = st.Onboarding
	case FlowEnrollment:
		st.Enrollment = &EnrollmentData{}
		target = st.Enrollment
	case FlowDiagnostic:
		st.Diagnostic = &DiagnosticData{}
		target = st.Diagnostic
	}
	if err := json.Unmarshal([]byte(rec.Data), target); err != nil {
		return nil, stateError(st.Flow, st.Step, "decode data: %v", err)
	}
	if st.Step == StepAwaitAnswer && st.Diagnostic.SessionID == "" {
		return nil, stateError(st.Flow, st.Step, "missing session reference")
	}
	return st, nil
}
