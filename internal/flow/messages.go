package flow

import "fmt"

// Copy lives in one table so translators work in a single file. Lookup
// falls back to English for languages without a translation.
var copyTable = map[string]map[string]string{
	"en": {
		"welcome":            "Hello! I help you find out where your child needs support in maths. May I ask you a few questions? Reply YES to continue.",
		"consent_reprompt":   "Please reply YES when you are ready to continue, or HELP for more information.",
		"ask_guardian_name":  "Great. What is your name?",
		"ask_language":       "Thanks, %s. Which language do you prefer?",
		"ask_child_name":     "What is your child's name?",
		"ask_child_grade":    "Which class is %s in? Reply with B1, B2, B3, B4, B5 or B6.",
		"grade_reprompt":     "Please reply with one of B1, B2, B3, B4, B5 or B6.",
		"ask_diag_consent":   "I can check where %s stands with a few short maths questions. It takes about ten minutes. Shall we begin? Reply YES to start or LATER to wait.",
		"onboarding_done":    "All set. Send START whenever you want to begin the check-up.",
		"optout_confirm":     "You will receive no more messages from us. Send START if you ever want to come back.",
		"restart_confirm":    "Okay, we've started over. Send START to begin again.",
		"cancel_confirm":     "Cancelled. Send START whenever you are ready.",
		"question_intro":     "Here we go. Ask %s each question out loud and type the answer they give you.",
		"answer_correct":     "Good one!",
		"answer_incorrect":   "Thanks, noted.",
		"reprompt_text":      "Please reply with a text answer so I can record it.",
		"diag_wrapping_up":   "That was the last question. One moment while I put the results together.",
	},
	"tw": {
		"welcome":         "Akwaaba! Mɛboa wo ma woahu baabi a wo ba hia mmoa wɔ akontaabu mu. Metumi abisa wo nsɛm kakra? Fa YES gye so.",
		"optout_confirm":  "Yɛrensoma wo nkra biara bio. Sɛ wopɛ sɛ wosan ba a, soma START.",
		"restart_confirm": "Yɛafiri aseɛ foforɔ. Soma START na yɛahyɛ aseɛ bio.",
	},
}

// msg returns the copy string for a key in the given language, falling
// back to English.
func msg(lang, key string, args ...any) string {
	table, ok := copyTable[lang]
	if !ok {
		table = copyTable["en"]
	}
	text, ok := table[key]
	if !ok {
		text = copyTable["en"][key]
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

const helpText = `I run short maths check-ups for children in B1-B6.

Commands:
START - begin or resume
STATUS - where you are and your child's latest result
RESTART - start the current conversation over
CANCEL - stop the current conversation
STOP - no more messages`

var languageChoices = []struct {
	ID    string
	Label string
}{
	{"en", "English"},
	{"tw", "Twi"},
	{"ee", "Ewe"},
}
