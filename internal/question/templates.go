package question

// template is one concrete question for a node. Templates are plain
// literals: the same (node, sequence) pair always yields the same
// question, which keeps retried deliveries identical.
type template struct {
	Text    string
	Answer  string
	Kind    Kind
	Choices []string
}

// templateTable is the process-wide question bank, keyed by node code.
// Built once at package init and never mutated.
var templateTable = map[string][]template{
	"B1.1.1.1": {
		{Text: "What number comes after 39?", Answer: "40", Kind: KindNumeric},
		{Text: "What number comes before 70?", Answer: "69", Kind: KindNumeric},
		{Text: "Count by tens: 10, 20, 30, ... What comes next?", Answer: "40", Kind: KindNumeric},
	},
	"B1.1.2.1": {
		{Text: "Which number is bigger: 47 or 74?", Answer: "74", Kind: KindNumeric},
		{Text: "Which number is smaller: 58 or 85?", Answer: "58", Kind: KindNumeric},
	},
	"B1.1.3.1": {
		{Text: "What is 8 + 7?", Answer: "15", Kind: KindNumeric},
		{Text: "What is 9 + 6?", Answer: "15", Kind: KindNumeric},
		{Text: "What is 7 + 5?", Answer: "12", Kind: KindNumeric},
	},
	"B1.1.3.2": {
		{Text: "What is 14 - 6?", Answer: "8", Kind: KindNumeric},
		{Text: "What is 17 - 9?", Answer: "8", Kind: KindNumeric},
	},
	"B2.1.1.1": {
		{Text: "In the number 472, what digit is in the tens place?", Answer: "7", Kind: KindNumeric},
		{Text: "What is the value of the 3 in 385?", Answer: "300", Kind: KindNumeric},
		{Text: "In the number 906, what digit is in the hundreds place?", Answer: "9", Kind: KindNumeric},
	},
	"B2.1.3.1": {
		{Text: "What is 38 + 25?", Answer: "63", Kind: KindNumeric},
		{Text: "What is 47 + 36?", Answer: "83", Kind: KindNumeric},
	},
	"B2.1.3.2": {
		{Text: "What is 62 - 28?", Answer: "34", Kind: KindNumeric},
		{Text: "What is 81 - 47?", Answer: "34", Kind: KindNumeric},
	},
	"B2.1.4.1": {
		{Text: "3 bags have 4 oranges each. How many oranges in all?", Answer: "12", Kind: KindNumeric},
		{Text: "What is 5 + 5 + 5?", Answer: "15", Kind: KindNumeric},
	},
	"B3.1.1.1": {
		{Text: "In the number 6249, what digit is in the thousands place?", Answer: "6", Kind: KindNumeric},
		{Text: "What is the value of the 8 in 4825?", Answer: "800", Kind: KindNumeric},
	},
	"B3.1.3.1": {
		{Text: "What is 345 + 278?", Answer: "623", Kind: KindNumeric},
		{Text: "What is 456 + 367?", Answer: "823", Kind: KindNumeric},
		{Text: "What is 529 + 186?", Answer: "715", Kind: KindNumeric},
	},
	"B3.1.3.2": {
		{Text: "What is 503 - 267?", Answer: "236", Kind: KindNumeric},
		{Text: "What is 720 - 385?", Answer: "335", Kind: KindNumeric},
	},
	"B3.1.4.1": {
		{Text: "What is 7 x 8?", Answer: "56", Kind: KindNumeric},
		{Text: "What is 6 x 9?", Answer: "54", Kind: KindNumeric},
		{Text: "What is 8 x 4?", Answer: "32", Kind: KindNumeric},
	},
	"B3.1.4.2": {
		{Text: "24 mangoes are shared equally among 6 children. How many does each child get?", Answer: "4", Kind: KindNumeric},
		{Text: "What is 35 divided by 5?", Answer: "7", Kind: KindNumeric},
	},
	"B3.1.5.1": {
		{
			Text:    "Which fraction shows one part of a shape cut into 4 equal parts?",
			Answer:  "1/4",
			Kind:    KindMultipleChoice,
			Choices: []string{"1/2", "1/3", "1/4", "4/1"},
		},
		{Text: "A loaf is cut into 8 equal slices. One slice is what fraction of the loaf?", Answer: "1/8", Kind: KindNumeric},
	},
	"B3.4.1.1": {
		{Text: "A chart shows: Mon 5 books, Tue 8 books, Wed 3 books. How many books on Tuesday?", Answer: "8", Kind: KindNumeric},
		{Text: "A table shows 12 girls and 9 boys in a class. How many more girls than boys?", Answer: "3", Kind: KindNumeric},
	},
	"B4.1.4.1": {
		{Text: "What is 34 x 6?", Answer: "204", Kind: KindNumeric},
		{Text: "What is 27 x 8?", Answer: "216", Kind: KindNumeric},
	},
	"B4.1.4.2": {
		{Text: "What is 96 divided by 4?", Answer: "24", Kind: KindNumeric},
		{Text: "What is 144 divided by 6?", Answer: "24", Kind: KindNumeric},
	},
	"B4.1.5.1": {
		{
			Text:    "Which fraction is equivalent to 1/2?",
			Answer:  "2/4",
			Kind:    KindMultipleChoice,
			Choices: []string{"2/4", "1/4", "2/3", "3/2"},
		},
	},
	"B5.1.5.1": {
		{Text: "What is 1/4 + 2/4?", Answer: "3/4", Kind: KindNumeric},
	},
	"B5.1.6.1": {
		{Text: "Write three tenths as a decimal.", Answer: "0.3", Kind: KindNumeric},
	},
}

// templatesFor returns the template list for a node, or nil.
func templatesFor(code string) []template {
	return templateTable[code]
}
