package sanitize

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"whitespace collapse", "a\n\nb   c", "a b c"},
		{"trim", "  hello  \n", "hello"},
		{"abbreviation", "Tell me about AI/ML.", "Tell me about AI and ML."},
		{"slash", "frontend/backend", "frontend and backend"},
		{"brackets", "(clears throat) Welcome [to] {the} <interview>", "clears throat Welcome to the interview"},
		{"quotes", `You said "teamwork".`, "You said teamwork."},
		{"em-dash", "Good—next question.", "Good-next question."},
		{"tabs and crlf", "one\t\ttwo\r\nthree", "one two three"},
		{"empty", "", ""},
		{"only brackets", "()[]", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanRemovesAllBrackets(t *testing.T) {
	inputs := []string{
		"[[nested (brackets {everywhere})]]",
		"<b>bold</b> and (parens)",
		"a)b(c]d[e}f{g>h<i",
	}
	for _, in := range inputs {
		got := Clean(in)
		if strings.ContainsAny(got, "[](){}<>") {
			t.Errorf("Clean(%q) = %q still contains brackets", in, got)
		}
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"Tell me about a time you failed.",
		"What is your greatest strength? Take your time.",
		"Good-next question: why this role?",
		"(smiles) \"Great\" answer—AI/ML and data/infra work.\n\nNext?",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: once %q, twice %q", in, once, twice)
		}
	}
}
