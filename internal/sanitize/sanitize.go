// Package sanitize prepares model replies for speech synthesis.
package sanitize

import (
	"regexp"
	"strings"
)

var bracketRe = regexp.MustCompile(`[\[\]\(\)\{\}<>]`)

// Clean rewrites text so a TTS engine reads it naturally. The steps run
// in a fixed order: expand "AI/ML", drop brackets, read remaining slashes
// as "and", drop double quotes, turn em-dashes into hyphens, and collapse
// all whitespace to single spaces.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "AI/ML", "AI and ML")
	text = bracketRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "/", " and ")
	text = strings.ReplaceAll(text, `"`, "")
	text = strings.ReplaceAll(text, "—", "-")
	return strings.Join(strings.Fields(text), " ")
}
