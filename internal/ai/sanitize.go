package ai

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxQuestionLength = 500

var controlChars = regexp.MustCompile(`[\p{Cc}\p{Cf}]+`)

// Sanitize trims user input to a bounded length and strips control and
// formatting characters.
func Sanitize(input string) string {
	if utf8.RuneCountInString(input) > maxQuestionLength {
		input = string([]rune(input)[:maxQuestionLength])
	}
	input = controlChars.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, `"`, "'")
	return strings.TrimSpace(input)
}
