// Package formatter renders tool output in the standard markdown envelope read back by agents.
package formatter

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Instructions is the fixed trailer appended to every standard response
const Instructions = "Instructions: returning the output of this function call verbatim to the user in markdown. " +
	"Then write AGENT SUMMARY: and then include a summary of what you did."

// Field is one labelled line of a standard response
type Field struct {
	Key   string
	Value interface{}
}

// Content is an ordered list of fields
type Content []Field

// FromMap builds content from m with keys in sorted order
func FromMap(m map[string]interface{}) Content {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	content := make(Content, 0, len(keys))
	for _, k := range keys {
		content = append(content, Field{Key: k, Value: m[k]})
	}
	return content
}

// FormatStandardResponse renders a titled block of fields followed by the agent summary
// and the fixed instructions. extra is appended as a final line when non-empty.
func FormatStandardResponse(title string, content Content, summary, extra string) string {
	var b strings.Builder

	b.WriteString("##### ")
	b.WriteString(title)
	b.WriteString("\n\n")

	for _, field := range content {
		fmt.Fprintf(&b, "%s: %v\n", FormatKey(field.Key), field.Value)
	}
	b.WriteString("\n")

	b.WriteString("AGENT SUMMARY: ")
	b.WriteString(summary)
	b.WriteString("\n\n")

	b.WriteString(Instructions)
	b.WriteString("\n")

	if extra != "" {
		b.WriteString(extra)
		b.WriteString("\n")
	}

	return b.String()
}

// FormatError renders an error block. code is omitted when empty.
func FormatError(message, code string) string {
	var b strings.Builder
	b.WriteString("##### ❌ Error\n\n")
	if code != "" {
		b.WriteString("Error Code: ")
		b.WriteString(code)
		b.WriteString("\n")
	}
	b.WriteString("Message: ")
	b.WriteString(message)
	b.WriteString("\n")
	return b.String()
}

// FormatSuccess renders a success block
func FormatSuccess(message string) string {
	return "##### ✅ Success\n\nMessage: " + message + "\n"
}

// FormatKey converts a snake_case key to Title Case words
func FormatKey(key string) string {
	// cases.Caser keeps state and is not safe for concurrent use
	caser := cases.Title(language.Und)

	tokens := strings.Split(key, "_")
	words := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		words = append(words, caser.String(token))
	}
	return strings.Join(words, " ")
}
