package search

import (
	"strings"

	"github.com/hyperjump/merkon/internal/models"
)

// Highlight truncates content to maxLen runes, appending "..." when cut.
func Highlight(content string, maxLen int) string {
	content = strings.Join(strings.Fields(content), " ")
	r := []rune(content)
	if maxLen <= 0 || len(r) <= maxLen {
		return content
	}
	return string(r[:maxLen]) + "..."
}

// Preview returns the most descriptive text of a record: its text, else its
// description, else its external source name, truncated to maxLen runes.
func Preview(r *models.MemoryRecord, maxLen int) string {
	switch {
	case r.Metadata.Text != "":
		return Highlight(r.Metadata.Text, maxLen)
	case r.Metadata.Description != "":
		return Highlight(r.Metadata.Description, maxLen)
	default:
		return Highlight(r.Metadata.ExternalSourceName, maxLen)
	}
}
