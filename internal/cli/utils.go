package cli

import (
	"fmt"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/hyperjump/merkon/internal/models"
	"github.com/hyperjump/merkon/internal/search"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const previewLen = 200

// ParseOutputFormat returns the format named by s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := gojson.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %q (%dms)\n\n", response.Total, response.Collection, response.QueryTime)
	for i, result := range response.Results {
		writeOneResult(w, i+1, result)
	}
	return nil
}

func writeOneResult(w io.Writer, rank int, result *models.ScoredRecord) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", rank, result.Score)
	writeRecordText(w, result.Record)
	fmt.Fprintln(w)
}

// WriteRecord writes one record to w in the given format.
func WriteRecord(w io.Writer, record *models.MemoryRecord, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, record)
	}
	writeRecordText(w, record)
	return nil
}

func writeRecordText(w io.Writer, r *models.MemoryRecord) {
	fmt.Fprintf(w, "Key: %s\n", r.Key)
	if r.Metadata.IsReference {
		fmt.Fprintf(w, "Reference: %s\n", r.Metadata.ExternalSourceName)
	} else if r.Metadata.ExternalSourceName != "" {
		fmt.Fprintf(w, "Source: %s\n", r.Metadata.ExternalSourceName)
	}
	if r.Timestamp != nil {
		fmt.Fprintf(w, "Timestamp: %s\n", r.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	}
	if len(r.Embedding) > 0 {
		fmt.Fprintf(w, "Embedding: %d dims\n", len(r.Embedding))
	}
	if preview := search.Preview(r, previewLen); preview != "" {
		fmt.Fprintf(w, "\n%s\n", preview)
	}
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
