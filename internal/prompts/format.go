package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/askmongo/askmongo/internal/mongodb"
)

const (
	// schemaFieldLimit caps how many fields per collection appear in
	// the schema text handed to the model.
	schemaFieldLimit = 20

	// Caps for summarization input. The validator uses the tighter
	// pair so its prompt stays small.
	SummaryMaxItems    = 20
	SummaryMaxLength   = 3000
	ValidatorMaxItems  = 10
	ValidatorMaxLength = 2000

	// documentPreviewLimit bounds a single document's JSON inside
	// summarization input.
	documentPreviewLimit = 500

	// displayDocumentLimit caps how many documents the final answer
	// prints in full.
	displayDocumentLimit = 50
)

// CurrentDate returns today's date in the form queries embed it.
func CurrentDate() string {
	return time.Now().Format("2006-01-02")
}

// FormatSchema renders introspected schema information as the plain
// text block the prompt templates embed.
func FormatSchema(info *mongodb.SchemaInfo) string {
	if info == nil || info.Error != "" {
		return "Schema information not available."
	}

	name := info.DatabaseName
	if name == "" {
		name = "unknown"
	}

	lines := []string{fmt.Sprintf("Database: %s", name), "\nCollections:"}
	for _, coll := range info.Collections {
		lines = append(lines,
			fmt.Sprintf("\n  Collection: %s", coll.Name),
			fmt.Sprintf("    Document Count: %d", coll.DocumentCount),
		)
		if len(coll.SampleFields) > 0 {
			lines = append(lines, "    Fields:")
			fields := coll.SampleFields
			if len(fields) > schemaFieldLimit {
				fields = fields[:schemaFieldLimit]
			}
			for _, field := range fields {
				lines = append(lines, fmt.Sprintf("      - %s (%s)", field.Field, field.Type))
			}
		}
		if len(coll.Indexes) > 0 {
			lines = append(lines, "    Indexes:")
			for _, idx := range coll.Indexes {
				lines = append(lines, fmt.Sprintf("      - %s", compactJSON(idx)))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// FormatResultsForSummarization renders query results as compact text
// for a summarization or validation prompt. Long documents and long
// result sets are truncated so the prompt stays within budget.
func FormatResultsForSummarization(result *mongodb.Result, maxItems, maxLength int) string {
	if result == nil {
		return "No results found."
	}
	if result.IsCount {
		return fmt.Sprintf("Result: %d", result.Count)
	}
	if len(result.Documents) == 0 {
		return "No results found."
	}

	shown := result.Documents
	if len(shown) > maxItems {
		shown = shown[:maxItems]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s). Showing first %d:\n\n", len(result.Documents), len(shown))
	for i, doc := range shown {
		text := indentJSON(doc)
		if len(text) > documentPreviewLimit {
			text = truncateString(text, documentPreviewLimit) + "... (truncated)"
		}
		fmt.Fprintf(&b, "Result %d:\n%s\n\n", i+1, text)
	}
	if remaining := len(result.Documents) - len(shown); remaining > 0 {
		fmt.Fprintf(&b, "... and %d more results (not shown)\n", remaining)
	}

	text := b.String()
	if len(text) > maxLength {
		text = truncateString(text, maxLength) + "... (truncated for length)"
	}
	return text
}

// FormatResults renders the full display block that accompanies the
// final answer: the question, the query, and the result documents.
func FormatResults(result *mongodb.Result, question, query string) string {
	divider := strings.Repeat("=", 60)
	lines := []string{
		divider,
		"QUERY RESULTS",
		divider,
		fmt.Sprintf("\n📝 Question: %s", question),
		fmt.Sprintf("\n🔍 Generated Query:\n%s", query),
		"\n" + strings.Repeat("-", 60),
		"📊 Results:\n",
	}

	switch {
	case result == nil:
		lines = append(lines, "No documents found matching your query.")
	case result.IsCount:
		lines = append(lines, fmt.Sprintf("Result: %d", result.Count))
	case len(result.Documents) == 0:
		lines = append(lines, "No documents found matching your query.")
	default:
		lines = append(lines, fmt.Sprintf("Found %d document(s):\n", len(result.Documents)))
		shown := result.Documents
		if len(shown) > displayDocumentLimit {
			shown = shown[:displayDocumentLimit]
		}
		for i, doc := range shown {
			lines = append(lines, fmt.Sprintf("Document %d:", i+1), indentJSON(doc), "")
		}
		if remaining := len(result.Documents) - len(shown); remaining > 0 {
			lines = append(lines, fmt.Sprintf("... and %d more documents", remaining))
		}
	}

	lines = append(lines, "\n"+divider)
	return strings.Join(lines, "\n")
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// truncateString cuts s to at most n bytes without splitting a UTF-8
// sequence.
func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
