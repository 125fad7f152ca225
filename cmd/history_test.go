package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/history"
)

func TestRunHistoryWithRepo(t *testing.T) {
	askedAt := time.Date(2026, time.August, 24, 10, 30, 0, 0, time.UTC)

	repo := &mockHistory{
		runs: []history.Run{
			{
				ID:             "run-1",
				AskedAt:        askedAt,
				Question:       "How many movies are in the database?",
				GeneratedQuery: "db.movies.countDocuments({})",
				QuerySuccess:   true,
				DurationMS:     812,
			},
			{
				ID:             "run-2",
				AskedAt:        askedAt.Add(-time.Hour),
				Question:       "Delete everything",
				GeneratedQuery: "db.movies.deleteMany({})",
				QuerySuccess:   false,
				QueryError:     "MongoDB Error: unsupported method: deleteMany",
				QueryRetries:   1,
				DurationMS:     401,
			},
		},
	}

	var out bytes.Buffer

	if err := runHistoryWithRepo(context.Background(), repo, 10, 0, &out); err != nil {
		t.Fatalf("runHistoryWithRepo() error = %v", err)
	}

	output := out.String()

	for _, expected := range []string{
		"Run History",
		"1. [2026-08-24 10:30:00] ✓ How many movies are in the database?",
		"Query: db.movies.countDocuments({})",
		"Duration: 812 ms",
		"2. [2026-08-24 09:30:00] ✗ Delete everything",
		"Error: MongoDB Error: unsupported method: deleteMany",
		"Retries: query 1, summary 0",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("output does not contain %q\nOutput: %s", expected, output)
		}
	}

	// The successful run had no retries, so its line stays compact.
	if strings.Contains(output, "Duration: 812 ms  Retries:") {
		t.Errorf("retry note should be omitted for zero retries\nOutput: %s", output)
	}
}

func TestRunHistoryWithRepoEmpty(t *testing.T) {
	repo := &mockHistory{}

	var out bytes.Buffer

	if err := runHistoryWithRepo(context.Background(), repo, 10, 0, &out); err != nil {
		t.Fatalf("runHistoryWithRepo() error = %v", err)
	}

	if !strings.Contains(out.String(), "No runs recorded yet.") {
		t.Errorf("expected empty-history message, got %q", out.String())
	}
}

func TestRunHistoryWithRepoOffsetNumbering(t *testing.T) {
	repo := &mockHistory{
		runs: []history.Run{
			{Question: "first"},
			{Question: "second"},
			{Question: "third"},
		},
	}

	var out bytes.Buffer

	if err := runHistoryWithRepo(context.Background(), repo, 10, 2, &out); err != nil {
		t.Fatalf("runHistoryWithRepo() error = %v", err)
	}

	if !strings.Contains(out.String(), "3. [") {
		t.Errorf("expected numbering to continue from the offset\nOutput: %s", out.String())
	}
}

func TestRunHistoryWithRepoError(t *testing.T) {
	repo := &mockHistory{listErr: errors.New(errors.ErrTypeStorage, "database locked")}

	var out bytes.Buffer

	err := runHistoryWithRepo(context.Background(), repo, 10, 0, &out)
	if err == nil {
		t.Fatal("expected error when listing fails")
	}

	if !errors.IsType(err, errors.ErrTypeStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this string is far too long", 10, "this st..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
