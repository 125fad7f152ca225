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

func TestRunStatsWithRepo(t *testing.T) {
	repo := &mockHistory{
		stats: &history.Stats{
			TotalRuns:         42,
			SuccessfulRuns:    40,
			SuccessRate:       95.2,
			AverageDurationMS: 1234,
			LastAskedAt:       time.Date(2026, time.August, 24, 10, 30, 0, 0, time.UTC),
			DatabaseSizeMB:    1.25,
			RunsPerDay: map[string]int{
				"2026-08-23": 1,
				"2026-08-24": 3,
			},
		},
	}

	var out bytes.Buffer

	if err := runStatsWithRepo(context.Background(), repo, &out); err != nil {
		t.Fatalf("runStatsWithRepo() error = %v", err)
	}

	output := out.String()

	for _, expected := range []string{
		"Run History Statistics",
		"Total Runs: 42",
		"Successful Runs: 40",
		"Success Rate: 95.2%",
		"Average Duration: 1234 ms",
		"Database Size: 1.25 MB",
		"Last Asked: 2026-08-24 10:30:00",
		"Runs Per Day:",
		"2026-08-24  3 runs",
		"2026-08-23  1 runs",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("output does not contain %q\nOutput: %s", expected, output)
		}
	}

	// Most recent day listed first
	if strings.Index(output, "2026-08-24") > strings.Index(output, "2026-08-23") {
		t.Errorf("expected most recent day first\nOutput: %s", output)
	}
}

func TestRunStatsWithRepoEmpty(t *testing.T) {
	repo := &mockHistory{stats: &history.Stats{RunsPerDay: map[string]int{}}}

	var out bytes.Buffer

	if err := runStatsWithRepo(context.Background(), repo, &out); err != nil {
		t.Fatalf("runStatsWithRepo() error = %v", err)
	}

	output := out.String()

	if !strings.Contains(output, "Last Asked: Never") {
		t.Errorf("expected never-asked fallback\nOutput: %s", output)
	}

	if strings.Contains(output, "Runs Per Day:") {
		t.Errorf("per-day section should be omitted when empty\nOutput: %s", output)
	}
}

func TestRunStatsWithRepoError(t *testing.T) {
	repo := &mockHistory{statsErr: errors.New(errors.ErrTypeStorage, "database locked")}

	var out bytes.Buffer

	err := runStatsWithRepo(context.Background(), repo, &out)
	if err == nil {
		t.Fatal("expected error when stats lookup fails")
	}

	if !errors.IsType(err, errors.ErrTypeStorage) {
		t.Errorf("expected storage error, got %v", err)
	}
}
