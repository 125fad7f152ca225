package cmd

import (
	"context"

	"github.com/askmongo/askmongo/internal/history"
)

// mockHistory implements history.Repository for command tests.
type mockHistory struct {
	runs     []history.Run
	stats    *history.Stats
	listErr  error
	statsErr error
	clearErr error
	cleared  bool
	closed   bool
}

func (m *mockHistory) Initialize(_ context.Context) error { return nil }

func (m *mockHistory) RecordRun(_ context.Context, run history.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockHistory) ListRuns(_ context.Context, limit, offset int) ([]history.Run, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	start := offset
	if start >= len(m.runs) {
		return []history.Run{}, nil
	}

	end := start + limit
	if end > len(m.runs) {
		end = len(m.runs)
	}

	return m.runs[start:end], nil
}

func (m *mockHistory) GetStats(_ context.Context) (*history.Stats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}

	if m.stats != nil {
		return m.stats, nil
	}

	return &history.Stats{
		TotalRuns:  len(m.runs),
		RunsPerDay: make(map[string]int),
	}, nil
}

func (m *mockHistory) Clear(_ context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}

	m.cleared = true
	m.runs = nil

	return nil
}

func (m *mockHistory) Close() error {
	m.closed = true
	return nil
}
