package workflow

import (
	"time"

	"github.com/askmongo/askmongo/internal/mongodb"
)

// State carries a single run through every stage of the workflow. Each
// stage reads and updates it in place; nothing outside the package sees
// it directly.
type State struct {
	Question          string
	ValidatedQuestion string
	IsValid           bool
	ValidationError   string

	// SchemaText is the formatted schema block handed to prompts,
	// captured once during input validation.
	SchemaText string

	GeneratedQuery string

	QueryResult  *mongodb.Result
	QuerySuccess bool
	QueryError   string

	FinalAnswer      string
	SummarizedAnswer string

	QueryHallucinationDetected   bool
	QueryRetryCount              int
	SummaryHallucinationDetected bool
	SummaryRetryCount            int

	MaxRetries int

	// generationFailed marks an LLM failure during query generation,
	// which ends the run immediately.
	generationFailed bool
}

func newState(question string, maxRetries int) *State {
	return &State{
		Question:   question,
		MaxRetries: maxRetries,
	}
}

// Record is the public projection of a finished run.
type Record struct {
	RunID             string          `json:"run_id"`
	Question          string          `json:"question"`
	ValidatedQuestion string          `json:"validated_question,omitempty"`
	IsValid           bool            `json:"is_valid"`
	ValidationError   string          `json:"validation_error,omitempty"`
	GeneratedQuery    string          `json:"generated_query,omitempty"`
	QueryResult       *mongodb.Result `json:"query_results,omitempty"`
	QuerySuccess      bool            `json:"query_success"`
	QueryError        string          `json:"query_error,omitempty"`
	FinalAnswer       string          `json:"final_answer"`
	SummarizedAnswer  string          `json:"summarized_answer,omitempty"`
	QueryRetries      int             `json:"query_retries"`
	SummaryRetries    int             `json:"summary_retries"`
	DurationMS        int64           `json:"duration_ms"`

	Duration time.Duration `json:"-"`
}

// record projects the state into its public form.
func (s *State) record() *Record {
	answer := s.FinalAnswer
	if answer == "" {
		answer = "No answer generated."
	}

	return &Record{
		Question:          s.Question,
		ValidatedQuestion: s.ValidatedQuestion,
		IsValid:           s.IsValid,
		ValidationError:   s.ValidationError,
		GeneratedQuery:    s.GeneratedQuery,
		QueryResult:       s.QueryResult,
		QuerySuccess:      s.QuerySuccess,
		QueryError:        s.QueryError,
		FinalAnswer:       answer,
		SummarizedAnswer:  s.SummarizedAnswer,
		QueryRetries:      s.QueryRetryCount,
		SummaryRetries:    s.SummaryRetryCount,
	}
}

// stage identifies one node of the workflow graph.
type stage int

const (
	stageValidate stage = iota
	stageGenerate
	stageCheckQuery
	stageExecute
	stageSummarize
	stageCheckSummary
	stageDone
)

func (s stage) String() string {
	switch s {
	case stageValidate:
		return "validate_input"
	case stageGenerate:
		return "generate_query"
	case stageCheckQuery:
		return "check_query"
	case stageExecute:
		return "execute_query"
	case stageSummarize:
		return "summarize"
	case stageCheckSummary:
		return "check_summary"
	case stageDone:
		return "done"
	default:
		return "unknown"
	}
}
