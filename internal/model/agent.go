package model

// ExecutionStatus is the outcome of a single agent execution.
type ExecutionStatus string

const (
	ExecSuccess ExecutionStatus = "success"
	ExecSkipped ExecutionStatus = "skipped"
	ExecError   ExecutionStatus = "error"
)

// Agent names used in results, logs and agent snapshots.
const (
	AgentFinancial = "financial"
	AgentOutcome   = "outcome"
	AgentNPS       = "nps"
	AgentMessaging = "messaging"
	AgentDiagnosis = "diagnosis"
)

// AgentResult is the output of one scoring agent. Created fresh per run and
// never mutated after it is returned.
type AgentResult struct {
	AgentName    string          `json:"agent_name"`
	Score        *int            `json:"score"`
	Flags        []string        `json:"flags"`
	Details      map[string]any  `json:"details,omitempty"`
	Status       ExecutionStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	TokensUsed   int             `json:"tokens_used,omitempty"`
}

// HasFlag reports whether the result carries the given flag.
func (r AgentResult) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
