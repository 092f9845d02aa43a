package entity

import "time"

// Summary is an LLM-generated, citation-bearing synthesis of a Group.
// Summaries are immutable after construction; the Summarizer builds one
// by running prompt construction, generation, and validation to completion
// before handing the value off.
type Summary struct {
	ID          string
	GroupID     string
	Text        string
	Citations   map[string][]string // source name -> article ids cited under that name
	Model       string
	Temperature float64
	CreatedAt   time.Time
	Validation  ValidationStatus
	Retries     int
}

// ValidationStatus records the outcome of summary validation (§4.3).
type ValidationStatus struct {
	Accepted bool
	Reason   string // set when Accepted is false: e.g. "copied_span", "length", "citation_coverage"
}

// CitedSourceCount returns the number of distinct sources cited in the text.
func (s *Summary) CitedSourceCount() int {
	return len(s.Citations)
}
