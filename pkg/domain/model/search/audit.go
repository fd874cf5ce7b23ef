package search

import "time"

// TranslationRecord is one translator exchange kept in the audit trail.
type TranslationRecord struct {
	ID        string         `json:"id"`
	RequestID string         `json:"request_id,omitempty"`
	Utterance string         `json:"utterance"`
	Warehouse string         `json:"warehouse"`
	Result    *AIQueryResult `json:"result,omitempty"`
	Accepted  bool           `json:"accepted"`
	Error     string         `json:"error,omitempty"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
	CreatedAt time.Time      `json:"created_at"`
}
