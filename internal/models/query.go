package models

// SearchRequest is the payload for GET /search (query parameters).
type SearchRequest struct {
	Query string `json:"q" query:"q"` // full‑text query
	TopK  int    `json:"k" query:"k"` // optional; default handled in handler
}

// AskRequest is the payload for POST /ask.
type AskRequest struct {
	Question string     `json:"question"`          // user’s natural‑language question
	History  []Exchange `json:"history,omitempty"` // optional prior exchanges
}

// IngestRequest is the payload for POST /ingest. Empty fields fall back to
// the configured repository.
type IngestRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// AskResponse is returned by POST /ask.
type AskResponse struct {
	Answer     string     `json:"answer"`
	Iterations int        `json:"iterations"`
	Steps      []StepView `json:"steps"`
}

// StepView is the wire form of one tool invocation in the scratchpad.
type StepView struct {
	Tool        string         `json:"tool"`
	Args        map[string]any `json:"args"`
	Observation string         `json:"observation"`
	IsError     bool           `json:"is_error"`
}
