package models

import "time"

// Turn is one question/answer pair. Turns are immutable once appended.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// ContextWindow is rebuilt for every request to the generation service and never cached.
type ContextWindow struct {
	DocumentSlice string
	History       string
}

// SubmitResponse is returned after a document upload: the new active document and its summary.
type SubmitResponse struct {
	Document *DocumentInfo `json:"document"`
	Summary  string        `json:"summary"`
}

// AnswerResponse carries the answer to a question.
type AnswerResponse struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
	// Turns is the history length after this answer.
	Turns int `json:"turns"`
}

// HistoryResponse lists the conversation turns in arrival order.
type HistoryResponse struct {
	DocumentID string `json:"document_id,omitempty"`
	Turns      []Turn `json:"turns"`
}
