package models

import (
	"fmt"
	"strings"
)

// QuestionRequest is the body of a question against the active document.
type QuestionRequest struct {
	Query string `json:"query"`
}

// Validate trims the query and returns an error if nothing is left.
func (q *QuestionRequest) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}
