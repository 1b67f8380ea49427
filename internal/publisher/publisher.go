// Package publisher declares the completion-notification contract.
package publisher

import (
	"context"
	"time"
)

// CompletionEvent announces that one combination finished successfully.
type CompletionEvent struct {
	Location     string    `json:"location"`
	IndustryName string    `json:"industry_name"`
	ResultsCount int       `json:"results_count"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Publisher delivers completion events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event CompletionEvent) error
	Close() error
}
