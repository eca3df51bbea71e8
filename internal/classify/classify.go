// Package classify assigns labels to SMS text using keyword rules or a remote
// zero-shot model, with caching and fallback between providers.
package classify

import (
	"context"
	"errors"

	"spendsense/internal/infra"
)

var (
	// ErrUnauthorized is returned when the remote model rejects the API key.
	ErrUnauthorized = errors.New("classifier: unauthorized")
	// ErrCircuitOpen is returned while the remote model is being skipped after repeated failures.
	ErrCircuitOpen = infra.ErrCircuitOpen
	// ErrModelLoading is returned when the model was still loading after every attempt.
	ErrModelLoading = errors.New("classifier: model still loading")
	// ErrNoLabels is returned when Classify is called without candidate labels.
	ErrNoLabels = errors.New("classifier: no candidate labels")
)

// Prediction is one candidate label with its score in [0, 1].
type Prediction struct {
	Label      string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classifier ranks candidate labels for text, best first.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string, labels []string) ([]Prediction, error)
}

// Recorder receives one observation per classification attempt.
type Recorder interface {
	ClassifierRequest(provider, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ClassifierRequest(string, string) {}

// Outcomes passed to Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeCacheHit = "cache_hit"
	OutcomeFallback = "fallback"
)

// Spending categories.
var SpendingLabels = []string{
	"Food & Dining",
	"Travel & Transport",
	"Entertainment",
	"Shopping",
	"Utilities & Bills",
	"Health & Medical",
	"Education",
	"Fuel",
	"Insurance",
	"Rent",
	"Loan EMI",
	"Investment",
	"Government or Tax",
	"Salary Income",
	"Refund or Cashback",
	"Cash Withdrawal",
	"Account Service",
	LabelOther,
}

// Payment modes for /classify.
var ModeLabels = []string{"UPI", "ATM", "Bank Transfer", "Credit Card", "Loan"}

// Bill categories.
var BillLabels = []string{"Electricity", "Water", "Internet", "Phone", LabelOther}

const (
	LabelOther   = "Other"
	LabelUnknown = "Unknown"
)
