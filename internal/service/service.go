// Package service holds the use cases behind the HTTP API and CLI.
package service

import (
	"strings"

	"spendsense/internal/event"
)

// Publisher receives events for the live feed.
type Publisher interface {
	Publish(ev event.Event)
}

// Recorder receives ingest counters.
type Recorder interface {
	RecordsIngested(n int)
	BillDetected()
	BudgetExceeded()
}

type nopPublisher struct{}

func (nopPublisher) Publish(event.Event) {}

type nopRecorder struct{}

func (nopRecorder) RecordsIngested(int) {}
func (nopRecorder) BillDetected()       {}
func (nopRecorder) BudgetExceeded()     {}

func orNopPublisher(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func orNopRecorder(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
