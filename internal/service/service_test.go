package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spendsense/internal/classify"
	"spendsense/internal/event"
	"spendsense/internal/storage"
)

// 10 April 2024, a few days after the dates used in test messages.
var testNow = time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *storage.SQLStore {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newCategorizer() *classify.Categorizer {
	return classify.NewCategorizer(classify.NewRuleClassifier())
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *fakePublisher) Publish(ev event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *fakePublisher) ofType(t event.Type) []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []event.Event
	for _, ev := range p.events {
		if ev.GetType() == t {
			out = append(out, ev)
		}
	}
	return out
}

type fakeRecorder struct {
	ingested, bills, exceeded int
}

func (r *fakeRecorder) RecordsIngested(n int) { r.ingested += n }
func (r *fakeRecorder) BillDetected()         { r.bills++ }
func (r *fakeRecorder) BudgetExceeded()       { r.exceeded++ }
