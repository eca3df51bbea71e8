package classify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	name  string
	preds []Prediction
	err   error
	calls int
}

func (s *stubClassifier) Name() string { return s.name }

func (s *stubClassifier) Classify(ctx context.Context, text string, labels []string) ([]Prediction, error) {
	s.calls++
	return s.preds, s.err
}

type recordedOutcome struct{ provider, outcome string }

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recordedOutcome
}

func (f *fakeRecorder) ClassifierRequest(provider, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedOutcome{provider, outcome})
}

func TestChain_FallsBackOnError(t *testing.T) {
	remote := &stubClassifier{name: "zeroshot", err: ErrUnauthorized}
	rec := &fakeRecorder{}
	chain := NewChain(rec, remote, NewRuleClassifier())

	preds, err := chain.Classify(context.Background(), "Rs 500 sent via UPI", ModeLabels)
	require.NoError(t, err)
	assert.Equal(t, "UPI", preds[0].Label)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, []recordedOutcome{
		{"zeroshot", OutcomeFallback},
		{"rules", OutcomeOK},
	}, rec.seen)
	assert.Equal(t, "zeroshot>rules", chain.Name())
}

func TestChain_FirstSuccessWins(t *testing.T) {
	remote := &stubClassifier{name: "zeroshot", preds: []Prediction{{"Loan", 0.7}}}
	rules := &stubClassifier{name: "rules", preds: []Prediction{{"UPI", 1}}}

	preds, err := NewChain(nil, remote, rules).Classify(context.Background(), "x", ModeLabels)
	require.NoError(t, err)
	assert.Equal(t, "Loan", preds[0].Label)
	assert.Zero(t, rules.calls)
}

func TestChain_AllFail(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewChain(nil, &stubClassifier{name: "a", err: errors.New("first")}, &stubClassifier{name: "b", err: boom}).
		Classify(context.Background(), "x", ModeLabels)
	assert.ErrorIs(t, err, boom)
}

func TestChain_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rules := &stubClassifier{name: "rules", preds: []Prediction{{"UPI", 1}}}

	_, err := NewChain(nil, &stubClassifier{name: "a", err: ctx.Err()}, rules).Classify(ctx, "x", ModeLabels)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rules.calls)
}

func TestMemoryCache_TTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewMemoryCache(time.Minute, 10)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "k", []Prediction{{"UPI", 1}})
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []Prediction{{"UPI", 1}}, got)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestMemoryCache_Bounded(t *testing.T) {
	c := NewMemoryCache(time.Hour, 2)
	ctx := context.Background()
	c.Set(ctx, "a", nil)
	c.Set(ctx, "b", nil)
	c.Set(ctx, "c", nil)
	assert.LessOrEqual(t, c.Len(), 2)
	_, ok := c.Get(ctx, "c")
	assert.True(t, ok, "the newest entry survives eviction")
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("hello", ModeLabels)
	assert.Len(t, a, 64)
	assert.Equal(t, a, CacheKey("hello", ModeLabels))
	assert.NotEqual(t, a, CacheKey("hello", BillLabels))
	assert.NotEqual(t, a, CacheKey("hello!", ModeLabels))
}

func TestCachedClassifier(t *testing.T) {
	inner := &stubClassifier{name: "zeroshot", preds: []Prediction{{"UPI", 0.9}}}
	rec := &fakeRecorder{}
	cc := NewCachedClassifier(inner, NewMemoryCache(time.Hour, 0), rec)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		preds, err := cc.Classify(ctx, "same text", ModeLabels)
		require.NoError(t, err)
		assert.Equal(t, "UPI", preds[0].Label)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Len(t, rec.seen, 2)

	inner.err = errors.New("down")
	_, err := cc.Classify(ctx, "other text", ModeLabels)
	assert.Error(t, err, "errors are not cached")
}

func TestChain_FallbackAnswersAreNotCached(t *testing.T) {
	remote := &stubClassifier{name: "zeroshot", err: errors.New("503 loading")}
	rules := &stubClassifier{name: "rules", preds: []Prediction{{"Other", 1}}}
	cache := NewMemoryCache(time.Hour, 0)
	chain := NewChain(nil, NewCachedClassifier(remote, cache, nil), rules)
	ctx := context.Background()

	preds, err := chain.Classify(ctx, "Rs 500 sent via UPI", ModeLabels)
	require.NoError(t, err)
	assert.Equal(t, "Other", preds[0].Label)
	assert.Zero(t, cache.Len())

	remote.err = nil
	remote.preds = []Prediction{{"UPI", 0.9}}
	for i := 0; i < 2; i++ {
		preds, err = chain.Classify(ctx, "Rs 500 sent via UPI", ModeLabels)
		require.NoError(t, err)
		assert.Equal(t, "UPI", preds[0].Label, "the remote answer replaces the fallback")
	}
	assert.Equal(t, 2, remote.calls, "the second success is served from cache")
	assert.Equal(t, 1, rules.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestCategorizer(t *testing.T) {
	cat := NewCategorizer(NewChain(nil, NewRuleClassifier()))
	ctx := context.Background()

	assert.Equal(t, "Food & Dining", cat.Category(ctx, "Rs 250 paid to Zomato").Label)
	assert.Equal(t, "Cheque Deposit", cat.Category(ctx, "Chq 0042 deposited to your account").Label)
	assert.Equal(t, Prediction{Label: LabelUnknown}, cat.Mode(ctx, "hello"))
	assert.Equal(t, "Phone", cat.Bill(ctx, "Your postpaid bill of 499 is due on 01-02-2025", "JIO").Label)

	top, err := cat.Top(ctx, "Uber to the airport then Swiggy food then Amazon", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Food & Dining", top[0].Label)
}

func TestCategorizer_ErrorUsesFallbackLabel(t *testing.T) {
	cat := NewCategorizer(&stubClassifier{name: "down", err: errors.New("down")})
	ctx := context.Background()

	assert.Equal(t, Prediction{Label: LabelOther}, cat.Category(ctx, "hello"))
	assert.Equal(t, Prediction{Label: LabelUnknown}, cat.Mode(ctx, "hello"))
	assert.Equal(t, Prediction{Label: LabelOther}, cat.Bill(ctx, "hello", "x"))
	_, err := cat.Top(ctx, "hello", 3)
	assert.Error(t, err)
}
