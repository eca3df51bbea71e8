package classify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Chain tries each classifier in order and returns the first success.
type Chain struct {
	classifiers []Classifier
	recorder    Recorder
}

// NewChain builds a fallback chain. The last classifier should be one that
// cannot fail, such as RuleClassifier.
func NewChain(recorder Recorder, classifiers ...Classifier) *Chain {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Chain{classifiers: classifiers, recorder: recorder}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.classifiers))
	for i, cl := range c.classifiers {
		names[i] = cl.Name()
	}
	return strings.Join(names, ">")
}

func (c *Chain) Classify(ctx context.Context, text string, labels []string) ([]Prediction, error) {
	var lastErr error
	for i, cl := range c.classifiers {
		preds, err := cl.Classify(ctx, text, labels)
		if err == nil && len(preds) > 0 {
			c.recorder.ClassifierRequest(cl.Name(), OutcomeOK)
			return preds, nil
		}
		if err == nil {
			err = errors.New("no predictions")
		}
		lastErr = err

		// The caller is gone; falling back would be wasted work.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		outcome := OutcomeError
		if i < len(c.classifiers)-1 {
			outcome = OutcomeFallback
		}
		c.recorder.ClassifierRequest(cl.Name(), outcome)

		level := slog.LevelWarn
		if errors.Is(err, ErrUnauthorized) {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "⚠️ Classifier failed, falling back",
			slog.String("provider", cl.Name()),
			slog.Any("error", err),
		)
	}
	return nil, lastErr
}
