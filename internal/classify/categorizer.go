package classify

import (
	"context"
	"log/slog"
)

// Categorizer answers the three questions the API asks of an SMS: its
// spending category, its payment mode and, for bill reminders, the bill type.
type Categorizer struct {
	clf Classifier
}

// NewCategorizer wraps clf, which is usually a cached fallback chain.
func NewCategorizer(clf Classifier) *Categorizer {
	return &Categorizer{clf: clf}
}

// Category returns the spending category, refining "Other" with Reclassify.
func (c *Categorizer) Category(ctx context.Context, sms string) Prediction {
	p := c.top(ctx, sms, SpendingLabels, LabelOther)
	if p.Label == LabelOther {
		p.Label = Reclassify(sms)
	}
	return p
}

// Mode returns the payment mode, or Unknown with zero confidence.
func (c *Categorizer) Mode(ctx context.Context, sms string) Prediction {
	return c.top(ctx, sms, ModeLabels, LabelUnknown)
}

// Bill returns the bill category for a reminder from sender.
func (c *Categorizer) Bill(ctx context.Context, body, sender string) Prediction {
	text := body
	if sender != "" {
		text += " From: " + sender
	}
	return c.top(ctx, text, BillLabels, LabelOther)
}

// Top returns up to n spending categories, best first.
func (c *Categorizer) Top(ctx context.Context, sms string, n int) ([]Prediction, error) {
	preds, err := c.clf.Classify(ctx, sms, SpendingLabels)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(preds) > n {
		preds = preds[:n]
	}
	return preds, nil
}

func (c *Categorizer) top(ctx context.Context, text string, labels []string, fallback string) Prediction {
	preds, err := c.clf.Classify(ctx, text, labels)
	if err != nil || len(preds) == 0 {
		if err != nil {
			slog.Warn("Classification failed", slog.String("provider", c.clf.Name()), slog.Any("error", err))
		}
		return Prediction{Label: fallback}
	}
	return preds[0]
}
