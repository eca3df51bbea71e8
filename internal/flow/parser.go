// Package flow turns plain-language descriptions of recurring income and
// expenses into cash flows, asking follow-up questions for missing parts.
package flow

import (
	"regexp"
	"strings"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

var (
	splitRe   = regexp.MustCompile(`\s+and\s+|,\s*`)
	incomeRe  = regexp.MustCompile(`\b(?:receive|get)`)
	expenseRe = regexp.MustCompile(`\b(?:spend|pay)`)
	amountRe  = regexp.MustCompile(`(?:₹\s*)?(\d+(?:\.\d{1,2})?)(\s*(?:am|pm)\b)?`)
	sourceRe  = regexp.MustCompile(`\bfrom\s+([a-z][a-z\s]*)`)
	onRe      = regexp.MustCompile(`\bon\s+([a-z][a-z\s]*)`)
	timeRe    = regexp.MustCompile(`\b(morning|afternoon|evening|night|\d{1,2}\s*(?:am|pm))\b`)
	weeklyRe  = regexp.MustCompile(`\b(?:weekly|every\s+week|per\s+week|a\s+week)\b`)
	monthlyRe = regexp.MustCompile(`\b(?:monthly|every\s+month|per\s+month|a\s+month)\b`)
)

// Words that end a source or category phrase.
var stopWords = map[string]bool{
	"every": true, "each": true, "per": true, "daily": true, "weekly": true, "monthly": true,
	"in": true, "at": true, "on": true, "by": true, "the": true, "a": true,
	"morning": true, "afternoon": true, "evening": true, "night": true,
}

// Split breaks a prompt into one clause per flow.
func Split(text string) []string {
	var parts []string
	for _, p := range splitRe.Split(strings.TrimSpace(text), -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Parse extracts every flow described in text.
func Parse(text string) []domain.CashFlow {
	parts := Split(text)
	flows := make([]domain.CashFlow, 0, len(parts))
	for _, p := range parts {
		flows = append(flows, ParseClause(p))
	}
	return flows
}

// ParseClause extracts a single flow. Fields it cannot find stay empty.
func ParseClause(clause string) domain.CashFlow {
	f := domain.CashFlow{Frequency: domain.FrequencyDaily, Raw: clause}
	text := strings.ToLower(clause)

	switch {
	case incomeRe.MatchString(text):
		f.Type = domain.FlowIncome
	case expenseRe.MatchString(text):
		f.Type = domain.FlowExpense
	}

	f.Amount = findAmount(text)

	switch f.Type {
	case domain.FlowIncome:
		f.Source = phrase(sourceRe, text)
	case domain.FlowExpense:
		f.Category = phrase(onRe, text)
	}

	if m := timeRe.FindStringSubmatch(text); m != nil {
		f.TimeOfDay = strings.ReplaceAll(m[1], " ", "")
	}

	switch {
	case weeklyRe.MatchString(text):
		f.Frequency = domain.FrequencyWeekly
	case monthlyRe.MatchString(text):
		f.Frequency = domain.FrequencyMonthly
	}
	return f
}

// findAmount returns the first number that is not a clock time.
func findAmount(text string) *money.Amount {
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		a, err := money.Parse(m[1])
		if err != nil {
			continue
		}
		return &a
	}
	return nil
}

func phrase(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	var words []string
	for _, w := range strings.Fields(m[1]) {
		if stopWords[w] {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}
