package flow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

// Draft is a parsed flow together with the follow-ups it still needs.
type Draft struct {
	domain.CashFlow
	Missing   []string `json:"missing"`
	Questions []string `json:"questions"`
}

// NewDraft wraps f with its outstanding questions.
func NewDraft(f domain.CashFlow) Draft {
	missing := f.Missing()
	questions := make([]string, len(missing))
	for i, field := range missing {
		questions[i] = Question(field, f)
	}
	if missing == nil {
		missing = []string{}
	}
	return Draft{CashFlow: f, Missing: missing, Questions: questions}
}

// Question is the follow-up prompt for a missing field.
func Question(field string, f domain.CashFlow) string {
	switch field {
	case "type":
		return fmt.Sprintf("❓ Is this income or expense? (For: %s)", f.Raw)
	case "amount":
		return fmt.Sprintf("💰 How much is the amount? (For: %s)", f.Raw)
	case "source":
		return "📥 What is the source of income?"
	case "category":
		return "💸 What is the category of expense?"
	case "time":
		return "⏰ What time of the day? (e.g., morning, 9am)"
	}
	return field + "?"
}

// Answer fills field of f from a follow-up reply.
func Answer(f *domain.CashFlow, field, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fmt.Errorf("empty answer")
	}
	switch field {
	case "type":
		switch strings.ToLower(answer) {
		case string(domain.FlowIncome):
			f.Type = domain.FlowIncome
		case string(domain.FlowExpense):
			f.Type = domain.FlowExpense
		default:
			return fmt.Errorf("please answer income or expense")
		}
	case "amount":
		a, err := money.Parse(answer)
		if err != nil || a <= 0 {
			return fmt.Errorf("please enter a valid number")
		}
		f.Amount = &a
	case "source":
		f.Source = strings.ToLower(answer)
	case "category":
		f.Category = strings.ToLower(answer)
	case "time":
		f.TimeOfDay = strings.ToLower(answer)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// Summary is the one-line confirmation for a completed flow.
func Summary(f domain.CashFlow) string {
	amount := "?"
	if f.Amount != nil {
		amount = f.Amount.String()
	}
	if f.Type == domain.FlowIncome {
		return fmt.Sprintf("✅ Income: ₹%s from %s every %s at %s.", amount, f.Source, f.Frequency, f.TimeOfDay)
	}
	return fmt.Sprintf("✅ Expense: ₹%s on %s every %s at %s.", amount, f.Category, f.Frequency, f.TimeOfDay)
}

// Builder runs the follow-up dialogue over a line-oriented terminal.
type Builder struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewBuilder reads answers from in and writes prompts to out.
func NewBuilder(in io.Reader, out io.Writer) *Builder {
	return &Builder{in: bufio.NewScanner(in), out: out}
}

func (b *Builder) readLine(prompt string) (string, bool) {
	fmt.Fprint(b.out, prompt+" ")
	if !b.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(b.in.Text()), true
}

// Run prompts for descriptions until an empty line, "exit" or EOF and
// returns every completed flow. Flows abandoned mid-dialogue are dropped.
func (b *Builder) Run(ctx context.Context) ([]domain.CashFlow, error) {
	var done []domain.CashFlow
	for {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		text, ok := b.readLine("📝 Describe your daily fixed cash flows (multiple allowed):")
		if !ok || text == "" || isExit(text) {
			break
		}

		for _, f := range Parse(text) {
			complete, ok := b.followUp(ctx, f)
			if !ok {
				if err := ctx.Err(); err != nil {
					return done, err
				}
				return done, b.in.Err()
			}
			fmt.Fprintln(b.out, Summary(complete))
			done = append(done, complete)
		}
		fmt.Fprintln(b.out, "✅ All flows processed!")
	}
	return done, b.in.Err()
}

func (b *Builder) followUp(ctx context.Context, f domain.CashFlow) (domain.CashFlow, bool) {
	for {
		missing := f.Missing()
		if len(missing) == 0 {
			return f, true
		}
		if ctx.Err() != nil {
			return f, false
		}
		field := missing[0]
		answer, ok := b.readLine(Question(field, f))
		if !ok {
			return f, false
		}
		if err := Answer(&f, field, answer); err != nil {
			fmt.Fprintf(b.out, "❌ Invalid: %v\n", err)
		}
	}
}

func isExit(s string) bool {
	s = strings.ToLower(s)
	return s == "exit" || s == "quit"
}
