// Package sms extracts transaction fields and bill reminders from bank SMS text.
package sms

import (
	"regexp"
	"strings"
	"time"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

const number = `([0-9][0-9,]*(?:\.[0-9]{1,2})?)`

var (
	amountPrefixRe = regexp.MustCompile(`(?i)(?:\b(?:rs\.?|inr)|₹)\s*` + number)
	amountSuffixRe = regexp.MustCompile(`(?i)\b` + number + `\s*(?:rs\b|inr\b|₹)`)
	balanceRe      = regexp.MustCompile(`(?i)(?:\bavl\.?\s*bal(?:ance)?|\bavail(?:able)?\.?\s*bal(?:ance)?|\bbal(?:ance)?)\b\s*(?:is\s*)?[:\-]?\s*(?:rs\.?|inr|₹)?\s*` + number)

	debitRe  = regexp.MustCompile(`(?i)\b(?:debited|spent|paid|withdrawn|sent|purchase|dr)\b`)
	creditRe = regexp.MustCompile(`(?i)\b(?:credited|received|deposited|refund|cr)\b`)

	refRe     = regexp.MustCompile(`(?i)(?:\bupi\s*ref(?:\s*no\.?)?|\bref(?:erence)?\.?\s*(?:no\.?|number|#|id)?|\btxn\s*(?:id|no\.?)|\butr(?:\s*no\.?)?)\s*[:\-]?\s*([a-z0-9]{6,})`)
	accountRe = regexp.MustCompile(`(?i)(?:\ba/c|\bacct|\baccount|\bcard)\s*(?:no\.?)?\s*(?:ending\s*(?:with|in)?\s*)?[:\-]?\s*([x*]*[0-9]{3,6})\b`)
	vendorRe  = regexp.MustCompile(`(?i)\b(?:at|to|towards|vpa)\s+([a-z0-9@._&' -]{2,40}?)(?:\s+(?:on|via|ref|for|from|upi|avl|using|dated|is)\b|[,;]|\.(?:\s|$)|$)`)

	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4}|\d{2})\b`)
	namedDateRe   = regexp.MustCompile(`(?i)\b(\d{1,2})[- ]?(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[-, ]*(\d{4}|\d{2})\b`)
)

type modeRule struct {
	mode string
	re   *regexp.Regexp
}

// Checked in order; the first match wins.
var modeRules = []modeRule{
	{domain.ModeUPI, regexp.MustCompile(`(?i)\bupi\b|\bvpa\b`)},
	{domain.ModeATM, regexp.MustCompile(`(?i)\batm\b`)},
	{domain.ModeCreditCard, regexp.MustCompile(`(?i)\bcredit\s*card\b`)},
	{domain.ModeDebitCard, regexp.MustCompile(`(?i)\bdebit\s*card\b`)},
	{domain.ModeBankTransfer, regexp.MustCompile(`(?i)\b(?:neft|imps|rtgs)\b`)},
	{domain.ModeCheque, regexp.MustCompile(`(?i)\b(?:cheque|chq)\b`)},
	{domain.ModeNetBanking, regexp.MustCompile(`(?i)\bnet\s*banking\b|\bnetbanking\b`)},
}

// Parse extracts every field it can find; missing fields stay zero.
func Parse(text string) domain.Transaction {
	var tx domain.Transaction

	tx.Amount = extractAmount(text)
	tx.Balance = extractBalance(text)
	tx.TxnType = extractTxnType(text)
	tx.Mode = extractMode(text)
	tx.RefNo = firstGroup(refRe, text, strings.ToUpper)
	tx.Account = firstGroup(accountRe, text, strings.ToUpper)
	tx.Vendor = extractVendor(text)

	raw, at, ok := extractDate(text)
	tx.Date = raw
	if ok {
		tx.TxnAt = at.Unix()
	}
	return tx
}

func extractAmount(text string) *money.Amount {
	type hit struct{ start, numStart, numEnd int }
	var hits []hit
	for _, re := range []*regexp.Regexp{amountPrefixRe, amountSuffixRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			hits = append(hits, hit{m[0], m[2], m[3]})
		}
	}

	balances := balanceSpans(text)

	var best *hit
	for i := range hits {
		h := &hits[i]
		if balances[h.numStart] {
			continue
		}
		if best == nil || h.start < best.start {
			best = h
		}
	}
	if best == nil {
		return nil
	}
	amt, err := money.Parse(text[best.numStart:best.numEnd])
	if err != nil {
		return nil
	}
	return &amt
}

// balanceSpans returns the start offsets of numbers labelled as a balance.
func balanceSpans(text string) map[int]bool {
	spans := make(map[int]bool)
	for _, m := range balanceRe.FindAllStringSubmatchIndex(text, -1) {
		spans[m[2]] = true
	}
	return spans
}

func extractBalance(text string) *money.Amount {
	m := balanceRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	amt, err := money.Parse(m[1])
	if err != nil {
		return nil
	}
	return &amt
}

func extractTxnType(text string) domain.TxnType {
	d := debitRe.FindStringIndex(text)
	c := creditRe.FindStringIndex(text)
	switch {
	case d == nil && c == nil:
		return domain.TxnUnknown
	case c == nil:
		return domain.TxnDebit
	case d == nil:
		return domain.TxnCredit
	case d[0] <= c[0]:
		return domain.TxnDebit
	default:
		return domain.TxnCredit
	}
}

func extractMode(text string) string {
	for _, r := range modeRules {
		if r.re.MatchString(text) {
			return r.mode
		}
	}
	return domain.ModeOther
}

// Captures that describe the user's own account rather than a counterparty.
var selfPrefixes = []string{"your ", "a/c", "ac ", "acct", "account"}

func extractVendor(text string) string {
next:
	for _, m := range vendorRe.FindAllStringSubmatch(text, -1) {
		v := strings.TrimSpace(m[1])
		lower := strings.ToLower(v)
		for _, p := range selfPrefixes {
			if strings.HasPrefix(lower, p) {
				continue next
			}
		}
		if strings.HasPrefix(lower, "vpa ") {
			v = strings.TrimSpace(v[4:])
		}
		return v
	}
	return ""
}

func firstGroup(re *regexp.Regexp, text string, norm func(string) string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return norm(m[1])
}

// extractDate returns the earliest date-looking text and, when it is a real
// calendar date, its UTC midnight.
func extractDate(text string) (string, time.Time, bool) {
	type cand struct {
		start int
		raw   string
		parse func() (time.Time, bool)
	}
	var found []cand

	if m := isoDateRe.FindStringSubmatchIndex(text); m != nil {
		raw := text[m[0]:m[1]]
		found = append(found, cand{m[0], raw, func() (time.Time, bool) {
			return parseLayouts(raw, "2006-01-02")
		}})
	}
	if m := numericDateRe.FindStringSubmatchIndex(text); m != nil {
		raw := text[m[0]:m[1]]
		norm := strings.ReplaceAll(raw, "/", "-")
		found = append(found, cand{m[0], raw, func() (time.Time, bool) {
			return parseLayouts(norm, "2-1-2006", "2-1-06")
		}})
	}
	if m := namedDateRe.FindStringSubmatchIndex(text); m != nil {
		raw := text[m[0]:m[1]]
		day, mon, year := text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]]
		norm := day + "-" + strings.ToUpper(mon[:1]) + strings.ToLower(mon[1:]) + "-" + year
		found = append(found, cand{m[0], raw, func() (time.Time, bool) {
			return parseLayouts(norm, "2-Jan-2006", "2-Jan-06")
		}})
	}

	if len(found) == 0 {
		return "", time.Time{}, false
	}
	first := found[0]
	for _, c := range found[1:] {
		if c.start < first.start {
			first = c
		}
	}
	t, ok := first.parse()
	return first.raw, t, ok
}

func parseLayouts(s string, layouts ...string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
