package classify

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// keywords per label; matched as whole words, case-insensitively.
var keywords = map[string][]string{
	// spending
	"Food & Dining":      {"swiggy", "zomato", "restaurant", "cafe", "food", "dominos", "pizza", "mcdonalds", "kfc", "starbucks", "dining", "eats", "bakery"},
	"Travel & Transport": {"uber", "ola", "irctc", "rapido", "metro", "flight", "airline", "indigo", "makemytrip", "redbus", "cab", "travel", "fastag"},
	"Entertainment":      {"netflix", "spotify", "hotstar", "prime video", "bookmyshow", "movie", "pvr", "inox", "youtube"},
	"Shopping":           {"amazon", "flipkart", "myntra", "ajio", "meesho", "nykaa", "shopping", "store", "mart"},
	"Utilities & Bills":  {"electricity", "water bill", "broadband", "recharge", "bill payment", "bescom", "postpaid", "dth", "gas"},
	"Health & Medical":   {"pharmacy", "hospital", "apollo", "medplus", "clinic", "medical", "pharmeasy", "1mg", "diagnostics"},
	"Education":          {"school", "college", "university", "tuition", "course", "udemy", "coursera", "byjus", "fees"},
	"Fuel":               {"petrol", "diesel", "fuel", "hpcl", "bpcl", "indian oil", "iocl"},
	"Insurance":          {"insurance", "premium", "lic", "policy"},
	"Rent":               {"rent", "landlord", "nobroker"},
	"Loan EMI":           {"emi", "loan"},
	"Investment":         {"mutual fund", "sip", "zerodha", "groww", "upstox", "stocks", "investment", "nps"},
	"Government or Tax":  {"tax", "gst", "income tax", "challan", "tds", "govt", "government"},
	"Salary Income":      {"salary", "payroll"},
	"Refund or Cashback": {"refund", "cashback", "reversal", "reversed"},
	"Cash Withdrawal":    {"atm", "cash withdrawal", "withdrawn"},
	"Account Service":    {"service charge", "charges", "annual fee", "penalty", "min bal", "kyc", "statement"},

	// payment modes
	"UPI":           {"upi", "vpa", "gpay", "phonepe", "paytm", "bhim"},
	"ATM":           {"atm", "cash withdrawal", "withdrawn"},
	"Bank Transfer": {"neft", "imps", "rtgs", "transfer", "transferred"},
	"Credit Card":   {"credit card", "card"},
	"Loan":          {"loan", "emi"},

	// bills
	"Electricity": {"electricity", "power", "bescom", "kseb", "msedcl", "tneb", "tata power", "adani electricity"},
	"Water":       {"water", "jal board", "bwssb"},
	"Internet":    {"broadband", "internet", "fiber", "fibernet", "wifi", "xstream"},
	"Phone":       {"mobile", "phone", "postpaid", "prepaid", "recharge", "airtel", "jio", "vodafone"},
}

var keywordRes = compileKeywords(keywords)

func compileKeywords(src map[string][]string) map[string][]*regexp.Regexp {
	out := make(map[string][]*regexp.Regexp, len(src))
	for label, kws := range src {
		for _, kw := range kws {
			out[label] = append(out[label], regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
		}
	}
	return out
}

// RuleClassifier ranks labels by keyword hits. It never fails.
type RuleClassifier struct{}

// NewRuleClassifier returns the keyword classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (r *RuleClassifier) Name() string { return "rules" }

// Classify returns labels with at least one hit, confidence being each label's
// share of all hits. When nothing matches it returns Other (if a candidate) or
// Unknown, with zero confidence.
func (r *RuleClassifier) Classify(ctx context.Context, text string, labels []string) ([]Prediction, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}

	type scored struct {
		label string
		hits  int
		order int
	}
	var hits []scored
	total := 0
	for i, label := range labels {
		n := 0
		for _, re := range keywordRes[label] {
			if re.MatchString(text) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, scored{label, n, i})
			total += n
		}
	}

	if total == 0 {
		fallback := LabelUnknown
		for _, l := range labels {
			if l == LabelOther {
				fallback = LabelOther
				break
			}
		}
		return []Prediction{{Label: fallback}}, nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].hits != hits[j].hits {
			return hits[i].hits > hits[j].hits
		}
		return hits[i].order < hits[j].order
	})

	preds := make([]Prediction, len(hits))
	for i, h := range hits {
		preds[i] = Prediction{Label: h.label, Confidence: float64(h.hits) / float64(total)}
	}
	return preds, nil
}

// Reclassify refines a generic "Other" label from well-known SMS phrasing.
func Reclassify(sms string) string {
	text := strings.ToLower(sms)

	if strings.Contains(text, "cheque") || strings.Contains(text, "chq") {
		switch {
		case strings.Contains(text, "deposited"):
			return "Cheque Deposit"
		case strings.Contains(text, "cleared"):
			return "Cheque Clearance"
		default:
			return "Cheque"
		}
	}
	if strings.Contains(text, "trx") && strings.Contains(text, "card") {
		return "Card Transaction"
	}
	if strings.Contains(text, "payment of") || strings.Contains(text, "bill") {
		return "Bill Payment"
	}
	if strings.Contains(text, "aed") && strings.Contains(text, "debited") {
		return "International Debit"
	}
	if strings.Contains(text, "upi") {
		return "Upi Transaction"
	}
	return LabelOther
}
