package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const raw = `SMS,Category
"  Rs 250 debited at ZOMATO via UPI  ", food & dining
"rs 250 debited at zomato via upi",Shopping
short msg,Shopping
,Shopping
"Your cheque has been deposited in a/c",other
"Random promotional text here",OTHER
"Balance enquiry for account",unknown
"Rs 900 spent at Amazon on card",
`

func TestClean(t *testing.T) {
	var out bytes.Buffer
	stats, err := Clean(strings.NewReader(raw), &out, Options{})
	require.NoError(t, err)

	assert.Equal(t, `SMS,Category
rs 250 debited at zomato via upi,Food & Dining
your cheque has been deposited in a/c,Other
random promotional text here,Other
`, out.String())

	assert.Equal(t, 8, stats.Read)
	assert.Equal(t, 3, stats.Written)
	assert.Equal(t, 2, stats.Blank)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.TooShort)
	assert.Equal(t, 1, stats.Unknown)
	assert.Equal(t, []string{"Other", "Food & Dining"}, stats.Labels())
}

func TestClean_Reclassify(t *testing.T) {
	var out bytes.Buffer
	stats, err := Clean(strings.NewReader(raw), &out, Options{Reclassify: true})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "your cheque has been deposited in a/c,Cheque Deposit\n")
	assert.Contains(t, out.String(), "random promotional text here,Other\n")
	assert.Equal(t, 1, stats.Reclassified)
}

func TestClean_CategoryColumnByName(t *testing.T) {
	in := "text,source,category\nsalary of rs 50000 credited,bank,salary income\n"
	var out bytes.Buffer
	_, err := Clean(strings.NewReader(in), &out, Options{})
	require.NoError(t, err)
	assert.Equal(t, "SMS,Category\nsalary of rs 50000 credited,Salary Income\n", out.String())
}

func TestClean_Errors(t *testing.T) {
	_, err := Clean(strings.NewReader(""), &bytes.Buffer{}, Options{})
	assert.Error(t, err)

	_, err = Clean(strings.NewReader("SMS,Label\nhello there world,x\n"), &bytes.Buffer{}, Options{})
	assert.ErrorIs(t, err, ErrNoCategoryColumn)
}
