// Package format renders money and timestamps the way the bank UI shows them
// (tr-TR conventions, Turkish lira).
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/bank-demo-web/internal/models"
)

const (
	currencySymbol = "₺"
	dateLayout     = "02.01.2006 15:04"

	InvalidDate = "Invalid Date"
)

// Currency formats an amount such as 1234.5 as "₺1.234,50". Amounts arrive
// already parsed, so there is no malformed case to render.
func Currency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + currencySymbol + group(intPart) + "," + frac
}

// group inserts '.' thousands separators into a run of digits.
func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Date formats an ISO-8601 timestamp as "dd.mm.yyyy hh:mm" in the local zone.
func Date(value string) string {
	return DateIn(value, time.Local)
}

func DateIn(value string, loc *time.Location) string {
	t, err := models.ParseTimestamp(value)
	if err != nil {
		return InvalidDate
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(dateLayout)
}
