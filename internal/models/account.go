package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the read-only account record served by the bank API.
// IBAN is the unique key. Balance decodes from either a JSON string or number.
type Account struct {
	FullName  string          `json:"full_name"`
	IBAN      string          `json:"iban"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt string          `json:"created_at"`
}

// CreatedTime parses CreatedAt. Unparsable values yield the zero time.
func (a Account) CreatedTime() time.Time {
	t, _ := ParseTimestamp(a.CreatedAt)
	return t
}

type AccountDetail struct {
	Account   Account    `json:"account"`
	Transfers []Transfer `json:"transfers"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 as well as the offset-less forms the API
// emits for naive datetimes (read as UTC).
func ParseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
