package validate

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

type ErrField struct {
	Field string
	Msg   string
}

func (e ErrField) Error() string { return e.Field + ": " + e.Msg }

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Error())
	}
	return b.String()
}

// For returns the message recorded for field, or "".
func (e Errs) For(field string) string {
	for _, ef := range e {
		if ef.Field == field {
			return ef.Msg
		}
	}
	return ""
}

const (
	MsgIBAN     = "Enter a valid IBAN."
	MsgAmount   = "Enter a valid amount."
	MsgSameIBAN = "Sender and recipient IBAN cannot be the same."
)

var (
	ibanRe   = regexp.MustCompile(`^TR[0-9]{24}$`)
	amountRe = regexp.MustCompile(`^[0-9]+\.[0-9]{2}$`)
)

// IsIBAN reports whether v is "TR" followed by exactly 24 digits. Case is
// significant; callers uppercase input before asking.
func IsIBAN(v string) bool { return ibanRe.MatchString(v) }

// IsAmount requires digits, a point and exactly two digits, and a value
// strictly above zero. The pattern alone would let "0.00" through.
func IsAmount(v string) bool {
	if !amountRe.MatchString(v) {
		return false
	}
	d, err := decimal.NewFromString(v)
	return err == nil && d.IsPositive()
}

// NormalizeAmount renders a valid amount with exactly two fraction digits.
func NormalizeAmount(v string) (string, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return "", err
	}
	return d.StringFixed(2), nil
}

// Helpers
func IBAN(field, value string) *ErrField {
	if !IsIBAN(value) {
		return &ErrField{Field: field, Msg: MsgIBAN}
	}
	return nil
}

func Amount(field, value string) *ErrField {
	if !IsAmount(value) {
		return &ErrField{Field: field, Msg: MsgAmount}
	}
	return nil
}

// Distinct rejects equal non-empty values. The error is keyed to the pair,
// not to either field.
func Distinct(field, a, b string) *ErrField {
	if a != "" && a == b {
		return &ErrField{Field: field, Msg: MsgSameIBAN}
	}
	return nil
}
