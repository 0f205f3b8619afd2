package models

import "github.com/shopspring/decimal"

type Transfer struct {
	ID           int64           `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	FromFullName string          `json:"from_full_name,omitempty"`
	FromIBAN     string          `json:"from_iban,omitempty"`
	ToFullName   string          `json:"to_full_name,omitempty"`
	ToIBAN       string          `json:"to_iban,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

// TransferCreate is the POST /api/transfers body. Amount carries exactly two
// fraction digits.
type TransferCreate struct {
	FromIBAN string `json:"fromIban"`
	ToIBAN   string `json:"toIban"`
	Amount   string `json:"amount"`
}

type TransferCreated struct {
	ID int64 `json:"id"`
}
