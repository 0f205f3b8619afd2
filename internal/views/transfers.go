package views

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/baharkarakas/bank-demo-web/internal/models"
)

const (
	TransfersPageSize = 20
	MsgNoTransfers    = "No transfers yet."
)

// ParsePage reads the 1-based page query value. Missing, non-numeric and
// non-positive input all mean page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func Offset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * TransfersPageSize
}

// ParseHighlight reads the optional highlight transfer id.
func ParseHighlight(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HighlightHref links to the transfers list with id highlighted.
func HighlightHref(id int64) string {
	return "/transfers?" + url.Values{"highlight": {strconv.FormatInt(id, 10)}}.Encode()
}

type TransferRow struct {
	models.Transfer
	Highlighted bool
}

// TransfersPage is one rendered page of the transfers list.
//
// The service reports no total count, so a short page is the only end
// marker: a page that is exactly full still enables Next, which may lead to
// an empty page.
type TransfersPage struct {
	Page         int
	Rows         []TransferRow
	PrevDisabled bool
	NextDisabled bool
	PrevHref     string
	NextHref     string
	Empty        string
	Error        string
}

func NewTransfersPage(page int, transfers []models.Transfer, highlight int64) TransfersPage {
	if page < 1 {
		page = 1
	}
	p := TransfersPage{
		Page:         page,
		Rows:         make([]TransferRow, len(transfers)),
		PrevDisabled: page <= 1,
		NextDisabled: len(transfers) < TransfersPageSize,
	}
	for i, t := range transfers {
		p.Rows[i] = TransferRow{Transfer: t, Highlighted: highlight > 0 && t.ID == highlight}
	}
	if !p.PrevDisabled {
		p.PrevHref = pageHref(page - 1)
	}
	if !p.NextDisabled {
		p.NextHref = pageHref(page + 1)
	}
	if len(transfers) == 0 {
		p.Empty = MsgNoTransfers
	}
	return p
}

func pageHref(page int) string {
	return "/transfers?page=" + strconv.Itoa(page)
}
