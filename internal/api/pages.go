package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/bank-demo-web/internal/bankapi"
	"github.com/baharkarakas/bank-demo-web/internal/models"
	"github.com/baharkarakas/bank-demo-web/internal/session"
	"github.com/baharkarakas/bank-demo-web/internal/transfer"
	"github.com/baharkarakas/bank-demo-web/internal/views"
)

// BankAPI is what the pages need from the bank service client.
type BankAPI interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	GetAccountDetail(ctx context.Context, iban string) (models.AccountDetail, error)
	ListTransfers(ctx context.Context, limit, offset int) ([]models.Transfer, error)
	CreateTransfer(ctx context.Context, in models.TransferCreate) (models.TransferCreated, error)
}

type pages struct {
	api      BankAPI
	sessions *session.Store
	rd       *renderer
	log      *slog.Logger
}

const skeletonRows = 5

type accountsBody struct {
	State          views.AccountsState
	ToggleSortHref string
	Skeleton       []int
}

func (p *pages) accounts(w http.ResponseWriter, r *http.Request) {
	sess := p.sessions.Get(w, r)
	q := r.URL.Query()
	search := q.Get("q")
	ascending := q.Get("sort") == "asc"

	seq := sess.Accounts.Remote.Begin()
	data, err := p.api.ListAccounts(r.Context())
	if err != nil {
		p.log.Warn("list accounts", "err", err)
	}
	if !sess.Accounts.Remote.Resolve(seq, data, err) {
		p.log.Debug("stale accounts response dropped", "seq", seq)
	}

	st := sess.Accounts.Render(search, ascending)
	pd := pageData{Title: "Accounts", Body: accountsBody{
		State:          st,
		ToggleSortHref: sortHref(search, !ascending),
		Skeleton:       make([]int, skeletonRows),
	}}
	if st.Status == views.StatusLoading {
		pd.Refresh = 1
	}
	p.rd.render(w, http.StatusOK, "accounts", pd)
}

func sortHref(search string, ascending bool) string {
	v := url.Values{}
	if search != "" {
		v.Set("q", search)
	}
	if ascending {
		v.Set("sort", "asc")
	} else {
		v.Set("sort", "desc")
	}
	return "/?" + v.Encode()
}

type accountBody struct {
	models.AccountDetail
	Limit int
}

type messageBody struct{ Message string }

// account treats any failure to load the account as "does not exist".
func (p *pages) account(w http.ResponseWriter, r *http.Request) {
	iban := chi.URLParam(r, "iban")
	detail, err := p.api.GetAccountDetail(r.Context(), iban)
	if err != nil {
		p.log.Info("account not available", "iban", iban, "err", err, "not_found", bankapi.IsNotFound(err))
		p.rd.render(w, http.StatusNotFound, "not_found", pageData{
			Title: "Account not found",
			Body:  messageBody{Message: "Account not found."},
		})
		return
	}
	p.rd.render(w, http.StatusOK, "account", pageData{
		Title: detail.Account.FullName,
		Body:  accountBody{AccountDetail: detail, Limit: bankapi.AccountDetailTransfers},
	})
}

func (p *pages) transfers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := views.ParsePage(q.Get("page"))
	highlight, _ := views.ParseHighlight(q.Get("highlight"))

	list, err := p.api.ListTransfers(r.Context(), views.TransfersPageSize, views.Offset(page))
	tp := views.NewTransfersPage(page, list, highlight)
	if err != nil {
		p.log.Warn("list transfers", "page", page, "err", err)
		tp.Error = bankapi.Message(err)
		tp.Empty = ""
	}
	p.rd.render(w, http.StatusOK, "transfers", pageData{Title: "Transfers", Body: tp})
}

func (p *pages) transferForm(w http.ResponseWriter, r *http.Request) {
	sess := p.sessions.Get(w, r)
	sess.Transfer.Prefill(r.URL.Query().Get("from"))
	p.renderForm(w, http.StatusOK, sess.Transfer)
}

func (p *pages) submitTransfer(w http.ResponseWriter, r *http.Request) {
	sess := p.sessions.Get(w, r)
	form := sess.Transfer
	if err := r.ParseForm(); err != nil {
		p.renderForm(w, http.StatusBadRequest, form)
		return
	}
	for _, name := range transfer.Fields {
		if vals, ok := r.PostForm[string(name)]; ok && len(vals) > 0 {
			form.Change(name, vals[0])
		}
	}

	_, err := form.Submit(r.Context())
	switch {
	case err == nil:
		http.Redirect(w, r, "/transfer", http.StatusSeeOther)
	case errors.Is(err, transfer.ErrNotEligible):
		p.log.Debug("transfer not submitted", "err", err)
		p.renderForm(w, http.StatusUnprocessableEntity, form)
	case errors.Is(err, transfer.ErrInFlight):
		p.renderForm(w, http.StatusConflict, form)
	default:
		p.renderForm(w, http.StatusOK, form)
	}
}

func (p *pages) renderForm(w http.ResponseWriter, status int, form *transfer.Form) {
	p.rd.render(w, status, "transfer", pageData{Title: "Send money", Body: form.View()})
}

func (p *pages) viewToast(w http.ResponseWriter, r *http.Request) {
	sess := p.sessions.Get(w, r)
	href, ok := sess.Transfer.ViewToast()
	if !ok {
		href = "/transfer"
	}
	http.Redirect(w, r, href, http.StatusSeeOther)
}

func (p *pages) closeToast(w http.ResponseWriter, r *http.Request) {
	sess := p.sessions.Get(w, r)
	sess.Transfer.DismissToast()
	http.Redirect(w, r, "/transfer", http.StatusSeeOther)
}

func (p *pages) notFound(w http.ResponseWriter, r *http.Request) {
	p.rd.render(w, http.StatusNotFound, "not_found", pageData{
		Title: "Not found",
		Body:  messageBody{Message: "Page not found."},
	})
}
