package api

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/bank-demo-web/internal/bankapi"
	"github.com/baharkarakas/bank-demo-web/internal/config"
	"github.com/baharkarakas/bank-demo-web/internal/logger"
	"github.com/baharkarakas/bank-demo-web/internal/models"
	"github.com/baharkarakas/bank-demo-web/internal/session"
	"github.com/baharkarakas/bank-demo-web/internal/transfer"
	"github.com/baharkarakas/bank-demo-web/internal/views"
	"github.com/baharkarakas/bank-demo-web/internal/worker"
)

const (
	ibanA = "TR000000000000000000000001"
	ibanB = "TR000000000000000000000002"
)

// fakeBank is a stand-in for the bank service HTTP API.
type fakeBank struct {
	mu        sync.Mutex
	accounts  string
	transfers int
	rejectMsg string
	created   []models.TransferCreate
	lastQuery url.Values
}

func (b *fakeBank) set(fn func(b *fakeBank)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBank) createdSnapshot() []models.TransferCreate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.TransferCreate(nil), b.created...)
}

func (b *fakeBank) query() url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastQuery
}

func (b *fakeBank) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/accounts", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		_, _ = io.WriteString(w, b.accounts)
	})
	mux.HandleFunc("GET /api/accounts/{iban}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("iban") != ibanA {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Account not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"account":{"full_name":"Ayşe Yılmaz","iban":"`+ibanA+`","balance":"1234.56","created_at":"2024-01-02T10:00:00Z"},"transfers":[]}`)
	})
	mux.HandleFunc("GET /api/transfers", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.lastQuery = r.URL.Query()
		n := b.transfers
		b.mu.Unlock()
		rows := make([]string, n)
		for i := range rows {
			rows[i] = fmt.Sprintf(`{"id":%d,"amount":"10.00","from_full_name":"A","from_iban":"%s","to_full_name":"B","to_iban":"%s","created_at":"2024-01-02T10:00:00Z"}`, 100-i, ibanA, ibanB)
		}
		_, _ = io.WriteString(w, "["+strings.Join(rows, ",")+"]")
	})
	mux.HandleFunc("POST /api/transfers", func(w http.ResponseWriter, r *http.Request) {
		var in models.TransferCreate
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.created = append(b.created, in)
		if b.rejectMsg != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"`+b.rejectMsg+`"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42}`)
	})
	return mux
}

type harness struct {
	bank   *fakeBank
	srv    *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bank := &fakeBank{accounts: "[]"}
	upstream := httptest.NewServer(bank.handler())
	t.Cleanup(upstream.Close)

	log := logger.Nop()
	client, err := bankapi.New(upstream.URL, bankapi.WithLogger(log))
	require.NoError(t, err)

	pool := worker.NewPool(1, log)
	t.Cleanup(pool.Stop)
	store := session.NewStore(time.Minute, func(id string) *session.Session {
		return &session.Session{
			Accounts: views.NewAccountsView(),
			Transfer: transfer.NewForm(client, transfer.WithLogger(log)),
		}
	}, pool, log)
	t.Cleanup(store.Close)

	h, err := NewRouter(RouterDeps{
		Cfg: config.Config{
			APITimeout:     time.Second,
			RateRPS:        1000,
			AllowedOrigins: []string{"*"},
		},
		API:      client,
		Sessions: store,
		Log:      log,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{bank: bank, srv: srv, client: &http.Client{Jar: jar}}
}

func (h *harness) get(t *testing.T, path string) (int, string) {
	t.Helper()
	res, err := h.client.Get(h.srv.URL + path)
	require.NoError(t, err)
	return readBody(t, res)
}

func (h *harness) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	res, err := h.client.PostForm(h.srv.URL+path, form)
	require.NoError(t, err)
	return readBody(t, res)
}

func readBody(t *testing.T, res *http.Response) (int, string) {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(b)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	code, body := h.get(t, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestAccountsEmptyStates(t *testing.T) {
	h := newHarness(t)

	code, body := h.get(t, "/?q=zeynep")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, views.MsgNoAccounts)
	assert.NotContains(t, body, views.MsgNoMatch)

	h.bank.set(func(b *fakeBank) {
		b.accounts = `[{"full_name":"Ayşe Yılmaz","iban":"` + ibanA + `","balance":"1234.56","created_at":"2024-01-02T10:00:00Z"}]`
	})
	_, body = h.get(t, "/?q=zeynep")
	assert.Contains(t, body, views.MsgNoMatch)

	_, body = h.get(t, "/?q=ay")
	assert.Contains(t, body, "Ayşe Yılmaz")
	assert.Contains(t, body, "₺1.234,56")
	assert.Contains(t, body, `href="/transfer?from=`+ibanA+`"`)
	assert.Contains(t, body, `href="/?q=ay&amp;sort=asc"`)
}

func TestAccountDetailNotFound(t *testing.T) {
	h := newHarness(t)

	code, body := h.get(t, "/accounts/"+ibanA)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Ayşe Yılmaz")
	assert.Contains(t, body, "No transfers for this account yet.")

	code, body = h.get(t, "/accounts/TR999")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "Account not found.")
}

func TestTransfersPagination(t *testing.T) {
	h := newHarness(t)
	h.bank.set(func(b *fakeBank) { b.transfers = views.TransfersPageSize })

	_, body := h.get(t, "/transfers?page=2&highlight=99")
	assert.Equal(t, "20", h.bank.query().Get("limit"))
	assert.Equal(t, "20", h.bank.query().Get("offset"))
	assert.Contains(t, body, `href="/transfers?page=1"`)
	assert.Contains(t, body, `href="/transfers?page=3"`)
	assert.Equal(t, 1, strings.Count(body, `data-highlight="true"`))

	h.bank.set(func(b *fakeBank) { b.transfers = 3 })
	_, body = h.get(t, "/transfers")
	assert.NotContains(t, body, `href="/transfers?page=2"`)
	assert.NotContains(t, body, `href="/transfers?page=0"`)

	h.bank.set(func(b *fakeBank) { b.transfers = 0 })
	_, body = h.get(t, "/transfers")
	assert.Contains(t, body, views.MsgNoTransfers)
}

func TestTransferSubmitSuccessShowsToast(t *testing.T) {
	h := newHarness(t)

	_, body := h.get(t, "/transfer?from="+ibanA)
	assert.Contains(t, body, `value="`+ibanA+`"`)

	code, body := h.post(t, "/transfer", url.Values{
		"fromIban": {ibanA},
		"toIban":   {strings.ToLower(ibanB)},
		"amount":   {"25.50"},
	})
	// redirected back to the form
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Transfer #42 succeeded.")
	created := h.bank.createdSnapshot()
	require.Len(t, created, 1)
	assert.Equal(t, models.TransferCreate{FromIBAN: ibanA, ToIBAN: ibanB, Amount: "25.50"}, created[0])

	// sender stays, recipient and amount are cleared
	assert.Contains(t, body, `value="`+ibanA+`"`)
	assert.NotContains(t, body, `value="`+ibanB+`"`)

	res, err := (&http.Client{
		Jar:           h.client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}).PostForm(h.srv.URL+"/transfer/toast/view", nil)
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/transfers?highlight=42", res.Header.Get("Location"))

	_, body = h.get(t, "/transfer")
	assert.NotContains(t, body, "Transfer #42 succeeded.")
}

func TestTransferFormAcceptsLowercaseIBAN(t *testing.T) {
	h := newHarness(t)
	_, body := h.get(t, "/transfer")
	assert.Contains(t, body, `data-eligible="false"`)

	m := regexp.MustCompile(`id="toIban" name="toIban"[^>]*pattern="([^"]+)"`).FindStringSubmatch(body)
	require.Len(t, m, 2)
	pattern := regexp.MustCompile(html.UnescapeString(m[1]))
	assert.True(t, pattern.MatchString(strings.ToLower(ibanB)))
	assert.True(t, pattern.MatchString(ibanB))
	assert.False(t, pattern.MatchString("TR1"))
}

func TestTransferSubmitRejected(t *testing.T) {
	h := newHarness(t)
	h.bank.set(func(b *fakeBank) { b.rejectMsg = "Insufficient funds" })

	code, body := h.post(t, "/transfer", url.Values{
		"fromIban": {ibanA},
		"toIban":   {ibanB},
		"amount":   {"9999.00"},
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Insufficient funds")
	assert.Contains(t, body, `value="9999.00"`)
	assert.Contains(t, body, `data-eligible="true"`)
	assert.NotContains(t, body, "succeeded")
}

func TestTransferSubmitInvalidNeverCallsService(t *testing.T) {
	h := newHarness(t)

	code, body := h.post(t, "/transfer", url.Values{
		"fromIban": {ibanA},
		"toIban":   {ibanA},
		"amount":   {"10"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body, "Sender and recipient IBAN cannot be the same.")
	assert.Contains(t, body, "Enter a valid amount.")
	assert.Empty(t, h.bank.createdSnapshot())
}

func TestToastCloseWithoutToast(t *testing.T) {
	h := newHarness(t)
	code, body := h.post(t, "/transfer/toast/close", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Send money")
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	h := newHarness(t)
	code, body := h.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "Page not found.")
}

func TestSortHref(t *testing.T) {
	assert.Equal(t, "/?sort=asc", sortHref("", true))
	assert.Equal(t, "/?q=ay%C5%9Fe&sort=desc", sortHref("ayşe", false))
}
