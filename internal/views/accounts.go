package views

import (
	"slices"
	"strings"
	"sync"

	"github.com/baharkarakas/bank-demo-web/internal/bankapi"
	"github.com/baharkarakas/bank-demo-web/internal/models"
)

const (
	MsgNoMatch    = "No accounts match your search."
	MsgNoAccounts = "No accounts yet."
)

// DeriveAccounts filters accounts whose name or IBAN contains search
// (case-insensitive, trimmed; blank keeps everything) and orders them by
// created_at, newest first unless ascending. The sort is stable and the
// input slice is never modified.
func DeriveAccounts(accounts []models.Account, search string, ascending bool) []models.Account {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		if term == "" ||
			strings.Contains(strings.ToLower(a.FullName), term) ||
			strings.Contains(strings.ToLower(a.IBAN), term) {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Account) int {
		c := a.CreatedTime().Compare(b.CreatedTime())
		if !ascending {
			c = -c
		}
		return c
	})
	return out
}

type memoKey struct {
	first     *models.Account
	n         int
	search    string
	ascending bool
}

func keyOf(accounts []models.Account, search string, ascending bool) memoKey {
	k := memoKey{n: len(accounts), search: search, ascending: ascending}
	if len(accounts) > 0 {
		k.first = &accounts[0]
	}
	return k
}

// AccountsMemo caches the last DeriveAccounts result keyed by the identity
// of the input slice and the two local inputs.
type AccountsMemo struct {
	mu     sync.Mutex
	key    memoKey
	ok     bool
	result []models.Account
}

func (m *AccountsMemo) Derive(accounts []models.Account, search string, ascending bool) []models.Account {
	k := keyOf(accounts, search, ascending)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ok && m.key == k {
		return m.result
	}
	m.key, m.ok = k, true
	m.result = DeriveAccounts(accounts, search, ascending)
	return m.result
}

type Status string

const (
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

// AccountsState is everything the accounts page needs to render.
type AccountsState struct {
	Status    Status
	Rows      []models.Account
	Error     string
	Empty     string
	Search    string
	Ascending bool
}

// AccountsView is the per-session accounts screen: a remote snapshot plus a
// memoized derivation over it.
type AccountsView struct {
	Remote *Resource[[]models.Account]
	memo   AccountsMemo
}

func NewAccountsView() *AccountsView {
	return &AccountsView{Remote: NewResource[[]models.Account]("accounts")}
}

func (v *AccountsView) Render(search string, ascending bool) AccountsState {
	snap := v.Remote.Snapshot()
	st := AccountsState{Search: search, Ascending: ascending}
	if snap.Err != nil {
		st.Status = StatusError
		st.Error = bankapi.Message(snap.Err)
	}
	if !snap.HasData {
		if snap.Err == nil {
			st.Status = StatusLoading
		}
		return st
	}
	if st.Status == "" {
		st.Status = StatusLoaded
	}
	st.Rows = v.memo.Derive(snap.Data, search, ascending)
	if len(st.Rows) == 0 {
		if strings.TrimSpace(search) != "" && len(snap.Data) > 0 {
			st.Empty = MsgNoMatch
		} else {
			st.Empty = MsgNoAccounts
		}
	}
	return st
}
