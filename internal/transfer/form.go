// Package transfer implements the money-transfer form: per-field validation
// state, the single-flight submission and the confirmation toast.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/baharkarakas/bank-demo-web/internal/api/validate"
	"github.com/baharkarakas/bank-demo-web/internal/bankapi"
	"github.com/baharkarakas/bank-demo-web/internal/metrics"
	"github.com/baharkarakas/bank-demo-web/internal/models"
	"github.com/baharkarakas/bank-demo-web/internal/views"
)

type Field string

const (
	FromIBAN Field = "fromIban"
	ToIBAN   Field = "toIban"
	Amount   Field = "amount"
)

var Fields = []Field{FromIBAN, ToIBAN, Amount}

// Tag is the display state of a field. Error text is only ever shown for
// TouchedInvalid.
type Tag int

const (
	Untouched Tag = iota
	TouchedValid
	TouchedInvalid
)

func (t Tag) String() string {
	switch t {
	case TouchedValid:
		return "touched-valid"
	case TouchedInvalid:
		return "touched-invalid"
	default:
		return "untouched"
	}
}

// ToastTTL is how long a confirmation stays up unless dismissed.
const ToastTTL = 6 * time.Second

var (
	ErrNotEligible = errors.New("transfer form is not ready to submit")
	ErrInFlight    = errors.New("a transfer is already being submitted")
)

// Creator is the slice of the bank API the form needs.
type Creator interface {
	CreateTransfer(ctx context.Context, in models.TransferCreate) (models.TransferCreated, error)
}

// Timer is the part of *time.Timer the toast uses.
type Timer interface{ Stop() bool }

type AfterFunc func(d time.Duration, f func()) Timer

type Option func(*Form)

func WithToastTTL(d time.Duration) Option { return func(f *Form) { f.ttl = d } }
func WithAfterFunc(fn AfterFunc) Option   { return func(f *Form) { f.afterFunc = fn } }
func WithLogger(l *slog.Logger) Option    { return func(f *Form) { f.log = l } }

type fieldState struct {
	value   string
	touched bool
}

type Toast struct {
	TransferID int64
}

func (t Toast) Text() string { return fmt.Sprintf("Transfer #%d succeeded.", t.TransferID) }

// Href is where the "view transfer" action leads.
func (t Toast) Href() string { return views.HighlightHref(t.TransferID) }

// Form is one instance of the transfer screen. Safe for concurrent use; at
// most one submission is in flight at a time.
type Form struct {
	api       Creator
	ttl       time.Duration
	afterFunc AfterFunc
	log       *slog.Logger

	mu         sync.Mutex
	fields     map[Field]*fieldState
	submitting bool
	err        string
	toast      *Toast
	toastGen   uint64
	timer      Timer
	closed     bool
}

func NewForm(api Creator, opts ...Option) *Form {
	f := &Form{
		api:       api,
		ttl:       ToastTTL,
		afterFunc: func(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) },
		log:       slog.Default(),
		fields: map[Field]*fieldState{
			FromIBAN: {},
			ToIBAN:   {},
			Amount:   {},
		},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func normalize(name Field, v string) string {
	if name == FromIBAN || name == ToIBAN {
		return strings.ToUpper(v)
	}
	return v
}

func check(name Field, v string) *validate.ErrField {
	if name == Amount {
		return validate.Amount(string(name), v)
	}
	return validate.IBAN(string(name), v)
}

func valid(name Field, v string) bool { return check(name, v) == nil }

// Prefill seeds fromIban from navigation. It keeps applying until the user
// edits the field; empty values are ignored.
func (f *Form) Prefill(from string) {
	from = strings.ToUpper(strings.TrimSpace(from))
	if from == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.fields[FromIBAN]; !st.touched {
		st.value = from
	}
}

// Change records a user edit. Re-entering the current value is not an edit,
// and edits are ignored while a submission is in flight.
func (f *Form) Change(name Field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.fields[name]
	if !ok || f.submitting {
		return
	}
	value = normalize(name, value)
	if value == st.value {
		return
	}
	st.value, st.touched = value, true
}

// pairKey keys the cross-field IBAN error in Errs.
const pairKey = "iban"

// errsLocked collects every rule the current values break. With touchedOnly
// set, field rules are reported only for fields the user has touched.
func (f *Form) errsLocked(touchedOnly bool) validate.Errs {
	var errs validate.Errs
	for _, name := range Fields {
		st := f.fields[name]
		if touchedOnly && !st.touched {
			continue
		}
		if e := check(name, st.value); e != nil {
			errs = append(errs, *e)
		}
	}
	if e := validate.Distinct(pairKey, f.fields[FromIBAN].value, f.fields[ToIBAN].value); e != nil {
		errs = append(errs, *e)
	}
	return errs
}

// Submit sends the transfer once. On success the recipient and amount are
// cleared, fromIban is kept and a toast opens. On failure every value is kept
// and the server message becomes the form error.
func (f *Form) Submit(ctx context.Context) (models.TransferCreated, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		metrics.TransferSubmissions.WithLabelValues("duplicate").Inc()
		return models.TransferCreated{}, ErrInFlight
	}
	if errs := f.errsLocked(false); len(errs) > 0 {
		// surface what blocked the submit
		for _, name := range Fields {
			if st := f.fields[name]; !valid(name, st.value) {
				st.touched = true
			}
		}
		f.mu.Unlock()
		metrics.TransferSubmissions.WithLabelValues("invalid").Inc()
		return models.TransferCreated{}, fmt.Errorf("%w: %w", ErrNotEligible, errs)
	}
	amount, err := validate.NormalizeAmount(f.fields[Amount].value)
	if err != nil {
		f.mu.Unlock()
		return models.TransferCreated{}, fmt.Errorf("normalize amount: %w", err)
	}
	payload := models.TransferCreate{
		FromIBAN: f.fields[FromIBAN].value,
		ToIBAN:   f.fields[ToIBAN].value,
		Amount:   amount,
	}
	f.submitting = true
	f.err = ""
	f.clearToastLocked()
	f.mu.Unlock()

	created, err := f.api.CreateTransfer(ctx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.err = bankapi.Message(err)
		metrics.TransferSubmissions.WithLabelValues("rejected").Inc()
		f.log.Warn("transfer rejected", "from", payload.FromIBAN, "to", payload.ToIBAN, "amount", payload.Amount, "err", f.err)
		return models.TransferCreated{}, err
	}
	*f.fields[ToIBAN] = fieldState{}
	*f.fields[Amount] = fieldState{}
	f.openToastLocked(created.ID)
	metrics.TransferSubmissions.WithLabelValues("created").Inc()
	f.log.Info("transfer created", "id", created.ID, "from", payload.FromIBAN, "to", payload.ToIBAN, "amount", payload.Amount)
	return created, nil
}

func (f *Form) openToastLocked(id int64) {
	f.clearToastLocked()
	if f.closed {
		return
	}
	gen := f.toastGen
	f.toast = &Toast{TransferID: id}
	f.timer = f.afterFunc(f.ttl, func() { f.expireToast(gen) })
}

// clearToastLocked drops the toast and cancels its timer. Bumping the
// generation makes a timer that already fired a no-op.
func (f *Form) clearToastLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.toast = nil
	f.toastGen++
}

func (f *Form) expireToast(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.toastGen {
		return
	}
	f.toast = nil
	f.timer = nil
}

func (f *Form) DismissToast() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearToastLocked()
}

// ViewToast closes the toast and returns the link to the highlighted
// transfer. ok is false when no toast is open.
func (f *Form) ViewToast() (href string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toast == nil {
		return "", false
	}
	href = f.toast.Href()
	f.clearToastLocked()
	return href, true
}

// Close cancels pending timers. The form keeps answering View afterwards.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.clearToastLocked()
}

type FieldView struct {
	Name  Field
	Value string
	Tag   Tag
	Error string
}

// View is a render-ready copy of the form state.
type View struct {
	From, To, Amount FieldView
	SameIBAN         string
	Eligible         bool
	Submitting       bool
	Error            string
	Toast            *Toast
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	shown := f.errsLocked(true)
	field := func(name Field) FieldView {
		st := f.fields[name]
		fv := FieldView{Name: name, Value: st.value, Error: shown.For(string(name))}
		switch {
		case !st.touched:
			fv.Tag = Untouched
		case fv.Error == "":
			fv.Tag = TouchedValid
		default:
			fv.Tag = TouchedInvalid
		}
		return fv
	}
	v := View{
		From:       field(FromIBAN),
		To:         field(ToIBAN),
		Amount:     field(Amount),
		SameIBAN:   shown.For(pairKey),
		Eligible:   len(f.errsLocked(false)) == 0 && !f.submitting,
		Submitting: f.submitting,
		Error:      f.err,
	}
	if f.toast != nil {
		t := *f.toast
		v.Toast = &t
	}
	return v
}
