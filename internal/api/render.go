package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/bank-demo-web/internal/api/httpx"
	"github.com/baharkarakas/bank-demo-web/internal/format"
	"github.com/baharkarakas/bank-demo-web/internal/transfer"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"accounts", "account", "not_found", "transfers", "transfer"}

type pageData struct {
	Title        string
	Refresh      int
	Year         int
	ToastSeconds int
	Body         any
}

type renderer struct {
	pages map[string]*template.Template
	log   *slog.Logger
}

func newRenderer(log *slog.Logger) (*renderer, error) {
	funcs := template.FuncMap{
		"currency": format.Currency,
		"date":     format.Date,
	}
	rd := &renderer{pages: map[string]*template.Template{}, log: log}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		rd.pages[name] = t
	}
	return rd, nil
}

func (rd *renderer) render(w http.ResponseWriter, status int, name string, data pageData) {
	t, ok := rd.pages[name]
	if !ok {
		rd.log.Error("unknown page", "page", name)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}
	data.Year = time.Now().Year()
	data.ToastSeconds = int(transfer.ToastTTL / time.Second)

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		rd.log.Error("render", "page", name, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}
	httpx.WriteHTML(w, status, &buf)
}
