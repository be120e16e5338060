package view

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	UserID      int64
	Permissions []string
	Data        any
}

// Can reports whether the signed-in user holds perm. Used to toggle navigation links.
func (d TemplateData) Can(perm string) bool {
	for _, p := range d.Permissions {
		if strings.EqualFold(p, perm) {
			return true
		}
	}
	return false
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(funcMap()).ParseFS(web.Templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
		"templates/pages/*/*.html",
		"templates/exports/*.html",
	)
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// RenderTo executes a named template with arbitrary data, e.g. documents sent to the PDF converter.
func (e *Engine) RenderTo(w io.Writer, name string, data any) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(w, name, data)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"day":       formatDay,
		"money":     shared.FormatMoney,
		"monthName": monthName,
		"text": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"decimal": func(d decimal.Decimal) string {
			return d.String()
		},
	}
}

func formatDay(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return formatDay(*t)
	}
	return ""
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()
}
