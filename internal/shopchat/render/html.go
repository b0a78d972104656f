// Package render turns the widget transcript into something a person can
// look at: escaped HTML for browsers and styled text for terminals.
package render

import (
	"embed"
	"html/template"
	"io"
	"io/fs"

	"github.com/longkey1/shopchat/internal/shopchat/catalog"
	"github.com/longkey1/shopchat/internal/shopchat/widget"
	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the widget's stylesheet and other assets, rooted at "static".
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page is everything the full widget page needs.
type Page struct {
	Title          string
	Welcome        string
	Placeholder    string
	AskPath        string
	StylesheetPath string
	RefreshSeconds int
	Busy           bool
	Messages       []widget.Message
}

// Empty reports whether the welcome section should be shown.
func (p Page) Empty() bool {
	return len(p.Messages) == 0
}

// HTML renders transcript views. All interpolated text is escaped by
// html/template; product cards link to the store's detail pages.
type HTML struct {
	tmpl *template.Template
}

// NewHTML parses the embedded templates. siteURL is the store root used for
// product links; empty yields site-relative links.
func NewHTML(siteURL string) (*HTML, error) {
	funcs := template.FuncMap{
		"detailURL": func(id int) string {
			return catalog.DetailURL(siteURL, id)
		},
		"times": func(n int) []struct{} {
			if n < 0 {
				n = 0
			}
			return make([]struct{}, n)
		},
	}
	tmpl, err := template.New("widget").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing widget templates")
	}
	return &HTML{tmpl: tmpl}, nil
}

// Page writes the full widget page.
func (h *HTML) Page(w io.Writer, p Page) error {
	return h.execute(w, "page", p)
}

// Messages writes the transcript entries only.
func (h *HTML) Messages(w io.Writer, msgs []widget.Message) error {
	return h.execute(w, "messages", msgs)
}

// Message writes one transcript entry.
func (h *HTML) Message(w io.Writer, m widget.Message) error {
	return h.execute(w, "message", m)
}

// ProductCard writes one product card.
func (h *HTML) ProductCard(w io.Writer, p catalog.Product) error {
	return h.execute(w, "product", p)
}

func (h *HTML) execute(w io.Writer, name string, data any) error {
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return errors.Wrapf(err, "rendering %s", name)
	}
	return nil
}
