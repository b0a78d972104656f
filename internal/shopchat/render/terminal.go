package render

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/longkey1/shopchat/internal/shopchat/catalog"
	"github.com/longkey1/shopchat/internal/shopchat/widget"
)

const descriptionLimit = 72

// Terminal writes transcript entries as styled text. Colors follow the
// writer: a non-terminal writer gets plain text with box drawing only.
type Terminal struct {
	w        io.Writer
	siteURL  string
	markdown *glamour.TermRenderer

	userStyle  lipgloss.Style
	botStyle   lipgloss.Style
	errorStyle lipgloss.Style
	cardStyle  lipgloss.Style
	titleStyle lipgloss.Style
	metaStyle  lipgloss.Style
	starStyle  lipgloss.Style
	matchStyle lipgloss.Style
	linkStyle  lipgloss.Style
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithMarkdown renders bot replies as markdown wrapped at width columns.
// Replies that fail to render are written as plain text.
func WithMarkdown(width int) TerminalOption {
	return func(t *Terminal) {
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return
		}
		t.markdown = md
	}
}

// NewTerminal creates a renderer writing to w.
func NewTerminal(w io.Writer, siteURL string, opts ...TerminalOption) *Terminal {
	r := lipgloss.NewRenderer(w)
	t := &Terminal{
		w:          w,
		siteURL:    siteURL,
		userStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		botStyle:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		errorStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		cardStyle: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		titleStyle: r.NewStyle().Bold(true),
		metaStyle:  r.NewStyle().Foreground(lipgloss.Color("245")),
		starStyle:  r.NewStyle().Foreground(lipgloss.Color("214")),
		matchStyle: r.NewStyle().Foreground(lipgloss.Color("42")),
		linkStyle:  r.NewStyle().Underline(true).Foreground(lipgloss.Color("39")),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Messages writes every entry in order.
func (t *Terminal) Messages(msgs []widget.Message) error {
	for _, m := range msgs {
		if err := t.Message(m); err != nil {
			return err
		}
	}
	return nil
}

// Message writes one entry. Loading placeholders are skipped; the caller
// shows its own progress indicator.
func (t *Terminal) Message(m widget.Message) error {
	var b strings.Builder
	switch {
	case m.Loading:
		return nil
	case m.Role == widget.RoleUser:
		fmt.Fprintf(&b, "%s %s\n", t.userStyle.Render("You>"), sanitize(m.Text))
	case m.Role == widget.RoleError:
		fmt.Fprintf(&b, "%s %s\n", t.errorStyle.Render("Error>"), sanitize(m.Text))
	default:
		fmt.Fprintf(&b, "%s %s\n", t.botStyle.Render("Assistant>"), t.reply(sanitize(m.Text)))
		for _, p := range m.Products {
			b.WriteString(t.card(p))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Terminal) reply(text string) string {
	if t.markdown == nil {
		return text
	}
	out, err := t.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// ProductCard writes a single card.
func (t *Terminal) ProductCard(p catalog.Product) error {
	_, err := io.WriteString(t.w, t.card(p)+"\n")
	return err
}

func (t *Terminal) card(p catalog.Product) string {
	lines := []string{t.titleStyle.Render(sanitize(p.Title))}
	if d := truncate(sanitize(p.Description), descriptionLimit); d != "" {
		lines = append(lines, d)
	}

	meta := []string{}
	if price := sanitize(p.Price.String()); price != "" {
		meta = append(meta, price)
	}
	if brand := sanitize(p.Brand); brand != "" {
		meta = append(meta, brand)
	}
	if len(meta) > 0 {
		lines = append(lines, t.metaStyle.Render(strings.Join(meta, " · ")))
	}

	lines = append(lines, fmt.Sprintf("%s (%d)  %s",
		t.starStyle.Render(StarString(p.Stars())),
		p.NumReviews,
		t.matchStyle.Render(fmt.Sprintf("%d%% match", p.Similarity())),
	))
	if len(p.AvailableSizes) > 0 {
		lines = append(lines, t.metaStyle.Render("Sizes: "+sanitize(p.Sizes())))
	}
	if color := sanitize(p.Color); color != "" {
		lines = append(lines, t.metaStyle.Render("Color: "+color))
	}
	lines = append(lines, t.linkStyle.Render(catalog.DetailURL(t.siteURL, p.ID)))

	return t.cardStyle.Render(strings.Join(lines, "\n"))
}

// StarString draws stars with full, half and empty glyphs.
func StarString(s catalog.Stars) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("★", s.Full))
	if s.Half {
		b.WriteString("⯪")
	}
	b.WriteString(strings.Repeat("☆", s.Empty))
	return b.String()
}

// sanitize removes escape sequences and control characters from store text
// so it cannot drive the terminal. Newlines and tabs are kept.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(s))
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
