package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/researcher/internal/client/citation"
	"github.com/dmitrijs2005/researcher/internal/client/models"
	"github.com/dmitrijs2005/researcher/internal/client/notify"
)

var (
	chipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1f3d0c")).
			Background(lipgloss.Color("#c5e1a5")).
			Padding(0, 1)

	roleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))

	toastStyles = map[notify.Severity]lipgloss.Style{
		notify.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")),
		notify.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#5fd75f")),
		notify.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")).Bold(true),
	}
)

// chipPlaceholder survives markdown rendering as a single word and is
// swapped for the styled chip afterwards.
const chipPlaceholder = "CITEREF%dX"

// renderer formats messages for the terminal. A nil md prints markdown
// as-is, which keeps piped output and tests free of escape codes.
type renderer struct {
	md *glamour.TermRenderer
}

func newRenderer(plain bool, width int) *renderer {
	if plain {
		return &renderer{}
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &renderer{}
	}
	return &renderer{md: md}
}

func (r *renderer) markdown(content string) string {
	if r.md == nil {
		return strings.TrimRight(content, "\n") + "\n"
	}
	out, err := r.md.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}

func chip(s citation.Segment) string {
	return chipStyle.Render(s.Label())
}

// cited renders an assistant answer with each source marker shown as a
// chip in place.
func (r *renderer) cited(content string) string {
	segs := citation.Split(content)

	var (
		b     strings.Builder
		chips []string
	)
	for _, s := range segs {
		if s.Kind == citation.Citation {
			fmt.Fprintf(&b, chipPlaceholder, len(chips))
			chips = append(chips, chip(s))
			continue
		}
		b.WriteString(s.Text)
	}

	out := r.markdown(b.String())
	for i := len(chips) - 1; i >= 0; i-- {
		out = strings.ReplaceAll(out, fmt.Sprintf(chipPlaceholder, i), chips[i])
	}
	return out
}

// message renders one history entry. Only quick-chat answers carry chips.
func (r *renderer) message(m models.ChatMessage, kind models.MessageType) string {
	head := roleStyle.Render(roleLabel(m.Role))
	if !m.CreatedAt.IsZero() {
		head += " " + dimStyle.Render(m.CreatedAt.Local().Format("2006-01-02 15:04"))
	}

	var body string
	switch {
	case m.Role == models.RoleAssistant && kind == models.MessageTypeChat:
		body = r.cited(m.Content)
	default:
		body = r.markdown(m.Content)
	}
	return head + "\n" + body
}

func roleLabel(role models.Role) string {
	if role == models.RoleUser {
		return "You"
	}
	return "Assistant"
}

func toastLine(t notify.Toast) string {
	style, ok := toastStyles[t.Severity]
	if !ok {
		style = toastStyles[notify.SeverityInfo]
	}
	return style.Render(fmt.Sprintf("[%s] %s", t.Severity, t.Message))
}

// analysisMarkdown lays out a gap analysis as a markdown document.
func analysisMarkdown(a *models.Analysis) string {
	var b strings.Builder

	list := func(title string, items []string) {
		fmt.Fprintf(&b, "## %s\n\n", title)
		if len(items) == 0 {
			b.WriteString("_None identified._\n\n")
			return
		}
		for _, it := range items {
			fmt.Fprintf(&b, "- %s\n", it)
		}
		b.WriteString("\n")
	}

	list("Research gaps", a.ResearchGaps)

	b.WriteString("## Methodology suggestions\n\n")
	if len(a.MethodologySuggestions) == 0 {
		b.WriteString("_None identified._\n\n")
	}
	for _, s := range a.MethodologySuggestions {
		fmt.Fprintf(&b, "- **%s**: %s", s.Action, s.Reasoning)
		if len(s.Citations) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(s.Citations, "; "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	list("Common approaches", a.CommonApproaches)
	list("Missing evaluations", a.MissingEvaluations)
	list("Unexplored scenarios", a.UnexploredScenarios)

	return b.String()
}
