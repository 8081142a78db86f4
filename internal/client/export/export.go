// Package export writes a project's conversation history as a standalone
// HTML page.
package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dmitrijs2005/researcher/internal/client/citation"
	"github.com/dmitrijs2005/researcher/internal/client/models"
)

//go:embed page.html.tmpl
var pageTemplate string

var page = template.Must(template.New("page").Funcs(template.FuncMap{
	"when": func(t models.Timestamp) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04")
	},
}).Parse(pageTemplate))

// History is what gets exported.
type History struct {
	Project     models.Project
	Chat        []models.ChatMessage
	Research    []models.ChatMessage
	GeneratedAt time.Time
}

type part struct {
	HTML     template.HTML
	Citation bool
	Label    string
	Title    string
}

type entry struct {
	Role      models.Role
	CreatedAt models.Timestamp
	Parts     []part
}

type pageData struct {
	Project     models.Project
	Chat        []entry
	Research    []entry
	GeneratedAt string
}

// Renderer turns messages into sanitized HTML.
type Renderer struct {
	inline citation.Formatter
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	return &Renderer{
		inline: citation.NewMarkdownFormatter(),
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

func (r *Renderer) Write(w io.Writer, h History) error {
	data := pageData{
		Project:     h.Project,
		GeneratedAt: h.GeneratedAt.UTC().Format(time.RFC3339),
	}

	var err error
	if data.Chat, err = r.entries(h.Chat, true); err != nil {
		return err
	}
	if data.Research, err = r.entries(h.Research, false); err != nil {
		return err
	}

	return page.Execute(w, data)
}

// WriteFile renders h into path, replacing any existing file.
func (r *Renderer) WriteFile(path string, h History) error {
	var buf bytes.Buffer
	if err := r.Write(&buf, h); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) entries(msgs []models.ChatMessage, citations bool) ([]entry, error) {
	out := make([]entry, 0, len(msgs))
	for _, m := range msgs {
		e := entry{Role: m.Role, CreatedAt: m.CreatedAt}

		if citations && m.Role == models.RoleAssistant {
			segs, err := citation.Render(m.Content, r.inline)
			if err != nil {
				return nil, err
			}
			for _, s := range segs {
				if s.Kind == citation.Citation {
					e.Parts = append(e.Parts, part{Citation: true, Label: s.Label(), Title: s.Raw()})
					continue
				}
				e.Parts = append(e.Parts, part{HTML: template.HTML(s.Formatted)})
			}
		} else {
			html, err := r.block(m.Content)
			if err != nil {
				return nil, err
			}
			e.Parts = []part{{HTML: html}}
		}

		out = append(out, e)
	}
	return out, nil
}

func (r *Renderer) block(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return template.HTML(r.policy.Sanitize(buf.String())), nil
}
