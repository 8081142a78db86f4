package citation

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Formatter renders one prose chunk.
type Formatter interface {
	Format(prose string) (string, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(string) (string, error)

func (f FormatterFunc) Format(s string) (string, error) { return f(s) }

// MarkdownFormatter renders prose as GitHub-flavoured markdown to sanitized
// HTML. Paragraphs become spans so the result flows inline with the
// citation chips around it.
type MarkdownFormatter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

var inlineParagraphs = strings.NewReplacer("<p>", "<span>", "</p>", "</span>")

func (f *MarkdownFormatter) Format(prose string) (string, error) {
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(prose), &buf); err != nil {
		return "", err
	}
	html := inlineParagraphs.Replace(buf.String())
	return strings.TrimRight(f.policy.Sanitize(html), "\n"), nil
}

// Render splits content and fills Formatted for every prose segment.
func Render(content string, f Formatter) ([]Segment, error) {
	segs := Split(content)
	for i := range segs {
		if segs[i].Kind != Prose {
			continue
		}
		out, err := f.Format(segs[i].Text)
		if err != nil {
			return nil, err
		}
		segs[i].Formatted = out
	}
	return segs, nil
}
