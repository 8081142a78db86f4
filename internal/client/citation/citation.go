// Package citation splits assistant answers into prose and inline source
// markers of the form "[Source: <name>, Page: <digits>]".
//
// Split is pure and lossless: Join(Split(s)) == s for every s. Markers that
// do not match exactly (for example a non-numeric page) stay in the prose.
package citation

import (
	"fmt"
	"regexp"
	"strings"
)

var markerRe = regexp.MustCompile(`\[Source: ([^\]]*?), Page: (\d+)\]`)

type Kind int

const (
	Prose Kind = iota
	Citation
)

func (k Kind) String() string {
	if k == Citation {
		return "citation"
	}
	return "prose"
}

// Segment is one piece of a split message. For prose, Text is the chunk
// and Formatted may hold its rendered form. For citations, Source and Page
// are the captured parts and Text is the whole marker.
type Segment struct {
	Kind      Kind
	Text      string
	Source    string
	Page      string
	Formatted string
}

// Raw returns the exact input text the segment came from.
func (s Segment) Raw() string {
	if s.Kind == Citation {
		return Marker(s.Source, s.Page)
	}
	return s.Text
}

// Label is the short form shown on a citation chip.
func (s Segment) Label() string {
	return fmt.Sprintf("%s, p. %s", s.Source, s.Page)
}

// Marker builds the inline marker for source and page.
func Marker(source, page string) string {
	return "[Source: " + source + ", Page: " + page + "]"
}

func Split(content string) []Segment {
	matches := markerRe.FindAllStringSubmatchIndex(content, -1)
	segs := make([]Segment, 0, 2*len(matches)+1)

	last := 0
	for _, m := range matches {
		if m[0] > last {
			segs = append(segs, Segment{Kind: Prose, Text: content[last:m[0]]})
		}
		segs = append(segs, Segment{
			Kind:   Citation,
			Text:   content[m[0]:m[1]],
			Source: content[m[2]:m[3]],
			Page:   content[m[4]:m[5]],
		})
		last = m[1]
	}
	if last < len(content) {
		segs = append(segs, Segment{Kind: Prose, Text: content[last:]})
	}
	return segs
}

// Join concatenates the raw text of segs.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Raw())
	}
	return b.String()
}

// Sources lists the distinct cited sources in first-seen order.
func Sources(segs []Segment) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range segs {
		if s.Kind == Citation && !seen[s.Source] {
			seen[s.Source] = true
			out = append(out, s.Source)
		}
	}
	return out
}
