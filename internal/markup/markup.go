// Package markup turns raw assistant/user text into render-ready structure.
//
// The formatter is pure and total: malformed input degrades to literal text,
// it never fails. Format produces HTML-ish markup for the browser page;
// Blocks exposes the intermediate block sequence so the terminal client can
// style the same structure with lipgloss instead of tags.
package markup

import (
	"regexp"
	"strings"
)

const lineBreak = "<br>"

// Bold must be resolved before italic so a single * inside a bold span is
// not consumed twice.
var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
)

type LineKind int

const (
	LineText LineKind = iota
	LineUnordered
	LineOrdered
)

// classifyLine tags one line. Recognized bullets are "- " and "• " only;
// other glyphs stay literal text. Nested lists are not supported, a list
// item is always one flat level.
func classifyLine(line string) (LineKind, string) {
	if rest, ok := strings.CutPrefix(line, "- "); ok {
		return LineUnordered, rest
	}
	if rest, ok := strings.CutPrefix(line, "• "); ok {
		return LineUnordered, rest
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && strings.HasPrefix(line[i:], ". ") {
		return LineOrdered, line[i+2:]
	}
	return LineText, line
}

// Format renders raw text as markup: newlines become break markers, **…**
// becomes <strong>, *…* becomes <em>, bullet and numbered lines fold into
// <ul>/<ol> containers. Adjacent items of the same kind share one container;
// a text line or a kind change closes the open container; a container still
// open after the last line is closed exactly once.
func Format(raw string) string {
	if raw == "" {
		return ""
	}
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", lineBreak)
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")

	var (
		b        strings.Builder
		open     LineKind = LineText // LineText means no container open
		prevText          = false
	)
	closeOpen := func() {
		switch open {
		case LineUnordered:
			b.WriteString("</ul>")
		case LineOrdered:
			b.WriteString("</ol>")
		}
		open = LineText
	}
	for _, line := range strings.Split(text, lineBreak) {
		kind, content := classifyLine(line)
		switch kind {
		case LineText:
			closeOpen()
			if prevText {
				b.WriteString(lineBreak)
			}
			b.WriteString(content)
			prevText = true
		default:
			if open != kind {
				closeOpen()
				if kind == LineUnordered {
					b.WriteString("<ul>")
				} else {
					b.WriteString("<ol>")
				}
				open = kind
			}
			b.WriteString("<li>")
			b.WriteString(content)
			b.WriteString("</li>")
			prevText = false
		}
	}
	closeOpen()
	return b.String()
}

type BlockKind int

const (
	BlockText BlockKind = iota
	BlockUnordered
	BlockOrdered
)

// Block is one rendered unit: either a run of plain text lines or one list
// container with its items. Emphasis markers are left in place; callers
// style them via Spans.
type Block struct {
	Kind  BlockKind
	Lines []string
}

// Blocks splits raw text into the ordered block sequence Format folds into
// markup. It exists only during one formatting pass and is never persisted.
func Blocks(raw string) []Block {
	if raw == "" {
		return nil
	}
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	var blocks []Block
	push := func(kind BlockKind, line string) {
		if n := len(blocks); n > 0 && blocks[n-1].Kind == kind {
			blocks[n-1].Lines = append(blocks[n-1].Lines, line)
			return
		}
		blocks = append(blocks, Block{Kind: kind, Lines: []string{line}})
	}
	for _, line := range strings.Split(text, "\n") {
		kind, content := classifyLine(line)
		switch kind {
		case LineUnordered:
			push(BlockUnordered, content)
		case LineOrdered:
			push(BlockOrdered, content)
		default:
			push(BlockText, content)
		}
	}
	return blocks
}

// Span is a run of text with uniform emphasis.
type Span struct {
	Text   string
	Strong bool
	Emph   bool
}

// Spans resolves **…** and *…* markers in one line into styled runs,
// bold first, then italic over the remainder.
func Spans(line string) []Span {
	var spans []Span
	appendPlain := func(chunk string) {
		last := 0
		for _, m := range italicRe.FindAllStringSubmatchIndex(chunk, -1) {
			if m[0] > last {
				spans = append(spans, Span{Text: chunk[last:m[0]]})
			}
			spans = append(spans, Span{Text: chunk[m[2]:m[3]], Emph: true})
			last = m[1]
		}
		if last < len(chunk) {
			spans = append(spans, Span{Text: chunk[last:]})
		}
	}
	last := 0
	for _, m := range boldRe.FindAllStringSubmatchIndex(line, -1) {
		if m[0] > last {
			appendPlain(line[last:m[0]])
		}
		spans = append(spans, Span{Text: line[m[2]:m[3]], Strong: true})
		last = m[1]
	}
	if last < len(line) {
		appendPlain(line[last:])
	}
	return spans
}
