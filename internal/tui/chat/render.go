package chat

import (
	"fmt"
	"strings"

	"medchat/internal/markup"
	"medchat/internal/tui/session"
	"medchat/internal/tui/theme"
)

// renderEntry lays out one transcript turn: a role label followed by the
// formatted message body.
func renderEntry(entry session.Entry, th theme.Theme, width int) string {
	var label, body string
	if entry.Role == session.RoleUser {
		label = th.UserLabel.Render("You")
		body = th.UserBubble.Render(entry.Text)
	} else {
		label = th.BotLabel.Render("Assistant")
		body = renderMarkup(entry.Text, th)
	}
	block := label + "\n" + body
	if width > 4 {
		block = th.Border.Width(width - 4).Render(block)
	}
	return block
}

// renderMarkup converts the assistant's lightweight markup into styled
// terminal text: emphasis markers become bold/italic, list lines get
// their glyphs normalized and numbering restored.
func renderMarkup(raw string, th theme.Theme) string {
	var out strings.Builder
	blocks := markup.Blocks(raw)
	for i, block := range blocks {
		if i > 0 {
			out.WriteString("\n")
		}
		switch block.Kind {
		case markup.BlockUnordered:
			for j, line := range block.Lines {
				if j > 0 {
					out.WriteString("\n")
				}
				out.WriteString(th.ListMarker.Render("  • "))
				out.WriteString(renderSpans(line, th))
			}
		case markup.BlockOrdered:
			for j, line := range block.Lines {
				if j > 0 {
					out.WriteString("\n")
				}
				out.WriteString(th.ListMarker.Render(fmt.Sprintf("  %d. ", j+1)))
				out.WriteString(renderSpans(line, th))
			}
		default:
			for j, line := range block.Lines {
				if j > 0 {
					out.WriteString("\n")
				}
				out.WriteString(renderSpans(line, th))
			}
		}
	}
	return th.BotBubble.Render(out.String())
}

func renderSpans(line string, th theme.Theme) string {
	var out strings.Builder
	for _, span := range markup.Spans(line) {
		switch {
		case span.Strong:
			out.WriteString(th.Strong.Render(span.Text))
		case span.Emph:
			out.WriteString(th.Emph.Render(span.Text))
		default:
			out.WriteString(span.Text)
		}
	}
	return out.String()
}
