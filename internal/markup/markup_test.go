package markup

import (
	"strings"
	"testing"
)

func TestFormatPlainTextKeepsContent(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"hello":           "hello",
		"line one\ntwo":   "line one<br>two",
		"a\n\nb":          "a<br><br>b",
		"dash-inside ok":  "dash-inside ok",
		"* not emphasis":  "* not emphasis",
		"1.no space here": "1.no space here",
	}
	for input, want := range cases {
		if got := Format(input); got != want {
			t.Errorf("Format(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatEmphasis(t *testing.T) {
	cases := map[string]string{
		"**a**":           "<strong>a</strong>",
		"*a*":             "<em>a</em>",
		"**a** *b*":       "<strong>a</strong> <em>b</em>",
		"x **b** y":       "x <strong>b</strong> y",
		"**a** and **b**": "<strong>a</strong> and <strong>b</strong>",
	}
	for input, want := range cases {
		if got := Format(input); got != want {
			t.Errorf("Format(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatUnorderedList(t *testing.T) {
	got := Format("- one\n- two\ntext")
	want := "<ul><li>one</li><li>two</li></ul>text"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatOrderedListStripsPrefixes(t *testing.T) {
	got := Format("1. first\n2. second")
	want := "<ol><li>first</li><li>second</li></ol>"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatListKindChangeClosesContainer(t *testing.T) {
	got := Format("- a\n1. b")
	want := "<ul><li>a</li></ul><ol><li>b</li></ol>"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatTrailingListClosedOnce(t *testing.T) {
	got := Format("- only")
	want := "<ul><li>only</li></ul>"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestFormatUnknownGlyphStaysLiteral(t *testing.T) {
	got := Format("▪ square bullet")
	if strings.Contains(got, "<li>") {
		t.Fatalf("unexpected list container in %q", got)
	}
}

// Every opened container must be closed, whatever the input shape.
func TestFormatContainersBalanced(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"- a\n- b",
		"1. a\ntext\n- b",
		"text\n- a\n1. b\n2. c\nmore",
		"- a\n\n- b",
		"**bold**\n- *item*\n3. end",
	}
	for _, input := range inputs {
		out := Format(input)
		for _, tag := range []string{"ul", "ol"} {
			open := strings.Count(out, "<"+tag+">")
			closed := strings.Count(out, "</"+tag+">")
			if open != closed {
				t.Errorf("Format(%q): %d <%s> but %d </%s>", input, open, tag, closed, tag)
			}
		}
	}
}

func TestBlocksGrouping(t *testing.T) {
	blocks := Blocks("intro\n- a\n- b\noutro")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0].Kind != BlockText || blocks[0].Lines[0] != "intro" {
		t.Fatalf("unexpected first block: %+v", blocks[0])
	}
	if blocks[1].Kind != BlockUnordered || len(blocks[1].Lines) != 2 {
		t.Fatalf("unexpected list block: %+v", blocks[1])
	}
	if blocks[1].Lines[0] != "a" || blocks[1].Lines[1] != "b" {
		t.Fatalf("bullet prefixes not stripped: %+v", blocks[1].Lines)
	}
	if blocks[2].Kind != BlockText || blocks[2].Lines[0] != "outro" {
		t.Fatalf("unexpected last block: %+v", blocks[2])
	}
}

func TestBlocksEmptyInput(t *testing.T) {
	if blocks := Blocks(""); blocks != nil {
		t.Fatalf("expected nil blocks, got %+v", blocks)
	}
}

func TestSpans(t *testing.T) {
	spans := Spans("say **loud** and *soft* end")
	want := []Span{
		{Text: "say "},
		{Text: "loud", Strong: true},
		{Text: " and "},
		{Text: "soft", Emph: true},
		{Text: " end"},
	}
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d: %+v", len(want), len(spans), spans)
	}
	for i, s := range spans {
		if s != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, s, want[i])
		}
	}
}

func TestSpansPlain(t *testing.T) {
	spans := Spans("no markers")
	if len(spans) != 1 || spans[0] != (Span{Text: "no markers"}) {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}
