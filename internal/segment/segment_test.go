package segment

import (
	"strings"
	"testing"

	"github.com/pdiddy/question-engine/pkg/types"
)

func mustPatterns(t *testing.T, cfg types.PatternConfig) *Patterns {
	t.Helper()
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewRejectsBadLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels string
	}{
		{"lowercase label", "abcd"},
		{"digit label", "A1"},
		{"duplicate label", "AAB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(types.PatternConfig{OptionLabels: tt.labels}); err == nil {
				t.Errorf("New(%q) succeeded, want error", tt.labels)
			}
		})
	}
}

func TestSegmentWellFormedQuestions(t *testing.T) {
	p := mustPatterns(t, types.PatternConfig{})

	text := "1. What is 2+2?\nA. 3\nB. 4\nC. 5\nD. 6\n2) Name the capital of France.\nA) Lyon\nB) Paris"
	blocks, warnings := p.Segment(0, text)

	if len(warnings) != 0 {
		t.Errorf("got %d warnings, want 0: %v", len(warnings), warnings)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}

	b := blocks[0]
	if b.Number != 1 {
		t.Errorf("blocks[0].Number = %d, want 1", b.Number)
	}
	if b.Stem != "What is 2+2?" {
		t.Errorf("blocks[0].Stem = %q, want %q", b.Stem, "What is 2+2?")
	}
	if len(b.Options) != 4 {
		t.Fatalf("blocks[0]: got %d options, want 4", len(b.Options))
	}
	for i, want := range []types.Option{
		{Label: "A", Text: "3"},
		{Label: "B", Text: "4"},
		{Label: "C", Text: "5"},
		{Label: "D", Text: "6"},
	} {
		if b.Options[i] != want {
			t.Errorf("blocks[0].Options[%d] = %+v, want %+v", i, b.Options[i], want)
		}
	}

	b = blocks[1]
	if b.Number != 2 {
		t.Errorf("blocks[1].Number = %d, want 2", b.Number)
	}
	if b.Stem != "Name the capital of France." {
		t.Errorf("blocks[1].Stem = %q", b.Stem)
	}
	if len(b.Options) != 2 || b.Options[1].Text != "Paris" {
		t.Errorf("blocks[1].Options = %+v", b.Options)
	}
}

// Segmenting N well-formed numbered questions must produce exactly N
// blocks with matching numbers, in encounter order.
func TestSegmentEncounterOrder(t *testing.T) {
	p := mustPatterns(t, types.PatternConfig{})

	// Numbers neither contiguous nor sorted; order of appearance wins.
	text := "7. seventh\n3. third\n12. twelfth"
	blocks, _ := p.Segment(2, text)

	want := []int{7, 3, 12}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(blocks), len(want))
	}
	for i, n := range want {
		if blocks[i].Number != n {
			t.Errorf("blocks[%d].Number = %d, want %d", i, blocks[i].Number, n)
		}
		if blocks[i].PageIndex != 2 {
			t.Errorf("blocks[%d].PageIndex = %d, want 2", i, blocks[i].PageIndex)
		}
	}
}

func TestSegmentNoMatches(t *testing.T) {
	p := mustPatterns(t, types.PatternConfig{})

	blocks, warnings := p.Segment(4, "Instructions: answer all questions in ink.")
	if len(blocks) != 0 {
		t.Errorf("got %d blocks, want 0", len(blocks))
	}
	if len(warnings) != 1 || warnings[0].Kind != types.WarnSegmentation {
		t.Fatalf("warnings = %v, want one segmentation warning", warnings)
	}
	if warnings[0].Page != 4 {
		t.Errorf("warning page = %d, want 4", warnings[0].Page)
	}
}

func TestSegmentNoOptions(t *testing.T) {
	p := mustPatterns(t, types.PatternConfig{})

	blocks, _ := p.Segment(0, "5. Explain photosynthesis in your own words.")
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if len(blocks[0].Options) != 0 {
		t.Errorf("got %d options, want 0", len(blocks[0].Options))
	}
	if blocks[0].Stem != "Explain photosynthesis in your own words." {
		t.Errorf("Stem = %q", blocks[0].Stem)
	}
}

func TestSegmentRepeatedOptionLabel(t *testing.T) {
	p := mustPatterns(t, types.PatternConfig{})

	text := "9. Pick one.\nA. first\nA. second\nB. other"
	blocks, warnings := p.Segment(0, text)

	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	opts := blocks[0].Options
	if len(opts) != 2 {
		t.Fatalf("got %d options, want 2: %+v", len(opts), opts)
	}
	if opts[0].Label != "A" || opts[0].Text != "first second" {
		t.Errorf("Options[0] = %+v, want folded A option", opts[0])
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "repeated option label") {
		t.Errorf("warnings = %v, want repeated-label warning", warnings)
	}
}

func TestSegmentExtendedAlphabetAndDelimiters(t *testing.T) {
	p := mustPatterns(t, types.PatternConfig{OptionLabels: "ABCDE", Delimiters: ")"})

	text := "1) Which?\nE) the fifth"
	blocks, _ := p.Segment(0, text)
	if len(blocks) != 1 || len(blocks[0].Options) != 1 {
		t.Fatalf("blocks = %+v", blocks)
	}
	if blocks[0].Options[0].Label != "E" {
		t.Errorf("label = %q, want E", blocks[0].Options[0].Label)
	}

	// "1." must not match when only ")" is a delimiter.
	blocks, _ = p.Segment(0, "1. dotted numbering")
	if len(blocks) != 0 {
		t.Errorf("dot delimiter matched with delimiters=%q", ")")
	}
}

func TestSegmentNumberMidSentenceAtLineStart(t *testing.T) {
	p := mustPatterns(t, types.PatternConfig{})

	// A line-start number mid-prose is an accepted false-positive source.
	text := "1. The year\n1999. marked the start of something."
	blocks, _ := p.Segment(0, text)
	if len(blocks) != 1 {
		// 1999 has four digits and is rejected by the 1-3 digit pattern.
		t.Errorf("got %d blocks, want 1", len(blocks))
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapse whitespace", "a  b\n\nc\td", "a b c d"},
		{"trim", "  hello  ", "hello"},
		{"control characters dropped", "he\x00llo\x07 world", "hello world"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Cleaning already-cleaned text must not change it.
func TestCleanIdempotent(t *testing.T) {
	p := mustPatterns(t, types.PatternConfig{})

	inputs := []string{
		"What is 2+2?",
		"  spaced\n\nout\ttext  ",
		"9. stem Ans [B] trailing key",
		"",
	}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Errorf("Clean not idempotent: %q -> %q -> %q", in, once, twice)
		}
		stemOnce := p.CleanStem(in)
		if stemTwice := p.CleanStem(stemOnce); stemTwice != stemOnce {
			t.Errorf("CleanStem not idempotent: %q -> %q -> %q", in, stemOnce, stemTwice)
		}
	}
}

func TestCleanStemArtifacts(t *testing.T) {
	p := mustPatterns(t, types.PatternConfig{})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"answer key", "What is 2+2? Ans [B]", "What is 2+2?"},
		{"bracketed echo", "Pick the graph [A] shown below", "Pick the graph"},
		{"section heading", "Last question here SECTION B follows", "Last question here"},
		{"answer word", "Compute the value. Ans 42", "Compute the value."},
		{"no artifacts", "Plain stem text.", "Plain stem text."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.CleanStem(tt.in); got != tt.want {
				t.Errorf("CleanStem(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
