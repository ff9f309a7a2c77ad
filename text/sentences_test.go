package text

import (
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func TestNewSplitter(t *testing.T) {
	if tok := NewSplitter(testLogger(t)); tok == nil {
		t.Fatal("Expected tokenizer, got nil")
	}
}

func TestSplit(t *testing.T) {
	t.Run("Nil tokenizer", func(t *testing.T) {
		var tok *Splitter
		result := tok.Split("This is a test. This is another test.")
		if len(result) != 1 {
			t.Errorf("Expected 1 sentence with nil tokenizer, got %d", len(result))
		}
		if result[0] != "This is a test. This is another test." {
			t.Errorf("Expected original text, got %q", result[0])
		}
	})

	t.Run("Simple sentences", func(t *testing.T) {
		tok := NewSplitter(testLogger(t))
		if tok == nil {
			t.Skip("tokenizer not available")
		}
		text := "A trait for objects that can be cloned. Implementors must provide a clone method."
		result := tok.Split(text)
		if len(result) != 2 {
			t.Fatalf("Expected 2 sentences, got %d: %q", len(result), result)
		}
		if result[0] != "A trait for objects that can be cloned. " {
			t.Errorf("First sentence = %q", result[0])
		}
		if result[1] != "Implementors must provide a clone method." {
			t.Errorf("Second sentence = %q", result[1])
		}
	})

	t.Run("Concatenation reproduces input", func(t *testing.T) {
		tok := NewSplitter(testLogger(t))
		if tok == nil {
			t.Skip("tokenizer not available")
		}
		text := "One sentence here.   Another one follows. And a third."
		if got := strings.Join(tok.Split(text), ""); got != text {
			t.Errorf("Joined sentences = %q, want original input", got)
		}
	})

	t.Run("Abbreviations", func(t *testing.T) {
		tok := NewSplitter(testLogger(t))
		if tok == nil {
			t.Skip("tokenizer not available")
		}
		text := "See e.g. the standard library. It has examples."
		result := tok.Split(text)
		if len(result) != 2 {
			t.Errorf("Expected 2 sentences around abbreviation, got %d: %q", len(result), result)
		}
	})
}

func TestSentences(t *testing.T) {
	tok := NewSplitter(testLogger(t))
	if tok == nil {
		t.Skip("tokenizer not available")
	}

	text := "First sentence. Second sentence. Third sentence."

	var collected []string
	for s := range tok.Sentences(text) {
		collected = append(collected, s)
	}

	split := tok.Split(text)
	if len(collected) != len(split) {
		t.Fatalf("Iterator yielded %d sentences, Split returned %d", len(collected), len(split))
	}
	for i := range split {
		if collected[i] != split[i] {
			t.Errorf("sentence %d: iterator %q, Split %q", i, collected[i], split[i])
		}
	}

	t.Run("Early termination", func(t *testing.T) {
		count := 0
		for range tok.Sentences(text) {
			count++
			if count == 2 {
				break
			}
		}
		if count != 2 {
			t.Errorf("Expected break after 2 sentences, got %d", count)
		}
	})
}

func TestWords(t *testing.T) {
	var tok *Splitter

	t.Run("Plain words", func(t *testing.T) {
		var words []string
		for w := range tok.Words("alpha beta gamma", false) {
			words = append(words, w)
		}
		if len(words) != 3 || words[0] != "alpha" || words[2] != "gamma" {
			t.Errorf("Words = %q", words)
		}
	})

	t.Run("NBSP kept by default", func(t *testing.T) {
		var words []string
		for w := range tok.Words("a b c", false) {
			words = append(words, w)
		}
		if len(words) != 2 || words[0] != "a b" {
			t.Errorf("Words = %q, want NBSP joined", words)
		}
	})

	t.Run("NBSP as separator", func(t *testing.T) {
		var words []string
		for w := range tok.Words("a b c", true) {
			words = append(words, w)
		}
		if len(words) != 3 {
			t.Errorf("Words = %q, want 3 words", words)
		}
	})
}

func TestDescription(t *testing.T) {
	tok := NewSplitter(testLogger(t))
	if tok == nil {
		t.Skip("tokenizer not available")
	}

	t.Run("Short text unchanged", func(t *testing.T) {
		got := tok.Description("A short summary.", 100)
		if got != "A short summary." {
			t.Errorf("Description = %q", got)
		}
	})

	t.Run("Whitespace collapsed", func(t *testing.T) {
		got := tok.Description("Multi\n\tline    text here.", 100)
		if got != "Multi line text here." {
			t.Errorf("Description = %q", got)
		}
	})

	t.Run("Whole sentences while they fit", func(t *testing.T) {
		text := "First sentence here. Second sentence follows. Third one is never needed."
		got := tok.Description(text, 50)
		if got != "First sentence here. Second sentence follows." {
			t.Errorf("Description = %q", got)
		}
		if utf8.RuneCountInString(got) > 50 {
			t.Errorf("Description length %d exceeds limit", utf8.RuneCountInString(got))
		}
	})

	t.Run("Long first sentence cut at word boundary", func(t *testing.T) {
		text := "This single opening sentence keeps going far past any reasonable summary length limit."
		got := tok.Description(text, 40)
		if !strings.HasSuffix(got, Ellipsis) {
			t.Fatalf("Description = %q, want ellipsis suffix", got)
		}
		if utf8.RuneCountInString(got) > 40 {
			t.Errorf("Description length %d exceeds limit", utf8.RuneCountInString(got))
		}
		if strings.Contains(strings.TrimSuffix(got, Ellipsis), "  ") {
			t.Errorf("Description has doubled spaces: %q", got)
		}
	})

	t.Run("Nil splitter degrades to word cut", func(t *testing.T) {
		var nilTok *Splitter
		got := nilTok.Description("Some words that will not all fit in the budget.", 20)
		if !strings.HasSuffix(got, Ellipsis) {
			t.Errorf("Description = %q, want ellipsis suffix", got)
		}
		if utf8.RuneCountInString(got) > 20 {
			t.Errorf("Description length %d exceeds limit", utf8.RuneCountInString(got))
		}
	})

	t.Run("Oversized single word hard cut", func(t *testing.T) {
		var nilTok *Splitter
		got := nilTok.Description(strings.Repeat("x", 50), 10)
		if utf8.RuneCountInString(got) != 10 {
			t.Errorf("Description length = %d, want 10", utf8.RuneCountInString(got))
		}
	})

	t.Run("Zero budget", func(t *testing.T) {
		if got := tok.Description("anything", 0); got != "" {
			t.Errorf("Description = %q, want empty", got)
		}
	})
}
