// Package text provides sentence-level text handling used when building page
// metadata from rendered documentation content.
package text

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
)

// Ellipsis terminates summaries cut mid-sentence.
const Ellipsis = "…"

type Splitter struct {
	*sentences.DefaultSentenceTokenizer
}

// NewSplitter creates a sentence splitter backed by the English Punkt model.
// Generated documentation trees carry English prose regardless of the code
// they document. Returns nil when the model cannot be loaded, splitting is
// then turned off and texts are treated as single sentences.
func NewSplitter(log *zap.Logger) *Splitter {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		log.Warn("Unable to load sentence tokenizer model, turning off sentence splitting", zap.Error(err))
		return nil
	}
	return &Splitter{tokenizer}
}

// Split returns slice of sentences.
// For memory-efficient streaming, use Sentences iterator instead.
func (s *Splitter) Split(in string) []string {

	var sentences []string
	if s == nil {
		// sentences tokenizer is off
		return append(sentences, in)
	}

	for _, sentence := range s.Tokenize(in) {
		sentences = append(sentences, sentence.Text)
	}

	// The tokenizer attaches sentence trailing spaces to the following
	// sentence. Move them back so concatenating a prefix of the result
	// reproduces a prefix of the input.

	for i := range len(sentences) - 1 {
		for idx, sym := range sentences[i+1] {
			if !unicode.IsSpace(sym) {
				sentences[i] = sentences[i] + sentences[i+1][0:idx]
				sentences[i+1] = sentences[i+1][idx:]
				break
			}
		}
	}
	return sentences
}

// Sentences returns an iterator over sentences.
// This is more memory-efficient than Split for large texts as it doesn't
// allocate a slice for all sentences upfront. The iterator applies the same
// space handling as Split.
func (s *Splitter) Sentences(in string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if s == nil {
			yield(in)
			return
		}

		sentences := s.Tokenize(in)
		if len(sentences) == 0 {
			return
		}

		for i := 0; i < len(sentences)-1; i++ {
			text := sentences[i].Text

			// Trailing spaces belong to the next tokenized sentence, move
			// them back before yielding.

			nextText := sentences[i+1].Text
			for idx, sym := range nextText {
				if !unicode.IsSpace(sym) {
					text = text + nextText[0:idx]
					sentences[i+1].Text = nextText[idx:]
					break
				}
			}
			if !yield(text) {
				return
			}
		}
		// Yield the last sentence
		yield(sentences[len(sentences)-1].Text)
	}
}

// Words returns an iterator over words.
// The ignoreNBSP parameter determines whether NBSP (0xA0) is treated as a separator.
func (*Splitter) Words(in string, ignoreNBSP bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		var word strings.Builder
		for _, sym := range in {
			if isSeparator(sym, ignoreNBSP) {
				if !yield(word.String()) {
					return
				}
				word.Reset()
				continue
			}
			word.WriteRune(sym)
		}
		yield(word.String())
	}
}

// Description builds a single-line summary of at most maxRunes runes:
// whitespace collapsed, leading whole sentences while they fit, otherwise
// the first words of the text followed by an ellipsis. A nil splitter
// degrades to word-boundary truncation.
func (s *Splitter) Description(in string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	normalized := strings.Join(strings.Fields(in), " ")
	if utf8.RuneCountInString(normalized) <= maxRunes {
		return normalized
	}

	var b strings.Builder
	for sentence := range s.Sentences(normalized) {
		if utf8.RuneCountInString(strings.TrimRight(b.String()+sentence, " ")) > maxRunes {
			break
		}
		b.WriteString(sentence)
	}
	if b.Len() > 0 {
		return strings.TrimRight(b.String(), " ")
	}

	// The first sentence alone does not fit, cut at a word boundary.
	budget := maxRunes - utf8.RuneCountInString(Ellipsis)
	var out strings.Builder
	count := 0
	for word := range s.Words(normalized, false) {
		if word == "" {
			continue
		}
		add := utf8.RuneCountInString(word)
		if out.Len() > 0 {
			add++
		}
		if count+add > budget {
			break
		}
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(word)
		count += add
	}
	if out.Len() == 0 {
		// A single word exceeds the budget, hard cut.
		runes := []rune(normalized)
		return string(runes[:budget]) + Ellipsis
	}
	return out.String() + Ellipsis
}

func isSeparator(r rune, ignoreNBSP bool) bool {
	if uint32(r) <= unicode.MaxLatin1 {
		switch r {
		// exclude NBSP from the list of white space separators for latin1 symbols
		case '\t', '\n', '\v', '\f', '\r', ' ', 0x85:
			return true
		case 0xA0: // NBSP
			return ignoreNBSP
		}
		return false
	}
	return unicode.IsSpace(r)
}
