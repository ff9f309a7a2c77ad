package fragment

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// Well-known names of the in-page hand-off protocol. A fragment script calls
// the controller entry point when it is present and writes the pending slot
// otherwise; the page controller drains the slot on its own initialization.
const (
	RegisterFunc    = "register_implementors"
	PendingSlotName = "pending_implementors"

	implementorsVar = "implementors"
)

// ParseScript extracts the implementors mapping from a fragment script.
//
// Both payload shapes found in generated trees are accepted: per-package
// assignment statements
//
//	implementors["ndarray"] = ["impl A for ArrayBase"];
//
// and an object literal initializer
//
//	var implementors = {"ndarray": ["impl A for ArrayBase"]};
//
// Formatting, comments and the surrounding hand-off boilerplate are ignored.
// A script without any implementors payload is an error.
func ParseScript(data []byte) (Mapping, error) {
	lex := &scriptLexer{l: js.NewLexer(parse.NewInputBytes(data))}

	m := make(Mapping)
	seen := false
	for {
		tt, text := lex.next()
		if tt == js.ErrorToken {
			if err := lex.l.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("lex fragment script: %w", err)
			}
			break
		}
		if tt != js.IdentifierToken || string(text) != implementorsVar {
			continue
		}

		tt, _ = lex.next()
		switch tt {
		case js.OpenBracketToken:
			// implementors["pkg"] = [entries];
			key, entries, err := parseKeyAssignment(lex)
			if err != nil {
				return nil, err
			}
			m[key] = entries
			seen = true
		case js.EqToken:
			// var implementors = { ... };
			if tt, _ = lex.next(); tt != js.OpenBraceToken {
				continue
			}
			if err := parseObjectLiteral(lex, m); err != nil {
				return nil, err
			}
			seen = true
		default:
			// Use of the variable in the hand-off boilerplate.
		}
	}

	if !seen {
		return nil, fmt.Errorf("script carries no implementors payload")
	}
	return m, nil
}

// Encode renders a mapping into the canonical fragment script form, packages
// in natural order. Parsing the result yields back an equal mapping.
func Encode(m Mapping) []byte {
	var buf bytes.Buffer
	buf.WriteString("(function() {var " + implementorsVar + " = {};\n")
	for _, pkg := range m.Packages() {
		buf.WriteString(implementorsVar)
		buf.WriteByte('[')
		buf.WriteString(quoteJS(pkg))
		buf.WriteString("] = [")
		for i, e := range m[pkg] {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(quoteJS(string(e)))
		}
		buf.WriteString("];\n")
	}
	buf.WriteString("if (window." + RegisterFunc + ") {\n")
	buf.WriteString("window." + RegisterFunc + "(" + implementorsVar + ");\n")
	buf.WriteString("} else {\n")
	buf.WriteString("window." + PendingSlotName + " = " + implementorsVar + ";\n")
	buf.WriteString("}\n")
	buf.WriteString("})()\n")
	return buf.Bytes()
}

// scriptLexer wraps the js lexer skipping tokens that carry no payload.
type scriptLexer struct {
	l *js.Lexer
}

func (s *scriptLexer) next() (js.TokenType, []byte) {
	for {
		tt, text := s.l.Next()
		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
			continue
		default:
			return tt, text
		}
	}
}

// parseKeyAssignment parses `"pkg"] = [entries];` with the opening bracket
// already consumed.
func parseKeyAssignment(lex *scriptLexer) (string, []Entry, error) {
	tt, text := lex.next()
	if tt != js.StringToken {
		return "", nil, fmt.Errorf("expected package identifier string, got %q", text)
	}
	key, err := decodeJSString(text)
	if err != nil {
		return "", nil, err
	}
	if tt, text = lex.next(); tt != js.CloseBracketToken {
		return "", nil, fmt.Errorf("expected ']' after package identifier %q, got %q", key, text)
	}
	if tt, text = lex.next(); tt != js.EqToken {
		return "", nil, fmt.Errorf("expected '=' for package %q, got %q", key, text)
	}
	if tt, text = lex.next(); tt != js.OpenBracketToken {
		return "", nil, fmt.Errorf("expected entry list for package %q, got %q", key, text)
	}
	entries, err := parseEntryList(lex)
	if err != nil {
		return "", nil, fmt.Errorf("package %q: %w", key, err)
	}
	return key, entries, nil
}

// parseObjectLiteral parses `"pkg": [entries], ...}` with the opening brace
// already consumed, merging keys into m.
func parseObjectLiteral(lex *scriptLexer, m Mapping) error {
	for {
		tt, text := lex.next()
		switch tt {
		case js.CloseBraceToken:
			return nil
		case js.CommaToken:
			continue
		case js.StringToken, js.IdentifierToken:
			key := string(text)
			if tt == js.StringToken {
				var err error
				if key, err = decodeJSString(text); err != nil {
					return err
				}
			}
			if tt, text = lex.next(); tt != js.ColonToken {
				return fmt.Errorf("expected ':' after package %q, got %q", key, text)
			}
			if tt, text = lex.next(); tt != js.OpenBracketToken {
				return fmt.Errorf("expected entry list for package %q, got %q", key, text)
			}
			entries, err := parseEntryList(lex)
			if err != nil {
				return fmt.Errorf("package %q: %w", key, err)
			}
			m[key] = entries
		case js.ErrorToken:
			return fmt.Errorf("unterminated implementors object")
		default:
			return fmt.Errorf("unexpected token %q in implementors object", text)
		}
	}
}

// parseEntryList parses `"entry", ...]` with the opening bracket already
// consumed. An immediately closed list yields an empty, non-nil sequence.
func parseEntryList(lex *scriptLexer) ([]Entry, error) {
	entries := []Entry{}
	for {
		tt, text := lex.next()
		switch tt {
		case js.CloseBracketToken:
			return entries, nil
		case js.CommaToken:
			continue
		case js.StringToken:
			s, err := decodeJSString(text)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry(s))
		case js.ErrorToken:
			return nil, fmt.Errorf("unterminated entry list")
		default:
			return nil, fmt.Errorf("unexpected token %q in entry list", text)
		}
	}
}

// decodeJSString decodes a string literal token, quotes included, into its
// value.
func decodeJSString(raw []byte) (string, error) {
	if len(raw) < 2 {
		return "", fmt.Errorf("malformed string literal %q", raw)
	}
	quote := raw[0]
	if quote != '"' && quote != '\'' || raw[len(raw)-1] != quote {
		return "", fmt.Errorf("malformed string literal %q", raw)
	}
	body := raw[1 : len(raw)-1]
	if !bytes.ContainsAny(body, `\`) {
		return string(body), nil
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape in string literal")
		}
		e := body[i]
		i++
		switch e {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case 'x':
			if i+2 > len(body) {
				return "", fmt.Errorf("truncated \\x escape")
			}
			n, err := strconv.ParseUint(string(body[i:i+2]), 16, 16)
			if err != nil {
				return "", fmt.Errorf("bad \\x escape: %w", err)
			}
			sb.WriteRune(rune(n))
			i += 2
		case 'u':
			r, adv, err := decodeUnicodeEscape(body[i:])
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
			i += adv
		case '\n':
			// line continuation
		case '\r':
			if i < len(body) && body[i] == '\n' {
				i++
			}
		default:
			sb.WriteByte(e)
		}
	}
	return sb.String(), nil
}

// decodeUnicodeEscape decodes the part after "\u": either {XXXXXX} or XXXX,
// combining surrogate pairs. Returns the rune and consumed byte count.
func decodeUnicodeEscape(body []byte) (rune, int, error) {
	if len(body) > 0 && body[0] == '{' {
		end := bytes.IndexByte(body, '}')
		if end < 0 {
			return 0, 0, fmt.Errorf("unterminated \\u{} escape")
		}
		n, err := strconv.ParseUint(string(body[1:end]), 16, 32)
		if err != nil || n > utf8.MaxRune {
			return 0, 0, fmt.Errorf("bad \\u{} escape %q", body[:end+1])
		}
		return rune(n), end + 1, nil
	}

	if len(body) < 4 {
		return 0, 0, fmt.Errorf("truncated \\u escape")
	}
	n, err := strconv.ParseUint(string(body[:4]), 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("bad \\u escape: %w", err)
	}
	r := rune(n)
	adv := 4
	if utf16.IsSurrogate(r) && len(body) >= 10 && body[4] == '\\' && body[5] == 'u' {
		if n2, err := strconv.ParseUint(string(body[6:10]), 16, 32); err == nil {
			if combined := utf16.DecodeRune(r, rune(n2)); combined != utf8.RuneError {
				return combined, 10, nil
			}
		}
	}
	return r, adv, nil
}

// quoteJS renders s as a double-quoted JS string literal.
func quoteJS(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case ' ':
			sb.WriteString(`\u2028`)
		case ' ':
			sb.WriteString(`\u2029`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
