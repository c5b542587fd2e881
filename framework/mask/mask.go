// Package mask blanks out the parts of C++ source text that confuse
// structural pattern matching: comments, literals, attributes and the
// contents of nested brackets. Masked text always has the same length and
// line structure as its input, so offsets found in masked text are valid in
// the original.
package mask

import "strings"

// Target selects what a mask call blanks out.
type Target uint

const (
	LineComments Target = 1 << iota
	BlockComments
	// Strings covers string and character literal contents, including raw
	// strings. The delimiting quotes are kept.
	Strings
	// Attributes covers [[...]], __attribute__((...)) and __declspec(...).
	Attributes
	// AngleBrackets covers template argument lists; the brackets are kept.
	AngleBrackets
	Parentheses
	Braces
	SquareBrackets

	Comments  = LineComments | BlockComments
	NonSource = Comments | Strings | Attributes
	Brackets  = AngleBrackets | Parentheses | Braces | SquareBrackets
)

// Filler is the default replacement byte.
const Filler = ' '

// Region is a masked byte range [Start, End) and the target that produced it.
type Region struct {
	Start  int
	End    int
	Target Target
}

// Mask returns text with every region selected by targets replaced by the
// default filler.
func Mask(text string, targets Target) string {
	return MaskWith(text, targets, Filler)
}

// MaskWith is Mask with a caller-supplied filler byte. Line terminators
// inside masked regions are preserved.
func MaskWith(text string, targets Target, filler byte) string {
	if text == "" || targets == 0 {
		return text
	}
	out := []byte(text)
	for _, r := range Regions(text, targets) {
		for i := r.Start; i < r.End; i++ {
			if out[i] != '\n' && out[i] != '\r' {
				out[i] = filler
			}
		}
	}
	return string(out)
}

// Regions lists the regions of text selected by targets. Bracket regions are
// found on text whose comments, literals and attributes are already blanked,
// so delimiters inside those never count.
func Regions(text string, targets Target) []Region {
	lexical := lex(text)
	var out []Region
	for _, r := range lexical {
		if r.Target&targets != 0 {
			out = append(out, r)
		}
	}
	if targets&Brackets == 0 {
		return out
	}
	clean := []byte(text)
	for _, r := range lexical {
		for i := r.Start; i < r.End; i++ {
			if clean[i] != '\n' && clean[i] != '\r' {
				clean[i] = Filler
			}
		}
	}
	src := string(clean)
	if targets&AngleBrackets != 0 {
		out = append(out, angleRegions(src)...)
	}
	if targets&Parentheses != 0 {
		out = append(out, pairRegions(src, '(', ')', Parentheses)...)
	}
	if targets&Braces != 0 {
		out = append(out, pairRegions(src, '{', '}', Braces)...)
	}
	if targets&SquareBrackets != 0 {
		out = append(out, pairRegions(src, '[', ']', SquareBrackets)...)
	}
	return out
}

// lex finds comments, literals and attributes in a single left-to-right pass.
// Unterminated constructs extend to the end of the input.
func lex(text string) []Region {
	var out []Region
	n := len(text)
	for i := 0; i < n; {
		c := text[i]
		switch {
		case c == '/' && i+1 < n && text[i+1] == '/':
			end := lineCommentEnd(text, i)
			out = append(out, Region{Start: i, End: end, Target: LineComments})
			i = end
		case c == '/' && i+1 < n && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				end = n
			} else {
				end = i + 2 + end + 2
			}
			out = append(out, Region{Start: i, End: end, Target: BlockComments})
			i = end
		case c == '"':
			if delim, ok := rawStringDelimiter(text, i); ok {
				closing := ")" + delim + "\""
				end := strings.Index(text[i+1:], closing)
				if end < 0 {
					out = append(out, Region{Start: i + 1, End: n, Target: Strings})
					i = n
					continue
				}
				contentEnd := i + 1 + end + len(closing) - 1
				out = append(out, Region{Start: i + 1, End: contentEnd, Target: Strings})
				i = contentEnd + 1
				continue
			}
			end := quotedEnd(text, i, '"')
			out = append(out, Region{Start: i + 1, End: end, Target: Strings})
			i = end + 1
		case c == '\'' && !isDigitSeparator(text, i):
			end := quotedEnd(text, i, '\'')
			out = append(out, Region{Start: i + 1, End: end, Target: Strings})
			i = end + 1
		case c == '[' && i+1 < n && text[i+1] == '[':
			end := min(closeOf(text, i, '[', ']')+1, n)
			out = append(out, Region{Start: i, End: end, Target: Attributes})
			i = end
		case c == '_' && !precededByIdent(text, i) && attributeKeyword(text, i) != "":
			kw := attributeKeyword(text, i)
			j := i + len(kw)
			for j < n && isSpace(text[j]) {
				j++
			}
			if j >= n || text[j] != '(' {
				i += len(kw)
				continue
			}
			end := min(closeOf(text, j, '(', ')')+1, n)
			out = append(out, Region{Start: i, End: end, Target: Attributes})
			i = end
		default:
			i++
		}
	}
	return out
}

func attributeKeyword(text string, i int) string {
	for _, kw := range []string{"__attribute__", "__declspec"} {
		if strings.HasPrefix(text[i:], kw) {
			return kw
		}
	}
	return ""
}

func lineCommentEnd(text string, start int) int {
	i := start
	for {
		nl := strings.IndexByte(text[i:], '\n')
		if nl < 0 {
			return len(text)
		}
		end := i + nl
		body := strings.TrimRight(text[start:end], "\r")
		if strings.HasSuffix(body, "\\") {
			i = end + 1
			continue
		}
		if end > start && text[end-1] == '\r' {
			return end - 1
		}
		return end
	}
}

// quotedEnd returns the index of the closing quote, or len(text).
func quotedEnd(text string, open int, quote byte) int {
	for i := open + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(text)
}

func rawStringDelimiter(text string, quote int) (string, bool) {
	prefix := text[:quote]
	for _, p := range []string{"u8R", "uR", "UR", "LR", "R"} {
		if !strings.HasSuffix(prefix, p) {
			continue
		}
		if before := quote - len(p) - 1; before >= 0 && isIdent(text[before]) {
			continue
		}
		open := strings.IndexByte(text[quote+1:], '(')
		if open < 0 || open > 16 {
			return "", false
		}
		delim := text[quote+1 : quote+1+open]
		if strings.ContainsAny(delim, " \t\r\n\\)\"") {
			return "", false
		}
		return delim, true
	}
	return "", false
}

// isDigitSeparator reports whether the quote at i sits inside a numeric
// literal such as 1'000'000.
func isDigitSeparator(text string, i int) bool {
	j := i - 1
	for j >= 0 && (isIdent(text[j]) || text[j] == '\'' || text[j] == '.') {
		j--
	}
	start := j + 1
	return start < i && text[start] >= '0' && text[start] <= '9'
}

func precededByIdent(text string, i int) bool {
	return i > 0 && isIdent(text[i-1])
}

// closeOf returns the index of the delimiter closing the one at open, or
// len(text) when it is never closed.
func closeOf(text string, open int, o, c byte) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case o:
			depth++
		case c:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(text)
}

func pairRegions(text string, o, c byte, target Target) []Region {
	var out []Region
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case o:
			if depth == 0 {
				start = i + 1
			}
			depth++
		case c:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, Region{Start: start, End: i, Target: target})
			}
		}
	}
	if depth > 0 {
		out = append(out, Region{Start: start, End: len(text), Target: target})
	}
	return out
}

// angleRegions finds template argument lists. A '<' opens one only when it
// follows an identifier (and is not a shift or comparison operator) and a
// matching '>' is reached before anything that cannot appear in a template
// argument list at the outermost level.
func angleRegions(text string) []Region {
	var out []Region
	n := len(text)
	for i := 0; i < n; i++ {
		if text[i] != '<' {
			continue
		}
		if i+1 < n && (text[i+1] == '<' || text[i+1] == '=') {
			i++
			continue
		}
		p := i - 1
		for p >= 0 && isSpace(text[p]) {
			p--
		}
		if p < 0 || !isIdent(text[p]) {
			continue
		}
		if word := identBefore(text, p+1); word == "operator" {
			continue
		}
		if end, ok := matchAngle(text, i); ok {
			out = append(out, Region{Start: i + 1, End: end, Target: AngleBrackets})
			i = end
		}
	}
	return out
}

func matchAngle(text string, open int) (int, bool) {
	depth, nest := 1, 0
	for j := open + 1; j < len(text); j++ {
		switch text[j] {
		case '(', '[', '{':
			nest++
		case ')', ']', '}':
			if nest == 0 {
				return 0, false
			}
			nest--
		case ';':
			return 0, false
		case '&', '|':
			if nest == 0 && j+1 < len(text) && text[j+1] == text[j] {
				return 0, false
			}
		case '<':
			if nest == 0 {
				depth++
			}
		case '>':
			if j > 0 && text[j-1] == '-' {
				continue
			}
			if nest == 0 {
				depth--
				if depth == 0 {
					return j, true
				}
			}
		}
	}
	return 0, false
}

func identBefore(text string, end int) string {
	start := end
	for start > 0 && isIdent(text[start-1]) {
		start--
	}
	return text[start:end]
}

func isIdent(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
