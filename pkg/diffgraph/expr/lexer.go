package expr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokSep           // newline or ';'
	tokNumber
	tokString
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokSep:
		return "end of statement"
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// twoCharOps must be checked before single-character operators.
var twoCharOps = []string{"==", "!=", "<=", ">="}

const singleCharOps = "+-*/%^()<>=!,"

// lex splits src into tokens. Consecutive separators collapse into one.
func lex(src string) ([]token, error) {
	var toks []token
	line, col := 1, 1
	runes := []rune(src)

	emit := func(kind tokenKind, text string, l, c int) {
		if kind == tokSep && (len(toks) == 0 || toks[len(toks)-1].kind == tokSep) {
			return
		}
		toks = append(toks, token{kind: kind, text: text, line: l, col: c})
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		startLine, startCol := line, col

		switch {
		case r == '\n':
			emit(tokSep, "\n", startLine, startCol)
			i++
			line++
			col = 1
			continue
		case r == ';':
			emit(tokSep, ";", startLine, startCol)
		case r == '#':
			for i < len(runes) && runes[i] != '\n' {
				i++
				col++
			}
			continue
		case unicode.IsSpace(r):
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := scanNumber(runes, i)
			emit(tokNumber, string(runes[i:j]), startLine, startCol)
			col += j - i
			i = j
			continue
		case r == '_' || unicode.IsLetter(r):
			j := i
			for j < len(runes) && (runes[j] == '_' || unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j])) {
				j++
			}
			emit(tokIdent, string(runes[i:j]), startLine, startCol)
			col += j - i
			i = j
			continue
		case r == '\'' || r == '"':
			j := i + 1
			var sb strings.Builder
			for j < len(runes) && runes[j] != r && runes[j] != '\n' {
				sb.WriteRune(runes[j])
				j++
			}
			if j >= len(runes) || runes[j] != r {
				return nil, &SyntaxError{Line: startLine, Col: startCol, Msg: "unterminated string"}
			}
			emit(tokString, sb.String(), startLine, startCol)
			col += j + 1 - i
			i = j + 1
			continue
		default:
			if i+1 < len(runes) {
				pair := string(runes[i : i+2])
				matched := false
				for _, op := range twoCharOps {
					if pair == op {
						matched = true
						break
					}
				}
				if matched {
					emit(tokOp, pair, startLine, startCol)
					i += 2
					col += 2
					continue
				}
			}
			if !strings.ContainsRune(singleCharOps, r) {
				return nil, &SyntaxError{Line: startLine, Col: startCol, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
			emit(tokOp, string(r), startLine, startCol)
		}
		i++
		col++
	}

	toks = append(toks, token{kind: tokEOF, line: line, col: col})
	return toks, nil
}

// scanNumber returns the index just past a decimal literal starting at i.
func scanNumber(runes []rune, i int) int {
	j := i
	for j < len(runes) && unicode.IsDigit(runes[j]) {
		j++
	}
	if j < len(runes) && runes[j] == '.' {
		j++
		for j < len(runes) && unicode.IsDigit(runes[j]) {
			j++
		}
	}
	if j < len(runes) && (runes[j] == 'e' || runes[j] == 'E') {
		k := j + 1
		if k < len(runes) && (runes[k] == '+' || runes[k] == '-') {
			k++
		}
		if k < len(runes) && unicode.IsDigit(runes[k]) {
			for k < len(runes) && unicode.IsDigit(runes[k]) {
				k++
			}
			j = k
		}
	}
	return j
}
