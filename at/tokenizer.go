// Package at implements the lexical side of the Hayes command set: the
// command line tokenizer and the result code vocabulary.
//
// A command line is the text typed after the "AT" prefix, up to but not
// including the line terminator. Next walks it one command at a time:
//
//	cursor := 0
//	for {
//		tok, next := at.Next(line, cursor)
//		cursor = next
//		if tok.Kind != at.KindBasic && tok.Kind != at.KindExtended {
//			break
//		}
//		// dispatch on tok.Cmd
//	}
package at

import "strings"

// Kind classifies a token returned by Next.
type Kind int

const (
	// KindBasic is a single letter command such as E1 or S7=30.
	KindBasic Kind = iota
	// KindExtended is an ampersand command such as &K3.
	KindExtended
	// KindEnd marks that the whole line has been consumed.
	KindEnd
	// KindNone is returned when the cursor already lies past the line.
	KindNone
	// KindError marks a lexical error. The cursor is left at the offending byte.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "Basic"
	case KindExtended:
		return "Extended"
	case KindEnd:
		return "End"
	case KindNone:
		return "None"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Dial modifiers reported in Token.Num for the D command.
const (
	DialTone  = 'T'
	DialPulse = 'P'
	DialLast  = 'L'
)

// maxNum bounds numeric arguments; longer digit runs are a lexical error.
const maxNum = 9999

// Token is one command of a command line.
//
// For D, Num holds the dial modifier (DialTone, DialPulse, DialLast or 0)
// and Start/End delimit the dial string. For S, Num is the register index
// and Start/End delimit the value being assigned; Query is set for Sn?.
type Token struct {
	Kind  Kind
	Cmd   byte
	Num   int
	Start int
	End   int
	Query bool
}

// Arg returns the string argument of the token within line.
func (t Token) Arg(line string) string {
	if t.Start < 0 || t.End > len(line) || t.Start >= t.End {
		return ""
	}
	return line[t.Start:t.End]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func skipSpaces(line string, i int) int {
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}

// number parses an optional decimal argument starting at i. A missing
// argument counts as zero.
func number(line string, i int) (n int, next int, ok bool) {
	for i < len(line) && isDigit(line[i]) {
		n = n*10 + int(line[i]-'0')
		if n > maxNum {
			return 0, i, false
		}
		i++
	}
	return n, i, true
}

// Next returns the command that starts at cursor and the cursor position
// just after it. Letters are matched case-insensitively; Token.Cmd is always
// upper case.
func Next(line string, cursor int) (Token, int) {
	if cursor < 0 || cursor > len(line) {
		return Token{Kind: KindNone}, cursor
	}
	i := skipSpaces(line, cursor)
	if i == len(line) {
		return Token{Kind: KindEnd}, i
	}

	kind := KindBasic
	if line[i] == '&' {
		kind = KindExtended
		i++
		if i == len(line) {
			return Token{Kind: KindError}, i
		}
	}
	if !isLetter(line[i]) {
		return Token{Kind: KindError}, i
	}
	tok := Token{Kind: kind, Cmd: upper(line[i])}
	i++

	if kind == KindBasic {
		switch tok.Cmd {
		case 'D':
			return dial(line, i, tok)
		case 'S':
			return register(line, i, tok)
		}
	}

	n, next, ok := number(line, i)
	if !ok {
		return Token{Kind: KindError}, next
	}
	tok.Num = n
	return tok, next
}

// dial consumes the rest of the line as a dial string.
func dial(line string, i int, tok Token) (Token, int) {
	i = skipSpaces(line, i)
	if i < len(line) {
		switch m := upper(line[i]); m {
		case DialTone, DialPulse:
			tok.Num = int(m)
			i++
		case DialLast:
			rest := strings.TrimSpace(line[i+1:])
			if rest == "" || isDigit(rest[0]) {
				tok.Num = int(m)
				i++
			}
		}
	}
	start := skipSpaces(line, i)
	end := len(line)
	for end > start && line[end-1] == ' ' {
		end--
	}
	tok.Start, tok.End = start, end
	return tok, len(line)
}

// register parses Sn=v and Sn?.
func register(line string, i int, tok Token) (Token, int) {
	n, i, ok := number(line, i)
	if !ok {
		return Token{Kind: KindError}, i
	}
	tok.Num = n
	if i == len(line) {
		return Token{Kind: KindError}, i
	}
	switch line[i] {
	case '?':
		tok.Query = true
		return tok, i + 1
	case '=':
		i++
		start := i
		for i < len(line) && isDigit(line[i]) {
			i++
		}
		tok.Start, tok.End = start, i
		return tok, i
	}
	return Token{Kind: KindError}, i
}
