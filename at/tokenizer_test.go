package at_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaracil/tcpmodem/at"
)

// tokens drains a line the way the command dispatcher does.
func tokens(line string) []at.Token {
	var out []at.Token
	cursor := 0
	for {
		tok, next := at.Next(line, cursor)
		out = append(out, tok)
		if tok.Kind != at.KindBasic && tok.Kind != at.KindExtended {
			return out
		}
		cursor = next
	}
}

func TestNext_Basic(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		cmds  string
		nums  []int
		final at.Kind
	}{
		{"Empty line", "", "", nil, at.KindEnd},
		{"Single command", "E0", "E", []int{0}, at.KindEnd},
		{"Missing argument is zero", "H", "H", []int{0}, at.KindEnd},
		{"Chained commands", "E1V0Q0", "EVQ", []int{1, 0, 0}, at.KindEnd},
		{"Lower case", "e1v1", "EV", []int{1, 1}, at.KindEnd},
		{"Spaces between commands", " E1 X4 ", "EX", []int{1, 4}, at.KindEnd},
		{"Extended command", "&K3", "K", []int{3}, at.KindEnd},
		{"Mixed basic and extended", "E0&K6X3", "EKX", []int{0, 6, 3}, at.KindEnd},
		{"Bad character", "E1!", "E", []int{1}, at.KindError},
		{"Dangling ampersand", "&", "", nil, at.KindError},
		{"Ampersand without letter", "&3", "", nil, at.KindError},
		{"Argument too long", "E12345", "", nil, at.KindError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokens(tt.line)
			require.NotEmpty(t, toks)
			last := toks[len(toks)-1]
			assert.Equal(t, tt.final, last.Kind)

			cmds := ""
			var nums []int
			for _, tok := range toks[:len(toks)-1] {
				cmds += string(tok.Cmd)
				nums = append(nums, tok.Num)
			}
			assert.Equal(t, tt.cmds, cmds)
			assert.Equal(t, tt.nums, nums)
		})
	}
}

func TestNext_ExtendedKind(t *testing.T) {
	tok, next := at.Next("&k4", 0)
	assert.Equal(t, at.KindExtended, tok.Kind)
	assert.Equal(t, byte('K'), tok.Cmd)
	assert.Equal(t, 4, tok.Num)
	assert.Equal(t, 3, next)
}

func TestNext_Dial(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		modifier int
		number   string
	}{
		{"Plain number", "D5551234", 0, "5551234"},
		{"Tone", "DT5551234", at.DialTone, "5551234"},
		{"Pulse lower case", "dp 555", at.DialPulse, "555"},
		{"Host name", "Dbbs.example.com:2323", 0, "bbs.example.com:2323"},
		{"Host starting with L", "Dlocalhost", 0, "localhost"},
		{"Tone host", "DTlocalhost:23", at.DialTone, "localhost:23"},
		{"Last number", "DL", at.DialLast, ""},
		{"Last with number", "DL 42", at.DialLast, "42"},
		{"Empty", "D", 0, ""},
		{"Trailing spaces trimmed", "D 123  ", 0, "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, next := at.Next(tt.line, 0)
			require.Equal(t, at.KindBasic, tok.Kind)
			assert.Equal(t, byte('D'), tok.Cmd)
			assert.Equal(t, tt.modifier, tok.Num)
			assert.Equal(t, tt.number, tok.Arg(tt.line))
			assert.Equal(t, len(tt.line), next)
		})
	}
}

func TestNext_DialConsumesLine(t *testing.T) {
	line := "E0DT123E1"
	toks := tokens(line)
	require.Len(t, toks, 3)
	assert.Equal(t, byte('D'), toks[1].Cmd)
	assert.Equal(t, "123E1", toks[1].Arg(line))
	assert.Equal(t, at.KindEnd, toks[2].Kind)
}

func TestNext_Register(t *testing.T) {
	line := "S0=2S7?S12=50"
	toks := tokens(line)
	require.Len(t, toks, 4)

	assert.Equal(t, 0, toks[0].Num)
	assert.Equal(t, "2", toks[0].Arg(line))
	assert.False(t, toks[0].Query)

	assert.Equal(t, 7, toks[1].Num)
	assert.True(t, toks[1].Query)

	assert.Equal(t, 12, toks[2].Num)
	assert.Equal(t, "50", toks[2].Arg(line))

	assert.Equal(t, at.KindEnd, toks[3].Kind)
}

func TestNext_RegisterErrors(t *testing.T) {
	for _, line := range []string{"S", "S7", "S7!", "S99999=1"} {
		t.Run(line, func(t *testing.T) {
			toks := tokens(line)
			assert.Equal(t, at.KindError, toks[len(toks)-1].Kind)
		})
	}
}

func TestNext_CursorPastEnd(t *testing.T) {
	tok, next := at.Next("E1", 5)
	assert.Equal(t, at.KindNone, tok.Kind)
	assert.Equal(t, 5, next)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Basic", at.KindBasic.String())
	assert.Equal(t, "Error", at.KindError.String())
	assert.Equal(t, "Unknown", at.Kind(42).String())
}
