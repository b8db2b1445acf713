package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/tokens"
)

func tokenize(t *testing.T, src string) ([]tokens.Token, *diagnostics.Bag) {
	t.Helper()
	diag := diagnostics.NewBag()
	lex := New("test.aur", src, diag)
	return lex.Tokenize(false), diag
}

func kinds(toks []tokens.Token) []tokens.TOKEN {
	out := make([]tokens.TOKEN, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeBasics(t *testing.T) {
	toks, diag := tokenize(t, "fn main() -> int { return 42; }")
	require.False(t, diag.HasErrors())

	assert.Equal(t, []tokens.TOKEN{
		tokens.FN_TOKEN,
		tokens.IDENTIFIER_TOKEN,
		tokens.OPEN_PAREN,
		tokens.CLOSE_PAREN,
		tokens.ARROW_TOKEN,
		tokens.TYPE_INT_TOKEN,
		tokens.OPEN_CURLY,
		tokens.RETURN_TOKEN,
		tokens.INT_TOKEN,
		tokens.SEMICOLON_TOKEN,
		tokens.CLOSE_CURLY,
		tokens.EOF_TOKEN,
	}, kinds(toks))

	assert.Equal(t, "main", toks[1].Value)
	assert.Equal(t, "42", toks[8].Value)
}

func TestPositionsAreOneBased(t *testing.T) {
	toks, diag := tokenize(t, "let x = 1;\nlet y = 2;")
	require.False(t, diag.HasErrors())

	assert.Equal(t, 1, toks[0].Start.Line)
	assert.Equal(t, 1, toks[0].Start.Column)

	// 'y' on line 2, column 5
	var yTok tokens.Token
	for _, tok := range toks {
		if tok.Value == "y" {
			yTok = tok
		}
	}
	assert.Equal(t, 2, yTok.Start.Line)
	assert.Equal(t, 5, yTok.Start.Column)
}

// Replaying a token's byte span over the source must reproduce its
// value for identifiers and numbers.
func TestTokenTextMatchesSource(t *testing.T) {
	src := "fn add(a: int, b: int) -> int { return a + b; }"
	toks, diag := tokenize(t, src)
	require.False(t, diag.HasErrors())

	for _, tok := range toks {
		switch tok.Kind {
		case tokens.IDENTIFIER_TOKEN, tokens.INT_TOKEN, tokens.DOUBLE_TOKEN:
			assert.Equal(t, src[tok.Start.Index:tok.End.Index], tok.Value)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	toks, diag := tokenize(t, "1 42 3.14 0.5")
	require.False(t, diag.HasErrors())

	assert.Equal(t, tokens.INT_TOKEN, toks[0].Kind)
	assert.Equal(t, tokens.INT_TOKEN, toks[1].Kind)
	assert.Equal(t, tokens.DOUBLE_TOKEN, toks[2].Kind)
	assert.Equal(t, "3.14", toks[2].Value)
	assert.Equal(t, tokens.DOUBLE_TOKEN, toks[3].Kind)
}

func TestRangeIsNotADouble(t *testing.T) {
	toks, diag := tokenize(t, "0..3")
	require.False(t, diag.HasErrors())

	assert.Equal(t, []tokens.TOKEN{
		tokens.INT_TOKEN,
		tokens.RANGE_TOKEN,
		tokens.INT_TOKEN,
		tokens.EOF_TOKEN,
	}, kinds(toks))
}

func TestStringEscapes(t *testing.T) {
	toks, diag := tokenize(t, `"a\nb\tc\\d\"e"`)
	require.False(t, diag.HasErrors())

	require.Equal(t, tokens.STRING_TOKEN, toks[0].Kind)
	assert.Equal(t, "a\nb\tc\\d\"e", toks[0].Value)
}

func TestUnterminatedString(t *testing.T) {
	toks, diag := tokenize(t, `"never closed`)

	require.True(t, diag.HasErrors())
	diags := diag.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.ErrUnterminatedString, diags[0].Code)

	// The lexer returns EOF for the broken literal
	assert.Equal(t, tokens.EOF_TOKEN, toks[0].Kind)
}

func TestComments(t *testing.T) {
	toks, diag := tokenize(t, "// line comment\n/* block\ncomment */ 7")
	require.False(t, diag.HasErrors())

	assert.Equal(t, []tokens.TOKEN{
		tokens.INT_TOKEN,
		tokens.EOF_TOKEN,
	}, kinds(toks))
	assert.Equal(t, "7", toks[0].Value)
}

func TestTwoCharOperators(t *testing.T) {
	toks, diag := tokenize(t, "== != <= >= && || -> .. ?. ?? << >>")
	require.False(t, diag.HasErrors())

	assert.Equal(t, []tokens.TOKEN{
		tokens.DOUBLE_EQUAL_TOKEN,
		tokens.NOT_EQUAL_TOKEN,
		tokens.LESS_EQUAL_TOKEN,
		tokens.GREATER_EQUAL_TOKEN,
		tokens.AND_TOKEN,
		tokens.OR_TOKEN,
		tokens.ARROW_TOKEN,
		tokens.RANGE_TOKEN,
		tokens.SAFE_NAV_TOKEN,
		tokens.COALESCE_TOKEN,
		tokens.SHIFT_LEFT_TOKEN,
		tokens.SHIFT_RIGHT_TOKEN,
		tokens.EOF_TOKEN,
	}, kinds(toks))
}

func TestUnrecognizedCharacter(t *testing.T) {
	_, diag := tokenize(t, "let a = 1 @ 2;")

	require.True(t, diag.HasErrors())
	assert.Equal(t, diagnostics.ErrUnexpectedCharacter, diag.Diagnostics()[0].Code)
}

func TestPeekDoesNotConsume(t *testing.T) {
	diag := diagnostics.NewBag()
	lex := New("test.aur", "let x", diag)

	peeked := lex.Peek()
	next := lex.NextToken()
	assert.Equal(t, peeked, next)

	// Past end of input the lexer keeps returning EOF
	lex.NextToken()
	assert.Equal(t, tokens.EOF_TOKEN, lex.NextToken().Kind)
	assert.Equal(t, tokens.EOF_TOKEN, lex.NextToken().Kind)
}
