package lexer

import (
	"fmt"
	"strings"

	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/source"
	"github.com/flyfishxu/aurora/internal/tokens"
)

// Lexer turns a UTF-8 byte string into a token stream with 1-based
// line/column tracking.
type Lexer struct {
	sourceCode  []byte
	Position    source.Position
	diagnostics *diagnostics.Bag
	FilePath    string
}

func New(filepath, content string, diag *diagnostics.Bag) *Lexer {
	return &Lexer{
		sourceCode: []byte(content),
		Position: source.Position{
			Line:   1,
			Column: 1,
			Index:  0,
		},
		diagnostics: diag,
		FilePath:    filepath,
	}
}

func (lex *Lexer) atEOF() bool {
	return lex.Position.Index >= len(lex.sourceCode)
}

func (lex *Lexer) current() byte {
	if lex.atEOF() {
		return 0
	}
	return lex.sourceCode[lex.Position.Index]
}

func (lex *Lexer) lookahead(offset int) byte {
	if lex.Position.Index+offset >= len(lex.sourceCode) {
		return 0
	}
	return lex.sourceCode[lex.Position.Index+offset]
}

func (lex *Lexer) advance() {
	if !lex.atEOF() {
		lex.Position.AdvanceByte(lex.sourceCode[lex.Position.Index])
	}
}

func (lex *Lexer) skipWhitespace() {
	for !lex.atEOF() && isSpace(lex.current()) {
		lex.advance()
	}
}

func (lex *Lexer) skipComment() {
	if lex.current() == '/' && lex.lookahead(1) == '/' {
		for !lex.atEOF() && lex.current() != '\n' {
			lex.advance()
		}
		return
	}

	if lex.current() == '/' && lex.lookahead(1) == '*' {
		lex.advance()
		lex.advance()
		for !lex.atEOF() {
			if lex.current() == '*' && lex.lookahead(1) == '/' {
				lex.advance()
				lex.advance()
				break
			}
			lex.advance()
		}
	}
}

func (lex *Lexer) readIdentifierOrKeyword() tokens.Token {
	start := lex.Position
	for isAlphaNumeric(lex.current()) {
		lex.advance()
	}
	text := string(lex.sourceCode[start.Index:lex.Position.Index])
	return tokens.NewToken(tokens.LookupKeyword(text), text, start, lex.Position)
}

func (lex *Lexer) readNumber() tokens.Token {
	start := lex.Position
	isDouble := false

	for isDigit(lex.current()) {
		lex.advance()
	}

	if lex.current() == '.' && isDigit(lex.lookahead(1)) {
		isDouble = true
		lex.advance()
		for isDigit(lex.current()) {
			lex.advance()
		}
	}

	text := string(lex.sourceCode[start.Index:lex.Position.Index])
	kind := tokens.INT_TOKEN
	if isDouble {
		kind = tokens.DOUBLE_TOKEN
	}
	return tokens.NewToken(kind, text, start, lex.Position)
}

func (lex *Lexer) readString() tokens.Token {
	start := lex.Position
	lex.advance() // opening quote

	var value strings.Builder
	for !lex.atEOF() && lex.current() != '"' {
		if lex.current() == '\\' {
			switch lex.lookahead(1) {
			case 'n':
				value.WriteByte('\n')
				lex.advance()
				lex.advance()
				continue
			case 't':
				value.WriteByte('\t')
				lex.advance()
				lex.advance()
				continue
			case '\\':
				value.WriteByte('\\')
				lex.advance()
				lex.advance()
				continue
			case '"':
				value.WriteByte('"')
				lex.advance()
				lex.advance()
				continue
			}
		}
		value.WriteByte(lex.current())
		lex.advance()
	}

	if lex.atEOF() {
		lex.diagnostics.Add(
			diagnostics.NewError("unterminated string literal").
				WithCode(diagnostics.ErrUnterminatedString).
				WithPrimaryLabel(lex.FilePath, source.NewLocation(&lex.FilePath, &start, &start), "string starts here"),
		)
		return tokens.NewToken(tokens.EOF_TOKEN, "", start, lex.Position)
	}

	lex.advance() // closing quote
	return tokens.NewToken(tokens.STRING_TOKEN, value.String(), start, lex.Position)
}

// twoCharOps maps the leading byte of a two-character operator to its
// continuation and token kind, tried before single-character tokens.
type twoCharOp struct {
	second byte
	kind   tokens.TOKEN
}

var twoCharOps = map[byte][]twoCharOp{
	'=': {{'=', tokens.DOUBLE_EQUAL_TOKEN}},
	'!': {{'=', tokens.NOT_EQUAL_TOKEN}},
	'<': {{'=', tokens.LESS_EQUAL_TOKEN}, {'<', tokens.SHIFT_LEFT_TOKEN}},
	'>': {{'=', tokens.GREATER_EQUAL_TOKEN}, {'>', tokens.SHIFT_RIGHT_TOKEN}},
	'&': {{'&', tokens.AND_TOKEN}},
	'|': {{'|', tokens.OR_TOKEN}},
	'-': {{'>', tokens.ARROW_TOKEN}},
	'.': {{'.', tokens.RANGE_TOKEN}},
	'?': {{'.', tokens.SAFE_NAV_TOKEN}, {'?', tokens.COALESCE_TOKEN}},
}

var singleCharOps = map[byte]tokens.TOKEN{
	'+': tokens.PLUS_TOKEN,
	'-': tokens.MINUS_TOKEN,
	'*': tokens.MUL_TOKEN,
	'/': tokens.DIV_TOKEN,
	'%': tokens.MOD_TOKEN,
	'&': tokens.BIT_AND_TOKEN,
	'|': tokens.BIT_OR_TOKEN,
	'^': tokens.BIT_XOR_TOKEN,
	'~': tokens.TILDE_TOKEN,
	'<': tokens.LESS_TOKEN,
	'>': tokens.GREATER_TOKEN,
	'=': tokens.EQUALS_TOKEN,
	'!': tokens.NOT_TOKEN,
	'(': tokens.OPEN_PAREN,
	')': tokens.CLOSE_PAREN,
	'{': tokens.OPEN_CURLY,
	'}': tokens.CLOSE_CURLY,
	'[': tokens.OPEN_BRACKET,
	']': tokens.CLOSE_BRACKET,
	',': tokens.COMMA_TOKEN,
	';': tokens.SEMICOLON_TOKEN,
	':': tokens.COLON_TOKEN,
	'?': tokens.QUESTION_TOKEN,
	'.': tokens.DOT_TOKEN,
}

// NextToken returns the next token, skipping whitespace and comments.
// Past the end of input it returns EOF with an empty value.
func (lex *Lexer) NextToken() tokens.Token {
	lex.skipWhitespace()

	for lex.current() == '/' && (lex.lookahead(1) == '/' || lex.lookahead(1) == '*') {
		lex.skipComment()
		lex.skipWhitespace()
	}

	if lex.atEOF() {
		return tokens.NewToken(tokens.EOF_TOKEN, "", lex.Position, lex.Position)
	}

	c := lex.current()

	if isAlpha(c) {
		return lex.readIdentifierOrKeyword()
	}
	if isDigit(c) {
		return lex.readNumber()
	}
	if c == '"' {
		return lex.readString()
	}

	start := lex.Position
	for _, op := range twoCharOps[c] {
		if lex.lookahead(1) == op.second {
			lex.advance()
			lex.advance()
			return tokens.NewToken(op.kind, string(op.kind), start, lex.Position)
		}
	}

	if kind, ok := singleCharOps[c]; ok {
		lex.advance()
		return tokens.NewToken(kind, string(kind), start, lex.Position)
	}

	lex.diagnostics.Add(
		diagnostics.NewError(fmt.Sprintf("unrecognized character '%c'", c)).
			WithCode(diagnostics.ErrUnexpectedCharacter).
			WithPrimaryLabel(lex.FilePath, source.NewLocation(&lex.FilePath, &start, &start), ""),
	)
	lex.advance()
	return lex.NextToken()
}

// Peek returns the next token without consuming it, by position
// checkpoint and restore.
func (lex *Lexer) Peek() tokens.Token {
	saved := lex.Position
	token := lex.NextToken()
	lex.Position = saved
	return token
}

// Tokenize reads the entire source into a token slice terminated by
// EOF, optionally dumping each token to stderr.
func (lex *Lexer) Tokenize(debug bool) []tokens.Token {
	var toks []tokens.Token
	for {
		tok := lex.NextToken()
		toks = append(toks, tok)
		if tok.Kind == tokens.EOF_TOKEN {
			break
		}
	}

	if debug {
		for i := range toks {
			toks[i].Debug(lex.FilePath)
		}
	}

	return toks
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
