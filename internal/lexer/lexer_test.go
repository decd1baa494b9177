package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []TokenKind {
	ks := make([]TokenKind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestLexBasicTokens(t *testing.T) {
	toks, err := New("fn main(argc: u32) -> i32:\n  return 0\n", "t.zpp").Lex()
	require.Nil(t, err)
	assert.Equal(t, []TokenKind{
		FN, ID, LPAREN, ID, COLON, ID, RPAREN, ARROW, ID, COLON,
		RETURN, NUM, EOF,
	}, kinds(toks))
}

func TestLexIndentAndNewLine(t *testing.T) {
	toks, err := New("fn f():\n  pass\n", "t.zpp").Lex()
	require.Nil(t, err)

	// the "pass" token starts a new physical line at indent 2
	var pass Token
	for _, tok := range toks {
		if tok.Kind == PASS {
			pass = tok
		}
	}
	assert.True(t, pass.IsOnNewLine)
	assert.Equal(t, 2, pass.Indent)
}

func TestLexDigitSeparators(t *testing.T) {
	toks, err := New("1'000'000", "t.zpp").Lex()
	require.Nil(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, NUM, toks[0].Kind)
	assert.Equal(t, "1000000", toks[0].Value)
}

func TestLexFloatVsTrailingDot(t *testing.T) {
	toks, err := New("3.14", "t.zpp").Lex()
	require.Nil(t, err)
	assert.Equal(t, FNUM, toks[0].Kind)
	assert.Equal(t, "3.14", toks[0].Value)

	toks, err = New("3.", "t.zpp").Lex()
	require.Nil(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, []TokenKind{NUM, DOT, EOF}, []TokenKind{toks[0].Kind, toks[1].Kind, toks[2].Kind})
	assert.Equal(t, "3", toks[0].Value)
}

func TestLexTwoCharPunctuation(t *testing.T) {
	toks, err := New("== -> .. += -= *= != <= >=", "t.zpp").Lex()
	require.Nil(t, err)
	assert.Equal(t, []TokenKind{EQ, ARROW, DOTDOT, PLUSEQ, MINUSEQ, STAREQ, NEQ, LE, GE, EOF}, kinds(toks))
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := New(`'a\nb\0\''`, "t.zpp").Lex()
	require.Nil(t, err)
	require.Equal(t, STR, toks[0].Kind)
	assert.Equal(t, "a\nb\x00'", toks[0].Value)
}

func TestLexCharLiteral(t *testing.T) {
	toks, err := New("`x`", "t.zpp").Lex()
	require.Nil(t, err)
	assert.Equal(t, CHAR, toks[0].Kind)
	assert.Equal(t, "x", toks[0].Value)
}

func TestLexIllegalTab(t *testing.T) {
	_, err := New("\tfn", "t.zpp").Lex()
	require.NotNil(t, err)
	assert.Equal(t, ErrIllegalTab, err.Kind)
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := New("'abc", "t.zpp").Lex()
	require.NotNil(t, err)
	assert.Equal(t, ErrUnterminatedString, err.Kind)
}

func TestLexLineContinuation(t *testing.T) {
	toks, err := New("1 + \\\n2", "t.zpp").Lex()
	require.Nil(t, err)
	assert.Equal(t, []TokenKind{NUM, PLUS, NUM, EOF}, kinds(toks))
}

func TestLexLineComment(t *testing.T) {
	toks, err := New("1 -- a comment\n2", "t.zpp").Lex()
	require.Nil(t, err)
	assert.Equal(t, []TokenKind{NUM, NUM, EOF}, kinds(toks))
}

func TestLexKeywords(t *testing.T) {
	toks, err := New("fn pass if elif else return Undefined True False None type while break continue mut for import and or not try out from defer test match case cast ref", "t.zpp").Lex()
	require.Nil(t, err)
	want := []TokenKind{
		FN, PASS, IF, ELIF, ELSE, RETURN, UNDEFINED, TRUE, FALSE, NONE,
		TYPE, WHILE, BREAK, CONTINUE, MUT, FOR, IMPORT, AND, OR, NOT,
		TRY, OUT, FROM, DEFER, TEST, MATCH, CASE, CAST, REF, EOF,
	}
	assert.Equal(t, want, kinds(toks))
}

// Lex round-trip: re-lexing a pretty-printed token stream preserves
// positions, per spec.md §8 property 1.
func TestLexRoundTripPositions(t *testing.T) {
	src := "fn main(argc: u32) -> i32:\n  return 0\n"
	first, err := New(src, "t.zpp").Lex()
	require.Nil(t, err)

	pretty := Pretty(first)
	second, err := New(pretty, "t.zpp").Lex()
	require.Nil(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Kind, second[i].Kind)
		assert.Equal(t, first[i].Value, second[i].Value)
	}
}
