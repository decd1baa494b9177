package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zpp-lang/zppc/internal/diag"
	"github.com/zpp-lang/zppc/internal/lexer"
)

func TestLexerErrorToDiagnostic(t *testing.T) {
	_, err := lexer.New("\tfn", "t.zpp").Lex()
	if err == nil {
		t.Fatal("expected a lexer error")
	}

	d := err.ToDiagnostic()
	assert.Equal(t, diag.StageLexer, d.Stage)
	assert.Equal(t, diag.CodeLexerIllegalTab, d.Code)
	assert.Equal(t, diag.SeverityError, d.Severity)
	assert.Equal(t, "t.zpp", d.Span.Path)
	assert.Equal(t, 1, d.Span.Line)
}

func TestDiagnosticErrorString(t *testing.T) {
	d := diag.New(diag.StageType, diag.CodeTypeInfiniteLayout, diag.Span{Path: "a.zpp", Line: 3, Column: 5}, "type %s has infinite recursive layout", "T")
	assert.Contains(t, d.Error(), "a.zpp:3:5")
	assert.Contains(t, d.Error(), "infinite recursive layout")
}
