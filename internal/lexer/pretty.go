package lexer

import "strings"

// Pretty reconstructs source text from a token stream, respecting each
// token's Indent/IsOnNewLine metadata. It exists primarily to support the
// lex round-trip property test (spec.md §8 property 1): re-lexing its
// output must reproduce the same token kinds and values.
func Pretty(toks []Token) string {
	var sb strings.Builder
	for _, tok := range toks {
		if tok.Kind == EOF {
			continue
		}
		if tok.IsOnNewLine {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(strings.Repeat(" ", tok.Indent))
		} else if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(renderToken(tok))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func renderToken(tok Token) string {
	switch tok.Kind {
	case STR:
		return "'" + escapeFor(tok.Value, '\'') + "'"
	case CHAR:
		return "`" + escapeFor(tok.Value, '`') + "`"
	default:
		return tok.Value
	}
}

func escapeFor(s string, quote rune) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		case '\\':
			sb.WriteString(`\\`)
		case quote:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
