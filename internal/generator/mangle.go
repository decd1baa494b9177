package generator

import (
	"strconv"
	"strings"

	"github.com/zpp-lang/zppc/internal/types"
)

// mangle implements spec.md §6's name mangling: every symbol is prefixed
// with its declaring module's path followed by "::", including the
// user's own `main` — the externally-linked C `main` the driver expects
// is a separate forwarding wrapper the Function Generator emits once the
// root module's `main` has been generated (spec.md §4.7).
// Generic instantiations additionally carry "<T1, T2, …>".
func mangle(modPath, name string, generics []*types.RealType) string {
	var sb strings.Builder
	sb.WriteString(modPath)
	sb.WriteString("::")
	sb.WriteString(name)
	if len(generics) > 0 {
		sb.WriteByte('<')
		for i, g := range generics {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(typeIdentity(g))
		}
		sb.WriteByte('>')
	}
	return sb.String()
}

// typeIdentity renders a real type as a stable string, used both for
// name mangling and as the generic-argument-tuple cache key component.
func typeIdentity(t *types.RealType) string {
	if t == nil {
		return "?"
	}
	switch t.Kind {
	case types.KindInt:
		sign := "i"
		if !t.Signed {
			sign = "u"
		}
		return sign + strconv.Itoa(t.Bits)
	case types.KindFloat:
		return "f" + strconv.Itoa(t.Bits)
	case types.KindVoid:
		return "void"
	case types.KindPtr:
		m := ""
		if t.Mut {
			m = "mut "
		}
		return "*" + m + typeIdentity(t.Target)
	case types.KindArray:
		return "[" + strconv.FormatInt(t.Length, 10) + " x " + typeIdentity(t.Elem) + "]"
	case types.KindStruct:
		return "struct" + fieldList(t.Fields)
	case types.KindUnion:
		return "union" + fieldList(t.Fields)
	case types.KindFn:
		var sb strings.Builder
		sb.WriteString("fn(")
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(typeIdentity(a))
		}
		sb.WriteString(") -> ")
		sb.WriteString(typeIdentity(t.Ret))
		return sb.String()
	case types.KindGenericToInfer:
		return "?" + t.GenericID
	default:
		return "placeholder"
	}
}

func fieldList(fields []types.Field) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		sb.WriteString(typeIdentity(f.Type))
	}
	sb.WriteByte(')')
	return sb.String()
}
