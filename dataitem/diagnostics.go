package dataitem

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// DiagnosticOption changes how Diagnostics renders an item.
type DiagnosticOption int

const (
	// EmbeddedCBOR renders tag 24 byte strings as << item >>.
	EmbeddedCBOR DiagnosticOption = iota + 1

	// PrettyPrint puts every array element and map entry on its own line.
	PrettyPrint
)

// Diagnostics renders item in RFC 8949 diagnostic notation. The output is for
// humans only.
func Diagnostics(item DataItem, opts ...DiagnosticOption) string {
	p := &diagPrinter{}
	for _, opt := range opts {
		switch opt {
		case EmbeddedCBOR:
			p.embedded = true
		case PrettyPrint:
			p.pretty = true
		}
	}
	p.print(item, 0)
	return p.sb.String()
}

type diagPrinter struct {
	sb       strings.Builder
	embedded bool
	pretty   bool
}

func (p *diagPrinter) indent(level int) {
	if p.pretty {
		p.sb.WriteString("\n")
		p.sb.WriteString(strings.Repeat("  ", level))
	}
}

func (p *diagPrinter) separator() {
	if p.pretty {
		p.sb.WriteString(",")
		return
	}
	p.sb.WriteString(", ")
}

func (p *diagPrinter) print(item DataItem, level int) {
	switch v := item.(type) {
	case nil:
		p.sb.WriteString("null")
	case Uint:
		p.sb.WriteString(strconv.FormatUint(uint64(v), 10))
	case Nint:
		if uint64(v) == math.MaxUint64 {
			p.sb.WriteString("-18446744073709551616")
			return
		}
		p.sb.WriteString("-")
		p.sb.WriteString(strconv.FormatUint(uint64(v)+1, 10))
	case Tstr:
		p.sb.WriteString(strconv.Quote(string(v)))
	case Bstr:
		p.sb.WriteString("h'")
		p.sb.WriteString(hex.EncodeToString(v))
		p.sb.WriteString("'")
	case Simple:
		switch v {
		case False:
			p.sb.WriteString("false")
		case True:
			p.sb.WriteString("true")
		case Null:
			p.sb.WriteString("null")
		case Undefined:
			p.sb.WriteString("undefined")
		default:
			p.sb.WriteString("simple(" + strconv.Itoa(int(v.v)) + ")")
		}
	case Float:
		p.sb.WriteString(formatFloat(float64(v), 32))
	case Double:
		p.sb.WriteString(formatFloat(float64(v), 64))
	case Tagged:
		p.sb.WriteString(strconv.FormatUint(v.Tag, 10))
		p.sb.WriteString("(")
		if inner, ok := p.embeddedItem(v); ok {
			p.sb.WriteString("<< ")
			p.print(inner, level)
			p.sb.WriteString(" >>")
		} else {
			p.print(v.Item, level)
		}
		p.sb.WriteString(")")
	case Array:
		p.sb.WriteString("[")
		for i, elem := range v {
			if i > 0 {
				p.separator()
			}
			p.indent(level + 1)
			p.print(elem, level+1)
		}
		if len(v) > 0 {
			p.indent(level)
		}
		p.sb.WriteString("]")
	case *Map:
		p.sb.WriteString("{")
		for i, entry := range v.Entries() {
			if i > 0 {
				p.separator()
			}
			p.indent(level + 1)
			p.print(entry.Key, level+1)
			p.sb.WriteString(": ")
			p.print(entry.Value, level+1)
		}
		if v.Len() > 0 {
			p.indent(level)
		}
		p.sb.WriteString("}")
	}
}

func (p *diagPrinter) embeddedItem(t Tagged) (DataItem, bool) {
	if !p.embedded || t.Tag != TagEncodedCBOR {
		return nil, false
	}
	inner, err := AsEncodedCBOR(t)
	if err != nil {
		return nil, false
	}
	return inner, true
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
