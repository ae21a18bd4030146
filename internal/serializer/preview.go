package serializer

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/protocol"
)

const ellipsis = "…"

// truncate caps s at max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return ellipsis
	}
	return string(r[:max-1]) + ellipsis
}

// scalar returns the raw value and display text of a primitive leaf.
func scalar(v reflect.Value) (any, string) {
	switch v.Kind() {
	case reflect.Bool:
		b := v.Bool()
		return b, strconv.FormatBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		return n, strconv.FormatInt(n, 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := v.Uint()
		return n, strconv.FormatUint(n, 10)
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		switch {
		case math.IsNaN(f):
			return nil, "NaN"
		case math.IsInf(f, 1):
			return nil, "Infinity"
		case math.IsInf(f, -1):
			return nil, "-Infinity"
		}
		return f, strconv.FormatFloat(f, 'g', -1, 64)
	case reflect.String:
		s := v.String()
		return s, s
	}
	return nil, ""
}

// leafPreview renders a non-container value.
func leafPreview(t protocol.PropType, v reflect.Value) string {
	switch t {
	case protocol.PropNull:
		return "null"
	case protocol.PropUndefined:
		return "undefined"
	case protocol.PropSymbol:
		return "Symbol(" + v.Interface().(Symbol).Description + ")"
	case protocol.PropHTMLNode:
		if native, ok := v.Interface().(host.NativeElement); ok {
			return "<" + strings.ToLower(native.NodeName()) + ">"
		}
		return "<unknown>"
	case protocol.PropBigInt:
		return bigIntText(v) + "n"
	case protocol.PropFunction:
		return funcPreview(v)
	case protocol.PropDate:
		return v.Interface().(time.Time).Format(time.RFC3339)
	case protocol.PropNumber, protocol.PropString, protocol.PropBoolean:
		_, text := scalar(v)
		return text
	}
	return v.Type().String()
}

func bigIntText(v reflect.Value) string {
	switch b := v.Interface().(type) {
	case *big.Int:
		return b.String()
	case big.Int:
		return b.String()
	}
	return "0"
}

// funcPreview renders "ƒ name(paramTypes)".
func funcPreview(v reflect.Value) string {
	name := "anonymous"
	if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
		full := strings.TrimSuffix(fn.Name(), "-fm")
		if i := strings.LastIndex(full, "."); i >= 0 {
			full = full[i+1:]
		}
		if full != "" {
			name = full
		}
	}
	t := v.Type()
	params := make([]string, t.NumIn())
	for i := range params {
		params[i] = t.In(i).String()
		if t.IsVariadic() && i == t.NumIn()-1 {
			params[i] = "..." + t.In(i).Elem().String()
		}
	}
	return fmt.Sprintf("ƒ %s(%s)", name, strings.Join(params, ", "))
}

// samplePreview renders a child inside a container preview without
// descending further.
func samplePreview(v reflect.Value) string {
	v, _, _ = indirect(v)
	t := categorize(v)
	switch t {
	case protocol.PropString:
		return strconv.Quote(v.String())
	case protocol.PropObject:
		return "{…}"
	case protocol.PropArray:
		return fmt.Sprintf("Array(%d)", v.Len())
	case protocol.PropSet:
		return fmt.Sprintf("Set(%d)", v.Len())
	}
	return leafPreview(t, v)
}

// containerPreview renders the capped summary of an Object, Array, or Set.
func containerPreview(t protocol.PropType, kids []child, total, max int) string {
	var b strings.Builder
	switch t {
	case protocol.PropArray:
		fmt.Fprintf(&b, "Array(%d) [", total)
		writeSample(&b, kids, total, max, func(c child) string { return samplePreview(c.value) })
		b.WriteString("]")
	case protocol.PropSet:
		fmt.Fprintf(&b, "Set(%d) {", total)
		writeSample(&b, kids, total, max, func(c child) string { return samplePreview(c.value) })
		b.WriteString("}")
	default:
		b.WriteString("{")
		writeSample(&b, kids, total, max, func(c child) string { return c.name })
		b.WriteString("}")
	}
	return truncate(b.String(), max)
}

func writeSample(b *strings.Builder, kids []child, total, max int, item func(child) string) {
	for i, c := range kids {
		if b.Len() > max {
			b.WriteString(ellipsis)
			return
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item(c))
	}
	if len(kids) < total {
		b.WriteString(", " + ellipsis)
	}
}
