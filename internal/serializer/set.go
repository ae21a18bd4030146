package serializer

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// Set assigns newValue to the editable leaf at path under root. root must
// be a pointer so the assignment is visible to the application. newValue
// is converted to the destination kind; JSON numbers arrive as float64 and
// CBOR integers as int64 or uint64.
func Set(root any, path []string, newValue any) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty property path", protocol.ErrUnsupportedQuery)
	}
	v := reflect.ValueOf(root)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("%w: %T is not addressable", protocol.ErrUnsupportedQuery, root)
	}
	return assign(v, path, newValue)
}

func assign(v reflect.Value, path []string, newValue any) error {
	cur, _, _ := indirect(v)
	if !cur.IsValid() {
		return fmt.Errorf("%w: %q is null", protocol.ErrUnsupportedQuery, path[0])
	}
	c, ok := lookup(cur, path[0])
	if !ok {
		return fmt.Errorf("%w: no property %q", protocol.ErrUnsupportedQuery, path[0])
	}
	if len(path) > 1 {
		if c.key.IsValid() && !c.value.CanAddr() && needsCopy(c.value) {
			// Map values are not addressable: edit a copy and store it back.
			cp := reflect.New(c.value.Type()).Elem()
			cp.Set(c.value)
			if err := assign(cp.Addr(), path[1:], newValue); err != nil {
				return err
			}
			cur.SetMapIndex(c.key, cp)
			return nil
		}
		return assign(c.value, path[1:], newValue)
	}
	return setLeaf(cur, c, newValue)
}

// needsCopy reports values whose members can only be changed through an
// addressable copy.
func needsCopy(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Struct, reflect.Array:
		return true
	case reflect.Interface:
		return !v.IsNil() && needsCopy(v.Elem())
	}
	return false
}

func setLeaf(container reflect.Value, c child, newValue any) error {
	target := c.value
	dst := target.Type()
	if target.Kind() == reflect.Interface {
		if target.IsNil() {
			return fmt.Errorf("%w: %q holds no value", protocol.ErrUnsupportedQuery, c.name)
		}
		dst = target.Elem().Type()
	}
	if !isPrimitive(categorize(reflect.Zero(dst))) {
		return fmt.Errorf("%w: %q is not an editable primitive", protocol.ErrUnsupportedQuery, c.name)
	}
	converted, err := convert(newValue, dst)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", protocol.ErrUnsupportedQuery, c.name, err)
	}
	if c.key.IsValid() {
		container.SetMapIndex(c.key, converted.Convert(target.Type()))
		return nil
	}
	if !c.settable {
		return fmt.Errorf("%w: %q is read-only", protocol.ErrUnsupportedQuery, c.name)
	}
	target.Set(converted.Convert(target.Type()))
	return nil
}

// convert coerces a decoded wire scalar into type t.
func convert(value any, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		switch b := value.(type) {
		case bool:
			out.SetBool(b)
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return out, err
			}
			out.SetBool(parsed)
		default:
			return out, fmt.Errorf("cannot assign %T to %s", value, t)
		}
	case reflect.String:
		switch s := value.(type) {
		case string:
			out.SetString(s)
		case nil:
			return out, fmt.Errorf("cannot assign null to %s", t)
		default:
			out.SetString(fmt.Sprint(s))
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, err := number(value)
		if err != nil {
			return out, err
		}
		if f != math.Trunc(f) {
			return out, fmt.Errorf("%v is not an integer", value)
		}
		if f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f)) {
			return out, fmt.Errorf("%v overflows %s", value, t)
		}
		out.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f, err := number(value)
		if err != nil {
			return out, err
		}
		if f < 0 || f != math.Trunc(f) {
			return out, fmt.Errorf("%v is not an unsigned integer", value)
		}
		if f >= math.MaxUint64 || out.OverflowUint(uint64(f)) {
			return out, fmt.Errorf("%v overflows %s", value, t)
		}
		out.SetUint(uint64(f))
	case reflect.Float32, reflect.Float64:
		f, err := number(value)
		if err != nil {
			return out, err
		}
		if out.OverflowFloat(f) {
			return out, fmt.Errorf("%v overflows %s", value, t)
		}
		out.SetFloat(f)
	default:
		return out, fmt.Errorf("unsupported destination %s", t)
	}
	return out, nil
}

func number(value any) (float64, error) {
	switch n := value.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("cannot assign %T to a number", value)
}
