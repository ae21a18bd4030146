package serializer

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// child is one enumerable member of a container.
type child struct {
	name     string
	value    reflect.Value
	settable bool
	// key is the map key for Object entries backed by a map.
	key reflect.Value
}

// fieldName returns the property name of a struct field, or "" when the
// field is not visible.
func fieldName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	if tag, ok := f.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// children enumerates up to limit members of the container v (already
// indirected) and reports the total member count.
func children(t protocol.PropType, v reflect.Value, limit int) ([]child, int) {
	switch v.Kind() {
	case reflect.Struct:
		if t != protocol.PropObject {
			return nil, 0
		}
		typ := v.Type()
		var out []child
		total := 0
		for i := 0; i < typ.NumField(); i++ {
			name := fieldName(typ.Field(i))
			if name == "" {
				continue
			}
			total++
			if limit > 0 && len(out) >= limit {
				continue
			}
			f := v.Field(i)
			out = append(out, child{name: name, value: f, settable: f.CanSet()})
		}
		return out, total
	case reflect.Map:
		keys := sortedKeys(v)
		total := len(keys)
		if limit > 0 && len(keys) > limit {
			keys = keys[:limit]
		}
		out := make([]child, len(keys))
		for i, k := range keys {
			if t == protocol.PropSet {
				out[i] = child{name: strconv.Itoa(i), value: k}
				continue
			}
			out[i] = child{name: keyName(k), value: v.MapIndex(k), settable: true, key: k}
		}
		return out, total
	case reflect.Slice, reflect.Array:
		total := v.Len()
		n := total
		if limit > 0 && n > limit {
			n = limit
		}
		out := make([]child, n)
		for i := 0; i < n; i++ {
			el := v.Index(i)
			out[i] = child{name: strconv.Itoa(i), value: el, settable: el.CanSet()}
		}
		return out, total
	}
	return nil, 0
}

func keyName(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

// sortedKeys orders map keys by their property name so previews and
// expansions are deterministic.
func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Kind() == b.Kind() {
			switch a.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				return a.Int() < b.Int()
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				return a.Uint() < b.Uint()
			}
		}
		return keyName(a) < keyName(b)
	})
	return keys
}

// lookup finds the member called name in the container v (already
// indirected).
func lookup(v reflect.Value, name string) (child, bool) {
	t := categorize(v)
	switch v.Kind() {
	case reflect.Struct:
		if t != protocol.PropObject {
			return child{}, false
		}
		typ := v.Type()
		for i := 0; i < typ.NumField(); i++ {
			if fieldName(typ.Field(i)) == name {
				f := v.Field(i)
				return child{name: name, value: f, settable: f.CanSet()}, true
			}
		}
	case reflect.Map:
		if v.IsNil() {
			return child{}, false
		}
		if t == protocol.PropSet {
			idx, err := strconv.Atoi(name)
			keys := sortedKeys(v)
			if err != nil || idx < 0 || idx >= len(keys) {
				return child{}, false
			}
			return child{name: name, value: keys[idx]}, true
		}
		if k, ok := mapKey(v, name); ok {
			return child{name: name, value: v.MapIndex(k), settable: true, key: k}, true
		}
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= v.Len() {
			return child{}, false
		}
		el := v.Index(idx)
		return child{name: name, value: el, settable: el.CanSet()}, true
	}
	return child{}, false
}

// mapKey returns the key of map v whose property name is name.
func mapKey(v reflect.Value, name string) (reflect.Value, bool) {
	kt := v.Type().Key()
	if kt.Kind() == reflect.String {
		k := reflect.ValueOf(name).Convert(kt)
		if v.MapIndex(k).IsValid() {
			return k, true
		}
		return reflect.Value{}, false
	}
	for _, k := range v.MapKeys() {
		if keyName(k) == name {
			return k, true
		}
	}
	return reflect.Value{}, false
}
