package serializer

import (
	"math/big"
	"reflect"
	"time"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/protocol"
)

type undefined struct{}

// Undefined is a property value that exists but was never assigned.
var Undefined any = undefined{}

// Symbol is a unique, opaque property key or value.
type Symbol struct {
	Description string
}

var (
	undefinedType = reflect.TypeOf(undefined{})
	symbolType    = reflect.TypeOf(Symbol{})
	timeType      = reflect.TypeOf(time.Time{})
	bigIntType    = reflect.TypeOf(big.Int{})
	nativeType    = reflect.TypeOf((*host.NativeElement)(nil)).Elem()
)

// identity is the address of a container on the current path.
type identity struct {
	ptr uintptr
	typ reflect.Type
}

// ancestors is the set of containers between the root and the value being
// described.
type ancestors map[identity]struct{}

func (a ancestors) with(id identity, ok bool) ancestors {
	if !ok {
		return a
	}
	next := make(ancestors, len(a)+1)
	for k := range a {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}

func (a ancestors) has(id identity, ok bool) bool {
	if !ok {
		return false
	}
	_, found := a[id]
	return found
}

// indirect strips interfaces and pointers. It returns the identity of the
// outermost reference so cycles through pointers are detected.
func indirect(v reflect.Value) (reflect.Value, identity, bool) {
	var id identity
	var hasID bool
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}, id, hasID
			}
			v = v.Elem()
			continue
		case reflect.Pointer:
			if v.IsNil() {
				return reflect.Value{}, id, hasID
			}
			if isLeafPointer(v) {
				return v, id, hasID
			}
			if !hasID {
				id, hasID = identity{ptr: v.Pointer(), typ: v.Type()}, true
			}
			v = v.Elem()
			continue
		case reflect.Map, reflect.Slice:
			if !hasID && !v.IsNil() && v.Len() > 0 {
				id, hasID = identity{ptr: v.Pointer(), typ: v.Type()}, true
			}
		}
		return v, id, hasID
	}
	return v, id, hasID
}

// isLeafPointer reports pointers that are values in their own right.
func isLeafPointer(v reflect.Value) bool {
	if v.Type().Elem() == bigIntType {
		return true
	}
	return v.Type().Implements(nativeType)
}

// categorize maps a runtime value onto the closed PropType set.
func categorize(v reflect.Value) protocol.PropType {
	if !v.IsValid() {
		return protocol.PropNull
	}
	t := v.Type()
	switch t {
	case undefinedType:
		return protocol.PropUndefined
	case symbolType:
		return protocol.PropSymbol
	case timeType:
		return protocol.PropDate
	case bigIntType:
		return protocol.PropBigInt
	}
	if t.Kind() == reflect.Pointer && t.Elem() == bigIntType {
		return protocol.PropBigInt
	}
	if t.Implements(nativeType) {
		return protocol.PropHTMLNode
	}
	switch t.Kind() {
	case reflect.Bool:
		return protocol.PropBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return protocol.PropNumber
	case reflect.String:
		return protocol.PropString
	case reflect.Func:
		if v.IsNil() {
			return protocol.PropNull
		}
		return protocol.PropFunction
	case reflect.Struct:
		return protocol.PropObject
	case reflect.Map:
		if v.IsNil() {
			return protocol.PropNull
		}
		if t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0 {
			return protocol.PropSet
		}
		return protocol.PropObject
	case reflect.Slice:
		if v.IsNil() {
			return protocol.PropNull
		}
		return protocol.PropArray
	case reflect.Array:
		return protocol.PropArray
	case reflect.Chan:
		if v.IsNil() {
			return protocol.PropNull
		}
	}
	return protocol.PropUnknown
}

func isPrimitive(t protocol.PropType) bool {
	return t == protocol.PropNumber || t == protocol.PropString || t == protocol.PropBoolean
}
