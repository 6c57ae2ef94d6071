// Package term implements the subset of the Erlang external term format the
// port protocol carries: integers, floats, atoms, strings, tuples and maps.
package term

import (
	"errors"
	"fmt"
)

// VersionMarker prefixes every top-level payload.
const VersionMarker byte = 131

// Tag bytes from the external term format.
const (
	tagNewFloat      byte = 70
	tagSmallInteger  byte = 97
	tagInteger       byte = 98
	tagFloat         byte = 99
	tagAtom          byte = 100
	tagSmallTuple    byte = 104
	tagLargeTuple    byte = 105
	tagNil           byte = 106
	tagString        byte = 107
	tagList          byte = 108
	tagBinary        byte = 109
	tagSmallBig      byte = 110
	tagLargeBig      byte = 111
	tagSmallAtom     byte = 115
	tagMap           byte = 116
	tagAtomUTF8      byte = 118
	tagSmallAtomUTF8 byte = 119
)

// MaxDepth bounds tuple/map nesting on decode.
const MaxDepth = 512

var (
	ErrMalformed    = errors.New("term: malformed term")
	ErrTypeMismatch = fmt.Errorf("%w: type mismatch", ErrMalformed)
	ErrOutOfRange   = fmt.Errorf("%w: value out of range", ErrMalformed)
)

// Kind classifies a term without decoding it.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindAtom
	KindString
	KindTuple
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindAtom:
		return "atom"
	case KindString:
		return "string"
	case KindTuple:
		return "tuple"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Term is one decoded value.
type Term interface {
	Kind() Kind
}

type (
	Int    int64
	Float  float64
	Atom   string
	String string
	Tuple  []Term
	Map    []Pair
)

// Pair is one map entry.
type Pair struct {
	Key   Term
	Value Term
}

func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (Atom) Kind() Kind   { return KindAtom }
func (String) Kind() Kind { return KindString }
func (Tuple) Kind() Kind  { return KindTuple }
func (Map) Kind() Kind    { return KindMap }

// Get returns the value stored under key.
func (m Map) Get(key Term) (Term, bool) {
	for _, p := range m {
		if Equal(p.Key, key) {
			return p.Value, true
		}
	}
	return nil, false
}

// Equal reports structural equality. Map equality ignores entry order.
func Equal(a, b Term) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Atom:
		bv, ok := b.(Atom)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for _, p := range av {
			v, found := bv.Get(p.Key)
			if !found || !Equal(p.Value, v) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}

func mismatch(want Kind, got Term) error {
	if got == nil {
		return fmt.Errorf("%w: want %s, got nothing", ErrTypeMismatch, want)
	}
	return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, want, got.Kind())
}

// AsInt returns t as an integer.
func AsInt(t Term) (int64, error) {
	v, ok := t.(Int)
	if !ok {
		return 0, mismatch(KindInt, t)
	}
	return int64(v), nil
}

// AsUint returns t as a non-negative integer.
func AsUint(t Term) (uint64, error) {
	v, err := AsInt(t)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrOutOfRange, v)
	}
	return uint64(v), nil
}

// AsNumber accepts an integer or a float.
func AsNumber(t Term) (float64, error) {
	switch v := t.(type) {
	case Int:
		return float64(v), nil
	case Float:
		return float64(v), nil
	default:
		return 0, mismatch(KindFloat, t)
	}
}

func AsAtom(t Term) (string, error) {
	v, ok := t.(Atom)
	if !ok {
		return "", mismatch(KindAtom, t)
	}
	return string(v), nil
}

func AsString(t Term) (string, error) {
	v, ok := t.(String)
	if !ok {
		return "", mismatch(KindString, t)
	}
	return string(v), nil
}

// AsTuple returns t as a tuple. A negative arity accepts any size.
func AsTuple(t Term, arity int) (Tuple, error) {
	v, ok := t.(Tuple)
	if !ok {
		return nil, mismatch(KindTuple, t)
	}
	if arity >= 0 && len(v) != arity {
		return nil, fmt.Errorf("%w: want tuple of %d, got %d", ErrTypeMismatch, arity, len(v))
	}
	return v, nil
}

func AsMap(t Term) (Map, error) {
	v, ok := t.(Map)
	if !ok {
		return nil, mismatch(KindMap, t)
	}
	return v, nil
}
