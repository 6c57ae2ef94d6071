package term

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Marshal encodes t as a top-level payload with the version marker.
func Marshal(t Term) ([]byte, error) {
	return Append([]byte{VersionMarker}, t)
}

// Append encodes t onto dst without a version marker.
func Append(dst []byte, t Term) ([]byte, error) {
	switch v := t.(type) {
	case Int:
		return appendInt(dst, int64(v)), nil
	case Float:
		dst = append(dst, tagNewFloat)
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(float64(v))), nil
	case Atom:
		return appendAtom(dst, string(v))
	case String:
		return appendString(dst, string(v))
	case Tuple:
		if len(v) <= math.MaxUint8 {
			dst = append(dst, tagSmallTuple, byte(len(v)))
		} else {
			dst = append(dst, tagLargeTuple)
			dst = binary.BigEndian.AppendUint32(dst, uint32(len(v)))
		}
		var err error
		for _, el := range v {
			if dst, err = Append(dst, el); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case Map:
		dst = append(dst, tagMap)
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(v)))
		var err error
		for _, p := range v {
			if dst, err = Append(dst, p.Key); err != nil {
				return nil, err
			}
			if dst, err = Append(dst, p.Value); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case nil:
		return nil, fmt.Errorf("term: cannot encode nil term")
	default:
		return nil, fmt.Errorf("term: cannot encode %T", t)
	}
}

func appendInt(dst []byte, v int64) []byte {
	switch {
	case v >= 0 && v <= math.MaxUint8:
		return append(dst, tagSmallInteger, byte(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		dst = append(dst, tagInteger)
		return binary.BigEndian.AppendUint32(dst, uint32(int32(v)))
	}
	var sign byte
	mag := uint64(v)
	if v < 0 {
		sign = 1
		mag = uint64(-v)
	}
	var digits [8]byte
	n := 0
	for mag > 0 {
		digits[n] = byte(mag)
		mag >>= 8
		n++
	}
	dst = append(dst, tagSmallBig, byte(n), sign)
	return append(dst, digits[:n]...)
}

func appendAtom(dst []byte, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("term: atom %q is not valid utf-8", s)
	}
	if utf8.RuneCountInString(s) > 255 {
		return nil, fmt.Errorf("term: atom longer than 255 characters")
	}
	if len(s) <= math.MaxUint8 {
		dst = append(dst, tagSmallAtomUTF8, byte(len(s)))
	} else {
		dst = append(dst, tagAtomUTF8)
		dst = binary.BigEndian.AppendUint16(dst, uint16(len(s)))
	}
	return append(dst, s...), nil
}

func appendString(dst []byte, s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("term: string is not valid utf-8")
	}
	if s == "" {
		return append(dst, tagNil), nil
	}
	n := utf8.RuneCountInString(s)
	latin := n <= math.MaxUint16
	if latin {
		for _, r := range s {
			if r > 0xFF {
				latin = false
				break
			}
		}
	}
	if latin {
		dst = append(dst, tagString)
		dst = binary.BigEndian.AppendUint16(dst, uint16(n))
		for _, r := range s {
			dst = append(dst, byte(r))
		}
		return dst, nil
	}
	dst = append(dst, tagList)
	dst = binary.BigEndian.AppendUint32(dst, uint32(n))
	for _, r := range s {
		dst = appendInt(dst, int64(r))
	}
	return append(dst, tagNil), nil
}
