package term

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Decoder walks a buffer one term at a time.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Pos is the cursor offset into the buffer.
func (d *Decoder) Pos() int { return d.pos }

// Remaining is the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

func (d *Decoder) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", ErrMalformed, d.pos, fmt.Sprintf(format, args...))
}

func (d *Decoder) need(n int) error {
	if n < 0 || d.Remaining() < n {
		return d.errorf("need %d bytes, have %d", n, d.Remaining())
	}
	return nil
}

func (d *Decoder) u8() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) u16() (int, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(d.buf[d.pos:])
	d.pos += 2
	return int(v), nil
}

func (d *Decoder) u32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *Decoder) bytes(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Version consumes the leading format marker.
func (d *Decoder) Version() error {
	b, err := d.u8()
	if err != nil {
		return err
	}
	if b != VersionMarker {
		d.pos--
		return d.errorf("version marker %d, want %d", b, VersionMarker)
	}
	return nil
}

// Peek classifies the next term without consuming it.
func (d *Decoder) Peek() (Kind, error) {
	if err := d.need(1); err != nil {
		return KindInvalid, err
	}
	switch d.buf[d.pos] {
	case tagSmallInteger, tagInteger, tagSmallBig, tagLargeBig:
		return KindInt, nil
	case tagNewFloat, tagFloat:
		return KindFloat, nil
	case tagAtom, tagSmallAtom, tagAtomUTF8, tagSmallAtomUTF8:
		return KindAtom, nil
	case tagString, tagNil, tagList, tagBinary:
		return KindString, nil
	case tagSmallTuple, tagLargeTuple:
		return KindTuple, nil
	case tagMap:
		return KindMap, nil
	default:
		return KindInvalid, d.errorf("unknown tag %d", d.buf[d.pos])
	}
}

func (d *Decoder) is(k Kind) bool {
	got, err := d.Peek()
	return err == nil && got == k
}

func (d *Decoder) IsInteger() bool { return d.is(KindInt) }
func (d *Decoder) IsFloat() bool   { return d.is(KindFloat) }
func (d *Decoder) IsAtom() bool    { return d.is(KindAtom) }
func (d *Decoder) IsString() bool  { return d.is(KindString) }
func (d *Decoder) IsTuple() bool   { return d.is(KindTuple) }
func (d *Decoder) IsMap() bool     { return d.is(KindMap) }

// Decode consumes and returns the next term.
func (d *Decoder) Decode() (Term, error) {
	return d.decode(0)
}

func (d *Decoder) decode(depth int) (Term, error) {
	if depth > MaxDepth {
		return nil, d.errorf("nesting deeper than %d", MaxDepth)
	}
	kind, err := d.Peek()
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindInt:
		v, err := d.DecodeInt()
		return Int(v), err
	case KindFloat:
		v, err := d.DecodeFloat()
		return Float(v), err
	case KindAtom:
		v, err := d.DecodeAtom()
		return Atom(v), err
	case KindString:
		v, err := d.DecodeString()
		return String(v), err
	case KindTuple:
		n, err := d.DecodeTupleHeader()
		if err != nil {
			return nil, err
		}
		out := make(Tuple, 0, min(n, d.Remaining()))
		for i := 0; i < n; i++ {
			el, err := d.decode(depth + 1)
			if err != nil {
				return nil, err
			}
			out = append(out, el)
		}
		return out, nil
	default:
		n, err := d.DecodeMapHeader()
		if err != nil {
			return nil, err
		}
		out := make(Map, 0, min(n, d.Remaining()/2))
		seen := make(map[string]struct{}, n)
		for i := 0; i < n; i++ {
			keyStart := d.pos
			k, err := d.decode(depth + 1)
			if err != nil {
				return nil, err
			}
			// keys compare by canonical encoding
			canon, err := Append(nil, k)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[string(canon)]; dup {
				d.pos = keyStart
				return nil, d.errorf("duplicate map key")
			}
			seen[string(canon)] = struct{}{}
			v, err := d.decode(depth + 1)
			if err != nil {
				return nil, err
			}
			out = append(out, Pair{Key: k, Value: v})
		}
		return out, nil
	}
}

// DecodeInt consumes an integer that fits in int64.
func (d *Decoder) DecodeInt() (int64, error) {
	tag, err := d.u8()
	if err != nil {
		return 0, err
	}
	switch tag {
	case tagSmallInteger:
		b, err := d.u8()
		return int64(b), err
	case tagInteger:
		v, err := d.u32()
		return int64(int32(v)), err
	case tagSmallBig:
		n, err := d.u8()
		if err != nil {
			return 0, err
		}
		return d.bigDigits(int(n))
	case tagLargeBig:
		n, err := d.u32()
		if err != nil {
			return 0, err
		}
		if n > math.MaxInt32 {
			return 0, d.errorf("big integer of %d bytes", n)
		}
		return d.bigDigits(int(n))
	default:
		d.pos--
		return 0, d.errorf("tag %d is not an integer", tag)
	}
}

func (d *Decoder) bigDigits(n int) (int64, error) {
	sign, err := d.u8()
	if err != nil {
		return 0, err
	}
	digits, err := d.bytes(n)
	if err != nil {
		return 0, err
	}
	var mag uint64
	for i := len(digits) - 1; i >= 0; i-- {
		if mag > math.MaxUint64>>8 {
			return 0, fmt.Errorf("%w: big integer exceeds 64 bits", ErrOutOfRange)
		}
		mag = mag<<8 | uint64(digits[i])
	}
	switch {
	case sign == 0 && mag <= math.MaxInt64:
		return int64(mag), nil
	case sign != 0 && mag <= 1<<63:
		return int64(-mag), nil
	default:
		return 0, fmt.Errorf("%w: big integer exceeds int64", ErrOutOfRange)
	}
}

// DecodeUint consumes a non-negative integer.
func (d *Decoder) DecodeUint() (uint64, error) {
	start := d.pos
	v, err := d.DecodeInt()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		d.pos = start
		return 0, fmt.Errorf("%w: %d is negative", ErrOutOfRange, v)
	}
	return uint64(v), nil
}

// DecodeFloat consumes a float term.
func (d *Decoder) DecodeFloat() (float64, error) {
	tag, err := d.u8()
	if err != nil {
		return 0, err
	}
	switch tag {
	case tagNewFloat:
		b, err := d.bytes(8)
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case tagFloat:
		b, err := d.bytes(31)
		if err != nil {
			return 0, err
		}
		s := strings.TrimRight(string(b), "\x00")
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, d.errorf("float text %q", s)
		}
		return v, nil
	default:
		d.pos--
		return 0, d.errorf("tag %d is not a float", tag)
	}
}

// DecodeNumber accepts an integer or a float.
func (d *Decoder) DecodeNumber() (float64, error) {
	if d.IsInteger() {
		v, err := d.DecodeInt()
		return float64(v), err
	}
	return d.DecodeFloat()
}

// DecodeAtom consumes any of the four atom encodings.
func (d *Decoder) DecodeAtom() (string, error) {
	tag, err := d.u8()
	if err != nil {
		return "", err
	}
	var n int
	switch tag {
	case tagAtom, tagAtomUTF8:
		n, err = d.u16()
	case tagSmallAtom, tagSmallAtomUTF8:
		var b byte
		b, err = d.u8()
		n = int(b)
	default:
		d.pos--
		return "", d.errorf("tag %d is not an atom", tag)
	}
	if err != nil {
		return "", err
	}
	b, err := d.bytes(n)
	if err != nil {
		return "", err
	}
	if tag == tagAtom || tag == tagSmallAtom {
		return latin1(b), nil
	}
	if !utf8.Valid(b) {
		return "", d.errorf("atom is not valid utf-8")
	}
	return string(b), nil
}

// DecodeString consumes a charlist, the empty list or a UTF-8 binary.
func (d *Decoder) DecodeString() (string, error) {
	tag, err := d.u8()
	if err != nil {
		return "", err
	}
	switch tag {
	case tagNil:
		return "", nil
	case tagString:
		n, err := d.u16()
		if err != nil {
			return "", err
		}
		b, err := d.bytes(n)
		if err != nil {
			return "", err
		}
		return latin1(b), nil
	case tagBinary:
		n, err := d.u32()
		if err != nil {
			return "", err
		}
		if n > math.MaxInt32 {
			return "", d.errorf("binary of %d bytes", n)
		}
		b, err := d.bytes(int(n))
		if err != nil {
			return "", err
		}
		if !utf8.Valid(b) {
			return "", d.errorf("binary is not valid utf-8")
		}
		return string(b), nil
	case tagList:
		n, err := d.u32()
		if err != nil {
			return "", err
		}
		if int64(n) > int64(d.Remaining()) {
			return "", d.errorf("list of %d elements overruns buffer", n)
		}
		var sb strings.Builder
		for i := uint32(0); i < n; i++ {
			c, err := d.DecodeInt()
			if err != nil {
				return "", err
			}
			if c < 0 || c > utf8.MaxRune || !utf8.ValidRune(rune(c)) {
				return "", d.errorf("list element %d is not a character", c)
			}
			sb.WriteRune(rune(c))
		}
		tail, err := d.u8()
		if err != nil {
			return "", err
		}
		if tail != tagNil {
			d.pos--
			return "", d.errorf("improper list")
		}
		return sb.String(), nil
	default:
		d.pos--
		return "", d.errorf("tag %d is not a string", tag)
	}
}

// DecodeTupleHeader consumes a tuple header and returns its arity.
func (d *Decoder) DecodeTupleHeader() (int, error) {
	tag, err := d.u8()
	if err != nil {
		return 0, err
	}
	switch tag {
	case tagSmallTuple:
		n, err := d.u8()
		return int(n), err
	case tagLargeTuple:
		n, err := d.u32()
		if err != nil {
			return 0, err
		}
		if int64(n) > int64(d.Remaining()) {
			return 0, d.errorf("tuple of %d elements overruns buffer", n)
		}
		return int(n), nil
	default:
		d.pos--
		return 0, d.errorf("tag %d is not a tuple", tag)
	}
}

// DecodeMapHeader consumes a map header and returns its pair count.
func (d *Decoder) DecodeMapHeader() (int, error) {
	tag, err := d.u8()
	if err != nil {
		return 0, err
	}
	if tag != tagMap {
		d.pos--
		return 0, d.errorf("tag %d is not a map", tag)
	}
	n, err := d.u32()
	if err != nil {
		return 0, err
	}
	if int64(n)*2 > int64(d.Remaining()) {
		return 0, d.errorf("map of %d pairs overruns buffer", n)
	}
	return int(n), nil
}

// Skip consumes the next term without keeping it.
func (d *Decoder) Skip() error {
	_, err := d.Decode()
	return err
}

// Unmarshal decodes one complete top-level payload.
func Unmarshal(payload []byte) (Term, error) {
	d := NewDecoder(payload)
	if err := d.Version(); err != nil {
		return nil, err
	}
	t, err := d.Decode()
	if err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, d.errorf("%d trailing bytes", d.Remaining())
	}
	return t, nil
}

func latin1(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}
