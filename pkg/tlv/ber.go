// Package tlv reads the two TLV encodings found in EMV QR codes: the fixed-width text
// encoding of merchant-presented payloads, and BER-TLV (consumer-presented payloads),
// which it maps into Go structures using struct tags.
package tlv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal decodes raw BER-TLV data and maps it into target, which must be a struct pointer.
//
// Fields are bound with `tlv:"<hex tag>"`. []byte fields receive the raw value, string
// fields the value as text, nested structs (or pointers to them) are filled from the
// constructed tag's children, and slices of structs collect every occurrence of the tag.
// A []bertlv.TLV field tagged `tlv:",unknown"` receives everything left unmapped.
func Unmarshal(data []byte, target interface{}) error {
	packets, err := Decode(data)
	if err != nil {
		return err
	}
	return UnmarshalFromPackets(packets, target)
}

// MaxLengthBytes is the longest long-form length field accepted (0x84 followed by 4 bytes).
const MaxLengthBytes = 4

// Decode validates the BER structure of data with Validate, then decodes it with bertlv.
// Untrusted input (a scanned QR code) must go through here: bertlv indexes with lengths
// read from the data and panics when they overflow.
func Decode(data []byte) (packets []bertlv.TLV, err error) {
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("bertlv decode failed: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			packets, err = nil, fmt.Errorf("bertlv decode failed: %v", r)
		}
	}()

	packets, err = bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("bertlv decode failed: %w", err)
	}
	return packets, nil
}

// Validate walks the tags of data, descending into constructed ones, and checks that every
// tag is complete, every length uses at most MaxLengthBytes bytes (definite form only) and
// every value fits in its parent.
func Validate(data []byte) error {
	for off := 0; off < len(data); {
		start := off
		first := data[off]
		off++

		// subsequent tag bytes follow while b8 is set
		if first&0x1F == 0x1F {
			for {
				if off >= len(data) {
					return fmt.Errorf("truncated tag at offset %d", start)
				}
				b := data[off]
				off++
				if b&0x80 == 0 {
					break
				}
			}
		}
		if off >= len(data) {
			return fmt.Errorf("tag at offset %d: missing length", start)
		}

		n, size, err := berLength(data[off:])
		if err != nil {
			return fmt.Errorf("tag at offset %d: %w", start, err)
		}
		off += size
		if n > uint64(len(data)-off) {
			return fmt.Errorf("tag at offset %d: length %d exceeds the %d remaining bytes", start, n, len(data)-off)
		}

		end := off + int(n)
		if first&0x20 != 0 {
			if err := Validate(data[off:end]); err != nil {
				return fmt.Errorf("in tag at offset %d: %w", start, err)
			}
		}
		off = end
	}
	return nil
}

func berLength(data []byte) (uint64, int, error) {
	b := data[0]
	if b&0x80 == 0 {
		return uint64(b), 1, nil
	}

	count := int(b & 0x7F)
	switch {
	case count == 0:
		return 0, 0, fmt.Errorf("indefinite length not supported")
	case count > MaxLengthBytes:
		return 0, 0, fmt.Errorf("length field of %d bytes, at most %d allowed", count, MaxLengthBytes)
	case len(data) < 1+count:
		return 0, 0, fmt.Errorf("truncated length field")
	}

	var n uint64
	for _, c := range data[1 : 1+count] {
		n = n<<8 | uint64(c)
	}
	return n, 1 + count, nil
}

// UnmarshalFromPackets maps already decoded packets into target.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %s", v.Kind())
	}
	t := v.Type()

	consumed := make([]bool, len(packets))
	var unknown reflect.Value

	for i := 0; i < v.NumField(); i++ {
		tag, isUnknown := fieldTag(t.Field(i))
		if isUnknown {
			unknown = v.Field(i)
			continue
		}
		if tag == "" {
			continue
		}

		for idx, p := range packets {
			if !strings.EqualFold(p.Tag, tag) {
				continue
			}
			if err := assign(p, v.Field(i)); err != nil {
				return fmt.Errorf("tag %s: %w", tag, err)
			}
			consumed[idx] = true
		}
	}

	if unknown.IsValid() && unknown.CanSet() {
		var leftovers []bertlv.TLV
		for idx, p := range packets {
			if !consumed[idx] {
				leftovers = append(leftovers, p)
			}
		}
		if len(leftovers) > 0 {
			unknown.Set(reflect.ValueOf(leftovers))
		}
	}
	return nil
}

// fieldTag returns the hex tag bound to a struct field and whether it is the unknown sink.
func fieldTag(f reflect.StructField) (string, bool) {
	cfg := f.Tag.Get("tlv")
	if cfg == ",unknown" || (f.Name == "Unknown" && f.Type == reflect.TypeOf([]bertlv.TLV{})) {
		return "", true
	}
	if cfg == "" {
		return "", false
	}
	return strings.ToUpper(strings.Split(cfg, ",")[0]), false
}

func assign(p bertlv.TLV, field reflect.Value) error {
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeValue(p, elem); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}
	return decodeValue(p, field)
}

func decodeValue(p bertlv.TLV, field reflect.Value) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawValue(p))
		}
	}

	switch {
	case isByteSlice(field):
		field.SetBytes(rawValue(p))
	case field.Kind() == reflect.String:
		field.SetString(string(p.Value))
	case field.Kind() == reflect.Struct:
		return fillNested(p, field.Addr())
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return fillNested(p, field)
	}
	return nil
}

func fillNested(p bertlv.TLV, ptr reflect.Value) error {
	if len(p.TLVs) > 0 {
		return UnmarshalFromPackets(p.TLVs, ptr.Interface())
	}
	if len(p.Value) == 0 {
		return nil
	}
	return Unmarshal(p.Value, ptr.Interface())
}

// rawValue returns the value bytes, re-encoding children for constructed tags.
func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}
