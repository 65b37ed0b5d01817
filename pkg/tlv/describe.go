package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Line formats one report line in the shared "    - Prefix.Name: value" layout.
func Line(prefix, name, value string) string {
	return fmt.Sprintf("    - %s.%s: %s", prefix, name, value)
}

// WriteLines appends lines to sb, separated by newlines and without a trailing newline.
// If the builder is not empty, a newline is written first.
func WriteLines(sb *strings.Builder, lines []string) {
	if len(lines) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Join(lines, "\n"))
}

// WriteStructFields writes one line per populated []byte, string or unknown-TLV field of s.
// The `fmt` struct tag selects the rendering of byte values: "ascii", "int", "digits" or hex.
func WriteStructFields(sb *strings.Builder, prefix string, s interface{}) {
	val := reflect.ValueOf(s)

	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}

	typ := val.Type()
	var lines []string

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		switch {
		case isByteSlice(field):
			if field.Len() > 0 {
				lines = append(lines, Line(prefix, fieldName(fieldType), formatByteValue(field.Bytes(), fieldType.Tag.Get("fmt"))))
			}
		case field.Kind() == reflect.String:
			if field.Len() > 0 {
				lines = append(lines, Line(prefix, fieldName(fieldType), fmt.Sprintf("%q", field.String())))
			}
		case field.Type() == reflect.TypeOf([]bertlv.TLV{}):
			for _, t := range field.Interface().([]bertlv.TLV) {
				valStr := strings.ToUpper(hex.EncodeToString(rawValue(t)))
				lines = append(lines, Line(prefix, "Unknown Tag "+strings.ToUpper(t.Tag), valStr))
			}
		}
	}

	WriteLines(sb, lines)
}

func fieldName(f reflect.StructField) string {
	tag, _ := fieldTag(f)
	if tag == "" {
		return f.Name
	}
	return fmt.Sprintf("%s (%s)", f.Name, tag)
}

func formatByteValue(data []byte, format string) string {
	switch format {
	case "ascii":
		return fmt.Sprintf("%X (%q)", data, MakeSafeASCII(data))
	case "int":
		var integer int
		for _, b := range data {
			integer = (integer << 8) | int(b)
		}
		return fmt.Sprintf("%X (Dec: %d)", data, integer)
	case "digits":
		// compressed numeric (BCD), trailing 'F' nibbles are padding
		return strings.TrimRight(strings.ToUpper(hex.EncodeToString(data)), "F")
	default:
		return strings.ToUpper(hex.EncodeToString(data))
	}
}

// MakeSafeASCII replaces non printable bytes with '.'.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}
