package tlv

import (
	"fmt"
	"strings"
)

// TEXT TLV (EMV QR Code):
// Merchant-presented QR payloads use a fixed-width character encoding instead of BER:
//
//   ID (2 chars) | LENGTH (2 decimal digits) | VALUE (LENGTH chars)
//
// Templates (merchant account 02-51, additional data 62, language 64) nest the same
// encoding inside their value, so the same scanner is used at every level.

// Entry is one tokenized ID/Length/Value triple. Value always holds exactly Len characters.
type Entry struct {
	ID    string
	Len   int
	Value string
}

// String re-serializes the entry (ID + zero padded length + value).
func (e Entry) String() string {
	return fmt.Sprintf("%s%02d%s", e.ID, e.Len, e.Value)
}

// Break describes where scanning stopped on malformed input.
type Break struct {
	Offset   int    // character offset of the entry that could not be read
	ID       string // its two character id
	LenField string // its raw length field
	DataLen  int    // total characters in the scanned input
}

func (b *Break) Error() string {
	return fmt.Sprintf("break at offset %d: id=%q, len=%q, data length=%d", b.Offset, b.ID, b.LenField, b.DataLen)
}

// ScanResult holds the entries read before the scan ended.
// Break is nil when the input was consumed up to (at most) 3 trailing characters.
type ScanResult struct {
	Entries []Entry
	Break   *Break
}

// Scan tokenizes data by fixed-width offsets. It never fails: an invalid length field or a
// value running past the end of the input stops the scan and the entries read so far are kept.
// Lengths count characters (runes), not bytes.
func Scan(data string) ScanResult {
	chars := []rune(data)
	res := ScanResult{}

	i := 0
	for i+4 <= len(chars) {
		id := string(chars[i : i+2])
		lenField := string(chars[i+2 : i+4])

		n, ok := parseLength(lenField)
		if !ok || i+4+n > len(chars) {
			res.Break = &Break{Offset: i, ID: id, LenField: lenField, DataLen: len(chars)}
			break
		}

		res.Entries = append(res.Entries, Entry{
			ID:    id,
			Len:   n,
			Value: string(chars[i+4 : i+4+n]),
		})
		i += 4 + n
	}

	return res
}

// Tokenize returns the entries of Scan, dropping the break diagnostics.
func Tokenize(data string) []Entry {
	return Scan(data).Entries
}

// Encode serializes entries back to the text form. Lengths above 99 cannot be represented
// and are written as-is, which the scanner will not read back.
func Encode(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.String())
	}
	return sb.String()
}

// parseLength accepts exactly two decimal digits.
func parseLength(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// IsNumericID reports whether id is two decimal digits and returns its value.
func IsNumericID(id string) (int, bool) {
	return parseLength(id)
}
