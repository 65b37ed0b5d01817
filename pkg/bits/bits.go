// Package bits reads the bit-mapped bytes of EMV data objects. Bits are numbered 1 (least
// significant) to 8, as in the EMV books.
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value from a range of bits (e.g., bits 8 to 7).
// Example: GetRange(0b1000_0000, 8, 7) returns 2 (0b10)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// Flag names a single bit of a bit-mapped byte.
type Flag struct {
	Bit  uint
	Name string
}

// Names returns the names of the flags set in b, in the order of flags.
func Names(b byte, flags []Flag) []string {
	var out []string
	for _, f := range flags {
		if IsSet(b, f.Bit) {
			out = append(out, f.Name)
		}
	}
	return out
}
