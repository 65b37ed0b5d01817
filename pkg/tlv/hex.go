package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex builds a byte slice from hex strings such as "9F26 08 1122334455667788".
// Whitespace is ignored. It panics on invalid input and is meant for fixtures.
func Hex(parts ...string) []byte {
	clean := strings.Join(strings.Fields(strings.Join(parts, " ")), "")

	data, err := hex.DecodeString(clean)
	if err != nil {
		panic(fmt.Sprintf("invalid input '%s': %v", clean, err))
	}
	return data
}
