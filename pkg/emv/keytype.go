package emv

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// KeyType is the inferred kind of a recipient key.
type KeyType string

const (
	KeyEmail KeyType = "email"
	KeyPhone KeyType = "phone"
	KeyNIT   KeyType = "nit"
	KeyAlias KeyType = "alias"
	KeyUUID  KeyType = "uuid"
)

var (
	phonePattern = regexp.MustCompile(`^\+?\d{10,13}$`)
	nitPattern   = regexp.MustCompile(`^\d{9,12}$`)
)

// DetectKeyType classifies a recipient key. Rules are checked in order and the first match
// wins, so a bare 10-12 digit string is a phone and only a 9 digit one is a NIT.
func DetectKeyType(value string) KeyType {
	switch {
	case strings.HasPrefix(value, "@"):
		return KeyAlias
	case isUUIDv4(value):
		return KeyUUID
	case strings.Contains(value, "@") && strings.Contains(value, "."):
		return KeyEmail
	case phonePattern.MatchString(value):
		return KeyPhone
	case nitPattern.MatchString(value):
		return KeyNIT
	default:
		return KeyAlias
	}
}

// isUUIDv4 accepts only the canonical 8-4-4-4-12 form with version 4 and RFC 4122 variant.
func isUUIDv4(value string) bool {
	if len(value) != 36 {
		return false
	}
	u, err := uuid.Parse(value)
	if err != nil {
		return false
	}
	return u.Version() == 4 && u.Variant() == uuid.RFC4122
}
