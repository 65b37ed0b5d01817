package emv

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PayloadPrefix is the Payload Format Indicator every merchant-presented payload starts with
// (id "00", length "02").
const PayloadPrefix = "0002"

// Source records how the EMV payload was obtained from the scanned text.
type Source string

const (
	SourceDirect   Source = "direct"       // the input was already a payload
	SourceURLParam Source = "url"          // a well-known query parameter
	SourceURLScan  Source = "url-fallback" // any query parameter
	SourceBase64   Source = "base64"
	SourceConsumer Source = "consumer-presented"
	SourceRaw      Source = "raw" // nothing matched, the input is used as-is
)

// Query parameter names used by wallets and banks to carry the payload, checked in order.
var payloadParams = []string{
	"payload", "Payload", "qr", "QR", "data", "Data",
	"emv", "EMV", "p", "q", "code", "qrcode", "content",
	"br_code", "brcode",
}

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+\-.]*://`)

type normalized struct {
	payload string
	source  Source
	param   string
	binary  []byte // base64 decoded bytes that were not a text payload
}

// Normalize extracts the EMV payload from a scanned string that may be the payload itself,
// a URL or deeplink carrying it in a query parameter, or its base64 encoding.
// When nothing matches it returns the trimmed input.
func Normalize(raw string) string {
	return normalize(raw).payload
}

func normalize(raw string) normalized {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, PayloadPrefix) {
		return normalized{payload: trimmed, source: SourceDirect}
	}

	if n, ok := fromURL(trimmed); ok {
		return n
	}

	if data, ok := decodeBase64(trimmed); ok {
		text := binaryString(data)
		if strings.HasPrefix(text, PayloadPrefix) {
			return normalized{payload: text, source: SourceBase64}
		}
		return normalized{payload: trimmed, source: SourceRaw, binary: data}
	}

	return normalized{payload: trimmed, source: SourceRaw}
}

type queryParam struct {
	key   string
	value string
}

func fromURL(s string) (normalized, bool) {
	target := s
	if strings.Contains(s, "://") {
		target = schemePrefix.ReplaceAllString(s, "https://")
	}
	if !strings.HasPrefix(target, "http") {
		target = "https://x.co?" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return normalized{}, false
	}
	params := orderedQuery(u.RawQuery)

	for _, name := range payloadParams {
		for _, p := range params {
			if p.key != name {
				continue
			}
			// only the first occurrence of a name counts
			if !strings.HasPrefix(p.value, PayloadPrefix) {
				break
			}
			decoded, err := url.PathUnescape(p.value)
			if err != nil {
				return normalized{}, false
			}
			return normalized{payload: decoded, source: SourceURLParam, param: name}, true
		}
	}

	for _, p := range params {
		decoded, err := url.PathUnescape(p.value)
		if err != nil {
			return normalized{}, false
		}
		if strings.HasPrefix(decoded, PayloadPrefix) {
			return normalized{payload: decoded, source: SourceURLScan, param: p.key}, true
		}
	}

	return normalized{}, false
}

// orderedQuery splits a raw query keeping parameter order, unlike url.ParseQuery.
// Values that fail to unescape are kept verbatim.
func orderedQuery(raw string) []queryParam {
	var params []queryParam
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		params = append(params, queryParam{key: key, value: value})
	}
	return params
}

// decodeBase64 accepts standard or URL-safe alphabets, padded or not, ignoring whitespace.
func decodeBase64(s string) ([]byte, bool) {
	clean := strings.TrimRight(strings.Join(strings.Fields(s), ""), "=")
	if clean == "" {
		return nil, false
	}
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(clean); err == nil {
			return data, true
		}
	}
	return nil, false
}

// binaryString maps each byte to one character when data is not valid UTF-8.
func binaryString(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
