package emv

import (
	"encoding/base64"
	"testing"
)

const (
	fullPayload        = "00020101021226260008CO.BRE-B011030012345675204482953031705408150000.55802CO5912TIENDA LA 146006BOGOTA62160105F12340703T0164160002ES0106TIENDA6304ABCD"
	fullPayloadEscaped = "00020101021226260008CO.BRE-B011030012345675204482953031705408150000.55802CO5912TIENDA%20LA%20146006BOGOTA62160105F12340703T0164160002ES0106TIENDA6304ABCD"
	fullPayloadBase64  = "MDAwMjAxMDEwMjEyMjYyNjAwMDhDTy5CUkUtQjAxMTAzMDAxMjM0NTY3NTIwNDQ4Mjk1MzAzMTcwNTQwODE1MDAwMC41NTgwMkNPNTkxMlRJRU5EQSBMQSAxNDYwMDZCT0dPVEE2MjE2MDEwNUYxMjM0MDcwM1QwMTY0MTYwMDAyRVMwMTA2VElFTkRBNjMwNEFCQ0Q="
	cpmBase64          = "hQVDUFYwMWE6TwegAAAAAxAQUARWSVNBWghHYXOQAQEBGV8gCERPRS9KQU5FYxSfJggRIjNEVWZ3iIICeACfNgIAAQ=="
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		want       string
		wantSource Source
		wantParam  string
	}{
		{
			name:       "Direct Payload With Whitespace",
			input:      "  000201010212\n",
			want:       "000201010212",
			wantSource: SourceDirect,
		},
		{
			name:       "HTTPS URL With Escaped Payload",
			input:      "https://pay.example/qr?payload=" + fullPayloadEscaped,
			want:       fullPayload,
			wantSource: SourceURLParam,
			wantParam:  "payload",
		},
		{
			name:       "Plus Encoded Spaces",
			input:      "https://pay.example/qr?lang=es&qr=000201010211" + "5912TIENDA+LA+14",
			want:       "000201010211" + "5912TIENDA LA 14",
			wantSource: SourceURLParam,
			wantParam:  "qr",
		},
		{
			name:       "Deeplink Scheme",
			input:      "bancolombia://pay?data=000201010211",
			want:       "000201010211",
			wantSource: SourceURLParam,
			wantParam:  "data",
		},
		{
			name:       "Known Names Win Over Earlier Parameters",
			input:      "https://x.example/?other=000201010211&code=000201010212",
			want:       "000201010212",
			wantSource: SourceURLParam,
			wantParam:  "code",
		},
		{
			name:       "Bare Query String",
			input:      "brcode=000201010211",
			want:       "000201010211",
			wantSource: SourceURLParam,
			wantParam:  "brcode",
		},
		{
			name:       "Fallback To Any Parameter",
			input:      "nequi://transfer?ref=abc&emvco=000201010212",
			want:       "000201010212",
			wantSource: SourceURLScan,
			wantParam:  "emvco",
		},
		{
			name:       "Double Escaped Fallback",
			input:      "https://x.example/?v=0002%2541",
			want:       "0002A",
			wantSource: SourceURLScan,
			wantParam:  "v",
		},
		{
			name:       "Base64",
			input:      fullPayloadBase64,
			want:       fullPayload,
			wantSource: SourceBase64,
		},
		{
			name:       "Base64 Without Padding",
			input:      base64.RawStdEncoding.EncodeToString([]byte("000201010211")),
			want:       "000201010211",
			wantSource: SourceBase64,
		},
		{
			name:       "URL Without Payload Parameter",
			input:      "https://pay.example/qr?id=42",
			want:       "https://pay.example/qr?id=42",
			wantSource: SourceRaw,
		},
		{
			name:       "Garbage",
			input:      " hello world! ",
			want:       "hello world!",
			wantSource: SourceRaw,
		},
		{
			name:       "Empty",
			input:      "",
			want:       "",
			wantSource: SourceRaw,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize(tt.input)
			if got.payload != tt.want {
				t.Errorf("payload = %q, want %q", got.payload, tt.want)
			}
			if got.source != tt.wantSource {
				t.Errorf("source = %q, want %q", got.source, tt.wantSource)
			}
			if got.param != tt.wantParam {
				t.Errorf("param = %q, want %q", got.param, tt.wantParam)
			}
			if Normalize(tt.input) != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, Normalize(tt.input), tt.want)
			}
		})
	}
}

func TestNormalize_BinaryBase64(t *testing.T) {
	got := normalize(cpmBase64)

	if got.payload != cpmBase64 || got.source != SourceRaw {
		t.Errorf("normalize() = %q (%s), want input back as raw", got.payload, got.source)
	}
	if len(got.binary) == 0 || got.binary[0] != CPMFormatTag {
		t.Errorf("binary = %X, want bytes starting with 85", got.binary)
	}
}

func TestBinaryString(t *testing.T) {
	if got := binaryString([]byte("BOGOTÁ")); got != "BOGOTÁ" {
		t.Errorf("valid UTF-8 changed: %q", got)
	}
	// Latin-1 "Á" (0xC1) is kept as one character
	if got := binaryString([]byte{'B', 0xC1}); got != "BÁ" {
		t.Errorf("binaryString() = %q, want %q", got, "BÁ")
	}
}
