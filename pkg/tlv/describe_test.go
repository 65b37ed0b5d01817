package tlv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/moov-io/bertlv"
)

type mockTemplate struct {
	ADFName    []byte `tlv:"4F"`
	Label      []byte `tlv:"50" fmt:"ascii"`
	Version    []byte `tlv:"9F08" fmt:"int"`
	PAN        []byte `tlv:"5A" fmt:"digits"`
	Name       string `tlv:"5F20"`
	RawData    []byte // No tag
	EmptyField []byte `tlv:"99"`
	Unknown    []bertlv.TLV
}

func TestWriteStructFields(t *testing.T) {
	mock := mockTemplate{
		ADFName: []byte{0xA0, 0x00, 0x01},
		Label:   []byte{'V', 'I', 'S', 'A', 0x00},
		Version: []byte{0x00, 0x02},
		PAN:     []byte{0x47, 0x61, 0x73, 0x90, 0x01, 0x01, 0x01, 0x9F},
		Name:    "DOE/JANE",
		RawData: []byte{0xCA, 0xFE},
		Unknown: []bertlv.TLV{
			{Tag: "9F01", Value: []byte{0x12, 0x34}},
		},
	}

	tests := []struct {
		name          string
		prefix        string
		input         interface{}
		expectedLines []string
	}{
		{
			name:   "Struct Pointer Input",
			prefix: "App",
			input:  &mock,
			expectedLines: []string{
				"    - App.ADFName (4F): A00001",
				`    - App.Label (50): 5649534100 ("VISA.")`,
				"    - App.Version (9F08): 0002 (Dec: 2)",
				"    - App.PAN (5A): 476173900101019",
				`    - App.Name (5F20): "DOE/JANE"`,
				"    - App.RawData: CAFE",
				"    - App.Unknown Tag 9F01: 1234",
			},
		},
		{
			name:   "Struct Value Input",
			prefix: "Val",
			input:  mockTemplate{ADFName: []byte{0x01}},
			expectedLines: []string{
				"    - Val.ADFName (4F): 01",
			},
		},
		{
			name:          "Nil Pointer",
			prefix:        "Nil",
			input:         (*mockTemplate)(nil),
			expectedLines: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			WriteStructFields(&sb, tt.prefix, tt.input)
			actualLines := strings.Split(sb.String(), "\n")

			if diff := cmp.Diff(tt.expectedLines, actualLines); diff != "" {
				t.Errorf("Mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteLines(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("=== TITLE ===")
	WriteLines(&sb, nil)
	WriteLines(&sb, []string{Line("A", "B", "c"), Line("A", "D", "e")})

	want := "=== TITLE ===\n    - A.B: c\n    - A.D: e"
	if got := sb.String(); got != want {
		t.Errorf("WriteLines() = %q, want %q", got, want)
	}
}

func TestMakeSafeASCII(t *testing.T) {
	input := []byte{0x41, 0x42, 0x00, 0x1F, 0x7F, 0x43} // AB, null, US, DEL, C
	want := "AB...C"

	got := MakeSafeASCII(input)
	if got != want {
		t.Errorf("MakeSafeASCII() = %q, want %q", got, want)
	}
}
