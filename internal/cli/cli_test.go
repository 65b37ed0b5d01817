package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
)

const fullPayload = "00020101021226260008CO.BRE-B011030012345675204482953031705408150000.55802CO5912TIENDA LA 146006BOGOTA62160105F12340703T0164160002ES0106TIENDA6304ABCD"

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(context.Background(), args, Streams{In: strings.NewReader(stdin), Out: &out, Err: &errOut})
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emvqr.ini")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecode_Text(t *testing.T) {
	res := run(t, "", "decode", fullPayload)
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}

	for _, want := range []string{
		"=== EMV QR PAYLOAD ===",
		"    - Summary.Merchant: TIENDA LA 14",
		"    - Display.Amount: $ 150.000,5 COP",
		"    - Display.Key: 300 123 4567",
	} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.stdout)
		}
	}
	if res.stderr != "" {
		t.Errorf("stderr = %q, want nothing at the default log level", res.stderr)
	}
}

func TestDecode_JSONFromStdin(t *testing.T) {
	res := run(t, fullPayload+"\n", "decode", "-o", "json")
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}

	if !gjson.Valid(res.stdout) {
		t.Fatalf("output is not JSON:\n%s", res.stdout)
	}
	got := map[string]string{
		"merchantName":  gjson.Get(res.stdout, "merchantName").String(),
		"amount":        gjson.Get(res.stdout, "amount").String(),
		"keyInfo.value": gjson.Get(res.stdout, "keyInfo.value").String(),
		"fields.#":      gjson.Get(res.stdout, "fields.#").String(),
	}
	want := map[string]string{
		"merchantName":  "TIENDA LA 14",
		"amount":        "150000.5",
		"keyInfo.value": "3001234567",
		"fields.#":      "9",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_YAML(t *testing.T) {
	res := run(t, "", "decode", "--output", "yaml", fullPayload)
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	for _, want := range []string{
		"merchantName: TIENDA LA 14",
		"isBreB: true",
		`amount: "150000.5"`,
	} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestDecode_Get(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"keyInfo.type", "phone\n"},
		{"merchantAccounts.0.network.name", "Bre-B\n"},
		{"merchantLang.1.value", "TIENDA\n"},
		{"isDynamic", "true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := run(t, "", "decode", "--get", tt.path, fullPayload)
			if res.code != 0 {
				t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
			}
			if res.stdout != tt.want {
				t.Errorf("stdout = %q, want %q", res.stdout, tt.want)
			}
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name      string
		stdin     string
		args      []string
		wantError string
	}{
		{"Unknown Path", "", []string{"decode", "--get", "keyInfo.bank", fullPayload}, `path "keyInfo.bank" not found`},
		{"Nothing Decoded", "", []string{"decode", "hello"}, "EMV data in input not found"},
		{"Empty Stdin", "  \n", []string{"decode"}, "empty input not valid"},
		{"Bad Output", "", []string{"decode", "-o", "xml", fullPayload}, `output "xml" not valid`},
		{"Bad Log Level", "", []string{"decode", "--log-level", "loud", fullPayload}, `log level "loud" not valid`},
		{"Missing Config", "", []string{"decode", "-c", "/nonexistent/emvqr.ini", fullPayload}, "config /nonexistent/emvqr.ini"},
		{"Too Many Args", "", []string{"decode", "a", "b"}, "accepts at most 1 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.stdin, tt.args...)
			if res.code != 1 {
				t.Errorf("exit code = %d, want 1", res.code)
			}
			if !strings.Contains(res.stderr, tt.wantError) {
				t.Errorf("stderr = %q, want it to contain %q", res.stderr, tt.wantError)
			}
		})
	}
}

func TestDecode_ConfigAndFlags(t *testing.T) {
	path := writeConfig(t, "output = yaml\nlog_level = debug\n")

	res := run(t, "", "decode", "-c", path, fullPayload)
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "merchantCity: BOGOTA") {
		t.Errorf("config output format not applied:\n%s", res.stdout)
	}
	if !strings.Contains(res.stderr, "top-level entries") {
		t.Errorf("config log level not applied, stderr = %q", res.stderr)
	}

	res = run(t, "", "decode", "-c", path, "-o", "text", "--log-level", "error", fullPayload)
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if !strings.HasPrefix(res.stdout, "=== EMV QR PAYLOAD ===") {
		t.Errorf("--output did not override the config file:\n%s", res.stdout)
	}
	if res.stderr != "" {
		t.Errorf("--log-level did not override the config file, stderr = %q", res.stderr)
	}
}

func TestDecode_LogsGoToStderr(t *testing.T) {
	res := run(t, "", "decode", "--log-level", "debug", "-o", "json", "https://pay.example/?data="+fullPayload)
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if !gjson.Valid(res.stdout) {
		t.Errorf("stdout polluted by logs:\n%s", res.stdout)
	}
	if !strings.Contains(res.stderr, `payload extracted from URL parameter "data"`) {
		t.Errorf("stderr = %q", res.stderr)
	}
}

func TestTokenize(t *testing.T) {
	res := run(t, "", "tokenize", "000201010212")
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if diff := cmp.Diff("00 02 01\n01 02 12\n", res.stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_Truncated(t *testing.T) {
	res := run(t, "0002010102122620000", "tokenize")
	if res.code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.code, res.stderr)
	}
	if res.stdout != "00 02 01\n01 02 12\n" {
		t.Errorf("stdout = %q", res.stdout)
	}
	want := `warning: break at offset 12: id="26", len="20", data length=19`
	if !strings.Contains(res.stderr, want) {
		t.Errorf("stderr = %q, want it to contain %q", res.stderr, want)
	}
}

func TestTokenize_Nothing(t *testing.T) {
	res := run(t, "", "tokenize", "xx")
	if res.code != 1 || !strings.Contains(res.stderr, "TLV entries in input not found") {
		t.Errorf("code = %d, stderr = %q", res.code, res.stderr)
	}
}

func TestServe_InvalidConfig(t *testing.T) {
	res := run(t, "", "serve", "--max-payload", "0")
	if res.code != 1 || !strings.Contains(res.stderr, "max_payload 0 not valid") {
		t.Errorf("code = %d, stderr = %q", res.code, res.stderr)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errOut bytes.Buffer
	code := Run(ctx, []string{"serve", "--listen", "127.0.0.1:0"}, Streams{In: strings.NewReader(""), Out: &out, Err: &errOut})
	if code != 0 {
		t.Errorf("exit code = %d, stderr = %q", code, errOut.String())
	}
}
