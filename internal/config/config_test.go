package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/juju/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		ini  string
		want *Config
	}{
		{
			name: "Empty File Uses Defaults",
			ini:  "",
			want: Default(),
		},
		{
			name: "All Keys",
			ini:  "listen = 127.0.0.1:9000\nlog_level = debug\nmax_payload = 512\noutput = json\n",
			want: &Config{Listen: "127.0.0.1:9000", LogLevel: "debug", MaxPayload: 512, Output: "json"},
		},
		{
			name: "Case Normalized",
			ini:  "log_level = INFO\noutput = YAML\n",
			want: &Config{Listen: DefaultListen, LogLevel: "info", MaxPayload: DefaultMaxPayload, Output: "yaml"},
		},
		{
			name: "Comments And Unknown Keys Ignored",
			ini:  "; local overrides\nlisten = :9999\ncolor = on\n",
			want: &Config{Listen: ":9999", LogLevel: DefaultLogLevel, MaxPayload: DefaultMaxPayload, Output: DefaultOutput},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.ini))
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		ini  string
	}{
		{"Unknown Level", "log_level = chatty\n"},
		{"Unknown Output", "output = xml\n"},
		{"Max Payload Not A Number", "max_payload = lots\n"},
		{"Max Payload Zero", "max_payload = 0\n"},
		{"Max Payload Negative", "max_payload = -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.ini))
			if !errors.IsNotValid(err) {
				t.Errorf("Parse() error = %v, want a NotValid error", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("Empty Path", func(t *testing.T) {
		got, err := Load("")
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if diff := cmp.Diff(Default(), got); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "emvqr.ini")
		if err := os.WriteFile(path, []byte("listen = :7070\noutput = yaml\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		want := &Config{Listen: ":7070", LogLevel: DefaultLogLevel, MaxPayload: DefaultMaxPayload, Output: OutputYAML}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.ini")); err == nil {
			t.Error("Load() expected an error for a missing file")
		}
	})
}
