package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kokukuma/mdoc-issuance/engagement"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "issuance.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":8080" || cfg.LogLevel != "info" || cfg.EngagementVersion != engagement.Version10 {
		t.Errorf("cfg = %+v", cfg)
	}
	methods, err := cfg.ConnectionMethods()
	if err != nil || len(methods) != 0 {
		t.Errorf("ConnectionMethods() = %v, %v", methods, err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
addr = ":9000"
engagement_version = "1.1"

[nfc]
cmd_max_length = 255
resp_max_length = 256

[ble]
central_client_mode = true
central_client_mode_uuid = "00179c7a-eec6-4f88-8646-045fda9ac4d8"

[wifi_aware]
passphrase = "secret"
channel_number = 6
supported_bands = "0102"

[http]
uri = "https://issuer.example.com/mdoc"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":9000" || cfg.EngagementVersion != engagement.Version11 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default", cfg.LogLevel)
	}

	methods, err := cfg.ConnectionMethods()
	if err != nil {
		t.Fatalf("ConnectionMethods() error = %v", err)
	}
	want := []string{
		"nfc:cmd_max_length=255:resp_max_length=256",
		"ble:peripheral_server_mode=false:central_client_mode=true:central_client_mode_uuid=00179c7a-eec6-4f88-8646-045fda9ac4d8",
		"wifi_aware:passphrase=secret:channel_info_channel_number=6:base_info_supported_bands=0102",
		"http:uri=https://issuer.example.com/mdoc",
	}
	if len(methods) != len(want) {
		t.Fatalf("len(methods) = %d, want %d", len(methods), len(want))
	}
	for i, m := range methods {
		if m.String() != want[i] {
			t.Errorf("methods[%d] = %s, want %s", i, m.String(), want[i])
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvAddr, "127.0.0.1:1234")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(writeConfig(t, `addr = ":9000"`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != "127.0.0.1:1234" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: `addr = `},
		{name: "version", content: `engagement_version = "2.0"`},
		{name: "http without uri", content: "[http]\n"},
		{name: "ble without mode", content: "[ble]\n"},
		{name: "bad uuid", content: "[ble]\ncentral_client_mode = true\ncentral_client_mode_uuid = \"nope\"\n"},
		{name: "bad bands", content: "[wifi_aware]\nsupported_bands = \"zz\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() error = nil")
			}
		})
	}
}
