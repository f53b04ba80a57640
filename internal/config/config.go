// Package config loads the issuance server configuration.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	cm "github.com/kokukuma/mdoc-issuance/connection_method"
	"github.com/kokukuma/mdoc-issuance/engagement"
)

const (
	EnvAddr     = "MDOC_ISSUANCE_ADDR"
	EnvLogLevel = "MDOC_ISSUANCE_LOG_LEVEL"
)

type Config struct {
	Addr              string   `toml:"addr"`
	CORSOrigins       []string `toml:"cors_origins"`
	LogLevel          string   `toml:"log_level"`
	EngagementVersion string   `toml:"engagement_version"`
	// DeviceKeyPath is an EC PEM key used as eSenderKey. A key is generated
	// per process when empty.
	DeviceKeyPath string `toml:"device_key_path"`
	// RootDir holds the IACA root key and certificate. Empty keeps them in
	// memory.
	RootDir string `toml:"root_dir"`

	WifiAware *WifiAwareConfig `toml:"wifi_aware"`
	Ble       *BleConfig       `toml:"ble"`
	Nfc       *NfcConfig       `toml:"nfc"`
	Http      *HttpConfig      `toml:"http"`
}

type WifiAwareConfig struct {
	Passphrase     *string `toml:"passphrase"`
	ChannelNumber  *uint64 `toml:"channel_number"`
	OperatingClass *uint64 `toml:"operating_class"`
	// SupportedBands is hex.
	SupportedBands *string `toml:"supported_bands"`
}

type BleConfig struct {
	PeripheralServerMode     bool   `toml:"peripheral_server_mode"`
	CentralClientMode        bool   `toml:"central_client_mode"`
	PeripheralServerModeUUID string `toml:"peripheral_server_mode_uuid"`
	CentralClientModeUUID    string `toml:"central_client_mode_uuid"`
}

type NfcConfig struct {
	CommandDataFieldMaxLength  uint64 `toml:"cmd_max_length"`
	ResponseDataFieldMaxLength uint64 `toml:"resp_max_length"`
}

type HttpConfig struct {
	URI string `toml:"uri"`
}

func Default() Config {
	return Config{
		Addr:              ":8080",
		CORSOrigins:       []string{"*"},
		LogLevel:          "info",
		EngagementVersion: engagement.Version10,
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path loads defaults only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("config: addr is required")
	}
	switch c.EngagementVersion {
	case engagement.Version10, engagement.Version11:
	default:
		return fmt.Errorf("config: unsupported engagement_version %q", c.EngagementVersion)
	}
	if c.Http != nil && c.Http.URI == "" {
		return fmt.Errorf("config: [http] uri is required")
	}
	if c.Ble != nil && !c.Ble.PeripheralServerMode && !c.Ble.CentralClientMode {
		return fmt.Errorf("config: [ble] needs at least one mode")
	}
	_, err := c.ConnectionMethods()
	return err
}

// ConnectionMethods returns the methods advertised in device engagement, in
// NFC, BLE, Wi-Fi Aware, HTTP order.
func (c Config) ConnectionMethods() ([]cm.ConnectionMethod, error) {
	var methods []cm.ConnectionMethod

	if c.Nfc != nil {
		methods = append(methods, cm.Nfc{
			CommandDataFieldMaxLength:  c.Nfc.CommandDataFieldMaxLength,
			ResponseDataFieldMaxLength: c.Nfc.ResponseDataFieldMaxLength,
		})
	}

	if c.Ble != nil {
		ble := cm.Ble{
			SupportsPeripheralServerMode: c.Ble.PeripheralServerMode,
			SupportsCentralClientMode:    c.Ble.CentralClientMode,
		}
		var err error
		if ble.PeripheralServerModeUUID, err = parseUUID(c.Ble.PeripheralServerModeUUID); err != nil {
			return nil, fmt.Errorf("config: [ble] peripheral_server_mode_uuid: %w", err)
		}
		if ble.CentralClientModeUUID, err = parseUUID(c.Ble.CentralClientModeUUID); err != nil {
			return nil, fmt.Errorf("config: [ble] central_client_mode_uuid: %w", err)
		}
		methods = append(methods, ble)
	}

	if w := c.WifiAware; w != nil {
		wifi := cm.WifiAware{
			Passphrase:     cm.FromPtr(w.Passphrase),
			ChannelNumber:  cm.FromPtr(w.ChannelNumber),
			OperatingClass: cm.FromPtr(w.OperatingClass),
		}
		if w.SupportedBands != nil {
			bands, err := hex.DecodeString(*w.SupportedBands)
			if err != nil {
				return nil, fmt.Errorf("config: [wifi_aware] supported_bands: %w", err)
			}
			wifi.SupportedBands = cm.Some(bands)
		}
		methods = append(methods, wifi)
	}

	if c.Http != nil {
		methods = append(methods, cm.Http{URI: c.Http.URI})
	}

	return methods, nil
}

func parseUUID(s string) (cm.Optional[uuid.UUID], error) {
	if s == "" {
		return cm.None[uuid.UUID](), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return cm.None[uuid.UUID](), err
	}
	return cm.Some(id), nil
}
