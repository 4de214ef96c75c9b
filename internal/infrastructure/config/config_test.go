package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validJWTSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hmbridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
central:
  name: "house"
  connection_check_interval: 30
  interfaces:
    - interface: "HmIP-RF"
      fixture: "/etc/hmbridge/hmip.yaml"
    - interface: "BidCos-RF"
      ping_pong: false
mqtt:
  broker:
    host: "mqtt.local"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  port: 8091
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Central.Name != "house" {
		t.Errorf("Central.Name = %q, want %q", cfg.Central.Name, "house")
	}
	if got := cfg.GetConnectionCheckInterval(); got != 30*time.Second {
		t.Errorf("GetConnectionCheckInterval() = %v, want 30s", got)
	}
	if len(cfg.Central.Interfaces) != 2 {
		t.Fatalf("len(Central.Interfaces) = %d, want 2", len(cfg.Central.Interfaces))
	}

	hmip := cfg.Central.Interfaces[0]
	if hmip.Fixture != "/etc/hmbridge/hmip.yaml" {
		t.Errorf("Interfaces[0].Fixture = %q", hmip.Fixture)
	}
	if !hmip.PingPongEnabled() {
		t.Error("Interfaces[0].PingPongEnabled() = false, want true by default")
	}
	if cfg.Central.Interfaces[1].PingPongEnabled() {
		t.Error("Interfaces[1].PingPongEnabled() = true, want false")
	}
	if got := cfg.Central.InterfaceID(hmip); got != "house-HmIP-RF" {
		t.Errorf("InterfaceID() = %q, want %q", got, "house-HmIP-RF")
	}

	if cfg.MQTT.Broker.Host != "mqtt.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.local")
	}
	if cfg.API.Port != 8091 {
		t.Errorf("API.Port = %d, want 8091", cfg.API.Port)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want default %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/hmbridge.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
central:
  name: ""
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	for _, want := range []string{"central.name is required", "central.interfaces must list"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Load() error = %v, want it to mention %q", err, want)
		}
	}
}

func validConfig() *Config {
	return &Config{
		Central: CentralConfig{
			Name:                    "ccu",
			ConnectionCheckInterval: 15,
			Interfaces:              []InterfaceConfig{{Interface: "HmIP-RF"}},
		},
		MQTT:     MQTTConfig{QoS: 1},
		API:      APIConfig{Enabled: true, Port: 8090},
		Security: SecurityConfig{JWT: JWTConfig{Secret: validJWTSecret}},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing central name", mutate: func(c *Config) { c.Central.Name = "" }, wantErr: true},
		{name: "zero check interval", mutate: func(c *Config) { c.Central.ConnectionCheckInterval = 0 }, wantErr: true},
		{name: "no interfaces", mutate: func(c *Config) { c.Central.Interfaces = nil }, wantErr: true},
		{
			name:    "empty interface name",
			mutate:  func(c *Config) { c.Central.Interfaces = []InterfaceConfig{{Fixture: "x.yaml"}} },
			wantErr: true,
		},
		{
			name: "duplicate interface",
			mutate: func(c *Config) {
				c.Central.Interfaces = []InterfaceConfig{{Interface: "HmIP-RF"}, {Interface: "HmIP-RF"}}
			},
			wantErr: true,
		},
		{
			name: "negative ping pong mismatch count",
			mutate: func(c *Config) {
				n := -1
				c.Central.Interfaces[0].PingPongMismatchCount = &n
			},
			wantErr: true,
		},
		{
			name: "zero ping pong mismatch count",
			mutate: func(c *Config) {
				n := 0
				c.Central.Interfaces[0].PingPongMismatchCount = &n
			},
		},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "missing JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: true},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{
			name: "API disabled needs no secret",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.Security.JWT.Secret = ""
			},
		},
		{name: "influxdb without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_HM_CENTRAL_NAME", "attic")
	t.Setenv("GRAYLOGIC_HM_CENTRAL_CONNECTION_CHECK_INTERVAL", "5")
	t.Setenv("GRAYLOGIC_HM_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_HM_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_HM_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_HM_API_HOST", "192.168.1.1")
	t.Setenv("GRAYLOGIC_HM_API_PORT", "9000")
	t.Setenv("GRAYLOGIC_HM_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYLOGIC_HM_LOG_LEVEL", "debug")
	t.Setenv("GRAYLOGIC_HM_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	checks := []struct {
		field string
		got   any
		want  any
	}{
		{"Central.Name", cfg.Central.Name, "attic"},
		{"Central.ConnectionCheckInterval", cfg.Central.ConnectionCheckInterval, 5},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"API.Port", cfg.API.Port, 9000},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Logging.Level", cfg.Logging.Level, "debug"},
		{"Security.JWT.Secret", cfg.Security.JWT.Secret, "jwt-secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.field, c.got, c.want)
		}
	}
}

func TestApplyEnvOverrides_IgnoresBadNumbers(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("GRAYLOGIC_HM_API_PORT", "eighty")

	applyEnvOverrides(cfg)

	if cfg.API.Port != 8090 {
		t.Errorf("API.Port = %d, want default 8090", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Central.Name == "" {
		t.Error("defaultConfig should have non-empty Central.Name")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8090 {
		t.Errorf("defaultConfig API.Port = %d, want 8090", cfg.API.Port)
	}

	if cfg.GetConnectionCheckInterval() != 15*time.Second {
		t.Errorf("defaultConfig connection check interval = %v, want 15s", cfg.GetConnectionCheckInterval())
	}
}
