package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"judgegate/internal/submit/service"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dispatcher.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestLoadAppConfigDefaults(t *testing.T) {
	cfg, err := loadAppConfig(writeConfig(t, "database:\n  host: db\n"))
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Server.Addr != defaultHTTPAddr || cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Broker.Driver != "amqp" || cfg.Broker.AMQP.Queue != defaultQueue || cfg.Broker.Kafka.Topic != defaultQueue {
		t.Fatalf("unexpected broker defaults: %+v", cfg.Broker)
	}
	if cfg.Auth.Mode != "allow" {
		t.Fatalf("auth mode = %q", cfg.Auth.Mode)
	}
	if _, ok := cfg.Logger.Files["server"]; !ok {
		t.Fatalf("server log tag missing: %+v", cfg.Logger.Files)
	}
	if _, ok := cfg.Logger.Files["access"]; !ok {
		t.Fatalf("access log tag missing: %+v", cfg.Logger.Files)
	}
	want := service.TimeoutConfig{DB: 3 * time.Second, MQ: 3 * time.Second}
	if cfg.Dispatch.Timeouts != want {
		t.Fatalf("timeouts = %+v", cfg.Dispatch.Timeouts)
	}
}

func TestLoadAppConfigShippedFile(t *testing.T) {
	cfg, err := loadAppConfig(filepath.Join("..", "..", "configs", "dispatcher.yaml"))
	if err != nil {
		t.Fatalf("load shipped config failed: %v", err)
	}
	if cfg.Database.Timeout != 120*time.Second {
		t.Fatalf("database timeout = %v", cfg.Database.Timeout)
	}
	if cfg.Broker.Reconnect.Retries != 5 || cfg.Broker.Reconnect.Timeout != 50*time.Second {
		t.Fatalf("unexpected reconnect settings: %+v", cfg.Broker.Reconnect)
	}
}

func TestLoadAppConfigRejects(t *testing.T) {
	cases := map[string]struct {
		content string
		want    string
	}{
		"driver":     {content: "database:\n  host: db\nbroker:\n  driver: nats\n", want: "broker driver"},
		"jwt secret": {content: "database:\n  host: db\nauth:\n  mode: jwt\n", want: "jwtSecret"},
		"auth mode":  {content: "database:\n  host: db\nauth:\n  mode: basic\n", want: "auth mode"},
		"database":   {content: "server:\n  addr: \":1\"\n", want: "database"},
		"yaml":       {content: "server: [", want: "parse config"},
	}
	for name, tc := range cases {
		_, err := loadAppConfig(writeConfig(t, tc.content))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", name, tc.want, err)
		}
	}
}
