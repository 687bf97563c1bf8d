package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
	if cfg.Journal.RetentionMode != "session" {
		t.Fatalf("expected default journal retention, got %q", cfg.Journal.RetentionMode)
	}
	if cfg.Speech.Mode != "mock" {
		t.Fatalf("expected default speech mode mock, got %q", cfg.Speech.Mode)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ANSAGE_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("ANSAGE_BUS_USERNAME", "alice")
	t.Setenv("ANSAGE_BUS_PASSWORD", "secret")
	t.Setenv("ANSAGE_BUS_TLS_INSECURE", "true")
	t.Setenv("ANSAGE_BUS_CONNECT_TIMEOUT_MS", "5000")
	t.Setenv("ANSAGE_JOURNAL_PATH", "./tmp.db")
	t.Setenv("ANSAGE_JOURNAL_RETENTION_MODE", "persistent")
	t.Setenv("ANSAGE_JOURNAL_RETENTION_DAYS", "7")
	t.Setenv("ANSAGE_JOURNAL_MAX_ROUTES", "123")
	t.Setenv("ANSAGE_ANNOUNCER_INCLUDE_FOLLOWING", "true")
	t.Setenv("ANSAGE_SPEECH_ENABLED", "true")
	t.Setenv("ANSAGE_SPEECH_MODE", "exec")
	t.Setenv("ANSAGE_SPEECH_COMMAND", "piper --model de_DE")
	t.Setenv("ANSAGE_SPEAKER_ID", "test-node")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Username != "alice" || cfg.Bus.Password != "secret" {
		t.Fatalf("expected credentials override")
	}
	if !cfg.Bus.TLSInsecure {
		t.Fatal("expected tls insecure override true")
	}
	if cfg.Bus.ConnectTimeout != 5000 {
		t.Fatalf("expected timeout 5000, got %d", cfg.Bus.ConnectTimeout)
	}
	if cfg.Journal.Path != "./tmp.db" {
		t.Fatalf("expected journal path override")
	}
	if cfg.Journal.RetentionMode != "persistent" {
		t.Fatalf("expected journal retention mode override")
	}
	if cfg.Journal.RetentionDays != 7 {
		t.Fatalf("expected journal retention days override")
	}
	if cfg.Journal.MaxRoutes != 123 {
		t.Fatalf("expected journal max routes override")
	}
	if !cfg.Announcer.IncludeFollowing {
		t.Fatalf("expected include_following override")
	}
	if cfg.Speech.Mode != "exec" || cfg.Speech.Command == "" {
		t.Fatalf("expected speech exec override, got %+v", cfg.Speech)
	}
	if cfg.Speaker.ID != "test-node" {
		t.Fatalf("expected speaker id override")
	}
}

func TestValidateRejectsBadSpeechMode(t *testing.T) {
	t.Setenv("ANSAGE_SPEECH_ENABLED", "true")
	t.Setenv("ANSAGE_SPEECH_MODE", "cloud")

	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for unknown speech mode")
	}
}
