package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.EmailSubject != "New member" {
		t.Errorf("EmailSubject = %q, want New member", cfg.EmailSubject)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MATRIX_HOST", "synapse.example.org")
	t.Setenv("MATRIX_WATCH", "RoomA, RoomB ,")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MatrixHost != "synapse.example.org" {
		t.Errorf("MatrixHost = %q", cfg.MatrixHost)
	}
	if len(cfg.WatchRooms) != 2 || cfg.WatchRooms[0] != "RoomA" || cfg.WatchRooms[1] != "RoomB" {
		t.Errorf("WatchRooms = %v", cfg.WatchRooms)
	}
	if cfg.SMTPPort != 2525 {
		t.Errorf("SMTPPort = %d, want 2525", cfg.SMTPPort)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Error("Load accepted invalid SMTP_PORT")
	}
}

func TestValidateReportsAllMissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate passed on empty config")
	}
	for _, want := range []string{"matrix host", "smtp host", "email to"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestResolveSecretsReadsInOrder(t *testing.T) {
	cfg := &Config{MatrixPassword: StdinSentinel, SMTPPassword: StdinSentinel}
	stdin := strings.NewReader("matrix-secret\nsmtp-secret\n")

	if err := cfg.ResolveSecrets(stdin); err != nil {
		t.Fatalf("ResolveSecrets: %v", err)
	}
	if cfg.MatrixPassword != "matrix-secret" {
		t.Errorf("MatrixPassword = %q", cfg.MatrixPassword)
	}
	if cfg.SMTPPassword != "smtp-secret" {
		t.Errorf("SMTPPassword = %q", cfg.SMTPPassword)
	}
}

func TestResolveSecretsOnlyWhenSentinel(t *testing.T) {
	cfg := &Config{MatrixPassword: "literal", SMTPPassword: StdinSentinel}
	stdin := strings.NewReader("smtp-secret\n")

	if err := cfg.ResolveSecrets(stdin); err != nil {
		t.Fatalf("ResolveSecrets: %v", err)
	}
	if cfg.MatrixPassword != "literal" {
		t.Errorf("MatrixPassword = %q, want literal", cfg.MatrixPassword)
	}
	if cfg.SMTPPassword != "smtp-secret" {
		t.Errorf("SMTPPassword = %q", cfg.SMTPPassword)
	}
}

func TestResolveSecretsMissingInput(t *testing.T) {
	cfg := &Config{MatrixPassword: StdinSentinel, SMTPPassword: StdinSentinel}
	if err := cfg.ResolveSecrets(strings.NewReader("only-one-line\n")); err == nil {
		t.Error("ResolveSecrets accepted truncated stdin")
	}
}
