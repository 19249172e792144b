package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"NIKKI_CONFIG", "MATRIX_HOMESERVER", "MATRIX_USER_ID", "MATRIX_ACCESS_TOKEN",
	"NIKKI_ALLOWED_USERS", "NIKKI_STORE", "DATABASE_PATH", "NIKKI_JOURNAL_FILE",
	"NIKKI_CHECKIN_SCHEDULE", "NIKKI_CHECKIN_EXPIRY", "NIKKI_PREVIEW_LENGTH",
	"HTTP_ADDR", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func setMatrixEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MATRIX_HOMESERVER", "https://matrix.example.com")
	t.Setenv("MATRIX_USER_ID", "@nikki:example.com")
	t.Setenv("MATRIX_ACCESS_TOKEN", "syt_secret")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setMatrixEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.DatabasePath != "./nikki.db" {
		t.Errorf("unexpected store defaults %+v", cfg.Store)
	}
	if cfg.Checkin.Schedule != "0 20 * * *" {
		t.Errorf("schedule: got %q", cfg.Checkin.Schedule)
	}
	if cfg.Checkin.Expiry != time.Hour {
		t.Errorf("expiry: got %v", cfg.Checkin.Expiry)
	}
	if cfg.Checkin.PreviewLength != 40 {
		t.Errorf("preview length: got %d", cfg.Checkin.PreviewLength)
	}
}

func TestLoad_MissingMatrixSettings(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{"MATRIX_HOMESERVER", "MATRIX_USER_ID", "MATRIX_ACCESS_TOKEN"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error does not mention %s: %v", name, err)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	setMatrixEnv(t)
	t.Setenv("NIKKI_ALLOWED_USERS", " @a:x , @b:x,")
	t.Setenv("NIKKI_STORE", "file")
	t.Setenv("NIKKI_JOURNAL_FILE", "/var/lib/nikki/journals.json")
	t.Setenv("NIKKI_CHECKIN_SCHEDULE", "30 21 * * *")
	t.Setenv("NIKKI_CHECKIN_EXPIRY", "90m")
	t.Setenv("NIKKI_PREVIEW_LENGTH", "25")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(cfg.Matrix.AllowedUsers, []string{"@a:x", "@b:x"}) {
		t.Errorf("allowed users: got %q", cfg.Matrix.AllowedUsers)
	}
	if cfg.Store.Backend != BackendFile || cfg.Store.JournalFile != "/var/lib/nikki/journals.json" {
		t.Errorf("store: got %+v", cfg.Store)
	}
	if cfg.Checkin.Schedule != "30 21 * * *" || cfg.Checkin.Expiry != 90*time.Minute || cfg.Checkin.PreviewLength != 25 {
		t.Errorf("checkin: got %+v", cfg.Checkin)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("log format: got %q", cfg.LogFormat)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"bad schedule", "NIKKI_CHECKIN_SCHEDULE", "0 25 * * *", "check-in schedule"},
		{"bad expiry", "NIKKI_CHECKIN_EXPIRY", "an hour", "NIKKI_CHECKIN_EXPIRY"},
		{"negative expiry", "NIKKI_CHECKIN_EXPIRY", "-1h", "expiry must be positive"},
		{"bad preview", "NIKKI_PREVIEW_LENGTH", "forty", "NIKKI_PREVIEW_LENGTH"},
		{"zero preview", "NIKKI_PREVIEW_LENGTH", "0", "preview length"},
		{"unknown backend", "NIKKI_STORE", "postgres", "unknown store backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setMatrixEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_YAMLFileWithEnvOverlay(t *testing.T) {
	clearEnv(t)
	setMatrixEnv(t)

	path := filepath.Join(t.TempDir(), "nikki.yaml")
	doc := `
store:
  backend: file
  journal_file: /srv/journals.json
checkin:
  schedule: "0 19 * * 1-5"
  expiry: 45m
messages:
  checkin_prompt: "Wie war dein Tag?"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NIKKI_CONFIG", path)
	t.Setenv("NIKKI_CHECKIN_EXPIRY", "2h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != BackendFile || cfg.Store.JournalFile != "/srv/journals.json" {
		t.Errorf("store: got %+v", cfg.Store)
	}
	if cfg.Store.DatabasePath != "./nikki.db" {
		t.Errorf("unset yaml key lost its default: %q", cfg.Store.DatabasePath)
	}
	if cfg.Checkin.Schedule != "0 19 * * 1-5" {
		t.Errorf("schedule: got %q", cfg.Checkin.Schedule)
	}
	if cfg.Checkin.Expiry != 2*time.Hour {
		t.Errorf("env should override yaml expiry, got %v", cfg.Checkin.Expiry)
	}
	if cfg.Messages.CheckinPrompt != "Wie war dein Tag?" {
		t.Errorf("message override: got %q", cfg.Messages.CheckinPrompt)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse([]byte("checkin:\n  shedule: typo\n")); err == nil {
		t.Error("expected unknown field to be rejected")
	}
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty document: %v", err)
	}
	if cfg.Checkin.PreviewLength != 40 {
		t.Errorf("empty document should keep defaults, got %+v", cfg.Checkin)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
