package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"zolver/internal/models"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "zolver-scheduling"
  environment: "test"
database:
  path: "test.db"
scheduling:
  default_job_duration: 90m
api:
  enabled: true
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	// Mock .env file
	if err := os.WriteFile(".env", []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	defer os.Remove(".env")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "zolver-scheduling" {
		t.Errorf("expected app name zolver-scheduling, got %s", cfg.App.Name)
	}
	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.Scheduling.DefaultJobDuration != 90*time.Minute {
		t.Errorf("expected default job duration 90m, got %s", cfg.Scheduling.DefaultJobDuration)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("ZOLVER_TEST_DB_PATH", "expanded.db")

	yamlContent := `
database:
  path: "${ZOLVER_TEST_DB_PATH}"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "expanded.db" {
		t.Errorf("expected expanded path expanded.db, got %s", cfg.Database.Path)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Database: DatabaseConfig{Path: "test.db"}},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "negative job duration",
			cfg: Config{
				Database:   DatabaseConfig{Path: "test.db"},
				Scheduling: SchedulingConfig{DefaultJobDuration: -time.Hour},
			},
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			cfg: Config{
				Database: DatabaseConfig{Path: "test.db"},
				API:      APIConfig{Auth: APIAuthConfig{Enabled: true}},
			},
			wantErr: true,
		},
		{
			name: "auth enabled with keys",
			cfg: Config{
				Database: DatabaseConfig{Path: "test.db"},
				API: APIConfig{Auth: APIAuthConfig{
					Enabled: true,
					APIKeys: []APIClientKey{{Key: "k", Extra: "e", Name: "client"}},
				}},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header x-api-key, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.Scheduling.DefaultJobDuration != models.DefaultJobDuration {
		t.Errorf("expected default job duration %s, got %s", models.DefaultJobDuration, cfg.Scheduling.DefaultJobDuration)
	}
	if cfg.Scheduling.ASAPSentinel != models.ASAPSentinel {
		t.Errorf("expected asap sentinel %q, got %q", models.ASAPSentinel, cfg.Scheduling.ASAPSentinel)
	}
	if cfg.Scheduling.ScheduleCacheTTL != models.DefaultScheduleCacheTTL {
		t.Errorf("expected schedule cache TTL %s, got %s", models.DefaultScheduleCacheTTL, cfg.Scheduling.ScheduleCacheTTL)
	}
}
