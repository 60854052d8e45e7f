package config

import (
	"testing"

	"github.com/campusops/gradefile/internal/tablefile"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Exchange.Format != "xlsx" {
		t.Errorf("Exchange.Format = %q, want %q", cfg.Exchange.Format, "xlsx")
	}
	if cfg.Exchange.MaxUploadSize != 10485760 {
		t.Errorf("Exchange.MaxUploadSize = %d, want %d", cfg.Exchange.MaxUploadSize, 10485760)
	}
	if cfg.Exchange.AllowPlagiarismUpdate {
		t.Error("Exchange.AllowPlagiarismUpdate = true, want false")
	}
	if cfg.Exchange.MaxConcurrentImports != 4 {
		t.Errorf("Exchange.MaxConcurrentImports = %d, want 4", cfg.Exchange.MaxConcurrentImports)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("EXCHANGE_FORMAT", "csv")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.ExportFormat() != tablefile.FormatCSV {
		t.Errorf("ExportFormat() = %q, want csv", cfg.ExportFormat())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() without DATABASE_URL expected error, got nil")
	}
}

func TestLoad_RejectsLegacyXlsFormat(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("EXCHANGE_FORMAT", "xls")

	if _, err := Load(); err == nil {
		t.Fatal("Load() with EXCHANGE_FORMAT=xls expected error, got nil")
	}
}

func TestLoad_AltDatabaseEnvVar(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "postgres://localhost/alt")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/alt" {
		t.Errorf("Database.URL = %q, want DB_URL fallback", cfg.Database.URL)
	}
}
