package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fujit1113/ValueFromLog/internal/models"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults without file or environment", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.ToleranceMinutes != 5 {
			t.Errorf("expected default tolerance 5, got %d", cfg.ToleranceMinutes)
		}
		if cfg.ContractWarnThreshold != 10000 {
			t.Errorf("expected default threshold 10000, got %d", cfg.ContractWarnThreshold)
		}
		if len(cfg.OperationCols) != 10 || cfg.OperationCols[1] != "OrderReceiptDate" {
			t.Errorf("unexpected default operation columns: %v", cfg.OperationCols)
		}
	})

	t.Run("reads KEY=VALUE file with comments", func(t *testing.T) {
		path := writeEnvFile(t, `
# merge settings
MERGE_TOLERANCE_MINUTES = 9
DATA_DIR=/tmp/logs

not a key value line
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.ToleranceMinutes != 9 {
			t.Errorf("expected tolerance 9 from file, got %d", cfg.ToleranceMinutes)
		}
		if cfg.DataDir != "/tmp/logs" {
			t.Errorf("expected data dir from file, got %s", cfg.DataDir)
		}
	})

	t.Run("process environment wins over the file", func(t *testing.T) {
		path := writeEnvFile(t, "MERGE_TOLERANCE_MINUTES=9\n")
		t.Setenv("MERGE_TOLERANCE_MINUTES", "2")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.ToleranceMinutes != 2 {
			t.Errorf("expected env value 2, got %d", cfg.ToleranceMinutes)
		}
	})

	t.Run("comma-separated column overrides", func(t *testing.T) {
		t.Setenv("STATE_COLS", " m, c ,ts,f,r,e,n,p1, p2 ,p3")
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		want := []string{"m", "c", "ts", "f", "r", "e", "n", "p1", "p2", "p3"}
		if len(cfg.StateCols) != len(want) {
			t.Fatalf("expected %d columns, got %v", len(want), cfg.StateCols)
		}
		for i := range want {
			if cfg.StateCols[i] != want[i] {
				t.Errorf("column %d: got %q, want %q", i, cfg.StateCols[i], want[i])
			}
		}
	})

	t.Run("negative tolerance is a configuration error", func(t *testing.T) {
		t.Setenv("MERGE_TOLERANCE_MINUTES", "-1")
		_, err := Load("")

		var confErr *models.ConfigurationError
		if !errors.As(err, &confErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
	})

	t.Run("non-integer tolerance is a configuration error", func(t *testing.T) {
		t.Setenv("MERGE_TOLERANCE_MINUTES", "five")
		_, err := Load("")

		var confErr *models.ConfigurationError
		if !errors.As(err, &confErr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
	})

	t.Run("missing env file is not an error", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
			t.Fatalf("missing file must load defaults, got %v", err)
		}
	})
}

func TestTolerance(t *testing.T) {
	cfg := DefaultConfig()

	d, err := cfg.Tolerance()
	if err != nil {
		t.Fatalf("Tolerance failed: %v", err)
	}
	if d.Minutes() != 5 {
		t.Errorf("expected 5m, got %v", d)
	}

	cfg.ToleranceMinutes = 0
	if d, err = cfg.Tolerance(); err != nil || d != 0 {
		t.Errorf("zero tolerance must be allowed, got %v/%v", d, err)
	}

	cfg.ToleranceMinutes = -3
	if _, err = cfg.Tolerance(); err == nil {
		t.Error("negative tolerance must be rejected")
	}
}
