// Package config provides configuration for the log reconciliation service.
// Values resolve in order: process environment, then an optional KEY=VALUE
// file loaded once at startup, then built-in defaults. The result is an
// explicit struct passed into constructors, not process-wide state, so tests
// can run several configurations side by side.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fujit1113/ValueFromLog/internal/models"
)

// Default column lists for the two source sheets. Overridable via
// OPERATION_COLS / STATE_COLS (comma-separated) or a schema rules file.
var (
	DefaultOperationCols = []string{
		"ContractId",
		"OrderReceiptDate",
		"TimerDiv",
		"FloorCode",
		"RoomName",
		"EquipmentTypeId",
		"EquipmentName",
		"PropertyCode",
		"PropertyName",
		"PropertyValue",
	}

	DefaultStateCols = []string{
		"MessageName",
		"ContractId",
		"ReportedDate",
		"FloorCode",
		"RoomName",
		"EquipmentTypeId",
		"EquipmentName",
		"PropertyCode1",
		"PropertyName1",
		"PropertyValue1",
	}
)

// Config holds all application settings.
type Config struct {
	// DataDir is where input CSV exports are discovered.
	DataDir string

	// CacheDir holds the fingerprint-keyed result cache.
	CacheDir string

	// OperationCols / StateCols are the required columns per sheet.
	OperationCols []string
	StateCols     []string

	// ToleranceMinutes is the maximum |state time - operation time| for a
	// status change to be attributed to a remote operation.
	ToleranceMinutes int

	// ContractWarnThreshold is the contract-ID count above which a fetch
	// logs an advisory and continues.
	ContractWarnThreshold int

	ServerPort int
	LogLevel   string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:               "./data",
		CacheDir:              "./data/.cache",
		OperationCols:         append([]string(nil), DefaultOperationCols...),
		StateCols:             append([]string(nil), DefaultStateCols...),
		ToleranceMinutes:      5,
		ContractWarnThreshold: 10000,
		ServerPort:            8089,
		LogLevel:              "info",
	}
}

// Load builds a Config from the process environment layered over the optional
// env file at envPath. A missing file is not an error; a present but
// malformed value is.
func Load(envPath string) (*Config, error) {
	fileVals, err := readEnvFile(envPath)
	if err != nil {
		return nil, err
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileVals[key]
	}

	cfg := DefaultConfig()

	if v := lookup("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := lookup("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := lookup("OPERATION_COLS"); v != "" {
		cfg.OperationCols = splitList(v)
	}
	if v := lookup("STATE_COLS"); v != "" {
		cfg.StateCols = splitList(v)
	}
	if v := lookup("MERGE_TOLERANCE_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &models.ConfigurationError{Key: "MERGE_TOLERANCE_MINUTES", Reason: "not an integer: " + v}
		}
		cfg.ToleranceMinutes = n
	}
	if v := lookup("CONTRACT_ID_WARN_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &models.ConfigurationError{Key: "CONTRACT_ID_WARN_THRESHOLD", Reason: "not an integer: " + v}
		}
		cfg.ContractWarnThreshold = n
	}
	if v := lookup("SERVER_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &models.ConfigurationError{Key: "SERVER_PORT", Reason: "not an integer: " + v}
		}
		cfg.ServerPort = n
	}
	if v := lookup("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on settings that would only blow up mid-pipeline.
func (c *Config) Validate() error {
	if _, err := c.Tolerance(); err != nil {
		return err
	}
	if c.ContractWarnThreshold < 0 {
		return &models.ConfigurationError{Key: "CONTRACT_ID_WARN_THRESHOLD", Reason: "must be non-negative"}
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return &models.ConfigurationError{Key: "SERVER_PORT", Reason: fmt.Sprintf("%d out of range 1-65535", c.ServerPort)}
	}
	if len(c.OperationCols) == 0 || len(c.StateCols) == 0 {
		return &models.ConfigurationError{Key: "OPERATION_COLS/STATE_COLS", Reason: "column list must not be empty"}
	}
	return nil
}

// Tolerance resolves the merge tolerance as a duration. Negative values are a
// configuration error, zero means exact-timestamp matches only.
func (c *Config) Tolerance() (time.Duration, error) {
	if c.ToleranceMinutes < 0 {
		return 0, &models.ConfigurationError{
			Key:    "MERGE_TOLERANCE_MINUTES",
			Reason: fmt.Sprintf("must be non-negative, got %d", c.ToleranceMinutes),
		}
	}
	return time.Duration(c.ToleranceMinutes) * time.Minute, nil
}

// ServerAddr returns the listen address in :port form.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// EnsureDirectories creates the data and cache directories if absent.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.CacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// readEnvFile parses a KEY=VALUE file. Blank lines and lines starting with #
// are ignored. A missing file yields an empty map.
func readEnvFile(path string) (map[string]string, error) {
	vals := make(map[string]string)
	if path == "" {
		return vals, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return vals, nil
		}
		return nil, fmt.Errorf("opening env file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := strings.TrimSpace(line[eq+1:])
		if key != "" {
			vals[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return vals, nil
}

// splitList splits a comma-separated value, trimming whitespace and dropping
// empty items.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
