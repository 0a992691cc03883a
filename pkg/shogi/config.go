package shogi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const xdgConfigFile = "shogi/config.json"

type Config struct {
	ClockMillis int64  `json:"clock_millis"`
	LogLevel    string `json:"log_level"`
	SaveDir     string `json:"save_dir"`
	KIFEncoding string `json:"kif_encoding"`
}

var DefaultConfig = Config{
	LogLevel:    "info",
	SaveDir:     ".",
	KIFEncoding: "utf-8",
}

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("config error: %s", e.err)
}

// Clock returns the configured time per side; zero means untimed.
func (c Config) Clock() time.Duration {
	return time.Duration(c.ClockMillis) * time.Millisecond
}

// ShiftJIS reports whether KIF exports should be Shift-JIS encoded.
func (c Config) ShiftJIS() bool {
	return c.KIFEncoding == "shift_jis"
}

func (c Config) Validate() error {
	if c.ClockMillis < 0 {
		return &InvalidConfig{"clock_millis must be >= 0"}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &InvalidConfig{fmt.Sprintf("unknown log_level %q", c.LogLevel)}
	}
	switch c.KIFEncoding {
	case "utf-8", "shift_jis":
	default:
		return &InvalidConfig{fmt.Sprintf("unknown kif_encoding %q", c.KIFEncoding)}
	}
	return nil
}

// FindConfigPath walks up from the working directory looking for
// config.json, then falls back to the XDG config directories.
func FindConfigPath() (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	dir := cwd
	for {
		path := filepath.Join(dir, "config.json")
		if _, err := os.Stat(path); err == nil {
			return path, filepath.Dir(path), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if path, err := xdg.SearchConfigFile(xdgConfigFile); err == nil {
		return path, filepath.Dir(path), nil
	}
	return "", "", fmt.Errorf("config.json not found from %s", cwd)
}

// LoadConfig reads path over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
