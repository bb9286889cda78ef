package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EnvDataDir overrides app.data_dir.
const EnvDataDir = "JOBWATCH_DATA_DIR"

// ResolveDataDir picks the data dir from the flag, then the environment. Empty means
// neither was given and the config file decides.
func ResolveDataDir(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(EnvDataDir))
}

// EnsureUserConfig returns dataDir/config.yml, seeding it from defaultPath on first run.
// When defaultPath is missing too, the built-in defaults are written instead.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return userPath, SaveAtomic(userPath, Default())
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}
