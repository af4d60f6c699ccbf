// Package config resolves the settings for a mailing-sync run from the environment
// and the install directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/reconquista/mailing-sync/failure"
)

const (
	ENV_SPREADSHEET = "URL_MAILING"
	ENV_CONNECTION  = "CONN_STRING"

	WORKSHEET = "MAILING_RECONQUISTA"
)

var (
	CREDENTIALS = filepath.Join("config", "g_creds.json")
	QUERY       = filepath.Join("queries", "select_mailing.sql")
)

// Config holds the settings for a single run. It is not modified after Load.
type Config struct {
	BaseDir        string
	ConnString     string
	SpreadsheetURL string
	Credentials    string
	QueryFile      string
	Worksheet      string
}

// DefaultBaseDir returns the directory containing the running executable.
func DefaultBaseDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Dir(exe)
}

// DefaultEnvFile returns the .env file in the base directory.
func DefaultEnvFile(basedir string) string {
	return filepath.Join(basedir, ".env")
}

// Load reads the environment (after applying envfile, if it exists) and resolves
// the credentials and query files relative to basedir. All missing settings are
// reported together.
func Load(basedir, envfile string) (*Config, error) {
	if envfile != "" {
		if _, err := os.Stat(envfile); err == nil {
			if err := godotenv.Load(envfile); err != nil {
				return nil, fmt.Errorf("error loading environment file %s (%w)", envfile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading environment file %s (%w)", envfile, err)
		}
	}

	base, err := filepath.Abs(basedir)
	if err != nil {
		return nil, fmt.Errorf("invalid base directory %s (%w)", basedir, err)
	}

	cfg := Config{
		BaseDir:        base,
		SpreadsheetURL: strings.TrimSpace(os.Getenv(ENV_SPREADSHEET)),
		ConnString:     strings.TrimSpace(os.Getenv(ENV_CONNECTION)),
		Credentials:    filepath.Join(base, CREDENTIALS),
		QueryFile:      filepath.Join(base, QUERY),
		Worksheet:      WORKSHEET,
	}

	missing := []string{}

	if cfg.SpreadsheetURL == "" {
		missing = append(missing, fmt.Sprintf("environment variable %s", ENV_SPREADSHEET))
	}

	if cfg.ConnString == "" {
		missing = append(missing, fmt.Sprintf("environment variable %s", ENV_CONNECTION))
	}

	for _, file := range []string{cfg.Credentials, cfg.QueryFile} {
		if err := exists(file); err != nil {
			missing = append(missing, err.Error())
		}
	}

	if len(missing) > 0 {
		return nil, failure.New(failure.ErrMissingConfiguration, strings.Join(missing, ", "), nil)
	}

	return &cfg, nil
}

// LoadQuery returns the SQL text in the file. The text is not parsed.
func LoadQuery(file string) (string, error) {
	b, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return "", failure.New(failure.ErrMissingConfiguration, "query file "+file, err)
	} else if err != nil {
		return "", fmt.Errorf("error reading query file %s (%w)", file, err)
	}

	b = bytes.TrimPrefix(b, []byte("\ufeff"))

	if len(bytes.TrimSpace(b)) == 0 {
		return "", failure.Errorf(failure.ErrMissingConfiguration, "query file %s is empty", file)
	}

	return string(b), nil
}

func exists(file string) error {
	info, err := os.Stat(file)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("file %s", file)

	case err != nil:
		return fmt.Errorf("file %s (%v)", file, err)

	case info.IsDir():
		return fmt.Errorf("file %s (is a directory)", file)
	}

	return nil
}
