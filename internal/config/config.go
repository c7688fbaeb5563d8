package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	AppName     = "facegrade"
	EnvFileName = "config.env"
)

// Environment variable names understood by the application.
const (
	EnvProvider  = "FACEGRADE_PROVIDER"
	EnvModel     = "FACEGRADE_MODEL"
	EnvDataDir   = "FACEGRADE_DATA_DIR"
	EnvDBPath    = "FACEGRADE_DB_PATH"
	EnvTokenKey  = "FACEGRADE_TOKEN_KEY"
	EnvLogFile   = "FACEGRADE_LOG_FILE"
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Provider returns the configured oracle provider, defaulting to OpenAI.
func Provider() string {
	if p := os.Getenv(EnvProvider); p != "" {
		return p
	}
	return ProviderOpenAI
}

// CheckRequiredConfig returns the names of required variables that are not
// set for the configured provider.
func CheckRequiredConfig() []string {
	var missing []string
	switch Provider() {
	case ProviderGemini:
		if os.Getenv(EnvGeminiKey) == "" {
			missing = append(missing, EnvGeminiKey)
		}
	default:
		if os.Getenv(EnvOpenAIKey) == "" {
			missing = append(missing, EnvOpenAIKey)
		}
	}
	return missing
}

// DataDir returns the directory holding the database, the local history and
// the session file, creating it when needed.
func DataDir() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", fmt.Errorf("failed to create data dir: %w", err)
		}
		return dir, nil
	}
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	dir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}
	return dir, nil
}

// DBPath returns the SQLite database path.
func DBPath() (string, error) {
	if path := os.Getenv(EnvDBPath); path != "" {
		return path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "analyses.db"), nil
}

// HistoryPath returns the local history cache file path.
func HistoryPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "analysis_history.json"), nil
}

// SessionPath returns the persisted session file path.
func SessionPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session"), nil
}
