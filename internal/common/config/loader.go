// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like TEXTGEN_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from multiple possible locations so the binary and
// tests behave the same regardless of working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.TextGen.APIKey == "" {
		if val := os.Getenv("TEXTGEN_API_KEY"); val != "" {
			cfg.APIs.TextGen.APIKey = val
		}
	}
	if cfg.APIs.Speech.APIKey == "" {
		if val := os.Getenv("SPEECH_API_KEY"); val != "" {
			cfg.APIs.Speech.APIKey = val
		}
	}
	if cfg.Store.Bucket == "" {
		if val := os.Getenv("STORE_BUCKET"); val != "" {
			cfg.Store.Bucket = val
		}
	}
	if cfg.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Redis.Address = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Service layout defaults
	if cfg.Service.WorkDir == "" {
		cfg.Service.WorkDir = os.TempDir()
	}
	if cfg.Service.OutputBaseDir == "" {
		cfg.Service.OutputBaseDir = "output"
	}

	// Rendering defaults
	if cfg.Pipeline.CanvasWidth == 0 {
		cfg.Pipeline.CanvasWidth = 1280
	}
	if cfg.Pipeline.CanvasHeight == 0 {
		cfg.Pipeline.CanvasHeight = 720
	}
	if cfg.Pipeline.SlideMaxWidthPx == 0 {
		cfg.Pipeline.SlideMaxWidthPx = 600
	}
	if cfg.Pipeline.SlideMaxLines == 0 {
		cfg.Pipeline.SlideMaxLines = 3
	}
	if cfg.Pipeline.RegularFontName == "" {
		cfg.Pipeline.RegularFontName = "Poppins-Light.ttf"
	}
	if cfg.Pipeline.BoldFontName == "" {
		cfg.Pipeline.BoldFontName = "Poppins-Bold.ttf"
	}
	if cfg.Pipeline.RegularFontSize == 0 {
		cfg.Pipeline.RegularFontSize = 35
	}
	if cfg.Pipeline.BoldFontSize == 0 {
		cfg.Pipeline.BoldFontSize = 38
	}
	if cfg.Pipeline.FPS == 0 {
		cfg.Pipeline.FPS = 24
	}
	if cfg.Pipeline.ImageTimeout == 0 {
		cfg.Pipeline.ImageTimeout = 30000
	}
	if cfg.Pipeline.FFmpegPath == "" {
		cfg.Pipeline.FFmpegPath = "ffmpeg"
	}
	if cfg.Pipeline.FFprobePath == "" {
		cfg.Pipeline.FFprobePath = "ffprobe"
	}
	if cfg.Pipeline.MinNarrationSize == 0 {
		cfg.Pipeline.MinNarrationSize = 1024
	}

	// API timeout defaults
	if cfg.APIs.TextGen.Timeout == 0 {
		cfg.APIs.TextGen.Timeout = 60000
	}
	if cfg.APIs.TextGen.MaxRetries == 0 {
		cfg.APIs.TextGen.MaxRetries = 3
	}
	if cfg.APIs.TextGen.Model == "" {
		cfg.APIs.TextGen.Model = "gpt-3.5-turbo"
	}
	if cfg.APIs.Speech.Timeout == 0 {
		cfg.APIs.Speech.Timeout = 30000
	}
	if cfg.APIs.Speech.Language == "" {
		cfg.APIs.Speech.Language = "en"
	}

	// Store defaults
	if cfg.Store.OutputsFolder == "" {
		cfg.Store.OutputsFolder = "outputs"
	}
	if cfg.Store.FontsFolder == "" {
		cfg.Store.FontsFolder = "fonts"
	}
	if cfg.Store.LogoFolder == "" {
		cfg.Store.LogoFolder = "logo"
	}
	if cfg.Store.MaxAttempts == 0 {
		cfg.Store.MaxAttempts = 3
	}
	if cfg.Store.BackoffBase == 0 {
		cfg.Store.BackoffBase = 1500
	}

	// Redis defaults
	if cfg.Redis.LedgerTTL == 0 {
		cfg.Redis.LedgerTTL = 60
	}

	// Batch defaults
	if cfg.Batch.MaxConsecutiveFailures == 0 {
		cfg.Batch.MaxConsecutiveFailures = 3
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9102"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Service.FontsLocation == "" && !cfg.Store.Enabled {
		return fmt.Errorf("service.fonts_location is required when the blob store is disabled")
	}

	if cfg.APIs.TextGen.BaseURL == "" {
		return fmt.Errorf("apis.textgen.base_url is required")
	}
	if cfg.APIs.Speech.BaseURL == "" {
		return fmt.Errorf("apis.speech.base_url is required")
	}

	if cfg.Store.Enabled && cfg.Store.Bucket == "" {
		return fmt.Errorf("store.bucket is required when store.enabled is true")
	}

	if cfg.Redis.Enabled && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis.enabled is true")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
