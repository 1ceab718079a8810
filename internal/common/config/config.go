// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Service  ServiceConfig  `mapstructure:"service"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	APIs     APIsConfig     `mapstructure:"apis"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServiceConfig holds the filesystem layout for a generation run: where
// scratch work happens, where assets come from, and where outputs land.
type ServiceConfig struct {
	// ImageSourceHint declares how image references should be read:
	// "url", "local", or "" to decide per reference.
	ImageSourceHint string `mapstructure:"image_source_hint"`
	WorkDir         string `mapstructure:"work_dir"`
	FontsLocation   string `mapstructure:"fonts_location"`
	LogoLocation    string `mapstructure:"logo_location"`
	OutputBaseDir   string `mapstructure:"output_base_dir"`
}

// PipelineConfig holds the rendering and encoding constants.
type PipelineConfig struct {
	CanvasWidth      int     `mapstructure:"canvas_width"`
	CanvasHeight     int     `mapstructure:"canvas_height"`
	SlideMaxWidthPx  int     `mapstructure:"slide_max_width_px"`
	SlideMaxLines    int     `mapstructure:"slide_max_lines"`
	RegularFontName  string  `mapstructure:"regular_font_name"`
	BoldFontName     string  `mapstructure:"bold_font_name"`
	RegularFontSize  float64 `mapstructure:"regular_font_size"`
	BoldFontSize     float64 `mapstructure:"bold_font_size"`
	FPS              int     `mapstructure:"fps"`
	ImageTimeout     int     `mapstructure:"image_timeout"` // milliseconds
	FFmpegPath       string  `mapstructure:"ffmpeg_path"`
	FFprobePath      string  `mapstructure:"ffprobe_path"`
	MinNarrationSize int     `mapstructure:"min_narration_size"` // bytes
}

// --- External AI Collaborators ---
type APIsConfig struct {
	TextGen TextGenConfig `mapstructure:"textgen"`
	Speech  SpeechConfig  `mapstructure:"speech"`
}

type TextGenConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

type SpeechConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Voice    string `mapstructure:"voice"`
	Language string `mapstructure:"language"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

// --- Blob Store ---
type StoreConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	RootPrefix    string `mapstructure:"root_prefix"`
	OutputsFolder string `mapstructure:"outputs_folder"`
	FontsFolder   string `mapstructure:"fonts_folder"`
	LogoFolder    string `mapstructure:"logo_folder"`
	MaxAttempts   int    `mapstructure:"max_attempts"`
	BackoffBase   int    `mapstructure:"backoff_base"` // milliseconds
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	LedgerTTL int    `mapstructure:"ledger_ttl"` // minutes
}

type BatchConfig struct {
	MaxConsecutiveFailures int `mapstructure:"max_consecutive_failures"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// Addr returns the redis address in host:port form.
func (r RedisConfig) Addr() string {
	if r.Address == "" {
		return "localhost:6379"
	}
	return r.Address
}

// String renders the app identity for startup logs.
func (a AppConfig) String() string {
	return fmt.Sprintf("%s/%s (%s)", a.Name, a.Version, a.Environment)
}
