package convert

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"clipbook/epub"
)

// Config carries every conversion setting. It is passed explicitly into the
// converter rather than read from process-wide state, so tests can run with
// varied configurations in parallel.
type Config struct {
	OutputDir     string `yaml:"output_dir"`     // where books are written
	DataDir       string `yaml:"data_dir"`       // cache + history database location
	Author        string `yaml:"author"`         // default author when content has none
	Language      string `yaml:"language"`       // default BCP 47 language
	StyleTemplate string `yaml:"style_template"` // default | minimal | modern
	ChapterWords  int    `yaml:"chapter_words"`  // split threshold, 0 = no splitting
	ImageQuality  int    `yaml:"image_quality"`  // JPEG quality 1-100
	ImageMaxMB    int    `yaml:"image_max_mb"`   // inline image download cap in MiB
	OCREnabled    bool   `yaml:"ocr_enabled"`
	OCRLanguage   string `yaml:"ocr_language"` // tesseract language code
	CacheHours    int    `yaml:"cache_hours"`  // cache ttl, 0 = disabled
	WorkerThreads int    `yaml:"worker_threads"`

	// Shell-handled toggles, carried so one config file serves both layers.
	AutoOpen          bool `yaml:"auto_open"`
	ShowNotifications bool `yaml:"show_notifications"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		OutputDir:     ".",
		StyleTemplate: "default",
		ChapterWords:  0,
		ImageQuality:  85,
		ImageMaxMB:    5,
		OCRLanguage:   "eng",
		CacheHours:    24,
		WorkerThreads: 4,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects out-of-range settings.
func (c *Config) Validate() error {
	if c.ChapterWords < 0 {
		return fmt.Errorf("chapter_words must be >= 0, got %d", c.ChapterWords)
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		return fmt.Errorf("image_quality must be 1-100, got %d", c.ImageQuality)
	}
	if c.ImageMaxMB < 1 {
		return fmt.Errorf("image_max_mb must be >= 1, got %d", c.ImageMaxMB)
	}
	if c.CacheHours < 0 {
		return fmt.Errorf("cache_hours must be >= 0, got %d", c.CacheHours)
	}
	if c.WorkerThreads < 1 {
		return fmt.Errorf("worker_threads must be >= 1, got %d", c.WorkerThreads)
	}
	if !slices.Contains(epub.StyleNames(), c.StyleTemplate) {
		return fmt.Errorf("unknown style_template %q", c.StyleTemplate)
	}
	return nil
}
