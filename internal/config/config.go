package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Note          NoteConfig          `yaml:"note"`
	Credentials   CredentialsConfig   `yaml:"credentials"`
	Browser       BrowserConfig       `yaml:"browser"`
	Crawl         CrawlConfig         `yaml:"crawl"`
	Output        OutputConfig        `yaml:"output"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
	SelectorsFile string              `yaml:"selectors_file"`
}

type NoteConfig struct {
	BaseURL   string `yaml:"base_url"`
	LoginPath string `yaml:"login_path"`
	StatsPath string `yaml:"stats_path"`
}

type CredentialsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type BrowserConfig struct {
	// Headless is a pointer so an absent yaml key defaults to true.
	Headless     *bool  `yaml:"headless"`
	ChromePath   string `yaml:"chrome_path"`
	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
}

type CrawlConfig struct {
	RequestDelayS int  `yaml:"request_delay_s"`
	TimeoutS      int  `yaml:"timeout_s"`
	MaxPages      int  `yaml:"max_pages"`
	MaxArticles   int  `yaml:"max_articles"`
	SkipDetails   bool `yaml:"skip_details"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ObservabilityConfig struct {
	LogPath    string `yaml:"log_path"`
	LogLevel   string `yaml:"log_level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SetDefaults fills in the values a minimal config file may omit.
func (c *Config) SetDefaults() {
	if c.Note.BaseURL == "" {
		c.Note.BaseURL = "https://note.com"
	}
	if c.Note.LoginPath == "" {
		c.Note.LoginPath = "/login"
	}
	if c.Note.StatsPath == "" {
		c.Note.StatsPath = "/sitesettings/stats"
	}
	if c.Browser.Headless == nil {
		headless := true
		c.Browser.Headless = &headless
	}
	if c.Browser.WindowWidth <= 0 {
		c.Browser.WindowWidth = 1920
	}
	if c.Browser.WindowHeight <= 0 {
		c.Browser.WindowHeight = 1080
	}
	if c.Crawl.RequestDelayS == 0 {
		c.Crawl.RequestDelayS = 2
	}
	if c.Crawl.TimeoutS == 0 {
		c.Crawl.TimeoutS = 30
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Observability.LogPath == "" {
		c.Observability.LogPath = "logs/note-stats.log"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.MaxSizeMB <= 0 {
		c.Observability.MaxSizeMB = 20
	}
	if c.Observability.MaxBackups <= 0 {
		c.Observability.MaxBackups = 5
	}
}

// Validation
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Note.BaseURL, "http") {
		return fmt.Errorf("note.base_url must be an absolute URL")
	}
	if c.Crawl.RequestDelayS < 0 {
		return fmt.Errorf("crawl.request_delay_s must be >= 0")
	}
	if c.Crawl.TimeoutS <= 0 {
		return fmt.Errorf("crawl.timeout_s must be > 0")
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must be >= 0 (0 means unlimited)")
	}
	if c.Crawl.MaxArticles < 0 {
		return fmt.Errorf("crawl.max_articles must be >= 0 (0 means unlimited)")
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required when storage.enabled is true")
	}
	return nil
}

// Getters
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

func (c *Config) LoginURL() string {
	return strings.TrimRight(c.Note.BaseURL, "/") + c.Note.LoginPath
}

func (c *Config) StatsURL() string {
	return strings.TrimRight(c.Note.BaseURL, "/") + c.Note.StatsPath
}

func (c *Config) GetRequestDelay() time.Duration {
	return time.Duration(c.Crawl.RequestDelayS) * time.Second
}

func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Crawl.TimeoutS) * time.Second
}
