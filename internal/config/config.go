package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`
	Limits   LimitsConfig   `json:"limits" mapstructure:"limits"`
	Engine   EngineConfig   `json:"engine" mapstructure:"engine"`
}

type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// DatabaseConfig configures the optional chat-log store. When Enabled is
// false the pipeline runs without any persistence.
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	User     string `json:"user" mapstructure:"user"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL string `json:"base_url,omitempty" mapstructure:"base_url"`
	Model   string `json:"model" mapstructure:"model"`
}

// LimitsConfig holds the per-client admission thresholds.
type LimitsConfig struct {
	MinIntervalMs     int     `json:"min_interval_ms" mapstructure:"min_interval_ms"`
	RequestsPerMinute int     `json:"requests_per_minute" mapstructure:"requests_per_minute"`
	DailyLimit        int     `json:"daily_limit" mapstructure:"daily_limit"`
	TokenLimit        int     `json:"token_limit" mapstructure:"token_limit"`
	WarnFraction      float64 `json:"warn_fraction" mapstructure:"warn_fraction"`
	IdleEvictionHours int     `json:"idle_eviction_hours" mapstructure:"idle_eviction_hours"`
}

// MinInterval returns the minimum gap enforced between two requests.
func (l LimitsConfig) MinInterval() time.Duration {
	return time.Duration(l.MinIntervalMs) * time.Millisecond
}

// IdleEviction returns how long an idle client record is kept.
func (l LimitsConfig) IdleEviction() time.Duration {
	return time.Duration(l.IdleEvictionHours) * time.Hour
}

type EngineConfig struct {
	SystemPromptPath string   `json:"system_prompt_path" mapstructure:"system_prompt_path"`
	HistoryThreshold int      `json:"history_threshold" mapstructure:"history_threshold"`
	KeepRecent       int      `json:"keep_recent" mapstructure:"keep_recent"`
	MaxInputChars    int      `json:"max_input_chars" mapstructure:"max_input_chars"`
	UploadsDir       string   `json:"uploads_dir" mapstructure:"uploads_dir"`
	RepoRoot         string   `json:"repo_root" mapstructure:"repo_root"`
	CareerFiles      []string `json:"career_files" mapstructure:"career_files"`
	CareerDirs       []string `json:"career_dirs" mapstructure:"career_dirs"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".argus"))
	}

	// Set defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 7860)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "argus")
	viper.SetDefault("database.database", "argus")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("provider.model", "gpt-4o-mini")
	viper.SetDefault("limits.min_interval_ms", 1500)
	viper.SetDefault("limits.requests_per_minute", 20)
	viper.SetDefault("limits.daily_limit", 100)
	viper.SetDefault("limits.token_limit", 20000)
	viper.SetDefault("limits.warn_fraction", 0.6)
	viper.SetDefault("limits.idle_eviction_hours", 6)
	viper.SetDefault("engine.system_prompt_path", "prompts/system_prompt.md")
	viper.SetDefault("engine.history_threshold", 16)
	viper.SetDefault("engine.keep_recent", 6)
	viper.SetDefault("engine.max_input_chars", 4000)
	viper.SetDefault("engine.uploads_dir", "uploads")
	viper.SetDefault("engine.repo_root", ".")
	viper.SetDefault("engine.career_files", []string{})
	viper.SetDefault("engine.career_dirs", []string{".", "docs"})

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; defaults plus env cover everything.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

// loadEnvOverrides applies environment variables over the file config
func loadEnvOverrides(cfg *Config) {
	if v := os.Getenv("ARGUS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("ARGUS_OPENAI_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("ARGUS_OPENAI_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("ARGUS_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("ARGUS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("ARGUS_DB_HOST"); v != "" {
		cfg.Database.Host = v
		cfg.Database.Enabled = true
	}
}
