package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingAPIKey is returned by Load when no provider credential is configured
var ErrMissingAPIKey = errors.New("openai api key is required (set OPENAI_API_KEY)")

// Config holds all configuration for imagestudio
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Generation GenerationConfig `mapstructure:"generation"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
	// WriteTimeout of zero leaves long provider calls uncapped
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
}

// OpenAIConfig holds provider configuration
type OpenAIConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	ChatModel string `mapstructure:"chat_model"`
}

// GenerationConfig holds defaults for direct image generation
type GenerationConfig struct {
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
	Quality string `mapstructure:"quality"`
}

// ChatConfig holds defaults for images generated inside a conversation
type ChatConfig struct {
	Size    string `mapstructure:"size"`
	Quality string `mapstructure:"quality"`
}

// StorageConfig holds filesystem layout configuration
type StorageConfig struct {
	Root      string `mapstructure:"root"`
	PublicDir string `mapstructure:"public_dir"`
	ImagesDir string `mapstructure:"images_dir"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("IMAGESTUDIO")
	v.AutomaticEnv()
	// The provider credential keeps its conventional name
	if err := v.BindEnv("openai.api_key", "IMAGESTUDIO_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.base_url", "http://localhost:3000")
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.allow_origins", []string{})

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.chat_model", "gpt-4.1-mini")

	v.SetDefault("generation.model", "dall-e-2")
	v.SetDefault("generation.size", "256x256")
	v.SetDefault("generation.quality", "auto")

	v.SetDefault("chat.size", "1024x1024")
	v.SetDefault("chat.quality", "low")

	v.SetDefault("storage.root", "")
	v.SetDefault("storage.public_dir", "public")
	v.SetDefault("storage.images_dir", "generated-images")

	v.SetDefault("log.development", false)
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
