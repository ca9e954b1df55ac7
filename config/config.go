// Package config loads settings from an optional config file and CONTENTGEN_* environment
// variables, and resolves the model API key.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CONTENTGEN"

type Config struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Output OutputConfig `mapstructure:"output"`
	Parser ParserConfig `mapstructure:"parser"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// LLMConfig 模型相关配置；api_key 只是凭据来源之一，见 Resolver。
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	APIKeyEnv   string  `mapstructure:"api_key_env"`
	DotEnvPath  string  `mapstructure:"dotenv_path"`
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Unique bool   `mapstructure:"unique"`
}

type ParserConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	Metrics     bool          `mapstructure:"metrics"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads path when it exists, then applies environment overrides such as
// CONTENTGEN_LLM_MODEL. A missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("llm.dotenv_path", ".env")

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.unique", false)

	v.SetDefault("parser.mode", "trailing")

	v.SetDefault("server.addr", ":7860")
	v.SetDefault("server.timeout", "60s")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.metrics", true)

	v.SetDefault("log.level", "info")
}
