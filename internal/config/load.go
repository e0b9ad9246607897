package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "CERITAKU"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output", "")

	v.SetDefault("store.engine", "sqlite")
	v.SetDefault("store.path", "data/ceritaku.db")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_prefix", "ceritaku:")
	v.SetDefault("store.postgres_url", "")

	v.SetDefault("generator.provider", "template")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.base_url", "")
	v.SetDefault("generator.model", "")
	v.SetDefault("generator.image_model", "")
	v.SetDefault("generator.timeout", "30s")
	v.SetDefault("generator.max_retries", 2)
	v.SetDefault("generator.fallback_to_template", true)

	v.SetDefault("media.provider", "none")
	v.SetDefault("media.cos_secret_id", "")
	v.SetDefault("media.cos_secret_key", "")
	v.SetDefault("media.cos_bucket", "")
	v.SetDefault("media.cos_region", "ap-jakarta")
	v.SetDefault("media.cos_public_domain", "")
	v.SetDefault("media.prefix", "illustrations")
}

// Load reads configuration. configFile may be empty, in which case ceritaku.yaml is
// looked up in the working directory and ./config; a missing file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ceritaku")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) {
	cfg.Server.Host = strings.TrimSpace(cfg.Server.Host)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Encoding = strings.ToLower(strings.TrimSpace(cfg.Log.Encoding))
	cfg.Store.Engine = strings.ToLower(strings.TrimSpace(cfg.Store.Engine))
	cfg.Generator.Provider = strings.ToLower(strings.TrimSpace(cfg.Generator.Provider))
	cfg.Generator.APIKey = strings.Trim(strings.TrimSpace(cfg.Generator.APIKey), "\"'")
	cfg.Media.Provider = strings.ToLower(strings.TrimSpace(cfg.Media.Provider))
}

func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
