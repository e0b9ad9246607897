// Package config loads server settings from an optional ceritaku.yaml file and
// CERITAKU_* environment variables. Environment variables win over the file.
package config

import (
	"time"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Media     MediaConfig     `mapstructure:"media"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"oneof=json console"`
	// Output is a file path; empty means stdout.
	Output string `mapstructure:"output"`
}

type StoreConfig struct {
	Engine string `mapstructure:"engine" validate:"oneof=memory json sqlite redis postgres"`
	// Path is the data file for the json and sqlite engines.
	Path string `mapstructure:"path" validate:"required_if=Engine json,required_if=Engine sqlite"`

	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Engine redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	RedisPrefix   string `mapstructure:"redis_prefix"`

	PostgresURL string `mapstructure:"postgres_url" validate:"required_if=Engine postgres"`
}

type GeneratorConfig struct {
	Provider           string        `mapstructure:"provider" validate:"oneof=template openai gemini"`
	APIKey             string        `mapstructure:"api_key" validate:"required_unless=Provider template"`
	BaseURL            string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model              string        `mapstructure:"model"`
	ImageModel         string        `mapstructure:"image_model"`
	Timeout            time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxRetries         int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	FallbackToTemplate bool          `mapstructure:"fallback_to_template"`
}

// MediaConfig selects where generated illustrations are kept. With provider none the
// provider's own image URLs are stored as they are.
type MediaConfig struct {
	Provider        string `mapstructure:"provider" validate:"oneof=none cos"`
	COSSecretID     string `mapstructure:"cos_secret_id" validate:"required_if=Provider cos"`
	COSSecretKey    string `mapstructure:"cos_secret_key" validate:"required_if=Provider cos"`
	COSBucket       string `mapstructure:"cos_bucket" validate:"required_if=Provider cos"`
	COSRegion       string `mapstructure:"cos_region"`
	COSPublicDomain string `mapstructure:"cos_public_domain" validate:"required_if=Provider cos"`
	Prefix          string `mapstructure:"prefix"`
}
