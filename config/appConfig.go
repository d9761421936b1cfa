package config

import (
	"os"
	"time"

	"chatsales_api/config/values"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type StorageConfig struct {
	Driver   string        `yaml:"driver"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type GeminiConfig struct {
	APIKey       string            `yaml:"api_key"`
	DefaultModel string            `yaml:"default_model"`
	Models       map[string]string `yaml:"models"`
	Timeout      time.Duration     `yaml:"timeout"`
	RatePerMin   int               `yaml:"rate_per_minute"`
}

type MetaConfig struct {
	BaseURL       string `yaml:"base_url"`
	AccessToken   string `yaml:"access_token"`
	PhoneNumberID string `yaml:"phone_number_id"`
	VerifyToken   string `yaml:"verify_token"`
	RatePerSecond int    `yaml:"rate_per_second"`
}

type PaymentConfig struct {
	Provider  string `yaml:"provider"`
	PublicKey string `yaml:"public_key"`
	Currency  string `yaml:"currency"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RuleConfig struct {
	Pattern  string `yaml:"pattern"`
	Response string `yaml:"response"`
}

type BotConfig struct {
	ID                 int64        `yaml:"id"`
	TenantID           string       `yaml:"tenant_id"`
	Name               string       `yaml:"name"`
	Active             bool         `yaml:"active"`
	HybridMode         *bool        `yaml:"hybrid_mode"`
	Plan               string       `yaml:"plan"`
	SystemInstructions string       `yaml:"system_instructions"`
	Rules              []RuleConfig `yaml:"rules"`
}

// Hybrid reports whether operator rules run before automatic logic. Unset means yes.
func (b BotConfig) Hybrid() bool {
	return b.HybridMode == nil || *b.HybridMode
}

// SeedProductConfig describes a product loaded by the memory storage driver.
type SeedProductConfig struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Stock       int    `yaml:"stock"`
	Inactive    bool   `yaml:"inactive"`
}

type SeedCategoryConfig struct {
	ID          int64               `yaml:"id"`
	TenantID    string              `yaml:"tenant_id"`
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Products    []SeedProductConfig `yaml:"products"`
}

type AppConfig struct {
	Server   ServerConfig          `yaml:"server"`
	Storage  StorageConfig         `yaml:"storage"`
	Postgres PostgresConfig        `yaml:"postgres"`
	Redis    RedisConfig           `yaml:"redis"`
	Gemini   GeminiConfig          `yaml:"gemini"`
	Meta     MetaConfig            `yaml:"meta"`
	Payment  PaymentConfig         `yaml:"payment"`
	Auth     AuthConfig            `yaml:"auth"`
	Engine   values.EngineValues   `yaml:"engine"`
	Recovery values.RecoveryValues `yaml:"recovery"`
	Bots     []BotConfig           `yaml:"bots"`
	Catalog  []SeedCategoryConfig  `yaml:"catalog"`
}

// Default returns the configuration used for every key the YAML file leaves out.
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{Driver: StoragePostgres, CacheTTL: 5 * time.Minute},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Password:     "postgres",
			DBName:       "postgres",
			MaxOpenConns: 20,
		},
		Gemini: GeminiConfig{
			DefaultModel: "gemini-2.0-flash",
			Models: map[string]string{
				"Gemini 2.5 Flash": "gemini-2.5-flash",
				"Gemini 2.0 Flash": "gemini-2.0-flash",
				"Gemini 1.5 Flash": "gemini-2.0-flash",
				"GPT-3.5-Turbo":    "gemini-2.0-flash",
			},
			Timeout:    20 * time.Second,
			RatePerMin: 60,
		},
		Meta: MetaConfig{
			BaseURL:       "https://graph.facebook.com/v18.0",
			VerifyToken:   "chatsales_verify_token",
			RatePerSecond: 20,
		},
		Payment:  PaymentConfig{Provider: "default", Currency: "USD"},
		Engine:   values.DefaultEngineValues(),
		Recovery: values.DefaultRecoveryValues(),
	}
}

func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := Default()
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}
