package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	HttpPort           int           `toml:"http_port"`
	AdminNumbers       []string      `toml:"admin_numbers"`
	DefaultCountryCode string        `toml:"default_country_code"`
	VerifyToken        string        `toml:"verify_token"`
	AppSecret          string        `toml:"app_secret"`
	WhatsAppToken      string        `toml:"whatsapp_token"`
	PhoneNumberID      string        `toml:"phone_number_id"`
	GraphBaseURL       string        `toml:"graph_base_url"`
	UploadMaxRetry     int           `toml:"upload_max_retry"`
	LLMAPIKey          string        `toml:"llm_api_key"`
	LLMBaseURL         string        `toml:"llm_base_url"`
	LLMModel           string        `toml:"llm_model"`
	LLMTimeoutStr      string        `toml:"llm_timeout"`
	LLMTimeout         time.Duration `toml:"-"`
	LogStore           string        `toml:"log_store"`
	DbConnString       string        `toml:"db_conn_string"`
	RedisAddr          string        `toml:"redis_addr"`
	DataDir            string        `toml:"data_dir"`
	ChromePath         string        `toml:"chrome_path"`
	CompanyName        string        `toml:"company_name"`
	RenderTimeoutStr   string        `toml:"render_timeout"`
	RenderTimeout      time.Duration `toml:"-"`
	CancelTTLStr       string        `toml:"cancel_ttl"`
	CancelTTL          time.Duration `toml:"-"`
	SweepIntervalStr   string        `toml:"sweep_interval"`
	SweepInterval      time.Duration `toml:"-"`
}

func defaultConfig() Config {
	return Config{
		HttpPort:           8080,
		DefaultCountryCode: "91",
		UploadMaxRetry:     3,
		LLMBaseURL:         "https://api.openai.com/v1",
		LLMModel:           "gpt-5-mini",
		LLMTimeoutStr:      "30s",
		LogStore:           "excel",
		DataDir:            "./data",
		CompanyName:        "Lorry Receipt",
		RenderTimeoutStr:   "60s",
		CancelTTLStr:       "5m",
		SweepIntervalStr:   "2m",
	}
}

// ReadConfig loads .env (if present) into the environment, then the TOML
// file at configFile (if present), then applies environment overrides.
// Environment variables always win.
func ReadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if _, err := toml.DecodeFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", configFile, err)
			}
		}
	}

	applyEnv(&cfg)

	var err error
	durations := []struct {
		name string
		str  string
		dst  *time.Duration
	}{
		{"llm_timeout", cfg.LLMTimeoutStr, &cfg.LLMTimeout},
		{"render_timeout", cfg.RenderTimeoutStr, &cfg.RenderTimeout},
		{"cancel_ttl", cfg.CancelTTLStr, &cfg.CancelTTL},
		{"sweep_interval", cfg.SweepIntervalStr, &cfg.SweepInterval},
	}
	for _, d := range durations {
		if *d.dst, err = time.ParseDuration(d.str); err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.name, err)
		}
	}

	if len(cfg.AdminNumbers) == 0 {
		return nil, errors.New("no admin number configured (ADMIN_NUMBER)")
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HttpPort = n
		}
	}
	if v := os.Getenv("ADMIN_NUMBER"); v != "" {
		cfg.AdminNumbers = splitList(v)
	}
	str("DEFAULT_COUNTRY_CODE", &cfg.DefaultCountryCode)
	str("VERIFY_TOKEN", &cfg.VerifyToken)
	str("APP_SECRET", &cfg.AppSecret)
	str("WHATSAPP_TOKEN", &cfg.WhatsAppToken)
	str("PHONE_NUMBER_ID", &cfg.PhoneNumberID)
	str("GRAPH_BASE_URL", &cfg.GraphBaseURL)
	str("GEMINI_API_KEY", &cfg.LLMAPIKey)
	str("OPENAI_API_KEY", &cfg.LLMAPIKey)
	str("LLM_BASE_URL", &cfg.LLMBaseURL)
	str("LLM_MODEL", &cfg.LLMModel)
	str("LOG_STORE", &cfg.LogStore)
	str("DB_CONN_STRING", &cfg.DbConnString)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("DATA_DIR", &cfg.DataDir)
	str("CHROME_PATH", &cfg.ChromePath)
	str("COMPANY_NAME", &cfg.CompanyName)
}

// splitList splits a comma separated env value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
