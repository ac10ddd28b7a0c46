package config

import "github.com/caarlos0/env/v11"

type Config struct {
	Token            string  `env:"TOKEN,required,notEmpty"`
	OpenRouterAPIKey string  `env:"OPENROUTER_API_KEY,required,notEmpty"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS"`
	DBPath           string  `env:"DB_PATH"              envDefault:"db.sqlite"`
	BaseURL          string  `env:"OPENROUTER_BASE_URL"  envDefault:"https://openrouter.ai/api/v1"`
	// Model pins a single model and disables free-model cycling.
	Model string `env:"MODEL"`
}

func LoadConfig() Config {
	var cfg Config
	env.Must(cfg, env.Parse(&cfg))
	return cfg
}
