// Package config loads typed configuration from environment variables.
//
// Configuration structs declare their variables with env and envDefault tags
// (github.com/caarlos0/env). Load parses each struct type once and caches the
// result; an optional .env file in the working directory is read first via
// github.com/joho/godotenv. LoadEnv reads explicitly named dotenv files, and
// Reset clears the cache in tests.
//
//	type Config struct {
//		BaseURL string        `env:"BIZTRACK_API_URL,required"`
//		Timeout time.Duration `env:"BIZTRACK_API_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
