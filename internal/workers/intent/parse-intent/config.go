// internal/workers/intent/parse-intent/config.go
package parseintent

import "time"

type Config struct {
	Timeout       time.Duration
	MaxFixRetries int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		MaxFixRetries: 1,
	}
}
