package resolveordervariants

import "time"

type Config struct {
	Timeout     time.Duration
	Concurrency int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		Concurrency: 4,
	}
}
