// internal/workers/order/persist-order/config.go
package persistorder

import "time"

type Config struct {
	Timeout time.Duration
	// StatusCacheTTL bounds how long the order status stays queryable from
	// Redis after the kitchen stops updating it.
	StatusCacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		StatusCacheTTL: 48 * time.Hour,
	}
}
