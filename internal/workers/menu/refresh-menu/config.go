// internal/workers/menu/refresh-menu/config.go
package refreshmenu

import "time"

type Config struct {
	Timeout     time.Duration
	SearchIndex string
	// IndexToSearch disables Elasticsearch indexing when the cluster is not
	// deployed (single-branch installs run fine on the in-memory catalog).
	IndexToSearch bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       60 * time.Second,
		SearchIndex:   "menu-items",
		IndexToSearch: true,
	}
}
