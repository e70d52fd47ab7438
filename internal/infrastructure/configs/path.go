package configs

import (
	"flag"
	"os"

	"github.com/pointdeck/pointdeck/internal/infrastructure/env"
)

// DetermineConfigPath resolves the config file location from the
// -config flag, the POINTDECK_CONFIG env var, or well-known paths.
// An empty result means "defaults only", which is a valid setup.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("POINTDECK_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"/etc/pointdeck/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
