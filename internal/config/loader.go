package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"satori/pkg/logging"
)

const configFileName = "config.yaml"

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, configFileName)
}

// LoadConfig reads config.yaml from dir on top of the defaults. A missing
// file yields the defaults; a malformed one is an error.
func LoadConfig(dir string) (Config, error) {
	config := GetDefaultConfig()
	configFilePath := Path(dir)

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	if config.Domain == "" {
		config.Domain = GetDefaultConfig().Domain
	}
	config.Domain = strings.TrimSuffix(config.Domain, "/")

	if config.Port < 0 || config.Port > 65535 {
		return Config{}, fmt.Errorf("error loading config from %s: port %d out of range", configFilePath, config.Port)
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}
