// Package configloader assembles typed configuration from a yaml file, a .env file and the process environment.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	configFile = "config.yaml"
	envFile    = ".env"
)

type Validator interface {
	Validate() error
}

// Load reads config.yaml and .env from the working directory, then the environment
// variables prefixed with <SERVICENAME>_. Later sources override earlier ones.
// A nested key such as store.database.url maps to PRODUCT_STORE_DATABASE_URL.
func Load[T Validator](serviceName string) (T, error) {
	return load[T](configFile, envFile, fmt.Sprintf("%s_", strings.ToUpper(serviceName)))
}

func load[T Validator](yamlPath, dotenvPath, envPrefix string) (T, error) {
	var cfg T
	k := koanf.New(".")

	keyOf := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}

	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: error loading YAML config file '%s': %v", yamlPath, err)
	}

	if dotenv, err := godotenv.Read(dotenvPath); err == nil {
		values := make(map[string]any, len(dotenv))
		for key, value := range dotenv {
			if strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				values[keyOf(key)] = value
			}
		}
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", keyOf), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
