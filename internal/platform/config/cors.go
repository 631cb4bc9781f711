package config

import "fmt"

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowedOrigins"`
	MaxAge         int      `koanf:"maxAge"`
}

const defaultCORSOrigin = "http://localhost:4200"

func (c *CORSConfig) Validate() error {
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{defaultCORSOrigin}
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("cors max age must not be negative: %d", c.MaxAge)
	}
	return nil
}
