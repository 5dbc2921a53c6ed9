package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig lists the environment variables the server understands.
// PORT, DATABASE_URL, JWT_SECRET and SENDGRID_API_KEY are the names the
// deployment has always used; the rest follow the same style.
type envConfig struct {
	Port                  string        `env:"PORT"`
	DatabaseDSN           string        `env:"DATABASE_URL"`
	SecretKey             string        `env:"JWT_SECRET"`
	TokenValidityDuration time.Duration `env:"TOKEN_TTL"`
	BcryptCost            int           `env:"BCRYPT_COST"`
	SendGridAPIKey        string        `env:"SENDGRID_API_KEY"`
	MailFrom              string        `env:"MAIL_FROM"`
	AvatarStorage         string        `env:"AVATAR_STORAGE"`
	S3RootUser            string        `env:"S3_ROOT_USER"`
	S3RootPassword        string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket              string        `env:"S3_BUCKET"`
	S3Region              string        `env:"S3_REGION"`
	S3BaseEndpoint        string        `env:"S3_BASE_ENDPOINT"`
	LogLevel              string        `env:"LOG_LEVEL"`
}

// parseEnv overlays values present in the environment. A nil environ reads
// the process environment.
func parseEnv(config *Config, environ map[string]string) error {
	var c envConfig
	if err := env.ParseWithOptions(&c, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if c.Port != "" {
		config.EndpointAddrHTTP = ":" + c.Port
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	setString(&config.SendGridAPIKey, c.SendGridAPIKey)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.AvatarStorage, c.AvatarStorage)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)

	return nil
}
