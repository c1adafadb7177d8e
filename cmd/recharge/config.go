package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/recharge/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultDBMaxConns   = 20
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the recharge service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Max open connections to database. Every concurrent engine operation holds one
	DBMaxConns int32

	// Redis address for charge idempotency keys, e.g. "localhost:6379"
	// Optional: Idempotency-Key header is ignored when empty
	RedisAddr string

	// Secret key
	// Admin JWT tokens are signed with it
	SecretKey string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		DBMaxConns:  defaultDBMaxConns,
		Environment: defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":   setString(&c.ListenAddr),
		"DATABASE_URI":  setString(&c.DatabaseDSN),
		"SECRET_KEY":    setString(&c.SecretKey),
		"LOG_LEVEL":     setString(&c.LogLevel),
		"REDIS_ADDRESS": setString(&c.RedisAddr),
		"ENVIRONMENT":   setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("recharge", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.Int32Var(&c.DBMaxConns, "database-max-conns", c.DBMaxConns, "Max database connections")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.RedisAddr, "redis", "r", c.RedisAddr, "Redis address for idempotency keys")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Validate checks options that have no sane default
func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return errors.New("database connection string is required")
	case c.SecretKey == "":
		return errors.New("secret key is required")
	case c.DBMaxConns < 1:
		return errors.New("database max connections must be positive")
	}
	return nil
}
