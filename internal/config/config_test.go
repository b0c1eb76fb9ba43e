package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:               "3000",
		Env:                "development",
		DBDriver:           DriverPostgres,
		DBHost:             "localhost",
		DBPort:             "5432",
		DBUser:             "user",
		DBPassword:         "password",
		DBName:             "board",
		DBSSLMode:          "disable",
		DBMaxOpenConns:     10,
		DBMaxIdleConns:     5,
		BcryptCost:         10,
		AllowedOrigins:     "*",
		TracingSampleRatio: 1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, true},
		{"mysql", func(c *Config) { c.DBDriver = DriverMySQL; c.DBPort = "3306" }, false},
		{"sqlite without path", func(c *Config) { c.DBDriver = DriverSQLite; c.DBPath = "" }, true},
		{"sqlite with path", func(c *Config) { c.DBDriver = DriverSQLite; c.DBPath = "board.db" }, false},
		{"zero pool", func(c *Config) { c.DBMaxOpenConns = 0 }, true},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 3 }, true},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = 32 }, true},
		{"sample ratio out of range", func(c *Config) { c.TracingSampleRatio = 1.5 }, true},
		{"production with default password", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
		}, true},
		{"production with ssl disabled", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "s3cure-enough"
		}, true},
		{"production hardened", func(c *Config) {
			c.Env = "prod"
			c.DBPassword = "s3cure-enough"
			c.DBSSLMode = "verify-full"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "3000", c.Port)
	assert.Equal(t, DriverPostgres, c.DBDriver)
	assert.Equal(t, "5432", c.DBPort)
	assert.Equal(t, 10, c.DBMaxOpenConns)
	assert.Equal(t, 10, c.BcryptCost)
	assert.True(t, c.DBAutoMigrate)
	assert.False(t, c.TracingEnabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  MySQL ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("PORT", "8080")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, c.DBDriver)
	assert.Equal(t, "3306", c.DBPort)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 4, c.BcryptCost)
	assert.Equal(t, "8080", c.Port)
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "mongo")

	_, err := LoadConfig()
	assert.Error(t, err)
}
