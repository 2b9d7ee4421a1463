package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	tcases := []struct {
		name    string
		env     map[string]string
		err     bool
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults applied",
			env: map[string]string{
				"DATABASE_DSN": "host=localhost user=postgres dbname=pairchat sslmode=disable",
			},
			err: false,
			checkFn: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 4000, cfg.Port, "expected default port 4000")
				assert.Equal(t, []string{"*"}, cfg.AllowedOrigins, "expected wildcard origin by default")
			},
		},
		{
			name: "explicit values",
			env: map[string]string{
				"DATABASE_DSN":    "host=db user=postgres dbname=pairchat sslmode=disable",
				"PORT":            "9000",
				"ALLOWED_ORIGINS": "http://localhost:3000,http://example.com",
			},
			err: false,
			checkFn: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Port)
				assert.Equal(t, []string{"http://localhost:3000", "http://example.com"}, cfg.AllowedOrigins)
			},
		},
		{
			name: "missing DSN",
			env:  map[string]string{},
			err:  true,
		},
		{
			name: "invalid port",
			env: map[string]string{
				"DATABASE_DSN": "host=localhost user=postgres dbname=pairchat sslmode=disable",
				"PORT":         "not-a-port",
			},
			err: true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			// ensure a clean slate for the variables Load consumes;
			// t.Setenv registers the restore, Unsetenv clears for the test
			for _, key := range []string{"PORT", "DATABASE_DSN", "ALLOWED_ORIGINS"} {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			for key, val := range tc.env {
				t.Setenv(key, val)
			}

			cfg, err := Load()
			if tc.err {
				assert.Error(t, err, "expected error loading config")
				return
			}

			assert.NoError(t, err, "expected no error loading config")
			if tc.checkFn != nil {
				tc.checkFn(t, cfg)
			}
		})
	}
}

func TestListenAddr(t *testing.T) {
	cfg := &Config{Port: 4000}
	assert.Equal(t, ":4000", cfg.ListenAddr(), "expected listen address to include port")
}
