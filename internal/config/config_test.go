package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newFlags(c *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterCommon(fs, c)
	RegisterServe(fs, c)
	return fs
}

func TestDefaults(t *testing.T) {
	c := &Config{}
	fs := newFlags(c)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	if c.Port != 5175 || c.Payload != "rich" || c.Locale != "en" {
		t.Errorf("Unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
	if got := c.Addr(); got != "0.0.0.0:5175" {
		t.Errorf("Expected 0.0.0.0:5175, got %s", got)
	}
	if got := c.ShareURL(); got != "http://localhost:5175/" {
		t.Errorf("Unexpected share url %s", got)
	}
}

func TestEnvFillsUnsetFlags(t *testing.T) {
	t.Setenv("VIEWDUEL_PORT", "9000")
	t.Setenv("VIEWDUEL_SESSION_TIMEOUT", "5m")
	t.Setenv("VIEWDUEL_PAYLOAD", "views")
	t.Setenv("YOUTUBE_API_KEY", "from-env")

	c := &Config{}
	fs := newFlags(c)
	Bind(fs, viper.New())
	if err := fs.Parse([]string{"--payload", "rich"}); err != nil {
		t.Fatal(err)
	}

	if c.Port != 9000 {
		t.Errorf("Expected port from env, got %d", c.Port)
	}
	if c.SessionTimeout != 5*time.Minute {
		t.Errorf("Expected 5m, got %s", c.SessionTimeout)
	}
	if c.APIKey != "from-env" {
		t.Errorf("Expected key from YOUTUBE_API_KEY, got %q", c.APIKey)
	}
	if c.Payload != "rich" {
		t.Errorf("Expected command line to win over env, got %q", c.Payload)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Payload: "rich", Locale: "es", Port: 8080, SessionTimeout: time.Minute, RequestTimeout: time.Second, DailySalt: "pepper"}
	}
	tests := []struct {
		name   string
		serve  bool
		mutate func(*Config)
		want   string
	}{
		{"ok", false, func(*Config) {}, ""},
		{"serve ok", true, func(*Config) {}, ""},
		{"bad payload", false, func(c *Config) { c.Payload = "full" }, "payload"},
		{"bad locale", false, func(c *Config) { c.Locale = "not a locale!" }, "locale"},
		{"bad port", true, func(c *Config) { c.Port = 70000 }, "port"},
		{"zero port", true, func(c *Config) { c.Port = 0 }, "port"},
		{"zero session timeout", true, func(c *Config) { c.SessionTimeout = 0 }, "session-timeout"},
		{"zero session timeout on port zero", true, func(c *Config) { c.Port, c.SessionTimeout = 0, 0 }, "port"},
		{"zero request timeout", true, func(c *Config) { c.RequestTimeout = 0 }, "request-timeout"},
		{"empty daily salt", true, func(c *Config) { c.DailySalt = "" }, "daily-salt"},
		{"daily disabled", true, func(c *Config) { c.DailySalt, c.NoDaily = "", true }, ""},
		{"serve flags ignored elsewhere", false, func(c *Config) { c.Port, c.SessionTimeout, c.DailySalt = 0, 0, "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.serve && err == nil {
				err = c.ValidateServe()
			}
			if tt.want == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	defer func(l zerolog.Logger, lvl zerolog.Level) {
		log.Logger = l
		zerolog.SetGlobalLevel(lvl)
	}(log.Logger, zerolog.GlobalLevel())

	var buf bytes.Buffer
	c := &Config{LogLevel: "warn"}
	if err := c.SetupLogging(&buf); err != nil {
		t.Fatal(err)
	}
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("Unexpected log output %q", buf.String())
	}

	if err := (&Config{LogLevel: "loud"}).SetupLogging(&buf); err == nil {
		t.Error("Expected error for unknown level")
	}
}
