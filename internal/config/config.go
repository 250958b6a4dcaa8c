// internal/config/config.go
//
// Runtime configuration.
// Every flag can also be set from the environment as VIEWDUEL_<FLAG>, with
// dashes turned into underscores (e.g. VIEWDUEL_SESSION_TIMEOUT=30m).
// The API key is additionally read from YOUTUBE_API_KEY.
// Flags given on the command line win over the environment.

package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/robalobadob/viewduel/internal/stats"
)

const EnvPrefix = "VIEWDUEL"

type Config struct {
	// shared by all commands
	Catalog   string
	Payload   string
	Locale    string
	APIKey    string
	Endpoint  string
	DailySalt string
	LogLevel  string
	LogPretty bool

	// serve only
	Bind           string
	Port           int
	ClientOrigin   string
	PublicURL      string
	SessionTimeout time.Duration
	RequestTimeout time.Duration
	SecureCookies  bool
	NoDaily        bool
}

// RegisterCommon adds the flags every command understands.
func RegisterCommon(fs *pflag.FlagSet, c *Config) {
	fs.StringVar(&c.Catalog, "catalog", "", "path to a YAML song catalog (default: built-in) (env: VIEWDUEL_CATALOG)")
	fs.StringVar(&c.Payload, "payload", string(stats.PayloadRich), "statistics payload: rich (title, thumbnail, date) or views (env: VIEWDUEL_PAYLOAD)")
	fs.StringVar(&c.Locale, "locale", "en", "locale used to format view counts (env: VIEWDUEL_LOCALE)")
	fs.StringVar(&c.APIKey, "youtube-api-key", "", "YouTube Data API key (env: VIEWDUEL_YOUTUBE_API_KEY or YOUTUBE_API_KEY)")
	fs.StringVar(&c.Endpoint, "youtube-endpoint", "", "override the YouTube Data API base URL (env: VIEWDUEL_YOUTUBE_ENDPOINT)")
	fs.StringVar(&c.DailySalt, "daily-salt", "local_dev_salt", "secret mixed into the daily duel seed (env: VIEWDUEL_DAILY_SALT)")
	fs.StringVar(&c.LogLevel, "log-level", "info", "log level: trace, debug, info, warn, error (env: VIEWDUEL_LOG_LEVEL)")
	fs.BoolVar(&c.LogPretty, "log-pretty", false, "human-friendly console logs (env: VIEWDUEL_LOG_PRETTY)")
}

// RegisterServe adds the HTTP server flags.
func RegisterServe(fs *pflag.FlagSet, c *Config) {
	fs.StringVarP(&c.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: VIEWDUEL_BIND)")
	fs.IntVarP(&c.Port, "port", "p", 5175, "port to listen on (env: VIEWDUEL_PORT)")
	fs.StringVar(&c.ClientOrigin, "client-origin", "http://localhost:5173", "origin allowed by CORS (env: VIEWDUEL_CLIENT_ORIGIN)")
	fs.StringVar(&c.PublicURL, "public-url", "", "URL encoded in the share QR code (default: http://localhost:<port>/) (env: VIEWDUEL_PUBLIC_URL)")
	fs.DurationVar(&c.SessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are dropped (env: VIEWDUEL_SESSION_TIMEOUT)")
	fs.DurationVar(&c.RequestTimeout, "request-timeout", 10*time.Second, "upper bound on handler time (env: VIEWDUEL_REQUEST_TIMEOUT)")
	fs.BoolVar(&c.SecureCookies, "secure-cookies", false, "mark session cookies Secure with SameSite=None (env: VIEWDUEL_SECURE_COOKIES)")
	fs.BoolVar(&c.NoDaily, "no-daily", false, "disable the /daily endpoints (env: VIEWDUEL_NO_DAILY)")
}

// Bind fills flags that were not given on the command line from the environment.
func Bind(fs *pflag.FlagSet, v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		if f.Name == "youtube-api-key" {
			_ = v.BindEnv(f.Name, EnvPrefix+"_YOUTUBE_API_KEY", "YOUTUBE_API_KEY")
		} else {
			_ = v.BindEnv(f.Name)
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// Validate checks values that flag parsing cannot.
func (c *Config) Validate() error {
	if _, err := stats.ParsePayload(c.Payload); err != nil {
		return err
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	return nil
}

// ValidateServe checks the flags registered by RegisterServe.
func (c *Config) ValidateServe() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.SessionTimeout <= 0 {
		return errors.New("--session-timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("--request-timeout must be positive")
	}
	if !c.NoDaily && c.DailySalt == "" {
		return errors.New("--daily-salt must not be empty (or pass --no-daily)")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// ShareURL is the URL encoded in the share QR code.
func (c *Config) ShareURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return "http://localhost:" + strconv.Itoa(c.Port) + "/"
}

// LocaleTag returns the parsed locale, falling back to English.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}
