package server

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/cfpgen/internal/config"
)

const (
	// DefaultHost is the loopback interface used when no host override is provided.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the default TCP port for the API.
	DefaultPort = 8501
	// DefaultMaxBodyBytes limits request payloads to 64 KB.
	DefaultMaxBodyBytes int64 = 64 << 10
	// DefaultRateLimit is the number of requests one client IP may make per window.
	DefaultRateLimit = 120
	// DefaultRateWindow is the rate limiting window.
	DefaultRateWindow = time.Minute
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes. Chat calls can take a while.
	DefaultWriteTimeout = 90 * time.Second
	// chatHeadroom is kept free of the write timeout so an assistant
	// failure can still be reported to the client.
	chatHeadroom = 5 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
	// DefaultPruneInterval is how often expired sessions are removed.
	DefaultPruneInterval = 10 * time.Minute
)

// Settings captures runtime configuration for the HTTP API.
type Settings struct {
	Host          string
	Port          int
	MaxBodyBytes  int64
	RateLimit     int
	RateWindow    time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	PruneInterval time.Duration
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Host:          DefaultHost,
		Port:          DefaultPort,
		MaxBodyBytes:  DefaultMaxBodyBytes,
		RateLimit:     DefaultRateLimit,
		RateWindow:    DefaultRateWindow,
		ReadTimeout:   DefaultReadTimeout,
		WriteTimeout:  DefaultWriteTimeout,
		IdleTimeout:   DefaultIdleTimeout,
		PruneInterval: DefaultPruneInterval,
	}
}

// ChatBudget is the longest one assistant exchange may run before the write
// deadline would cut the response off.
func (s Settings) ChatBudget() time.Duration {
	budget := s.WriteTimeout - chatHeadroom
	if budget < time.Second {
		budget = s.WriteTimeout / 2
	}
	return budget
}

// SettingsFromConfig builds Settings using the .cfpgen config and environment overrides.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := DefaultSettings()
	if cfg != nil {
		raw := cfg.File.Server
		if host := strings.TrimSpace(raw.Host); host != "" {
			settings.Host = host
		}
		if isValidPort(raw.Port) {
			settings.Port = raw.Port
		}
		if raw.MaxBodyBytes > 0 {
			settings.MaxBodyBytes = raw.MaxBodyBytes
		}
		if raw.RateLimit > 0 {
			settings.RateLimit = raw.RateLimit
		}
		if raw.ReadTimeout > 0 {
			settings.ReadTimeout = raw.ReadTimeout
		}
		if raw.WriteTimeout > 0 {
			settings.WriteTimeout = raw.WriteTimeout
		}
	}
	settings.applyEnvOverrides()
	settings.normalize()
	return settings
}

func (s *Settings) applyEnvOverrides() {
	if s == nil {
		return
	}
	if host := strings.TrimSpace(os.Getenv("CFPGEN_HOST")); host != "" {
		s.Host = host
	}
	if port := strings.TrimSpace(os.Getenv("CFPGEN_PORT")); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && isValidPort(parsed) {
			s.Port = parsed
		}
	}
}

func (s *Settings) normalize() {
	if s == nil {
		return
	}
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port != 0 && !isValidPort(s.Port) {
		s.Port = DefaultPort
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.RateWindow <= 0 {
		s.RateWindow = DefaultRateWindow
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
