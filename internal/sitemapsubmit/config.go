package sitemapsubmit

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Debug             bool     `yaml:"debug"`
	SubmitWhenDebug   bool     `yaml:"submitWhenDebug"`
	WarnOnFailure     *bool    `yaml:"warnOnFailure"`
	ExcludedTemplates []string `yaml:"excludedTemplates"`

	// SiteRoot is the public root URL of the site, used to derive the
	// default sitemap location.
	SiteRoot string `yaml:"siteRoot" validate:"omitempty,url"`

	Sitemap SitemapLocation `yaml:"sitemap"`
	// VerifyDocument also requires the sitemap URL to serve a sitemap XML
	// document when verifying it.
	VerifyDocument bool `yaml:"verifyDocument"`

	Endpoints []Endpoint `yaml:"endpoints" validate:"dive"`

	Pinger struct {
		Timeout      string `yaml:"timeout"`
		MaxBodyBytes string `yaml:"maxBodyBytes"`
		UserAgent    string `yaml:"userAgent"`
	} `yaml:"pinger"`

	Cache CacheConfig `yaml:"cache"`

	Log struct {
		Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Dir         string `yaml:"dir"`
		PostgresURL string `yaml:"postgresUrl"`
	} `yaml:"log"`

	Server struct {
		Port int `yaml:"port" validate:"gte=0,lte=65535"`
	} `yaml:"server"`

	// compiled
	pingTimeout  time.Duration
	maxBodyBytes int64
}

type CacheConfig struct {
	ClearOnChange *bool  `yaml:"clearOnChange"`
	Module        string `yaml:"module"`
	Installed     bool   `yaml:"installed"`
	NativeURL     string `yaml:"nativeUrl" validate:"omitempty,url"`
	Backend       string `yaml:"backend" validate:"omitempty,oneof=leveldb redis file"`
	Key           string `yaml:"key"`

	LevelDB struct {
		Path string `yaml:"path"`
	} `yaml:"leveldb"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	File struct {
		Root string `yaml:"root"`
	} `yaml:"file"`
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

const (
	defaultCacheModule = "MarkupSitemap"
	defaultCacheKey    = "MarkupCache/MarkupSitemap"
	defaultPingTimeout = 30 * time.Second
	defaultMaxBody     = 64 * 1024
	defaultUserAgent   = "sitemapsubmit/1.0"
)

func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SaveConfig writes cfg back to path, e.g. after the sitemap location was
// verified.
func SaveConfig(path string, cfg Config) error {
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (cfg *Config) normalize() error {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.WarnOnFailure == nil {
		cfg.WarnOnFailure = boolPtr(true)
	}
	if cfg.Cache.ClearOnChange == nil {
		cfg.Cache.ClearOnChange = boolPtr(true)
	}
	if cfg.Cache.Module == "" {
		cfg.Cache.Module = defaultCacheModule
	}
	if cfg.Cache.Key == "" {
		cfg.Cache.Key = defaultCacheKey
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}
	if cfg.Cache.LevelDB.Path == "" {
		cfg.Cache.LevelDB.Path = "./data/leveldb"
	}
	if cfg.Pinger.UserAgent == "" {
		cfg.Pinger.UserAgent = defaultUserAgent
	}

	cfg.SiteRoot = strings.TrimSpace(cfg.SiteRoot)
	if cfg.SiteRoot != "" && !strings.HasSuffix(cfg.SiteRoot, "/") {
		cfg.SiteRoot += "/"
	}
	cfg.Sitemap.URL = strings.TrimSpace(cfg.Sitemap.URL)
	cfg.Sitemap.LastVerifiedURL = strings.TrimSpace(cfg.Sitemap.LastVerifiedURL)
	if cfg.Sitemap.URL == "" && cfg.SiteRoot != "" {
		cfg.Sitemap.URL = DefaultSitemapURL(cfg.SiteRoot)
		if cfg.Sitemap.LastVerifiedURL == "" {
			cfg.Sitemap.LastVerifiedURL = cfg.Sitemap.URL
			cfg.Sitemap.Verified = true
		}
	}
	// A verified flag only holds for the URL it was verified at.
	if cfg.Sitemap.URL == "" || cfg.Sitemap.URL != cfg.Sitemap.LastVerifiedURL {
		cfg.Sitemap.Verified = false
	}

	cfg.pingTimeout = defaultPingTimeout
	if cfg.Pinger.Timeout != "" {
		d, err := time.ParseDuration(cfg.Pinger.Timeout)
		if err != nil {
			return &ConfigError{Field: "pinger.timeout", Err: err}
		}
		cfg.pingTimeout = d
	}
	cfg.maxBodyBytes = defaultMaxBody
	if cfg.Pinger.MaxBodyBytes != "" {
		n, err := parseBytes(cfg.Pinger.MaxBodyBytes)
		if err != nil {
			return &ConfigError{Field: "pinger.maxBodyBytes", Err: err}
		}
		cfg.maxBodyBytes = n
	}

	for i := range cfg.Endpoints {
		cfg.Endpoints[i].Name = strings.TrimSpace(cfg.Endpoints[i].Name)
		cfg.Endpoints[i].URL = strings.TrimSpace(cfg.Endpoints[i].URL)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return &ConfigError{Field: "config", Err: err}
	}

	seen := make(map[string]struct{}, len(cfg.Endpoints))
	for i := range cfg.Endpoints {
		e := &cfg.Endpoints[i]
		if _, dup := seen[e.Name]; dup {
			return &ConfigError{Field: fmt.Sprintf("endpoints[%d].name", i), Err: fmt.Errorf("duplicate endpoint %q", e.Name)}
		}
		seen[e.Name] = struct{}{}
		if n := e.placeholderCount(); n != 1 {
			return &ConfigError{
				Field: fmt.Sprintf("endpoints[%d].url", i),
				Err:   fmt.Errorf("want exactly one %s placeholder, got %d", SitemapPlaceholder, n),
			}
		}
	}

	switch cfg.Cache.Backend {
	case "redis":
		if cfg.Cache.Redis.Addr == "" {
			return &ConfigError{Field: "cache.redis.addr", Err: errors.New("required for redis backend")}
		}
	case "file":
		if cfg.Cache.Installed && cfg.Cache.File.Root == "" && cfg.Cache.NativeURL == "" {
			return &ConfigError{Field: "cache.file.root", Err: errors.New("required for file backend")}
		}
	}
	return nil
}

func (cfg *Config) Warn() bool {
	return cfg.WarnOnFailure == nil || *cfg.WarnOnFailure
}

func (cfg *Config) ClearCacheOnChange() bool {
	return cfg.Cache.ClearOnChange == nil || *cfg.Cache.ClearOnChange
}

func (cfg *Config) PingTimeout() time.Duration {
	if cfg.pingTimeout == 0 {
		return defaultPingTimeout
	}
	return cfg.pingTimeout
}

func (cfg *Config) MaxBodyBytes() int64 {
	if cfg.maxBodyBytes == 0 {
		return defaultMaxBody
	}
	return cfg.maxBodyBytes
}

// DefaultSitemapURL is the conventional sitemap.xml location under root.
func DefaultSitemapURL(root string) string {
	if root == "" {
		return ""
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root + "sitemap.xml"
}

func boolPtr(b bool) *bool { return &b }
