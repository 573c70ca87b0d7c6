package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ksyq12/wpstack/internal/errors"
)

// Default locations of the optional settings sources.
const (
	DefaultConfigPath = "/etc/wpstack/config.yaml"
	DefaultEnvPath    = "/etc/wpstack/wpstack.env"
	envPrefix         = "WPSTACK"
)

// Settings holds tool knobs that are not operator answers.
type Settings struct {
	PHPVersion     string        `mapstructure:"php_version" yaml:"php_version"`
	WebRoot        string        `mapstructure:"web_root" yaml:"web_root"`
	WebUser        string        `mapstructure:"web_user" yaml:"web_user"`
	NginxAvailable string        `mapstructure:"nginx_available" yaml:"nginx_available"`
	NginxEnabled   string        `mapstructure:"nginx_enabled" yaml:"nginx_enabled"`
	NginxConf      string        `mapstructure:"nginx_conf" yaml:"nginx_conf"`
	CacheZone      string        `mapstructure:"cache_zone" yaml:"cache_zone"`
	CachePath      string        `mapstructure:"cache_path" yaml:"cache_path"`
	CacheSize      string        `mapstructure:"cache_size" yaml:"cache_size"`
	CacheInactive  string        `mapstructure:"cache_inactive" yaml:"cache_inactive"`
	SaltURL        string        `mapstructure:"salt_url" yaml:"salt_url"`
	WordPressURL   string        `mapstructure:"wordpress_url" yaml:"wordpress_url"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
}

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() Settings {
	return Settings{
		PHPVersion:     "8.3",
		WebRoot:        "/var/www",
		WebUser:        "www-data",
		NginxAvailable: "/etc/nginx/sites-available",
		NginxEnabled:   "/etc/nginx/sites-enabled",
		NginxConf:      "/etc/nginx/conf.d",
		CacheZone:      "WORDPRESS",
		CachePath:      "/var/run/nginx-cache",
		CacheSize:      "100m",
		CacheInactive:  "60m",
		SaltURL:        "https://api.wordpress.org/secret-key/1.1/salt/",
		WordPressURL:   "https://wordpress.org/latest.tar.gz",
		HTTPTimeout:    30 * time.Second,
	}
}

// LoadSettings reads settings from, in increasing precedence: defaults, the
// YAML file at configPath, and WPSTACK_* environment variables. The env file
// at envPath is loaded into the process environment first without
// overriding variables that are already set. Missing files are skipped.
func LoadSettings(configPath, envPath string) (*Settings, error) {
	if envPath != "" && fileExists(envPath) {
		if err := godotenv.Load(envPath); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, "failed to load env file "+envPath, err)
		}
	}

	v := viper.New()
	def := DefaultSettings()
	v.SetDefault("php_version", def.PHPVersion)
	v.SetDefault("web_root", def.WebRoot)
	v.SetDefault("web_user", def.WebUser)
	v.SetDefault("nginx_available", def.NginxAvailable)
	v.SetDefault("nginx_enabled", def.NginxEnabled)
	v.SetDefault("nginx_conf", def.NginxConf)
	v.SetDefault("cache_zone", def.CacheZone)
	v.SetDefault("cache_path", def.CachePath)
	v.SetDefault("cache_size", def.CacheSize)
	v.SetDefault("cache_inactive", def.CacheInactive)
	v.SetDefault("salt_url", def.SaltURL)
	v.SetDefault("wordpress_url", def.WordPressURL)
	v.SetDefault("http_timeout", def.HTTPTimeout)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" && fileExists(configPath) {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, "failed to read settings "+configPath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "failed to parse settings", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

var (
	phpVersionRe = regexp.MustCompile(`^\d+\.\d+$`)
	cacheZoneRe  = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	nginxSizeRe  = regexp.MustCompile(`^\d+[kKmMgG]?$`)
)

// Validate checks the settings that end up in generated files.
func (s Settings) Validate() error {
	invalid := func(msg string) error {
		return errors.Wrap(errors.ErrCodeConfig, "invalid configuration", fmt.Errorf("%s", msg))
	}

	if !phpVersionRe.MatchString(s.PHPVersion) {
		return invalid(fmt.Sprintf("php_version %q must look like 8.3", s.PHPVersion))
	}
	if !cacheZoneRe.MatchString(s.CacheZone) {
		return invalid(fmt.Sprintf("cache_zone %q must be letters, digits or underscores", s.CacheZone))
	}
	if !nginxSizeRe.MatchString(s.CacheSize) || !nginxSizeRe.MatchString(s.CacheInactive) {
		return invalid("cache_size and cache_inactive must be nginx sizes such as 100m")
	}
	for name, p := range map[string]string{
		"web_root":        s.WebRoot,
		"nginx_available": s.NginxAvailable,
		"nginx_enabled":   s.NginxEnabled,
		"nginx_conf":      s.NginxConf,
		"cache_path":      s.CachePath,
	} {
		if !filepath.IsAbs(p) {
			return invalid(fmt.Sprintf("%s must be an absolute path, got %q", name, p))
		}
	}
	if s.WebUser == "" {
		return invalid("web_user must not be empty")
	}
	if !strings.HasPrefix(s.SaltURL, "https://") || !strings.HasPrefix(s.WordPressURL, "https://") {
		return invalid("salt_url and wordpress_url must use https")
	}
	if s.HTTPTimeout <= 0 {
		return invalid("http_timeout must be positive")
	}
	return nil
}

// DocumentRoot returns the WordPress install directory for a domain.
func (s Settings) DocumentRoot(domain string) string {
	return filepath.Join(s.WebRoot, domain)
}

// PHPSocket returns the PHP-FPM unix socket for the configured version.
func (s Settings) PHPSocket() string {
	return fmt.Sprintf("/run/php/php%s-fpm.sock", s.PHPVersion)
}

// PHPFPMService returns the systemd unit name of PHP-FPM.
func (s Settings) PHPFPMService() string {
	return fmt.Sprintf("php%s-fpm", s.PHPVersion)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
